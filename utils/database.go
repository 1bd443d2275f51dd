package utils

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"rango/models"
)

var (
	ErrCategoryNotFound = errors.New("category not found")
	ErrCategoryExists   = errors.New("category already exists")
	ErrUserNotFound     = errors.New("user not found")
	ErrUsernameTaken    = errors.New("username already taken")
)

const uniqueViolation = "23505"

func OpenDB(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	// Parse the connection string into a pgxpool.Config
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	config.MaxConns = 20
	config.MinConns = 2
	config.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	// Test the connection
	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS categories (
		id    SERIAL PRIMARY KEY,
		name  VARCHAR(128) NOT NULL UNIQUE,
		slug  VARCHAR(150) NOT NULL UNIQUE,
		views INTEGER NOT NULL DEFAULT 0,
		likes INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS pages (
		id          SERIAL PRIMARY KEY,
		category_id INTEGER NOT NULL REFERENCES categories(id) ON DELETE CASCADE,
		title       VARCHAR(128) NOT NULL,
		url         VARCHAR(200) NOT NULL,
		views       INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS pages_category_id_idx ON pages (category_id)`,
	`CREATE TABLE IF NOT EXISTS users (
		id            UUID PRIMARY KEY,
		username      VARCHAR(150) NOT NULL UNIQUE,
		email         TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL,
		is_active     BOOLEAN NOT NULL DEFAULT TRUE,
		date_joined   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		last_login    TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS user_profiles (
		user_id UUID PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
		website VARCHAR(200) NOT NULL DEFAULT '',
		picture TEXT NOT NULL DEFAULT ''
	)`,
}

// Store is the Postgres-backed catalogue and account storage.
type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// Migrate creates the tables if they do not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	for _, stmt := range schema {
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func scanCategories(rows pgx.Rows) ([]models.Category, error) {
	defer rows.Close()

	categories := []models.Category{}
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Views, &c.Likes); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read categories: %w", err)
	}
	return categories, nil
}

func scanPages(rows pgx.Rows) ([]models.Page, error) {
	defer rows.Close()

	pages := []models.Page{}
	for rows.Next() {
		var p models.Page
		if err := rows.Scan(&p.ID, &p.CategoryID, &p.Title, &p.URL, &p.Views); err != nil {
			return nil, fmt.Errorf("scan page: %w", err)
		}
		pages = append(pages, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read pages: %w", err)
	}
	return pages, nil
}

// TopCategories returns at most n categories, most liked first.
func (s *Store) TopCategories(ctx context.Context, n int) ([]models.Category, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	stmt := "SELECT id, name, slug, views, likes FROM categories ORDER BY likes DESC, id LIMIT $1"
	rows, err := s.db.Query(ctx, stmt, n)
	if err != nil {
		return nil, fmt.Errorf("query top categories: %w", err)
	}
	return scanCategories(rows)
}

func (s *Store) AllCategories(ctx context.Context) ([]models.Category, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	rows, err := s.db.Query(ctx, "SELECT id, name, slug, views, likes FROM categories ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	return scanCategories(rows)
}

// TopPages returns at most n pages, most viewed first.
func (s *Store) TopPages(ctx context.Context, n int) ([]models.Page, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	stmt := "SELECT id, category_id, title, url, views FROM pages ORDER BY views DESC, id LIMIT $1"
	rows, err := s.db.Query(ctx, stmt, n)
	if err != nil {
		return nil, fmt.Errorf("query top pages: %w", err)
	}
	return scanPages(rows)
}

func (s *Store) CategoryBySlug(ctx context.Context, slug string) (*models.Category, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var c models.Category
	stmt := "SELECT id, name, slug, views, likes FROM categories WHERE slug = $1"
	err := s.db.QueryRow(ctx, stmt, slug).Scan(&c.ID, &c.Name, &c.Slug, &c.Views, &c.Likes)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("query category %q: %w", slug, err)
	}
	return &c, nil
}

func (s *Store) PagesByCategory(ctx context.Context, categoryID int) ([]models.Page, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	stmt := "SELECT id, category_id, title, url, views FROM pages WHERE category_id = $1 ORDER BY id"
	rows, err := s.db.Query(ctx, stmt, categoryID)
	if err != nil {
		return nil, fmt.Errorf("query pages: %w", err)
	}
	return scanPages(rows)
}

// AddCategory inserts a new category with zero views and likes.
func (s *Store) AddCategory(ctx context.Context, name string) (*models.Category, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	c := models.Category{Name: name, Slug: Slugify(name)}
	stmt := "INSERT INTO categories (name, slug, views, likes) VALUES ($1, $2, 0, 0) RETURNING id"
	if err := s.db.QueryRow(ctx, stmt, c.Name, c.Slug).Scan(&c.ID); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrCategoryExists
		}
		return nil, fmt.Errorf("insert category: %w", err)
	}
	return &c, nil
}

// GetOrCreateCategory upserts a category by name and sets its counters.
func (s *Store) GetOrCreateCategory(ctx context.Context, name string, views, likes int) (*models.Category, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var c models.Category
	stmt := `INSERT INTO categories (name, slug, views, likes) VALUES ($1, $2, $3, $4)
		ON CONFLICT (name) DO UPDATE SET views = EXCLUDED.views, likes = EXCLUDED.likes
		RETURNING id, name, slug, views, likes`
	err := s.db.QueryRow(ctx, stmt, name, Slugify(name), views, likes).
		Scan(&c.ID, &c.Name, &c.Slug, &c.Views, &c.Likes)
	if err != nil {
		return nil, fmt.Errorf("upsert category %q: %w", name, err)
	}
	return &c, nil
}

// AddPage inserts a page into a category with zero views.
func (s *Store) AddPage(ctx context.Context, categoryID int, title, url string) (*models.Page, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	p := models.Page{CategoryID: categoryID, Title: title, URL: url}
	stmt := "INSERT INTO pages (category_id, title, url, views) VALUES ($1, $2, $3, 0) RETURNING id"
	if err := s.db.QueryRow(ctx, stmt, categoryID, title, url).Scan(&p.ID); err != nil {
		return nil, fmt.Errorf("insert page: %w", err)
	}
	return &p, nil
}

// GetOrCreatePage finds a page by category and title, creating it when
// missing, and sets its url and views.
func (s *Store) GetOrCreatePage(ctx context.Context, categoryID int, title, url string, views int) (*models.Page, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	p := models.Page{CategoryID: categoryID, Title: title, URL: url, Views: views}
	update := "UPDATE pages SET url = $3, views = $4 WHERE id = (SELECT id FROM pages WHERE category_id = $1 AND title = $2 ORDER BY id LIMIT 1) RETURNING id"
	err = tx.QueryRow(ctx, update, categoryID, title, url, views).Scan(&p.ID)
	if errors.Is(err, pgx.ErrNoRows) {
		insert := "INSERT INTO pages (category_id, title, url, views) VALUES ($1, $2, $3, $4) RETURNING id"
		err = tx.QueryRow(ctx, insert, categoryID, title, url, views).Scan(&p.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("upsert page %q: %w", title, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return &p, nil
}

// CreateUser stores a user together with its profile in one transaction.
func (s *Store) CreateUser(ctx context.Context, user *models.User, profile *models.UserProfile) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	profile.UserID = user.ID

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	stmt := `INSERT INTO users (id, username, email, password_hash, is_active)
		VALUES ($1, $2, $3, $4, $5) RETURNING date_joined`
	err = tx.QueryRow(ctx, stmt, user.ID, user.Username, user.Email, string(user.PasswordHash), user.IsActive).
		Scan(&user.DateJoined)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrUsernameTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}

	stmt = "INSERT INTO user_profiles (user_id, website, picture) VALUES ($1, $2, $3)"
	if _, err := tx.Exec(ctx, stmt, profile.UserID, profile.Website, profile.Picture); err != nil {
		return fmt.Errorf("insert profile: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	zap.L().Info("user created", zap.String("user_id", user.ID.String()), zap.String("username", user.Username))
	return nil
}

func (s *Store) UsernameInUse(ctx context.Context, username string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var exists bool
	stmt := "SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)"
	if err := s.db.QueryRow(ctx, stmt, username).Scan(&exists); err != nil {
		return false, fmt.Errorf("database error checking username: %w", err)
	}
	return exists, nil
}

func (s *Store) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var (
		u    models.User
		hash string
	)
	stmt := "SELECT id, username, email, password_hash, is_active, date_joined FROM users WHERE username = $1"
	err := s.db.QueryRow(ctx, stmt, username).Scan(&u.ID, &u.Username, &u.Email, &hash, &u.IsActive, &u.DateJoined)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("query user: %w", err)
	}
	u.PasswordHash = []byte(hash)
	return &u, nil
}

func (s *Store) UpdateLastLogin(ctx context.Context, userID uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if _, err := s.db.Exec(ctx, "UPDATE users SET last_login = NOW() WHERE id = $1", userID); err != nil {
		return fmt.Errorf("error updating last login: %w", err)
	}
	return nil
}
