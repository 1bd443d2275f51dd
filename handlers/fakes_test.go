package handlers_test

import (
	"context"
	"errors"
	"io"
	"sort"
	"sync"

	"github.com/google/uuid"

	"rango/models"
	"rango/utils"
)

// memStore is an in-memory stand-in for the Postgres store.
type memStore struct {
	mu         sync.Mutex
	categories []models.Category
	pages      []models.Page
	users      map[string]*models.User
	profiles   map[uuid.UUID]*models.UserProfile
	lastLogins map[uuid.UUID]int
	nextID     int
	failWith   error
}

func newMemStore() *memStore {
	return &memStore{
		users:      map[string]*models.User{},
		profiles:   map[uuid.UUID]*models.UserProfile{},
		lastLogins: map[uuid.UUID]int{},
	}
}

func (m *memStore) fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failWith = err
}

func (m *memStore) seedCategory(name string, views, likes int) models.Category {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	c := models.Category{ID: m.nextID, Name: name, Slug: utils.Slugify(name), Views: views, Likes: likes}
	m.categories = append(m.categories, c)
	return c
}

func (m *memStore) seedPage(categoryID int, title, url string, views int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	m.pages = append(m.pages, models.Page{ID: m.nextID, CategoryID: categoryID, Title: title, URL: url, Views: views})
}

func (m *memStore) TopCategories(_ context.Context, n int) ([]models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	out := append([]models.Category(nil), m.categories...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Likes > out[j].Likes })
	if len(out) > n {
		out = out[:n]
	}
	return out, nil
}

func (m *memStore) TopPages(_ context.Context, n int) ([]models.Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := append([]models.Page(nil), m.pages...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Views > out[j].Views })
	if len(out) > n {
		out = out[:n]
	}
	return out, nil
}

func (m *memStore) CategoryBySlug(_ context.Context, slug string) (*models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.categories {
		if c.Slug == slug {
			c := c
			return &c, nil
		}
	}
	return nil, utils.ErrCategoryNotFound
}

func (m *memStore) PagesByCategory(_ context.Context, categoryID int) ([]models.Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Page{}
	for _, p := range m.pages {
		if p.CategoryID == categoryID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memStore) AddCategory(_ context.Context, name string) (*models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	slug := utils.Slugify(name)
	for _, c := range m.categories {
		if c.Name == name || c.Slug == slug {
			return nil, utils.ErrCategoryExists
		}
	}
	m.nextID++
	c := models.Category{ID: m.nextID, Name: name, Slug: slug}
	m.categories = append(m.categories, c)
	return &c, nil
}

func (m *memStore) AddPage(_ context.Context, categoryID int, title, url string) (*models.Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	p := models.Page{ID: m.nextID, CategoryID: categoryID, Title: title, URL: url}
	m.pages = append(m.pages, p)
	return &p, nil
}

func (m *memStore) CreateUser(_ context.Context, user *models.User, profile *models.UserProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.Username]; ok {
		return utils.ErrUsernameTaken
	}
	profile.UserID = user.ID
	u := *user
	p := *profile
	m.users[user.Username] = &u
	m.profiles[user.ID] = &p
	return nil
}

func (m *memStore) UsernameInUse(_ context.Context, username string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.users[username]
	return ok, nil
}

func (m *memStore) UserByUsername(_ context.Context, username string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[username]
	if !ok {
		return nil, utils.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memStore) UpdateLastLogin(_ context.Context, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastLogins[userID]++
	return nil
}

func (m *memStore) Ping(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.failWith
}

func (m *memStore) profile(username string) *models.UserProfile {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[username]
	if !ok {
		return nil
	}
	return m.profiles[u.ID]
}

func (m *memStore) lastLoginCount(userID uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastLogins[userID]
}

type sentMail struct {
	email    string
	username string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (f *fakeMailer) SendWelcome(_ context.Context, email, username string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMail{email: email, username: username})
	return f.err
}

func (f *fakeMailer) messages() []sentMail {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMail(nil), f.sent...)
}

type fakePictures struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
}

func newFakePictures() *fakePictures {
	return &fakePictures{objects: map[string][]byte{}}
}

func (f *fakePictures) PutPicture(_ context.Context, userID uuid.UUID, filename string, body io.Reader, size int64, contentType string) (string, error) {
	if contentType == "" {
		return "", errors.New("missing content type")
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	if int64(len(data)) != size {
		return "", errors.New("size mismatch")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	key := utils.PictureKey(userID, filename)
	f.objects[key] = data
	return key, nil
}

func (f *fakePictures) DeletePicture(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *fakePictures) has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.objects[key]
	return ok
}
