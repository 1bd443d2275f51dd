package handlers

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"rango/models"
	"rango/utils"
)

// Store is the persistence the handlers need; *utils.Store implements it.
type Store interface {
	TopCategories(ctx context.Context, n int) ([]models.Category, error)
	TopPages(ctx context.Context, n int) ([]models.Page, error)
	CategoryBySlug(ctx context.Context, slug string) (*models.Category, error)
	PagesByCategory(ctx context.Context, categoryID int) ([]models.Page, error)
	AddCategory(ctx context.Context, name string) (*models.Category, error)
	AddPage(ctx context.Context, categoryID int, title, url string) (*models.Page, error)

	CreateUser(ctx context.Context, user *models.User, profile *models.UserProfile) error
	UsernameInUse(ctx context.Context, username string) (bool, error)
	UserByUsername(ctx context.Context, username string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, userID uuid.UUID) error

	Ping(ctx context.Context) error
}

type Mailer interface {
	SendWelcome(ctx context.Context, email, username string) error
}

type PictureStore interface {
	PutPicture(ctx context.Context, userID uuid.UUID, filename string, body io.Reader, size int64, contentType string) (string, error)
	DeletePicture(ctx context.Context, key string) error
}

// App carries the dependencies shared by all handlers. Mailer and Pictures
// are optional; leave them nil to disable welcome mail and picture uploads.
type App struct {
	Store      Store
	Redis      *redis.Client
	Mailer     Mailer
	Pictures   PictureStore
	Log        *zap.Logger
	Templates  map[string]*template.Template
	SessionTTL time.Duration
	Now        func() time.Time
}

func (app *App) now() time.Time {
	if app.Now != nil {
		return app.Now()
	}
	return time.Now()
}

// base fills the fields every page template needs from the request session.
func (app *App) base(r *http.Request) models.Base {
	session := utils.SessionFromContext(r.Context())
	if session == nil {
		return models.Base{}
	}
	return models.Base{
		CSRFtoken:  session.CSRFToken,
		IsLoggedIn: session.IsAuthenticated(),
		Username:   session.Username,
	}
}

func (app *App) render(w http.ResponseWriter, status int, name string, data any) {
	tmpl, ok := app.Templates[name]
	if !ok {
		app.serverError(w, "render", fmt.Errorf("template %s not found", name))
		return
	}

	// render into a buffer so a failing template does not leave a half-written page
	buf := new(bytes.Buffer)
	if err := tmpl.ExecuteTemplate(buf, "base", data); err != nil {
		app.serverError(w, "render "+name, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		app.Log.Debug("write response", zap.Error(err))
	}
}

func (app *App) serverError(w http.ResponseWriter, msg string, err error) {
	app.Log.Error(msg, zap.Error(err))
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}

func (app *App) forbidden(w http.ResponseWriter, err error) {
	app.Log.Info("request rejected", zap.Error(err))
	http.Error(w, "Forbidden", http.StatusForbidden)
}
