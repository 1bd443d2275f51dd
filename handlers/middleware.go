package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"rango/models"
	"rango/utils"
)

// Sessions loads the client's session from Redis, starting a new anonymous
// one when the cookie is missing, unknown or expired.
func (app *App) Sessions(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var session *models.Session

		if token, ok := utils.CookieValue(r, utils.SessionCookieName); ok {
			s, err := utils.GetSession(r.Context(), app.Redis, token, app.now())
			switch {
			case err == nil:
				session = s
			case errors.Is(err, utils.ErrSessionNotFound):
				app.Log.Debug("stale session cookie")
			default:
				app.serverError(w, "load session", err)
				return
			}
		}

		if session == nil {
			s, err := app.startSession(w, r, nil, nil)
			if err != nil {
				app.serverError(w, "start session", err)
				return
			}
			session = s
		}

		next.ServeHTTP(w, r.WithContext(utils.WithSession(r.Context(), session)))
	})
}

// startSession creates and persists a session, optionally bound to a user
// and seeded with values carried over from a previous session.
func (app *App) startSession(w http.ResponseWriter, r *http.Request, user *models.User, values models.SessionValues) (*models.Session, error) {
	userID := ""
	if user != nil {
		userID = user.ID.String()
	}

	session, err := utils.NewSession(r, userID, app.SessionTTL, app.now())
	if err != nil {
		return nil, err
	}
	if user != nil {
		session.Username = user.Username
	}
	for k, v := range values {
		session.Values[k] = v
	}

	if err := utils.StoreSession(r.Context(), app.Redis, session, app.SessionTTL); err != nil {
		return nil, err
	}
	utils.SetSessionCookie(w, session.SessionToken, app.SessionTTL)
	return session, nil
}

// RequireLogin sends anonymous visitors to the login page, remembering
// where they were going.
func (app *App) RequireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !utils.SessionFromContext(r.Context()).IsAuthenticated() {
			target := "/rango/login/?next=" + url.QueryEscape(r.URL.RequestURI())
			http.Redirect(w, r, target, http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (app *App) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		app.Log.Info("http_request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", chimiddleware.GetReqID(r.Context())),
		)
	})
}
