package utils

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"rango/models"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDisabled    = errors.New("account disabled")
	ErrInvalidCSRF        = errors.New("invalid csrf token")
)

const CSRFFieldName = "csrf_token"

func GenerateToken(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return base64.URLEncoding.EncodeToString(bytes), nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), 10)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// NewSession builds a fresh session for the request. userID is empty for
// anonymous visitors.
func NewSession(r *http.Request, userID string, ttl time.Duration, now time.Time) (*models.Session, error) {
	sessionToken, err := GenerateToken(32)
	if err != nil {
		return nil, err
	}
	csrfToken, err := GenerateToken(32)
	if err != nil {
		return nil, err
	}

	now = now.UTC()
	return &models.Session{
		SessionToken: sessionToken,
		UserID:       userID,
		CreatedAt:    now.Format(time.RFC3339),
		ExpiresAt:    now.Add(ttl).Format(time.RFC3339),
		LastActivity: now.Format(time.RFC3339),
		CSRFToken:    csrfToken,
		UserAgent:    GetUserAgent(r),
		IPAddress:    GetIP(r),
		Values:       models.SessionValues{},
	}, nil
}

// Authorize checks the CSRF token of a state-changing request against the
// session. The token is read from the form first, then the X-CSRF-Token
// header.
func Authorize(r *http.Request, session *models.Session) error {
	if session == nil || session.CSRFToken == "" {
		return fmt.Errorf("%w: no session", ErrInvalidCSRF)
	}

	csrf := r.PostFormValue(CSRFFieldName)
	if csrf == "" {
		csrf = r.Header.Get("X-CSRF-Token")
	}
	if csrf == "" || subtle.ConstantTimeCompare([]byte(csrf), []byte(session.CSRFToken)) != 1 {
		return ErrInvalidCSRF
	}
	return nil
}

type UserLookup interface {
	UserByUsername(ctx context.Context, username string) (*models.User, error)
}

// LoginUser verifies a username/password pair. Unknown users and wrong
// passwords both yield ErrInvalidCredentials.
func LoginUser(ctx context.Context, users UserLookup, username, password string) (*models.User, error) {
	user, err := users.UserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login: %w", err)
	}

	if !CheckPasswordHash(password, string(user.PasswordHash)) {
		zap.L().Info("password verification failed", zap.String("username", username))
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrAccountDisabled
	}

	return user, nil
}
