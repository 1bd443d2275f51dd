package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"rango/models"
	"rango/utils"
)

const maxPictureSize = 5 << 20

var pictureTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
}

func (app *App) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	data := models.RegisterData{Base: app.base(r)}

	if r.Method != http.MethodPost {
		app.render(w, http.StatusOK, "register.html", data)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxPictureSize+1<<20)
	if err := r.ParseMultipartForm(maxPictureSize); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}
	if err := utils.Authorize(r, utils.SessionFromContext(ctx)); err != nil {
		app.forbidden(w, err)
		return
	}

	in := utils.RegistrationInput{
		Username: r.PostFormValue("username"),
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
		Website:  r.PostFormValue("website"),
	}
	errs := utils.ValidateRegistration(&in)

	if _, ok := errs["username"]; !ok {
		inUse, err := app.Store.UsernameInUse(ctx, in.Username)
		if err != nil {
			app.serverError(w, "check username", err)
			return
		}
		if inUse {
			errs.Add("username", "A user with that username already exists.")
		}
	}

	picture, header, err := r.FormFile("picture")
	switch {
	case err == nil:
		defer picture.Close()
		if msg := checkPicture(picture, header); msg != "" {
			errs.Add("picture", msg)
		}
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		// picture is optional
	default:
		errs.Add("picture", "Upload a valid image.")
	}

	data.Username = in.Username
	data.Email = in.Email
	data.Website = in.Website

	if errs.Any() {
		app.Log.Info("invalid registration form", zap.Any("errors", errs))
		data.Errors = errs
		app.render(w, http.StatusOK, "register.html", data)
		return
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		app.serverError(w, "hash password", err)
		return
	}
	user := &models.User{
		ID:           uuid.New(),
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: []byte(hash),
		IsActive:     true,
	}
	profile := &models.UserProfile{Website: in.Website}

	if picture != nil {
		if app.Pictures == nil {
			app.Log.Warn("picture upload skipped: no object storage configured")
		} else {
			key, err := app.Pictures.PutPicture(ctx, user.ID, header.Filename, picture, header.Size, header.Header.Get("Content-Type"))
			if err != nil {
				app.serverError(w, "store picture", err)
				return
			}
			profile.Picture = key
		}
	}

	if err := app.Store.CreateUser(ctx, user, profile); err != nil {
		if profile.Picture != "" {
			if derr := app.Pictures.DeletePicture(ctx, profile.Picture); derr != nil {
				app.Log.Warn("remove orphaned picture", zap.Error(derr))
			}
		}
		if errors.Is(err, utils.ErrUsernameTaken) {
			data.Errors = models.FormErrors{"username": {"A user with that username already exists."}}
			app.render(w, http.StatusOK, "register.html", data)
			return
		}
		app.serverError(w, "create user", err)
		return
	}

	if app.Mailer != nil && user.Email != "" {
		if err := app.Mailer.SendWelcome(ctx, user.Email, user.Username); err != nil {
			app.Log.Warn("welcome email failed", zap.String("username", user.Username), zap.Error(err))
		}
	}

	data.Registered = true
	app.render(w, http.StatusOK, "register.html", data)
}

// checkPicture sniffs the upload and returns a form error message, or ""
// when the picture is acceptable. The reader is rewound afterwards.
func checkPicture(f multipart.File, header *multipart.FileHeader) string {
	if header.Size > maxPictureSize {
		return fmt.Sprintf("Picture must be at most %d MB.", maxPictureSize>>20)
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "Upload a valid image."
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "Upload a valid image."
	}

	contentType := http.DetectContentType(head[:n])
	if !pictureTypes[contentType] {
		return "Upload a valid image. The file you uploaded was either not an image or a corrupted image."
	}
	header.Header.Set("Content-Type", contentType)
	return ""
}

func (app *App) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	data := models.LoginData{Base: app.base(r), Next: r.URL.Query().Get("next")}

	if r.Method != http.MethodPost {
		app.render(w, http.StatusOK, "login.html", data)
		return
	}

	session := utils.SessionFromContext(ctx)
	if err := utils.Authorize(r, session); err != nil {
		app.forbidden(w, err)
		return
	}

	username := strings.TrimSpace(r.PostFormValue("username"))
	data.Username = username
	data.Next = r.PostFormValue("next")

	user, err := utils.LoginUser(ctx, app.Store, username, r.PostFormValue("password"))
	switch {
	case err == nil:
	case errors.Is(err, utils.ErrInvalidCredentials):
		app.Log.Info("invalid login details", zap.String("username", username))
		data.Error = "Invalid login details supplied."
		app.render(w, http.StatusOK, "login.html", data)
		return
	case errors.Is(err, utils.ErrAccountDisabled):
		data.Error = "Your Rango account is disabled."
		app.render(w, http.StatusOK, "login.html", data)
		return
	default:
		app.serverError(w, "login", err)
		return
	}

	// a new token on login; visit data carries over
	if err := utils.DeleteSession(ctx, app.Redis, session.SessionToken); err != nil {
		app.Log.Warn("drop pre-login session", zap.Error(err))
	}
	if _, err := app.startSession(w, r, user, session.Values); err != nil {
		app.serverError(w, "start session", err)
		return
	}

	if err := app.Store.UpdateLastLogin(ctx, user.ID); err != nil {
		app.Log.Warn("update last login", zap.Error(err))
	}
	if n, err := utils.CountUserSessions(ctx, app.Redis, user.ID.String()); err == nil {
		app.Log.Info("login successful", zap.String("username", user.Username), zap.Int64("active_sessions", n))
	}

	http.Redirect(w, r, safeNext(data.Next), http.StatusSeeOther)
}

// safeNext only allows local redirect targets.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/rango/"
	}
	return next
}

func (app *App) Logout(w http.ResponseWriter, r *http.Request) {
	session := utils.SessionFromContext(r.Context())

	if err := utils.DeleteSession(r.Context(), app.Redis, session.SessionToken); err != nil {
		app.Log.Warn("failed to delete session", zap.Error(err))
	}
	utils.ClearSessionCookie(w)
	app.Log.Info("logged out", zap.String("username", session.Username))

	http.Redirect(w, r, "/rango/", http.StatusSeeOther)
}
