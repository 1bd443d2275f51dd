package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"rango/models"
	"rango/utils"
)

const (
	boldMessage  = "Crunchy, creamy, cookie, candy, cupcake!"
	topListLimit = 5
)

// trackVisit runs the visit counter for the request session and persists
// it. Corrupt visit data is dropped and counting starts over.
func (app *App) trackVisit(ctx context.Context, session *models.Session) int {
	now := app.now()

	err := utils.VisitorCookieHandler(session.Values, now)
	if errors.Is(err, utils.ErrMalformedVisit) {
		app.Log.Warn("resetting malformed visit data", zap.Error(err))
		delete(session.Values, models.SessionKeyVisits)
		delete(session.Values, models.SessionKeyLastVisit)
		err = utils.VisitorCookieHandler(session.Values, now)
	}
	if err != nil {
		app.Log.Error("track visit", zap.Error(err))
		return utils.Visits(session.Values)
	}

	err = utils.SaveSessionValues(ctx, app.Redis, session, now)
	switch {
	case errors.Is(err, utils.ErrSessionNotFound):
		app.Log.Debug("session ended before the visit was saved")
	case err != nil:
		app.Log.Warn("persist visit", zap.Error(err))
	}
	return utils.Visits(session.Values)
}

func (app *App) Index(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	categories, err := app.Store.TopCategories(ctx, topListLimit)
	if err != nil {
		app.serverError(w, "load top categories", err)
		return
	}
	pages, err := app.Store.TopPages(ctx, topListLimit)
	if err != nil {
		app.serverError(w, "load top pages", err)
		return
	}

	visits := app.trackVisit(ctx, utils.SessionFromContext(ctx))

	app.render(w, http.StatusOK, "index.html", models.IndexData{
		Base:        app.base(r),
		BoldMessage: boldMessage,
		Categories:  categories,
		Pages:       pages,
		Visits:      visits,
	})
}

func (app *App) About(w http.ResponseWriter, r *http.Request) {
	visits := app.trackVisit(r.Context(), utils.SessionFromContext(r.Context()))

	app.render(w, http.StatusOK, "about.html", models.AboutData{
		Base:   app.base(r),
		Visits: visits,
	})
}

func (app *App) ShowCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	data := models.CategoryData{Base: app.base(r)}

	category, err := app.Store.CategoryBySlug(ctx, chi.URLParam(r, "slug"))
	switch {
	case err == nil:
		pages, err := app.Store.PagesByCategory(ctx, category.ID)
		if err != nil {
			app.serverError(w, "load category pages", err)
			return
		}
		data.Category = category
		data.Pages = pages
	case errors.Is(err, utils.ErrCategoryNotFound):
		// the template shows the "does not exist" message
	default:
		app.serverError(w, "load category", err)
		return
	}

	app.render(w, http.StatusOK, "category.html", data)
}

func (app *App) AddCategory(w http.ResponseWriter, r *http.Request) {
	data := models.CategoryFormData{Base: app.base(r)}

	if r.Method == http.MethodPost {
		if err := utils.Authorize(r, utils.SessionFromContext(r.Context())); err != nil {
			app.forbidden(w, err)
			return
		}

		name, errs := utils.ValidateCategoryForm(r.PostFormValue("name"))
		if !errs.Any() {
			_, err := app.Store.AddCategory(r.Context(), name)
			switch {
			case err == nil:
				app.Log.Info("category added", zap.String("name", name))
				http.Redirect(w, r, "/rango/", http.StatusSeeOther)
				return
			case errors.Is(err, utils.ErrCategoryExists):
				addDuplicateCategoryError(r.Context(), app.Store, name, errs)
			default:
				app.serverError(w, "add category", err)
				return
			}
		}

		app.Log.Info("invalid category form", zap.Any("errors", errs))
		data.Name = name
		data.Errors = errs
	}

	app.render(w, http.StatusOK, "add_category.html", data)
}

// addDuplicateCategoryError reports a taken name on the name field; a
// different name whose slug collides is reported for the whole form.
func addDuplicateCategoryError(ctx context.Context, store Store, name string, errs models.FormErrors) {
	existing, err := store.CategoryBySlug(ctx, utils.Slugify(name))
	if err == nil && existing.Name != name {
		errs.Add(models.NonFieldErrors, fmt.Sprintf("The category %q already uses this address.", existing.Name))
		return
	}
	errs.Add("name", "Category with this Name already exists.")
}

func (app *App) AddPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	category, err := app.Store.CategoryBySlug(ctx, chi.URLParam(r, "slug"))
	if err != nil {
		if !errors.Is(err, utils.ErrCategoryNotFound) {
			app.serverError(w, "load category", err)
			return
		}
		// cannot add a page to a category that does not exist
		http.Redirect(w, r, "/rango/", http.StatusSeeOther)
		return
	}

	data := models.PageFormData{Base: app.base(r), Category: category}

	if r.Method == http.MethodPost {
		if err := utils.Authorize(r, utils.SessionFromContext(ctx)); err != nil {
			app.forbidden(w, err)
			return
		}

		title, pageURL, errs := utils.ValidatePageForm(r.PostFormValue("title"), r.PostFormValue("url"))
		if !errs.Any() {
			if _, err := app.Store.AddPage(ctx, category.ID, title, pageURL); err != nil {
				app.serverError(w, "add page", err)
				return
			}
			app.Log.Info("page added", zap.String("category", category.Slug), zap.String("title", title))
			http.Redirect(w, r, "/rango/category/"+category.Slug+"/", http.StatusSeeOther)
			return
		}

		app.Log.Info("invalid page form", zap.Any("errors", errs))
		data.Title = title
		data.URL = r.PostFormValue("url")
		data.Errors = errs
	}

	app.render(w, http.StatusOK, "add_page.html", data)
}

func (app *App) Restricted(w http.ResponseWriter, r *http.Request) {
	app.render(w, http.StatusOK, "restricted.html", struct{ models.Base }{app.base(r)})
}

func (app *App) Healthz(w http.ResponseWriter, r *http.Request) {
	if err := app.Store.Ping(r.Context()); err != nil {
		app.Log.Warn("health: database", zap.Error(err))
		http.Error(w, "database unavailable", http.StatusServiceUnavailable)
		return
	}
	if err := app.Redis.Ping(r.Context()).Err(); err != nil {
		app.Log.Warn("health: redis", zap.Error(err))
		http.Error(w, "redis unavailable", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok"))
}
