package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"rango/ui"
)

func Routes(app *App) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(app.requestLogger)

	// File server for static files
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(ui.Static()))))
	r.Get("/healthz", app.Healthz)

	r.Group(func(r chi.Router) {
		r.Use(app.Sessions)

		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/rango/", http.StatusFound)
		})

		r.Route("/rango", func(r chi.Router) {
			r.Get("/", app.Index)
			r.Get("/about/", app.About)
			r.Get("/category/{slug}/", app.ShowCategory)
			r.Get("/add_category/", app.AddCategory)
			r.Post("/add_category/", app.AddCategory)
			r.Get("/category/{slug}/add_page/", app.AddPage)
			r.Post("/category/{slug}/add_page/", app.AddPage)
			r.Get("/register/", app.Register)
			r.Post("/register/", app.Register)
			r.Get("/login/", app.Login)
			r.Post("/login/", app.Login)

			r.Group(func(r chi.Router) {
				r.Use(app.RequireLogin)
				r.Get("/logout/", app.Logout)
				r.Get("/restricted/", app.Restricted)
			})
		})
	})

	return r
}
