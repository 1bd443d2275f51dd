// Package ui embeds the HTML templates and static assets.
package ui

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"path"
)

//go:embed html/*.html static
var files embed.FS

// Templates parses every page template together with the base layout,
// keyed by file name ("index.html", ...).
func Templates() (map[string]*template.Template, error) {
	pages, err := fs.Glob(files, "html/*.html")
	if err != nil {
		return nil, err
	}

	templates := make(map[string]*template.Template, len(pages))
	for _, page := range pages {
		name := path.Base(page)
		if name == "base.html" {
			continue
		}
		tmpl, err := template.ParseFS(files, "html/base.html", page)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		templates[name] = tmpl
	}
	return templates, nil
}

func Static() fs.FS {
	sub, err := fs.Sub(files, "static")
	if err != nil {
		panic(err)
	}
	return sub
}
