// Package render turns view names and data into HTML documents.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"

	"github.com/rs/zerolog/hlog"

	"github.com/andrasnagy-data/feedback/internal/shared/middleware"
)

//go:embed templates/*.html
var templateFS embed.FS

const layout = "templates/base.html"

type (
	// Renderer holds one parsed template set per page, each sharing the base layout.
	Renderer struct {
		pages map[string]*template.Template
	}

	// view is what every template receives at its root.
	view struct {
		Identity string
		Data     any
	}
)

func NewRenderer() (*Renderer, error) {
	paths, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	pages := make(map[string]*template.Template, len(paths))
	for _, path := range paths {
		if path == layout {
			continue
		}
		name := strings.TrimSuffix(strings.TrimPrefix(path, "templates/"), ".html")

		tmpl, err := template.ParseFS(templateFS, layout, path)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		pages[name] = tmpl
	}

	return &Renderer{pages: pages}, nil
}

// Render executes page name into a buffer and writes it with status. Nothing is written
// to w if execution fails.
func (rd *Renderer) Render(w http.ResponseWriter, r *http.Request, status int, name string, data any) error {
	tmpl, ok := rd.pages[name]
	if !ok {
		return fmt.Errorf("unknown template %q", name)
	}

	identity, _ := middleware.Identity(r.Context())

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base", view{Identity: identity, Data: data}); err != nil {
		hlog.FromRequest(r).Error().Err(err).Str("template", name).Msg("Failed to execute template")
		return err
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}
