// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package render draws pages and menu partials from embedded templates.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/olegiv/ocms-menu/internal/menutree"
)

//go:embed templates
var templatesFS embed.FS

const (
	baseLayout   = "templates/layouts/base.html"
	partialsDir  = "templates/partials"
	pagesDir     = "templates/pages"
	menuTemplate = "menu"
)

// Renderer handles template rendering with caching.
type Renderer struct {
	templates map[string]*template.Template
	partials  *template.Template
}

// New parses the embedded templates.
func New() (*Renderer, error) {
	return NewFromFS(templatesFS)
}

// NewFromFS parses templates from fsys, laid out as the embedded set.
func NewFromFS(fsys fs.FS) (*Renderer, error) {
	r := &Renderer{templates: make(map[string]*template.Template)}

	partials, err := templateFiles(fsys, partialsDir)
	if err != nil {
		return nil, fmt.Errorf("getting partials: %w", err)
	}
	r.partials, err = template.New("").Funcs(templateFuncs()).ParseFS(fsys, partials...)
	if err != nil {
		return nil, fmt.Errorf("parsing partials: %w", err)
	}

	pages, err := templateFiles(fsys, pagesDir)
	if err != nil {
		return nil, fmt.Errorf("getting pages: %w", err)
	}
	for _, page := range pages {
		name := strings.TrimSuffix(path.Base(page), ".html")

		files := append([]string{baseLayout}, partials...)
		files = append(files, page)

		tmpl, err := template.New("").Funcs(templateFuncs()).ParseFS(fsys, files...)
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		r.templates[name] = tmpl
	}
	return r, nil
}

// templateFiles returns all .html files in a directory.
func templateFiles(fsys fs.FS, dir string) ([]string, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".html") {
			files = append(files, path.Join(dir, entry.Name()))
		}
	}
	return files, nil
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"nodeClass": NodeClass,
	}
}

// NodeClass returns the CSS classes of a menu node.
func NodeClass(n menutree.Node) string {
	classes := []string{"menu-item"}
	if n.Active {
		classes = append(classes, "active")
	}
	if n.InTrail {
		classes = append(classes, "in-trail")
	}
	if len(n.Children) > 0 {
		classes = append(classes, "has-children")
	}
	return strings.Join(classes, " ")
}

// TemplateData holds data passed to page templates. Menus is keyed by menu name.
type TemplateData struct {
	Title       string
	Path        string
	Menus       map[string]menutree.Result
	CurrentYear int
}

// Has reports whether a page template exists.
func (r *Renderer) Has(name string) bool {
	_, ok := r.templates[name]
	return ok
}

// Render renders a page template with the given data.
func (r *Renderer) Render(w http.ResponseWriter, name string, data TemplateData) error {
	tmpl, ok := r.templates[name]
	if !ok {
		return fmt.Errorf("template %s not found", name)
	}
	data.CurrentYear = time.Now().Year()

	// Render to buffer first to catch errors
	buf := new(bytes.Buffer)
	if err := tmpl.ExecuteTemplate(buf, "base", data); err != nil {
		return fmt.Errorf("executing template %s: %w", name, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, err := buf.WriteTo(w)
	return err
}

// RenderMenu writes the menu partial for a resolved menu.
func (r *Renderer) RenderMenu(w io.Writer, res menutree.Result) error {
	buf := new(bytes.Buffer)
	if err := r.partials.ExecuteTemplate(buf, menuTemplate, res); err != nil {
		return fmt.Errorf("executing menu %s: %w", res.MenuName, err)
	}
	_, err := buf.WriteTo(w)
	return err
}
