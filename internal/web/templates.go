package web

import (
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/erazemk/dormswap/internal/auth"
	"github.com/erazemk/dormswap/internal/catalog"
	"github.com/erazemk/dormswap/internal/model"
	"github.com/erazemk/dormswap/internal/session"
	"github.com/erazemk/dormswap/internal/validate"
	webembed "github.com/erazemk/dormswap/web"
)

// DormBuildings are the buildings offered by the posting and profile forms.
var DormBuildings = []string{"A1", "A2", "A3", "A4", "A5", "B1", "B2", "B3", "B4", "B5"}

// FuncMap returns the template function map.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"price":         validate.FormatPrice,
		"categoryLabel": func(c model.Category) string { return c.Label() },
		"conditionHelp": model.ConditionDescription,
		"statusName": func(s model.ItemStatus) string {
			switch s {
			case model.ItemStatusAvailable:
				return "Available"
			case model.ItemStatusSold:
				return "Sold"
			case model.ItemStatusRented:
				return "Rented"
			case model.ItemStatusRemoved:
				return "Removed"
			default:
				return string(s)
			}
		},
		"firstImage": func(images []string) string {
			if len(images) == 0 {
				return "/static/placeholder.svg"
			}
			return images[0]
		},
		"deref": func(p *int64) int64 {
			if p == nil {
				return 0
			}
			return *p
		},
	}
}

// LoadTemplates parses all page templates with the layout.
func LoadTemplates() (*Templates, error) {
	tfs := webembed.TemplatesFS()

	layoutBytes, err := fs.ReadFile(tfs, "layout.html")
	if err != nil {
		return nil, fmt.Errorf("reading layout template: %w", err)
	}

	pages := []string{
		"login.html",
		"home.html",
		"item_detail.html",
		"item_form.html",
		"profile.html",
		"profile_edit.html",
		"not_found.html",
	}

	ts := &Templates{templates: make(map[string]*template.Template)}

	for _, page := range pages {
		pageBytes, err := fs.ReadFile(tfs, page)
		if err != nil {
			return nil, fmt.Errorf("reading template %s: %w", page, err)
		}

		tmpl := template.New(page).Funcs(FuncMap())
		tmpl, err = tmpl.Parse(string(layoutBytes))
		if err != nil {
			return nil, fmt.Errorf("parsing layout for %s: %w", page, err)
		}
		tmpl, err = tmpl.Parse(string(pageBytes))
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", page, err)
		}

		ts.templates[page] = tmpl
	}

	return ts, nil
}

// Templates holds parsed HTML templates.
type Templates struct {
	templates map[string]*template.Template
}

// Render renders a template with the given data.
func (ts *Templates) Render(w http.ResponseWriter, status int, name string, data any) {
	tmpl, ok := ts.templates[name]
	if !ok {
		http.Error(w, "template not found", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := tmpl.ExecuteTemplate(w, "layout", data); err != nil {
		slog.Error("failed to render template", "template", name, "error", err)
	}
}

// PageData is the base data passed to all templates.
type PageData struct {
	Title   string
	User    *model.User
	Error   string
	Success string
}

// Server holds all dependencies for page handlers.
type Server struct {
	Sessions  *session.Store
	Auth      *auth.Service
	Catalog   *catalog.Store
	Profiles  ProfileFactory
	Templates *Templates
	Log       *slog.Logger
}
