// internal/web/templates.go
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ammerola/keuringen-be/internal/core/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

const layoutFile = "templates/layout.html"

// Templates holds one parsed template set per page, each combined with the
// shared layout
type Templates struct {
	pages map[string]*template.Template
}

// TemplateFuncs returns the helpers available to every page. Dates render
// in loc.
func TemplateFuncs(loc *time.Location) template.FuncMap {
	return template.FuncMap{
		"formatDate": func(t time.Time) string {
			return domain.FormatDate(t, loc)
		},
		"statusColor": domain.StatusColor,
		"statusLabel": func(rec domain.Inspection) string {
			return domain.StatusLabel(rec, loc)
		},
		"price": func(p *decimal.Decimal) string {
			if p == nil {
				return ""
			}
			return "€ " + p.StringFixed(2)
		},
		"prevPage": func(page int) int { return page - 1 },
		"nextPage": func(page int) int { return page + 1 },
		"pageURL":  pageURL,
	}
}

// LoadTemplates parses every page under templates/ against the layout
func LoadTemplates(funcs template.FuncMap) (*Templates, error) {
	files, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	t := &Templates{pages: make(map[string]*template.Template)}
	for _, file := range files {
		if file == layoutFile {
			continue
		}
		name := path.Base(file)
		tmpl, err := template.New(name).Funcs(funcs).ParseFS(templateFS, layoutFile, file)
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		t.pages[name] = tmpl
	}
	return t, nil
}

// Render executes page into a buffer first so a failing template never
// leaves a half written response
func (t *Templates) Render(w http.ResponseWriter, status int, page string, data any) error {
	tmpl, ok := t.pages[page]
	if !ok {
		return fmt.Errorf("template %s not found", page)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		return fmt.Errorf("rendering %s: %w", page, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

// pageURL links to page of the list filtered by query
func pageURL(query string, page int) string {
	v := url.Values{}
	if query != "" {
		v.Set("zoek", query)
	}
	if page > 1 {
		v.Set("pagina", strconv.Itoa(page))
	}
	if len(v) == 0 {
		return "/keuringen"
	}
	return "/keuringen?" + v.Encode()
}
