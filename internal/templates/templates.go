// Package templates embeds the HTML pages of the application.
package templates

import (
	"embed"
	"fmt"
	"html/template"
	"time"
)

//go:embed *.tmpl
var files embed.FS

// Parse parses every embedded page. funcs is merged over the built-in
// helpers and must provide "t" (translate) and "lp" (localized path).
func Parse(funcs template.FuncMap) (*template.Template, error) {
	base := template.FuncMap{
		"formatDate": func(t time.Time) string {
			return t.Format("2006-01-02 15:04")
		},
		"percent": func(v float64) string {
			return fmt.Sprintf("%.1f", v)
		},
		"add": func(a, b int) int {
			return a + b
		},
	}
	for name, fn := range funcs {
		base[name] = fn
	}

	tmpl, err := template.New("").Funcs(base).ParseFS(files, "*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return tmpl, nil
}
