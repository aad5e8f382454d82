package handlers

import (
	"bytes"
	"html/template"
	"net/http"

	"gleanenglish/internal/i18n"
	"gleanenglish/internal/logger"
	"gleanenglish/internal/security"
	"gleanenglish/internal/service"
	"gleanenglish/internal/templates"
)

// Renderer executes page templates in the locale of the request
type Renderer struct {
	templates *template.Template
	locales   i18n.Config
	catalog   *i18n.Catalog
	csrf      *security.CSRFGenerator
	log       *logger.Logger
}

// NewRenderer parses the embedded templates
func NewRenderer(locales i18n.Config, catalog *i18n.Catalog, csrf *security.CSRFGenerator, log *logger.Logger) (*Renderer, error) {
	tmpl, err := templates.Parse(template.FuncMap{
		"t":  catalog.T,
		"lp": locales.Path,
	})
	if err != nil {
		return nil, err
	}
	return &Renderer{
		templates: tmpl,
		locales:   locales,
		catalog:   catalog,
		csrf:      csrf,
		log:       log,
	}, nil
}

// Locale returns the locale resolved by the gate, or the default one
func (rd *Renderer) Locale(r *http.Request) string {
	if locale := i18n.LocaleFromContext(r.Context()); locale != "" {
		return locale
	}
	return rd.locales.Default
}

// T translates key in the locale of r
func (rd *Renderer) T(r *http.Request, key string, args ...interface{}) string {
	return rd.catalog.T(rd.Locale(r), key, args...)
}

// URL returns path under the locale of r
func (rd *Renderer) URL(r *http.Request, path string) string {
	return rd.locales.Path(rd.Locale(r), path)
}

// Page builds the layout data of a page titled by a message key
func (rd *Renderer) Page(r *http.Request, titleKey string) PageData {
	locale := rd.Locale(r)
	p := PageData{
		Title:  rd.catalog.T(locale, titleKey),
		Locale: locale,
	}
	if id, ok := service.IdentityFromContext(r.Context()); ok {
		p.Identity = &id
		token, err := rd.csrf.GenerateToken(id.UserID)
		if err != nil {
			rd.log.Warn("Failed to generate CSRF token", "user_id", id.UserID, "error", err)
		}
		p.CSRFToken = token
	}
	for _, code := range rd.locales.Locales {
		p.Languages = append(p.Languages, LanguageLink{
			Code:   code,
			Label:  rd.catalog.T(locale, "common.language."+code),
			URL:    rd.locales.SwitchLocalePath(r.URL.Path, code),
			Active: code == locale,
		})
	}
	return p
}

// Render executes a template into a buffer first so a failing template
// never leaves a half-written page.
func (rd *Renderer) Render(w http.ResponseWriter, status int, name string, data interface{}) {
	var buf bytes.Buffer
	if err := rd.templates.ExecuteTemplate(&buf, name, data); err != nil {
		respondWithError(rd.log, w, http.StatusInternalServerError, ErrInternalServerError, "Error rendering template "+name, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// Error renders the error page with a translated message
func (rd *Renderer) Error(w http.ResponseWriter, r *http.Request, status int, messageKey string) {
	page := rd.Page(r, messageKey)
	rd.Render(w, status, "error.tmpl", ErrorViewData{PageData: page, Message: page.Title})
}
