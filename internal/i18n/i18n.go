// Package i18n resolves the UI locale from request paths and translates
// interface messages.
package i18n

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// Config lists the supported locales and the default one
type Config struct {
	Locales []string
	Default string
}

// NewConfig validates a locale configuration
func NewConfig(locales []string, defaultLocale string) (Config, error) {
	if len(locales) == 0 {
		return Config{}, fmt.Errorf("at least one locale is required")
	}
	c := Config{Locales: append([]string(nil), locales...), Default: defaultLocale}
	if !c.IsSupported(defaultLocale) {
		return Config{}, fmt.Errorf("default locale %q is not supported", defaultLocale)
	}
	return c, nil
}

// IsSupported reports whether locale is configured
func (c Config) IsSupported(locale string) bool {
	for _, l := range c.Locales {
		if l == locale {
			return true
		}
	}
	return false
}

var localeShape = regexp.MustCompile(`^[a-z]{2}(-[A-Z]{2})?$`)

// LooksLikeLocale reports whether a path segment has the shape of a locale code
func LooksLikeLocale(segment string) bool {
	return localeShape.MatchString(segment)
}

// Resolution is the result of resolving the locale of a request path
type Resolution struct {
	Locale string
	// Path is the request path without the locale segment; always starts with '/'
	Path string
	// Prefixed is set when the path carried a supported locale segment
	Prefixed bool
	// Redirect is non-empty when the path named an unsupported locale; it is
	// the same path under the default locale.
	Redirect string
}

// Resolve determines the locale of a request path. A leading supported
// locale segment selects that locale and is stripped; a path without one
// uses the default locale.
func (c Config) Resolve(path string) Resolution {
	first, rest := splitFirst(path)
	switch {
	case c.IsSupported(first):
		return Resolution{Locale: first, Path: rest, Prefixed: true}
	case LooksLikeLocale(first):
		return Resolution{Locale: c.Default, Path: rest, Redirect: c.Path(c.Default, rest)}
	default:
		return Resolution{Locale: c.Default, Path: ensureLeadingSlash(path)}
	}
}

// Path builds the URL path of an unprefixed path under a locale
func (c Config) Path(locale, path string) string {
	path = ensureLeadingSlash(path)
	if path == "/" {
		return "/" + locale
	}
	return "/" + locale + path
}

// SwitchLocalePath returns path with its locale segment replaced by target,
// or with target inserted when path has no locale segment.
func (c Config) SwitchLocalePath(path, target string) string {
	first, rest := splitFirst(path)
	if c.IsSupported(first) {
		return c.Path(target, rest)
	}
	return c.Path(target, path)
}

func splitFirst(path string) (first, rest string) {
	trimmed := strings.TrimPrefix(path, "/")
	first, after, found := strings.Cut(trimmed, "/")
	if !found {
		return first, "/"
	}
	return first, "/" + after
}

func ensureLeadingSlash(path string) string {
	if !strings.HasPrefix(path, "/") {
		return "/" + path
	}
	return path
}

type ctxKey struct{}

// WithLocale stores the request locale in ctx
func WithLocale(ctx context.Context, locale string) context.Context {
	return context.WithValue(ctx, ctxKey{}, locale)
}

// LocaleFromContext returns the locale stored by WithLocale, or ""
func LocaleFromContext(ctx context.Context) string {
	locale, _ := ctx.Value(ctxKey{}).(string)
	return locale
}
