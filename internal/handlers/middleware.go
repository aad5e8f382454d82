package handlers

import (
	"context"
	"errors"
	"net/http"
	"path"
	"strings"
	"time"

	"gleanenglish/internal/i18n"
	"gleanenglish/internal/logger"
	"gleanenglish/internal/models"
	"gleanenglish/internal/security"
	"gleanenglish/internal/service"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const SessionContextKey ContextKey = "session"

// Middleware holds dependencies for middleware functions
type Middleware struct {
	authService *service.AuthService
	locales     i18n.Config
	csrf        *security.CSRFGenerator
	limiter     *security.RateLimiter
	log         *logger.Logger
}

// NewMiddleware creates a new middleware instance
func NewMiddleware(authService *service.AuthService, locales i18n.Config, csrf *security.CSRFGenerator, limiter *security.RateLimiter, log *logger.Logger) *Middleware {
	return &Middleware{
		authService: authService,
		locales:     locales,
		csrf:        csrf,
		limiter:     limiter,
		log:         log.With("component", "middleware"),
	}
}

// Gate runs on every request. It resolves the locale from the first path
// segment and strips it before routing; a segment naming an unsupported
// locale is redirected to the default locale before anything else. Then it
// reads the session cookie and sends visitors without a valid session to
// the login page unless the path is public.
func (m *Middleware) Gate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isStaticAsset(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		res := m.locales.Resolve(r.URL.Path)
		if res.Redirect != "" {
			target := res.Redirect
			if r.URL.RawQuery != "" {
				target += "?" + r.URL.RawQuery
			}
			http.Redirect(w, r, target, http.StatusSeeOther)
			return
		}

		r = r.Clone(i18n.WithLocale(r.Context(), res.Locale))
		r.URL.Path = res.Path
		r.URL.RawPath = ""

		session := m.authenticate(w, r)
		if session == nil {
			if !isPublicPath(res.Path) {
				http.Redirect(w, r, m.locales.Path(m.locales.Default, "/login"), http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
			return
		}

		ctx := service.WithIdentity(r.Context(), service.Identity{UserID: session.UserID, Email: session.Email})
		ctx = context.WithValue(ctx, SessionContextKey, session)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// authenticate returns the session of the request, or nil. Cookies that are
// malformed or no longer valid are expired on the response; a session near
// its expiry gets a fresh token.
func (m *Middleware) authenticate(w http.ResponseWriter, r *http.Request) *models.Session {
	value, present := security.ReadSessionCookie(r)
	if !present {
		return nil
	}
	if !security.WellFormedToken(value) {
		m.log.Debug("Expiring malformed session cookie", "path", r.URL.Path)
		security.ExpireSessionCookie(w, r)
		return nil
	}

	session, err := m.authService.ValidateSession(r.Context(), value)
	if err != nil {
		if errors.Is(err, service.ErrSessionInvalid) {
			security.ExpireSessionCookie(w, r)
		} else {
			m.log.Error("Failed to validate session", "error", err)
		}
		return nil
	}

	refreshed, err := m.authService.Refresh(session)
	if err != nil {
		m.log.Warn("Failed to refresh session", "user_id", session.UserID, "error", err)
		return session
	}
	if refreshed != nil {
		if err := security.SetSessionCookie(w, r, refreshed.Token, refreshed.Session.ExpiresAt); err != nil {
			m.log.Warn("Failed to write refreshed session", "user_id", session.UserID, "error", err)
			return session
		}
		return refreshed.Session
	}
	return session
}

// CSRFProtect rejects state-changing requests without the CSRF token of
// the signed-in user, sent as a form field or header.
func (m *Middleware) CSRFProtect(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := service.IdentityFromContext(r.Context())
		if !ok {
			http.Error(w, ErrUnauthorized, http.StatusUnauthorized)
			return
		}

		token := r.Header.Get(csrfHeaderName)
		if token == "" {
			token = r.FormValue(csrfFormField)
		}
		if !m.csrf.ValidateToken(id.UserID, token) {
			m.log.Warn("CSRF token rejected", "user_id", id.UserID, "path", r.URL.Path)
			http.Error(w, ErrInvalidCSRFToken, http.StatusForbidden)
			return
		}
		next(w, r)
	}
}

// RateLimit limits requests per client address
func (m *Middleware) RateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := security.GetClientIP(r)
		if !m.limiter.Allow(ip) {
			m.log.Warn("Rate limit exceeded", "ip", ip, "path", r.URL.Path)
			http.Error(w, ErrTooManyRequests, http.StatusTooManyRequests)
			return
		}
		next(w, r)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Logging middleware logs HTTP requests
func Logging(log *logger.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		log.Info("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

// GetSessionFromContext retrieves the session placed by Gate
func GetSessionFromContext(ctx context.Context) *models.Session {
	session, ok := ctx.Value(SessionContextKey).(*models.Session)
	if !ok {
		return nil
	}
	return session
}

func isPublicPath(p string) bool {
	for _, prefix := range []string{"/login", "/signup", "/auth"} {
		if p == prefix || strings.HasPrefix(p, prefix+"/") {
			return true
		}
	}
	return false
}

var staticExtensions = map[string]bool{
	".svg": true, ".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".webp": true, ".ico": true,
}

func isStaticAsset(p string) bool {
	if strings.HasPrefix(p, "/static/") || p == "/favicon.ico" || p == healthPath {
		return true
	}
	return staticExtensions[strings.ToLower(path.Ext(p))]
}
