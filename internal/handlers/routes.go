package handlers

import (
	"net/http"

	"gleanenglish/internal/logger"
)

// App bundles the handlers of the application
type App struct {
	Middleware *Middleware
	Auth       *AuthHandler
	Lessons    *LessonHandler
	Dashboard  *DashboardHandler
	History    *HistoryAPI
	// StaticFilesPath is served under /static/ when set
	StaticFilesPath string
	Log             *logger.Logger
}

// Routes registers every route. Patterns are written without the locale
// segment; Gate strips it before the mux sees the request.
func (a *App) Routes() http.Handler {
	m := a.Middleware
	mux := http.NewServeMux()

	if a.StaticFilesPath != "" {
		mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(a.StaticFilesPath))))
	}
	mux.HandleFunc("GET "+healthPath, ShowStartupStatus)

	// Public routes
	mux.HandleFunc("GET /login", a.Auth.ShowLogin)
	mux.HandleFunc("POST /login", m.RateLimit(a.Auth.Login))
	mux.HandleFunc("GET /signup", a.Auth.ShowSignup)
	mux.HandleFunc("POST /signup", m.RateLimit(a.Auth.Signup))
	mux.HandleFunc("GET /auth/{provider}/start", a.Auth.StartOAuth)
	mux.HandleFunc("GET /auth/{provider}/callback", a.Auth.OAuthCallback)

	// Signed-in routes; Gate has already turned anonymous visitors away
	mux.HandleFunc("GET /{$}", a.Auth.Home)
	mux.HandleFunc("POST /logout", m.CSRFProtect(a.Auth.Logout))

	mux.HandleFunc("GET /lessons/noun", a.Lessons.ShowNoun)
	mux.HandleFunc("POST /lessons/noun/start", m.CSRFProtect(a.Lessons.Start))
	mux.HandleFunc("POST /lessons/noun/answer", m.CSRFProtect(a.Lessons.Answer))
	mux.HandleFunc("POST /lessons/noun/continue", m.CSRFProtect(a.Lessons.Continue))
	mux.HandleFunc("POST /lessons/noun/menu", m.CSRFProtect(a.Lessons.Menu))

	mux.HandleFunc("GET /dashboard", a.Dashboard.ShowDashboard)
	mux.HandleFunc("POST /dashboard/attempts/{id}/delete", m.CSRFProtect(a.Dashboard.DeleteAttempt))

	// JSON API
	mux.HandleFunc("POST /api/history", m.CSRFProtect(a.History.Record))
	mux.HandleFunc("GET /api/history", a.History.List)
	mux.HandleFunc("GET /api/history/best", a.History.Best)
	mux.HandleFunc("GET /api/stats", a.History.Stats)
	mux.HandleFunc("DELETE /api/history/{id}", m.CSRFProtect(a.History.Delete))

	mux.HandleFunc("/", a.Auth.NotFound)

	return Logging(a.Log, m.Gate(mux))
}
