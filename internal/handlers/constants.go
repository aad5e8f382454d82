package handlers

import "time"

const (
	oauthStateCookie  = "oauth_state"
	oauthLocaleCookie = "oauth_locale"
	oauthCookieTTL    = 10 * time.Minute

	csrfFormField  = "csrf_token"
	csrfHeaderName = "X-CSRF-Token"

	// dashboardAttemptLimit is how many recent attempts the dashboard lists
	dashboardAttemptLimit = 20

	ErrInvalidFormData     = "Invalid form data"
	ErrUnauthorized        = "Unauthorized"
	ErrInternalServerError = "Internal server error"
	ErrInvalidCSRFToken    = "Invalid CSRF token"
	ErrTooManyRequests     = "Too many requests"
)
