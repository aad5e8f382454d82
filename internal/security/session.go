package security

import (
	"fmt"
	"net/http"
	"time"
)

// SessionCookieName is the cookie holding the signed session token
const SessionCookieName = "glean_session"

// IsSecureRequest determines if the request is over HTTPS, directly or behind a proxy
func IsSecureRequest(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto == "https" {
		return true
	}
	return r.URL.Scheme == "https"
}

// ReadSessionCookie returns the session cookie value. present is false when
// there is no cookie; a present but malformed value is returned with present
// true so the caller can expire it.
func ReadSessionCookie(r *http.Request) (value string, present bool) {
	c, err := r.Cookie(SessionCookieName)
	if err != nil {
		return "", false
	}
	return c.Value, true
}

// SetSessionCookie writes the session cookie. Only well-formed tokens are written.
func SetSessionCookie(w http.ResponseWriter, r *http.Request, token string, expires time.Time) error {
	if !WellFormedToken(token) {
		return fmt.Errorf("refusing to write malformed session token")
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   IsSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// ExpireSessionCookie instructs the client to drop the session cookie
func ExpireSessionCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   IsSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
	})
}

// SetShortCookie writes a short-lived helper cookie, such as OAuth state
func SetShortCookie(w http.ResponseWriter, r *http.Request, name, value string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   IsSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
	})
}

// DeleteCookie expires a helper cookie
func DeleteCookie(w http.ResponseWriter, r *http.Request, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   IsSecureRequest(r),
	})
}
