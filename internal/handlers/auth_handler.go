package handlers

import (
	"errors"
	"net/http"

	"gleanenglish/internal/logger"
	"gleanenglish/internal/security"
	"gleanenglish/internal/service"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	authService          *service.AuthService
	render               *Renderer
	log                  *logger.Logger
	oauthProviders       map[string]OAuthProvider
	oauthRedirectBaseURL string
}

// NewAuthHandler creates a new auth handler. providers may be empty.
func NewAuthHandler(authService *service.AuthService, render *Renderer, providers map[string]OAuthProvider, oauthRedirectBaseURL string, log *logger.Logger) *AuthHandler {
	if providers == nil {
		providers = map[string]OAuthProvider{}
	}
	return &AuthHandler{
		authService:          authService,
		render:               render,
		log:                  log.With("handler", "auth"),
		oauthProviders:       providers,
		oauthRedirectBaseURL: oauthRedirectBaseURL,
	}
}

// Home renders the lesson overview
func (h *AuthHandler) Home(w http.ResponseWriter, r *http.Request) {
	h.render.Render(w, http.StatusOK, "home.tmpl", HomeViewData{PageData: h.render.Page(r, "common.home")})
}

// NotFound renders the localized 404 page
func (h *AuthHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.render.Error(w, r, http.StatusNotFound, "common.notFound")
}

// ShowLogin renders the login page
func (h *AuthHandler) ShowLogin(w http.ResponseWriter, r *http.Request) {
	if _, ok := service.IdentityFromContext(r.Context()); ok {
		http.Redirect(w, r, h.render.URL(r, "/"), http.StatusSeeOther)
		return
	}
	h.renderLogin(w, r, http.StatusOK, "", "")
}

// Login handles login form submission
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, ErrInvalidFormData, http.StatusBadRequest)
		return
	}

	email := r.FormValue("email")
	password := r.FormValue("password")

	issued, user, err := h.authService.Login(r.Context(), email, password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			h.renderLogin(w, r, http.StatusUnauthorized, email, "auth.invalidCredentials")
			return
		}
		h.log.Error("Login failed", "error", err)
		h.renderLogin(w, r, http.StatusInternalServerError, email, "common.errorGeneric")
		return
	}

	if err := security.SetSessionCookie(w, r, issued.Token, issued.Session.ExpiresAt); err != nil {
		respondWithError(h.log, w, http.StatusInternalServerError, ErrInternalServerError, "Failed to set session cookie", err)
		return
	}
	h.log.Info("User logged in", "user_id", user.ID)
	http.Redirect(w, r, h.render.URL(r, "/"), http.StatusSeeOther)
}

// ShowSignup renders the sign-up page
func (h *AuthHandler) ShowSignup(w http.ResponseWriter, r *http.Request) {
	if _, ok := service.IdentityFromContext(r.Context()); ok {
		http.Redirect(w, r, h.render.URL(r, "/"), http.StatusSeeOther)
		return
	}
	h.renderSignup(w, r, http.StatusOK, "", "", "")
}

// Signup creates an account and signs the new user in
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, ErrInvalidFormData, http.StatusBadRequest)
		return
	}

	email := r.FormValue("email")
	password := r.FormValue("password")
	name := r.FormValue("name")

	if _, err := h.authService.Register(r.Context(), email, password, name); err != nil {
		status, key := signupError(err)
		if status == http.StatusInternalServerError {
			h.log.Error("Sign-up failed", "error", err)
		}
		h.renderSignup(w, r, status, email, name, key)
		return
	}

	issued, _, err := h.authService.Login(r.Context(), email, password)
	if err != nil {
		h.log.Error("Login after sign-up failed", "error", err)
		http.Redirect(w, r, h.render.URL(r, "/login"), http.StatusSeeOther)
		return
	}
	if err := security.SetSessionCookie(w, r, issued.Token, issued.Session.ExpiresAt); err != nil {
		respondWithError(h.log, w, http.StatusInternalServerError, ErrInternalServerError, "Failed to set session cookie", err)
		return
	}
	http.Redirect(w, r, h.render.URL(r, "/"), http.StatusSeeOther)
}

func signupError(err error) (int, string) {
	var ve *service.ValidationError
	switch {
	case errors.Is(err, service.ErrEmailTaken):
		return http.StatusConflict, "auth.emailTaken"
	case errors.As(err, &ve):
		switch ve.Field {
		case "email":
			return http.StatusBadRequest, "auth.invalidEmail"
		case "password":
			return http.StatusBadRequest, "auth.weakPassword"
		case "name":
			return http.StatusBadRequest, "auth.invalidName"
		}
		return http.StatusBadRequest, "auth.error"
	default:
		return http.StatusInternalServerError, "common.errorGeneric"
	}
}

// Logout revokes the current session and clears the cookie
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if session := GetSessionFromContext(r.Context()); session != nil {
		if err := h.authService.Logout(r.Context(), session); err != nil {
			h.log.Error("Failed to revoke session", "user_id", session.UserID, "error", err)
		}
	}
	security.ExpireSessionCookie(w, r)
	http.Redirect(w, r, h.render.URL(r, "/login"), http.StatusSeeOther)
}

func (h *AuthHandler) renderLogin(w http.ResponseWriter, r *http.Request, status int, email, errKey string) {
	data := LoginViewData{
		PageData:     h.render.Page(r, "auth.login"),
		Email:        email,
		OAuthEnabled: len(h.oauthProviders) > 0,
	}
	if errKey != "" {
		data.Error = h.render.T(r, errKey)
	}
	h.render.Render(w, status, "login.tmpl", data)
}

func (h *AuthHandler) renderSignup(w http.ResponseWriter, r *http.Request, status int, email, name, errKey string) {
	data := SignupViewData{
		PageData:     h.render.Page(r, "auth.signup"),
		Email:        email,
		Name:         name,
		OAuthEnabled: len(h.oauthProviders) > 0,
	}
	if errKey != "" {
		data.Error = h.render.T(r, errKey)
	}
	h.render.Render(w, status, "signup.tmpl", data)
}
