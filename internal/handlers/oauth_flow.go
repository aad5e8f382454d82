package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"gleanenglish/internal/i18n"
	"gleanenglish/internal/security"
)

// OAuthProvider is an external sign-in provider
type OAuthProvider struct {
	Name        string
	Label       string
	Config      *oauth2.Config
	UserInfoURL string
}

type oauthUserInfo struct {
	Subject string
	Email   string
	Name    string
}

// GoogleProvider returns the Google sign-in provider
func GoogleProvider(clientID, clientSecret string) OAuthProvider {
	return OAuthProvider{
		Name:  "google",
		Label: "Google",
		Config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       []string{"openid", "email", "profile"},
		},
		UserInfoURL: "https://www.googleapis.com/oauth2/v2/userinfo",
	}
}

// StartOAuth redirects to the provider's consent page
func (h *AuthHandler) StartOAuth(w http.ResponseWriter, r *http.Request) {
	providerKey := r.PathValue("provider")
	provider, ok := h.oauthProviders[providerKey]
	if !ok {
		h.render.Error(w, r, http.StatusNotFound, "common.notFound")
		return
	}

	state := uuid.NewString()
	security.SetShortCookie(w, r, oauthStateCookie, state, oauthCookieTTL)
	if locale := r.URL.Query().Get("locale"); h.render.locales.IsSupported(locale) {
		security.SetShortCookie(w, r, oauthLocaleCookie, locale, oauthCookieTTL)
	}

	cfg := *provider.Config
	cfg.RedirectURL = h.oauthRedirectURL(r, providerKey)
	http.Redirect(w, r, cfg.AuthCodeURL(state), http.StatusSeeOther)
}

// OAuthCallback completes sign-in after the provider redirects back
func (h *AuthHandler) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	providerKey := r.PathValue("provider")
	provider, ok := h.oauthProviders[providerKey]
	if !ok {
		h.render.Error(w, r, http.StatusNotFound, "common.notFound")
		return
	}

	if c, err := r.Cookie(oauthLocaleCookie); err == nil && h.render.locales.IsSupported(c.Value) {
		r = r.WithContext(i18n.WithLocale(r.Context(), c.Value))
	}

	stateCookie, err := r.Cookie(oauthStateCookie)
	security.DeleteCookie(w, r, oauthStateCookie)
	security.DeleteCookie(w, r, oauthLocaleCookie)
	if err != nil || stateCookie.Value == "" || stateCookie.Value != r.URL.Query().Get("state") {
		h.oauthFailed(w, r, errors.New("state mismatch"))
		return
	}
	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.oauthFailed(w, r, fmt.Errorf("provider returned error: %s", errParam))
		return
	}
	code := r.URL.Query().Get("code")
	if code == "" {
		h.oauthFailed(w, r, errors.New("missing code"))
		return
	}

	cfg := *provider.Config
	cfg.RedirectURL = h.oauthRedirectURL(r, providerKey)
	token, err := cfg.Exchange(r.Context(), code)
	if err != nil {
		h.oauthFailed(w, r, fmt.Errorf("code exchange: %w", err))
		return
	}

	info, err := fetchOAuthUserInfo(r.Context(), &cfg, provider.UserInfoURL, token)
	if err != nil {
		h.oauthFailed(w, r, err)
		return
	}

	issued, user, err := h.authService.OAuthLogin(r.Context(), providerKey, info.Subject, info.Email, info.Name)
	if err != nil {
		h.oauthFailed(w, r, err)
		return
	}

	if err := security.SetSessionCookie(w, r, issued.Token, issued.Session.ExpiresAt); err != nil {
		respondWithError(h.log, w, http.StatusInternalServerError, ErrInternalServerError, "Failed to set session cookie", err)
		return
	}
	h.log.Info("User logged in via oauth", "user_id", user.ID, "provider", providerKey)
	http.Redirect(w, r, h.render.URL(r, "/"), http.StatusSeeOther)
}

func fetchOAuthUserInfo(ctx context.Context, cfg *oauth2.Config, userInfoURL string, token *oauth2.Token) (oauthUserInfo, error) {
	client := cfg.Client(ctx, token)
	resp, err := client.Get(userInfoURL)
	if err != nil {
		return oauthUserInfo{}, fmt.Errorf("failed to fetch user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return oauthUserInfo{}, fmt.Errorf("failed to fetch user info: status %d", resp.StatusCode)
	}

	var payload struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return oauthUserInfo{}, fmt.Errorf("failed to parse user info: %w", err)
	}

	return oauthUserInfo{Subject: payload.ID, Email: payload.Email, Name: payload.Name}, nil
}

func (h *AuthHandler) oauthRedirectURL(r *http.Request, providerKey string) string {
	baseURL := strings.TrimSpace(h.oauthRedirectBaseURL)
	if baseURL == "" {
		scheme := "http"
		if security.IsSecureRequest(r) {
			scheme = "https"
		}
		baseURL = fmt.Sprintf("%s://%s", scheme, r.Host)
	}
	return fmt.Sprintf("%s/auth/%s/callback", strings.TrimRight(baseURL, "/"), providerKey)
}

func (h *AuthHandler) oauthFailed(w http.ResponseWriter, r *http.Request, err error) {
	h.log.Warn("OAuth sign-in failed", "error", err)
	h.renderLogin(w, r, http.StatusBadRequest, "", "auth.oauthFailed")
}
