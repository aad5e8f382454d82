package security

import (
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("password123")
	require.NoError(t, err)
	assert.NotEqual(t, "password123", hash)

	assert.True(t, CheckPassword("password123", hash))
	assert.False(t, CheckPassword("password124", hash))
	assert.False(t, CheckPassword("password123", ""))
}

func TestTokenIssueAndParse(t *testing.T) {
	m := NewTokenManager(testSecret, time.Hour)

	token, issued, err := m.Issue("user-1", "ana@example.com")
	require.NoError(t, err)
	assert.True(t, WellFormedToken(token))

	session, err := m.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", session.UserID)
	assert.Equal(t, "ana@example.com", session.Email)
	assert.Equal(t, issued.TokenID, session.TokenID)
	assert.True(t, issued.ExpiresAt.Equal(session.ExpiresAt))
	assert.False(t, m.NeedsRefresh(session))
}

func TestTokenRejections(t *testing.T) {
	m := NewTokenManager(testSecret, time.Hour)
	token, _, err := m.Issue("user-1", "ana@example.com")
	require.NoError(t, err)

	t.Run("wrong secret", func(t *testing.T) {
		other := NewTokenManager("another-secret-another-secret-xx", time.Hour)
		_, err := other.Parse(token)
		assert.True(t, errors.Is(err, ErrInvalidToken))
	})

	t.Run("expired", func(t *testing.T) {
		late := NewTokenManager(testSecret, time.Hour)
		late.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		_, err := late.Parse(token)
		assert.True(t, errors.Is(err, ErrInvalidToken))
	})

	t.Run("tampered payload", func(t *testing.T) {
		parts := strings.Split(token, ".")
		parts[1] = base64.RawURLEncoding.EncodeToString([]byte(`{"sub":"intruder","jti":"x","exp":9999999999}`))
		_, err := m.Parse(strings.Join(parts, "."))
		assert.True(t, errors.Is(err, ErrInvalidToken))
	})

	t.Run("corrupted cookie value", func(t *testing.T) {
		_, err := m.Parse("[object Object]")
		assert.True(t, errors.Is(err, ErrInvalidToken))
	})
}

func TestTokenNeedsRefresh(t *testing.T) {
	m := NewTokenManager(testSecret, 3*time.Hour)
	_, session, err := m.Issue("user-1", "")
	require.NoError(t, err)

	m.now = func() time.Time { return session.IssuedAt.Add(time.Hour) }
	assert.False(t, m.NeedsRefresh(session))

	m.now = func() time.Time { return session.IssuedAt.Add(2*time.Hour + time.Minute) }
	assert.True(t, m.NeedsRefresh(session))
}

func TestWellFormedToken(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"aaa.bbb.ccc", true},
		{"a-_.b-_.c-_", true},
		{"", false},
		{"[object Object]", false},
		{"aaa.bbb", false},
		{"aaa..ccc", false},
		{"aaa.b b.ccc", false},
		{"aaa.bbb.ccc.ddd", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, WellFormedToken(tt.value), "WellFormedToken(%q)", tt.value)
	}
}

func TestCSRFGenerator(t *testing.T) {
	g := NewCSRFGenerator(testSecret)

	token, err := g.GenerateToken("user-1")
	require.NoError(t, err)
	assert.True(t, g.ValidateToken("user-1", token))
	assert.False(t, g.ValidateToken("user-2", token))
	assert.False(t, g.ValidateToken("user-1", ""))

	_, err = g.GenerateToken("")
	assert.Error(t, err)
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	defer rl.Stop()

	now := time.Now()
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("1.2.3.4"))
	assert.True(t, rl.Allow("1.2.3.4"))
	assert.False(t, rl.Allow("1.2.3.4"))
	assert.True(t, rl.Allow("5.6.7.8"))

	now = now.Add(time.Minute)
	assert.True(t, rl.Allow("1.2.3.4"))
}

func TestGetClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.1:5555"
	assert.Equal(t, "10.0.0.1", GetClientIP(r))

	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.2")
	assert.Equal(t, "203.0.113.9", GetClientIP(r))
}

func TestSessionCookies(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	t.Run("malformed token is never written", func(t *testing.T) {
		w := httptest.NewRecorder()
		err := SetSessionCookie(w, r, "[object Object]", time.Now().Add(time.Hour))
		assert.Error(t, err)
		assert.Empty(t, w.Result().Cookies())
	})

	t.Run("well-formed token is written", func(t *testing.T) {
		w := httptest.NewRecorder()
		require.NoError(t, SetSessionCookie(w, r, "aaa.bbb.ccc", time.Now().Add(time.Hour)))
		cookies := w.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, SessionCookieName, cookies[0].Name)
		assert.True(t, cookies[0].HttpOnly)
		assert.False(t, cookies[0].Secure)
	})

	t.Run("expire", func(t *testing.T) {
		w := httptest.NewRecorder()
		ExpireSessionCookie(w, r)
		cookies := w.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, -1, cookies[0].MaxAge)
	})

	t.Run("read", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		_, present := ReadSessionCookie(req)
		assert.False(t, present)

		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "aaa.bbb.ccc"})
		v, present := ReadSessionCookie(req)
		assert.True(t, present)
		assert.Equal(t, "aaa.bbb.ccc", v)
	})
}
