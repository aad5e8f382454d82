package i18n

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) Config {
	t.Helper()
	cfg, err := NewConfig([]string{"en", "vi"}, "vi")
	require.NoError(t, err)
	return cfg
}

func TestNewConfig(t *testing.T) {
	_, err := NewConfig(nil, "vi")
	assert.Error(t, err)

	_, err = NewConfig([]string{"en"}, "vi")
	assert.Error(t, err)
}

func TestResolve(t *testing.T) {
	cfg := testConfig(t)

	tests := []struct {
		path string
		want Resolution
	}{
		{"/en/login", Resolution{Locale: "en", Path: "/login", Prefixed: true}},
		{"/vi", Resolution{Locale: "vi", Path: "/", Prefixed: true}},
		{"/en/", Resolution{Locale: "en", Path: "/", Prefixed: true}},
		{"/dashboard", Resolution{Locale: "vi", Path: "/dashboard"}},
		{"/", Resolution{Locale: "vi", Path: "/"}},
		{"/lessons/noun", Resolution{Locale: "vi", Path: "/lessons/noun"}},
		{"/fr/lessons/noun", Resolution{Locale: "vi", Path: "/lessons/noun", Redirect: "/vi/lessons/noun"}},
		{"/pt-BR", Resolution{Locale: "vi", Path: "/", Redirect: "/vi"}},
		{"/api/stats", Resolution{Locale: "vi", Path: "/api/stats"}},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, cfg.Resolve(tt.path))
		})
	}
}

func TestSwitchLocalePath(t *testing.T) {
	cfg := testConfig(t)

	assert.Equal(t, "/vi/lessons/noun", cfg.SwitchLocalePath("/en/lessons/noun", "vi"))
	assert.Equal(t, "/en/dashboard", cfg.SwitchLocalePath("/dashboard", "en"))
	assert.Equal(t, "/en", cfg.SwitchLocalePath("/", "en"))
	assert.Equal(t, "/en", cfg.SwitchLocalePath("/vi", "en"))
}

func TestLooksLikeLocale(t *testing.T) {
	assert.True(t, LooksLikeLocale("fr"))
	assert.True(t, LooksLikeLocale("pt-BR"))
	assert.False(t, LooksLikeLocale("api"))
	assert.False(t, LooksLikeLocale("FR"))
	assert.False(t, LooksLikeLocale(""))
}

func TestCatalog(t *testing.T) {
	cat, err := LoadCatalog(testConfig(t))
	require.NoError(t, err)

	assert.Equal(t, "Log in", cat.T("en", "auth.login"))
	assert.Equal(t, "Đăng nhập", cat.T("vi", "auth.login"))
	assert.Equal(t, "Question 3 / 20", cat.T("en", "quiz.question", 3, 20))
	assert.Equal(t, "Previous best: 85.5%", cat.T("en", "quiz.previousBest", "85.5"))
	// unknown locale falls back to the default
	assert.Equal(t, "Đăng nhập", cat.T("de", "auth.login"))
	assert.Equal(t, "no.such.key", cat.T("en", "no.such.key"))
	assert.Equal(t, "Glean English", cat.Translator("en")("common.appName"))
}

func TestCatalogsHaveSameKeys(t *testing.T) {
	cat, err := LoadCatalog(testConfig(t))
	require.NoError(t, err)

	for key := range cat.messages["en"] {
		_, ok := cat.messages["vi"][key]
		assert.True(t, ok, "vi is missing %s", key)
	}
	for key := range cat.messages["vi"] {
		_, ok := cat.messages["en"][key]
		assert.True(t, ok, "en is missing %s", key)
	}
}

func TestLoadCatalogUnknownLocale(t *testing.T) {
	cfg, err := NewConfig([]string{"vi", "fr"}, "vi")
	require.NoError(t, err)
	_, err = LoadCatalog(cfg)
	assert.Error(t, err)
}

func TestLocaleContext(t *testing.T) {
	ctx := WithLocale(context.Background(), "en")
	assert.Equal(t, "en", LocaleFromContext(ctx))
	assert.Equal(t, "", LocaleFromContext(context.Background()))
}
