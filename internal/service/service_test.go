package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"gleanenglish/internal/database"
	"gleanenglish/internal/logger"
	"gleanenglish/internal/models"
	"gleanenglish/internal/repository"
	"gleanenglish/internal/security"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type testEnv struct {
	db      *database.DB
	users   *repository.UserRepository
	history *HistoryService
	auth    *AuthService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.Initialize(filepath.Join(t.TempDir(), "service.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.RunMigrations(context.Background()))

	log := logger.Nop()
	users := repository.NewUserRepository(db)
	return &testEnv{
		db:      db,
		users:   users,
		history: NewHistoryService(repository.NewHistoryRepository(db), log, RankByScore),
		auth:    NewAuthService(users, security.NewTokenManager(testSecret, time.Hour), nil, log),
	}
}

// userCtx registers a user and returns a context authenticated as that user
func (e *testEnv) userCtx(t *testing.T, email string) (context.Context, *models.User) {
	t.Helper()
	user, err := e.auth.Register(context.Background(), email, "password123", "")
	require.NoError(t, err)
	return WithIdentity(context.Background(), Identity{UserID: user.ID, Email: user.Email}), user
}
