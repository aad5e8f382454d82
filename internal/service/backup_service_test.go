package service

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gleanenglish/internal/database"
	"gleanenglish/internal/logger"
	"gleanenglish/internal/repository"
)

func TestBackupRoundTrip(t *testing.T) {
	src := newTestEnv(t)
	ctx, user := src.userCtx(t, "ana@example.com")
	record(t, src.history, ctx, "noun", "types", 150, 200, time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC))
	record(t, src.history, ctx, "noun", "functions", 90, 150, time.Date(2025, 5, 2, 8, 0, 0, 0, time.UTC))

	var buf bytes.Buffer
	exported, err := NewBackupService(src.db, logger.Nop()).Export(context.Background(), &buf)
	require.NoError(t, err)
	assert.Len(t, exported.Users, 1)
	assert.Len(t, exported.Attempts, 2)

	var decoded map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Contains(t, decoded, "lesson_history")

	dst, err := database.Initialize(filepath.Join(t.TempDir(), "restore.db"))
	require.NoError(t, err)
	defer dst.Close()
	require.NoError(t, dst.RunMigrations(context.Background()))

	backups := NewBackupService(dst, logger.Nop())
	data := buf.Bytes()

	summary, err := backups.Import(context.Background(), bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, &ImportSummary{UsersImported: 1, AttemptsImported: 2}, summary)

	// importing again skips everything
	summary, err = backups.Import(context.Background(), bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, &ImportSummary{UsersSkipped: 1, AttemptsSkipped: 2}, summary)

	restored, err := repository.NewHistoryRepository(dst).ListAttempts(context.Background(), user.ID, "", 0)
	require.NoError(t, err)
	require.Len(t, restored, 2)
	assert.Equal(t, "functions", restored[0].LessonType)
	assert.Len(t, restored[0].Answers, 1)

	restoredUser, err := repository.NewUserRepository(dst).GetUserByEmail(context.Background(), "ana@example.com")
	require.NoError(t, err)
	require.NotNil(t, restoredUser)
	assert.Equal(t, user.PasswordHash, restoredUser.PasswordHash)
}

func TestImportRejectsUnknownVersion(t *testing.T) {
	env := newTestEnv(t)
	_, err := NewBackupService(env.db, logger.Nop()).Import(context.Background(), bytes.NewReader([]byte(`{"version":"99"}`)))
	assert.Error(t, err)
}

func TestImportSkipsAttemptIDOwnedByAnotherUser(t *testing.T) {
	env := newTestEnv(t)
	ctx, _ := env.userCtx(t, "ana@example.com")
	rec := record(t, env.history, ctx, "noun", "types", 150, 200, time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC))

	var buf bytes.Buffer
	backups := NewBackupService(env.db, logger.Nop())
	exported, err := backups.Export(context.Background(), &buf)
	require.NoError(t, err)

	// Same attempt ID, now claimed by a user the database has not seen
	now := time.Now().UTC()
	exported.Users = append(exported.Users, UserBackup{
		ID: "9b2f1c1e-6a7d-4f3b-9a52-3f0c2d9e8a11", Email: "binh@example.com", CreatedAt: now, UpdatedAt: now,
	})
	exported.Attempts[0].UserID = "9b2f1c1e-6a7d-4f3b-9a52-3f0c2d9e8a11"
	data, err := json.Marshal(exported)
	require.NoError(t, err)

	summary, err := backups.Import(context.Background(), bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, &ImportSummary{UsersImported: 1, UsersSkipped: 1, AttemptsSkipped: 1}, summary)

	kept, err := repository.NewHistoryRepository(env.db).GetAttempt(context.Background(), rec.UserID, rec.ID)
	require.NoError(t, err)
	require.NotNil(t, kept)
}
