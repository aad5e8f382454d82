package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"gleanenglish/internal/database"
	"gleanenglish/internal/logger"
	"gleanenglish/internal/models"
	"gleanenglish/internal/repository"
)

// BackupVersion is written into every export
const BackupVersion = "1"

// BackupData is the complete export of users and their attempt history
type BackupData struct {
	Version    string                 `json:"version"`
	ExportedAt time.Time              `json:"exported_at"`
	Users      []UserBackup           `json:"users"`
	Attempts   []models.AttemptRecord `json:"lesson_history"`
}

// UserBackup is a user record in a backup
type UserBackup struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	PasswordHash  string    `json:"password_hash"`
	Name          string    `json:"name"`
	OAuthProvider string    `json:"oauth_provider"`
	OAuthSubject  string    `json:"oauth_subject"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ImportSummary counts what an import wrote and skipped
type ImportSummary struct {
	UsersImported    int
	UsersSkipped     int
	AttemptsImported int
	AttemptsSkipped  int
}

// BackupService exports and imports the database as portable JSON
type BackupService struct {
	db  *database.DB
	log *logger.Logger
}

// NewBackupService creates a new backup service
func NewBackupService(db *database.DB, log *logger.Logger) *BackupService {
	return &BackupService{db: db, log: log.With("service", "BackupService")}
}

// Export writes every user and attempt to w
func (s *BackupService) Export(ctx context.Context, w io.Writer) (*BackupData, error) {
	users, err := repository.NewUserRepository(s.db).GetAllUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to export users: %w", err)
	}
	attempts, err := repository.NewHistoryRepository(s.db).ListAllAttempts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to export lesson history: %w", err)
	}

	backup := &BackupData{
		Version:    BackupVersion,
		ExportedAt: time.Now().UTC(),
		Users:      make([]UserBackup, 0, len(users)),
		Attempts:   attempts,
	}
	if backup.Attempts == nil {
		backup.Attempts = []models.AttemptRecord{}
	}
	for _, u := range users {
		backup.Users = append(backup.Users, UserBackup{
			ID:            u.ID,
			Email:         u.Email,
			PasswordHash:  u.PasswordHash,
			Name:          u.Name,
			OAuthProvider: u.OAuthProvider,
			OAuthSubject:  u.OAuthSubject,
			CreatedAt:     u.CreatedAt,
			UpdatedAt:     u.UpdatedAt,
		})
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return nil, fmt.Errorf("failed to encode backup: %w", err)
	}

	s.log.Info("Database exported", "users", len(backup.Users), "attempts", len(backup.Attempts))
	return backup, nil
}

// ExportFile writes a backup to outputPath
func (s *BackupService) ExportFile(ctx context.Context, outputPath string) (*BackupData, error) {
	file, err := os.Create(outputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	return s.Export(ctx, file)
}

// Import restores a backup in one transaction. Users and attempts whose IDs
// already exist are skipped, so an import can be repeated safely.
func (s *BackupService) Import(ctx context.Context, r io.Reader) (*ImportSummary, error) {
	var backup BackupData
	if err := json.NewDecoder(r).Decode(&backup); err != nil {
		return nil, fmt.Errorf("failed to decode backup: %w", err)
	}
	if backup.Version != BackupVersion {
		return nil, fmt.Errorf("unsupported backup version %q", backup.Version)
	}
	s.log.Info("Importing backup", "exported_at", backup.ExportedAt, "users", len(backup.Users), "attempts", len(backup.Attempts))

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	users := repository.NewUserRepository(tx)
	history := repository.NewHistoryRepository(tx)
	summary := &ImportSummary{}

	for _, u := range backup.Users {
		existing, err := users.GetUserByID(ctx, u.ID)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			summary.UsersSkipped++
			continue
		}
		if err := users.CreateUser(ctx, &models.User{
			ID:            u.ID,
			Email:         u.Email,
			PasswordHash:  u.PasswordHash,
			Name:          u.Name,
			OAuthProvider: u.OAuthProvider,
			OAuthSubject:  u.OAuthSubject,
			CreatedAt:     u.CreatedAt,
			UpdatedAt:     u.UpdatedAt,
		}); err != nil {
			return nil, fmt.Errorf("failed to import user %s: %w", u.ID, err)
		}
		summary.UsersImported++
	}

	for i := range backup.Attempts {
		a := &backup.Attempts[i]
		exists, err := history.AttemptExists(ctx, a.ID)
		if err != nil {
			return nil, err
		}
		if exists {
			summary.AttemptsSkipped++
			continue
		}
		if err := history.InsertAttempt(ctx, a); err != nil {
			return nil, fmt.Errorf("failed to import attempt %s: %w", a.ID, err)
		}
		summary.AttemptsImported++
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit import: %w", err)
	}

	s.log.Info("Backup imported",
		"users_imported", summary.UsersImported,
		"users_skipped", summary.UsersSkipped,
		"attempts_imported", summary.AttemptsImported,
		"attempts_skipped", summary.AttemptsSkipped,
	)
	return summary, nil
}

// ImportFile restores a backup from inputPath
func (s *BackupService) ImportFile(ctx context.Context, inputPath string) (*ImportSummary, error) {
	file, err := os.Open(inputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()

	return s.Import(ctx, file)
}
