package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gleanenglish/internal/database"
	"gleanenglish/internal/models"
)

// HistoryRepository handles lesson_history database operations
type HistoryRepository struct {
	db database.DBTX
}

// NewHistoryRepository creates a new lesson history repository
func NewHistoryRepository(db database.DBTX) *HistoryRepository {
	return &HistoryRepository{db: db}
}

const attemptColumns = `id, user_id, lesson_id, lesson_type, score, max_score, completed_at, answers, created_at`

// InsertAttempt stores a completed attempt. The record's ID and timestamps must already be set.
func (r *HistoryRepository) InsertAttempt(ctx context.Context, a *models.AttemptRecord) error {
	answers := a.Answers
	if answers == nil {
		answers = []models.AnswerEntry{}
	}
	encoded, err := json.Marshal(answers)
	if err != nil {
		return fmt.Errorf("failed to encode answers: %w", err)
	}

	query := `
		INSERT INTO lesson_history (` + attemptColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.ExecContext(ctx, query,
		a.ID,
		a.UserID,
		a.LessonID,
		a.LessonType,
		a.Score,
		a.MaxScore,
		a.CompletedAt.UTC(),
		string(encoded),
		a.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert attempt: %w", err)
	}
	return nil
}

// GetAttempt retrieves one attempt owned by userID, or nil if there is none
func (r *HistoryRepository) GetAttempt(ctx context.Context, userID, id string) (*models.AttemptRecord, error) {
	query := `SELECT ` + attemptColumns + ` FROM lesson_history WHERE id = ? AND user_id = ?`
	rows, err := r.db.QueryContext(ctx, query, id, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query attempt: %w", err)
	}
	defer rows.Close()

	attempts, err := scanAttempts(rows)
	if err != nil {
		return nil, err
	}
	if len(attempts) == 0 {
		return nil, nil
	}
	return &attempts[0], nil
}

// AttemptExists reports whether any user has an attempt with this ID
func (r *HistoryRepository) AttemptExists(ctx context.Context, id string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM lesson_history WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check attempt: %w", err)
	}
	return true, nil
}

// ListAttempts returns a user's attempts, newest first. An empty lessonID
// matches every lesson; limit <= 0 means no limit.
func (r *HistoryRepository) ListAttempts(ctx context.Context, userID, lessonID string, limit int) ([]models.AttemptRecord, error) {
	var sb strings.Builder
	args := []interface{}{userID}

	sb.WriteString(`SELECT ` + attemptColumns + ` FROM lesson_history WHERE user_id = ?`)
	if lessonID != "" {
		sb.WriteString(` AND lesson_id = ?`)
		args = append(args, lessonID)
	}
	sb.WriteString(` ORDER BY completed_at DESC, created_at DESC`)
	if limit > 0 {
		sb.WriteString(` LIMIT ?`)
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query attempts: %w", err)
	}
	defer rows.Close()

	return scanAttempts(rows)
}

// ListAttemptsByType returns the attempts of one lesson, optionally restricted to a lesson type
func (r *HistoryRepository) ListAttemptsByType(ctx context.Context, userID, lessonID, lessonType string) ([]models.AttemptRecord, error) {
	query := `SELECT ` + attemptColumns + ` FROM lesson_history WHERE user_id = ? AND lesson_id = ?`
	args := []interface{}{userID, lessonID}
	if lessonType != "" {
		query += ` AND lesson_type = ?`
		args = append(args, lessonType)
	}
	query += ` ORDER BY completed_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query attempts: %w", err)
	}
	defer rows.Close()

	return scanAttempts(rows)
}

// DeleteAttempt removes an attempt only when it belongs to userID.
// It reports whether a row was deleted.
func (r *HistoryRepository) DeleteAttempt(ctx context.Context, userID, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM lesson_history WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return false, fmt.Errorf("failed to delete attempt: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read delete result: %w", err)
	}
	return n > 0, nil
}

// ListAllAttempts returns every attempt of every user, for backups
func (r *HistoryRepository) ListAllAttempts(ctx context.Context) ([]models.AttemptRecord, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+attemptColumns+` FROM lesson_history ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query attempts: %w", err)
	}
	defer rows.Close()

	return scanAttempts(rows)
}

func scanAttempts(rows *sql.Rows) ([]models.AttemptRecord, error) {
	var attempts []models.AttemptRecord
	for rows.Next() {
		var a models.AttemptRecord
		var answers []byte
		if err := rows.Scan(
			&a.ID,
			&a.UserID,
			&a.LessonID,
			&a.LessonType,
			&a.Score,
			&a.MaxScore,
			&a.CompletedAt,
			&answers,
			&a.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan attempt: %w", err)
		}
		if len(answers) > 0 {
			if err := json.Unmarshal(answers, &a.Answers); err != nil {
				return nil, fmt.Errorf("failed to decode answers of attempt %s: %w", a.ID, err)
			}
		}
		attempts = append(attempts, a)
	}
	if err := rows.Err(); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to iterate attempts: %w", err)
	}
	return attempts, nil
}
