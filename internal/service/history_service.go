package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"gleanenglish/internal/logger"
	"gleanenglish/internal/models"
	"gleanenglish/internal/repository"
	"gleanenglish/internal/validation"
)

// DefaultHistoryLimit caps ListAttempts when no limit is given
const DefaultHistoryLimit = 50

// Ranking decides which attempt BestAttempt returns
type Ranking string

const (
	// RankByScore picks the highest raw score
	RankByScore Ranking = "score"
	// RankByPercentage picks the highest score relative to max score
	RankByPercentage Ranking = "percentage"
)

// ParseRanking validates a ranking name
func ParseRanking(s string) (Ranking, error) {
	switch Ranking(s) {
	case RankByScore, RankByPercentage:
		return Ranking(s), nil
	}
	return "", fmt.Errorf("unknown ranking %q", s)
}

// RecordInput is a completed attempt submitted for storage.
// Answers must be a JSON array of answer entries.
type RecordInput struct {
	LessonID    string
	LessonType  string
	Score       int
	MaxScore    int
	Answers     json.RawMessage
	CompletedAt time.Time
}

// HistoryService stores and aggregates the caller's quiz attempts.
// Every operation acts for the identity in the context.
type HistoryService struct {
	repo    *repository.HistoryRepository
	log     *logger.Logger
	ranking Ranking
	now     func() time.Time
}

// NewHistoryService creates a new history service
func NewHistoryService(repo *repository.HistoryRepository, log *logger.Logger, ranking Ranking) *HistoryService {
	if ranking == "" {
		ranking = RankByScore
	}
	return &HistoryService{
		repo:    repo,
		log:     log.With("service", "HistoryService"),
		ranking: ranking,
		now:     time.Now,
	}
}

// Ranking returns the configured BestAttempt ranking
func (s *HistoryService) Ranking() Ranking {
	return s.ranking
}

// RecordAttempt validates and stores one completed attempt for the caller
func (s *HistoryService) RecordAttempt(ctx context.Context, in RecordInput) (*models.AttemptRecord, error) {
	id, ok := IdentityFromContext(ctx)
	if !ok {
		return nil, ErrUnauthenticated
	}

	if err := validation.ValidateSlug("lesson_id", in.LessonID); err != nil {
		return nil, fromFieldError(err)
	}
	if err := validation.ValidateSlug("lesson_type", in.LessonType); err != nil {
		return nil, fromFieldError(err)
	}
	if in.Score < 0 {
		return nil, &ValidationError{Field: "score", Message: "must be a non-negative integer"}
	}
	if in.MaxScore < 0 {
		return nil, &ValidationError{Field: "max_score", Message: "must be a non-negative integer"}
	}
	answers, err := DecodeAnswers(in.Answers)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	completedAt := in.CompletedAt
	if completedAt.IsZero() {
		completedAt = now
	}
	record := &models.AttemptRecord{
		ID:          uuid.NewString(),
		UserID:      id.UserID,
		LessonID:    in.LessonID,
		LessonType:  in.LessonType,
		Score:       in.Score,
		MaxScore:    in.MaxScore,
		CompletedAt: completedAt.UTC(),
		Answers:     answers,
		CreatedAt:   now,
	}

	if err := s.repo.InsertAttempt(ctx, record); err != nil {
		return nil, s.backendError("record attempt", err, "user_id", id.UserID, "lesson_id", in.LessonID)
	}

	s.log.Info("Attempt recorded",
		"user_id", id.UserID,
		"lesson_id", record.LessonID,
		"lesson_type", record.LessonType,
		"score", record.Score,
		"max_score", record.MaxScore,
	)
	return record, nil
}

// ListAttempts returns the caller's attempts newest first, optionally for one
// lesson. A limit <= 0 means DefaultHistoryLimit.
func (s *HistoryService) ListAttempts(ctx context.Context, lessonID string, limit int) ([]models.AttemptRecord, error) {
	id, ok := IdentityFromContext(ctx)
	if !ok {
		return nil, ErrUnauthenticated
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	attempts, err := s.repo.ListAttempts(ctx, id.UserID, lessonID, limit)
	if err != nil {
		return nil, s.backendError("list attempts", err, "user_id", id.UserID, "lesson_id", lessonID)
	}
	if attempts == nil {
		attempts = []models.AttemptRecord{}
	}
	return attempts, nil
}

// BestAttempt returns the caller's best attempt of a lesson, optionally of one
// lesson type, or nil when there is none. Ties go to the most recent attempt.
func (s *HistoryService) BestAttempt(ctx context.Context, lessonID, lessonType string) (*models.AttemptRecord, error) {
	id, ok := IdentityFromContext(ctx)
	if !ok {
		return nil, ErrUnauthenticated
	}
	if err := validation.ValidateSlug("lesson_id", lessonID); err != nil {
		return nil, fromFieldError(err)
	}

	attempts, err := s.repo.ListAttemptsByType(ctx, id.UserID, lessonID, lessonType)
	if err != nil {
		return nil, s.backendError("best attempt", err, "user_id", id.UserID, "lesson_id", lessonID)
	}

	var best *models.AttemptRecord
	for i := range attempts {
		a := &attempts[i]
		if best == nil || s.better(a, best) {
			best = a
		}
	}
	return best, nil
}

func (s *HistoryService) better(a, b *models.AttemptRecord) bool {
	var av, bv float64
	if s.ranking == RankByPercentage {
		av, bv = a.Percentage(), b.Percentage()
	} else {
		av, bv = float64(a.Score), float64(b.Score)
	}
	if av != bv {
		return av > bv
	}
	return a.CompletedAt.After(b.CompletedAt)
}

// ComputeStats aggregates every attempt of the caller. Scores are
// percentages rounded to one decimal.
func (s *HistoryService) ComputeStats(ctx context.Context) (*models.UserStats, error) {
	id, ok := IdentityFromContext(ctx)
	if !ok {
		return nil, ErrUnauthenticated
	}

	attempts, err := s.repo.ListAttempts(ctx, id.UserID, "", 0)
	if err != nil {
		return nil, s.backendError("compute stats", err, "user_id", id.UserID)
	}
	return summarize(attempts), nil
}

func summarize(attempts []models.AttemptRecord) *models.UserStats {
	stats := &models.UserStats{ByLesson: map[string]*models.LessonStats{}}
	if len(attempts) == 0 {
		return stats
	}

	type acc struct {
		sum  float64
		best float64
		n    int
		last time.Time
	}
	var total acc
	perLesson := map[string]*acc{}

	for i := range attempts {
		a := &attempts[i]
		pct := a.Percentage()

		if total.n == 0 || pct > total.best {
			total.best = pct
		}
		total.sum += pct
		total.n++

		l := perLesson[a.LessonID]
		if l == nil {
			l = &acc{best: pct}
			perLesson[a.LessonID] = l
		}
		if pct > l.best {
			l.best = pct
		}
		l.sum += pct
		l.n++
		if a.CompletedAt.After(l.last) {
			l.last = a.CompletedAt
		}
	}

	stats.TotalAttempts = total.n
	stats.AverageScore = round1(total.sum / float64(total.n))
	stats.BestScore = round1(total.best)
	stats.LessonsCompleted = len(perLesson)

	lessons := make([]string, 0, len(perLesson))
	for id := range perLesson {
		lessons = append(lessons, id)
	}
	sort.Strings(lessons)
	for _, id := range lessons {
		l := perLesson[id]
		stats.ByLesson[id] = &models.LessonStats{
			Attempts:     l.n,
			AverageScore: round1(l.sum / float64(l.n)),
			BestScore:    round1(l.best),
			LastAttempt:  l.last,
		}
	}
	return stats
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// DeleteAttempt removes one of the caller's attempts. Attempts that do not
// exist and attempts of other users both yield ErrNotFoundOrForbidden.
func (s *HistoryService) DeleteAttempt(ctx context.Context, attemptID string) error {
	id, ok := IdentityFromContext(ctx)
	if !ok {
		return ErrUnauthenticated
	}
	if attemptID == "" {
		return &ValidationError{Field: "id", Message: "id is required"}
	}
	// Attempt IDs are UUIDs; anything else cannot name a stored attempt.
	if _, err := uuid.Parse(attemptID); err != nil {
		return ErrNotFoundOrForbidden
	}

	deleted, err := s.repo.DeleteAttempt(ctx, id.UserID, attemptID)
	if err != nil {
		return s.backendError("delete attempt", err, "user_id", id.UserID, "attempt_id", attemptID)
	}
	if !deleted {
		return ErrNotFoundOrForbidden
	}

	s.log.Info("Attempt deleted", "user_id", id.UserID, "attempt_id", attemptID)
	return nil
}

func (s *HistoryService) backendError(op string, err error, keysAndValues ...interface{}) error {
	s.log.Error("History backend failure", append([]interface{}{"op", op, "error", err}, keysAndValues...)...)
	return &BackendError{Op: op, Err: err}
}

// answerEntryShape mirrors models.AnswerEntry with presence tracking
type answerEntryShape struct {
	Question      *string `json:"question"`
	UserChoice    *string `json:"userChoice"`
	CorrectChoice *string `json:"correctChoice"`
	IsCorrect     *bool   `json:"isCorrect"`
	Explain       *string `json:"explain"`
}

// DecodeAnswers strictly decodes a JSON array of answer entries. Anything
// other than an array of objects with exactly the answer entry fields is a
// ValidationError. The explain field may be omitted.
func DecodeAnswers(raw []byte) ([]models.AnswerEntry, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, &ValidationError{Field: "answers", Message: "answers are required"}
	}
	if trimmed[0] != '[' {
		return nil, &ValidationError{Field: "answers", Message: "must be an array of answer entries"}
	}

	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, &ValidationError{Field: "answers", Message: "must be an array of answer entries"}
	}

	answers := make([]models.AnswerEntry, 0, len(items))
	for i, item := range items {
		field := fmt.Sprintf("answers[%d]", i)

		item = bytes.TrimSpace(item)
		if len(item) == 0 || item[0] != '{' {
			return nil, &ValidationError{Field: field, Message: "must be an object"}
		}

		var shape answerEntryShape
		dec := json.NewDecoder(bytes.NewReader(item))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&shape); err != nil {
			return nil, &ValidationError{Field: field, Message: err.Error()}
		}

		switch {
		case shape.Question == nil:
			return nil, &ValidationError{Field: field + ".question", Message: "is required"}
		case shape.UserChoice == nil:
			return nil, &ValidationError{Field: field + ".userChoice", Message: "is required"}
		case shape.CorrectChoice == nil:
			return nil, &ValidationError{Field: field + ".correctChoice", Message: "is required"}
		case shape.IsCorrect == nil:
			return nil, &ValidationError{Field: field + ".isCorrect", Message: "is required"}
		}

		entry := models.AnswerEntry{
			Question:      *shape.Question,
			UserChoice:    *shape.UserChoice,
			CorrectChoice: *shape.CorrectChoice,
			IsCorrect:     *shape.IsCorrect,
		}
		if shape.Explain != nil {
			entry.Explain = *shape.Explain
		}
		answers = append(answers, entry)
	}
	return answers, nil
}

// EncodeAnswers marshals answer entries for RecordInput
func EncodeAnswers(answers []models.AnswerEntry) json.RawMessage {
	if answers == nil {
		answers = []models.AnswerEntry{}
	}
	// AnswerEntry contains only strings and bools; Marshal cannot fail
	data, _ := json.Marshal(answers)
	return data
}
