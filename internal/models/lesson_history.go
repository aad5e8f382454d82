package models

import "time"

// AnswerEntry is one answered question inside an attempt
type AnswerEntry struct {
	Question      string `json:"question"`
	UserChoice    string `json:"userChoice"`
	CorrectChoice string `json:"correctChoice"`
	IsCorrect     bool   `json:"isCorrect"`
	Explain       string `json:"explain"`
}

// AttemptRecord is a persisted, completed quiz play-through
type AttemptRecord struct {
	ID          string        `json:"id"`
	UserID      string        `json:"user_id"`
	LessonID    string        `json:"lesson_id"`
	LessonType  string        `json:"lesson_type"`
	Score       int           `json:"score"`
	MaxScore    int           `json:"max_score"`
	CompletedAt time.Time     `json:"completed_at"`
	Answers     []AnswerEntry `json:"answers"`
	CreatedAt   time.Time     `json:"created_at"`
}

// Percentage returns score as a percentage of max score; 0 when max score is 0
func (a *AttemptRecord) Percentage() float64 {
	if a.MaxScore <= 0 {
		return 0
	}
	return float64(a.Score) / float64(a.MaxScore) * 100
}

// LessonStats aggregates the attempts of one lesson
type LessonStats struct {
	Attempts     int       `json:"attempts"`
	AverageScore float64   `json:"averageScore"`
	BestScore    float64   `json:"bestScore"`
	LastAttempt  time.Time `json:"lastAttempt"`
}

// UserStats is derived on demand from all of a user's attempts.
// Scores are percentages.
type UserStats struct {
	TotalAttempts    int                     `json:"totalAttempts"`
	AverageScore     float64                 `json:"averageScore"`
	BestScore        float64                 `json:"bestScore"`
	LessonsCompleted int                     `json:"lessonsCompleted"`
	ByLesson         map[string]*LessonStats `json:"byLesson"`
}
