package handlers

import (
	"time"

	"gleanenglish/internal/models"
	"gleanenglish/internal/quiz"
	"gleanenglish/internal/service"
)

// PageData is shared by every page: the layout reads it for the header,
// the language switcher and the logout form.
type PageData struct {
	Title     string
	Locale    string
	Identity  *service.Identity
	CSRFToken string
	Languages []LanguageLink
	Flash     string
	Error     string
	// RefreshAfter, when positive, reloads the page after that many seconds
	RefreshAfter int
}

type LanguageLink struct {
	Code   string
	Label  string
	URL    string
	Active bool
}

type HomeViewData struct {
	PageData
}

type LoginViewData struct {
	PageData
	Email        string
	OAuthEnabled bool
}

type SignupViewData struct {
	PageData
	Email        string
	Name         string
	OAuthEnabled bool
}

type ErrorViewData struct {
	PageData
	Message string
}

type ModeCard struct {
	Mode           quiz.Mode
	TitleKey       string
	DescriptionKey string
}

type OptionView struct {
	Label   string
	Correct bool
	Wrong   bool
}

type LessonViewData struct {
	PageData
	ShowMenu     bool
	Modes        []ModeCard
	HasBest      bool
	PreviousBest string

	Question *quiz.Question
	Number   int
	Total    int
	Score    int
	Progress int
	Options  []OptionView
	Feedback *models.AnswerEntry

	Result     *quiz.Result
	SaveStatus saveStatus
}

type LessonStatsRow struct {
	LessonID string
	Title    string
	Stats    *models.LessonStats
}

type AttemptRow struct {
	ID          string
	LessonTitle string
	ModeTitle   string
	Score       int
	MaxScore    int
	Percentage  float64
	CompletedAt time.Time
}

type DashboardViewData struct {
	PageData
	Stats    *models.UserStats
	Lessons  []LessonStatsRow
	Attempts []AttemptRow
}
