package handlers

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gleanenglish/internal/quiz"
	"gleanenglish/internal/service"
)

func currentView(t *testing.T, s *testServer, userID string) quiz.View {
	t.Helper()
	session := s.app.Lessons.registry.Get(userID)
	require.NotNil(t, session)
	return session.View()
}

func TestLessonMenuShowsModes(t *testing.T) {
	s := newTestServer(t)
	cookie, _, _ := s.signIn(t, "ana@example.com")

	rec := s.get("/en/lessons/noun", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Noun types")
	assert.Contains(t, body, "Noun functions")
	assert.NotContains(t, body, "Previous best")
}

func TestNounQuizAllCorrectIsSaved(t *testing.T) {
	s := newTestServer(t)
	cookie, userID, csrf := s.signIn(t, "ana@example.com")

	rec := s.postForm("/en/lessons/noun/start", cookie, url.Values{"csrf_token": {csrf}, "mode": {"types"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/en/lessons/noun", rec.Header().Get("Location"))

	total := len(quiz.Questions(quiz.ModeTypes))
	for i := 0; i < total; i++ {
		view := currentView(t, s, userID)
		require.Equal(t, quiz.PhaseAwaitingAnswer, view.Phase)

		rec = s.postForm("/en/lessons/noun/answer", cookie, url.Values{"csrf_token": {csrf}, "choice": {view.Current.Answer}})
		require.Equal(t, http.StatusSeeOther, rec.Code)

		rec = s.get("/en/lessons/noun", cookie)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Correct!")

		rec = s.postForm("/en/lessons/noun/continue", cookie, url.Values{"csrf_token": {csrf}})
		require.Equal(t, http.StatusSeeOther, rec.Code)
	}

	rec = s.get("/en/lessons/noun", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "200 / 200")
	assert.Contains(t, rec.Body.String(), "Result saved.")

	ctx := service.WithIdentity(context.Background(), service.Identity{UserID: userID})
	attempts, err := s.history.ListAttempts(ctx, quiz.LessonID, 0)
	require.NoError(t, err)
	require.Len(t, attempts, 1)
	assert.Equal(t, "types", attempts[0].LessonType)
	assert.Equal(t, 200, attempts[0].Score)
	assert.Equal(t, 200, attempts[0].MaxScore)
	assert.Len(t, attempts[0].Answers, 20)

	// Back at the menu the saved attempt is the previous best
	rec = s.postForm("/en/lessons/noun/menu", cookie, url.Values{"csrf_token": {csrf}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	rec = s.get("/en/lessons/noun", cookie)
	assert.Contains(t, rec.Body.String(), "Previous best: 100%")
}

func TestWrongAnswerWaitsForContinue(t *testing.T) {
	s := newTestServer(t)
	cookie, userID, csrf := s.signIn(t, "ana@example.com")

	s.postForm("/en/lessons/noun/start", cookie, url.Values{"csrf_token": {csrf}, "mode": {"functions"}})
	view := currentView(t, s, userID)

	var wrong string
	for _, o := range view.Current.Options {
		if o != view.Current.Answer {
			wrong = o
			break
		}
	}
	require.NotEmpty(t, wrong)

	rec := s.postForm("/en/lessons/noun/answer", cookie, url.Values{"csrf_token": {csrf}, "choice": {wrong}})
	require.Equal(t, http.StatusSeeOther, rec.Code)

	// A second submit while feedback is shown changes nothing
	rec = s.postForm("/en/lessons/noun/answer", cookie, url.Values{"csrf_token": {csrf}, "choice": {view.Current.Answer}})
	require.Equal(t, http.StatusSeeOther, rec.Code)

	after := currentView(t, s, userID)
	assert.Equal(t, quiz.PhaseShowingFeedback, after.Phase)
	assert.Equal(t, 0, after.Score)
	require.NotNil(t, after.Feedback)
	assert.Equal(t, wrong, after.Feedback.UserChoice)

	rec = s.get("/en/lessons/noun", cookie)
	assert.Contains(t, rec.Body.String(), "Not quite.")

	s.postForm("/en/lessons/noun/continue", cookie, url.Values{"csrf_token": {csrf}})
	after = currentView(t, s, userID)
	assert.Equal(t, quiz.PhaseAwaitingAnswer, after.Phase)
	assert.Equal(t, 1, after.Index)
}

func TestLessonRejectsBadInput(t *testing.T) {
	s := newTestServer(t)
	cookie, _, csrf := s.signIn(t, "ana@example.com")

	rec := s.postForm("/en/lessons/noun/start", cookie, url.Values{"csrf_token": {csrf}, "mode": {"verbs"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	s.postForm("/en/lessons/noun/start", cookie, url.Values{"csrf_token": {csrf}, "mode": {"types"}})
	rec = s.postForm("/en/lessons/noun/answer", cookie, url.Values{"csrf_token": {csrf}, "choice": {"Verb"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.postForm("/en/lessons/noun/start", cookie, url.Values{"mode": {"types"}})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAnswerWithoutSessionRedirectsToMenu(t *testing.T) {
	s := newTestServer(t)
	cookie, _, csrf := s.signIn(t, "ana@example.com")

	rec := s.postForm("/vi/lessons/noun/answer", cookie, url.Values{"csrf_token": {csrf}, "choice": {"Common Noun"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/vi/lessons/noun", rec.Header().Get("Location"))
}

func TestPreviousBestComparesModesByPercentage(t *testing.T) {
	tests := []struct {
		name     string
		attempts map[quiz.Mode][2]int
		want     string
	}{
		{
			name:     "functions perfect beats higher types score",
			attempts: map[quiz.Mode][2]int{quiz.ModeTypes: {160, 200}, quiz.ModeFunctions: {150, 150}},
			want:     "Previous best: 100%",
		},
		{
			name:     "types only",
			attempts: map[quiz.Mode][2]int{quiz.ModeTypes: {120, 200}},
			want:     "Previous best: 60%",
		},
		{
			name:     "zero is not shown",
			attempts: map[quiz.Mode][2]int{quiz.ModeTypes: {0, 200}, quiz.ModeFunctions: {0, 150}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			cookie, userID, _ := s.signIn(t, "ana@example.com")

			ctx := service.WithIdentity(context.Background(), service.Identity{UserID: userID})
			for mode, scores := range tt.attempts {
				_, err := s.history.RecordAttempt(ctx, service.RecordInput{
					LessonID:   quiz.LessonID,
					LessonType: string(mode),
					Score:      scores[0],
					MaxScore:   scores[1],
					Answers:    service.EncodeAnswers(nil),
				})
				require.NoError(t, err)
			}

			rec := s.get("/en/lessons/noun", cookie)
			require.Equal(t, http.StatusOK, rec.Code)
			if tt.want == "" {
				assert.NotContains(t, rec.Body.String(), "Previous best")
				return
			}
			assert.Contains(t, rec.Body.String(), tt.want)
		})
	}
}
