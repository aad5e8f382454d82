package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gleanenglish/internal/models"
	"gleanenglish/internal/service"
)

const twoAnswers = `[
	{"question":"London","userChoice":"Proper Noun","correctChoice":"Proper Noun","isCorrect":true,"explain":"A specific city."},
	{"question":"team","userChoice":"Common Noun","correctChoice":"Collective Noun","isCorrect":false}
]`

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func (s *testServer) api(method, path string, cookie *http.Cookie, csrf, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if csrf != "" {
		req.Header.Set(csrfHeaderName, csrf)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	return s.do(req)
}

func recordBody(lessonType string, score, maxScore int) string {
	return fmt.Sprintf(`{"lesson_id":"noun","lesson_type":%q,"score":%d,"max_score":%d,"answers":%s}`,
		lessonType, score, maxScore, twoAnswers)
}

func TestHistoryAPIRecordAndList(t *testing.T) {
	s := newTestServer(t)
	cookie, userID, csrf := s.signIn(t, "ana@example.com")

	rec := s.api(http.MethodPost, "/api/history", cookie, csrf, recordBody("types", 10, 20))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	env := decodeEnvelope(t, rec)
	assert.True(t, env.Success)

	var created models.AttemptRecord
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, userID, created.UserID)
	assert.Len(t, created.Answers, 2)

	rec = s.api(http.MethodPost, "/api/history", cookie, csrf, recordBody("functions", 20, 20))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = s.api(http.MethodGet, "/api/history?lesson_id=noun&limit=1", cookie, "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []models.AttemptRecord
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &list))
	require.Len(t, list, 1)

	rec = s.api(http.MethodGet, "/api/history/best?lesson_id=noun", cookie, "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var best models.AttemptRecord
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &best))
	assert.Equal(t, 20, best.Score)

	rec = s.api(http.MethodGet, "/api/stats", cookie, "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var stats models.UserStats
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &stats))
	assert.Equal(t, 2, stats.TotalAttempts)
	assert.Equal(t, 75.0, stats.AverageScore)
	assert.Equal(t, 100.0, stats.BestScore)
	assert.Equal(t, 1, stats.LessonsCompleted)
}

func TestHistoryAPIRecordFromForm(t *testing.T) {
	s := newTestServer(t)
	cookie, _, csrf := s.signIn(t, "ana@example.com")

	rec := s.postForm("/api/history", cookie, url.Values{
		"csrf_token":  {csrf},
		"lesson_id":   {"noun"},
		"lesson_type": {"types"},
		"score":       {"10"},
		"max_score":   {"20"},
		"answers":     {twoAnswers},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.postForm("/api/history", cookie, url.Values{
		"csrf_token":  {csrf},
		"lesson_id":   {"noun"},
		"lesson_type": {"types"},
		"score":       {"ten"},
		"max_score":   {"20"},
		"answers":     {twoAnswers},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHistoryAPIValidation(t *testing.T) {
	s := newTestServer(t)
	cookie, _, csrf := s.signIn(t, "ana@example.com")

	tests := []struct {
		name string
		body string
	}{
		{"answers not an array", `{"lesson_id":"noun","lesson_type":"types","score":0,"max_score":0,"answers":{"question":"x"}}`},
		{"negative score", `{"lesson_id":"noun","lesson_type":"types","score":-1,"max_score":0,"answers":[]}`},
		{"empty lesson", `{"lesson_id":"","lesson_type":"types","score":0,"max_score":0,"answers":[]}`},
		{"unknown field", `{"lesson_id":"noun","lesson_type":"types","score":0,"max_score":0,"answers":[],"extra":1}`},
		{"not json", `{"lesson_id":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.api(http.MethodPost, "/api/history", cookie, csrf, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			env := decodeEnvelope(t, rec)
			assert.False(t, env.Success)
			assert.NotEmpty(t, env.Error)
		})
	}

	rec := s.api(http.MethodGet, "/api/history?limit=abc", cookie, "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHistoryAPIDeleteIsOwnerOnly(t *testing.T) {
	s := newTestServer(t)
	anaCookie, _, anaCSRF := s.signIn(t, "ana@example.com")
	benCookie, _, benCSRF := s.signIn(t, "ben@example.com")

	rec := s.api(http.MethodPost, "/api/history", anaCookie, anaCSRF, recordBody("types", 10, 20))
	require.Equal(t, http.StatusCreated, rec.Code)
	var created models.AttemptRecord
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &created))

	rec = s.api(http.MethodDelete, "/api/history/"+created.ID, benCookie, benCSRF, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	missing := s.api(http.MethodDelete, "/api/history/does-not-exist", benCookie, benCSRF, "")
	assert.Equal(t, http.StatusNotFound, missing.Code)
	assert.Equal(t, decodeEnvelope(t, rec).Error, decodeEnvelope(t, missing).Error)

	rec = s.api(http.MethodDelete, "/api/history/"+created.ID, anaCookie, "", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.api(http.MethodDelete, "/api/history/"+created.ID, anaCookie, anaCSRF, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeEnvelope(t, rec).Success)
}

func TestHistoryAPIWithoutIdentity(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.app.History.Stats(rec, httptest.NewRequest(http.MethodGet, "/api/stats", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, decodeEnvelope(t, rec).Success)
}

func TestServiceErrorStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"unauthenticated", service.ErrUnauthenticated, http.StatusUnauthorized},
		{"validation", &service.ValidationError{Field: "score", Message: "bad"}, http.StatusBadRequest},
		{"not found", service.ErrNotFoundOrForbidden, http.StatusNotFound},
		{"backend", &service.BackendError{Op: "list", Err: errors.New("disk full")}, http.StatusInternalServerError},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, msg := serviceErrorStatus(tt.err)
			assert.Equal(t, tt.want, status)
			if status == http.StatusInternalServerError {
				assert.NotContains(t, msg, "disk full")
			}
		})
	}
}

func TestDashboardListsAndDeletesAttempts(t *testing.T) {
	s := newTestServer(t)
	cookie, _, csrf := s.signIn(t, "ana@example.com")

	rec := s.get("/en/dashboard", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No attempts yet.")

	rec = s.api(http.MethodPost, "/api/history", cookie, csrf, recordBody("types", 15, 20))
	require.Equal(t, http.StatusCreated, rec.Code)
	var created models.AttemptRecord
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &created))

	rec = s.get("/en/dashboard", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Noun Master Challenge")
	assert.Contains(t, body, "15 / 20 (75.0%)")

	rec = s.postForm("/en/dashboard/attempts/"+created.ID+"/delete", cookie, url.Values{"csrf_token": {csrf}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/en/dashboard?status=deleted", rec.Header().Get("Location"))

	rec = s.postForm("/en/dashboard/attempts/"+created.ID+"/delete", cookie, url.Values{"csrf_token": {csrf}})
	assert.Equal(t, "/en/dashboard?status=delete-failed", rec.Header().Get("Location"))

	rec = s.get("/en/dashboard?status=deleted", cookie)
	assert.Contains(t, rec.Body.String(), "Attempt deleted.")
}
