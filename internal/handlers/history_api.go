package handlers

import (
	"encoding/json"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"gleanenglish/internal/logger"
	"gleanenglish/internal/service"
)

// HistoryAPI exposes the attempt history as JSON. Every response uses the
// {success, data, error} envelope.
type HistoryAPI struct {
	history *service.HistoryService
	log     *logger.Logger
}

func NewHistoryAPI(history *service.HistoryService, log *logger.Logger) *HistoryAPI {
	return &HistoryAPI{history: history, log: log.With("handler", "history_api")}
}

type recordRequest struct {
	LessonID    string          `json:"lesson_id"`
	LessonType  string          `json:"lesson_type"`
	Score       int             `json:"score"`
	MaxScore    int             `json:"max_score"`
	Answers     json.RawMessage `json:"answers"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}

// Record stores a completed attempt sent as JSON or as a form whose
// "answers" field holds the JSON array.
func (h *HistoryAPI) Record(w http.ResponseWriter, r *http.Request) {
	in, err := decodeRecordRequest(r)
	if err != nil {
		writeServiceError(h.log, w, err)
		return
	}

	record, err := h.history.RecordAttempt(r.Context(), in)
	if err != nil {
		writeServiceError(h.log, w, err)
		return
	}
	writeData(h.log, w, http.StatusCreated, record)
}

func decodeRecordRequest(r *http.Request) (service.RecordInput, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var req recordRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			return service.RecordInput{}, &service.ValidationError{Message: "malformed JSON body"}
		}
		in := service.RecordInput{
			LessonID:   req.LessonID,
			LessonType: req.LessonType,
			Score:      req.Score,
			MaxScore:   req.MaxScore,
			Answers:    req.Answers,
		}
		if req.CompletedAt != nil {
			in.CompletedAt = *req.CompletedAt
		}
		return in, nil
	}

	if err := r.ParseForm(); err != nil {
		return service.RecordInput{}, &service.ValidationError{Message: "malformed form body"}
	}
	score, err := formInt(r, "score")
	if err != nil {
		return service.RecordInput{}, err
	}
	maxScore, err := formInt(r, "max_score")
	if err != nil {
		return service.RecordInput{}, err
	}
	in := service.RecordInput{
		LessonID:   r.FormValue("lesson_id"),
		LessonType: r.FormValue("lesson_type"),
		Score:      score,
		MaxScore:   maxScore,
		Answers:    json.RawMessage(r.FormValue("answers")),
	}
	if v := r.FormValue("completed_at"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return service.RecordInput{}, &service.ValidationError{Field: "completed_at", Message: "must be an RFC 3339 timestamp"}
		}
		in.CompletedAt = t
	}
	return in, nil
}

func formInt(r *http.Request, field string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(r.FormValue(field)))
	if err != nil {
		return 0, &service.ValidationError{Field: field, Message: "must be an integer"}
	}
	return n, nil
}

// List returns attempts newest first; lesson_id and limit are optional
func (h *HistoryAPI) List(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeServiceError(h.log, w, &service.ValidationError{Field: "limit", Message: "must be a non-negative integer"})
			return
		}
		limit = n
	}

	attempts, err := h.history.ListAttempts(r.Context(), r.URL.Query().Get("lesson_id"), limit)
	if err != nil {
		writeServiceError(h.log, w, err)
		return
	}
	writeData(h.log, w, http.StatusOK, attempts)
}

// Best returns the best attempt of a lesson, or null
func (h *HistoryAPI) Best(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	best, err := h.history.BestAttempt(r.Context(), q.Get("lesson_id"), q.Get("lesson_type"))
	if err != nil {
		writeServiceError(h.log, w, err)
		return
	}
	writeData(h.log, w, http.StatusOK, best)
}

// Stats returns the user's stats summary
func (h *HistoryAPI) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.history.ComputeStats(r.Context())
	if err != nil {
		writeServiceError(h.log, w, err)
		return
	}
	writeData(h.log, w, http.StatusOK, stats)
}

// Delete removes one of the user's attempts
func (h *HistoryAPI) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.history.DeleteAttempt(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(h.log, w, err)
		return
	}
	writeData(h.log, w, http.StatusOK, nil)
}
