package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"gleanenglish/internal/logger"
	"gleanenglish/internal/quiz"
	"gleanenglish/internal/service"
)

type saveStatus string

const (
	saveNone   saveStatus = ""
	saveSaving saveStatus = "saving"
	saveSaved  saveStatus = "saved"
	saveFailed saveStatus = "failed"
)

const lessonPath = "/lessons/noun"

// LessonHandler serves the noun quiz. Each signed-in user has at most one
// live play-through; finished ones are written to the attempt history.
type LessonHandler struct {
	registry    *quiz.Registry
	history     *service.HistoryService
	render      *Renderer
	log         *logger.Logger
	saveTimeout time.Duration

	mu    sync.Mutex
	saves map[string]saveStatus
}

// NewLessonHandler creates a lesson handler. opts are applied to every
// quiz session after the completion callback.
func NewLessonHandler(history *service.HistoryService, render *Renderer, log *logger.Logger, opts ...quiz.Option) *LessonHandler {
	h := &LessonHandler{
		history:     history,
		render:      render,
		log:         log.With("handler", "lesson"),
		saveTimeout: 10 * time.Second,
		saves:       make(map[string]saveStatus),
	}
	h.registry = quiz.NewRegistry(func(userID string) []quiz.Option {
		return append([]quiz.Option{quiz.WithOnComplete(func(res quiz.Result) {
			h.persist(userID, res)
		})}, opts...)
	})
	return h
}

// Close ends every live play-through
func (h *LessonHandler) Close() {
	h.registry.CloseAll()
}

// persist stores a finished play-through for userID
func (h *LessonHandler) persist(userID string, res quiz.Result) {
	h.setSave(userID, saveSaving)

	ctx := service.WithIdentity(context.Background(), service.Identity{UserID: userID})
	ctx, cancel := context.WithTimeout(ctx, h.saveTimeout)
	defer cancel()

	_, err := h.history.RecordAttempt(ctx, service.RecordInput{
		LessonID:    quiz.LessonID,
		LessonType:  string(res.Mode),
		Score:       res.Score,
		MaxScore:    res.MaxScore,
		Answers:     service.EncodeAnswers(res.Answers),
		CompletedAt: res.CompletedAt,
	})
	if err != nil {
		h.log.Error("Failed to save attempt", "user_id", userID, "mode", res.Mode, "error", err)
		h.setSave(userID, saveFailed)
		return
	}
	h.setSave(userID, saveSaved)
}

func (h *LessonHandler) setSave(userID string, status saveStatus) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if status == saveNone {
		delete(h.saves, userID)
		return
	}
	h.saves[userID] = status
}

func (h *LessonHandler) saveOf(userID string) saveStatus {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.saves[userID]
}

// ShowNoun renders the menu, the current question, its feedback or the result
func (h *LessonHandler) ShowNoun(w http.ResponseWriter, r *http.Request) {
	id, ok := service.IdentityFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, h.render.URL(r, "/login"), http.StatusSeeOther)
		return
	}

	data := LessonViewData{PageData: h.render.Page(r, "quiz.title")}

	var view quiz.View
	if s := h.registry.Get(id.UserID); s != nil {
		view = s.View()
	}

	switch view.Phase {
	case quiz.PhaseAwaitingAnswer, quiz.PhaseShowingFeedback:
		h.fillQuestion(&data, view)
	case quiz.PhaseCompleted:
		data.Result = view.Result
		data.SaveStatus = h.saveOf(id.UserID)
		if data.SaveStatus == saveSaving {
			data.RefreshAfter = 1
		}
	default:
		h.fillMenu(r, &data)
	}

	h.render.Render(w, http.StatusOK, "lesson.tmpl", data)
}

func (h *LessonHandler) fillMenu(r *http.Request, data *LessonViewData) {
	data.ShowMenu = true
	data.Modes = []ModeCard{
		{Mode: quiz.ModeTypes, TitleKey: "quiz.typesMode.title", DescriptionKey: "quiz.typesMode.description"},
		{Mode: quiz.ModeFunctions, TitleKey: "quiz.functionsMode.title", DescriptionKey: "quiz.functionsMode.description"},
	}

	// Modes have different question counts, so compare them as percentages.
	var best float64
	for _, mode := range quiz.Modes() {
		attempt, err := h.history.BestAttempt(r.Context(), quiz.LessonID, string(mode))
		if err != nil {
			// The menu still works without the previous best.
			h.log.Warn("Failed to load previous best", "mode", mode, "error", err)
			return
		}
		if attempt != nil && attempt.Percentage() > best {
			best = attempt.Percentage()
		}
	}
	if best > 0 {
		data.HasBest = true
		data.PreviousBest = fmt.Sprintf("%.0f", best)
	}
}

func (h *LessonHandler) fillQuestion(data *LessonViewData, view quiz.View) {
	q := view.Current
	data.Question = q
	data.Number = view.Index + 1
	data.Total = view.Total
	data.Score = view.Score
	if view.Total > 0 {
		data.Progress = view.Index * 100 / view.Total
	}
	data.Feedback = view.Feedback
	if view.PendingAdvance {
		data.RefreshAfter = 1
	}

	for _, opt := range q.Options {
		o := OptionView{Label: opt}
		if fb := view.Feedback; fb != nil {
			o.Correct = opt == fb.CorrectChoice
			o.Wrong = opt == fb.UserChoice && !fb.IsCorrect
		}
		data.Options = append(data.Options, o)
	}
}

// Start begins a play-through of the mode in the form
func (h *LessonHandler) Start(w http.ResponseWriter, r *http.Request) {
	id, ok := service.IdentityFromContext(r.Context())
	if !ok {
		http.Error(w, ErrUnauthorized, http.StatusUnauthorized)
		return
	}
	mode, err := quiz.ParseMode(r.FormValue("mode"))
	if err != nil {
		h.render.Error(w, r, http.StatusBadRequest, "common.errorGeneric")
		return
	}

	h.setSave(id.UserID, saveNone)
	if _, _, err := h.registry.Start(id.UserID, mode); err != nil {
		respondWithError(h.log, w, http.StatusInternalServerError, ErrInternalServerError, "Failed to start quiz", err)
		return
	}
	h.log.Debug("Quiz started", "user_id", id.UserID, "mode", mode)
	http.Redirect(w, r, h.render.URL(r, lessonPath), http.StatusSeeOther)
}

// Answer submits the chosen option for the current question. A repeated
// submit while feedback is shown is ignored.
func (h *LessonHandler) Answer(w http.ResponseWriter, r *http.Request) {
	id, ok := service.IdentityFromContext(r.Context())
	if !ok {
		http.Error(w, ErrUnauthorized, http.StatusUnauthorized)
		return
	}
	s := h.registry.Get(id.UserID)
	if s == nil {
		http.Redirect(w, r, h.render.URL(r, lessonPath), http.StatusSeeOther)
		return
	}

	_, err := s.SubmitAnswer(r.FormValue("choice"))
	switch {
	case err == nil:
	case errors.Is(err, quiz.ErrUnknownChoice):
		h.render.Error(w, r, http.StatusBadRequest, "common.errorGeneric")
		return
	case errors.Is(err, quiz.ErrNotAwaitingAnswer), errors.Is(err, quiz.ErrSessionClosed):
		h.log.Debug("Answer ignored", "user_id", id.UserID, "reason", err)
	default:
		respondWithError(h.log, w, http.StatusInternalServerError, ErrInternalServerError, "Failed to submit answer", err)
		return
	}
	http.Redirect(w, r, h.render.URL(r, lessonPath), http.StatusSeeOther)
}

// Continue moves past the feedback of the last answer
func (h *LessonHandler) Continue(w http.ResponseWriter, r *http.Request) {
	id, ok := service.IdentityFromContext(r.Context())
	if !ok {
		http.Error(w, ErrUnauthorized, http.StatusUnauthorized)
		return
	}
	if s := h.registry.Get(id.UserID); s != nil {
		if _, err := s.AcknowledgeFeedback(); err != nil {
			// The auto-advance may have moved on already.
			h.log.Debug("Continue ignored", "user_id", id.UserID, "reason", err)
		}
	}
	http.Redirect(w, r, h.render.URL(r, lessonPath), http.StatusSeeOther)
}

// Menu abandons the play-through and returns to mode selection
func (h *LessonHandler) Menu(w http.ResponseWriter, r *http.Request) {
	id, ok := service.IdentityFromContext(r.Context())
	if !ok {
		http.Error(w, ErrUnauthorized, http.StatusUnauthorized)
		return
	}
	h.registry.Reset(id.UserID)
	h.setSave(id.UserID, saveNone)
	http.Redirect(w, r, h.render.URL(r, lessonPath), http.StatusSeeOther)
}
