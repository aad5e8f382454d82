package handlers

import (
	"errors"
	"net/http"
	"sort"

	"gleanenglish/internal/logger"
	"gleanenglish/internal/models"
	"gleanenglish/internal/quiz"
	"gleanenglish/internal/service"
)

// lessonTitleKeys maps lesson IDs to their catalog titles
var lessonTitleKeys = map[string]string{
	quiz.LessonID: "lessons.nounMaster.title",
}

var modeTitleKeys = map[string]string{
	string(quiz.ModeTypes):     "quiz.typesMode.title",
	string(quiz.ModeFunctions): "quiz.functionsMode.title",
}

// DashboardHandler shows the signed-in user's progress
type DashboardHandler struct {
	history *service.HistoryService
	render  *Renderer
	log     *logger.Logger
}

func NewDashboardHandler(history *service.HistoryService, render *Renderer, log *logger.Logger) *DashboardHandler {
	return &DashboardHandler{
		history: history,
		render:  render,
		log:     log.With("handler", "dashboard"),
	}
}

// ShowDashboard renders the stats summary and recent attempts
func (h *DashboardHandler) ShowDashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.history.ComputeStats(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	attempts, err := h.history.ListAttempts(r.Context(), "", dashboardAttemptLimit)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	data := DashboardViewData{
		PageData: h.render.Page(r, "dashboard.title"),
		Stats:    stats,
	}
	switch r.URL.Query().Get("status") {
	case "deleted":
		data.Flash = h.render.T(r, "dashboard.deleted")
	case "delete-failed":
		data.Error = h.render.T(r, "dashboard.deleteFailed")
	}

	ids := make([]string, 0, len(stats.ByLesson))
	for id := range stats.ByLesson {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		data.Lessons = append(data.Lessons, LessonStatsRow{
			LessonID: id,
			Title:    h.title(r, lessonTitleKeys, id),
			Stats:    stats.ByLesson[id],
		})
	}

	for i := range attempts {
		a := &attempts[i]
		data.Attempts = append(data.Attempts, h.attemptRow(r, a))
	}

	h.render.Render(w, http.StatusOK, "dashboard.tmpl", data)
}

// DeleteAttempt removes one of the user's attempts
func (h *DashboardHandler) DeleteAttempt(w http.ResponseWriter, r *http.Request) {
	status := "deleted"
	if err := h.history.DeleteAttempt(r.Context(), r.PathValue("id")); err != nil {
		if !errors.Is(err, service.ErrNotFoundOrForbidden) {
			h.log.Error("Failed to delete attempt", "error", err)
		}
		status = "delete-failed"
	}
	http.Redirect(w, r, h.render.URL(r, "/dashboard")+"?status="+status, http.StatusSeeOther)
}

func (h *DashboardHandler) attemptRow(r *http.Request, a *models.AttemptRecord) AttemptRow {
	return AttemptRow{
		ID:          a.ID,
		LessonTitle: h.title(r, lessonTitleKeys, a.LessonID),
		ModeTitle:   h.title(r, modeTitleKeys, a.LessonType),
		Score:       a.Score,
		MaxScore:    a.MaxScore,
		Percentage:  a.Percentage(),
		CompletedAt: a.CompletedAt,
	}
}

func (h *DashboardHandler) title(r *http.Request, keys map[string]string, id string) string {
	if key, ok := keys[id]; ok {
		return h.render.T(r, key)
	}
	return id
}

func (h *DashboardHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, service.ErrUnauthenticated) {
		http.Redirect(w, r, h.render.URL(r, "/login"), http.StatusSeeOther)
		return
	}
	h.render.Error(w, r, http.StatusInternalServerError, "common.errorGeneric")
}
