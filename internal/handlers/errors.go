package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"gleanenglish/internal/logger"
	"gleanenglish/internal/service"
)

func respondWithError(log *logger.Logger, w http.ResponseWriter, status int, userMsg, logMsg string, err error) {
	if err != nil {
		if logMsg == "" {
			logMsg = userMsg
		}
		log.Error(logMsg, "error", err)
	}

	http.Error(w, userMsg, status)
}

// apiResponse is the envelope of every JSON API response
type apiResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
	Error   string      `json:"error,omitempty"`
}

func writeJSON(log *logger.Logger, w http.ResponseWriter, status int, body apiResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Warn("Failed to write JSON response", "error", err)
	}
}

func writeData(log *logger.Logger, w http.ResponseWriter, status int, data interface{}) {
	writeJSON(log, w, status, apiResponse{Success: true, Data: data})
}

// writeServiceError maps the service error taxonomy to a status code.
// Backend failures were already logged by the service and are reported
// without detail.
func writeServiceError(log *logger.Logger, w http.ResponseWriter, err error) {
	status, msg := serviceErrorStatus(err)
	if status == http.StatusInternalServerError {
		var be *service.BackendError
		if !errors.As(err, &be) {
			log.Error("Unexpected service error", "error", err)
		}
	}
	writeJSON(log, w, status, apiResponse{Success: false, Error: msg})
}

func serviceErrorStatus(err error) (int, string) {
	var ve *service.ValidationError
	switch {
	case errors.Is(err, service.ErrUnauthenticated):
		return http.StatusUnauthorized, err.Error()
	case errors.As(err, &ve):
		return http.StatusBadRequest, ve.Error()
	case errors.Is(err, service.ErrNotFoundOrForbidden):
		return http.StatusNotFound, err.Error()
	default:
		return http.StatusInternalServerError, ErrInternalServerError
	}
}
