package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"gdpr-quiz-service/internal/domain"
)

type errorResponse struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"failed to marshal response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

func respondError(w http.ResponseWriter, code int, message string) {
	respondJSON(w, code, errorResponse{Error: message})
}

// statusFromError maps domain errors to HTTP status codes.
func statusFromError(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, domain.ErrInvalidAttempt),
		errors.Is(err, domain.ErrInvalidDifficulty),
		errors.Is(err, domain.ErrInvalidPlayer),
		errors.Is(err, domain.ErrInvalidOption),
		errors.Is(err, domain.ErrInvalidConsentLevel):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrGameNotFound),
		errors.Is(err, domain.ErrConsentNotFound),
		errors.Is(err, domain.ErrQuestionBankNotFound),
		errors.Is(err, domain.ErrNoQuestions),
		errors.Is(err, domain.ErrPreferencesNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConsentRequired):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrGameFinished),
		errors.Is(err, domain.ErrQuestionAnswered),
		errors.Is(err, domain.ErrQuestionPending),
		errors.Is(err, domain.ErrStaleQuestion):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
