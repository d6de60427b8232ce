package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"capi/internal/captcha"
	"capi/internal/models"
	"capi/internal/resume"
)

// writeJSON encodes v with the given status
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

// writeError maps err to a status and writes the {"error": ...} envelope
func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Printf("Error handling request: %v", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrNotReady):
		return http.StatusServiceUnavailable
	case errors.Is(err, models.ErrBadRequest),
		errors.Is(err, captcha.ErrMissingToken),
		errors.Is(err, resume.ErrMissingUser),
		errors.Is(err, resume.ErrEmptyFile),
		errors.Is(err, resume.ErrTooLarge),
		errors.Is(err, resume.ErrUnsupportedType):
		return http.StatusBadRequest
	case errors.Is(err, resume.ErrNoResume),
		errors.Is(err, resume.ErrUserNotFound):
		return http.StatusNotFound
	default:
		// collaborator failures (captcha.UpstreamError, resume.UpstreamError)
		// carry their own message
		return http.StatusInternalServerError
	}
}
