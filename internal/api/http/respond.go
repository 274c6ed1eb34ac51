package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/examstack/examstack/internal/assessment"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeDomainError maps the assessment error taxonomy onto HTTP statuses.
// The reason string always reaches the client so failure kinds stay
// distinguishable.
func writeDomainError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, assessment.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, assessment.ErrDuplicateSubmission):
		status = http.StatusConflict
	case errors.Is(err, assessment.ErrInvalidInput):
		status = http.StatusBadRequest
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
