package api

import (
	"encoding/json"
	"net/http"

	apperrors "locadora/internal/errors"
)

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// respondError translates domain errors into HTTP responses; anything not in
// the taxonomy becomes a 500 with a generic message.
func respondError(w http.ResponseWriter, err error) {
	status := apperrors.StatusFor(err)
	message := err.Error()
	code := ""
	if de, ok := err.(*apperrors.DomainError); ok {
		code = de.Code
	} else if status == http.StatusInternalServerError {
		message = "internal error"
	}
	respondJSON(w, status, map[string]string{
		"error": message,
		"code":  code,
	})
}
