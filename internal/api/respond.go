package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/meglermonitor/backend/internal/analytics"
	"github.com/meglermonitor/backend/internal/listing"
)

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			http.Error(w, `{"error":"failed to encode response"}`, http.StatusInternalServerError)
		}
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps domain errors onto HTTP status codes.
func respondServiceError(w http.ResponseWriter, err error) {
	var verr *listing.ValidationError
	if errors.As(err, &verr) {
		respondJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":  "invalid query parameters",
			"fields": verr.Fields,
		})
		return
	}
	if errors.Is(err, analytics.ErrNotFound) {
		respondError(w, http.StatusNotFound, "broker not found")
		return
	}
	respondError(w, http.StatusInternalServerError, "internal server error")
}
