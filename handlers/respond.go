package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"watchdeck/internal/database"
	"watchdeck/services/metadata"
	"watchdeck/services/watchlist"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, map[string]string{"error": message})
}

// statusForError maps service errors onto HTTP statuses: validation errors
// are the caller's fault, a missing API key and storage failures are ours,
// and upstream failures surface as a bad gateway.
func statusForError(err error) int {
	var (
		upstream *metadata.UpstreamError
		persist  *database.PersistenceError
	)
	switch {
	case errors.Is(err, metadata.ErrIDRequired),
		errors.Is(err, watchlist.ErrIDRequired),
		errors.Is(err, watchlist.ErrUserIDRequired):
		return http.StatusBadRequest
	case errors.Is(err, metadata.ErrNotConfigured):
		return http.StatusInternalServerError
	case errors.As(err, &upstream):
		return http.StatusBadGateway
	case errors.As(err, &persist):
		return http.StatusInternalServerError
	}
	return http.StatusInternalServerError
}

func writeServiceError(w http.ResponseWriter, err error) {
	writeJSONError(w, err.Error(), statusForError(err))
}
