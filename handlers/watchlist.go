package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"watchdeck/models"
	watchlistpkg "watchdeck/services/watchlist"
)

type watchlistService interface {
	ListUserItems(ctx context.Context, userID string, kind models.MediaKind) ([]models.CatalogEntry, error)
	AddItem(ctx context.Context, userID string, kind models.MediaKind, tmdbID int64) (models.CatalogEntry, error)
	RemoveItem(ctx context.Context, userID string, kind models.MediaKind, tmdbID int64) error
	User(ctx context.Context, userID string) (models.UserRecord, error)
	CreateAnonymousUser(ctx context.Context) (models.UserRecord, error)
	SetTheme(ctx context.Context, userID string, theme models.Theme) (models.UserRecord, error)
}

var _ watchlistService = (*watchlistpkg.Service)(nil)

// WatchlistHandler exposes the per-user watchlist endpoints.
type WatchlistHandler struct {
	Service watchlistService
}

func NewWatchlistHandler(s watchlistService) *WatchlistHandler {
	return &WatchlistHandler{Service: s}
}

func requireUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := strings.TrimSpace(mux.Vars(r)["userID"])
	if userID == "" {
		writeJSONError(w, "user id is required", http.StatusBadRequest)
		return "", false
	}
	return userID, true
}

type watchlistListResponse struct {
	Items []models.CatalogEntry `json:"items"`
}

// List returns the catalog entries referenced by the user's watchlist for
// a media kind.
func (h *WatchlistHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	kind, err := models.ParseMediaKind(r.URL.Query().Get("type"))
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	items, err := h.Service.ListUserItems(r.Context(), userID, kind)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if items == nil {
		items = []models.CatalogEntry{}
	}
	writeJSON(w, http.StatusOK, watchlistListResponse{Items: items})
}

type addItemRequest struct {
	TMDBID    int64  `json:"tmdbId"`
	MediaType string `json:"mediaType"`
}

// Add imports the title into the catalog and records the user's reference.
func (h *WatchlistHandler) Add(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	kind, err := models.ParseMediaKind(req.MediaType)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.TMDBID <= 0 {
		writeJSONError(w, "tmdbId must be a positive integer", http.StatusBadRequest)
		return
	}

	entry, err := h.Service.AddItem(r.Context(), userID, kind, req.TMDBID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// Remove drops the user's reference without touching the shared catalog.
func (h *WatchlistHandler) Remove(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	vars := mux.Vars(r)
	kind, err := models.ParseMediaKind(vars["mediaType"])
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	tmdbID, err := strconv.ParseInt(vars["tmdbID"], 10, 64)
	if err != nil || tmdbID <= 0 {
		writeJSONError(w, "tmdb id must be a positive integer", http.StatusBadRequest)
		return
	}

	if err := h.Service.RemoveItem(r.Context(), userID, kind, tmdbID); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
