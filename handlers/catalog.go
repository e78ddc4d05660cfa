package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"watchdeck/models"
	metadatapkg "watchdeck/services/metadata"
)

type metadataService interface {
	MovieDetails(ctx context.Context, tmdbID int64) (models.CatalogEntry, error)
	TVDetails(ctx context.Context, tmdbID int64) (models.CatalogEntry, error)
	Search(ctx context.Context, kind models.MediaKind, query string) ([]models.SearchResult, error)
	Trending(ctx context.Context, kind models.MediaKind, window models.TrendingWindow) ([]models.TrendingItem, error)
}

var _ metadataService = (*metadatapkg.Service)(nil)

// CatalogHandler exposes the metadata gateway endpoints.
type CatalogHandler struct {
	Service metadataService
}

func NewCatalogHandler(s metadataService) *CatalogHandler {
	return &CatalogHandler{Service: s}
}

func (h *CatalogHandler) MovieDetails(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	entry, err := h.Service.MovieDetails(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (h *CatalogHandler) TVDetails(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	entry, err := h.Service.TVDetails(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

type searchResponse struct {
	Results []models.SearchResult `json:"results"`
}

func (h *CatalogHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	kind := models.MediaKindMovie
	if typeParam := r.URL.Query().Get("type"); typeParam != "" {
		parsed, err := models.ParseMediaKind(typeParam)
		if err != nil {
			writeJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		kind = parsed
	}

	results, err := h.Service.Search(r.Context(), kind, query)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if results == nil {
		results = []models.SearchResult{}
	}
	writeJSON(w, http.StatusOK, searchResponse{Results: results})
}

type trendingResponse struct {
	Results []models.TrendingItem `json:"results"`
}

func (h *CatalogHandler) Trending(w http.ResponseWriter, r *http.Request) {
	kind := models.MediaKindMovie
	if typeParam := r.URL.Query().Get("type"); typeParam != "" {
		parsed, err := models.ParseMediaKind(typeParam)
		if err != nil {
			writeJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		kind = parsed
	}
	window := models.ParseTrendingWindow(r.URL.Query().Get("window"))

	items, err := h.Service.Trending(r.Context(), kind, window)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if items == nil {
		items = []models.TrendingItem{}
	}
	writeJSON(w, http.StatusOK, trendingResponse{Results: items})
}

func parseIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get("id"))
	if raw == "" {
		writeJSONError(w, "id parameter is required", http.StatusBadRequest)
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeJSONError(w, "id parameter must be a positive integer", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}
