package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"watchdeck/models"
)

// UserHandler exposes the user document endpoints.
type UserHandler struct {
	Service watchlistService
}

func NewUserHandler(s watchlistService) *UserHandler {
	return &UserHandler{Service: s}
}

// Get returns the user's document, creating an empty one on first sight.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(mux.Vars(r)["userID"])
	if userID == "" {
		writeJSONError(w, "user id is required", http.StatusBadRequest)
		return
	}

	record, err := h.Service.User(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// Create mints a new user with a generated ID.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	record, err := h.Service.CreateAnonymousUser(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, record)
}

type setThemeRequest struct {
	Theme string `json:"theme"`
}

// SetTheme updates the user's theme preference.
func (h *UserHandler) SetTheme(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(mux.Vars(r)["userID"])
	if userID == "" {
		writeJSONError(w, "user id is required", http.StatusBadRequest)
		return
	}

	var req setThemeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	theme, err := models.ParseTheme(req.Theme)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	record, err := h.Service.SetTheme(r.Context(), userID, theme)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}
