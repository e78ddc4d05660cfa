package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"watchdeck/handlers"
)

// corsMiddleware handles CORS for API routes
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// handleOptions handles OPTIONS requests for CORS preflight
func handleOptions(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// Register mounts API endpoints onto the provided router.
func Register(
	r *mux.Router,
	catalogHandler *handlers.CatalogHandler,
	watchlistHandler *handlers.WatchlistHandler,
	userHandler *handlers.UserHandler,
) {
	api := r.PathPrefix("/api").Subrouter()
	api.Use(corsMiddleware)

	// Catalog: upstream metadata proxied and normalized
	api.HandleFunc("/catalog/movie", catalogHandler.MovieDetails).Methods(http.MethodGet)
	api.HandleFunc("/catalog/movie", handleOptions).Methods(http.MethodOptions)
	api.HandleFunc("/catalog/tv", catalogHandler.TVDetails).Methods(http.MethodGet)
	api.HandleFunc("/catalog/tv", handleOptions).Methods(http.MethodOptions)
	api.HandleFunc("/catalog/search", catalogHandler.Search).Methods(http.MethodGet)
	api.HandleFunc("/catalog/search", handleOptions).Methods(http.MethodOptions)
	api.HandleFunc("/catalog/trending", catalogHandler.Trending).Methods(http.MethodGet)
	api.HandleFunc("/catalog/trending", handleOptions).Methods(http.MethodOptions)

	// Users
	api.HandleFunc("/users", userHandler.Create).Methods(http.MethodPost)
	api.HandleFunc("/users", handleOptions).Methods(http.MethodOptions)
	api.HandleFunc("/users/{userID}", userHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/users/{userID}", handleOptions).Methods(http.MethodOptions)
	api.HandleFunc("/users/{userID}/theme", userHandler.SetTheme).Methods(http.MethodPut)
	api.HandleFunc("/users/{userID}/theme", handleOptions).Methods(http.MethodOptions)

	// Watchlist: per-user references into the shared catalog
	api.HandleFunc("/users/{userID}/watchlist", watchlistHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/users/{userID}/watchlist", watchlistHandler.Add).Methods(http.MethodPost)
	api.HandleFunc("/users/{userID}/watchlist", handleOptions).Methods(http.MethodOptions)
	api.HandleFunc("/users/{userID}/watchlist/{mediaType}/{tmdbID}", watchlistHandler.Remove).Methods(http.MethodDelete)
	api.HandleFunc("/users/{userID}/watchlist/{mediaType}/{tmdbID}", handleOptions).Methods(http.MethodOptions)

	// Version endpoint (public)
	versionHandler := handlers.NewVersionHandler()
	api.HandleFunc("/version", versionHandler.GetVersion).Methods(http.MethodGet, http.MethodOptions)
}
