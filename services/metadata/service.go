package metadata

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"watchdeck/models"
)

// Service is the metadata gateway: it proxies TMDB, normalizes responses
// into catalog shapes and caches them on disk. Detail lookups are cached
// longer than search and trending lists.
type Service struct {
	tmdb        *tmdbClient
	detailCache *fileCache
	listCache   *fileCache
	language    string
}

func NewService(tmdbAPIKey, language, cacheDir string, detailTTL, listTTL time.Duration) *Service {
	// Dedicated subdirectories so detail and list entries can expire on
	// their own schedules.
	return &Service{
		tmdb:        newTMDBClient(tmdbAPIKey, language, &http.Client{}),
		detailCache: newFileCache(filepath.Join(cacheDir, "metadata", "details"), detailTTL),
		listCache:   newFileCache(filepath.Join(cacheDir, "metadata", "lists"), listTTL),
		language:    language,
	}
}

// UpdateAPIKey swaps the TMDB client and clears cached responses so fresh
// data is fetched with the new key.
func (s *Service) UpdateAPIKey(tmdbAPIKey string) {
	s.tmdb = newTMDBClient(tmdbAPIKey, s.language, &http.Client{})

	if err := s.detailCache.clear(); err != nil {
		log.Printf("[metadata] warning: failed to clear detail cache: %v", err)
	}
	if err := s.listCache.clear(); err != nil {
		log.Printf("[metadata] warning: failed to clear list cache: %v", err)
	}
	log.Printf("[metadata] cleared metadata cache due to API key change")
}

// IsConfigured reports whether a TMDB API key is available.
func (s *Service) IsConfigured() bool {
	return s.tmdb.isConfigured()
}

// MovieDetails returns the normalized catalog entry for a movie.
func (s *Service) MovieDetails(ctx context.Context, tmdbID int64) (models.CatalogEntry, error) {
	return s.details(ctx, models.MediaKindMovie, tmdbID)
}

// TVDetails returns the normalized catalog entry for a TV show.
func (s *Service) TVDetails(ctx context.Context, tmdbID int64) (models.CatalogEntry, error) {
	return s.details(ctx, models.MediaKindTVShow, tmdbID)
}

func (s *Service) details(ctx context.Context, kind models.MediaKind, tmdbID int64) (models.CatalogEntry, error) {
	if tmdbID <= 0 {
		return models.CatalogEntry{}, ErrIDRequired
	}

	key := cacheKey("details", string(kind), fmt.Sprintf("%d", tmdbID))
	var cached models.CatalogEntry
	if ok, _ := s.detailCache.get(key, &cached); ok {
		return cached, nil
	}

	var (
		entry models.CatalogEntry
		err   error
	)
	if kind == models.MediaKindMovie {
		entry, err = s.tmdb.movieDetails(ctx, tmdbID)
	} else {
		entry, err = s.tmdb.tvDetails(ctx, tmdbID)
	}
	if err != nil {
		return models.CatalogEntry{}, err
	}

	if err := s.detailCache.set(key, entry); err != nil {
		log.Printf("[metadata] warning: failed to cache %s/%d: %v", kind, tmdbID, err)
	}
	return entry, nil
}

// Search returns up to ten matches for the query. A blank query returns an
// empty result without calling upstream.
func (s *Service) Search(ctx context.Context, kind models.MediaKind, query string) ([]models.SearchResult, error) {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return []models.SearchResult{}, nil
	}

	key := cacheKey("search", string(kind), strings.ToLower(trimmed))
	var cached []models.SearchResult
	if ok, _ := s.listCache.get(key, &cached); ok {
		return cached, nil
	}

	results, err := s.tmdb.search(ctx, kind, trimmed)
	if err != nil {
		return nil, err
	}

	if err := s.listCache.set(key, results); err != nil {
		log.Printf("[metadata] warning: failed to cache search %q: %v", trimmed, err)
	}
	return results, nil
}

// Trending returns the trending list for the media kind and window, capped
// at twenty items.
func (s *Service) Trending(ctx context.Context, kind models.MediaKind, window models.TrendingWindow) ([]models.TrendingItem, error) {
	key := cacheKey("trending", string(kind), string(window))
	var cached []models.TrendingItem
	if ok, _ := s.listCache.get(key, &cached); ok {
		return cached, nil
	}

	items, err := s.tmdb.trending(ctx, kind, window)
	if err != nil {
		return nil, err
	}

	if err := s.listCache.set(key, items); err != nil {
		log.Printf("[metadata] warning: failed to cache trending %s/%s: %v", kind, window, err)
	}
	return items, nil
}

func cacheKey(parts ...string) string {
	h := sha1.Sum([]byte(strings.Join(parts, ":")))
	return hex.EncodeToString(h[:])
}
