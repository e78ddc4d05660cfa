package metadata

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"watchdeck/models"
)

func newTestService(t *testing.T, handler roundTripFunc) *Service {
	t.Helper()
	svc := NewService("test-key", "en", t.TempDir(), time.Hour, 10*time.Minute)
	svc.tmdb = newTestClient(handler)
	return svc
}

func TestServiceSearch_BlankQuerySkipsUpstream(t *testing.T) {
	var calls int
	svc := newTestService(t, func(req *http.Request) (*http.Response, error) {
		calls++
		return jsonResponse(http.StatusOK, `{"results": []}`), nil
	})

	for _, query := range []string{"", "   ", "\t"} {
		results, err := svc.Search(context.Background(), models.MediaKindMovie, query)
		if err != nil {
			t.Fatalf("Search(%q) failed: %v", query, err)
		}
		if results == nil {
			t.Fatalf("Search(%q) returned nil slice", query)
		}
		if len(results) != 0 {
			t.Fatalf("Search(%q) returned %d results", query, len(results))
		}
	}

	if calls != 0 {
		t.Fatalf("expected no upstream calls for blank queries, got %d", calls)
	}
}

func TestServiceSearch_CachesResults(t *testing.T) {
	var (
		mu    sync.Mutex
		calls int
	)
	svc := newTestService(t, func(req *http.Request) (*http.Response, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		return jsonResponse(http.StatusOK, `{"results": [{"id": 603, "title": "The Matrix", "release_date": "1999-03-31"}]}`), nil
	})

	for i := 0; i < 3; i++ {
		results, err := svc.Search(context.Background(), models.MediaKindMovie, "matrix")
		if err != nil {
			t.Fatalf("Search failed: %v", err)
		}
		if len(results) != 1 || results[0].Title != "The Matrix" {
			t.Fatalf("unexpected results: %+v", results)
		}
	}

	if calls != 1 {
		t.Fatalf("expected 1 upstream call, got %d", calls)
	}
}

func TestServiceMovieDetails_CachesEntry(t *testing.T) {
	var (
		mu    sync.Mutex
		calls int
	)
	svc := newTestService(t, func(req *http.Request) (*http.Response, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		switch req.URL.Path {
		case "/3/movie/550":
			return jsonResponse(http.StatusOK, `{"id": 550, "title": "Fight Club", "release_date": "1999-10-15"}`), nil
		case "/3/movie/550/credits":
			return jsonResponse(http.StatusOK, `{"cast": [{"name": "Brad Pitt"}]}`), nil
		}
		t.Errorf("unexpected path %s", req.URL.Path)
		return jsonResponse(http.StatusNotFound, `{}`), nil
	})

	first, err := svc.MovieDetails(context.Background(), 550)
	if err != nil {
		t.Fatalf("first MovieDetails failed: %v", err)
	}
	second, err := svc.MovieDetails(context.Background(), 550)
	if err != nil {
		t.Fatalf("second MovieDetails failed: %v", err)
	}

	if calls != 2 {
		t.Fatalf("expected 2 upstream calls (details + credits), got %d", calls)
	}
	if first.Title != second.Title || second.Title != "Fight Club" {
		t.Fatalf("cached entry mismatch: %+v vs %+v", first, second)
	}
	if len(second.TopCast) != 1 || second.TopCast[0] != "Brad Pitt" {
		t.Fatalf("cast lost through cache: %v", second.TopCast)
	}
}

func TestServiceDetails_IDRequired(t *testing.T) {
	svc := newTestService(t, func(req *http.Request) (*http.Response, error) {
		t.Error("no request expected")
		return jsonResponse(http.StatusOK, `{}`), nil
	})

	if _, err := svc.MovieDetails(context.Background(), 0); !errors.Is(err, ErrIDRequired) {
		t.Fatalf("expected ErrIDRequired, got %v", err)
	}
	if _, err := svc.TVDetails(context.Background(), -5); !errors.Is(err, ErrIDRequired) {
		t.Fatalf("expected ErrIDRequired, got %v", err)
	}
}

func TestServiceDetails_UpstreamErrorPassedThrough(t *testing.T) {
	svc := newTestService(t, func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusInternalServerError, `{}`), nil
	})

	_, err := svc.TVDetails(context.Background(), 1399)

	var upstream *UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if upstream.Status != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", upstream.Status)
	}
}

func TestServiceTrending_CachesPerKindAndWindow(t *testing.T) {
	var (
		mu    sync.Mutex
		paths []string
	)
	svc := newTestService(t, func(req *http.Request) (*http.Response, error) {
		mu.Lock()
		paths = append(paths, req.URL.Path)
		mu.Unlock()
		return jsonResponse(http.StatusOK, `{"results": [{"id": 1, "title": "T", "media_type": "movie"}]}`), nil
	})

	ctx := context.Background()
	if _, err := svc.Trending(ctx, models.MediaKindMovie, models.TrendingWindowDay); err != nil {
		t.Fatalf("Trending movie/day failed: %v", err)
	}
	if _, err := svc.Trending(ctx, models.MediaKindMovie, models.TrendingWindowDay); err != nil {
		t.Fatalf("cached Trending movie/day failed: %v", err)
	}
	if _, err := svc.Trending(ctx, models.MediaKindTVShow, models.TrendingWindowDay); err != nil {
		t.Fatalf("Trending tv/day failed: %v", err)
	}
	if _, err := svc.Trending(ctx, models.MediaKindMovie, models.TrendingWindowWeek); err != nil {
		t.Fatalf("Trending movie/week failed: %v", err)
	}

	if len(paths) != 3 {
		t.Fatalf("expected 3 upstream calls, got %d (%v)", len(paths), paths)
	}
	if paths[0] != "/3/trending/movie/day" || paths[1] != "/3/trending/tv/day" || paths[2] != "/3/trending/movie/week" {
		t.Fatalf("unexpected paths: %v", paths)
	}
}

func TestServiceUpdateAPIKey_ClearsCache(t *testing.T) {
	var (
		mu    sync.Mutex
		calls int
	)
	handler := func(req *http.Request) (*http.Response, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		return jsonResponse(http.StatusOK, `{"results": []}`), nil
	}
	svc := newTestService(t, handler)

	ctx := context.Background()
	if _, err := svc.Trending(ctx, models.MediaKindMovie, models.TrendingWindowDay); err != nil {
		t.Fatalf("Trending failed: %v", err)
	}

	svc.UpdateAPIKey("new-key")
	svc.tmdb = newTestClient(handler)

	if _, err := svc.Trending(ctx, models.MediaKindMovie, models.TrendingWindowDay); err != nil {
		t.Fatalf("Trending after key change failed: %v", err)
	}

	if calls != 2 {
		t.Fatalf("expected cache cleared and refetched, got %d calls", calls)
	}
}
