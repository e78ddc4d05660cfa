package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"

	"watchdeck/models"
)

const (
	tmdbBaseURL      = "https://api.themoviedb.org/3"
	tmdbImageBaseURL = "https://image.tmdb.org/t/p"
	// Posters: w185 is enough for list cards, w500 for detail views.
	tmdbListPosterSize   = "w185"
	tmdbDetailPosterSize = "w500"

	searchResultLimit   = 10
	trendingResultLimit = 20
	topCastLimit        = 3

	// Upstream error bodies are small JSON blobs; keep only enough to
	// surface the status_message.
	maxErrorBodyBytes = 512
)

type tmdbClient struct {
	apiKey   string
	language string
	httpc    *http.Client

	// Rate limiting
	throttleMu  sync.Mutex
	lastRequest time.Time
	minInterval time.Duration
}

func newTMDBClient(apiKey, language string, httpc *http.Client) *tmdbClient {
	if httpc == nil {
		httpc = &http.Client{Timeout: 15 * time.Second}
	}
	return &tmdbClient{
		apiKey:      strings.TrimSpace(apiKey),
		language:    language,
		httpc:       httpc,
		minInterval: 20 * time.Millisecond, // TMDB has generous rate limits
	}
}

func (c *tmdbClient) isConfigured() bool {
	return c != nil && c.apiKey != ""
}

// doGET performs a throttled GET against a TMDB endpoint and decodes the
// JSON response into v.
func (c *tmdbClient) doGET(ctx context.Context, endpoint string, params url.Values, v any) error {
	if !c.isConfigured() {
		return ErrNotConfigured
	}

	c.throttleMu.Lock()
	since := time.Since(c.lastRequest)
	if since < c.minInterval {
		time.Sleep(c.minInterval - since)
	}
	c.lastRequest = time.Now()
	c.throttleMu.Unlock()

	full, err := url.JoinPath(tmdbBaseURL, endpoint)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, full, nil)
	if err != nil {
		return err
	}

	q := req.URL.Query()
	q.Set("api_key", c.apiKey)
	if lang := strings.TrimSpace(c.language); lang != "" {
		q.Set("language", normalizeLanguage(lang))
	} else {
		q.Set("language", "en-US")
	}
	for key, vals := range params {
		for _, val := range vals {
			q.Set(key, val)
		}
	}
	req.URL.RawQuery = q.Encode()

	resp, err := c.httpc.Do(req)
	if err != nil {
		return &UpstreamError{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return &UpstreamError{
			Status:   resp.StatusCode,
			Endpoint: endpoint,
			Body:     strings.TrimSpace(string(body)),
		}
	}

	return json.NewDecoder(resp.Body).Decode(v)
}

type tmdbMovieDetailsResponse struct {
	ID          int64    `json:"id"`
	Title       string   `json:"title"`
	Overview    string   `json:"overview"`
	PosterPath  string   `json:"poster_path"`
	ReleaseDate string   `json:"release_date"`
	VoteAverage *float64 `json:"vote_average"`
}

type tmdbCreditsResponse struct {
	Cast []struct {
		Name string `json:"name"`
	} `json:"cast"`
}

type tmdbTVDetailsResponse struct {
	ID           int64    `json:"id"`
	Name         string   `json:"name"`
	Overview     string   `json:"overview"`
	PosterPath   string   `json:"poster_path"`
	FirstAirDate string   `json:"first_air_date"`
	LastAirDate  string   `json:"last_air_date"`
	Status       string   `json:"status"`
	VoteAverage  *float64 `json:"vote_average"`
	Networks     []struct {
		Name string `json:"name"`
	} `json:"networks"`
	NextEpisodeToAir *struct {
		AirDate string `json:"air_date"`
	} `json:"next_episode_to_air"`
}

type tmdbSearchResponse struct {
	Results []struct {
		ID           int64  `json:"id"`
		Title        string `json:"title"`
		Name         string `json:"name"`
		Overview     string `json:"overview"`
		PosterPath   string `json:"poster_path"`
		ReleaseDate  string `json:"release_date"`
		FirstAirDate string `json:"first_air_date"`
	} `json:"results"`
}

type tmdbTrendingResponse struct {
	Results []struct {
		ID           int64   `json:"id"`
		Title        string  `json:"title"`
		Name         string  `json:"name"`
		Overview     string  `json:"overview"`
		PosterPath   string  `json:"poster_path"`
		ReleaseDate  string  `json:"release_date"`
		FirstAirDate string  `json:"first_air_date"`
		MediaType    string  `json:"media_type"`
		Popularity   float64 `json:"popularity"`
		VoteAverage  float64 `json:"vote_average"`
	} `json:"results"`
}

// movieDetails fetches a movie and its credits in parallel and folds them
// into a catalog entry.
func (c *tmdbClient) movieDetails(ctx context.Context, tmdbID int64) (models.CatalogEntry, error) {
	if tmdbID <= 0 {
		return models.CatalogEntry{}, ErrIDRequired
	}

	var (
		details tmdbMovieDetailsResponse
		credits tmdbCreditsResponse
	)

	p := pool.New().WithErrors().WithContext(ctx)
	p.Go(func(ctx context.Context) error {
		return c.doGET(ctx, fmt.Sprintf("movie/%d", tmdbID), nil, &details)
	})
	p.Go(func(ctx context.Context) error {
		return c.doGET(ctx, fmt.Sprintf("movie/%d/credits", tmdbID), nil, &credits)
	})
	if err := p.Wait(); err != nil {
		return models.CatalogEntry{}, err
	}

	cast := make([]string, 0, len(credits.Cast))
	for _, member := range credits.Cast {
		cast = append(cast, member.Name)
	}

	return models.CatalogEntry{
		Kind:     models.MediaKindMovie,
		TMDBID:   details.ID,
		Title:    pickTMDBTitle(details.Title, ""),
		Year:     parseTMDBYear(details.ReleaseDate),
		Overview: details.Overview,
		ImageURL: buildTMDBImage(details.PosterPath, tmdbDetailPosterSize),
		Rating:   details.VoteAverage,
		TopCast:  topCastNames(cast),
	}, nil
}

// tvDetails fetches a TV show and folds it into a catalog entry.
func (c *tmdbClient) tvDetails(ctx context.Context, tmdbID int64) (models.CatalogEntry, error) {
	if tmdbID <= 0 {
		return models.CatalogEntry{}, ErrIDRequired
	}

	var details tmdbTVDetailsResponse
	if err := c.doGET(ctx, fmt.Sprintf("tv/%d", tmdbID), nil, &details); err != nil {
		return models.CatalogEntry{}, err
	}

	networks := make([]string, 0, len(details.Networks))
	for _, n := range details.Networks {
		if n.Name != "" {
			networks = append(networks, n.Name)
		}
	}

	entry := models.CatalogEntry{
		Kind:         models.MediaKindTVShow,
		TMDBID:       details.ID,
		Title:        pickTMDBTitle("", details.Name),
		Year:         parseTMDBYear(details.FirstAirDate),
		Overview:     details.Overview,
		ImageURL:     buildTMDBImage(details.PosterPath, tmdbDetailPosterSize),
		Rating:       details.VoteAverage,
		Networks:     networks,
		Status:       details.Status,
		FirstAirDate: details.FirstAirDate,
		LastAirDate:  details.LastAirDate,
	}
	if details.NextEpisodeToAir != nil {
		entry.NextAirDate = details.NextEpisodeToAir.AirDate
	}
	return entry, nil
}

// search queries TMDB for movies or TV shows matching the query.
func (c *tmdbClient) search(ctx context.Context, kind models.MediaKind, query string) ([]models.SearchResult, error) {
	endpoint := "search/movie"
	if kind == models.MediaKindTVShow {
		endpoint = "search/tv"
	}

	params := url.Values{}
	params.Set("query", query)

	var payload tmdbSearchResponse
	if err := c.doGET(ctx, endpoint, params, &payload); err != nil {
		return nil, err
	}

	results := []models.SearchResult{}
	for _, r := range payload.Results {
		if len(results) >= searchResultLimit {
			break
		}
		results = append(results, models.SearchResult{
			TMDBID:   r.ID,
			Title:    pickTMDBTitle(r.Title, r.Name),
			Year:     parseTMDBYear(firstNonEmpty(r.ReleaseDate, r.FirstAirDate)),
			Overview: r.Overview,
			ImageURL: buildTMDBImage(r.PosterPath, tmdbListPosterSize),
		})
	}
	return results, nil
}

// trending fetches the trending list for one media kind and window. Rows
// that do not name their own media_type resolve to the requested kind.
func (c *tmdbClient) trending(ctx context.Context, kind models.MediaKind, window models.TrendingWindow) ([]models.TrendingItem, error) {
	mediaType := "movie"
	if kind == models.MediaKindTVShow {
		mediaType = "tv"
	}

	var payload tmdbTrendingResponse
	if err := c.doGET(ctx, fmt.Sprintf("trending/%s/%s", mediaType, window), nil, &payload); err != nil {
		return nil, err
	}

	items := []models.TrendingItem{}
	for _, r := range payload.Results {
		if len(items) >= trendingResultLimit {
			break
		}
		resolved := kind
		if r.MediaType != "" {
			if parsed, err := models.ParseMediaKind(r.MediaType); err == nil {
				resolved = parsed
			}
		}
		items = append(items, models.TrendingItem{
			TMDBID:      r.ID,
			MediaKind:   resolved,
			Title:       pickTMDBTitle(r.Title, r.Name),
			Year:        parseTMDBYear(firstNonEmpty(r.ReleaseDate, r.FirstAirDate)),
			Overview:    r.Overview,
			ImageURL:    buildTMDBImage(r.PosterPath, tmdbListPosterSize),
			Popularity:  r.Popularity,
			VoteAverage: r.VoteAverage,
		})
	}
	return items, nil
}

func pickTMDBTitle(movieTitle, seriesName string) string {
	if movieTitle != "" {
		return movieTitle
	}
	if seriesName != "" {
		return seriesName
	}
	return "Untitled"
}

func parseTMDBYear(date string) int {
	if len(date) < 4 {
		return 0
	}
	y, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return y
}

func buildTMDBImage(imagePath, size string) string {
	trimmed := strings.TrimSpace(imagePath)
	if trimmed == "" {
		return ""
	}
	fullPath := path.Join(size, strings.TrimPrefix(trimmed, "/"))
	return fmt.Sprintf("%s/%s", tmdbImageBaseURL, fullPath)
}

// topCastNames keeps the first three billed cast members, dropping blank
// names afterwards rather than reaching deeper into the billing order.
func topCastNames(cast []string) []string {
	if len(cast) > topCastLimit {
		cast = cast[:topCastLimit]
	}
	names := make([]string, 0, len(cast))
	for _, name := range cast {
		if strings.TrimSpace(name) == "" {
			continue
		}
		names = append(names, name)
	}
	return names
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

func normalizeLanguage(lang string) string {
	lang = strings.ReplaceAll(lang, "_", "-")
	if len(lang) == 2 {
		return strings.ToLower(lang) + "-US"
	}
	if len(lang) >= 5 {
		return strings.ToLower(lang[:2]) + "-" + strings.ToUpper(lang[3:])
	}
	return "en-US"
}
