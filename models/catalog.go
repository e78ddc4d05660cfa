package models

import (
	"fmt"
	"strings"
	"time"
)

// MediaKind discriminates the two catalog collections.
type MediaKind string

const (
	MediaKindMovie  MediaKind = "movie"
	MediaKindTVShow MediaKind = "tv_show"
)

// ParseMediaKind maps the wire spellings ("movie", "tv") and the storage
// spellings ("movie", "tv_show") onto a MediaKind.
func ParseMediaKind(value string) (MediaKind, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "movie":
		return MediaKindMovie, nil
	case "tv", "tv_show", "tvshow":
		return MediaKindTVShow, nil
	}
	return "", fmt.Errorf("unknown media kind %q", value)
}

// CatalogEntry is a title imported from the upstream catalog. Entries are
// globally deduplicated: one entry per (kind, tmdbId), shared by every user
// that references it.
type CatalogEntry struct {
	Kind     MediaKind `json:"kind"`
	TMDBID   int64     `json:"tmdbId"`
	Title    string    `json:"title"`
	Year     int       `json:"year,omitempty"`
	Overview string    `json:"overview,omitempty"`
	ImageURL string    `json:"imageUrl,omitempty"`
	// Rating is nil when upstream reported none; a zero rating is kept.
	Rating *float64 `json:"rating,omitempty"`

	// Movie-only.
	TopCast []string `json:"topCast,omitempty"`

	// TV-only.
	Networks     []string `json:"networks,omitempty"`
	Status       string   `json:"status,omitempty"`
	FirstAirDate string   `json:"firstAirDate,omitempty"`
	LastAirDate  string   `json:"lastAirDate,omitempty"`
	NextAirDate  string   `json:"nextAirDate,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Key returns a stable identifier combining kind and upstream ID.
func (e CatalogEntry) Key() string {
	return fmt.Sprintf("%s:%d", e.Kind, e.TMDBID)
}

// SearchResult is the lightweight shape returned by catalog search.
type SearchResult struct {
	TMDBID   int64  `json:"tmdbId"`
	Title    string `json:"title"`
	Year     int    `json:"year,omitempty"`
	Overview string `json:"overview,omitempty"`
	ImageURL string `json:"imageUrl,omitempty"`
}

// TrendingItem extends the search shape with popularity signals and the
// media kind resolved by the upstream feed.
type TrendingItem struct {
	TMDBID      int64     `json:"tmdbId"`
	Title       string    `json:"title"`
	Year        int       `json:"year,omitempty"`
	Overview    string    `json:"overview,omitempty"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	MediaKind   MediaKind `json:"mediaType"`
	Popularity  float64   `json:"popularity,omitempty"`
	VoteAverage float64   `json:"voteAverage,omitempty"`
}

// TrendingWindow selects the upstream trending aggregation period.
type TrendingWindow string

const (
	TrendingWindowDay  TrendingWindow = "day"
	TrendingWindowWeek TrendingWindow = "week"
)

// ParseTrendingWindow defaults to the daily window, matching the upstream
// default, and only switches to weekly on an explicit "week".
func ParseTrendingWindow(value string) TrendingWindow {
	if strings.ToLower(strings.TrimSpace(value)) == string(TrendingWindowWeek) {
		return TrendingWindowWeek
	}
	return TrendingWindowDay
}
