package metadata

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConfigured is returned when no TMDB API key is set.
	ErrNotConfigured = errors.New("tmdb api key not configured")
	// ErrIDRequired is returned when a details lookup is missing its id.
	ErrIDRequired = errors.New("tmdb id required")
)

// UpstreamError reports a failed TMDB request: either a non-success
// response (Status and a bounded slice of the response Body) or a
// transport failure (Err).
type UpstreamError struct {
	Status   int
	Endpoint string
	Body     string
	Err      error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("tmdb request failed: %s: %v", e.Endpoint, e.Err)
	}
	if e.Body != "" {
		return fmt.Sprintf("tmdb request failed: %s returned status %d: %s", e.Endpoint, e.Status, e.Body)
	}
	return fmt.Sprintf("tmdb request failed: %s returned status %d", e.Endpoint, e.Status)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
