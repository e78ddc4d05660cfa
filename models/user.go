package models

import (
	"fmt"
	"strings"
	"time"
)

// Theme is the dashboard color scheme preference stored per user.
type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

// DefaultTheme is applied when a user document is created lazily.
const DefaultTheme = ThemeDark

// ParseTheme validates a theme value from the wire.
func ParseTheme(value string) (Theme, error) {
	switch Theme(strings.ToLower(strings.TrimSpace(value))) {
	case ThemeLight:
		return ThemeLight, nil
	case ThemeDark:
		return ThemeDark, nil
	case ThemeSystem:
		return ThemeSystem, nil
	}
	return "", fmt.Errorf("unknown theme %q", value)
}

// UserRecord is a user's watchlist document: two reference sets into the
// shared catalog plus preferences. Order of the ID slices is not meaningful.
type UserRecord struct {
	ID        string    `json:"id"`
	MovieIDs  []int64   `json:"movieIds"`
	TVShowIDs []int64   `json:"tvShowIds"`
	Theme     Theme     `json:"theme"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// RefsFor returns the reference set matching the given media kind.
func (u UserRecord) RefsFor(kind MediaKind) []int64 {
	if kind == MediaKindMovie {
		return u.MovieIDs
	}
	return u.TVShowIDs
}
