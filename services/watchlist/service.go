package watchlist

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"watchdeck/models"
)

var (
	ErrUserIDRequired = errors.New("user id is required")
	ErrIDRequired     = errors.New("id is required")
)

// MetadataGateway resolves upstream metadata into catalog entries.
type MetadataGateway interface {
	MovieDetails(ctx context.Context, tmdbID int64) (models.CatalogEntry, error)
	TVDetails(ctx context.Context, tmdbID int64) (models.CatalogEntry, error)
}

// CatalogStore is the shared, deduplicated entry store.
type CatalogStore interface {
	Upsert(ctx context.Context, entry models.CatalogEntry) (models.CatalogEntry, error)
	ListAll(ctx context.Context, kind models.MediaKind) ([]models.CatalogEntry, error)
	Delete(ctx context.Context, kind models.MediaKind, tmdbID int64) error
}

// UserStore holds per-user watchlist documents.
type UserStore interface {
	GetOrCreate(ctx context.Context, userID string) (models.UserRecord, error)
	CreateAnonymous(ctx context.Context) (models.UserRecord, error)
	AddReference(ctx context.Context, userID string, kind models.MediaKind, tmdbID int64) error
	RemoveReference(ctx context.Context, userID string, kind models.MediaKind, tmdbID int64) error
	SetTheme(ctx context.Context, userID string, theme models.Theme) error
}

// Service composes the metadata gateway, catalog store and user store into
// the watchlist operations the API exposes.
type Service struct {
	metadata MetadataGateway
	catalog  CatalogStore
	users    UserStore
}

func NewService(metadata MetadataGateway, catalog CatalogStore, users UserStore) *Service {
	return &Service{metadata: metadata, catalog: catalog, users: users}
}

// ListUserItems returns the catalog entries the user's watchlist references,
// most recently updated first. References without a catalog entry are
// silently dropped; they resolve themselves when the entry is re-imported.
func (s *Service) ListUserItems(ctx context.Context, userID string, kind models.MediaKind) ([]models.CatalogEntry, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrUserIDRequired
	}

	record, err := s.users.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	refs := record.RefsFor(kind)
	if len(refs) == 0 {
		return []models.CatalogEntry{}, nil
	}

	wanted := make(map[int64]struct{}, len(refs))
	for _, id := range refs {
		wanted[id] = struct{}{}
	}

	all, err := s.catalog.ListAll(ctx, kind)
	if err != nil {
		return nil, err
	}

	items := []models.CatalogEntry{}
	for _, entry := range all {
		if _, ok := wanted[entry.TMDBID]; ok {
			items = append(items, entry)
		}
	}
	return items, nil
}

// AddItem imports the title into the shared catalog and then records the
// user's reference. The reference is only written once the catalog upsert
// succeeded, so a failed import never leaves a dangling reference behind.
func (s *Service) AddItem(ctx context.Context, userID string, kind models.MediaKind, tmdbID int64) (models.CatalogEntry, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return models.CatalogEntry{}, ErrUserIDRequired
	}
	if tmdbID <= 0 {
		return models.CatalogEntry{}, ErrIDRequired
	}

	var (
		entry models.CatalogEntry
		err   error
	)
	if kind == models.MediaKindMovie {
		entry, err = s.metadata.MovieDetails(ctx, tmdbID)
	} else {
		entry, err = s.metadata.TVDetails(ctx, tmdbID)
	}
	if err != nil {
		return models.CatalogEntry{}, fmt.Errorf("fetch %s %d: %w", kind, tmdbID, err)
	}

	stored, err := s.catalog.Upsert(ctx, entry)
	if err != nil {
		return models.CatalogEntry{}, err
	}

	if err := s.users.AddReference(ctx, userID, kind, stored.TMDBID); err != nil {
		return models.CatalogEntry{}, err
	}
	return stored, nil
}

// RemoveItem drops the user's reference. The catalog entry stays; other
// users may still reference it.
func (s *Service) RemoveItem(ctx context.Context, userID string, kind models.MediaKind, tmdbID int64) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return ErrUserIDRequired
	}
	if tmdbID <= 0 {
		return ErrIDRequired
	}
	return s.users.RemoveReference(ctx, userID, kind, tmdbID)
}

// User returns the user's document, creating it on first sight.
func (s *Service) User(ctx context.Context, userID string) (models.UserRecord, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return models.UserRecord{}, ErrUserIDRequired
	}
	return s.users.GetOrCreate(ctx, userID)
}

// CreateAnonymousUser mints a user with a generated ID.
func (s *Service) CreateAnonymousUser(ctx context.Context) (models.UserRecord, error) {
	return s.users.CreateAnonymous(ctx)
}

// SetTheme updates the user's theme preference and returns the refreshed
// document.
func (s *Service) SetTheme(ctx context.Context, userID string, theme models.Theme) (models.UserRecord, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return models.UserRecord{}, ErrUserIDRequired
	}
	if err := s.users.SetTheme(ctx, userID, theme); err != nil {
		return models.UserRecord{}, err
	}
	return s.users.GetOrCreate(ctx, userID)
}
