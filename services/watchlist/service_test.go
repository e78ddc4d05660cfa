package watchlist

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"watchdeck/models"
)

type fakeGateway struct {
	entries map[string]models.CatalogEntry
	err     error
	calls   int
}

func (f *fakeGateway) MovieDetails(_ context.Context, tmdbID int64) (models.CatalogEntry, error) {
	return f.lookup(models.MediaKindMovie, tmdbID)
}

func (f *fakeGateway) TVDetails(_ context.Context, tmdbID int64) (models.CatalogEntry, error) {
	return f.lookup(models.MediaKindTVShow, tmdbID)
}

func (f *fakeGateway) lookup(kind models.MediaKind, tmdbID int64) (models.CatalogEntry, error) {
	f.calls++
	if f.err != nil {
		return models.CatalogEntry{}, f.err
	}
	entry, ok := f.entries[fmt.Sprintf("%s:%d", kind, tmdbID)]
	if !ok {
		return models.CatalogEntry{}, errors.New("not found upstream")
	}
	return entry, nil
}

type fakeCatalog struct {
	entries   map[string]models.CatalogEntry
	order     []string
	upsertErr error
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{entries: make(map[string]models.CatalogEntry)}
}

func (f *fakeCatalog) Upsert(_ context.Context, entry models.CatalogEntry) (models.CatalogEntry, error) {
	if f.upsertErr != nil {
		return models.CatalogEntry{}, f.upsertErr
	}
	entry.UpdatedAt = time.Now()
	key := entry.Key()
	if _, exists := f.entries[key]; !exists {
		entry.CreatedAt = entry.UpdatedAt
		f.order = append(f.order, key)
	}
	f.entries[key] = entry
	return entry, nil
}

func (f *fakeCatalog) ListAll(_ context.Context, kind models.MediaKind) ([]models.CatalogEntry, error) {
	var out []models.CatalogEntry
	// Newest first: iterate insertion order backwards.
	for i := len(f.order) - 1; i >= 0; i-- {
		entry := f.entries[f.order[i]]
		if entry.Kind == kind {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (f *fakeCatalog) Delete(_ context.Context, kind models.MediaKind, tmdbID int64) error {
	delete(f.entries, fmt.Sprintf("%s:%d", kind, tmdbID))
	return nil
}

type fakeUsers struct {
	records map[string]*models.UserRecord
	addErr  error
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{records: make(map[string]*models.UserRecord)}
}

func (f *fakeUsers) GetOrCreate(_ context.Context, userID string) (models.UserRecord, error) {
	return *f.ensure(userID), nil
}

func (f *fakeUsers) CreateAnonymous(_ context.Context) (models.UserRecord, error) {
	id := fmt.Sprintf("anon-%d", len(f.records)+1)
	return *f.ensure(id), nil
}

func (f *fakeUsers) AddReference(_ context.Context, userID string, kind models.MediaKind, tmdbID int64) error {
	if f.addErr != nil {
		return f.addErr
	}
	record := f.ensure(userID)
	refs := record.RefsFor(kind)
	for _, id := range refs {
		if id == tmdbID {
			return nil
		}
	}
	if kind == models.MediaKindMovie {
		record.MovieIDs = append(record.MovieIDs, tmdbID)
	} else {
		record.TVShowIDs = append(record.TVShowIDs, tmdbID)
	}
	return nil
}

func (f *fakeUsers) RemoveReference(_ context.Context, userID string, kind models.MediaKind, tmdbID int64) error {
	record := f.ensure(userID)
	filter := func(ids []int64) []int64 {
		out := ids[:0]
		for _, id := range ids {
			if id != tmdbID {
				out = append(out, id)
			}
		}
		return out
	}
	if kind == models.MediaKindMovie {
		record.MovieIDs = filter(record.MovieIDs)
	} else {
		record.TVShowIDs = filter(record.TVShowIDs)
	}
	return nil
}

func (f *fakeUsers) SetTheme(_ context.Context, userID string, theme models.Theme) error {
	f.ensure(userID).Theme = theme
	return nil
}

func (f *fakeUsers) ensure(userID string) *models.UserRecord {
	if record, ok := f.records[userID]; ok {
		return record
	}
	record := &models.UserRecord{
		ID:        userID,
		MovieIDs:  []int64{},
		TVShowIDs: []int64{},
		Theme:     models.DefaultTheme,
	}
	f.records[userID] = record
	return record
}

func setupService() (*Service, *fakeGateway, *fakeCatalog, *fakeUsers) {
	gateway := &fakeGateway{entries: map[string]models.CatalogEntry{
		"movie:27205":  {Kind: models.MediaKindMovie, TMDBID: 27205, Title: "Inception"},
		"movie:603":    {Kind: models.MediaKindMovie, TMDBID: 603, Title: "The Matrix"},
		"tv_show:1396": {Kind: models.MediaKindTVShow, TMDBID: 1396, Title: "Breaking Bad"},
	}}
	catalog := newFakeCatalog()
	users := newFakeUsers()
	return NewService(gateway, catalog, users), gateway, catalog, users
}

func TestAddItem_ImportsAndReferences(t *testing.T) {
	svc, _, catalog, users := setupService()
	ctx := context.Background()

	entry, err := svc.AddItem(ctx, "user1", models.MediaKindMovie, 27205)
	if err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}
	if entry.Title != "Inception" {
		t.Errorf("unexpected entry: %+v", entry)
	}

	if _, ok := catalog.entries["movie:27205"]; !ok {
		t.Error("expected catalog entry to be created")
	}
	record, _ := users.GetOrCreate(ctx, "user1")
	if len(record.MovieIDs) != 1 || record.MovieIDs[0] != 27205 {
		t.Errorf("expected reference recorded, got %v", record.MovieIDs)
	}
}

func TestAddItem_DoubleAddIsIdempotent(t *testing.T) {
	svc, _, _, users := setupService()
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := svc.AddItem(ctx, "user1", models.MediaKindMovie, 27205); err != nil {
			t.Fatalf("AddItem attempt %d failed: %v", i+1, err)
		}
	}

	record, _ := users.GetOrCreate(ctx, "user1")
	if len(record.MovieIDs) != 1 {
		t.Errorf("expected 1 reference after double add, got %v", record.MovieIDs)
	}
}

func TestAddItem_GatewayFailureLeavesNoReference(t *testing.T) {
	svc, gateway, catalog, users := setupService()
	gateway.err = errors.New("upstream down")

	_, err := svc.AddItem(context.Background(), "user1", models.MediaKindMovie, 27205)
	if err == nil {
		t.Fatal("expected error when gateway fails")
	}

	if len(catalog.entries) != 0 {
		t.Error("expected no catalog entry after gateway failure")
	}
	record, _ := users.GetOrCreate(context.Background(), "user1")
	if len(record.MovieIDs) != 0 {
		t.Errorf("expected no reference after gateway failure, got %v", record.MovieIDs)
	}
}

func TestAddItem_UpsertFailureLeavesNoReference(t *testing.T) {
	svc, _, catalog, users := setupService()
	catalog.upsertErr = errors.New("disk full")

	_, err := svc.AddItem(context.Background(), "user1", models.MediaKindMovie, 27205)
	if err == nil {
		t.Fatal("expected error when upsert fails")
	}

	record, _ := users.GetOrCreate(context.Background(), "user1")
	if len(record.MovieIDs) != 0 {
		t.Errorf("expected no reference after upsert failure, got %v", record.MovieIDs)
	}
}

func TestAddItem_Validation(t *testing.T) {
	svc, _, _, _ := setupService()
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, "", models.MediaKindMovie, 1); !errors.Is(err, ErrUserIDRequired) {
		t.Errorf("expected ErrUserIDRequired, got %v", err)
	}
	if _, err := svc.AddItem(ctx, "user1", models.MediaKindMovie, 0); !errors.Is(err, ErrIDRequired) {
		t.Errorf("expected ErrIDRequired, got %v", err)
	}
}

func TestListUserItems_FiltersByReferences(t *testing.T) {
	svc, _, _, _ := setupService()
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, "user1", models.MediaKindMovie, 27205); err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}
	if _, err := svc.AddItem(ctx, "user2", models.MediaKindMovie, 603); err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}

	items, err := svc.ListUserItems(ctx, "user1", models.MediaKindMovie)
	if err != nil {
		t.Fatalf("ListUserItems failed: %v", err)
	}
	if len(items) != 1 || items[0].TMDBID != 27205 {
		t.Errorf("expected only user1's movie, got %+v", items)
	}
}

func TestListUserItems_EmptyWatchlist(t *testing.T) {
	svc, _, _, _ := setupService()

	items, err := svc.ListUserItems(context.Background(), "fresh", models.MediaKindMovie)
	if err != nil {
		t.Fatalf("ListUserItems failed: %v", err)
	}
	if items == nil {
		t.Fatal("expected empty non-nil slice")
	}
	if len(items) != 0 {
		t.Errorf("expected no items, got %+v", items)
	}
}

func TestListUserItems_DanglingReferenceDropped(t *testing.T) {
	svc, _, catalog, users := setupService()
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, "user1", models.MediaKindMovie, 27205); err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}
	// Reference an id that has no catalog entry.
	if err := users.AddReference(ctx, "user1", models.MediaKindMovie, 999999); err != nil {
		t.Fatalf("AddReference failed: %v", err)
	}
	// And delete the entry behind an existing reference.
	if err := catalog.Delete(ctx, models.MediaKindMovie, 27205); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	items, err := svc.ListUserItems(ctx, "user1", models.MediaKindMovie)
	if err != nil {
		t.Fatalf("ListUserItems failed: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("expected dangling references dropped, got %+v", items)
	}
}

func TestRemoveItem_OnlyDropsReference(t *testing.T) {
	svc, _, catalog, users := setupService()
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, "user1", models.MediaKindTVShow, 1396); err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}
	if err := svc.RemoveItem(ctx, "user1", models.MediaKindTVShow, 1396); err != nil {
		t.Fatalf("RemoveItem failed: %v", err)
	}

	record, _ := users.GetOrCreate(ctx, "user1")
	if len(record.TVShowIDs) != 0 {
		t.Errorf("expected reference removed, got %v", record.TVShowIDs)
	}
	if _, ok := catalog.entries["tv_show:1396"]; !ok {
		t.Error("expected catalog entry to survive reference removal")
	}
}

func TestRemoveItem_MissingIsNoop(t *testing.T) {
	svc, _, _, _ := setupService()

	if err := svc.RemoveItem(context.Background(), "user1", models.MediaKindMovie, 42); err != nil {
		t.Fatalf("RemoveItem of absent reference failed: %v", err)
	}
}

func TestSetTheme_ReturnsUpdatedRecord(t *testing.T) {
	svc, _, _, _ := setupService()

	record, err := svc.SetTheme(context.Background(), "user1", models.ThemeLight)
	if err != nil {
		t.Fatalf("SetTheme failed: %v", err)
	}
	if record.Theme != models.ThemeLight {
		t.Errorf("expected theme light, got %q", record.Theme)
	}
}

func TestUser_RequiresID(t *testing.T) {
	svc, _, _, _ := setupService()

	if _, err := svc.User(context.Background(), "  "); !errors.Is(err, ErrUserIDRequired) {
		t.Fatalf("expected ErrUserIDRequired, got %v", err)
	}
}
