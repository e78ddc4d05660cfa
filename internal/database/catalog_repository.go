package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"watchdeck/models"
)

// CatalogRepository stores the global, deduplicated catalog of metadata
// snapshots. Entries are keyed by (kind, tmdb_id); writing the same key
// twice refreshes the snapshot instead of duplicating it.
type CatalogRepository struct {
	conn *sql.DB
}

func NewCatalogRepository(conn *sql.DB) *CatalogRepository {
	return &CatalogRepository{conn: conn}
}

// Upsert inserts the entry or refreshes an existing one. created_at is
// preserved on conflict; updated_at is always set to now.
func (r *CatalogRepository) Upsert(ctx context.Context, entry models.CatalogEntry) (models.CatalogEntry, error) {
	now := time.Now().UTC()
	entry.UpdatedAt = now
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}

	topCast, err := json.Marshal(sliceOrEmpty(entry.TopCast))
	if err != nil {
		return models.CatalogEntry{}, persistErr("catalog upsert", err)
	}
	networks, err := json.Marshal(sliceOrEmpty(entry.Networks))
	if err != nil {
		return models.CatalogEntry{}, persistErr("catalog upsert", err)
	}

	_, err = r.conn.ExecContext(ctx, `
		INSERT INTO catalog_entries (
			kind, tmdb_id, title, year, overview, image_url, rating,
			top_cast, networks, status, first_air_date, last_air_date, next_air_date,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (kind, tmdb_id) DO UPDATE SET
			title = excluded.title,
			year = excluded.year,
			overview = excluded.overview,
			image_url = excluded.image_url,
			rating = excluded.rating,
			top_cast = excluded.top_cast,
			networks = excluded.networks,
			status = excluded.status,
			first_air_date = excluded.first_air_date,
			last_air_date = excluded.last_air_date,
			next_air_date = excluded.next_air_date,
			updated_at = excluded.updated_at`,
		entry.Kind, entry.TMDBID, entry.Title, nullableInt(entry.Year),
		entry.Overview, entry.ImageURL, entry.Rating,
		string(topCast), string(networks), entry.Status,
		entry.FirstAirDate, entry.LastAirDate, entry.NextAirDate,
		entry.CreatedAt, entry.UpdatedAt)
	if err != nil {
		return models.CatalogEntry{}, persistErr("catalog upsert", err)
	}

	// Re-read so the caller sees the stored created_at on refresh.
	stored, found, err := r.Get(ctx, entry.Kind, entry.TMDBID)
	if err != nil {
		return models.CatalogEntry{}, err
	}
	if !found {
		return models.CatalogEntry{}, persistErr("catalog upsert", sql.ErrNoRows)
	}
	return stored, nil
}

// Get returns a single entry. The bool reports whether it exists.
func (r *CatalogRepository) Get(ctx context.Context, kind models.MediaKind, tmdbID int64) (models.CatalogEntry, bool, error) {
	row := r.conn.QueryRowContext(ctx, `
		SELECT kind, tmdb_id, title, year, overview, image_url, rating,
		       top_cast, networks, status, first_air_date, last_air_date, next_air_date,
		       created_at, updated_at
		FROM catalog_entries
		WHERE kind = ? AND tmdb_id = ?`, kind, tmdbID)

	entry, err := scanCatalogEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.CatalogEntry{}, false, nil
	}
	if err != nil {
		return models.CatalogEntry{}, false, persistErr("catalog get", err)
	}
	return entry, true, nil
}

// ListAll returns every entry of the given kind, most recently updated first.
func (r *CatalogRepository) ListAll(ctx context.Context, kind models.MediaKind) ([]models.CatalogEntry, error) {
	rows, err := r.conn.QueryContext(ctx, `
		SELECT kind, tmdb_id, title, year, overview, image_url, rating,
		       top_cast, networks, status, first_air_date, last_air_date, next_air_date,
		       created_at, updated_at
		FROM catalog_entries
		WHERE kind = ?
		ORDER BY updated_at DESC, tmdb_id`, kind)
	if err != nil {
		return nil, persistErr("catalog list", err)
	}
	defer rows.Close()

	entries := []models.CatalogEntry{}
	for rows.Next() {
		entry, err := scanCatalogEntry(rows)
		if err != nil {
			return nil, persistErr("catalog list", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, persistErr("catalog list", err)
	}
	return entries, nil
}

// Delete removes an entry. Deleting a missing entry is not an error.
func (r *CatalogRepository) Delete(ctx context.Context, kind models.MediaKind, tmdbID int64) error {
	_, err := r.conn.ExecContext(ctx,
		`DELETE FROM catalog_entries WHERE kind = ? AND tmdb_id = ?`, kind, tmdbID)
	if err != nil {
		return persistErr("catalog delete", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCatalogEntry(row rowScanner) (models.CatalogEntry, error) {
	var (
		entry    models.CatalogEntry
		year     sql.NullInt64
		rating   sql.NullFloat64
		topCast  string
		networks string
	)
	err := row.Scan(&entry.Kind, &entry.TMDBID, &entry.Title, &year,
		&entry.Overview, &entry.ImageURL, &rating,
		&topCast, &networks, &entry.Status,
		&entry.FirstAirDate, &entry.LastAirDate, &entry.NextAirDate,
		&entry.CreatedAt, &entry.UpdatedAt)
	if err != nil {
		return models.CatalogEntry{}, err
	}
	if year.Valid {
		entry.Year = int(year.Int64)
	}
	if rating.Valid {
		entry.Rating = &rating.Float64
	}
	if err := json.Unmarshal([]byte(topCast), &entry.TopCast); err != nil {
		return models.CatalogEntry{}, err
	}
	if err := json.Unmarshal([]byte(networks), &entry.Networks); err != nil {
		return models.CatalogEntry{}, err
	}
	return entry, nil
}

func sliceOrEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// nullableInt maps the zero year onto NULL; a year is never legitimately 0.
func nullableInt(v int) any {
	if v == 0 {
		return nil
	}
	return v
}
