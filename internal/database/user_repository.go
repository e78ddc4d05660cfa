package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"watchdeck/models"
)

// UserRepository stores per-user watchlist documents: a theme preference
// plus sets of catalog references. Reads lazily create the user so a
// first visit always sees a valid empty document.
type UserRepository struct {
	conn *sql.DB
}

func NewUserRepository(conn *sql.DB) *UserRepository {
	return &UserRepository{conn: conn}
}

// GetOrCreate returns the user's document, creating an empty one with
// default preferences if the user has never been seen.
func (r *UserRepository) GetOrCreate(ctx context.Context, userID string) (models.UserRecord, error) {
	if err := r.ensureUser(ctx, userID); err != nil {
		return models.UserRecord{}, err
	}
	return r.load(ctx, userID)
}

// CreateAnonymous mints a fresh user with a generated ID.
func (r *UserRepository) CreateAnonymous(ctx context.Context) (models.UserRecord, error) {
	return r.GetOrCreate(ctx, uuid.NewString())
}

// AddReference records that the user's watchlist contains the given
// catalog entry. Adding an existing reference is a no-op.
func (r *UserRepository) AddReference(ctx context.Context, userID string, kind models.MediaKind, tmdbID int64) error {
	if err := r.ensureUser(ctx, userID); err != nil {
		return err
	}
	now := time.Now().UTC()
	_, err := r.conn.ExecContext(ctx, `
		INSERT OR IGNORE INTO watchlist_refs (user_id, kind, tmdb_id, added_at)
		VALUES (?, ?, ?, ?)`, userID, kind, tmdbID, now)
	if err != nil {
		return persistErr("watchlist add", err)
	}
	return r.touch(ctx, userID, now)
}

// RemoveReference drops the reference if present. Removing a missing
// reference is a no-op.
func (r *UserRepository) RemoveReference(ctx context.Context, userID string, kind models.MediaKind, tmdbID int64) error {
	if err := r.ensureUser(ctx, userID); err != nil {
		return err
	}
	now := time.Now().UTC()
	_, err := r.conn.ExecContext(ctx, `
		DELETE FROM watchlist_refs
		WHERE user_id = ? AND kind = ? AND tmdb_id = ?`, userID, kind, tmdbID)
	if err != nil {
		return persistErr("watchlist remove", err)
	}
	return r.touch(ctx, userID, now)
}

// SetTheme updates the user's theme preference.
func (r *UserRepository) SetTheme(ctx context.Context, userID string, theme models.Theme) error {
	if err := r.ensureUser(ctx, userID); err != nil {
		return err
	}
	_, err := r.conn.ExecContext(ctx, `
		UPDATE users SET theme = ?, updated_at = ? WHERE user_id = ?`,
		theme, time.Now().UTC(), userID)
	if err != nil {
		return persistErr("set theme", err)
	}
	return nil
}

func (r *UserRepository) ensureUser(ctx context.Context, userID string) error {
	if userID == "" {
		return persistErr("ensure user", fmt.Errorf("empty user id"))
	}
	now := time.Now().UTC()
	_, err := r.conn.ExecContext(ctx, `
		INSERT OR IGNORE INTO users (user_id, theme, created_at, updated_at)
		VALUES (?, ?, ?, ?)`, userID, models.DefaultTheme, now, now)
	if err != nil {
		return persistErr("ensure user", err)
	}
	return nil
}

func (r *UserRepository) touch(ctx context.Context, userID string, now time.Time) error {
	_, err := r.conn.ExecContext(ctx,
		`UPDATE users SET updated_at = ? WHERE user_id = ?`, now, userID)
	if err != nil {
		return persistErr("touch user", err)
	}
	return nil
}

func (r *UserRepository) load(ctx context.Context, userID string) (models.UserRecord, error) {
	record := models.UserRecord{
		ID:        userID,
		MovieIDs:  []int64{},
		TVShowIDs: []int64{},
	}

	row := r.conn.QueryRowContext(ctx,
		`SELECT theme, created_at, updated_at FROM users WHERE user_id = ?`, userID)
	if err := row.Scan(&record.Theme, &record.CreatedAt, &record.UpdatedAt); err != nil {
		return models.UserRecord{}, persistErr("load user", err)
	}

	rows, err := r.conn.QueryContext(ctx, `
		SELECT kind, tmdb_id FROM watchlist_refs
		WHERE user_id = ?
		ORDER BY added_at, tmdb_id`, userID)
	if err != nil {
		return models.UserRecord{}, persistErr("load user", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			kind   models.MediaKind
			tmdbID int64
		)
		if err := rows.Scan(&kind, &tmdbID); err != nil {
			return models.UserRecord{}, persistErr("load user", err)
		}
		switch kind {
		case models.MediaKindMovie:
			record.MovieIDs = append(record.MovieIDs, tmdbID)
		case models.MediaKindTVShow:
			record.TVShowIDs = append(record.TVShowIDs, tmdbID)
		}
	}
	if err := rows.Err(); err != nil {
		return models.UserRecord{}, persistErr("load user", err)
	}

	return record, nil
}
