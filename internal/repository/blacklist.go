package repository

import (
	"context"
	"errors"

	"github.com/matesxs/deeptown-event-tracker/internal/database"
	"github.com/matesxs/deeptown-event-tracker/internal/model"
)

// BlacklistRepository handles exclusion entries for guilds and players.
type BlacklistRepository struct {
	db database.Database
}

// NewBlacklistRepository creates a new blacklist repository
func NewBlacklistRepository(db database.Database) *BlacklistRepository {
	return &BlacklistRepository{db: db}
}

// IsBlacklisted reports whether the given guild or player is excluded from
// tracking.
func (r *BlacklistRepository) IsBlacklisted(ctx context.Context, kind model.BlacklistKind, id int64) (bool, error) {
	query := `SELECT count() AS count FROM type::thing('blacklist', [$kind, $subject_id]) GROUP ALL`
	result, err := r.db.QueryOne(ctx, query, map[string]interface{}{
		"kind":       string(kind),
		"subject_id": id,
	})
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return extractCount(result) > 0, nil
}

// Add inserts a blacklist entry. Adding an existing entry is a no-op.
func (r *BlacklistRepository) Add(ctx context.Context, kind model.BlacklistKind, id int64) error {
	query := `
		UPSERT type::thing('blacklist', [$kind, $subject_id]) SET
			kind = $kind,
			subject_id = $subject_id,
			created_on = created_on ?? time::now()
	`
	return r.db.Execute(ctx, query, map[string]interface{}{
		"kind":       string(kind),
		"subject_id": id,
	})
}

// Remove deletes a blacklist entry if present.
func (r *BlacklistRepository) Remove(ctx context.Context, kind model.BlacklistKind, id int64) error {
	query := `DELETE type::thing('blacklist', [$kind, $subject_id])`
	return r.db.Execute(ctx, query, map[string]interface{}{
		"kind":       string(kind),
		"subject_id": id,
	})
}
