package repository

import (
	"context"
	"errors"

	"github.com/matesxs/deeptown-event-tracker/internal/database"
	"github.com/matesxs/deeptown-event-tracker/internal/model"
)

// GuildRepository handles guild data access
type GuildRepository struct {
	db database.Database
}

// NewGuildRepository creates a new guild repository
func NewGuildRepository(db database.Database) *GuildRepository {
	return &GuildRepository{db: db}
}

const upsertGuildQuery = `
	UPSERT type::thing('guild', $guild_id) SET
		guild_id = $guild_id,
		name = $name,
		level = $level,
		active = $active,
		created_on = created_on ?? time::now(),
		updated_on = time::now()
`

// UpsertTx appends a guild upsert to a reconciliation batch. The record is
// created on first sighting and the mutable fields are overwritten on every
// later one; the upstream id never changes.
func (r *GuildRepository) UpsertTx(tb *database.TxBuilder, id int64, name string, level int, active bool) {
	tb.Add(upsertGuildQuery, guildVars(id, name, level, active))
}

func guildVars(id int64, name string, level int, active bool) map[string]interface{} {
	return map[string]interface{}{
		"guild_id": id,
		"name":     name,
		"level":    level,
		"active":   active,
	}
}

// EnsureTx appends a minimal upsert that creates the guild record if it is
// unknown, without touching fields a later sync will fill in. Used by the
// historical import, where only the id is known.
func (r *GuildRepository) EnsureTx(tb *database.TxBuilder, id int64) {
	query := `
		UPSERT type::thing('guild', $guild_id) SET
			guild_id = $guild_id,
			name = name ?? "",
			level = level ?? 0,
			active = active ?? false,
			created_on = created_on ?? time::now(),
			updated_on = time::now()
	`
	tb.Add(query, map[string]interface{}{"guild_id": id})
}

// GetByID retrieves a guild by its upstream id, or nil if unknown.
func (r *GuildRepository) GetByID(ctx context.Context, id int64) (*model.Guild, error) {
	query := `SELECT * FROM type::thing('guild', $guild_id)`
	result, err := r.db.QueryOne(ctx, query, map[string]interface{}{"guild_id": id})
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	row, ok := rowFromResult(result)
	if !ok {
		return nil, nil
	}
	return parseGuild(row), nil
}

// ListIDs returns the upstream ids of all tracked guilds, optionally only
// the active ones.
func (r *GuildRepository) ListIDs(ctx context.Context, activeOnly bool) ([]int64, error) {
	query := `SELECT guild_id FROM guild ORDER BY guild_id`
	if activeOnly {
		query = `SELECT guild_id FROM guild WHERE active = true ORDER BY guild_id`
	}

	results, err := r.db.Query(ctx, query, nil)
	if err != nil {
		return nil, err
	}

	rows := rowsFromResults(results)
	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, getInt64(row, "guild_id"))
	}
	return ids, nil
}

// List returns all tracked guilds.
func (r *GuildRepository) List(ctx context.Context) ([]*model.Guild, error) {
	results, err := r.db.Query(ctx, `SELECT * FROM guild ORDER BY guild_id`, nil)
	if err != nil {
		return nil, err
	}

	rows := rowsFromResults(results)
	guilds := make([]*model.Guild, 0, len(rows))
	for _, row := range rows {
		guilds = append(guilds, parseGuild(row))
	}
	return guilds, nil
}

// SetActive flips a guild's active flag without touching other fields.
func (r *GuildRepository) SetActive(ctx context.Context, id int64, active bool) error {
	query := `UPDATE type::thing('guild', $guild_id) SET active = $active, updated_on = time::now()`
	return r.db.Execute(ctx, query, map[string]interface{}{"guild_id": id, "active": active})
}

// Delete removes a guild and its membership rows as one atomic unit.
// Participation history is kept; it is only removed by an explicit purge.
func (r *GuildRepository) Delete(ctx context.Context, id int64) error {
	tb := database.NewTxBuilder()
	tb.Add(`DELETE membership WHERE guild_id = $guild_id`, map[string]interface{}{"guild_id": id})
	tb.Add(`DELETE type::thing('guild', $guild_id)`, map[string]interface{}{"guild_id": id})
	return database.ExecuteTransaction(ctx, r.db, tb)
}

// ListAbsentIDs returns tracked guild ids that do not appear in the given
// full upstream listing. Used by the cleanup pass.
func (r *GuildRepository) ListAbsentIDs(ctx context.Context, upstreamIDs []int64) ([]int64, error) {
	query := `SELECT guild_id FROM guild WHERE guild_id NOTINSIDE $upstream_ids`
	results, err := r.db.Query(ctx, query, map[string]interface{}{"upstream_ids": upstreamIDs})
	if err != nil {
		return nil, err
	}

	rows := rowsFromResults(results)
	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, getInt64(row, "guild_id"))
	}
	return ids, nil
}

// Count returns the number of tracked guilds, optionally active only.
func (r *GuildRepository) Count(ctx context.Context, activeOnly bool) (int, error) {
	query := `SELECT count() AS count FROM guild GROUP ALL`
	if activeOnly {
		query = `SELECT count() AS count FROM guild WHERE active = true GROUP ALL`
	}

	result, err := r.db.QueryOne(ctx, query, nil)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return extractCount(result), nil
}

func parseGuild(row map[string]interface{}) *model.Guild {
	return &model.Guild{
		ID:        getInt64(row, "guild_id"),
		Name:      getString(row, "name"),
		Level:     getInt(row, "level"),
		Active:    getBool(row, "active"),
		CreatedOn: getTime(row, "created_on"),
		UpdatedOn: getTime(row, "updated_on"),
	}
}
