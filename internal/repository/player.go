package repository

import (
	"context"
	"errors"
	"time"

	"github.com/matesxs/deeptown-event-tracker/internal/database"
	"github.com/matesxs/deeptown-event-tracker/internal/model"
)

// PlayerRepository handles player data access
type PlayerRepository struct {
	db database.Database
}

// NewPlayerRepository creates a new player repository
func NewPlayerRepository(db database.Database) *PlayerRepository {
	return &PlayerRepository{db: db}
}

const upsertPlayerQuery = `
	UPSERT type::thing('player', $player_id) SET
		player_id = $player_id,
		name = $name,
		level = $level,
		depth = $depth,
		last_online = <datetime> $last_online,
		mines = $mines,
		crafters = $crafters,
		smelters = $smelters,
		greenhouses = $greenhouses,
		chemistries = $chemistries,
		created_on = created_on ?? time::now(),
		updated_on = time::now()
`

// Upsert inserts or overwrites a player record from a roster entry.
func (r *PlayerRepository) Upsert(ctx context.Context, m model.SnapshotMember) error {
	return r.db.Execute(ctx, upsertPlayerQuery, playerVars(m))
}

// UpsertTx appends the same upsert to a reconciliation batch.
func (r *PlayerRepository) UpsertTx(tb *database.TxBuilder, m model.SnapshotMember) {
	tb.Add(upsertPlayerQuery, playerVars(m))
}

func playerVars(m model.SnapshotMember) map[string]interface{} {
	return map[string]interface{}{
		"player_id":   m.PlayerID,
		"name":        m.Name,
		"level":       m.Level,
		"depth":       m.Depth,
		"last_online": m.LastOnline.UTC().Format(time.RFC3339),
		"mines":       m.Mines,
		"crafters":    m.Crafters,
		"smelters":    m.Smelters,
		"greenhouses": m.Greenhouses,
		"chemistries": m.Chemistries,
	}
}

// EnsureTx appends a minimal upsert that creates the player record if it is
// unknown. Used by the historical import, where only the id is known.
func (r *PlayerRepository) EnsureTx(tb *database.TxBuilder, id int64) {
	query := `
		UPSERT type::thing('player', $player_id) SET
			player_id = $player_id,
			name = name ?? "",
			created_on = created_on ?? time::now(),
			updated_on = time::now()
	`
	tb.Add(query, map[string]interface{}{"player_id": id})
}

// GetByID retrieves a player by upstream id, or nil if unknown.
func (r *PlayerRepository) GetByID(ctx context.Context, id int64) (*model.Player, error) {
	query := `SELECT * FROM type::thing('player', $player_id)`
	result, err := r.db.QueryOne(ctx, query, map[string]interface{}{"player_id": id})
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
	return parsePlayer(row), nil
}

// ListByIDs retrieves the given players. Unknown ids are skipped.
func (r *PlayerRepository) ListByIDs(ctx context.Context, ids []int64) ([]*model.Player, error) {
	query := `SELECT * FROM player WHERE player_id INSIDE $player_ids`
	results, err := r.db.Query(ctx, query, map[string]interface{}{"player_ids": ids})
	if err != nil {
		return nil, err
	}

	rows := rowsFromResults(results)
	players := make([]*model.Player, 0, len(rows))
	for _, row := range rows {
		players = append(players, parsePlayer(row))
	}
	return players, nil
}

// DeleteOrphans removes players with no membership anywhere and returns how
// many were removed. Run periodically, not per sync.
func (r *PlayerRepository) DeleteOrphans(ctx context.Context) (int, error) {
	query := `
		DELETE player
		WHERE player_id NOTINSIDE (SELECT VALUE player_id FROM membership)
		RETURN BEFORE
	`
	results, err := r.db.Query(ctx, query, nil)
	if err != nil {
		return 0, err
	}
	return len(rowsFromResults(results)), nil
}

// Count returns the number of tracked players. With activeSince set, only
// players seen online after that instant are counted.
func (r *PlayerRepository) Count(ctx context.Context, activeSince *time.Time) (int, error) {
	query := `SELECT count() AS count FROM player GROUP ALL`
	vars := map[string]interface{}(nil)
	if activeSince != nil {
		query = `SELECT count() AS count FROM player WHERE last_online > <datetime> $since GROUP ALL`
		vars = map[string]interface{}{"since": activeSince.UTC().Format(time.RFC3339)}
	}

	result, err := r.db.QueryOne(ctx, query, vars)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return extractCount(result), nil
}

func parsePlayer(row map[string]interface{}) *model.Player {
	return &model.Player{
		ID:          getInt64(row, "player_id"),
		Name:        getString(row, "name"),
		Level:       getInt(row, "level"),
		Depth:       getInt(row, "depth"),
		LastOnline:  getTime(row, "last_online"),
		Mines:       getInt(row, "mines"),
		Crafters:    getInt(row, "crafters"),
		Smelters:    getInt(row, "smelters"),
		Greenhouses: getInt(row, "greenhouses"),
		Chemistries: getInt(row, "chemistries"),
		CreatedOn:   getTime(row, "created_on"),
		UpdatedOn:   getTime(row, "updated_on"),
	}
}
