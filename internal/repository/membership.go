package repository

import (
	"context"
	"errors"

	"github.com/matesxs/deeptown-event-tracker/internal/database"
	"github.com/matesxs/deeptown-event-tracker/internal/model"
)

// MembershipRepository handles current-guild relationships. The membership
// record is keyed by player id, which is what makes "at most one current
// guild per player" a storage-level guarantee: writing a membership for a
// player replaces whatever guild they had before.
type MembershipRepository struct {
	db database.Database
}

// NewMembershipRepository creates a new membership repository
func NewMembershipRepository(db database.Database) *MembershipRepository {
	return &MembershipRepository{db: db}
}

const setCurrentQuery = `
	UPSERT type::thing('membership', $player_id) SET
		player_id = $player_id,
		since = IF guild_id = $guild_id THEN since ELSE time::now() END,
		guild_id = $guild_id
`

// SetCurrentTx appends a write making guildID the player's current guild to
// a reconciliation batch. This is the only legal way to change a player's
// guild.
func (r *MembershipRepository) SetCurrentTx(tb *database.TxBuilder, playerID, guildID int64) {
	tb.Add(setCurrentQuery, map[string]interface{}{
		"player_id": playerID,
		"guild_id":  guildID,
	})
}

const removeStaleQuery = `
	DELETE membership WHERE guild_id = $guild_id AND player_id NOTINSIDE $keep_ids
`

// RemoveStaleTx appends a delete of membership rows of players no longer on
// the guild's roster to a reconciliation batch.
func (r *MembershipRepository) RemoveStaleTx(tb *database.TxBuilder, guildID int64, keepIDs []int64) {
	tb.Add(removeStaleQuery, map[string]interface{}{
		"guild_id": guildID,
		"keep_ids": keepIDs,
	})
}

// GetByPlayer returns the player's current membership, or nil if they are
// not in any tracked guild.
func (r *MembershipRepository) GetByPlayer(ctx context.Context, playerID int64) (*model.Membership, error) {
	query := `SELECT * FROM type::thing('membership', $player_id)`
	result, err := r.db.QueryOne(ctx, query, map[string]interface{}{"player_id": playerID})
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
	return parseMembership(row), nil
}

// ListByGuild returns all current memberships of a guild.
func (r *MembershipRepository) ListByGuild(ctx context.Context, guildID int64) ([]*model.Membership, error) {
	query := `SELECT * FROM membership WHERE guild_id = $guild_id ORDER BY player_id`
	results, err := r.db.Query(ctx, query, map[string]interface{}{"guild_id": guildID})
	if err != nil {
		return nil, err
	}

	rows := rowsFromResults(results)
	memberships := make([]*model.Membership, 0, len(rows))
	for _, row := range rows {
		memberships = append(memberships, parseMembership(row))
	}
	return memberships, nil
}

func parseMembership(row map[string]interface{}) *model.Membership {
	return &model.Membership{
		PlayerID: getInt64(row, "player_id"),
		GuildID:  getInt64(row, "guild_id"),
		Since:    getTime(row, "since"),
	}
}
