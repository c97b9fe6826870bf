package repository

import (
	"context"
	"errors"

	"github.com/matesxs/deeptown-event-tracker/internal/database"
	"github.com/matesxs/deeptown-event-tracker/internal/model"
)

// ParticipationRepository handles per-(event, guild, player) contribution
// records and their aggregates.
type ParticipationRepository struct {
	db database.Database
}

// NewParticipationRepository creates a new participation repository
func NewParticipationRepository(db database.Database) *ParticipationRepository {
	return &ParticipationRepository{db: db}
}

const upsertParticipationQuery = `
	UPSERT type::thing('participation', [$year, $week, $guild_id, $player_id]) SET
		year = $year,
		week = $week,
		guild_id = $guild_id,
		player_id = $player_id,
		amount = $amount,
		created_on = created_on ?? time::now(),
		updated_on = time::now()
`

// UpsertTx appends one contribution write to a reconciliation batch.
// Re-synchronizing the same key only overwrites amount, never duplicates
// the row.
func (r *ParticipationRepository) UpsertTx(tb *database.TxBuilder, p model.Participation) {
	tb.Add(upsertParticipationQuery, participationVars(p))
}

func participationVars(p model.Participation) map[string]interface{} {
	return map[string]interface{}{
		"year":      p.Year,
		"week":      p.Week,
		"guild_id":  p.GuildID,
		"player_id": p.PlayerID,
		"amount":    p.Amount,
	}
}

// HasConflicting reports whether any guild other than excludeGuildID holds a
// participation record for this player and event with amount >= candidate.
func (r *ParticipationRepository) HasConflicting(ctx context.Context, playerID, excludeGuildID int64, year, week int, candidate int64) (bool, error) {
	query := `
		SELECT count() AS count FROM participation
		WHERE player_id = $player_id
			AND year = $year
			AND week = $week
			AND guild_id != $exclude_guild_id
			AND amount >= $candidate
		GROUP ALL
	`
	result, err := r.db.QueryOne(ctx, query, map[string]interface{}{
		"player_id":        playerID,
		"exclude_guild_id": excludeGuildID,
		"year":             year,
		"week":             week,
		"candidate":        candidate,
	})
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return extractCount(result) > 0, nil
}

// AggregateForGuildWeek returns the stored roster aggregate for one guild
// and event week, or nil if no records exist.
func (r *ParticipationRepository) AggregateForGuildWeek(ctx context.Context, guildID int64, year, week int) (*model.ParticipationAggregate, error) {
	query := `
		SELECT
			math::sum(amount) AS total,
			math::mean(amount) AS mean,
			math::median(amount) AS median,
			count() AS count
		FROM participation
		WHERE guild_id = $guild_id AND year = $year AND week = $week
		GROUP ALL
	`
	result, err := r.db.QueryOne(ctx, query, map[string]interface{}{
		"guild_id": guildID,
		"year":     year,
		"week":     week,
	})
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
	return &model.ParticipationAggregate{
		Total:  getInt64(row, "total"),
		Mean:   getFloat(row, "mean"),
		Median: getFloat(row, "median"),
		Count:  getInt(row, "count"),
	}, nil
}

// ListForGuildWeek returns all contribution records of one guild and event
// week, highest amount first. With nonzeroOnly set, zero-amount rows are
// filtered out.
func (r *ParticipationRepository) ListForGuildWeek(ctx context.Context, guildID int64, year, week int, nonzeroOnly bool) ([]model.Participation, error) {
	query := `
		SELECT * FROM participation
		WHERE guild_id = $guild_id AND year = $year AND week = $week
		ORDER BY amount DESC
	`
	if nonzeroOnly {
		query = `
			SELECT * FROM participation
			WHERE guild_id = $guild_id AND year = $year AND week = $week AND amount > 0
			ORDER BY amount DESC
		`
	}

	results, err := r.db.Query(ctx, query, map[string]interface{}{
		"guild_id": guildID,
		"year":     year,
		"week":     week,
	})
	if err != nil {
		return nil, err
	}
	return parseParticipations(results), nil
}

// ListForPlayer returns a player's contribution history, newest event first.
// With guildIDs set, only records from those guilds are returned (used to
// scope to the current guild).
func (r *ParticipationRepository) ListForPlayer(ctx context.Context, playerID int64, nonzeroOnly bool, guildIDs []int64) ([]model.Participation, error) {
	query := `SELECT * FROM participation WHERE player_id = $player_id`
	vars := map[string]interface{}{"player_id": playerID}
	if nonzeroOnly {
		query += ` AND amount > 0`
	}
	if len(guildIDs) > 0 {
		query += ` AND guild_id INSIDE $guild_ids`
		vars["guild_ids"] = guildIDs
	}
	query += ` ORDER BY year DESC, week DESC`

	results, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}
	return parseParticipations(results), nil
}

// TotalsForPlayer returns sum/mean/median over a player's history.
func (r *ParticipationRepository) TotalsForPlayer(ctx context.Context, playerID int64, nonzeroOnly bool) (*model.PlayerTotals, error) {
	query := `
		SELECT
			math::sum(amount) AS total,
			math::mean(amount) AS mean,
			math::median(amount) AS median,
			count() AS count
		FROM participation
		WHERE player_id = $player_id
	`
	if nonzeroOnly {
		query += ` AND amount > 0`
	}
	query += ` GROUP ALL`

	result, err := r.db.QueryOne(ctx, query, map[string]interface{}{"player_id": playerID})
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return &model.PlayerTotals{PlayerID: playerID}, nil
		}
		return nil, err
	}

	row, ok := rowFromResult(result)
	if !ok {
		return &model.PlayerTotals{PlayerID: playerID}, nil
	}
	return &model.PlayerTotals{
		PlayerID: playerID,
		Total:    getInt64(row, "total"),
		Mean:     getFloat(row, "mean"),
		Median:   getFloat(row, "median"),
		Events:   getInt(row, "count"),
	}, nil
}

// PurgeGuildWeek removes all participation records of one guild and event
// week. Administrative use only.
func (r *ParticipationRepository) PurgeGuildWeek(ctx context.Context, guildID int64, year, week int) (int, error) {
	query := `
		DELETE participation
		WHERE guild_id = $guild_id AND year = $year AND week = $week
		RETURN BEFORE
	`
	results, err := r.db.Query(ctx, query, map[string]interface{}{
		"guild_id": guildID,
		"year":     year,
		"week":     week,
	})
	if err != nil {
		return 0, err
	}
	return len(rowsFromResults(results)), nil
}

func parseParticipations(results []interface{}) []model.Participation {
	rows := rowsFromResults(results)
	participations := make([]model.Participation, 0, len(rows))
	for _, row := range rows {
		participations = append(participations, parseParticipation(row))
	}
	return participations
}

func parseParticipation(row map[string]interface{}) model.Participation {
	return model.Participation{
		Year:     getInt(row, "year"),
		Week:     getInt(row, "week"),
		GuildID:  getInt64(row, "guild_id"),
		PlayerID: getInt64(row, "player_id"),
		Amount:   getInt64(row, "amount"),
	}
}
