package repository

import (
	"context"

	"github.com/matesxs/deeptown-event-tracker/internal/database"
	"github.com/matesxs/deeptown-event-tracker/internal/model"
)

// StatisticsRepository handles daily rollup rows. The record is keyed by the
// date string, so recomputing a day updates the existing row.
type StatisticsRepository struct {
	db database.Database
}

// NewStatisticsRepository creates a new statistics repository
func NewStatisticsRepository(db database.Database) *StatisticsRepository {
	return &StatisticsRepository{db: db}
}

// UpsertDaily writes the rollup for one date.
func (r *StatisticsRepository) UpsertDaily(ctx context.Context, s model.DailyStatistics) error {
	query := `
		UPSERT type::thing('daily_stats', $date) SET
			date = $date,
			active_guilds = $active_guilds,
			total_guilds = $total_guilds,
			active_players = $active_players,
			total_players = $total_players,
			computed_on = time::now()
	`
	return r.db.Execute(ctx, query, map[string]interface{}{
		"date":           s.Date,
		"active_guilds":  s.ActiveGuilds,
		"total_guilds":   s.TotalGuilds,
		"active_players": s.ActivePlayers,
		"total_players":  s.TotalPlayers,
	})
}

// ListRecent returns the newest rollups, most recent date first.
func (r *StatisticsRepository) ListRecent(ctx context.Context, days int) ([]model.DailyStatistics, error) {
	query := `SELECT * FROM daily_stats ORDER BY date DESC LIMIT $limit`
	results, err := r.db.Query(ctx, query, map[string]interface{}{"limit": days})
	if err != nil {
		return nil, err
	}

	rows := rowsFromResults(results)
	stats := make([]model.DailyStatistics, 0, len(rows))
	for _, row := range rows {
		stats = append(stats, model.DailyStatistics{
			Date:          getString(row, "date"),
			ActiveGuilds:  getInt(row, "active_guilds"),
			TotalGuilds:   getInt(row, "total_guilds"),
			ActivePlayers: getInt(row, "active_players"),
			TotalPlayers:  getInt(row, "total_players"),
			ComputedOn:    getTime(row, "computed_on"),
		})
	}
	return stats, nil
}
