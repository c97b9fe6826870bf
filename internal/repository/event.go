package repository

import (
	"context"
	"errors"

	"github.com/matesxs/deeptown-event-tracker/internal/database"
	"github.com/matesxs/deeptown-event-tracker/internal/model"
)

// EventWeekRepository handles event week records. Weeks are created lazily
// the first time an event identifier is needed and never modified after.
type EventWeekRepository struct {
	db database.Database
}

// NewEventWeekRepository creates a new event week repository
func NewEventWeekRepository(db database.Database) *EventWeekRepository {
	return &EventWeekRepository{db: db}
}

const ensureEventWeekQuery = `
	UPSERT type::thing('event_week', [$year, $week]) SET
		year = $year,
		week = $week,
		created_on = created_on ?? time::now()
`

// EnsureTx appends the lazy creation of the (year, week) record to a
// reconciliation batch.
func (r *EventWeekRepository) EnsureTx(tb *database.TxBuilder, year, week int) {
	tb.Add(ensureEventWeekQuery, map[string]interface{}{
		"year": year,
		"week": week,
	})
}

// List returns all known event weeks, newest first.
func (r *EventWeekRepository) List(ctx context.Context) ([]model.EventWeek, error) {
	query := `SELECT year, week FROM event_week ORDER BY year DESC, week DESC`
	results, err := r.db.Query(ctx, query, nil)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	rows := rowsFromResults(results)
	weeks := make([]model.EventWeek, 0, len(rows))
	for _, row := range rows {
		weeks = append(weeks, model.EventWeek{
			Year: getInt(row, "year"),
			Week: getInt(row, "week"),
		})
	}
	return weeks, nil
}
