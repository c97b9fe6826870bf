package model

import "time"

// DailyStatistics is one per-date rollup of tracker state. At most one row
// exists per calendar date; recomputation updates the existing row.
type DailyStatistics struct {
	Date          string    `json:"date"` // YYYY-MM-DD
	ActiveGuilds  int       `json:"active_guilds"`
	TotalGuilds   int       `json:"total_guilds"`
	ActivePlayers int       `json:"active_players"`
	TotalPlayers  int       `json:"total_players"`
	ComputedOn    time.Time `json:"computed_on"`
}
