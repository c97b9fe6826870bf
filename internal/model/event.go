package model

// EventWeek is one weekly scoring period, keyed by (year, week) under the
// Thursday-08:00 calendar rule. Created lazily, immutable afterwards.
type EventWeek struct {
	Year int `json:"year"`
	Week int `json:"week"`
}

// Participation is one player's recorded contribution for one guild within
// one event week. The (year, week, guild, player) tuple is the storage key;
// re-synchronizing overwrites Amount and never duplicates the row.
type Participation struct {
	Year     int   `json:"year"`
	Week     int   `json:"week"`
	GuildID  int64 `json:"guild_id"`
	PlayerID int64 `json:"player_id"`
	Amount   int64 `json:"amount"`
}

// ParticipationAggregate holds the roster-wide contribution statistics for
// one guild and event week.
type ParticipationAggregate struct {
	Total  int64   `json:"total"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Count  int     `json:"count"`
}

// PlayerTotals summarizes a player's contribution history.
type PlayerTotals struct {
	PlayerID int64   `json:"player_id"`
	Total    int64   `json:"total"`
	Mean     float64 `json:"mean"`
	Median   float64 `json:"median"`
	Events   int     `json:"events"`
}

// LeaderboardEntry is one row of a guild leaderboard.
type LeaderboardEntry struct {
	PlayerID int64  `json:"player_id"`
	Name     string `json:"name"`
	Level    int    `json:"level"`
	Amount   int64  `json:"amount"`
}
