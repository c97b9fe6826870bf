package model

import "time"

// Guild represents a tracked in-game guild. The ID is the guild's numeric
// identifier on the upstream stats API, not a chat-platform server.
type Guild struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Level     int       `json:"level"`
	Active    bool      `json:"active"`
	CreatedOn time.Time `json:"created_on"`
	UpdatedOn time.Time `json:"updated_on"`
}

// Player represents a tracked game account.
type Player struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Level      int       `json:"level"`
	Depth      int       `json:"depth"`
	LastOnline time.Time `json:"last_online"`

	// Building counters reported by the upstream API.
	Mines       int `json:"mines"`
	Crafters    int `json:"crafters"`
	Smelters    int `json:"smelters"`
	Greenhouses int `json:"greenhouses"`
	Chemistries int `json:"chemistries"`

	CreatedOn time.Time `json:"created_on"`
	UpdatedOn time.Time `json:"updated_on"`
}

// Membership records a player's current guild. A player has at most one
// membership at any time; the storage key is the player id, so writing a
// membership for a player replaces their previous guild.
type Membership struct {
	PlayerID int64     `json:"player_id"`
	GuildID  int64     `json:"guild_id"`
	Since    time.Time `json:"since"`
}

// BlacklistKind discriminates blacklist entries.
type BlacklistKind string

const (
	BlacklistGuild  BlacklistKind = "guild"
	BlacklistPlayer BlacklistKind = "player"
)
