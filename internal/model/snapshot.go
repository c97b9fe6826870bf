package model

import "time"

// GuildSnapshot is one fetched roster payload for a guild at a point in
// time, as returned by the upstream stats API.
type GuildSnapshot struct {
	GuildID int64            `json:"id"`
	Name    string           `json:"name"`
	Level   int              `json:"level"`
	Members []SnapshotMember `json:"members"`
}

// SnapshotMember is one roster entry inside a guild snapshot.
type SnapshotMember struct {
	PlayerID     int64     `json:"id"`
	Name         string    `json:"name"`
	Level        int       `json:"level"`
	Depth        int       `json:"depth"`
	LastOnline   time.Time `json:"last_online"`
	Mines        int       `json:"mines"`
	Crafters     int       `json:"crafters"`
	Smelters     int       `json:"smelters"`
	Greenhouses  int       `json:"greenhouses"`
	Chemistries  int       `json:"chemistries"`
	Contribution int64     `json:"event_contribution"`
}

// MemberIDs returns the player ids present in the snapshot roster.
func (s *GuildSnapshot) MemberIDs() []int64 {
	ids := make([]int64, 0, len(s.Members))
	for _, m := range s.Members {
		ids = append(ids, m.PlayerID)
	}
	return ids
}
