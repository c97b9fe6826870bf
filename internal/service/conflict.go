package service

import (
	"context"
)

// ConflictParticipationStore is the participation lookup the resolver needs.
type ConflictParticipationStore interface {
	HasConflicting(ctx context.Context, playerID, excludeGuildID int64, year, week int, candidate int64) (bool, error)
}

// ConflictResolver decides whether crediting a player's contribution to a
// guild would double-count an event.
//
// Contribution counters only grow within an event at the source, so when a
// player shows up in two guilds' snapshots for the same event, the guild
// holding the larger observed amount is where they actually contributed.
// The check refuses to move a player to a new guild when another guild
// already holds an equal or higher amount for the event. This is a
// heuristic: it assumes the upstream never resets counters mid-event. If it
// ever does, credit is attributed to whichever guild was seen first.
type ConflictResolver struct {
	participations ConflictParticipationStore
}

// NewConflictResolver creates a new conflict resolver
func NewConflictResolver(participations ConflictParticipationStore) *ConflictResolver {
	return &ConflictResolver{participations: participations}
}

// HasConflictingParticipation reports whether any guild other than
// excludeGuildID already holds an amount >= candidate for this player and
// event. A true result means "credited elsewhere, skip". It gates creation
// of a new membership only, never updates within an established one.
func (r *ConflictResolver) HasConflictingParticipation(ctx context.Context, playerID, excludeGuildID int64, year, week int, candidate int64) (bool, error) {
	return r.participations.HasConflicting(ctx, playerID, excludeGuildID, year, week, candidate)
}
