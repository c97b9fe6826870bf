// Package model defines domain entities for the Deep Town event tracker.
//
// The model package contains all struct definitions for domain objects and
// the ProblemDetails error envelope. Models are used across all layers.
//
// # Domain Entities
//
//   - Guild: an external game guild polled from the upstream stats API
//   - Player: a tracked game account with building counters
//   - Membership: a player's current guild (single-valued per player)
//   - EventWeek: one weekly scoring period under the Thursday-08:00 rule
//   - Participation: one player's contribution for one guild in one event
//   - DailyStatistics: per-date rollup of guild/player counts
//
// All models use json struct tags for API serialization.
package model
