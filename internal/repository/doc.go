// Package repository implements data access for the event tracker over the
// database abstraction.
//
// Records are keyed by their upstream numeric identifiers so every write is
// a natural idempotent UPSERT:
//
//	guild:<guild id>
//	player:<player id>
//	membership:<player id>           (one current guild per player)
//	event_week:[year, week]
//	participation:[year, week, guild id, player id]
//	daily_stats:<YYYY-MM-DD>
//	blacklist:[kind, id]
//
// Each record additionally carries its key components as plain fields
// (guild_id, player_id, year, week, ...) so WHERE clauses and aggregates
// never need to take records apart.
//
// Multi-row changes that must apply together (one guild's reconciliation
// pass) are composed through the *Tx methods, which append statements to a
// database.TxBuilder instead of executing directly.
package repository
