// Package jobs contains the background loops of the tracker: the periodic
// full sync, the cleanup pass and the daily statistics snapshot. Jobs share
// the same lifecycle shape (Start, Stop, RunOnce) and are wired up in
// cmd/server.
package jobs
