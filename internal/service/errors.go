package service

import "errors"

// Centralized service layer errors.
// All errors returned by service methods are defined here for consistency
// and to make error handling in handlers predictable.

var (
	ErrGuildNotFound  = errors.New("guild not found")
	ErrPlayerNotFound = errors.New("player not found")

	// ErrSyncAlreadyRunning is returned when a manual sync is requested
	// while another run is in flight. Runs are strictly sequential.
	ErrSyncAlreadyRunning = errors.New("a sync run is already in progress")

	// ErrSyncRunNotFound is returned when querying an unknown run id.
	ErrSyncRunNotFound = errors.New("sync run not found")

	// ErrInvalidImportRow is returned for CSV rows that cannot be parsed.
	ErrInvalidImportRow = errors.New("invalid import row")

	// ErrNoEventWeek is returned when an import row carries neither a
	// (year, week) pair nor a date to derive one from.
	ErrNoEventWeek = errors.New("no event week given")

	// ErrInvalidBlacklistKind is returned for blacklist kinds other than
	// "guild" or "player".
	ErrInvalidBlacklistKind = errors.New("invalid blacklist kind")
)
