package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/matesxs/deeptown-event-tracker/internal/database"
	"github.com/matesxs/deeptown-event-tracker/internal/model"
	"github.com/matesxs/deeptown-event-tracker/pkg/eventweek"
)

// ImportGuildStore is the guild access the importer needs.
type ImportGuildStore interface {
	EnsureTx(tb *database.TxBuilder, id int64)
}

// ImportPlayerStore is the player access the importer needs.
type ImportPlayerStore interface {
	EnsureTx(tb *database.TxBuilder, id int64)
}

// ImportMembershipStore is the membership access the importer needs.
type ImportMembershipStore interface {
	GetByPlayer(ctx context.Context, playerID int64) (*model.Membership, error)
	SetCurrentTx(tb *database.TxBuilder, playerID, guildID int64)
}

// ImportRowError describes one rejected CSV line.
type ImportRowError struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// ImportReport summarizes one CSV import.
type ImportReport struct {
	Rows             int              `json:"rows"`
	Imported         int              `json:"imported"`
	SkippedExcluded  int              `json:"skipped_excluded"`
	SkippedConflicts int              `json:"skipped_conflicts"`
	Errors           []ImportRowError `json:"errors,omitempty"`
}

// ImportService backfills historical participation records from CSV.
//
// Expected columns: player_id, guild_id, amount, year, week. Year and week
// may be left empty when a sixth date column (RFC 3339 or YYYY-MM-DD) is
// given instead; the event week is then derived from the date. A header
// line is detected and skipped. Imports write participation plus placeholder
// guild/player records, and give a player with no membership anywhere a
// membership in the credited guild so orphan cleanup does not erase them.
// Players already in a guild are never moved by a backfill.
type ImportService struct {
	db             database.Database
	guilds         ImportGuildStore
	players        ImportPlayerStore
	memberships    ImportMembershipStore
	weeks          ReconcileEventWeekStore
	participations ReconcileParticipationStore
	blacklist      ReconcileBlacklistStore
	conflicts      MembershipConflictChecker
}

// NewImportService creates a new import service
func NewImportService(
	db database.Database,
	guilds ImportGuildStore,
	players ImportPlayerStore,
	memberships ImportMembershipStore,
	weeks ReconcileEventWeekStore,
	participations ReconcileParticipationStore,
	blacklist ReconcileBlacklistStore,
	conflicts MembershipConflictChecker,
) *ImportService {
	return &ImportService{
		db:             db,
		guilds:         guilds,
		players:        players,
		memberships:    memberships,
		weeks:          weeks,
		participations: participations,
		blacklist:      blacklist,
		conflicts:      conflicts,
	}
}

// ImportCSV reads and applies the given CSV stream. Bad lines are reported
// and skipped; they do not abort the import.
func (s *ImportService) ImportCSV(ctx context.Context, r io.Reader) (*ImportReport, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	report := &ImportReport{}
	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			report.Errors = append(report.Errors, ImportRowError{Line: line, Reason: err.Error()})
			continue
		}
		if line == 1 && isHeaderRow(record) {
			continue
		}
		report.Rows++

		row, err := parseImportRow(record)
		if err != nil {
			report.Errors = append(report.Errors, ImportRowError{Line: line, Reason: err.Error()})
			continue
		}

		if err := s.applyRow(ctx, row, report); err != nil {
			return nil, fmt.Errorf("failed to apply import row at line %d: %w", line, err)
		}
	}
	return report, nil
}

func (s *ImportService) applyRow(ctx context.Context, row model.Participation, report *ImportReport) error {
	blocked, err := s.blacklist.IsBlacklisted(ctx, model.BlacklistGuild, row.GuildID)
	if err != nil {
		return err
	}
	if !blocked {
		blocked, err = s.blacklist.IsBlacklisted(ctx, model.BlacklistPlayer, row.PlayerID)
		if err != nil {
			return err
		}
	}
	if blocked {
		report.SkippedExcluded++
		return nil
	}

	conflict, err := s.conflicts.HasConflictingParticipation(ctx, row.PlayerID, row.GuildID, row.Year, row.Week, row.Amount)
	if err != nil {
		return err
	}
	if conflict {
		report.SkippedConflicts++
		return nil
	}

	existing, err := s.memberships.GetByPlayer(ctx, row.PlayerID)
	if err != nil {
		return err
	}

	tb := database.NewTxBuilder()
	s.guilds.EnsureTx(tb, row.GuildID)
	s.players.EnsureTx(tb, row.PlayerID)
	if existing == nil {
		s.memberships.SetCurrentTx(tb, row.PlayerID, row.GuildID)
	}
	s.weeks.EnsureTx(tb, row.Year, row.Week)
	s.participations.UpsertTx(tb, row)
	if err := database.ExecuteTransaction(ctx, s.db, tb); err != nil {
		return err
	}

	report.Imported++
	return nil
}

func isHeaderRow(record []string) bool {
	if len(record) == 0 {
		return false
	}
	_, err := strconv.ParseInt(strings.TrimSpace(record[0]), 10, 64)
	return err != nil
}

func parseImportRow(record []string) (model.Participation, error) {
	var p model.Participation
	if len(record) < 5 {
		return p, fmt.Errorf("%w: expected at least 5 columns, got %d", ErrInvalidImportRow, len(record))
	}

	var err error
	if p.PlayerID, err = strconv.ParseInt(strings.TrimSpace(record[0]), 10, 64); err != nil {
		return p, fmt.Errorf("%w: bad player id %q", ErrInvalidImportRow, record[0])
	}
	if p.GuildID, err = strconv.ParseInt(strings.TrimSpace(record[1]), 10, 64); err != nil {
		return p, fmt.Errorf("%w: bad guild id %q", ErrInvalidImportRow, record[1])
	}
	if p.Amount, err = strconv.ParseInt(strings.TrimSpace(record[2]), 10, 64); err != nil {
		return p, fmt.Errorf("%w: bad amount %q", ErrInvalidImportRow, record[2])
	}
	if p.Amount < 0 {
		return p, fmt.Errorf("%w: negative amount %d", ErrInvalidImportRow, p.Amount)
	}

	yearField := strings.TrimSpace(record[3])
	weekField := strings.TrimSpace(record[4])
	switch {
	case yearField != "" && weekField != "":
		if p.Year, err = strconv.Atoi(yearField); err != nil {
			return p, fmt.Errorf("%w: bad year %q", ErrInvalidImportRow, yearField)
		}
		if p.Week, err = strconv.Atoi(weekField); err != nil {
			return p, fmt.Errorf("%w: bad week %q", ErrInvalidImportRow, weekField)
		}
		if p.Week < 1 || p.Week > 53 {
			return p, fmt.Errorf("%w: week %d out of range", ErrInvalidImportRow, p.Week)
		}
	case len(record) >= 6 && strings.TrimSpace(record[5]) != "":
		t, err := parseImportDate(strings.TrimSpace(record[5]))
		if err != nil {
			return p, fmt.Errorf("%w: bad date %q", ErrInvalidImportRow, record[5])
		}
		week := eventweek.Index(t)
		p.Year, p.Week = week.Year, week.Week
	default:
		return p, ErrNoEventWeek
	}

	return p, nil
}

func parseImportDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, s)
}
