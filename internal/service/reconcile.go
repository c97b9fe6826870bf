package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/matesxs/deeptown-event-tracker/internal/database"
	"github.com/matesxs/deeptown-event-tracker/internal/model"
	"github.com/matesxs/deeptown-event-tracker/pkg/eventweek"
)

// ReconcileGuildStore is the guild access reconciliation needs.
type ReconcileGuildStore interface {
	UpsertTx(tb *database.TxBuilder, id int64, name string, level int, active bool)
}

// ReconcilePlayerStore is the player access reconciliation needs.
type ReconcilePlayerStore interface {
	UpsertTx(tb *database.TxBuilder, m model.SnapshotMember)
}

// ReconcileMembershipStore is the membership access reconciliation needs.
type ReconcileMembershipStore interface {
	GetByPlayer(ctx context.Context, playerID int64) (*model.Membership, error)
	SetCurrentTx(tb *database.TxBuilder, playerID, guildID int64)
	RemoveStaleTx(tb *database.TxBuilder, guildID int64, keepIDs []int64)
}

// ReconcileEventWeekStore is the event week access reconciliation needs.
type ReconcileEventWeekStore interface {
	EnsureTx(tb *database.TxBuilder, year, week int)
}

// ReconcileParticipationStore is the participation access reconciliation needs.
type ReconcileParticipationStore interface {
	UpsertTx(tb *database.TxBuilder, p model.Participation)
	AggregateForGuildWeek(ctx context.Context, guildID int64, year, week int) (*model.ParticipationAggregate, error)
}

// ReconcileBlacklistStore is the exclusion lookup reconciliation needs.
type ReconcileBlacklistStore interface {
	IsBlacklisted(ctx context.Context, kind model.BlacklistKind, id int64) (bool, error)
}

// MembershipConflictChecker decides whether a roster entry may establish a
// new membership or is already credited elsewhere for the event.
type MembershipConflictChecker interface {
	HasConflictingParticipation(ctx context.Context, playerID, excludeGuildID int64, year, week int, candidate int64) (bool, error)
}

// ReconcileResult summarizes what applying one snapshot did.
type ReconcileResult struct {
	GuildID          int64                 `json:"guild_id"`
	Week             eventweek.ID          `json:"week"`
	GuildBlacklisted bool                  `json:"guild_blacklisted"`
	Stable           bool                  `json:"stable"`
	Accepted         int                   `json:"accepted"`
	SkippedExcluded  []int64               `json:"skipped_excluded,omitempty"`
	SkippedConflicts []int64               `json:"skipped_conflicts,omitempty"`
	Written          []model.Participation `json:"-"`
}

// ReconciliationService turns a fetched guild snapshot into stored state.
// All writes for one snapshot go through a single transaction, so a guild is
// either fully reconciled or untouched.
type ReconciliationService struct {
	db             database.Database
	guilds         ReconcileGuildStore
	players        ReconcilePlayerStore
	memberships    ReconcileMembershipStore
	weeks          ReconcileEventWeekStore
	participations ReconcileParticipationStore
	blacklist      ReconcileBlacklistStore
	conflicts      MembershipConflictChecker
}

// NewReconciliationService creates a new reconciliation service
func NewReconciliationService(
	db database.Database,
	guilds ReconcileGuildStore,
	players ReconcilePlayerStore,
	memberships ReconcileMembershipStore,
	weeks ReconcileEventWeekStore,
	participations ReconcileParticipationStore,
	blacklist ReconcileBlacklistStore,
	conflicts MembershipConflictChecker,
) *ReconciliationService {
	return &ReconciliationService{
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

// ApplySnapshot reconciles one guild snapshot into the given event week.
//
// Roster entries are filtered first: blacklisted players are skipped, and a
// player who would be joining this guild (no membership yet, or membership
// in another guild) is skipped when another guild already holds an equal or
// higher amount for the event. The surviving entries are written in one
// batch: guild and player upserts, membership moves, removal of memberships
// no longer on the roster, and one participation row per player.
//
// When the roster's contribution figures match the previous event week's
// stored aggregate, the upstream is still serving last event's data and the
// new event is recorded with zero amounts.
func (s *ReconciliationService) ApplySnapshot(ctx context.Context, snapshot *model.GuildSnapshot, week eventweek.ID) (*ReconcileResult, error) {
	result := &ReconcileResult{GuildID: snapshot.GuildID, Week: week}

	blocked, err := s.blacklist.IsBlacklisted(ctx, model.BlacklistGuild, snapshot.GuildID)
	if err != nil {
		return nil, fmt.Errorf("failed to check guild blacklist: %w", err)
	}
	if blocked {
		result.GuildBlacklisted = true
		return result, nil
	}

	accepted, err := s.filterRoster(ctx, snapshot, week, result)
	if err != nil {
		return nil, err
	}

	stable, err := s.isStaleRoster(ctx, snapshot.GuildID, week, accepted)
	if err != nil {
		return nil, err
	}
	result.Stable = stable

	tb := database.NewTxBuilder()
	s.guilds.UpsertTx(tb, snapshot.GuildID, snapshot.Name, snapshot.Level, true)
	s.weeks.EnsureTx(tb, week.Year, week.Week)

	keepIDs := make([]int64, 0, len(accepted))
	for _, m := range accepted {
		keepIDs = append(keepIDs, m.PlayerID)

		s.players.UpsertTx(tb, m)
		s.memberships.SetCurrentTx(tb, m.PlayerID, snapshot.GuildID)

		amount := m.Contribution
		if stable {
			amount = 0
		}
		p := model.Participation{
			Year:     week.Year,
			Week:     week.Week,
			GuildID:  snapshot.GuildID,
			PlayerID: m.PlayerID,
			Amount:   amount,
		}
		s.participations.UpsertTx(tb, p)
		result.Written = append(result.Written, p)
	}
	s.memberships.RemoveStaleTx(tb, snapshot.GuildID, keepIDs)

	if err := database.ExecuteTransaction(ctx, s.db, tb); err != nil {
		return nil, fmt.Errorf("failed to apply guild snapshot: %w", err)
	}

	result.Accepted = len(accepted)
	return result, nil
}

// filterRoster drops blacklisted players and roster entries whose credit
// for the event already belongs to another guild.
func (s *ReconciliationService) filterRoster(ctx context.Context, snapshot *model.GuildSnapshot, week eventweek.ID, result *ReconcileResult) ([]model.SnapshotMember, error) {
	accepted := make([]model.SnapshotMember, 0, len(snapshot.Members))
	for _, m := range snapshot.Members {
		blocked, err := s.blacklist.IsBlacklisted(ctx, model.BlacklistPlayer, m.PlayerID)
		if err != nil {
			return nil, fmt.Errorf("failed to check player blacklist: %w", err)
		}
		if blocked {
			result.SkippedExcluded = append(result.SkippedExcluded, m.PlayerID)
			continue
		}

		membership, err := s.memberships.GetByPlayer(ctx, m.PlayerID)
		if err != nil {
			return nil, fmt.Errorf("failed to load membership: %w", err)
		}
		if membership == nil || membership.GuildID != snapshot.GuildID {
			// Joining this guild. Refuse if the event's credit is
			// already held by another guild.
			conflict, err := s.conflicts.HasConflictingParticipation(ctx, m.PlayerID, snapshot.GuildID, week.Year, week.Week, m.Contribution)
			if err != nil {
				return nil, fmt.Errorf("failed to check participation conflict: %w", err)
			}
			if conflict {
				result.SkippedConflicts = append(result.SkippedConflicts, m.PlayerID)
				continue
			}
		}

		accepted = append(accepted, m)
	}
	return accepted, nil
}

// isStaleRoster reports whether the snapshot's contribution figures are a
// leftover of the previous event. The upstream keeps serving the old event's
// totals for a while after the boundary; if sum, mean, median and member
// count all match what is stored for the previous week, the figures cannot
// belong to the new event yet.
func (s *ReconciliationService) isStaleRoster(ctx context.Context, guildID int64, week eventweek.ID, roster []model.SnapshotMember) (bool, error) {
	if len(roster) == 0 {
		return false, nil
	}

	prev := eventweek.Previous(week)
	stored, err := s.participations.AggregateForGuildWeek(ctx, guildID, prev.Year, prev.Week)
	if err != nil {
		return false, fmt.Errorf("failed to load previous week aggregate: %w", err)
	}
	if stored == nil || stored.Count != len(roster) {
		return false, nil
	}

	total, mean, median := rosterAggregate(roster)
	return total == stored.Total &&
		floatsEqual(mean, stored.Mean) &&
		floatsEqual(median, stored.Median), nil
}

func rosterAggregate(roster []model.SnapshotMember) (total int64, mean, median float64) {
	amounts := make([]int64, 0, len(roster))
	for _, m := range roster {
		amounts = append(amounts, m.Contribution)
		total += m.Contribution
	}
	sort.Slice(amounts, func(i, j int) bool { return amounts[i] < amounts[j] })

	mean = float64(total) / float64(len(amounts))
	mid := len(amounts) / 2
	if len(amounts)%2 == 1 {
		median = float64(amounts[mid])
	} else {
		median = float64(amounts[mid-1]+amounts[mid]) / 2
	}
	return total, mean, median
}

func floatsEqual(a, b float64) bool {
	d := a - b
	return d < 1e-6 && d > -1e-6
}
