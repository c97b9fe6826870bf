package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/matesxs/deeptown-event-tracker/internal/model"
	"github.com/matesxs/deeptown-event-tracker/pkg/eventweek"
)

// Leaderboard orderings.
const (
	LeaderboardByAmount = "amount"
	LeaderboardByLevel  = "level"
)

// ReportGuildStore is the guild access reporting needs.
type ReportGuildStore interface {
	GetByID(ctx context.Context, id int64) (*model.Guild, error)
	List(ctx context.Context) ([]*model.Guild, error)
}

// ReportPlayerStore is the player access reporting needs.
type ReportPlayerStore interface {
	GetByID(ctx context.Context, id int64) (*model.Player, error)
	ListByIDs(ctx context.Context, ids []int64) ([]*model.Player, error)
}

// ReportMembershipStore is the membership access reporting needs.
type ReportMembershipStore interface {
	GetByPlayer(ctx context.Context, playerID int64) (*model.Membership, error)
	ListByGuild(ctx context.Context, guildID int64) ([]*model.Membership, error)
}

// ReportEventWeekStore is the event week access reporting needs.
type ReportEventWeekStore interface {
	List(ctx context.Context) ([]model.EventWeek, error)
}

// ReportParticipationStore is the participation access reporting needs.
type ReportParticipationStore interface {
	ListForGuildWeek(ctx context.Context, guildID int64, year, week int, nonzeroOnly bool) ([]model.Participation, error)
	AggregateForGuildWeek(ctx context.Context, guildID int64, year, week int) (*model.ParticipationAggregate, error)
	ListForPlayer(ctx context.Context, playerID int64, nonzeroOnly bool, guildIDs []int64) ([]model.Participation, error)
	TotalsForPlayer(ctx context.Context, playerID int64, nonzeroOnly bool) (*model.PlayerTotals, error)
}

// GuildParticipationReport is one guild's standing for one event week.
type GuildParticipationReport struct {
	Guild     *model.Guild                  `json:"guild"`
	Week      eventweek.ID                  `json:"week"`
	Aggregate *model.ParticipationAggregate `json:"aggregate,omitempty"`
	Entries   []model.LeaderboardEntry      `json:"entries"`
}

// GuildMemberEntry is one roster member in a guild members report.
type GuildMemberEntry struct {
	PlayerID int64     `json:"player_id"`
	Name     string    `json:"name"`
	Level    int       `json:"level"`
	Since    time.Time `json:"since"`
}

// GuildMembersReport is a guild's current roster.
type GuildMembersReport struct {
	Guild   *model.Guild       `json:"guild"`
	Members []GuildMemberEntry `json:"members"`
}

// PlayerParticipationReport is one player's contribution history.
type PlayerParticipationReport struct {
	Player     *model.Player         `json:"player"`
	Membership *model.Membership     `json:"membership,omitempty"`
	Totals     *model.PlayerTotals   `json:"totals"`
	History    []model.Participation `json:"history"`
}

// ReportService answers read-only participation queries.
type ReportService struct {
	guilds         ReportGuildStore
	players        ReportPlayerStore
	memberships    ReportMembershipStore
	participations ReportParticipationStore
	eventWeeks     ReportEventWeekStore

	now func() time.Time
}

// NewReportService creates a new report service
func NewReportService(guilds ReportGuildStore, players ReportPlayerStore, memberships ReportMembershipStore, participations ReportParticipationStore, eventWeeks ReportEventWeekStore) *ReportService {
	return &ReportService{
		guilds:         guilds,
		players:        players,
		memberships:    memberships,
		participations: participations,
		eventWeeks:     eventWeeks,
		now:            time.Now,
	}
}

// ListGuilds returns all tracked guilds.
func (s *ReportService) ListGuilds(ctx context.Context) ([]*model.Guild, error) {
	guilds, err := s.guilds.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list guilds: %w", err)
	}
	return guilds, nil
}

// EventWeeks returns all event weeks with recorded data, newest first.
func (s *ReportService) EventWeeks(ctx context.Context) ([]model.EventWeek, error) {
	weeks, err := s.eventWeeks.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list event weeks: %w", err)
	}
	return weeks, nil
}

// GuildMembers returns a guild's current roster with player details.
func (s *ReportService) GuildMembers(ctx context.Context, guildID int64) (*GuildMembersReport, error) {
	guild, err := s.guilds.GetByID(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to load guild: %w", err)
	}
	if guild == nil {
		return nil, ErrGuildNotFound
	}

	memberships, err := s.memberships.ListByGuild(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to load memberships: %w", err)
	}

	ids := make([]int64, 0, len(memberships))
	for _, m := range memberships {
		ids = append(ids, m.PlayerID)
	}
	byID := make(map[int64]*model.Player, len(ids))
	if len(ids) > 0 {
		players, err := s.players.ListByIDs(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("failed to load players: %w", err)
		}
		for _, p := range players {
			byID[p.ID] = p
		}
	}

	members := make([]GuildMemberEntry, 0, len(memberships))
	for _, m := range memberships {
		entry := GuildMemberEntry{PlayerID: m.PlayerID, Since: m.Since}
		if p, ok := byID[m.PlayerID]; ok {
			entry.Name = p.Name
			entry.Level = p.Level
		}
		members = append(members, entry)
	}

	return &GuildMembersReport{Guild: guild, Members: members}, nil
}

// GuildParticipation returns a guild's contribution records and aggregate
// for one event week. A nil week means the current one.
func (s *ReportService) GuildParticipation(ctx context.Context, guildID int64, week *eventweek.ID, nonzeroOnly bool) (*GuildParticipationReport, error) {
	guild, err := s.guilds.GetByID(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to load guild: %w", err)
	}
	if guild == nil {
		return nil, ErrGuildNotFound
	}

	w := s.resolveWeek(week)
	entries, err := s.guildEntries(ctx, guildID, w, nonzeroOnly)
	if err != nil {
		return nil, err
	}
	aggregate, err := s.participations.AggregateForGuildWeek(ctx, guildID, w.Year, w.Week)
	if err != nil {
		return nil, fmt.Errorf("failed to load aggregate: %w", err)
	}

	return &GuildParticipationReport{
		Guild:     guild,
		Week:      w,
		Aggregate: aggregate,
		Entries:   entries,
	}, nil
}

// Leaderboard returns a guild's event week roster ordered by contribution
// amount or by player level.
func (s *ReportService) Leaderboard(ctx context.Context, guildID int64, week *eventweek.ID, orderBy string) (*GuildParticipationReport, error) {
	report, err := s.GuildParticipation(ctx, guildID, week, false)
	if err != nil {
		return nil, err
	}

	if orderBy == LeaderboardByLevel {
		sort.SliceStable(report.Entries, func(i, j int) bool {
			return report.Entries[i].Level > report.Entries[j].Level
		})
	}
	return report, nil
}

// PlayerParticipation returns a player's history and lifetime totals. With
// currentGuildOnly set, only records from the player's current guild are
// included.
func (s *ReportService) PlayerParticipation(ctx context.Context, playerID int64, currentGuildOnly, nonzeroOnly bool) (*PlayerParticipationReport, error) {
	player, err := s.players.GetByID(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load player: %w", err)
	}
	if player == nil {
		return nil, ErrPlayerNotFound
	}

	membership, err := s.memberships.GetByPlayer(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load membership: %w", err)
	}

	var scope []int64
	if currentGuildOnly {
		if membership == nil {
			return &PlayerParticipationReport{
				Player:  player,
				Totals:  &model.PlayerTotals{PlayerID: playerID},
				History: []model.Participation{},
			}, nil
		}
		scope = []int64{membership.GuildID}
	}

	history, err := s.participations.ListForPlayer(ctx, playerID, nonzeroOnly, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to load participation history: %w", err)
	}
	totals, err := s.participations.TotalsForPlayer(ctx, playerID, nonzeroOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to load totals: %w", err)
	}

	return &PlayerParticipationReport{
		Player:     player,
		Membership: membership,
		Totals:     totals,
		History:    history,
	}, nil
}

func (s *ReportService) guildEntries(ctx context.Context, guildID int64, w eventweek.ID, nonzeroOnly bool) ([]model.LeaderboardEntry, error) {
	records, err := s.participations.ListForGuildWeek(ctx, guildID, w.Year, w.Week, nonzeroOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to load participation records: %w", err)
	}

	ids := make([]int64, 0, len(records))
	for _, rec := range records {
		ids = append(ids, rec.PlayerID)
	}
	byID := make(map[int64]*model.Player, len(ids))
	if len(ids) > 0 {
		players, err := s.players.ListByIDs(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("failed to load players: %w", err)
		}
		for _, p := range players {
			byID[p.ID] = p
		}
	}

	entries := make([]model.LeaderboardEntry, 0, len(records))
	for _, rec := range records {
		entry := model.LeaderboardEntry{PlayerID: rec.PlayerID, Amount: rec.Amount}
		if p, ok := byID[rec.PlayerID]; ok {
			entry.Name = p.Name
			entry.Level = p.Level
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (s *ReportService) resolveWeek(week *eventweek.ID) eventweek.ID {
	if week != nil {
		return *week
	}
	return eventweek.Index(s.now())
}
