package service

import (
	"context"
	"fmt"
	"time"

	"github.com/matesxs/deeptown-event-tracker/internal/model"
)

// activePlayerWindow is how far back a player's last_online may be for the
// player to count as active in the daily rollup.
const activePlayerWindow = 7 * 24 * time.Hour

// StatsGuildCounter is the guild access the snapshotter needs.
type StatsGuildCounter interface {
	Count(ctx context.Context, activeOnly bool) (int, error)
}

// StatsPlayerCounter is the player access the snapshotter needs.
type StatsPlayerCounter interface {
	Count(ctx context.Context, activeSince *time.Time) (int, error)
}

// StatsStore is the rollup storage the snapshotter needs.
type StatsStore interface {
	UpsertDaily(ctx context.Context, s model.DailyStatistics) error
	ListRecent(ctx context.Context, days int) ([]model.DailyStatistics, error)
}

// StatisticsService computes the per-date tracker rollup. One row exists
// per calendar date; running the snapshot twice on the same day overwrites
// that day's row.
type StatisticsService struct {
	guilds  StatsGuildCounter
	players StatsPlayerCounter
	store   StatsStore

	now func() time.Time
}

// NewStatisticsService creates a new statistics service
func NewStatisticsService(guilds StatsGuildCounter, players StatsPlayerCounter, store StatsStore) *StatisticsService {
	return &StatisticsService{
		guilds:  guilds,
		players: players,
		store:   store,
		now:     time.Now,
	}
}

// SnapshotToday computes and stores the rollup for the current UTC date.
func (s *StatisticsService) SnapshotToday(ctx context.Context) (*model.DailyStatistics, error) {
	now := s.now().UTC()

	totalGuilds, err := s.guilds.Count(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("failed to count guilds: %w", err)
	}
	activeGuilds, err := s.guilds.Count(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("failed to count active guilds: %w", err)
	}

	totalPlayers, err := s.players.Count(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to count players: %w", err)
	}
	since := now.Add(-activePlayerWindow)
	activePlayers, err := s.players.Count(ctx, &since)
	if err != nil {
		return nil, fmt.Errorf("failed to count active players: %w", err)
	}

	stats := model.DailyStatistics{
		Date:          now.Format(time.DateOnly),
		ActiveGuilds:  activeGuilds,
		TotalGuilds:   totalGuilds,
		ActivePlayers: activePlayers,
		TotalPlayers:  totalPlayers,
		ComputedOn:    now,
	}
	if err := s.store.UpsertDaily(ctx, stats); err != nil {
		return nil, fmt.Errorf("failed to store daily statistics: %w", err)
	}
	return &stats, nil
}

// RecentDaily returns the newest rollups, most recent first.
func (s *StatisticsService) RecentDaily(ctx context.Context, days int) ([]model.DailyStatistics, error) {
	if days <= 0 || days > 365 {
		days = 30
	}
	return s.store.ListRecent(ctx, days)
}
