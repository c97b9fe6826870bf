package service

import (
	"context"
	"fmt"

	"github.com/matesxs/deeptown-event-tracker/internal/model"
)

// CleanupGuildStore is the guild access cleanup needs.
type CleanupGuildStore interface {
	ListIDs(ctx context.Context, activeOnly bool) ([]int64, error)
	ListAbsentIDs(ctx context.Context, upstreamIDs []int64) ([]int64, error)
	Delete(ctx context.Context, id int64) error
}

// CleanupPlayerStore is the player access cleanup needs.
type CleanupPlayerStore interface {
	DeleteOrphans(ctx context.Context) (int, error)
}

// GuildLister provides the full upstream guild listing.
type GuildLister interface {
	ListAllGuildIDs(ctx context.Context) ([]int64, error)
}

// CleanupReport summarizes one cleanup pass.
type CleanupReport struct {
	RemovedGuilds  int `json:"removed_guilds"`
	RemovedPlayers int `json:"removed_players"`
}

// CleanupService prunes state that no longer corresponds to anything that
// should be tracked. Guilds missing from the full upstream listing and
// blacklisted guilds are removed together with their membership rows
// (participation history keeps its own table and survives), then players
// left without a membership anywhere are deleted.
type CleanupService struct {
	guilds    CleanupGuildStore
	players   CleanupPlayerStore
	blacklist ReconcileBlacklistStore
	lister    GuildLister
}

// NewCleanupService creates a new cleanup service
func NewCleanupService(guilds CleanupGuildStore, players CleanupPlayerStore, blacklist ReconcileBlacklistStore, lister GuildLister) *CleanupService {
	return &CleanupService{guilds: guilds, players: players, blacklist: blacklist, lister: lister}
}

// Run performs one cleanup pass.
func (s *CleanupService) Run(ctx context.Context) (*CleanupReport, error) {
	report := &CleanupReport{}

	upstreamIDs, err := s.lister.ListAllGuildIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list upstream guilds: %w", err)
	}

	var doomed []int64
	seen := make(map[int64]struct{})

	// An empty listing is far more likely an upstream hiccup than every
	// guild in the game disbanding at once.
	if len(upstreamIDs) > 0 {
		absent, err := s.guilds.ListAbsentIDs(ctx, upstreamIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to find absent guilds: %w", err)
		}
		for _, id := range absent {
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				doomed = append(doomed, id)
			}
		}
	}

	// Blacklisted guilds go too, even while still listed upstream. Sync
	// skips them, so whatever is stored for them only goes stale.
	tracked, err := s.guilds.ListIDs(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("failed to list tracked guilds: %w", err)
	}
	for _, id := range tracked {
		if _, ok := seen[id]; ok {
			continue
		}
		blocked, err := s.blacklist.IsBlacklisted(ctx, model.BlacklistGuild, id)
		if err != nil {
			return nil, fmt.Errorf("failed to check guild blacklist: %w", err)
		}
		if blocked {
			seen[id] = struct{}{}
			doomed = append(doomed, id)
		}
	}

	for _, id := range doomed {
		if err := s.guilds.Delete(ctx, id); err != nil {
			return nil, fmt.Errorf("failed to remove guild %d: %w", id, err)
		}
		report.RemovedGuilds++
	}

	removed, err := s.players.DeleteOrphans(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to remove orphan players: %w", err)
	}
	report.RemovedPlayers = removed

	return report, nil
}
