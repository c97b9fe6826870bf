package service

import (
	"context"
	"fmt"

	"github.com/matesxs/deeptown-event-tracker/internal/model"
	"github.com/matesxs/deeptown-event-tracker/pkg/eventweek"
)

// AdminBlacklistStore is the exclusion list access admin operations need.
type AdminBlacklistStore interface {
	Add(ctx context.Context, kind model.BlacklistKind, id int64) error
	Remove(ctx context.Context, kind model.BlacklistKind, id int64) error
}

// AdminParticipationStore is the participation access admin operations need.
type AdminParticipationStore interface {
	PurgeGuildWeek(ctx context.Context, guildID int64, year, week int) (int, error)
}

// AdminGuildStore is the guild access admin operations need.
type AdminGuildStore interface {
	Delete(ctx context.Context, id int64) error
}

// AdminService carries the token-guarded maintenance operations: managing
// the exclusion list and purging bad participation data. Blacklisting does
// not delete existing records; it only stops future syncs from writing new
// ones.
type AdminService struct {
	blacklist      AdminBlacklistStore
	participations AdminParticipationStore
	guilds         AdminGuildStore
}

// NewAdminService creates a new admin service
func NewAdminService(blacklist AdminBlacklistStore, participations AdminParticipationStore, guilds AdminGuildStore) *AdminService {
	return &AdminService{blacklist: blacklist, participations: participations, guilds: guilds}
}

// Blacklist adds a guild or player to the exclusion list.
func (s *AdminService) Blacklist(ctx context.Context, kind string, id int64) error {
	k, err := parseBlacklistKind(kind)
	if err != nil {
		return err
	}
	if err := s.blacklist.Add(ctx, k, id); err != nil {
		return fmt.Errorf("failed to add blacklist entry: %w", err)
	}
	return nil
}

// Unblacklist removes a guild or player from the exclusion list. Removing
// an absent entry is not an error.
func (s *AdminService) Unblacklist(ctx context.Context, kind string, id int64) error {
	k, err := parseBlacklistKind(kind)
	if err != nil {
		return err
	}
	if err := s.blacklist.Remove(ctx, k, id); err != nil {
		return fmt.Errorf("failed to remove blacklist entry: %w", err)
	}
	return nil
}

// PurgeParticipation deletes all contribution records of one guild and
// event week and returns how many were removed. Used to clear data written
// before a guild was blacklisted or from a bad import.
func (s *AdminService) PurgeParticipation(ctx context.Context, guildID int64, week eventweek.ID) (int, error) {
	removed, err := s.participations.PurgeGuildWeek(ctx, guildID, week.Year, week.Week)
	if err != nil {
		return 0, fmt.Errorf("failed to purge participation records: %w", err)
	}
	return removed, nil
}

// DeleteGuild removes a guild and its membership rows. Participation
// history stays until purged explicitly. Deleting an unknown guild is not
// an error.
func (s *AdminService) DeleteGuild(ctx context.Context, guildID int64) error {
	if err := s.guilds.Delete(ctx, guildID); err != nil {
		return fmt.Errorf("failed to delete guild: %w", err)
	}
	return nil
}

func parseBlacklistKind(kind string) (model.BlacklistKind, error) {
	switch kind {
	case string(model.BlacklistGuild):
		return model.BlacklistGuild, nil
	case string(model.BlacklistPlayer):
		return model.BlacklistPlayer, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidBlacklistKind, kind)
	}
}
