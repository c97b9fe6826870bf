package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matesxs/deeptown-event-tracker/internal/model"
)

type mockStatsGuilds struct {
	total  int
	active int
}

func (m *mockStatsGuilds) Count(ctx context.Context, activeOnly bool) (int, error) {
	if activeOnly {
		return m.active, nil
	}
	return m.total, nil
}

type mockStatsPlayers struct {
	total     int
	active    int
	lastSince *time.Time
}

func (m *mockStatsPlayers) Count(ctx context.Context, activeSince *time.Time) (int, error) {
	if activeSince != nil {
		m.lastSince = activeSince
		return m.active, nil
	}
	return m.total, nil
}

type mockStatsStore struct {
	upserted []model.DailyStatistics
	recent   []model.DailyStatistics
}

func (m *mockStatsStore) UpsertDaily(ctx context.Context, s model.DailyStatistics) error {
	m.upserted = append(m.upserted, s)
	return nil
}

func (m *mockStatsStore) ListRecent(ctx context.Context, days int) ([]model.DailyStatistics, error) {
	return m.recent, nil
}

func TestSnapshotToday_WritesOneRowForDate(t *testing.T) {
	guilds := &mockStatsGuilds{total: 10, active: 7}
	players := &mockStatsPlayers{total: 250, active: 180}
	store := &mockStatsStore{}

	svc := NewStatisticsService(guilds, players, store)
	fixed := time.Date(2026, 8, 30, 14, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	stats, err := svc.SnapshotToday(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "2026-08-30", stats.Date)
	assert.Equal(t, 10, stats.TotalGuilds)
	assert.Equal(t, 7, stats.ActiveGuilds)
	assert.Equal(t, 250, stats.TotalPlayers)
	assert.Equal(t, 180, stats.ActivePlayers)

	require.Len(t, store.upserted, 1)
	assert.Equal(t, *stats, store.upserted[0])

	// Activity window is seven days back from now
	require.NotNil(t, players.lastSince)
	assert.Equal(t, fixed.Add(-7*24*time.Hour), *players.lastSince)
}

func TestSnapshotToday_RerunSameDateOverwrites(t *testing.T) {
	guilds := &mockStatsGuilds{total: 10, active: 7}
	players := &mockStatsPlayers{total: 250, active: 180}
	store := &mockStatsStore{}

	svc := NewStatisticsService(guilds, players, store)
	svc.now = func() time.Time { return time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC) }

	_, err := svc.SnapshotToday(context.Background())
	require.NoError(t, err)

	guilds.active = 8
	svc.now = func() time.Time { return time.Date(2026, 8, 30, 23, 0, 0, 0, time.UTC) }
	_, err = svc.SnapshotToday(context.Background())
	require.NoError(t, err)

	// Same date key both times; the storage layer upserts by date
	require.Len(t, store.upserted, 2)
	assert.Equal(t, store.upserted[0].Date, store.upserted[1].Date)
	assert.Equal(t, 8, store.upserted[1].ActiveGuilds)
}

func TestRecentDaily_ClampsDayRange(t *testing.T) {
	store := &mockStatsStore{recent: []model.DailyStatistics{{Date: "2026-08-30"}}}
	svc := NewStatisticsService(&mockStatsGuilds{}, &mockStatsPlayers{}, store)

	stats, err := svc.RecentDaily(context.Background(), -3)
	require.NoError(t, err)
	assert.Len(t, stats, 1)
}
