package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matesxs/deeptown-event-tracker/internal/database"
	"github.com/matesxs/deeptown-event-tracker/internal/model"
	"github.com/matesxs/deeptown-event-tracker/internal/upstream"
	"github.com/matesxs/deeptown-event-tracker/pkg/eventweek"
)

// ============================================================================
// Mocks
// ============================================================================

type mockSyncGuilds struct {
	listIDsFunc func(ctx context.Context, activeOnly bool) ([]int64, error)
	deactivated []int64
}

func (m *mockSyncGuilds) ListIDs(ctx context.Context, activeOnly bool) ([]int64, error) {
	if m.listIDsFunc != nil {
		return m.listIDsFunc(ctx, activeOnly)
	}
	return nil, nil
}

func (m *mockSyncGuilds) SetActive(ctx context.Context, id int64, active bool) error {
	if !active {
		m.deactivated = append(m.deactivated, id)
	}
	return nil
}

type mockFetcher struct {
	fetchFunc   func(ctx context.Context, guildID int64) (*model.GuildSnapshot, error)
	listIDsFunc func(ctx context.Context) ([]int64, error)
	fetched     []int64
}

func (m *mockFetcher) FetchGuildSnapshot(ctx context.Context, guildID int64) (*model.GuildSnapshot, error) {
	m.fetched = append(m.fetched, guildID)
	if m.fetchFunc != nil {
		return m.fetchFunc(ctx, guildID)
	}
	return &model.GuildSnapshot{GuildID: guildID, Name: "guild"}, nil
}

func (m *mockFetcher) ListAllGuildIDs(ctx context.Context) ([]int64, error) {
	if m.listIDsFunc != nil {
		return m.listIDsFunc(ctx)
	}
	return nil, nil
}

type mockApplier struct {
	applyFunc func(ctx context.Context, snapshot *model.GuildSnapshot, week eventweek.ID) (*ReconcileResult, error)
	applied   []int64
}

func (m *mockApplier) ApplySnapshot(ctx context.Context, snapshot *model.GuildSnapshot, week eventweek.ID) (*ReconcileResult, error) {
	m.applied = append(m.applied, snapshot.GuildID)
	if m.applyFunc != nil {
		return m.applyFunc(ctx, snapshot, week)
	}
	return &ReconcileResult{GuildID: snapshot.GuildID, Week: week}, nil
}

// ============================================================================
// Helpers
// ============================================================================

type syncFixture struct {
	guilds  *mockSyncGuilds
	fetcher *mockFetcher
	applier *mockApplier
	sleeps  []time.Duration
	service *SyncService
}

func newSyncFixture(maxRounds int) *syncFixture {
	f := &syncFixture{
		guilds:  &mockSyncGuilds{},
		fetcher: &mockFetcher{},
		applier: &mockApplier{},
	}
	f.service = NewSyncService(f.guilds, f.fetcher, f.applier, SyncSettings{
		MaxRetryRounds:   maxRounds,
		RetryBackoffBase: 30 * time.Second,
		RequestDelay:     2 * time.Second,
		StoragePause:     60 * time.Second,
		ProgressInterval: time.Minute,
	}, nil)
	// Record sleeps instead of waiting
	f.service.sleep = func(ctx context.Context, d time.Duration) error {
		f.sleeps = append(f.sleeps, d)
		return ctx.Err()
	}
	return f
}

// ============================================================================
// Tests
// ============================================================================

func TestRunSync_AllGuildsSucceed(t *testing.T) {
	f := newSyncFixture(3)

	report, err := f.service.RunSync(context.Background(), []int64{1, 2, 3})
	require.NoError(t, err)

	assert.Equal(t, SyncStateCompleted, report.State)
	assert.Equal(t, 3, report.Total)
	assert.Equal(t, 3, report.Updated)
	assert.Equal(t, 1, report.Rounds)
	assert.Empty(t, report.Unresolved)
	assert.Equal(t, []int64{1, 2, 3}, f.applier.applied)

	// One rate-limit pause between consecutive fetches
	assert.Equal(t, []time.Duration{2 * time.Second, 2 * time.Second}, f.sleeps)
}

func TestRunSync_GoneGuildIsDeactivated(t *testing.T) {
	f := newSyncFixture(3)
	f.fetcher.fetchFunc = func(ctx context.Context, guildID int64) (*model.GuildSnapshot, error) {
		if guildID == 2 {
			return nil, upstream.ErrNotFound
		}
		return &model.GuildSnapshot{GuildID: guildID}, nil
	}

	report, err := f.service.RunSync(context.Background(), []int64{1, 2, 3})
	require.NoError(t, err)

	assert.Equal(t, 2, report.Updated)
	assert.Equal(t, 1, report.Deactivated)
	assert.Empty(t, report.Unresolved)
	assert.Equal(t, []int64{2}, f.guilds.deactivated)
}

func TestRunSync_TransientFailureRetriedNextRound(t *testing.T) {
	f := newSyncFixture(3)
	failures := 0
	f.fetcher.fetchFunc = func(ctx context.Context, guildID int64) (*model.GuildSnapshot, error) {
		if guildID == 1 && failures == 0 {
			failures++
			return nil, upstream.ErrUnavailable
		}
		return &model.GuildSnapshot{GuildID: guildID}, nil
	}

	report, err := f.service.RunSync(context.Background(), []int64{1, 2})
	require.NoError(t, err)

	assert.Equal(t, 2, report.Updated)
	assert.Equal(t, 2, report.Rounds)
	assert.Empty(t, report.Unresolved)
	assert.Equal(t, []int64{1, 2, 1}, f.fetcher.fetched)

	// The retry round starts with a backoff proportional to the round number
	assert.Contains(t, f.sleeps, 30*time.Second)
}

func TestRunSync_ProgressReportsRunTotalAcrossRetryRounds(t *testing.T) {
	f := newSyncFixture(3)
	f.service.cfg.ProgressInterval = 0

	type tick struct{ resolved, total, round int }
	var ticks []tick
	f.service.progress = func(runID string, resolved, total, round int) {
		ticks = append(ticks, tick{resolved, total, round})
	}

	failures := 0
	f.fetcher.fetchFunc = func(ctx context.Context, guildID int64) (*model.GuildSnapshot, error) {
		if guildID == 1 && failures == 0 {
			failures++
			return nil, upstream.ErrUnavailable
		}
		return &model.GuildSnapshot{GuildID: guildID}, nil
	}

	report, err := f.service.RunSync(context.Background(), []int64{1, 2})
	require.NoError(t, err)
	require.Equal(t, 2, report.Total)

	// Every tick reports against the run total, not the retry round's
	// queue size, and the resolved count never goes backwards.
	assert.Equal(t, []tick{{0, 2, 0}, {1, 2, 0}, {2, 2, 1}}, ticks)
}

func TestRunSync_UnresolvedAfterRoundLimit(t *testing.T) {
	f := newSyncFixture(2)
	f.fetcher.fetchFunc = func(ctx context.Context, guildID int64) (*model.GuildSnapshot, error) {
		if guildID == 7 {
			return nil, upstream.ErrUnavailable
		}
		return &model.GuildSnapshot{GuildID: guildID}, nil
	}

	report, err := f.service.RunSync(context.Background(), []int64{7, 8})
	require.NoError(t, err)

	assert.Equal(t, SyncStateCompleted, report.State)
	assert.Equal(t, 1, report.Updated)
	assert.Equal(t, []int64{7}, report.Unresolved)
	// Initial pass plus two retry rounds
	assert.Equal(t, 3, report.Rounds)
	assert.Equal(t, []int64{7, 8, 7, 7}, f.fetcher.fetched)
}

func TestRunSync_StoragePauseThenRetrySameGuild(t *testing.T) {
	f := newSyncFixture(3)
	calls := 0
	f.applier.applyFunc = func(ctx context.Context, snapshot *model.GuildSnapshot, week eventweek.ID) (*ReconcileResult, error) {
		calls++
		if calls == 1 {
			return nil, database.ErrConnection
		}
		return &ReconcileResult{GuildID: snapshot.GuildID}, nil
	}

	report, err := f.service.RunSync(context.Background(), []int64{1})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Updated)
	assert.Equal(t, 1, report.Rounds)
	assert.Equal(t, 2, calls)
	assert.Contains(t, f.sleeps, 60*time.Second)
}

func TestRunSync_RejectsConcurrentRun(t *testing.T) {
	f := newSyncFixture(3)
	// Occupy the run slot
	f.service.mu <- struct{}{}

	_, err := f.service.RunSync(context.Background(), []int64{1})
	assert.ErrorIs(t, err, ErrSyncAlreadyRunning)

	<-f.service.mu
	assert.False(t, f.service.IsRunning())
}

func TestRunSync_CancelledContext(t *testing.T) {
	f := newSyncFixture(3)
	ctx, cancel := context.WithCancel(context.Background())
	cancelled := false
	f.fetcher.fetchFunc = func(fctx context.Context, guildID int64) (*model.GuildSnapshot, error) {
		if !cancelled {
			cancelled = true
			cancel()
		}
		return &model.GuildSnapshot{GuildID: guildID}, nil
	}

	report, err := f.service.RunSync(ctx, []int64{1, 2, 3})
	require.NoError(t, err)

	assert.Equal(t, SyncStateCancelled, report.State)
	assert.Equal(t, 1, report.Updated)
	assert.Equal(t, []int64{2, 3}, report.Unresolved)
}

func TestRunFullSync_MergesKnownAndListedIDs(t *testing.T) {
	f := newSyncFixture(3)
	f.guilds.listIDsFunc = func(ctx context.Context, activeOnly bool) ([]int64, error) {
		return []int64{1, 2}, nil
	}
	f.fetcher.listIDsFunc = func(ctx context.Context) ([]int64, error) {
		return []int64{2, 3}, nil
	}

	report, err := f.service.RunFullSync(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, report.Total)
	assert.Equal(t, []int64{1, 2, 3}, f.applier.applied)
}

func TestStatus_ReportsFinishedRun(t *testing.T) {
	f := newSyncFixture(3)

	report, err := f.service.RunSync(context.Background(), []int64{1})
	require.NoError(t, err)

	status, err := f.service.Status(report.RunID)
	require.NoError(t, err)
	assert.Equal(t, SyncStateCompleted, status.State)
	assert.Equal(t, report.Updated, status.Updated)
}

func TestStatus_UnknownRun(t *testing.T) {
	f := newSyncFixture(3)

	_, err := f.service.Status("nonexistent")
	assert.ErrorIs(t, err, ErrSyncRunNotFound)
}
