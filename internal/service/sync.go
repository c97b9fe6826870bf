package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/matesxs/deeptown-event-tracker/internal/database"
	"github.com/matesxs/deeptown-event-tracker/internal/model"
	"github.com/matesxs/deeptown-event-tracker/internal/upstream"
	"github.com/matesxs/deeptown-event-tracker/pkg/eventweek"
)

// SyncGuildStore is the guild access a sync run needs.
type SyncGuildStore interface {
	ListIDs(ctx context.Context, activeOnly bool) ([]int64, error)
	SetActive(ctx context.Context, id int64, active bool) error
}

// SnapshotFetcher pulls guild data from the upstream stats API.
type SnapshotFetcher interface {
	FetchGuildSnapshot(ctx context.Context, guildID int64) (*model.GuildSnapshot, error)
	ListAllGuildIDs(ctx context.Context) ([]int64, error)
}

// SnapshotApplier reconciles one fetched snapshot into storage.
type SnapshotApplier interface {
	ApplySnapshot(ctx context.Context, snapshot *model.GuildSnapshot, week eventweek.ID) (*ReconcileResult, error)
}

// ProgressFunc is called periodically during a run with the number of
// guilds resolved so far out of the run total. Guilds still waiting for a
// retry round count as unresolved.
type ProgressFunc func(runID string, done, total, round int)

// Run states reported by Status.
const (
	SyncStateRunning   = "running"
	SyncStateCompleted = "completed"
	SyncStateCancelled = "cancelled"
)

// SyncReport describes one synchronization run.
type SyncReport struct {
	RunID       string       `json:"run_id"`
	State       string       `json:"state"`
	Week        eventweek.ID `json:"week"`
	StartedAt   time.Time    `json:"started_at"`
	FinishedAt  time.Time    `json:"finished_at,omitzero"`
	Total       int          `json:"total"`
	Updated     int          `json:"updated"`
	Stable      int          `json:"stable"`
	Deactivated int          `json:"deactivated"`
	Rounds      int          `json:"rounds"`
	Unresolved  []int64      `json:"unresolved,omitempty"`
}

// SyncService drives synchronization runs. Runs are strictly sequential:
// guilds are fetched one at a time with a delay in between, and at most one
// run exists at any moment. Guilds that fail transiently are requeued and
// retried in later rounds with a growing backoff, up to a round limit;
// whatever is still failing then is reported as unresolved.
type SyncService struct {
	guilds   SyncGuildStore
	fetcher  SnapshotFetcher
	applier  SnapshotApplier
	cfg      SyncSettings
	progress ProgressFunc

	mu      chan struct{} // held by the active run
	reports *reportLog

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// SyncSettings are the tunables of a run.
type SyncSettings struct {
	MaxRetryRounds   int
	RetryBackoffBase time.Duration
	RequestDelay     time.Duration
	// StoragePause is how long to wait after a dropped database
	// connection before retrying the same guild.
	StoragePause     time.Duration
	ProgressInterval time.Duration
}

// NewSyncService creates a new sync service. progress may be nil.
func NewSyncService(guilds SyncGuildStore, fetcher SnapshotFetcher, applier SnapshotApplier, cfg SyncSettings, progress ProgressFunc) *SyncService {
	mu := make(chan struct{}, 1)
	return &SyncService{
		guilds:   guilds,
		fetcher:  fetcher,
		applier:  applier,
		cfg:      cfg,
		progress: progress,
		mu:       mu,
		reports:  newReportLog(),
		now:      time.Now,
		sleep:    sleepCtx,
	}
}

// RunSync synchronizes the given guilds and blocks until the run finishes
// or ctx is cancelled. Returns ErrSyncAlreadyRunning if a run is in flight.
func (s *SyncService) RunSync(ctx context.Context, guildIDs []int64) (*SyncReport, error) {
	report, err := s.begin(guildIDs)
	if err != nil {
		return nil, err
	}
	s.run(ctx, report, guildIDs)
	return s.reports.snapshot(report.RunID)
}

// StartSync begins a run in the background and returns its id immediately.
// The run is detached from the caller's request; it stops on its own when
// done or when the service shuts down.
func (s *SyncService) StartSync(ctx context.Context, guildIDs []int64) (string, error) {
	report, err := s.begin(guildIDs)
	if err != nil {
		return "", err
	}
	// The run must outlive the triggering request
	go s.run(context.WithoutCancel(ctx), report, guildIDs)
	return report.RunID, nil
}

// RunFullSync synchronizes every guild known locally or listed upstream.
func (s *SyncService) RunFullSync(ctx context.Context) (*SyncReport, error) {
	ids, err := s.allGuildIDs(ctx)
	if err != nil {
		return nil, err
	}
	return s.RunSync(ctx, ids)
}

// StartFullSync is the background variant of RunFullSync.
func (s *SyncService) StartFullSync(ctx context.Context) (string, error) {
	ids, err := s.allGuildIDs(ctx)
	if err != nil {
		return "", err
	}
	return s.StartSync(ctx, ids)
}

// Status returns the report of a known run, live or finished.
func (s *SyncService) Status(runID string) (*SyncReport, error) {
	return s.reports.snapshot(runID)
}

// IsRunning reports whether a run is currently in flight.
func (s *SyncService) IsRunning() bool {
	select {
	case s.mu <- struct{}{}:
		<-s.mu
		return false
	default:
		return true
	}
}

func (s *SyncService) allGuildIDs(ctx context.Context) ([]int64, error) {
	known, err := s.guilds.ListIDs(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("failed to list tracked guilds: %w", err)
	}
	listed, err := s.fetcher.ListAllGuildIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list upstream guilds: %w", err)
	}

	seen := make(map[int64]struct{}, len(known)+len(listed))
	ids := make([]int64, 0, len(known)+len(listed))
	for _, id := range known {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	for _, id := range listed {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (s *SyncService) begin(guildIDs []int64) (*SyncReport, error) {
	select {
	case s.mu <- struct{}{}:
	default:
		return nil, ErrSyncAlreadyRunning
	}

	report := &SyncReport{
		RunID:     uuid.NewString(),
		State:     SyncStateRunning,
		Week:      eventweek.Index(s.now()),
		StartedAt: s.now().UTC(),
		Total:     len(guildIDs),
	}
	s.reports.put(report)
	return report, nil
}

func (s *SyncService) run(ctx context.Context, report *SyncReport, guildIDs []int64) {
	defer func() { <-s.mu }()

	queue := guildIDs
	round := 0
	lastProgress := s.now()

	for len(queue) > 0 && round <= s.cfg.MaxRetryRounds {
		if round > 0 {
			backoff := s.cfg.RetryBackoffBase * time.Duration(round)
			if err := s.sleep(ctx, backoff); err != nil {
				break
			}
		}

		var retry []int64
		for i, id := range queue {
			if ctx.Err() != nil {
				retry = append(retry, queue[i:]...)
				break
			}
			if i > 0 {
				if err := s.sleep(ctx, s.cfg.RequestDelay); err != nil {
					retry = append(retry, queue[i:]...)
					break
				}
			}

			if requeue := s.syncOne(ctx, report, id); requeue {
				retry = append(retry, id)
			}

			if s.progress != nil && s.now().Sub(lastProgress) >= s.cfg.ProgressInterval {
				lastProgress = s.now()
				resolved := report.Total - len(retry) - (len(queue) - i - 1)
				s.progress(report.RunID, resolved, report.Total, round)
			}
		}

		queue = retry
		round++
		if ctx.Err() != nil {
			break
		}
	}

	state := SyncStateCompleted
	if ctx.Err() != nil {
		state = SyncStateCancelled
	}
	s.reports.update(report.RunID, func(r *SyncReport) {
		r.State = state
		r.FinishedAt = s.now().UTC()
		r.Rounds = round
		r.Unresolved = queue
	})
}

// syncOne fetches and reconciles a single guild. It reports whether the
// guild should be requeued for another round.
func (s *SyncService) syncOne(ctx context.Context, report *SyncReport, guildID int64) (requeue bool) {
	snapshot, err := s.fetcher.FetchGuildSnapshot(ctx, guildID)
	if err != nil {
		if errors.Is(err, upstream.ErrNotFound) {
			// The guild no longer exists upstream. Keep its history but
			// stop polling it.
			if err := s.guilds.SetActive(ctx, guildID, false); err == nil {
				s.reports.update(report.RunID, func(r *SyncReport) { r.Deactivated++ })
				return false
			}
		}
		return true
	}

	result, err := s.apply(ctx, snapshot, report.Week)
	if err != nil {
		return true
	}

	s.reports.update(report.RunID, func(r *SyncReport) {
		r.Updated++
		if result.Stable {
			r.Stable++
		}
	})
	return false
}

// apply runs the reconciliation, pausing and retrying once when the
// database connection dropped mid-run.
func (s *SyncService) apply(ctx context.Context, snapshot *model.GuildSnapshot, week eventweek.ID) (*ReconcileResult, error) {
	result, err := s.applier.ApplySnapshot(ctx, snapshot, week)
	if err == nil || !errors.Is(err, database.ErrConnection) {
		return result, err
	}

	if serr := s.sleep(ctx, s.cfg.StoragePause); serr != nil {
		return nil, err
	}
	return s.applier.ApplySnapshot(ctx, snapshot, week)
}

// maxKeptReports bounds the in-memory run history.
const maxKeptReports = 32

// reportLog keeps reports of recent runs so Status can answer for runs
// that already finished.
type reportLog struct {
	mu      sync.Mutex
	order   []string
	reports map[string]*SyncReport
}

func newReportLog() *reportLog {
	return &reportLog{reports: make(map[string]*SyncReport)}
}

func (l *reportLog) put(r *SyncReport) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.reports[r.RunID] = r
	l.order = append(l.order, r.RunID)
	for len(l.order) > maxKeptReports {
		delete(l.reports, l.order[0])
		l.order = l.order[1:]
	}
}

func (l *reportLog) update(runID string, fn func(*SyncReport)) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if r, ok := l.reports[runID]; ok {
		fn(r)
	}
}

func (l *reportLog) snapshot(runID string) (*SyncReport, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	r, ok := l.reports[runID]
	if !ok {
		return nil, ErrSyncRunNotFound
	}
	copied := *r
	copied.Unresolved = append([]int64(nil), r.Unresolved...)
	return &copied, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
