package jobs

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/matesxs/deeptown-event-tracker/internal/service"
)

// GuildSyncJob periodically runs a full synchronization over every guild
// known locally or listed upstream. Runs are sequential; a tick that fires
// while a manual run is in flight is skipped.
type GuildSyncJob struct {
	syncService *service.SyncService
	interval    time.Duration
	stopCh      chan struct{}
	wg          sync.WaitGroup
	running     bool
	mu          sync.Mutex
}

// NewGuildSyncJob creates a new guild sync job
func NewGuildSyncJob(syncService *service.SyncService, interval time.Duration) *GuildSyncJob {
	if interval == 0 {
		interval = 6 * time.Hour
	}
	return &GuildSyncJob{
		syncService: syncService,
		interval:    interval,
		stopCh:      make(chan struct{}),
	}
}

// Start begins the guild sync job
func (j *GuildSyncJob) Start() {
	j.mu.Lock()
	if j.running {
		j.mu.Unlock()
		return
	}
	j.running = true
	j.mu.Unlock()

	j.wg.Add(1)
	go j.run()
	log.Printf("Guild sync job started (interval: %v)", j.interval)
}

// Stop gracefully stops the guild sync job
func (j *GuildSyncJob) Stop() {
	j.mu.Lock()
	if !j.running {
		j.mu.Unlock()
		return
	}
	j.running = false
	j.mu.Unlock()

	close(j.stopCh)
	j.wg.Wait()
	log.Println("Guild sync job stopped")
}

// run is the main loop
func (j *GuildSyncJob) run() {
	defer j.wg.Done()

	// Let the database connection and services settle before the first sweep
	time.Sleep(10 * time.Second)
	j.sync()

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			j.sync()
		case <-j.stopCh:
			return
		}
	}
}

// sync runs one full sweep. A sweep over many guilds with retry rounds can
// legitimately take hours, so the loop is stopped through stopCh rather
// than a deadline.
func (j *GuildSyncJob) sync() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		select {
		case <-j.stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	report, err := j.syncService.RunFullSync(ctx)
	if err != nil {
		if errors.Is(err, service.ErrSyncAlreadyRunning) {
			log.Println("Guild sync skipped: a run is already in progress")
			return
		}
		log.Printf("Error running guild sync: %v", err)
		return
	}

	log.Printf("Guild sync finished: run=%s updated=%d/%d stable=%d deactivated=%d rounds=%d unresolved=%d",
		report.RunID, report.Updated, report.Total, report.Stable,
		report.Deactivated, report.Rounds, len(report.Unresolved))
}

// RunOnce runs one full sweep (for testing or manual trigger)
func (j *GuildSyncJob) RunOnce(ctx context.Context) error {
	_, err := j.syncService.RunFullSync(ctx)
	return err
}

// IsRunning returns whether the job is running
func (j *GuildSyncJob) IsRunning() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.running
}
