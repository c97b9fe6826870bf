package jobs

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/matesxs/deeptown-event-tracker/internal/service"
)

// CleanupJob periodically removes guilds missing from the upstream listing
// (and blacklisted ones) along with players without a membership anywhere.
type CleanupJob struct {
	cleanupService *service.CleanupService
	interval       time.Duration
	stopCh         chan struct{}
	wg             sync.WaitGroup
	running        bool
	mu             sync.Mutex
}

// NewCleanupJob creates a new cleanup job
func NewCleanupJob(cleanupService *service.CleanupService, interval time.Duration) *CleanupJob {
	if interval == 0 {
		interval = 24 * time.Hour
	}
	return &CleanupJob{
		cleanupService: cleanupService,
		interval:       interval,
		stopCh:         make(chan struct{}),
	}
}

// Start begins the cleanup job
func (j *CleanupJob) Start() {
	j.mu.Lock()
	if j.running {
		j.mu.Unlock()
		return
	}
	j.running = true
	j.mu.Unlock()

	j.wg.Add(1)
	go j.run()
	log.Printf("Cleanup job started (interval: %v)", j.interval)
}

// Stop gracefully stops the cleanup job
func (j *CleanupJob) Stop() {
	j.mu.Lock()
	if !j.running {
		j.mu.Unlock()
		return
	}
	j.running = false
	j.mu.Unlock()

	close(j.stopCh)
	j.wg.Wait()
	log.Println("Cleanup job stopped")
}

// run is the main loop
func (j *CleanupJob) run() {
	defer j.wg.Done()

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			j.cleanup()
		case <-j.stopCh:
			return
		}
	}
}

func (j *CleanupJob) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	report, err := j.cleanupService.Run(ctx)
	if err != nil {
		log.Printf("Error running cleanup: %v", err)
		return
	}
	log.Printf("Cleanup finished: removed_guilds=%d removed_players=%d",
		report.RemovedGuilds, report.RemovedPlayers)
}

// RunOnce runs the cleanup once (for testing or manual trigger)
func (j *CleanupJob) RunOnce(ctx context.Context) error {
	_, err := j.cleanupService.Run(ctx)
	return err
}

// IsRunning returns whether the job is running
func (j *CleanupJob) IsRunning() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.running
}
