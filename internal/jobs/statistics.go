package jobs

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/matesxs/deeptown-event-tracker/internal/service"
)

// StatisticsJob computes the daily tracker rollup. It ticks hourly and
// relies on the snapshot being keyed by date, so recomputing within the
// same day just refreshes that day's row.
type StatisticsJob struct {
	statsService *service.StatisticsService
	stopCh       chan struct{}
	wg           sync.WaitGroup
	running      bool
	mu           sync.Mutex
}

// NewStatisticsJob creates a new statistics job
func NewStatisticsJob(statsService *service.StatisticsService) *StatisticsJob {
	return &StatisticsJob{
		statsService: statsService,
		stopCh:       make(chan struct{}),
	}
}

// Start begins the statistics job
func (j *StatisticsJob) Start() {
	j.mu.Lock()
	if j.running {
		j.mu.Unlock()
		return
	}
	j.running = true
	j.mu.Unlock()

	j.wg.Add(1)
	go j.run()
	log.Println("Statistics job started")
}

// Stop gracefully stops the statistics job
func (j *StatisticsJob) Stop() {
	j.mu.Lock()
	if !j.running {
		j.mu.Unlock()
		return
	}
	j.running = false
	j.mu.Unlock()

	close(j.stopCh)
	j.wg.Wait()
	log.Println("Statistics job stopped")
}

// run is the main loop
func (j *StatisticsJob) run() {
	defer j.wg.Done()

	time.Sleep(15 * time.Second)
	j.snapshot()

	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			j.snapshot()
		case <-j.stopCh:
			return
		}
	}
}

func (j *StatisticsJob) snapshot() {
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
	defer cancel()

	stats, err := j.statsService.SnapshotToday(ctx)
	if err != nil {
		log.Printf("Error computing daily statistics: %v", err)
		return
	}
	log.Printf("Daily statistics updated: date=%s guilds=%d/%d players=%d/%d",
		stats.Date, stats.ActiveGuilds, stats.TotalGuilds,
		stats.ActivePlayers, stats.TotalPlayers)
}

// RunOnce computes the snapshot once (for testing or manual trigger)
func (j *StatisticsJob) RunOnce(ctx context.Context) error {
	_, err := j.statsService.SnapshotToday(ctx)
	return err
}

// IsRunning returns whether the job is running
func (j *StatisticsJob) IsRunning() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.running
}
