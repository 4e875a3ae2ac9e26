// Package scheduler repeats sync runs for the watch and serve modes. It runs one
// sync at start, then at the configured daily times or on a fixed interval, and
// publishes each result to the data container.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/giygas/sheets-sync/interfaces"
	"github.com/giygas/sheets-sync/logging"
	"github.com/go-co-op/gocron"
)

// Compile-time check to ensure Scheduler implements Scheduler interface
var _ interfaces.Scheduler = (*Scheduler)(nil)

// StaleAfter is how long without a successful run before the data is reported stale
const StaleAfter = 25 * time.Hour

// Options configures when runs happen
type Options struct {
	SyncAt       string        // "HH:MM;HH:MM" daily times, used when Interval is zero
	Interval     time.Duration // fixed interval between runs
	CheckEvery   time.Duration // staleness check period, one hour when zero
	RunOnStartup bool
}

// Scheduler handles sync runs and staleness monitoring using dependency injection
type Scheduler struct {
	dataStore interfaces.DataStore
	runner    interfaces.Runner
	scheduler *gocron.Scheduler
	opts      Options

	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.Mutex
	job         *gocron.Job
	monitorDone chan struct{}
}

// NewScheduler creates a new scheduler instance with injected dependencies
func NewScheduler(dataStore interfaces.DataStore, runner interfaces.Runner, opts Options) *Scheduler {
	if opts.CheckEvery <= 0 {
		opts.CheckEvery = time.Hour
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		dataStore: dataStore,
		runner:    runner,
		scheduler: gocron.NewScheduler(time.Local),
		opts:      opts,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start performs the initial run, schedules the next ones and starts staleness monitoring.
// A failed initial run is recorded and logged; scheduled runs still go ahead.
func (s *Scheduler) Start() error {
	if s.opts.RunOnStartup {
		if err := s.RunOnce(s.ctx); err != nil {
			logging.Error("Initial sync failed", "error", err)
		}
	}

	if err := s.ctx.Err(); err != nil {
		return fmt.Errorf("scheduler stopped during initial sync: %w", err)
	}

	var job *gocron.Job
	var err error
	if s.opts.Interval > 0 {
		job, err = s.scheduler.Every(s.opts.Interval).SingletonMode().WaitForSchedule().Do(s.scheduledRun)
	} else {
		job, err = s.scheduler.Every(1).Days().At(s.opts.SyncAt).SingletonMode().Do(s.scheduledRun)
	}

	if err != nil {
		logging.Error("Failed to schedule sync runs", "error", err)
		return fmt.Errorf("failed to schedule sync runs: %w", err)
	}

	s.mu.Lock()
	s.job = job
	s.monitorDone = make(chan struct{})
	s.mu.Unlock()

	s.scheduler.StartAsync()

	// Start health monitoring
	s.startHealthMonitoring()

	logging.Info("Sync runs scheduled", "sync_at", s.opts.SyncAt, "interval", s.opts.Interval.String(), "next_run", s.NextRun().Format(time.RFC3339))

	return nil
}

// Stop cancels a run in progress and stops scheduling new ones
func (s *Scheduler) Stop() {
	s.cancel()
	s.scheduler.Stop()

	s.mu.Lock()
	done := s.monitorDone
	s.monitorDone = nil
	s.mu.Unlock()

	if done != nil {
		<-done
	}
}

// NextRun returns the time of the next scheduled run, zero before Start
func (s *Scheduler) NextRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.job == nil {
		return time.Time{}
	}
	return s.job.NextRun()
}

func (s *Scheduler) scheduledRun() {
	if err := s.RunOnce(s.ctx); err != nil {
		logging.Error("Scheduled sync failed", "error", err)
	}
}

// RunOnce performs one sync and publishes its result. It does nothing when
// another run is already in progress.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	// Prevent concurrent updates
	if !s.dataStore.BeginUpdate() {
		logging.Info("Sync already in progress, skipping...")
		return nil
	}
	defer s.dataStore.EndUpdate()

	result, err := s.runner.Run(ctx)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			s.dataStore.RecordFailure(err)
		}
		return err
	}

	// Atomic update using injected data store
	s.dataStore.UpdateData(result)
	return nil
}

// startHealthMonitoring warns when the data has not been refreshed for StaleAfter
func (s *Scheduler) startHealthMonitoring() {
	s.mu.Lock()
	done := s.monitorDone
	s.mu.Unlock()

	go func() {
		defer close(done)

		ticker := time.NewTicker(s.opts.CheckEvery)
		defer ticker.Stop()

		for {
			select {
			case <-s.ctx.Done():
				return
			case now := <-ticker.C:
				s.checkStaleness(now)
			}
		}
	}()
}

// checkStaleness logs a warning and reports true when the last successful run is too old
func (s *Scheduler) checkStaleness(now time.Time) bool {
	lastUpdate := s.dataStore.GetLastUpdated()
	if now.Sub(lastUpdate) <= StaleAfter {
		return false
	}

	if lastUpdate.IsZero() {
		logging.Warn("No sync has produced data yet", "last_run", s.dataStore.GetLastRun().Format(time.RFC3339))
	} else {
		logging.Warn("Data hasn't been updated in over 25 hours", "last_update", lastUpdate.Format(time.RFC3339))
	}
	return true
}
