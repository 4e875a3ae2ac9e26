package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/giygas/sheets-sync/data"
	"github.com/giygas/sheets-sync/syncer"
)

// mockRunner for testing scheduler
type mockRunner struct {
	runs  atomic.Int32
	err   error
	block bool
}

func (m *mockRunner) Run(ctx context.Context) (*syncer.Result, error) {
	m.runs.Add(1)
	if m.block {
		<-ctx.Done()
		return &syncer.Result{}, ctx.Err()
	}
	if m.err != nil {
		return &syncer.Result{}, m.err
	}
	return &syncer.Result{StartedAt: time.Now()}, nil
}

// staleDataStore reports a fixed last update time
type staleDataStore struct {
	*data.DataContainer
	lastUpdated time.Time
}

func (s *staleDataStore) GetLastUpdated() time.Time {
	return s.lastUpdated
}

func TestStartRunsInitialSync(t *testing.T) {
	store := data.NewDataContainer()
	runner := &mockRunner{}
	s := NewScheduler(store, runner, Options{SyncAt: "06:00;18:00", RunOnStartup: true})

	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer s.Stop()

	if runs := runner.runs.Load(); runs != 1 {
		t.Errorf("Expected 1 initial run, got %d", runs)
	}

	if store.GetResult() == nil {
		t.Error("Initial result should be published")
	}

	next := s.NextRun()
	if next.IsZero() || !next.After(time.Now()) {
		t.Errorf("Expected a next run in the future, got %v", next)
	}
	if h := next.Hour(); h != 6 && h != 18 {
		t.Errorf("Expected next run at 06:00 or 18:00, got %v", next)
	}
}

func TestStartWithoutInitialSync(t *testing.T) {
	runner := &mockRunner{}
	s := NewScheduler(data.NewDataContainer(), runner, Options{SyncAt: "06:00"})

	if !s.NextRun().IsZero() {
		t.Error("NextRun should be zero before Start")
	}

	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer s.Stop()

	if runs := runner.runs.Load(); runs != 0 {
		t.Errorf("Expected no run at start, got %d", runs)
	}
}

func TestStartInitialFailureKeepsScheduling(t *testing.T) {
	store := data.NewDataContainer()
	runner := &mockRunner{err: syncer.ErrNoData}
	s := NewScheduler(store, runner, Options{SyncAt: "06:00", RunOnStartup: true})

	if err := s.Start(); err != nil {
		t.Fatalf("Start should not fail when the initial sync fails, got %v", err)
	}
	defer s.Stop()

	if !errors.Is(store.GetLastError(), syncer.ErrNoData) {
		t.Errorf("Expected ErrNoData recorded, got %v", store.GetLastError())
	}

	if store.GetLastRun().IsZero() {
		t.Error("Failed run should still set lastRun")
	}

	if s.NextRun().IsZero() {
		t.Error("Runs should be scheduled after a failed initial sync")
	}
}

func TestRunOnceSkipsWhileUpdating(t *testing.T) {
	store := data.NewDataContainer()
	runner := &mockRunner{}
	s := NewScheduler(store, runner, Options{SyncAt: "06:00"})

	store.BeginUpdate()

	if err := s.RunOnce(context.Background()); err != nil {
		t.Errorf("Expected nil when skipping, got %v", err)
	}

	if runs := runner.runs.Load(); runs != 0 {
		t.Errorf("Expected no run while another is in progress, got %d", runs)
	}

	store.EndUpdate()
}

func TestIntervalSchedule(t *testing.T) {
	runner := &mockRunner{}
	s := NewScheduler(data.NewDataContainer(), runner, Options{Interval: 50 * time.Millisecond, RunOnStartup: true})

	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer s.Stop()

	deadline := time.Now().Add(3 * time.Second)
	for runner.runs.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	if runs := runner.runs.Load(); runs < 3 {
		t.Errorf("Expected at least 3 runs, got %d", runs)
	}
}

func TestStopCancelsRunningSync(t *testing.T) {
	store := data.NewDataContainer()
	runner := &mockRunner{block: true}
	s := NewScheduler(store, runner, Options{SyncAt: "06:00", RunOnStartup: true})

	errs := make(chan error, 1)
	go func() {
		errs <- s.Start()
	}()

	deadline := time.Now().Add(time.Second)
	for runner.runs.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	s.Stop()

	select {
	case err := <-errs:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Expected Start to return context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after Stop")
	}

	if store.GetLastError() != nil {
		t.Errorf("A cancelled run should not be recorded as a failure, got %v", store.GetLastError())
	}
}

func TestCheckStaleness(t *testing.T) {
	now := time.Now()

	testCases := []struct {
		name        string
		lastUpdated time.Time
		stale       bool
	}{
		{"fresh", now.Add(-time.Hour), false},
		{"just under threshold", now.Add(-24 * time.Hour), false},
		{"over threshold", now.Add(-26 * time.Hour), true},
		{"never updated", time.Time{}, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			store := &staleDataStore{DataContainer: data.NewDataContainer(), lastUpdated: tc.lastUpdated}
			s := NewScheduler(store, &mockRunner{}, Options{SyncAt: "06:00"})

			if got := s.checkStaleness(now); got != tc.stale {
				t.Errorf("Expected stale=%v, got %v", tc.stale, got)
			}
		})
	}
}
