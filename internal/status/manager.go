package status

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/UnknownOlympus/landscout/internal/metrics"
	"github.com/google/uuid"
)

// ErrAlreadyRunning is returned by Start while a run is in progress.
var ErrAlreadyRunning = errors.New("a collection run is already in progress")

// Outcome is what a finished job reports.
type Outcome struct {
	Rows       int
	OutputPath string
}

// Job is one collection run. It reports progress through the tracker and
// must return promptly once ctx is cancelled.
type Job func(ctx context.Context, tracker *Tracker) (Outcome, error)

// Manager starts jobs on a background goroutine, one at a time.
type Manager struct {
	base    context.Context
	log     *slog.Logger
	metrics *metrics.Metrics

	mu      sync.Mutex
	current *Tracker
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewManager creates a manager whose runs live until base is cancelled or Stop is called.
func NewManager(base context.Context, log *slog.Logger, metrics *metrics.Metrics) *Manager {
	return &Manager{base: base, log: log, metrics: metrics}
}

// Start launches job in the background and returns its run id.
func (m *Manager) Start(dataset string, job Job) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil && m.current.Snapshot().IsRunning {
		return "", ErrAlreadyRunning
	}

	runID := uuid.NewString()
	tracker := newTracker(runID, dataset, time.Now())
	ctx, cancel := context.WithCancel(m.base)
	m.current = tracker
	m.cancel = cancel

	m.metrics.ActiveRuns.Inc()
	m.wg.Add(1)
	go m.run(ctx, cancel, dataset, tracker, job)

	return runID, nil
}

// Stop asks the current run to stop. It reports whether a run was in progress.
func (m *Manager) Stop() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil || !m.current.Snapshot().IsRunning {
		return false
	}
	m.cancel()

	return true
}

// Status returns the state of the current or last run.
func (m *Manager) Status() Snapshot {
	m.mu.Lock()
	tracker := m.current
	m.mu.Unlock()

	if tracker == nil {
		return Snapshot{Message: MessageIdle}
	}

	return tracker.Snapshot()
}

// Wait blocks until the background run, if any, has finished.
func (m *Manager) Wait() {
	m.wg.Wait()
}

func (m *Manager) run(ctx context.Context, cancel context.CancelFunc, dataset string, tracker *Tracker, job Job) {
	defer m.wg.Done()
	defer cancel()
	defer m.metrics.ActiveRuns.Dec()

	outcome, err := m.protect(ctx, tracker, job)

	var message, result string
	// A stop that lands after the job returned does not undo a written file.
	switch {
	case errors.Is(err, context.Canceled):
		message, result = MessageStopped, "stopped"
		outcome.OutputPath = ""
		m.log.InfoContext(ctx, "Collection stopped by user")
	case err != nil:
		message, result = "Error: "+err.Error(), "failed"
		m.log.ErrorContext(ctx, "Collection failed", "error", err)
	case outcome.Rows == 0:
		message, result = MessageNoData, "empty"
		m.log.InfoContext(ctx, "No data collected")
	default:
		message, result = fmt.Sprintf("Done! %d rows collected", outcome.Rows), "success"
	}

	m.metrics.Runs.WithLabelValues(dataset, result).Inc()
	tracker.finish(message, outcome.OutputPath, time.Now())
}

// protect turns a panic inside the job into an error so the host keeps serving.
func (m *Manager) protect(ctx context.Context, tracker *Tracker, job Job) (outcome Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()

	return job(ctx, tracker)
}
