// Package status runs one collection job at a time in the background and
// exposes its progress and log lines to the web interface.
package status

import (
	"sync"
	"time"
)

// Snapshot is a read-only copy of a run's state.
type Snapshot struct {
	RunID      string     `json:"run_id,omitempty"`
	Dataset    string     `json:"dataset,omitempty"`
	IsRunning  bool       `json:"is_running"`
	Progress   int        `json:"progress"`
	Current    string     `json:"current_district"`
	TotalRows  int        `json:"total_rows"`
	Message    string     `json:"message"`
	OutputPath string     `json:"output_path,omitempty"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// Messages shown in the status panel.
const (
	MessageIdle    = "Waiting..."
	MessageRunning = "Running..."
	MessageStopped = "Stopped"
	MessageNoData  = "No data"
)

// Tracker is the state of one run. The job writes to it; handlers read snapshots.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

func newTracker(runID, dataset string, started time.Time) *Tracker {
	return &Tracker{snap: Snapshot{
		RunID:     runID,
		Dataset:   dataset,
		IsRunning: true,
		Message:   MessageRunning,
		StartedAt: &started,
	}}
}

// Stage records what the job is working on and how far along it is, in percent.
func (t *Tracker) Stage(label string, percent int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.snap.Current = label
	t.snap.Progress = min(max(percent, 0), 100)
}

// SetRows records the number of rows collected so far.
func (t *Tracker) SetRows(total int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.snap.TotalRows = total
}

// Snapshot returns a copy of the current state.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.snap
}

func (t *Tracker) finish(message, outputPath string, finished time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.snap.IsRunning = false
	t.snap.Progress = 100
	t.snap.Message = message
	t.snap.OutputPath = outputPath
	t.snap.FinishedAt = &finished
}
