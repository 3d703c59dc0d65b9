// Package service runs the two collection jobs: land permits scraped from
// the portal and apartments read from the open data registry.
package service

import (
	"context"
	"time"

	"github.com/UnknownOlympus/landscout/internal/models"
)

// Progress receives updates while a job runs. status.Tracker implements it.
type Progress interface {
	Stage(label string, percent int)
	SetRows(total int)
}

// Result is what a finished job produced. A job that collected nothing writes no file.
type Result struct {
	Rows       int
	OutputPath string
}

// Writer saves a table and returns where it went.
type Writer interface {
	Write(ctx context.Context, dataset string, header []string, rows []models.Row) (string, error)
}

// Archive stores finished runs. It is optional.
type Archive interface {
	SaveRun(ctx context.Context, run models.RunRecord, rows []models.Row) error
}

// Discard is a Progress that ignores all updates.
var Discard Progress = discard{}

type discard struct{}

func (discard) Stage(string, int) {}
func (discard) SetRows(int)       {}

func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
