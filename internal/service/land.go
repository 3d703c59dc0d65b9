package service

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"time"

	"github.com/UnknownOlympus/landscout/internal/daterange"
	"github.com/UnknownOlympus/landscout/internal/metrics"
	"github.com/UnknownOlympus/landscout/internal/models"
	"github.com/UnknownOlympus/landscout/internal/scraper"
	"github.com/google/uuid"
)

// Driver is the portal interaction the land job needs. scraper.Driver implements it.
type Driver interface {
	Districts(ctx context.Context, only []string) ([]models.District, error)
	Search(ctx context.Context, district models.District, rng daterange.Range) error
	Pages(ctx context.Context) iter.Seq[scraper.Batch]
}

// RowEnricher appends road address and coordinates to a row.
type RowEnricher interface {
	Enrich(ctx context.Context, row models.Row) models.Row
}

// LandConfig is the input of one land permit run.
type LandConfig struct {
	RunID     string // RunID names the run in the archive; a new uuid is used when empty.
	Range     daterange.Range
	Districts []string // Districts optionally restricts the run to these codes.
}

// LandPermitJob collects land transaction permits district by district.
type LandPermitJob struct {
	enricher RowEnricher
	writer   Writer
	archive  Archive
	metrics  *metrics.Metrics
	log      *slog.Logger
}

// NewLandPermitJob creates the job. archive may be nil.
func NewLandPermitJob(
	enricher RowEnricher,
	writer Writer,
	archive Archive,
	metrics *metrics.Metrics,
	log *slog.Logger,
) *LandPermitJob {
	return &LandPermitJob{
		enricher: enricher,
		writer:   writer,
		archive:  archive,
		metrics:  metrics,
		log:      log,
	}
}

// Run walks every district and page, enriches each row and writes the CSV.
// Cancellation is honoured between districts and between pages; a cancelled
// run returns ctx.Err() and writes nothing. Portal failures abort the run.
func (j *LandPermitJob) Run(ctx context.Context, driver Driver, cfg LandConfig, progress Progress) (Result, error) {
	run := newRunRecord(cfg.RunID, models.LandPermitDataset)
	j.log.InfoContext(ctx, "Land permit collection started", "range", cfg.Range.String())

	districts, err := driver.Districts(ctx, cfg.Districts)
	if err != nil {
		return Result{}, fmt.Errorf("failed to list districts: %w", err)
	}

	var rows []models.Row
	for idx, district := range districts {
		if err = ctx.Err(); err != nil {
			return Result{}, err
		}

		progress.Stage(district.Name, idx*100/len(districts))
		j.log.InfoContext(ctx, "Processing district", "name", district.Name, "code", district.Code,
			"index", idx+1, "total", len(districts))

		if err = driver.Search(ctx, district, cfg.Range); err != nil {
			return Result{}, fmt.Errorf("district %s: %w", district.Code, err)
		}

		for batch := range driver.Pages(ctx) {
			j.metrics.PagesWalked.Inc()
			for _, row := range batch.Rows {
				rows = append(rows, j.enricher.Enrich(ctx, row))
			}
			progress.SetRows(len(rows))
			j.log.InfoContext(ctx, "Scraped page", "district", district.Name, "page", batch.Page,
				"rows", len(batch.Rows), "total", len(rows))
		}
	}

	if err = ctx.Err(); err != nil {
		return Result{}, err
	}

	return finish(ctx, j.writer, j.archive, j.metrics, j.log, run, models.LandPermitColumns, rows)
}

func newRunRecord(runID, dataset string) models.RunRecord {
	if runID == "" {
		runID = uuid.NewString()
	}

	return models.RunRecord{ID: runID, Dataset: dataset, StartedAt: time.Now()}
}

// finish writes the CSV and archives the run.
func finish(
	ctx context.Context,
	writer Writer,
	archive Archive,
	m *metrics.Metrics,
	log *slog.Logger,
	run models.RunRecord,
	header []string,
	rows []models.Row,
) (Result, error) {
	dataset := run.Dataset
	if len(rows) == 0 {
		log.InfoContext(ctx, "No data collected", "dataset", dataset)
		return Result{}, nil
	}

	path, err := writer.Write(ctx, dataset, header, rows)
	if err != nil {
		return Result{}, fmt.Errorf("failed to save %s: %w", dataset, err)
	}
	m.RowsCollected.WithLabelValues(dataset).Add(float64(len(rows)))
	log.InfoContext(ctx, "Collection finished", "dataset", dataset, "rows", len(rows), "path", path)

	if archive != nil {
		run.FinishedAt = time.Now()
		run.OutputPath = path
		run.RowCount = len(rows)
		if errArchive := archive.SaveRun(ctx, run, rows); errArchive != nil {
			log.ErrorContext(ctx, "Failed to archive run", "error", errArchive)
		}
	}

	return Result{Rows: len(rows), OutputPath: path}, nil
}
