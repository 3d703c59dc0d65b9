package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/UnknownOlympus/landscout/internal/metrics"
	"github.com/UnknownOlympus/landscout/internal/models"
	"github.com/UnknownOlympus/landscout/internal/openapi"
)

// Defaults of the apartment registry job.
const (
	DefaultBatchSize  = 1000
	DefaultBatchPause = 100 * time.Millisecond
	jibunLogEvery     = 100
)

// Fetcher reads one registry batch. openapi.Client implements it.
type Fetcher interface {
	Fetch(ctx context.Context, start, end int) (*openapi.Batch, error)
}

// JibunLookup finds the lot-number address of a road address. geocoding.KakaoProvider implements it.
type JibunLookup interface {
	JibunAddress(ctx context.Context, roadAddress string) (string, error)
}

// ApartmentConfig is the input of one apartment registry run.
type ApartmentConfig struct {
	RunID     string
	BatchSize int
}

// ApartmentJob collects the apartment registry.
type ApartmentJob struct {
	fetcher    Fetcher
	jibun      JibunLookup // nil when no Kakao key is configured
	writer     Writer
	archive    Archive
	metrics    *metrics.Metrics
	log        *slog.Logger
	batchPause time.Duration
}

// NewApartmentJob creates the job. jibun and archive may be nil.
func NewApartmentJob(
	fetcher Fetcher,
	jibun JibunLookup,
	writer Writer,
	archive Archive,
	metrics *metrics.Metrics,
	log *slog.Logger,
) *ApartmentJob {
	return &ApartmentJob{
		fetcher:    fetcher,
		jibun:      jibun,
		writer:     writer,
		archive:    archive,
		metrics:    metrics,
		log:        log,
		batchPause: DefaultBatchPause,
	}
}

// WithBatchPause overrides the wait between registry calls.
func (j *ApartmentJob) WithBatchPause(d time.Duration) *ApartmentJob {
	j.batchPause = d
	return j
}

// Run reads the registry batch by batch until it runs out, adds jibun
// addresses and writes the CSV. Cancellation is honoured between batches and
// between jibun lookups; a cancelled run writes nothing.
func (j *ApartmentJob) Run(ctx context.Context, cfg ApartmentConfig, progress Progress) (Result, error) {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	run := newRunRecord(cfg.RunID, models.ApartmentDataset)
	j.log.InfoContext(ctx, "Apartment collection started", "batch_size", batchSize)

	records, err := j.collect(ctx, batchSize, progress)
	if err != nil {
		return Result{}, err
	}
	if len(records) == 0 {
		return finish(ctx, j.writer, j.archive, j.metrics, j.log, run, nil, nil)
	}

	j.log.InfoContext(ctx, "Apartment records collected", "total", len(records))
	progress.Stage("", 50)

	header, fields := apartmentHeader(records)
	withJibun := j.jibun != nil
	if withJibun {
		header = append(header, models.ApartmentJibunColumn)
	}

	rows := make([]models.Row, 0, len(records))
	for _, rec := range records {
		row := make(models.Row, 0, len(header))
		for _, field := range fields {
			row = append(row, rec[field])
		}
		rows = append(rows, row)
	}

	if withJibun {
		if err = j.addJibun(ctx, records, rows, progress); err != nil {
			return Result{}, err
		}
	}

	progress.Stage("", 95)

	return finish(ctx, j.writer, j.archive, j.metrics, j.log, run, header, rows)
}

func (j *ApartmentJob) collect(ctx context.Context, batchSize int, progress Progress) ([]openapi.Record, error) {
	var records []openapi.Record

	for start := 1; ; start += batchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		end := start + batchSize - 1
		label := fmt.Sprintf("%d~%d", start, end)
		progress.Stage(label, collectPercent(start))
		j.log.InfoContext(ctx, "Fetching records", "start", start, "end", end)

		requestStart := time.Now()
		batch, err := j.fetcher.Fetch(ctx, start, end)
		j.metrics.RequestSeconds.WithLabelValues("openapi").Observe(time.Since(requestStart).Seconds())
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			j.log.ErrorContext(ctx, "Registry request failed, stopping collection", "error", err)
			return records, nil
		}

		if !batch.Found {
			if batch.Code != "" {
				j.log.InfoContext(ctx, "Registry message", "code", batch.Code, "message", batch.Message)
			}
			j.log.InfoContext(ctx, "No more data")
			return records, nil
		}

		records = append(records, batch.Records...)
		progress.SetRows(len(records))
		j.log.InfoContext(ctx, "Batch finished", "rows", len(batch.Records), "total", len(records))

		if len(batch.Records) < batchSize {
			return records, nil
		}

		sleep(ctx, j.batchPause)
	}
}

func (j *ApartmentJob) addJibun(ctx context.Context, records []openapi.Record, rows []models.Row, progress Progress) error {
	j.log.InfoContext(ctx, "Looking up jibun addresses", "total", len(records))

	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			return err
		}

		jibun := ""
		if road := rec[models.ApartmentRoadAddressField]; road != "" {
			addr, err := j.jibun.JibunAddress(ctx, road)
			if err != nil {
				j.log.DebugContext(ctx, "Jibun address unavailable", "road", road, "error", err)
				j.metrics.Enrichments.WithLabelValues("kakao_jibun", "failure").Inc()
			} else {
				jibun = addr
				j.metrics.Enrichments.WithLabelValues("kakao_jibun", "success").Inc()
			}
		}
		rows[i] = append(rows[i], jibun)

		if (i+1)%jibunLogEvery == 0 {
			progress.Stage("", 60+(i+1)*30/len(records))
			j.log.InfoContext(ctx, "Converting jibun addresses", "done", i+1, "total", len(records))
		}
	}

	j.log.InfoContext(ctx, "Jibun address lookup finished")

	return nil
}

// apartmentHeader returns the CSV header and the field read for each column:
// the known fields in their fixed order, then unknown fields sorted by code.
func apartmentHeader(records []openapi.Record) ([]string, []string) {
	header := make([]string, 0, len(models.ApartmentColumns))
	fields := make([]string, 0, len(models.ApartmentColumns))
	known := make(map[string]bool, len(models.ApartmentColumns))

	for _, col := range models.ApartmentColumns {
		header = append(header, col.Header)
		fields = append(fields, col.Field)
		known[col.Field] = true
	}

	var extra []string
	seen := map[string]bool{}
	for _, rec := range records {
		for field := range rec {
			if !known[field] && !seen[field] {
				seen[field] = true
				extra = append(extra, field)
			}
		}
	}
	slices.Sort(extra)

	return append(header, extra...), append(fields, extra...)
}

// collectPercent maps fetching onto the first half of the progress bar.
func collectPercent(start int) int {
	return min(start*50/3000, 50)
}
