// Package sink writes collected rows to a date-stamped CSV file.
package sink

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/UnknownOlympus/landscout/internal/models"
)

// bom makes spreadsheet applications read the file as UTF-8.
const bom = "\xEF\xBB\xBF"

// stampLayout is the YYMMDD suffix of the file name.
const stampLayout = "060102"

// CSVWriter saves one table per run.
type CSVWriter struct {
	dir string
	log *slog.Logger
	now func() time.Time
}

// NewCSVWriter creates a writer that saves into dir.
func NewCSVWriter(dir string, log *slog.Logger) *CSVWriter {
	return &CSVWriter{dir: dir, log: log, now: time.Now}
}

// WithClock replaces the clock used for the file name.
func (w *CSVWriter) WithClock(now func() time.Time) *CSVWriter {
	w.now = now
	return w
}

// FileName returns "<dataset>_<YYMMDD>.csv" for the local date of t.
func FileName(dataset string, t time.Time) string {
	return dataset + "_" + t.Local().Format(stampLayout) + ".csv"
}

// Write saves the header and rows and returns the file path. Every row is
// fitted to the header width: short rows are padded, long rows truncated.
// If the output directory cannot be created the file goes to the working directory.
func (w *CSVWriter) Write(ctx context.Context, dataset string, header []string, rows []models.Row) (string, error) {
	dir := w.dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		w.log.WarnContext(ctx, "Failed to create output directory, saving to working directory",
			"dir", dir, "error", err)
		dir = "."
	}

	path := filepath.Join(dir, FileName(dataset, w.now()))

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	if _, err = f.WriteString(bom); err != nil {
		return "", fmt.Errorf("failed to write byte order mark: %w", err)
	}

	cw := csv.NewWriter(f)
	if err = cw.Write(header); err != nil {
		return "", fmt.Errorf("failed to write header: %w", err)
	}

	for i, row := range rows {
		if len(row) != len(header) {
			w.log.DebugContext(ctx, "Row width differs from header", "row", i, "cells", len(row), "columns", len(header))
		}
		if err = cw.Write(fit(row, len(header))); err != nil {
			return "", fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}

	cw.Flush()
	if err = cw.Error(); err != nil {
		return "", fmt.Errorf("failed to flush output file: %w", err)
	}

	w.log.InfoContext(ctx, "Saved CSV file", "path", path, "rows", len(rows))

	return path, nil
}

func fit(row models.Row, width int) []string {
	if len(row) >= width {
		return row[:width]
	}

	out := make([]string, width)
	copy(out, row)

	return out
}
