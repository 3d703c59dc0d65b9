package scraper

import (
	"context"
	"iter"
	"log/slog"
	"time"

	"github.com/UnknownOlympus/landscout/internal/models"
)

// Batch is the rows of one results page.
type Batch struct {
	Page int
	Rows []models.Row
}

// Walker reads the results view page by page.
type Walker struct {
	page         Page
	log          *slog.Logger
	tableTimeout time.Duration
	pagePause    time.Duration
}

// NewWalker creates a walker over an already searched results view.
func NewWalker(page Page, tableTimeout, pagePause time.Duration, log *slog.Logger) *Walker {
	return &Walker{
		page:         page,
		log:          log,
		tableTimeout: tableTimeout,
		pagePause:    pagePause,
	}
}

// Pages yields one batch per results page. The sequence ends when the table
// is missing, holds no results, no link to the next page exists, or ctx is done.
// Failures end the sequence and are logged; they never abort the caller.
func (w *Walker) Pages(ctx context.Context) iter.Seq[Batch] {
	return func(yield func(Batch) bool) {
		for num := 1; ; num++ {
			if ctx.Err() != nil {
				return
			}

			if err := w.page.WaitVisible(ctx, ResultTable, w.tableTimeout); err != nil {
				w.log.WarnContext(ctx, "Result table not found", "page", num, "error", err)
				return
			}

			html, err := w.page.Content(ctx)
			if err != nil {
				w.log.WarnContext(ctx, "Failed to read result page", "page", num, "error", err)
				return
			}

			result, err := ParseResultPage(html)
			if err != nil {
				w.log.WarnContext(ctx, "Failed to parse result page", "page", num, "error", err)
				return
			}
			if !result.TableFound {
				w.log.WarnContext(ctx, "Result table not found", "page", num)
				return
			}
			if result.NoResults {
				w.log.InfoContext(ctx, "No data on page", "page", num)
				return
			}

			w.log.DebugContext(ctx, "Scraped page", "page", num, "rows", len(result.Rows))
			if !yield(Batch{Page: num, Rows: result.Rows}) {
				return
			}

			next, ok := result.NextPageSelector(num + 1)
			if !ok || ctx.Err() != nil {
				return
			}

			if err = w.page.Click(ctx, next); err != nil {
				w.log.WarnContext(ctx, "Pagination ended", "page", num, "error", err)
				return
			}
			w.page.Pause(ctx, w.pagePause)
		}
	}
}
