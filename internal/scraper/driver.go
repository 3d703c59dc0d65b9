package scraper

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"slices"
	"time"

	"github.com/UnknownOlympus/landscout/internal/daterange"
	"github.com/UnknownOlympus/landscout/internal/models"
)

// DefaultTableTimeout is how long the results table may take to appear.
const DefaultTableTimeout = 5 * time.Second

// DriverConfig holds the portal address and the waits between interactions.
type DriverConfig struct {
	URL          string
	DateLayout   string
	SearchPause  time.Duration
	PagePause    time.Duration
	TableTimeout time.Duration
}

// Driver runs the select district, fill dates, search and paginate cycle on one page.
type Driver struct {
	page Page
	cfg  DriverConfig
	log  *slog.Logger
}

// NewDriver creates a driver. Zero timeouts and layouts fall back to the portal defaults.
func NewDriver(page Page, cfg DriverConfig, log *slog.Logger) *Driver {
	if cfg.TableTimeout <= 0 {
		cfg.TableTimeout = DefaultTableTimeout
	}
	if cfg.DateLayout == "" {
		cfg.DateLayout = daterange.DashedLayout
	}

	return &Driver{page: page, cfg: cfg, log: log}
}

// Districts loads the search form and returns its district options. If the
// form exposes none, the literal Seoul list is used. A non-empty only list
// keeps just those codes.
func (d *Driver) Districts(ctx context.Context, only []string) ([]models.District, error) {
	if err := d.load(ctx); err != nil {
		return nil, err
	}

	html, err := d.page.Content(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read search form: %w", err)
	}

	districts, err := ParseDistricts(html)
	if err != nil {
		return nil, err
	}
	if len(districts) == 0 {
		d.log.WarnContext(ctx, "District select has no options, using the built-in list")
		districts = slices.Clone(models.SeoulDistricts)
	}

	if len(only) > 0 {
		districts = slices.DeleteFunc(districts, func(district models.District) bool {
			return !slices.Contains(only, district.Code)
		})
	}

	return districts, nil
}

// Search reloads the form, selects the district, fills the date range and submits it.
// The portal session expires quickly, so the form is reloaded for every district.
func (d *Driver) Search(ctx context.Context, district models.District, rng daterange.Range) error {
	if err := d.load(ctx); err != nil {
		return err
	}

	if err := d.page.Select(ctx, DistrictSelect, district.Code); err != nil {
		return fmt.Errorf("failed to select district %s: %w", district.Code, err)
	}

	start, end := rng.Format(d.cfg.DateLayout)
	if err := d.page.Fill(ctx, StartDateInput, start); err != nil {
		return fmt.Errorf("failed to fill start date: %w", err)
	}
	if err := d.page.Fill(ctx, EndDateInput, end); err != nil {
		return fmt.Errorf("failed to fill end date: %w", err)
	}

	if err := d.page.Click(ctx, SearchButton); err != nil {
		return fmt.Errorf("failed to submit search: %w", err)
	}
	d.page.Pause(ctx, d.cfg.SearchPause)

	return nil
}

// Pages walks the results of the last search.
func (d *Driver) Pages(ctx context.Context) iter.Seq[Batch] {
	return NewWalker(d.page, d.cfg.TableTimeout, d.cfg.PagePause, d.log).Pages(ctx)
}

func (d *Driver) load(ctx context.Context) error {
	if err := d.page.Goto(ctx, d.cfg.URL); err != nil {
		return fmt.Errorf("failed to open portal: %w", err)
	}
	if err := d.page.WaitVisible(ctx, DistrictSelect, d.cfg.TableTimeout); err != nil {
		return fmt.Errorf("search form did not load: %w", err)
	}

	return nil
}
