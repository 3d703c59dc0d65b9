// Package app builds the collection jobs from configuration. The command
// line and the web interface both run jobs through a Runner.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/UnknownOlympus/landscout/internal/config"
	"github.com/UnknownOlympus/landscout/internal/daterange"
	"github.com/UnknownOlympus/landscout/internal/enrich"
	"github.com/UnknownOlympus/landscout/internal/geocoding"
	"github.com/UnknownOlympus/landscout/internal/juso"
	"github.com/UnknownOlympus/landscout/internal/metrics"
	"github.com/UnknownOlympus/landscout/internal/openapi"
	"github.com/UnknownOlympus/landscout/internal/portal"
	"github.com/UnknownOlympus/landscout/internal/repository"
	"github.com/UnknownOlympus/landscout/internal/scraper"
	"github.com/UnknownOlympus/landscout/internal/service"
	"github.com/UnknownOlympus/landscout/internal/sink"
)

// browserTimeout bounds every navigation and element action of the portal page.
const browserTimeout = 30 * time.Second

// ErrMissingKey is returned when a job has no key for its data source.
var ErrMissingKey = errors.New("open data API key is required")

// LandOptions are the per-run settings of a land permit collection.
// Empty keys and directories fall back to the configuration.
type LandOptions struct {
	RunID     string
	Range     daterange.Range
	JusoKey   string
	KakaoKey  string
	OutputDir string
	Headless  bool
	Districts []string
}

// ApartmentOptions are the per-run settings of an apartment registry collection.
type ApartmentOptions struct {
	RunID     string
	APIKey    string
	KakaoKey  string
	OutputDir string
	BatchSize int
}

// Runner runs collection jobs with the configured collaborators.
type Runner struct {
	cfg     *config.Config
	log     *slog.Logger
	metrics *metrics.Metrics
	archive service.Archive
}

// NewRunner creates a runner. archive may be nil.
func NewRunner(cfg *config.Config, log *slog.Logger, metrics *metrics.Metrics, archive service.Archive) *Runner {
	return &Runner{cfg: cfg, log: log, metrics: metrics, archive: archive}
}

// RunLand opens a browser, walks the portal and writes the land permit CSV.
func (r *Runner) RunLand(ctx context.Context, opts LandOptions, progress service.Progress) (service.Result, error) {
	opts = r.landDefaults(opts)

	session, err := portal.Launch(ctx, portal.Options{
		Headless: opts.Headless,
		Timeout:  browserTimeout,
	}, r.log)
	if err != nil {
		return service.Result{}, err
	}
	defer func() {
		if errClose := session.Close(); errClose != nil {
			r.log.WarnContext(ctx, "Failed to close browser", "error", errClose)
		}
	}()

	driver := scraper.NewDriver(session, scraper.DriverConfig{
		URL:         r.cfg.Portal.URL,
		DateLayout:  r.cfg.Portal.DateLayout,
		SearchPause: r.cfg.Portal.SearchPause,
		PagePause:   r.cfg.Portal.PagePause,
	}, r.log)

	job := service.NewLandPermitJob(r.enricher(opts), sink.NewCSVWriter(opts.OutputDir, r.log), r.archive, r.metrics, r.log)

	return job.Run(ctx, driver, service.LandConfig{
		RunID:     opts.RunID,
		Range:     opts.Range,
		Districts: opts.Districts,
	}, progress)
}

// RunApartments reads the apartment registry and writes its CSV.
func (r *Runner) RunApartments(ctx context.Context, opts ApartmentOptions, progress service.Progress) (service.Result, error) {
	opts = r.apartmentDefaults(opts)
	if opts.APIKey == "" {
		return service.Result{}, ErrMissingKey
	}

	// A typed nil would make the lookup non-nil inside the job.
	var jibun service.JibunLookup
	if opts.KakaoKey != "" {
		jibun = geocoding.NewKakaoProvider(opts.KakaoKey, r.cfg.Geocoder.RateLimit, r.cfg.Geocoder.RequestTimeout, r.log)
	}

	job := service.NewApartmentJob(openapi.NewClient(opts.APIKey, r.log), jibun,
		sink.NewCSVWriter(opts.OutputDir, r.log), r.archive, r.metrics, r.log)

	return job.Run(ctx, service.ApartmentConfig{RunID: opts.RunID, BatchSize: opts.BatchSize}, progress)
}

func (r *Runner) landDefaults(opts LandOptions) LandOptions {
	if opts.JusoKey == "" {
		opts.JusoKey = r.cfg.Keys.Juso
	}
	if opts.KakaoKey == "" {
		opts.KakaoKey = r.cfg.Keys.Kakao
	}
	if opts.OutputDir == "" {
		opts.OutputDir = r.cfg.OutputDir
	}
	if len(opts.Districts) == 0 {
		opts.Districts = r.cfg.Portal.Districts
	}

	return opts
}

func (r *Runner) apartmentDefaults(opts ApartmentOptions) ApartmentOptions {
	if opts.APIKey == "" {
		opts.APIKey = r.cfg.Keys.OpenAPI
	}
	if opts.KakaoKey == "" {
		opts.KakaoKey = r.cfg.Keys.Kakao
	}
	if opts.OutputDir == "" {
		opts.OutputDir = r.cfg.OutputDir
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = r.cfg.Apartment.BatchSize
	}

	return opts
}

// enricher wires the juso converter and the configured geocoder. A source
// without credentials is left out and its columns stay empty.
func (r *Runner) enricher(opts LandOptions) *enrich.Enricher {
	var converter enrich.RoadConverter
	if opts.JusoKey != "" {
		converter = juso.NewClient(opts.JusoKey, r.cfg.Geocoder.RequestTimeout, r.log)
	} else {
		r.log.Warn("Road address key not set, road addresses will be empty")
	}

	providerType := geocoding.ProviderType(r.cfg.Geocoder.Type)
	key := opts.KakaoKey
	if providerType == geocoding.ProviderTypeGoogle {
		key = r.cfg.Keys.Google
	}

	geocoder, err := geocoding.NewProvider(geocoding.ProviderConfig{
		Type:      providerType,
		APIKey:    key,
		RateLimit: r.cfg.Geocoder.RateLimit,
		Timeout:   r.cfg.Geocoder.RequestTimeout,
		Logger:    r.log,
	})
	if err != nil {
		r.log.Warn("Geocoder unavailable, coordinates will be empty", "type", providerType, "error", err)
	}

	return enrich.New(converter, geocoder, string(providerType), r.metrics, r.log)
}

// OpenArchive connects to PostgreSQL and prepares the archive tables. The
// returned func closes the pool.
func OpenArchive(ctx context.Context, cfg config.PostgresConfig, log *slog.Logger) (*repository.Repository, func(), error) {
	pool, err := repository.NewDatabase(ctx, cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to archive database: %w", err)
	}

	repo := repository.NewRepository(pool, log)
	if err = repo.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}

	return repo, pool.Close, nil
}
