// Package enrich appends road address and coordinates to scraped rows.
// Lookup failures never reach the caller: they become unavailable results
// and empty cells.
package enrich

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/UnknownOlympus/landscout/internal/geocoding"
	"github.com/UnknownOlympus/landscout/internal/metrics"
	"github.com/UnknownOlympus/landscout/internal/models"
)

// Lookup outcomes that do not come from a remote call.
var (
	ErrNotConfigured = errors.New("enrichment source not configured")
	ErrEmptyInput    = errors.New("nothing to look up")
	ErrNoCoordinates = errors.New("geocoder returned no coordinates")
)

// API labels used in metrics.
const (
	apiJuso = "juso"
)

// RoadConverter converts a jibun address into a road address.
type RoadConverter interface {
	ToRoadAddress(ctx context.Context, jibun string) (string, error)
}

// Result is the outcome of one lookup: a value, or the reason it is unavailable.
type Result[T any] struct {
	Value T
	Err   error
}

// Available reports whether the lookup produced a value.
func (r Result[T]) Available() bool {
	return r.Err == nil
}

func ok[T any](v T) Result[T] {
	return Result[T]{Value: v}
}

func unavailable[T any](err error) Result[T] {
	return Result[T]{Err: err}
}

// Enrichment holds the lookups made for one row.
type Enrichment struct {
	Road   Result[string]
	Coords Result[models.Coordinates]
}

// Cells renders the enrichment as the three trailing CSV cells: road address, latitude, longitude.
func (e Enrichment) Cells() []string {
	road, lat, lng := "", "", ""
	if e.Road.Available() {
		road = e.Road.Value
	}
	if e.Coords.Available() {
		lat = strconv.FormatFloat(e.Coords.Value.Latitude, 'f', -1, 64)
		lng = strconv.FormatFloat(e.Coords.Value.Longitude, 'f', -1, 64)
	}

	return []string{road, lat, lng}
}

// Enricher runs the address conversion and geocoding calls for each row, one at a time.
type Enricher struct {
	converter    RoadConverter      // nil when no juso key is configured
	geocoder     geocoding.Provider // nil when no geocoding key is configured
	geocoderName string             // provider label for metrics
	metrics      *metrics.Metrics
	log          *slog.Logger
}

// New creates an Enricher. Either source may be nil; its fields are then left empty.
func New(
	converter RoadConverter,
	geocoder geocoding.Provider,
	geocoderName string,
	metrics *metrics.Metrics,
	log *slog.Logger,
) *Enricher {
	return &Enricher{
		converter:    converter,
		geocoder:     geocoder,
		geocoderName: geocoderName,
		metrics:      metrics,
		log:          log,
	}
}

// Enrich returns a copy of row with road address, latitude and longitude appended.
func (e *Enricher) Enrich(ctx context.Context, row models.Row) models.Row {
	out := row.Clone()

	return append(out, e.Lookup(ctx, row.Address()).Cells()...)
}

// Lookup converts the jibun address and geocodes it. The jibun address is
// geocoded first; if that gives no coordinates and a road address is known,
// the road address is tried exactly once more.
func (e *Enricher) Lookup(ctx context.Context, jibun string) Enrichment {
	var res Enrichment

	res.Road = e.RoadAddress(ctx, jibun)
	road := ""
	if res.Road.Available() {
		road = res.Road.Value
	}

	search := jibun
	if search == "" {
		search = road
	}

	res.Coords = e.Coordinates(ctx, search)
	if !res.Coords.Available() && search == jibun && jibun != "" && road != "" {
		e.log.DebugContext(ctx, "Retrying geocoding with road address", "jibun", jibun, "road", road)
		res.Coords = e.Coordinates(ctx, road)
	}

	return res
}

// RoadAddress converts a jibun address. It never returns an error; failures are unavailable results.
func (e *Enricher) RoadAddress(ctx context.Context, jibun string) Result[string] {
	if e.converter == nil {
		return unavailable[string](ErrNotConfigured)
	}
	if jibun == "" {
		e.observe(apiJuso, "skipped")
		return unavailable[string](ErrEmptyInput)
	}

	startTime := time.Now()
	road, err := e.converter.ToRoadAddress(ctx, jibun)
	e.metrics.RequestSeconds.WithLabelValues(apiJuso).Observe(time.Since(startTime).Seconds())

	if err != nil {
		e.log.DebugContext(ctx, "Road address unavailable", "jibun", jibun, "error", err)
		e.observe(apiJuso, "failure")
		return unavailable[string](err)
	}

	e.observe(apiJuso, "success")

	return ok(road)
}

// Coordinates geocodes an address. It never returns an error; failures are unavailable results.
func (e *Enricher) Coordinates(ctx context.Context, address string) Result[models.Coordinates] {
	if e.geocoder == nil {
		return unavailable[models.Coordinates](ErrNotConfigured)
	}
	if address == "" {
		e.observe(e.geocoderName, "skipped")
		return unavailable[models.Coordinates](ErrEmptyInput)
	}

	startTime := time.Now()
	coords, err := e.geocoder.Geocode(ctx, address)
	e.metrics.RequestSeconds.WithLabelValues(e.geocoderName).Observe(time.Since(startTime).Seconds())

	if err != nil {
		e.log.DebugContext(ctx, "Coordinates unavailable", "address", address, "error", err)
		e.observe(e.geocoderName, "failure")
		return unavailable[models.Coordinates](err)
	}
	if coords == nil {
		e.observe(e.geocoderName, "failure")
		return unavailable[models.Coordinates](ErrNoCoordinates)
	}

	e.observe(e.geocoderName, "success")

	return ok(*coords)
}

func (e *Enricher) observe(api, outcome string) {
	e.metrics.Enrichments.WithLabelValues(api, outcome).Inc()
}
