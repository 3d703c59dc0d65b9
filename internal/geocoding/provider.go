package geocoding

import (
	"context"
	"errors"
	"net/http"

	"github.com/UnknownOlympus/landscout/internal/models"
)

// Provider resolves an address to coordinates.
type Provider interface {
	Geocode(ctx context.Context, address string) (*models.Coordinates, error)
}

// HTTPClient is the part of *http.Client the providers use.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// ErrOutsideSeoul is returned when every match of a global geocoder lies outside Seoul.
var ErrOutsideSeoul = errors.New("no geocoding match inside Seoul")

// Seoul's bounding box. Every permit and apartment address lies inside it, so
// global geocoders are biased to it and their matches outside it are dropped.
const (
	seoulSouth = 37.41
	seoulWest  = 126.73
	seoulNorth = 37.72
	seoulEast  = 127.27
)

func inSeoul(lat, lng float64) bool {
	return lat >= seoulSouth && lat <= seoulNorth && lng >= seoulWest && lng <= seoulEast
}
