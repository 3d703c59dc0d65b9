package geocoding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/UnknownOlympus/landscout/internal/models"
	"googlemaps.github.io/maps"
)

// GoogleProvider geocodes Seoul addresses through the Google Maps Geocoding API.
type GoogleProvider struct {
	client GoogleAPIClient
	log    *slog.Logger
}

// GoogleAPIClient is the part of *maps.Client the provider uses.
type GoogleAPIClient interface {
	Geocode(ctx context.Context, r *maps.GeocodingRequest) ([]maps.GeocodingResult, error)
}

var (
	// ErrEmptyResponse is returned when Google finds nothing for the address.
	ErrEmptyResponse = errors.New("google maps API returned no results")
	// ErrGoogleEmptyAddress is returned for a blank address, before any request is made.
	ErrGoogleEmptyAddress = errors.New("google provider got empty address")
)

// NewGoogleProvider wraps a Google Maps client.
func NewGoogleProvider(client GoogleAPIClient, log *slog.Logger) *GoogleProvider {
	return &GoogleProvider{client: client, log: log}
}

// GoogleRequest builds the geocoding request for address: Korean results,
// restricted to Korea and biased to the Seoul bounding box.
func GoogleRequest(address string) *maps.GeocodingRequest {
	return &maps.GeocodingRequest{
		Address:    address,
		Components: map[maps.Component]string{maps.ComponentCountry: "KR"},
		Bounds: &maps.LatLngBounds{
			NorthEast: maps.LatLng{Lat: seoulNorth, Lng: seoulEast},
			SouthWest: maps.LatLng{Lat: seoulSouth, Lng: seoulWest},
		},
		Region:   "kr",
		Language: "ko",
	}
}

// Geocode returns the location of the first match inside Seoul.
func (gp *GoogleProvider) Geocode(ctx context.Context, address string) (*models.Coordinates, error) {
	if address == "" {
		return nil, ErrGoogleEmptyAddress
	}

	results, err := gp.client.Geocode(ctx, GoogleRequest(address))
	if err != nil {
		return nil, fmt.Errorf("failed to geocode address: %w", err)
	}
	if len(results) == 0 {
		return nil, ErrEmptyResponse
	}

	for _, res := range results {
		loc := res.Geometry.Location
		if !inSeoul(loc.Lat, loc.Lng) {
			continue
		}
		if res.PartialMatch {
			gp.log.DebugContext(ctx, "Google returned a partial match", "address", address, "match", res.FormattedAddress)
		}

		return &models.Coordinates{Latitude: loc.Lat, Longitude: loc.Lng}, nil
	}

	return nil, fmt.Errorf("%w: %d results for %q", ErrOutsideSeoul, len(results), address)
}
