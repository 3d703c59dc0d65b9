package geocoding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/UnknownOlympus/landscout/internal/models"
	"golang.org/x/time/rate"
)

// NominatimProvider geocodes through OpenStreetMap's Nominatim search. It needs
// no key, so it serves as the keyless alternative to Kakao. Korean lot numbers
// are poorly covered by OSM, expect more misses than with Kakao.
type NominatimProvider struct {
	client    HTTPClient
	baseURL   string
	userAgent string // required by the Nominatim usage policy
	log       *slog.Logger
	limiter   *rate.Limiter
}

type nominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

const (
	nominatimBaseURL    = "https://nominatim.openstreetmap.org/search"
	nominatimUserAgent  = "landscout/1.0 (https://github.com/UnknownOlympus/landscout)"
	nominatimCandidates = 3
)

// Common errors for Nominatim provider.
var (
	ErrNominatimEmptyResponse = errors.New("nominatim API returned empty response")
	ErrNominatimEmptyAddress  = errors.New("nominatim provider got empty address")
	ErrNominatimInvalidCoords = errors.New("nominatim API returned invalid coordinates")
)

// nominatimViewbox is Seoul's bounding box as lon,lat,lon,lat.
var nominatimViewbox = fmt.Sprintf("%g,%g,%g,%g", seoulWest, seoulNorth, seoulEast, seoulSouth)

// NewNominatimProvider creates a Nominatim provider.
func NewNominatimProvider(timeout time.Duration, log *slog.Logger) *NominatimProvider {
	return NewNominatimProviderWithClient(&http.Client{Timeout: timeout}, log)
}

// NewNominatimProviderWithClient creates a Nominatim provider with a custom
// HTTP client. Requests are limited to one per second whatever the configured
// rate, as the public instance demands.
func NewNominatimProviderWithClient(client HTTPClient, log *slog.Logger) *NominatimProvider {
	return &NominatimProvider{
		client:    client,
		baseURL:   nominatimBaseURL,
		userAgent: nominatimUserAgent,
		log:       log,
		limiter:   rate.NewLimiter(rate.Every(time.Second), 1),
	}
}

// Geocode searches inside the Seoul viewbox and returns the first candidate
// that really lies in Seoul.
func (np *NominatimProvider) Geocode(ctx context.Context, address string) (*models.Coordinates, error) {
	if address == "" {
		return nil, ErrNominatimEmptyAddress
	}
	if err := np.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit exceeded: %w", err)
	}

	places, err := np.search(ctx, address)
	if err != nil {
		return nil, err
	}
	if len(places) == 0 {
		return nil, ErrNominatimEmptyResponse
	}

	for _, place := range places {
		lat, errLat := strconv.ParseFloat(place.Lat, 64)
		lon, errLon := strconv.ParseFloat(place.Lon, 64)
		if errLat != nil || errLon != nil {
			return nil, fmt.Errorf("%w: %q,%q", ErrNominatimInvalidCoords, place.Lat, place.Lon)
		}
		if !inSeoul(lat, lon) {
			np.log.DebugContext(ctx, "Nominatim match outside Seoul skipped", "address", address, "match", place.DisplayName)
			continue
		}

		return &models.Coordinates{Latitude: lat, Longitude: lon}, nil
	}

	return nil, fmt.Errorf("%w: %d candidates for %q", ErrOutsideSeoul, len(places), address)
}

func (np *NominatimProvider) search(ctx context.Context, address string) ([]nominatimPlace, error) {
	reqURL, err := url.Parse(np.baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL: %w", err)
	}

	query := reqURL.Query()
	query.Set("q", address)
	query.Set("format", "json")
	query.Set("limit", strconv.Itoa(nominatimCandidates))
	query.Set("countrycodes", "kr")
	query.Set("viewbox", nominatimViewbox)
	query.Set("bounded", "1")
	query.Set("accept-language", "ko")
	reqURL.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", np.userAgent)

	resp, err := np.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute geocoding request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("nominatim API returned status %d: %s", resp.StatusCode, body)
	}

	var places []nominatimPlace
	if err = json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return nil, fmt.Errorf("failed to decode nominatim response: %w", err)
	}

	return places, nil
}
