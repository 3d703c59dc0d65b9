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

// KakaoBaseURL -- Kakao local address search endpoint.
const KakaoBaseURL = "https://dapi.kakao.com/v2/local/search/address.json"

// KakaoProvider implements geocoding using the Kakao local REST API.
type KakaoProvider struct {
	client  HTTPClient    // HTTP client for making requests
	baseURL string        // Base URL for the Kakao API
	apiKey  string        // REST API key sent as "KakaoAK <key>"
	log     *slog.Logger  // Logger for logging operations
	limiter *rate.Limiter // Rate limiter
}

// Common errors for Kakao provider.
var (
	ErrKakaoEmptyResponse = errors.New("kakao API returned no documents")
	ErrKakaoEmptyAddress  = errors.New("kakao provider got empty address")
	ErrKakaoInvalidCoords = errors.New("kakao API returned invalid coordinates")
	ErrKakaoUnauthorized  = errors.New("kakao API unauthorized (invalid API key)")
)

// kakaoResponse is the part of the address search response the collector reads.
type kakaoResponse struct {
	Documents []kakaoDocument `json:"documents"`
}

type kakaoDocument struct {
	AddressName string `json:"address_name"`
	X           string `json:"x"` // longitude
	Y           string `json:"y"` // latitude
	Address     *struct {
		AddressName string `json:"address_name"`
	} `json:"address"`
}

// NewKakaoProvider creates a new Kakao geocoding provider.
func NewKakaoProvider(apiKey string, rateLimit int, timeout time.Duration, log *slog.Logger) *KakaoProvider {
	return &KakaoProvider{
		client: &http.Client{
			Timeout: timeout,
		},
		baseURL: KakaoBaseURL,
		apiKey:  apiKey,
		log:     log,
		limiter: rate.NewLimiter(rate.Limit(rateLimit), rateLimit),
	}
}

// NewKakaoProviderWithClient allows injecting custom HTTP client.
func NewKakaoProviderWithClient(
	client HTTPClient,
	apiKey string,
	limiter *rate.Limiter,
	log *slog.Logger,
) *KakaoProvider {
	return &KakaoProvider{
		client:  client,
		baseURL: KakaoBaseURL,
		apiKey:  apiKey,
		log:     log,
		limiter: limiter,
	}
}

// Geocode converts an address into coordinates using the first document's y/x fields.
func (kp *KakaoProvider) Geocode(ctx context.Context, address string) (*models.Coordinates, error) {
	doc, err := kp.search(ctx, address)
	if err != nil {
		return nil, err
	}

	lat, err := strconv.ParseFloat(doc.Y, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid latitude: %q", ErrKakaoInvalidCoords, doc.Y)
	}

	lon, err := strconv.ParseFloat(doc.X, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid longitude: %q", ErrKakaoInvalidCoords, doc.X)
	}

	kp.log.DebugContext(ctx, "Kakao found result", "address", address, "lat", lat, "lon", lon)

	return &models.Coordinates{
		Latitude:  lat,
		Longitude: lon,
	}, nil
}

// JibunAddress looks up the lot-number address of a road address. It prefers
// the document's nested jibun address and falls back to its address_name.
func (kp *KakaoProvider) JibunAddress(ctx context.Context, roadAddress string) (string, error) {
	doc, err := kp.search(ctx, roadAddress)
	if err != nil {
		return "", err
	}

	if doc.Address != nil && doc.Address.AddressName != "" {
		return doc.Address.AddressName, nil
	}

	return doc.AddressName, nil
}

func (kp *KakaoProvider) search(ctx context.Context, address string) (*kakaoDocument, error) {
	if err := kp.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit exceeded: %w", err)
	}

	if address == "" {
		return nil, ErrKakaoEmptyAddress
	}

	reqURL, err := url.Parse(kp.baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL: %w", err)
	}

	query := reqURL.Query()
	query.Set("query", address)
	reqURL.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "KakaoAK "+kp.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := kp.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute geocoding request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		// continue
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, ErrKakaoUnauthorized
	default:
		body, _ := io.ReadAll(resp.Body)
		kp.log.DebugContext(ctx, "Kakao API error", "status", resp.StatusCode, "body", string(body))
		return nil, fmt.Errorf("kakao API returned status %d: %s", resp.StatusCode, string(body))
	}

	var result kakaoResponse
	if err = json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode kakao response: %w", err)
	}

	if len(result.Documents) == 0 {
		return nil, ErrKakaoEmptyResponse
	}

	return &result.Documents[0], nil
}
