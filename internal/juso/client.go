// Package juso converts jibun addresses into road addresses with the
// business.juso.go.kr address search API.
package juso

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// BaseURL -- road address search endpoint.
const BaseURL = "https://business.juso.go.kr/addrlink/addrLinkApi.do"

// Common errors for the juso client.
var (
	ErrEmptyKeyword = errors.New("juso client got empty keyword")
	ErrJusoAPI      = errors.New("juso API returned an error code")
	ErrNoResults    = errors.New("juso API returned no addresses")
)

// HTTPClient defines the interface for making HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client calls the road address API with a single confirmation key.
type Client struct {
	client  HTTPClient
	baseURL string
	apiKey  string
	log     *slog.Logger
}

type response struct {
	Results struct {
		Common struct {
			ErrorCode    string `json:"errorCode"`
			ErrorMessage string `json:"errorMessage"`
			TotalCount   string `json:"totalCount"`
		} `json:"common"`
		Juso []struct {
			RoadAddr  string `json:"roadAddr"`
			JibunAddr string `json:"jibunAddr"`
		} `json:"juso"`
	} `json:"results"`
}

// NewClient creates a juso client with a plain http.Client bounded by timeout.
func NewClient(apiKey string, timeout time.Duration, log *slog.Logger) *Client {
	return NewClientWithHTTP(&http.Client{Timeout: timeout}, apiKey, log)
}

// NewClientWithHTTP allows injecting custom HTTP client.
func NewClientWithHTTP(client HTTPClient, apiKey string, log *slog.Logger) *Client {
	return &Client{
		client:  client,
		baseURL: BaseURL,
		apiKey:  apiKey,
		log:     log,
	}
}

// ToRoadAddress returns the first road address the API finds for a jibun address.
// Success requires HTTP 200, errorCode "0" and at least one result.
func (c *Client) ToRoadAddress(ctx context.Context, jibun string) (string, error) {
	if jibun == "" {
		return "", ErrEmptyKeyword
	}

	reqURL, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse base URL: %w", err)
	}

	query := reqURL.Query()
	query.Set("confmKey", c.apiKey)
	query.Set("currentPage", "1")
	query.Set("countPerPage", "1")
	query.Set("keyword", jibun)
	query.Set("resultType", "json")
	reqURL.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to execute address request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("juso API returned status %d", resp.StatusCode)
	}

	var result response
	if err = json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode juso response: %w", err)
	}

	common := result.Results.Common
	if common.ErrorCode != "0" {
		return "", fmt.Errorf("%w: %s %s", ErrJusoAPI, common.ErrorCode, common.ErrorMessage)
	}

	if len(result.Results.Juso) == 0 {
		return "", ErrNoResults
	}

	road := result.Results.Juso[0].RoadAddr
	c.log.DebugContext(ctx, "Juso found road address", "jibun", jibun, "road", road)

	return road, nil
}
