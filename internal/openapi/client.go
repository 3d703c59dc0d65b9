// Package openapi reads the apartment registry (OpenAptInfo) from the Seoul
// open data API in fixed-size batches.
package openapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	// BaseURL -- Seoul open data API root.
	BaseURL = "http://openapi.seoul.go.kr:8088"
	// Service is the apartment registry dataset.
	Service = "OpenAptInfo"
	// DefaultTimeout bounds one batch request.
	DefaultTimeout = 30 * time.Second
)

// Retry settings for transport failures.
const (
	DefaultMaxRetries      = 2
	InitialBackoffInterval = 500 * time.Millisecond
	MaxBackoffInterval     = 5 * time.Second
)

// ErrUnexpectedStatus is returned for non-200 responses.
var ErrUnexpectedStatus = errors.New("open data API returned unexpected status")

// Record is one apartment row keyed by API field code.
type Record map[string]string

// Batch is one response of the registry.
type Batch struct {
	// Found is false when the response has no dataset section, which ends the collection.
	Found   bool
	Code    string // Code is RESULT.CODE, e.g. INFO-000.
	Message string // Message is RESULT.MESSAGE.
	Total   int    // Total is list_total_count.
	Records []Record
}

// HTTPClient defines the interface for making HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client fetches registry batches.
type Client struct {
	client     HTTPClient
	baseURL    string
	apiKey     string
	log        *slog.Logger
	maxRetries uint64
	interval   time.Duration
}

type result struct {
	Code    string `json:"CODE"`
	Message string `json:"MESSAGE"`
}

type response struct {
	Result  *result `json:"RESULT"`
	Dataset *struct {
		Total  int                          `json:"list_total_count"`
		Result *result                      `json:"RESULT"`
		Rows   []map[string]json.RawMessage `json:"row"`
	} `json:"OpenAptInfo"`
}

// NewClient creates a client with a plain http.Client.
func NewClient(apiKey string, log *slog.Logger) *Client {
	return NewClientWithHTTP(&http.Client{Timeout: DefaultTimeout}, apiKey, log)
}

// NewClientWithHTTP allows injecting custom HTTP client.
func NewClientWithHTTP(client HTTPClient, apiKey string, log *slog.Logger) *Client {
	return &Client{
		client:     client,
		baseURL:    BaseURL,
		apiKey:     apiKey,
		log:        log,
		maxRetries: DefaultMaxRetries,
		interval:   InitialBackoffInterval,
	}
}

// WithRetry overrides the retry count and the first backoff interval.
func (c *Client) WithRetry(maxRetries uint64, interval time.Duration) *Client {
	c.maxRetries = maxRetries
	c.interval = interval
	return c
}

// Fetch reads records start through end (1-based, inclusive).
// Transport failures and 5xx answers are retried with exponential backoff.
func (c *Client) Fetch(ctx context.Context, start, end int) (*Batch, error) {
	reqURL, err := url.JoinPath(c.baseURL, url.PathEscape(c.apiKey), "json", Service, fmt.Sprint(start), fmt.Sprint(end))
	if err != nil {
		return nil, fmt.Errorf("failed to build request URL: %w", err)
	}
	reqURL += "/"

	var batch *Batch
	err = c.retry(ctx, func() error {
		var errFetch error
		batch, errFetch = c.fetch(ctx, reqURL)
		return errFetch
	})
	if err != nil {
		return nil, err
	}

	return batch, nil
}

func (c *Client) fetch(ctx context.Context, reqURL string) (*Batch, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute registry request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode >= http.StatusInternalServerError:
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	default:
		return nil, backoff.Permanent(fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode))
	}

	var body response
	if err = json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to decode registry response: %w", err))
	}

	batch := &Batch{}
	if body.Result != nil {
		batch.Code, batch.Message = body.Result.Code, body.Result.Message
	}
	if body.Dataset == nil {
		return batch, nil
	}

	batch.Found = true
	batch.Total = body.Dataset.Total
	if body.Dataset.Result != nil {
		batch.Code, batch.Message = body.Dataset.Result.Code, body.Dataset.Result.Message
	}
	for _, row := range body.Dataset.Rows {
		batch.Records = append(batch.Records, toRecord(row))
	}

	return batch, nil
}

func (c *Client) retry(ctx context.Context, op func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.interval
	b.MaxInterval = MaxBackoffInterval

	bo := backoff.WithContext(backoff.WithMaxRetries(b, c.maxRetries), ctx)

	notify := func(err error, wait time.Duration) {
		c.log.WarnContext(ctx, "Registry request failed, retrying", "error", err, "wait", wait)
	}

	return backoff.RetryNotify(op, bo, notify)
}

// toRecord renders every field as text: strings as-is, numbers in their JSON form, null as empty.
func toRecord(row map[string]json.RawMessage) Record {
	rec := make(Record, len(row))
	for key, raw := range row {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			rec[key] = s
			continue
		}
		value := strings.TrimSpace(string(raw))
		if value == "null" {
			value = ""
		}
		rec[key] = value
	}

	return rec
}
