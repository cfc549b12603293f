package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

const defaultHTTPTimeout = 30 * time.Second

// Client is the grantmatch SDK entry point.
type Client struct {
	baseURL         string
	http            *http.Client
	pollInterval    time.Duration
	maxPollAttempts int
	obs             *observer
}

// New creates a Client for the API at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("grantmatch: invalid base url %q", baseURL)
	}

	cfg := &clientConfig{
		pollInterval:    DefaultPollInterval,
		maxPollAttempts: DefaultMaxPollAttempts,
	}
	for _, o := range opts {
		o.apply(cfg)
	}
	if cfg.httpClient == nil {
		cfg.httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	if cfg.pollInterval <= 0 {
		cfg.pollInterval = DefaultPollInterval
	}
	if cfg.maxPollAttempts <= 0 {
		cfg.maxPollAttempts = DefaultMaxPollAttempts
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	return &Client{
		baseURL:         strings.TrimRight(baseURL, "/"),
		http:            cfg.httpClient,
		pollInterval:    cfg.pollInterval,
		maxPollAttempts: cfg.maxPollAttempts,
		obs:             obs,
	}, nil
}

// Search runs a synchronous search.
func (c *Client) Search(ctx context.Context, query string) (*SearchResponse, error) {
	var out SearchResponse
	if err := c.do(ctx, "search", http.MethodPost, "/search", map[string]string{"query": query}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetSearchJob fetches the current state of a search job.
func (c *Client) GetSearchJob(ctx context.Context, id uuid.UUID) (*SearchJob, error) {
	var out SearchJob
	if err := c.do(ctx, "get_search_job", http.MethodGet, "/search-jobs/"+id.String(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Recommend asks for recommendations. prefs may be nil.
func (c *Client) Recommend(ctx context.Context, query string, prefs *Preferences) (*RecommendResponse, error) {
	body := struct {
		Query           string       `json:"query"`
		UserPreferences *Preferences `json:"userPreferences,omitempty"`
	}{Query: query, UserPreferences: prefs}

	var out RecommendResponse
	if err := c.do(ctx, "recommend", http.MethodPost, "/recommendations", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SimilarGrants lists grants resembling the grant with the given id.
func (c *Client) SimilarGrants(ctx context.Context, nofoID string) (*SimilarResponse, error) {
	var out SimilarResponse
	err := c.do(ctx, "similar_grants", http.MethodPost, "/grant-recommendations",
		map[string]string{"nofoId": nofoID}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Health fetches the dependency report. A degraded service still returns a report.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	var out Health
	err := c.do(ctx, "health", http.MethodGet, "/health", nil, &out)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusServiceUnavailable && out.Status != "" {
		return &out, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, body, out any) (err error) {
	start := time.Now()
	defer func() { c.obs.request(op, start, err) }()

	var reader io.Reader = http.NoBody
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: read response: %w", op, err)
	}

	if resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var e struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		if json.Unmarshal(data, &e) == nil && e.Code != "" {
			apiErr.Code, apiErr.Message = e.Code, e.Message
		} else {
			apiErr.Code, apiErr.Message = "http_error", http.StatusText(resp.StatusCode)
			// Non-error bodies (e.g. a degraded health report) are still decoded.
			_ = json.Unmarshal(data, out)
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}
