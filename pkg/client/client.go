// Package client provides the HTTP docstore backend with rate limiting,
// retries, and error classification. It implements resource.Backend and is
// the collaborator the cached access layer delegates to on a cache miss.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/arcstore/docstore-client/pkg/ratelimit"
	"github.com/arcstore/docstore-client/pkg/resource"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for docstore API operations.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "docstore_requests_total",
		Help: "Total docstore API requests by endpoint and status",
	}, []string{"endpoint", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "docstore_request_duration_seconds",
		Help:    "Docstore API request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "docstore_errors_total",
		Help: "Total docstore API errors by class",
	}, []string{"class"})
)

// Config holds the client configuration.
type Config struct {
	// BaseURL of the docstore API, e.g. "https://docs.example.com".
	BaseURL string

	// UserAgent header sent with every request.
	UserAgent string

	// Timeout per HTTP request.
	Timeout time.Duration

	// RateLimit is the sustained client-side request rate per second.
	// Zero disables client-side pacing.
	RateLimit float64

	// RateBurst is the rate limiter burst size.
	RateBurst int

	// Retry overrides the backoff schedule for retriable errors when its
	// MaxAttempts is set. The zero value selects the per-class schedule
	// from RetryConfigForErrorClass.
	Retry RetryConfig
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:   baseURL,
		UserAgent: "docstore-client/0.1.0",
		Timeout:   30 * time.Second,
		RateLimit: 10,
		RateBurst: 5,
	}
}

// Client is the HTTP docstore API client.
type Client struct {
	httpClient *http.Client
	gate       *ratelimit.Gate
	config     Config
	logger     zerolog.Logger
}

// Interface guard: the client is the service's fetch collaborator.
var _ resource.Backend = (*Client)(nil)

// New creates a new docstore client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	logger := log.With().Str("component", "docstore-client").Logger()

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		gate:   ratelimit.NewGate(cfg.RateLimit, cfg.RateBurst, logger),
		config: cfg,
		logger: logger,
	}, nil
}

// FetchDocument retrieves document metadata by id.
func (c *Client) FetchDocument(ctx context.Context, id string) (*resource.Document, error) {
	var doc resource.Document
	endpoint := "/v1/documents/" + url.PathEscape(id)
	if err := c.do(ctx, http.MethodGet, endpoint, nil, nil, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Search executes a search query and returns the requested page.
func (c *Client) Search(ctx context.Context, req resource.SearchRequest) (*resource.SearchResult, error) {
	query := url.Values{}
	query.Set("q", req.Query)
	if req.Sort != "" {
		query.Set("sort", req.Sort)
	}
	if req.Page > 0 {
		query.Set("page", strconv.Itoa(req.Page))
	}
	if req.PageSize > 0 {
		query.Set("per", strconv.Itoa(req.PageSize))
	}
	for key, value := range req.Filters {
		query.Set("f."+key, value)
	}

	var result resource.SearchResult
	if err := c.do(ctx, http.MethodGet, "/v1/search", query, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// uploadRequest is the wire form of a document upload.
type uploadRequest struct {
	Document *resource.Document `json:"document"`
	Content  []byte             `json:"content"` // base64 on the wire
}

// Upload stores a new document and returns the saved record.
func (c *Client) Upload(ctx context.Context, doc *resource.Document, content []byte) (*resource.Document, error) {
	var saved resource.Document
	body := uploadRequest{Document: doc, Content: content}
	if err := c.do(ctx, http.MethodPost, "/v1/documents", nil, body, &saved); err != nil {
		return nil, err
	}
	return &saved, nil
}

// Approve marks a pending document as approved.
func (c *Client) Approve(ctx context.Context, id string) error {
	endpoint := "/v1/documents/" + url.PathEscape(id) + "/approve"
	return c.do(ctx, http.MethodPost, endpoint, nil, nil, nil)
}

// Delete removes a document.
func (c *Client) Delete(ctx context.Context, id string) error {
	endpoint := "/v1/documents/" + url.PathEscape(id)
	return c.do(ctx, http.MethodDelete, endpoint, nil, nil, nil)
}

// retryConfigFor selects the retry schedule for a failure: an explicit
// config from the caller wins, otherwise the per-class defaults apply.
func (c *Client) retryConfigFor(errorClass ErrorClass) RetryConfig {
	if c.config.Retry.MaxAttempts > 0 {
		return c.config.Retry
	}
	return RetryConfigForErrorClass(errorClass)
}

// do performs one API call with rate limiting, retries, and error
// classification, decoding a successful JSON response into out.
func (c *Client) do(ctx context.Context, method, endpoint string, query url.Values, body any, out any) error {
	startTime := time.Now()
	defer func() {
		requestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	if err := c.gate.Wait(ctx); err != nil {
		return err
	}

	var bodyBytes []byte
	if body != nil {
		var err error
		bodyBytes, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
	}

	reqURL := c.config.BaseURL + endpoint
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	c.logger.Debug().
		Str("endpoint", endpoint).
		Str("method", method).
		Msg("Executing docstore request")

	return retryWithBackoff(ctx, c.retryConfigFor, func() (ErrorClass, error) {
		var reader io.Reader
		if bodyBytes != nil {
			reader = bytes.NewReader(bodyBytes)
		}

		req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
		if err != nil {
			return ErrorClassClient, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("User-Agent", c.config.UserAgent)
		req.Header.Set("Accept", "application/json")
		if bodyBytes != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.logger.Error().Err(err).Str("endpoint", endpoint).Msg("HTTP request failed")
			errorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
			requestsTotal.WithLabelValues(endpoint, "network_error").Inc()
			return ErrorClassNetwork, err
		}
		defer resp.Body.Close()

		requestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

		if resp.StatusCode >= 400 {
			errClass := classifyStatus(resp.StatusCode)
			errorsTotal.WithLabelValues(string(errClass)).Inc()

			c.logger.Warn().
				Str("endpoint", endpoint).
				Int("status", resp.StatusCode).
				Str("error_class", string(errClass)).
				Msg("Docstore request error")

			apiErr := &APIError{
				StatusCode: resp.StatusCode,
				ErrorClass: errClass,
				Message:    resp.Status,
			}
			if resp.StatusCode == http.StatusNotFound {
				apiErr.Err = ErrNotFound
			}
			return errClass, apiErr
		}

		if out != nil {
			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				return ErrorClassClient, fmt.Errorf("decode response: %w", err)
			}
		}
		return "", nil
	})
}
