// Package downloader fetches historical quotes from the Yahoo Finance chart
// API and returns one price field as a series.
package downloader

import (
	"context"
	"net/http"
	"time"

	"github.com/Exarkun1/pylab4/internal/analytics"
	"github.com/Exarkun1/pylab4/internal/logging"
	"github.com/Exarkun1/pylab4/internal/utils"
)

// DefaultBaseURL is the public Yahoo Finance chart endpoint.
const DefaultBaseURL = "https://query1.finance.yahoo.com"

// Downloader returns the price series of a symbol over the lookback period
// ending now, sampled at interval.
type Downloader interface {
	Download(ctx context.Context, symbol string, lookback time.Duration, interval string) (*analytics.Series, error)
}

// Client is a Downloader backed by the Yahoo Finance chart API.
type Client struct {
	baseURL    string
	userAgent  string
	field      Field
	httpClient *http.Client
	logger     *logging.Logger
	now        func() time.Time

	maxRetries   int
	retryBackoff time.Duration
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// NewClient creates a chart API client.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:   baseURL,
		userAgent: "Mozilla/5.0 (compatible; tsanalyser)",
		field:     FieldOpen,
		httpClient: &http.Client{
			Timeout: utils.DownloadTimeout,
		},
		logger:       logging.Global().With("component", "downloader"),
		now:          time.Now,
		maxRetries:   utils.DefaultMaxRetries,
		retryBackoff: utils.DefaultRetryBackoff,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithRetries sets the retry configuration.
func WithRetries(max int, backoff time.Duration) ClientOption {
	return func(c *Client) {
		c.maxRetries = max
		c.retryBackoff = backoff
	}
}

// WithLogger sets the logger.
func WithLogger(logger *logging.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithField selects the quote field returned by Download.
func WithField(f Field) ClientOption {
	return func(c *Client) {
		c.field = f
	}
}

// WithUserAgent overrides the User-Agent header. Empty keeps the default.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithClock replaces the clock used to compute the start of the lookback window.
func WithClock(now func() time.Time) ClientOption {
	return func(c *Client) {
		c.now = now
	}
}
