package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

// Transport is one way to reach the info endpoint.
type Transport struct {
	Name string // For logging ("direct", "relay-1", ...)
	URL  string // Full endpoint URL, e.g. "https://api.hyperliquid.xyz/info"
}

// Client provides access to the Hyperliquid info API through an ordered
// transport chain.
type Client struct {
	transports []Transport
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// NewClient creates a client that talks to endpointURL directly.
// Fallback relays are added with WithFallbacks.
func NewClient(endpointURL string, opts ...ClientOption) *Client {
	c := &Client{
		transports: []Transport{{Name: "direct", URL: endpointURL}},
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Inf, 0),
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// WithFallbacks appends relay endpoints tried, in order, after the direct one.
func WithFallbacks(urls ...string) ClientOption {
	return func(c *Client) {
		for i, u := range urls {
			c.transports = append(c.transports, Transport{
				Name: "relay-" + strconv.Itoa(i+1),
				URL:  u,
			})
		}
	}
}

// WithTimeout sets the per-request HTTP timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithRateLimit caps outgoing requests at rps with the given burst.
func WithRateLimit(rps float64, burst int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
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
