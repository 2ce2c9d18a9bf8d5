package rpc

import (
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// NewHTTPClient builds the HTTP client shared by a chain's RPC adapter. Every
// request waits on the limiter, carries the API key as a bearer token when one
// is configured, and is bounded by timeout.
func NewHTTPClient(apiKey string, rateLimit float64, timeout time.Duration, logger *zerolog.Logger) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &CustomTransport{
			Base:        http.DefaultTransport,
			ApiKey:      apiKey,
			RateLimiter: rate.NewLimiter(rate.Limit(rateLimit), 1),
			Logger:      logger,
		},
	}
}

// CustomTransport adds rate limiting and API key authentication to HTTP requests
type CustomTransport struct {
	Base        http.RoundTripper
	ApiKey      string
	RateLimiter *rate.Limiter
	Logger      *zerolog.Logger
}

func (t *CustomTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.RateLimiter != nil {
		if err := t.RateLimiter.Wait(req.Context()); err != nil {
			return nil, fmt.Errorf("rate limit error: %w", err)
		}
	}

	// RoundTrippers must not modify the caller's request
	req = req.Clone(req.Context())
	req.Header.Set("Content-Type", "application/json")
	if t.ApiKey != "" {
		req.Header.Set("Authorization", "Bearer "+t.ApiKey)
	}

	if t.Logger != nil {
		t.Logger.Trace().
			Str("url", req.URL.Redacted()).
			Str("method", req.Method).
			Msg("Making RPC call")
	}

	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(req)
}
