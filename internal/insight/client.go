// Package insight implements the client for the question-answering
// backend. The gateway does not interpret answers: request bodies are
// forwarded verbatim and response bodies relayed unchanged, so the
// backend owns the answer shape end to end.
package insight

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/seenimoa/coindeck/internal/cache"
	"github.com/seenimoa/coindeck/internal/config"
	"github.com/seenimoa/coindeck/internal/infra"
)

// ErrBackendDown reports that the insight backend is unreachable.
var ErrBackendDown = errors.New("insight backend unreachable")

// Client relays questions to the insight backend.
type Client struct {
	baseURL   string
	http      *http.Client
	cache     cache.Cache
	log       *zap.Logger
	answerTTL time.Duration
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New creates an insight client from configuration.
func New(cfg config.InsightConfig, ca cache.Cache, log *zap.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		http:      &http.Client{Timeout: time.Duration(cfg.TimeoutSec) * time.Second},
		cache:     ca,
		log:       log,
		answerTTL: time.Duration(cfg.AnswerCacheTTLSec) * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Ask forwards the raw question body to the backend and returns the
// backend's body and status untouched. Successful answers are cached
// by question text so repeated questions skip the backend entirely.
func (c *Client) Ask(ctx context.Context, question string, body []byte) ([]byte, int, error) {
	key := cache.Key("full_response", question)

	if cached, ok, err := c.cache.Get(ctx, key); err == nil && ok {
		return []byte(cached), http.StatusOK, nil
	} else if err != nil {
		c.log.Warn("cache read failed", zap.String("key", key), zap.Error(err))
	}

	resp, status, err := infra.DoPost(ctx, c.http, c.baseURL+"/ask", body)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrBackendDown, err)
	}

	if status == http.StatusOK {
		if err := c.cache.Set(ctx, key, string(resp), c.answerTTL); err != nil {
			c.log.Warn("cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return resp, status, nil
}

// Sentiment relays a sentiment-only request. Same relay contract as Ask.
func (c *Client) Sentiment(ctx context.Context, body []byte) ([]byte, int, error) {
	resp, status, err := infra.DoPost(ctx, c.http, c.baseURL+"/analyze-sentiment", body)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrBackendDown, err)
	}
	return resp, status, nil
}

// Ping checks if the backend is reachable.
func (c *Client) Ping(ctx context.Context) error {
	_, status, err := infra.DoGet(ctx, c.http, c.baseURL+"/healthz")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackendDown, err)
	}
	if status != http.StatusOK {
		return &infra.UpstreamError{Service: "insight", Status: status}
	}
	return nil
}
