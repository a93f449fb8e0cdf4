// Package market implements the client for the external market-data
// provider (a CoinGecko-compatible REST API).
//
// The client owns the fixed query parameters, the outbound rate limit
// and the response cache: callers get either fresh provider bytes, a
// cached copy within TTL, or — when the provider is failing — the last
// good snapshot (stale reads beat empty dashboards).
package market

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/seenimoa/coindeck/internal/cache"
	"github.com/seenimoa/coindeck/internal/config"
	"github.com/seenimoa/coindeck/internal/infra"
	"github.com/seenimoa/coindeck/pkg/models"
)

const serviceName = "market"

// ErrNotFound reports that the provider has no data for the requested id.
var ErrNotFound = errors.New("market: coin not found")

// Client fetches market data from the provider.
type Client struct {
	baseURL string
	http    *http.Client
	cache   cache.Cache
	limiter *infra.RateLimiter
	log     *zap.Logger

	currency     string
	order        string
	perPage      int
	changeWindow string

	marketTTL time.Duration
	coinTTL   time.Duration
}

// New creates a market client from configuration.
func New(cfg config.MarketConfig, c cache.Cache, log *zap.Logger) *Client {
	rate := cfg.RateLimitPerSec
	if rate <= 0 {
		rate = 1
	}
	return &Client{
		baseURL:      cfg.BaseURL,
		http:         &http.Client{Timeout: time.Duration(cfg.TimeoutSec) * time.Second},
		cache:        c,
		limiter:      infra.NewRateLimiter(rate, time.Second),
		log:          log,
		currency:     cfg.Currency,
		order:        cfg.Order,
		perPage:      cfg.PerPage,
		changeWindow: cfg.ChangeWindow,
		marketTTL:    time.Duration(cfg.CacheTTLSec) * time.Second,
		coinTTL:      time.Duration(cfg.CoinCacheTTLSec) * time.Second,
	}
}

// marketsURL builds the fixed-parameter markets request.
func (c *Client) marketsURL() string {
	q := url.Values{}
	q.Set("vs_currency", c.currency)
	q.Set("order", c.order)
	q.Set("per_page", fmt.Sprintf("%d", c.perPage))
	q.Set("page", "1")
	q.Set("sparkline", "true")
	q.Set("price_change_percentage", c.changeWindow)
	return c.baseURL + "/coins/markets?" + q.Encode()
}

func (c *Client) marketsKey() string {
	return cache.Key("market_data", fmt.Sprintf("%s_%d", c.currency, c.perPage))
}

// staleKey is the non-expiring copy of the last good snapshot,
// written alongside the TTL'd entry and read only on upstream failure.
func (c *Client) staleKey() string {
	return cache.Key("market_data_last", fmt.Sprintf("%s_%d", c.currency, c.perPage))
}

// Markets returns the provider's market snapshot as raw JSON bytes.
// The body is returned exactly as the provider sent it, beyond a
// decode check that it is a JSON array. On upstream failure a stale
// cached snapshot is served when one exists; otherwise the upstream
// or transport error surfaces to the caller.
func (c *Client) Markets(ctx context.Context) ([]byte, error) {
	key := c.marketsKey()

	if cached, ok, err := c.cache.Get(ctx, key); err == nil && ok {
		return []byte(cached), nil
	} else if err != nil {
		c.log.Warn("cache read failed", zap.String("key", key), zap.Error(err))
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	body, status, err := infra.DoGet(ctx, c.http, c.marketsURL())
	if err != nil {
		return c.stale(ctx, fmt.Errorf("market: fetch markets: %w", err))
	}
	if status != http.StatusOK {
		return c.stale(ctx, &infra.UpstreamError{Service: serviceName, Status: status, Body: body})
	}

	// Shape check only; the bytes themselves pass through unmodified.
	var probe []json.RawMessage
	if err := json.Unmarshal(body, &probe); err != nil {
		return c.stale(ctx, fmt.Errorf("market: malformed provider response: %w", err))
	}

	if err := c.cache.Set(ctx, key, string(body), c.marketTTL); err != nil {
		c.log.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
	if err := c.cache.Set(ctx, c.staleKey(), string(body), 0); err != nil {
		c.log.Warn("cache write failed", zap.String("key", c.staleKey()), zap.Error(err))
	}
	return body, nil
}

// stale serves the last good snapshot when the provider is failing.
func (c *Client) stale(ctx context.Context, cause error) ([]byte, error) {
	if cached, ok, err := c.cache.Get(ctx, c.staleKey()); err == nil && ok {
		c.log.Warn("serving stale market snapshot", zap.Error(cause))
		return []byte(cached), nil
	}
	return nil, cause
}

// Entries returns the market snapshot mapped to the canonical shape.
func (c *Client) Entries(ctx context.Context) ([]models.MarketEntry, error) {
	body, err := c.Markets(ctx)
	if err != nil {
		return nil, err
	}

	var raw []geckoMarket
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("market: decode markets: %w", err)
	}

	entries := make([]models.MarketEntry, 0, len(raw))
	for _, g := range raw {
		entries = append(entries, g.Entry())
	}
	return entries, nil
}

// Coin returns the canonical entry for a single coin id.
func (c *Client) Coin(ctx context.Context, id string) (*models.MarketEntry, error) {
	key := cache.Key("coin", id)

	if cached, ok, err := c.cache.Get(ctx, key); err == nil && ok {
		var e models.MarketEntry
		if err := json.Unmarshal([]byte(cached), &e); err == nil {
			return &e, nil
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("vs_currency", c.currency)
	q.Set("ids", id)

	body, status, err := infra.DoGet(ctx, c.http, c.baseURL+"/coins/markets?"+q.Encode())
	if err != nil {
		return nil, fmt.Errorf("market: fetch coin %s: %w", id, err)
	}
	if status != http.StatusOK {
		return nil, &infra.UpstreamError{Service: serviceName, Status: status, Body: body}
	}

	var raw []geckoMarket
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("market: decode coin %s: %w", id, err)
	}
	if len(raw) == 0 {
		return nil, ErrNotFound
	}

	entry := raw[0].Entry()
	if data, err := json.Marshal(entry); err == nil {
		if err := c.cache.Set(ctx, key, string(data), c.coinTTL); err != nil {
			c.log.Warn("cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return &entry, nil
}

// Ping checks if the provider is reachable.
func (c *Client) Ping(ctx context.Context) error {
	_, status, err := infra.DoGet(ctx, c.http, c.baseURL+"/ping")
	if err != nil {
		return fmt.Errorf("market: ping: %w", err)
	}
	if status != http.StatusOK {
		return &infra.UpstreamError{Service: serviceName, Status: status}
	}
	return nil
}
