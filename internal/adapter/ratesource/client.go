// Package ratesource fetches fiat exchange rates and crypto prices from
// public HTTP feeds.
package ratesource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/iho/walletrecon/internal/domain"
	"github.com/iho/walletrecon/internal/infrastructure/metrics"
	"github.com/iho/walletrecon/internal/infrastructure/retry"
)

// Feed names, also used as cache keys and metric labels.
const (
	FeedFiat   = "fiat"
	FeedCrypto = "crypto"
)

const (
	defaultTimeout = 5 * time.Second
	maxBodyBytes   = 1 << 20
)

// TableCache stores the last good table of each feed.
type TableCache interface {
	LoadTable(ctx context.Context, feed string) (map[string]float64, bool, error)
	StoreTable(ctx context.Context, feed string, table map[string]float64) error
}

// Config configures the Client.
type Config struct {
	FiatURL   string
	CryptoURL string

	// Timeout bounds each HTTP attempt. Defaults to 5s.
	Timeout time.Duration

	// RequestsPerSecond throttles outgoing requests. Zero disables it.
	RequestsPerSecond float64

	// StaticFallback serves built-in tables when feed and cache both fail.
	StaticFallback bool

	// HTTPClient is optional (for testing).
	HTTPClient *http.Client

	Retry   retry.Policy
	Cache   TableCache
	Metrics *metrics.Metrics
	Logger  zerolog.Logger
}

// Client reads rate tables from the configured feeds.
type Client struct {
	httpClient     *http.Client
	fiatURL        string
	cryptoURL      string
	timeout        time.Duration
	limiter        *rate.Limiter
	staticFallback bool
	retry          retry.Policy
	cache          TableCache
	metrics        *metrics.Metrics
	logger         zerolog.Logger
}

// New creates a Client.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	logger := cfg.Logger.With().Str("component", "ratesource").Logger()
	policy := cfg.Retry.WithRetryable(isRetryable)
	policy.Logger = logger

	return &Client{
		httpClient:     httpClient,
		fiatURL:        cfg.FiatURL,
		cryptoURL:      cfg.CryptoURL,
		timeout:        timeout,
		limiter:        limiter,
		staticFallback: cfg.StaticFallback,
		retry:          policy,
		cache:          cfg.Cache,
		metrics:        cfg.Metrics,
		logger:         logger,
	}
}

// StatusError is returned for non-200 responses.
type StatusError struct {
	Feed string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s feed returned status %d", e.Feed, e.Code)
}

type decodeError struct {
	err error
}

func (e *decodeError) Error() string { return "decode response: " + e.err.Error() }
func (e *decodeError) Unwrap() error { return e.err }

// isRetryable retries transport failures, 429 and 5xx.
func isRetryable(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code == http.StatusTooManyRequests || se.Code >= http.StatusInternalServerError
	}
	var de *decodeError
	if errors.As(err, &de) {
		return false
	}
	return !errors.Is(err, context.Canceled)
}

// FiatRates returns the fiat table: units of each currency per USD.
func (c *Client) FiatRates(ctx context.Context) (map[string]float64, error) {
	return c.table(ctx, FeedFiat, c.fiatURL, decodeFiat)
}

// CryptoPrices returns the USD price of each supported coin, keyed by
// currency code.
func (c *Client) CryptoPrices(ctx context.Context) (map[string]float64, error) {
	return c.table(ctx, FeedCrypto, c.cryptoRequestURL(), decodeCrypto)
}

// USDTable merges both feeds into a single table of units per USD.
// A failing crypto feed does not hide fiat rates. Feeds that are down are
// served from the cache or the static tables.
func (c *Client) USDTable(ctx context.Context) (map[string]float64, error) {
	return c.usdTable(ctx, c.FiatRates, c.CryptoPrices)
}

// LiveUSDTable is USDTable without the cache and static fallbacks: only
// rates fetched from the feeds just now are returned. A fiat outage is an
// error, a crypto outage leaves the coins out.
func (c *Client) LiveUSDTable(ctx context.Context) (map[string]float64, error) {
	return c.usdTable(ctx,
		func(ctx context.Context) (map[string]float64, error) {
			return c.live(ctx, FeedFiat, c.fiatURL, decodeFiat)
		},
		func(ctx context.Context) (map[string]float64, error) {
			return c.live(ctx, FeedCrypto, c.cryptoRequestURL(), decodeCrypto)
		},
	)
}

type tableFunc func(ctx context.Context) (map[string]float64, error)

func (c *Client) usdTable(ctx context.Context, fiatRates, cryptoPrices tableFunc) (map[string]float64, error) {
	fiat, err := fiatRates(ctx)
	if err != nil {
		return nil, err
	}

	table := make(map[string]float64, len(fiat)+len(coinIDs))
	for code, r := range fiat {
		if domain.ValidFloatRate(r) {
			table[code] = r
		}
	}
	table[domain.PivotCurrency] = 1

	prices, err := cryptoPrices(ctx)
	if err != nil {
		c.logger.Warn().Err(err).Msg("crypto prices unavailable")
		return table, nil
	}
	for code, price := range prices {
		if domain.ValidFloatRate(price) {
			table[code] = 1 / price
		}
	}

	return table, nil
}

// Quote returns how many units of to one unit of from buys.
func (c *Client) Quote(ctx context.Context, from, to string) (float64, error) {
	from = domain.NormalizeCurrencyCode(from)
	to = domain.NormalizeCurrencyCode(to)

	table, err := c.USDTable(ctx)
	if err != nil {
		return 0, err
	}

	rateFrom, okFrom := table[from]
	rateTo, okTo := table[to]
	if !okFrom || !okTo {
		return 0, fmt.Errorf("%w: %s->%s not quoted", domain.ErrRateUnavailable, from, to)
	}

	return rateTo / rateFrom, nil
}

func (c *Client) table(ctx context.Context, feed, endpoint string, decode func(io.Reader) (map[string]float64, error)) (map[string]float64, error) {
	table, err := c.live(ctx, feed, endpoint, decode)
	if err == nil {
		return table, nil
	}

	c.logger.Warn().Err(err).Str("feed", feed).Msg("rate feed unavailable, falling back")

	if c.cache != nil {
		cached, ok, cerr := c.cache.LoadTable(ctx, feed)
		if cerr != nil {
			c.logger.Warn().Err(cerr).Str("feed", feed).Msg("rate cache unavailable")
		}
		if ok {
			c.fallback(feed, "cache")
			return cached, nil
		}
	}

	if c.staticFallback {
		c.fallback(feed, "static")
		return staticTable(feed), nil
	}

	return nil, err
}

// live fetches a feed and refreshes its cache entry on success.
func (c *Client) live(ctx context.Context, feed, endpoint string, decode func(io.Reader) (map[string]float64, error)) (map[string]float64, error) {
	start := time.Now()
	table, err := c.fetch(ctx, feed, endpoint, decode)
	c.observe(feed, err, time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("fetch %s rates: %w", feed, err)
	}

	if c.cache != nil {
		if cerr := c.cache.StoreTable(ctx, feed, table); cerr != nil {
			c.logger.Warn().Err(cerr).Str("feed", feed).Msg("failed to cache rate table")
		}
	}
	return table, nil
}

func (c *Client) fetch(ctx context.Context, feed, endpoint string, decode func(io.Reader) (map[string]float64, error)) (map[string]float64, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("%s feed url not configured", feed)
	}

	var table map[string]float64
	err := c.retry.Do(ctx, func(ctx context.Context) error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, endpoint, nil)
		if err != nil {
			return &decodeError{err: err}
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
			return &StatusError{Feed: feed, Code: resp.StatusCode}
		}

		t, err := decode(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			return &decodeError{err: err}
		}
		table = t
		return nil
	})

	return table, err
}

func (c *Client) cryptoRequestURL() string {
	if c.cryptoURL == "" {
		return ""
	}

	ids := make([]string, 0, len(coinIDs))
	for _, id := range coinIDs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	u, err := url.Parse(c.cryptoURL)
	if err != nil {
		return c.cryptoURL
	}
	q := u.Query()
	q.Set("ids", strings.Join(ids, ","))
	q.Set("vs_currencies", "usd")
	u.RawQuery = q.Encode()

	return u.String()
}

func (c *Client) observe(feed string, err error, elapsed time.Duration) {
	if c.metrics == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	c.metrics.RateFetches.WithLabelValues(feed, status).Inc()
	c.metrics.RateFetchTime.WithLabelValues(feed).Observe(elapsed.Seconds())
}

func (c *Client) fallback(feed, source string) {
	if c.metrics != nil {
		c.metrics.RateFallbacks.WithLabelValues(feed, source).Inc()
	}
}

type fiatResponse struct {
	Result string             `json:"result"`
	Rates  map[string]float64 `json:"rates"`
}

func decodeFiat(r io.Reader) (map[string]float64, error) {
	var body fiatResponse
	if err := json.NewDecoder(r).Decode(&body); err != nil {
		return nil, err
	}
	if body.Result != "" && body.Result != "success" {
		return nil, fmt.Errorf("fiat feed result %q", body.Result)
	}
	if len(body.Rates) == 0 {
		return nil, errors.New("fiat feed returned no rates")
	}

	rates := make(map[string]float64, len(body.Rates))
	for code, r := range body.Rates {
		rates[domain.NormalizeCurrencyCode(code)] = r
	}
	return rates, nil
}

func decodeCrypto(r io.Reader) (map[string]float64, error) {
	var body map[string]map[string]float64
	if err := json.NewDecoder(r).Decode(&body); err != nil {
		return nil, err
	}

	prices := make(map[string]float64, len(coinIDs))
	for code, id := range coinIDs {
		quote, ok := body[id]
		if !ok {
			continue
		}
		if usd, ok := quote["usd"]; ok {
			prices[code] = usd
		}
	}
	if len(prices) == 0 {
		return nil, errors.New("crypto feed returned no prices")
	}
	return prices, nil
}
