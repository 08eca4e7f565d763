// Package ratesync periodically copies the live USD rate table into the
// database so pivot lookups keep working when the feeds are down.
package ratesync

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/walletrecon/internal/domain"
	"github.com/iho/walletrecon/internal/usecase"
)

// Source is the live feed, units per USD. It must not substitute cached or
// static tables when a feed is down, or stale values would overwrite the
// last good rates.
type Source interface {
	LiveUSDTable(ctx context.Context) (map[string]float64, error)
}

// Config for Worker.
type Config struct {
	Source   Source
	Store    usecase.RateStore
	Logger   zerolog.Logger
	Interval time.Duration // Polling interval
	Label    string        // Written to exchange_rates.source
}

// Worker keeps exchange_rates in step with the live feed.
type Worker struct {
	source   Source
	store    usecase.RateStore
	logger   zerolog.Logger
	interval time.Duration
	label    string
}

// NewWorker creates a new Worker.
func NewWorker(cfg Config) *Worker {
	if cfg.Interval == 0 {
		cfg.Interval = time.Hour
	}
	if cfg.Label == "" {
		cfg.Label = "live"
	}

	return &Worker{
		source:   cfg.Source,
		store:    cfg.Store,
		logger:   cfg.Logger.With().Str("component", "ratesync").Logger(),
		interval: cfg.Interval,
		label:    cfg.Label,
	}
}

// Start syncs immediately and then on every tick until ctx is cancelled.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info().Dur("interval", w.interval).Msg("rate sync started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	if _, err := w.SyncOnce(ctx); err != nil {
		w.logger.Error().Err(err).Msg("rate sync failed on start")
	}

	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("rate sync shutting down")
			return ctx.Err()
		case <-ticker.C:
			if _, err := w.SyncOnce(ctx); err != nil {
				w.logger.Error().Err(err).Msg("rate sync failed")
			}
		}
	}
}

// SyncOnce fetches the table and stores its valid rates. It returns the
// number of rates written.
func (w *Worker) SyncOnce(ctx context.Context) (int, error) {
	table, err := w.source.LiveUSDTable(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetch usd table: %w", err)
	}

	rates := make(map[string]decimal.Decimal, len(table))
	for code, r := range table {
		code = domain.NormalizeCurrencyCode(code)
		if code == domain.PivotCurrency || !domain.ValidFloatRate(r) {
			continue
		}
		rates[code] = decimal.NewFromFloat(r)
	}

	if len(rates) == 0 {
		return 0, nil
	}

	if err := w.store.UpsertUSDRates(ctx, rates, w.label); err != nil {
		return 0, fmt.Errorf("store usd table: %w", err)
	}

	w.logger.Info().Int("count", len(rates)).Msg("usd rates synced")

	return len(rates), nil
}
