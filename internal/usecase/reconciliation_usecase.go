package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/walletrecon/internal/domain"
	"github.com/iho/walletrecon/internal/infrastructure/metrics"
)

// RateResolver converts between currencies.
type RateResolver interface {
	GetRate(ctx context.Context, from, to string) (*domain.RateQuote, error)
}

// LedgerAggregator sums a user's ledger per currency.
type LedgerAggregator interface {
	AggregateByCurrency(ctx context.Context, userID string) (map[string]*domain.CurrencyLedger, error)
}

// ReconciliationUseCase compares ledger-derived balances with stored wallet
// balances. It never writes.
type ReconciliationUseCase struct {
	walletRepo WalletRepository
	userRepo   UserRepository
	aggregator LedgerAggregator
	rates      RateResolver
	metrics    *metrics.Metrics
	logger     zerolog.Logger
}

// NewReconciliationUseCase creates a new reconciliation use case
func NewReconciliationUseCase(
	walletRepo WalletRepository,
	userRepo UserRepository,
	aggregator LedgerAggregator,
	rates RateResolver,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *ReconciliationUseCase {
	return &ReconciliationUseCase{
		walletRepo: walletRepo,
		userRepo:   userRepo,
		aggregator: aggregator,
		rates:      rates,
		metrics:    m,
		logger:     logger.With().Str("component", "reconciliation").Logger(),
	}
}

// Reconcile builds a per-currency report for one user.
func (uc *ReconciliationUseCase) Reconcile(ctx context.Context, userID, baseCurrency string) (*domain.ReconciliationReport, error) {
	base := domain.NormalizeCurrencyCode(baseCurrency)
	if base == "" {
		base = DefaultBaseCurrency
	}

	ledgers, err := uc.aggregator.AggregateByCurrency(ctx, userID)
	if err != nil {
		return nil, err
	}

	wallets, err := uc.walletRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list wallets for user %s: %w", userID, err)
	}

	stored := make(map[string]decimal.Decimal)
	for _, w := range wallets {
		code := domain.NormalizeCurrencyCode(w.CurrencyCode)
		stored[code] = stored[code].Add(w.Balance)
	}

	report := &domain.ReconciliationReport{
		UserID:       userID,
		BaseCurrency: base,
		TotalInBase:  decimal.Zero,
		Issues:       []string{},
		CheckedAt:    time.Now().UTC(),
	}

	for _, code := range currencyUnion(ledgers, stored) {
		entry := &domain.CurrencyReconciliation{
			Currency: code,
			Computed: decimal.Zero,
			Stored:   stored[code],
		}
		if ledger, ok := ledgers[code]; ok {
			entry.Computed = ledger.Computed
			entry.Entries = len(ledger.Entries)
		}
		entry.Diff = entry.Computed.Sub(entry.Stored).Round(domain.DiffPrecision)

		quote, err := uc.rates.GetRate(ctx, code, base)
		switch {
		case err == nil:
			converted := quote.Convert(entry.Computed)
			entry.ConvertedToBase = &converted
			report.TotalInBase = report.TotalInBase.Add(converted)
		case errors.Is(err, domain.ErrRateUnavailable):
			report.Issues = append(report.Issues, domain.MissingRateIssue(code, base))
			uc.observeMissingRate(code, base)
		default:
			return nil, fmt.Errorf("resolve rate %s->%s: %w", code, base, err)
		}

		if !entry.IsReconciled() {
			uc.logger.Warn().
				Str("user_id", userID).
				Str("currency", code).
				Str("computed", entry.Computed.String()).
				Str("stored", entry.Stored.String()).
				Str("diff", entry.Diff.String()).
				Msg("balance drift detected")
			uc.observeDiscrepancy(code)
		}

		report.Currencies = append(report.Currencies, entry)
	}

	uc.observeRun("success")

	return report, nil
}

// ReconcileAllUsers reconciles one page of users. A failure for one user is
// recorded in its result and does not stop the batch.
func (uc *ReconciliationUseCase) ReconcileAllUsers(ctx context.Context, batchSize int, baseCurrency string) ([]*domain.UserReconciliation, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	limit, offset, _ := domain.ValidatePagination(batchSize, 0)

	users, err := uc.userRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	results := make([]*domain.UserReconciliation, 0, len(users))
	for _, user := range users {
		report, err := uc.Reconcile(ctx, user.ID, baseCurrency)
		if err != nil {
			uc.logger.Error().Err(err).Str("user_id", user.ID).Msg("reconciliation failed")
			uc.observeRun("error")
			results = append(results, &domain.UserReconciliation{UserID: user.ID, Error: err.Error()})
			continue
		}
		results = append(results, &domain.UserReconciliation{UserID: user.ID, Report: report})
	}

	return results, nil
}

func currencyUnion(ledgers map[string]*domain.CurrencyLedger, stored map[string]decimal.Decimal) []string {
	seen := make(map[string]struct{}, len(ledgers)+len(stored))
	for code := range ledgers {
		seen[code] = struct{}{}
	}
	for code := range stored {
		seen[code] = struct{}{}
	}

	codes := make([]string, 0, len(seen))
	for code := range seen {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

func (uc *ReconciliationUseCase) observeRun(status string) {
	if uc.metrics != nil {
		uc.metrics.ReconciliationRuns.WithLabelValues(status).Inc()
	}
}

func (uc *ReconciliationUseCase) observeDiscrepancy(currency string) {
	if uc.metrics != nil {
		uc.metrics.ReconciliationDiscrepancies.WithLabelValues(currency).Inc()
	}
}

func (uc *ReconciliationUseCase) observeMissingRate(currency, base string) {
	if uc.metrics != nil {
		uc.metrics.MissingRates.WithLabelValues(currency, base).Inc()
	}
}
