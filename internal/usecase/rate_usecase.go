package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/walletrecon/internal/domain"
	"github.com/iho/walletrecon/internal/infrastructure/metrics"
)

// RateUseCase resolves conversion rates between two currencies.
type RateUseCase struct {
	rateRepo RateRepository
	provider RateProvider
	metrics  *metrics.Metrics
	logger   zerolog.Logger
}

// NewRateUseCase creates a new RateUseCase. provider and m may be nil.
func NewRateUseCase(rateRepo RateRepository, provider RateProvider, m *metrics.Metrics, logger zerolog.Logger) *RateUseCase {
	return &RateUseCase{
		rateRepo: rateRepo,
		provider: provider,
		metrics:  m,
		logger:   logger.With().Str("component", "rate_resolver").Logger(),
	}
}

type rateStep struct {
	method  domain.RateMethod
	resolve func(ctx context.Context, from, to string) (decimal.Decimal, error)
}

// GetRate returns the rate for converting one unit of from into to.
//
// Methods are tried in order: direct pair, USD pivot, inverted reverse pair,
// external provider. A candidate that is not strictly positive falls through
// to the next method. domain.ErrRateUnavailable is returned when every
// method misses.
func (uc *RateUseCase) GetRate(ctx context.Context, from, to string) (*domain.RateQuote, error) {
	from = domain.NormalizeCurrencyCode(from)
	to = domain.NormalizeCurrencyCode(to)

	if from == to {
		uc.observe(domain.RateMethodIdentity)
		return &domain.RateQuote{From: from, To: to, Rate: decimal.NewFromInt(1), Method: domain.RateMethodIdentity}, nil
	}

	steps := []rateStep{
		{domain.RateMethodDirect, uc.direct},
		{domain.RateMethodPivot, uc.pivot},
		{domain.RateMethodInverse, uc.inverse},
		{domain.RateMethodExternal, uc.external},
	}

	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rate, err := step.resolve(ctx, from, to)
		if err != nil {
			if !errors.Is(err, domain.ErrRateNotFound) {
				uc.logger.Warn().Err(err).
					Str("from", from).
					Str("to", to).
					Str("method", string(step.method)).
					Msg("rate lookup failed, trying next method")
			}
			continue
		}

		if !domain.ValidRate(rate) {
			uc.logger.Debug().
				Str("from", from).
				Str("to", to).
				Str("method", string(step.method)).
				Str("rate", rate.String()).
				Msg("rejecting non-positive rate")
			continue
		}

		uc.observe(step.method)
		return &domain.RateQuote{From: from, To: to, Rate: rate, Method: step.method}, nil
	}

	uc.observe("unavailable")
	return nil, fmt.Errorf("%w: %s->%s", domain.ErrRateUnavailable, from, to)
}

// Convert converts amount from one currency into another.
func (uc *RateUseCase) Convert(ctx context.Context, amount decimal.Decimal, from, to string) (decimal.Decimal, error) {
	quote, err := uc.GetRate(ctx, from, to)
	if err != nil {
		return decimal.Zero, err
	}
	return quote.Convert(amount), nil
}

func (uc *RateUseCase) direct(ctx context.Context, from, to string) (decimal.Decimal, error) {
	return uc.rateRepo.GetPair(ctx, from, to)
}

// pivot derives from->to as USD_to / USD_from.
func (uc *RateUseCase) pivot(ctx context.Context, from, to string) (decimal.Decimal, error) {
	rateFrom, err := uc.usdRate(ctx, from)
	if err != nil {
		return decimal.Zero, err
	}
	rateTo, err := uc.usdRate(ctx, to)
	if err != nil {
		return decimal.Zero, err
	}
	if !domain.ValidRate(rateFrom) {
		return decimal.Zero, domain.ErrRateNotFound
	}
	return rateTo.DivRound(rateFrom, domain.RatePrecision), nil
}

func (uc *RateUseCase) usdRate(ctx context.Context, code string) (decimal.Decimal, error) {
	if code == domain.PivotCurrency {
		return decimal.NewFromInt(1), nil
	}
	return uc.rateRepo.GetUSDRate(ctx, code)
}

func (uc *RateUseCase) inverse(ctx context.Context, from, to string) (decimal.Decimal, error) {
	reverse, err := uc.rateRepo.GetPair(ctx, to, from)
	if err != nil {
		return decimal.Zero, err
	}
	if !domain.ValidRate(reverse) {
		return decimal.Zero, domain.ErrRateNotFound
	}
	return decimal.NewFromInt(1).DivRound(reverse, domain.RatePrecision), nil
}

func (uc *RateUseCase) external(ctx context.Context, from, to string) (decimal.Decimal, error) {
	if uc.provider == nil {
		return decimal.Zero, domain.ErrRateNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, ExternalQuoteTimeout)
	defer cancel()

	f, err := uc.provider.Quote(ctx, from, to)
	if err != nil {
		return decimal.Zero, err
	}
	if !domain.ValidFloatRate(f) {
		return decimal.Zero, domain.ErrRateNotFound
	}
	return decimal.NewFromFloat(f), nil
}

func (uc *RateUseCase) observe(method domain.RateMethod) {
	if uc.metrics != nil {
		uc.metrics.RateResolutions.WithLabelValues(string(method)).Inc()
	}
}
