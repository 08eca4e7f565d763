package postgres

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/iho/walletrecon/internal/domain"
)

// TxPool is a Pool that can also open transactions.
type TxPool interface {
	Pool
	txBeginner
}

// RateRepository implements usecase.RateRepository and usecase.RateStore.
type RateRepository struct {
	pool Pool
	tx   *TxManager
}

// NewRateRepository creates a new RateRepository.
func NewRateRepository(pool TxPool) *RateRepository {
	return &RateRepository{pool: pool, tx: NewTxManager(pool)}
}

// GetPair returns the stored directional rate from→to.
func (r *RateRepository) GetPair(ctx context.Context, from, to string) (decimal.Decimal, error) {
	return r.getRate(ctx,
		`SELECT rate FROM pairs WHERE from_currency = $1 AND to_currency = $2`,
		from, to,
	)
}

// GetUSDRate returns how many units of code one USD buys.
func (r *RateRepository) GetUSDRate(ctx context.Context, code string) (decimal.Decimal, error) {
	return r.getRate(ctx,
		`SELECT rate FROM exchange_rates WHERE currency_code = $1`,
		code,
	)
}

func (r *RateRepository) getRate(ctx context.Context, query string, args ...any) (decimal.Decimal, error) {
	var rate pgtype.Numeric
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&rate); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, domain.ErrRateNotFound
		}
		return decimal.Zero, fmt.Errorf("get rate %v: %w", args, err)
	}
	return numericToDecimal(rate), nil
}

// UpsertUSDRates writes a USD-based table in one transaction. Codes are
// written in sorted order so concurrent syncs lock rows consistently.
func (r *RateRepository) UpsertUSDRates(ctx context.Context, rates map[string]decimal.Decimal, source string) error {
	codes := make([]string, 0, len(rates))
	for code := range rates {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	query := `
		INSERT INTO exchange_rates (currency_code, rate, source, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (currency_code)
		DO UPDATE SET rate = EXCLUDED.rate, source = EXCLUDED.source, updated_at = now()
	`

	return r.tx.WithinTx(ctx, func(tx pgx.Tx) error {
		for _, code := range codes {
			if _, err := tx.Exec(ctx, query, code, decimalToNumeric(rates[code]), source); err != nil {
				return fmt.Errorf("upsert rate %s: %w", code, err)
			}
		}
		return nil
	})
}
