package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/iho/walletrecon/internal/domain"
)

// CurrencyRepository implements usecase.CurrencyRepository.
type CurrencyRepository struct {
	pool Pool
}

// NewCurrencyRepository creates a new CurrencyRepository.
func NewCurrencyRepository(pool Pool) *CurrencyRepository {
	return &CurrencyRepository{pool: pool}
}

const currencyColumns = `code, name, symbol, type, decimals, active`

// GetByCode retrieves a currency by its code.
func (r *CurrencyRepository) GetByCode(ctx context.Context, code string) (*domain.Currency, error) {
	query := `SELECT ` + currencyColumns + ` FROM currencies WHERE code = $1`

	currency, err := scanCurrency(r.pool.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCurrencyNotFound
		}
		return nil, fmt.Errorf("get currency %s: %w", code, err)
	}

	return currency, nil
}

// List returns currencies ordered by code.
func (r *CurrencyRepository) List(ctx context.Context, activeOnly bool) ([]*domain.Currency, error) {
	query := `SELECT ` + currencyColumns + ` FROM currencies`
	if activeOnly {
		query += ` WHERE active`
	}
	query += ` ORDER BY code`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list currencies: %w", err)
	}
	defer rows.Close()

	var currencies []*domain.Currency
	for rows.Next() {
		currency, err := scanCurrency(rows)
		if err != nil {
			return nil, fmt.Errorf("scan currency: %w", err)
		}
		currencies = append(currencies, currency)
	}

	return currencies, rows.Err()
}

func scanCurrency(row pgx.Row) (*domain.Currency, error) {
	var (
		c        domain.Currency
		ctype    string
		decimals int32
	)
	if err := row.Scan(&c.Code, &c.Name, &c.Symbol, &ctype, &decimals, &c.Active); err != nil {
		return nil, err
	}
	c.Type = domain.CurrencyType(ctype)
	c.Decimals = int(decimals)
	return &c, nil
}
