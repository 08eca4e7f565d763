package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/walletrecon/internal/domain"
)

func TestRateRepo_GetPair(t *testing.T) {
	mock := newMockPool(t)
	repo := NewRateRepository(mock)

	mock.ExpectQuery("SELECT rate FROM pairs WHERE from_currency").
		WithArgs("USD", "PHP").
		WillReturnRows(pgxmock.NewRows([]string{"rate"}).AddRow("56.5"))

	rate, err := repo.GetPair(context.Background(), "USD", "PHP")
	require.NoError(t, err)
	assert.True(t, rate.Equal(decimal.RequireFromString("56.5")))
	assertExpectations(t, mock)
}

func TestRateRepo_GetPairNotFound(t *testing.T) {
	mock := newMockPool(t)
	repo := NewRateRepository(mock)

	mock.ExpectQuery("SELECT rate FROM pairs").
		WithArgs("BTC", "PHP").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetPair(context.Background(), "BTC", "PHP")
	assert.ErrorIs(t, err, domain.ErrRateNotFound)
}

func TestRateRepo_GetUSDRate(t *testing.T) {
	mock := newMockPool(t)
	repo := NewRateRepository(mock)

	mock.ExpectQuery("SELECT rate FROM exchange_rates WHERE currency_code").
		WithArgs("EUR").
		WillReturnRows(pgxmock.NewRows([]string{"rate"}).AddRow("0.92"))

	rate, err := repo.GetUSDRate(context.Background(), "EUR")
	require.NoError(t, err)
	assert.Equal(t, "0.92", rate.String())
}

func TestRateRepo_GetUSDRateError(t *testing.T) {
	mock := newMockPool(t)
	repo := NewRateRepository(mock)
	dbErr := errors.New("timeout")

	mock.ExpectQuery("FROM exchange_rates").WillReturnError(dbErr)

	_, err := repo.GetUSDRate(context.Background(), "EUR")
	assert.ErrorIs(t, err, dbErr)
	assert.NotErrorIs(t, err, domain.ErrRateNotFound)
}

func TestRateRepo_UpsertUSDRates(t *testing.T) {
	mock := newMockPool(t)
	repo := NewRateRepository(mock)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO exchange_rates").
		WithArgs("EUR", pgxmock.AnyArg(), "fiat").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO exchange_rates").
		WithArgs("PHP", pgxmock.AnyArg(), "fiat").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	err := repo.UpsertUSDRates(context.Background(), map[string]decimal.Decimal{
		"PHP": decimal.RequireFromString("56.5"),
		"EUR": decimal.RequireFromString("0.92"),
	}, "fiat")
	require.NoError(t, err)
	assertExpectations(t, mock)
}

func TestRateRepo_UpsertUSDRatesRollsBack(t *testing.T) {
	mock := newMockPool(t)
	repo := NewRateRepository(mock)
	dbErr := errors.New("constraint")

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO exchange_rates").
		WithArgs("EUR", pgxmock.AnyArg(), "fiat").
		WillReturnError(dbErr)
	mock.ExpectRollback()

	err := repo.UpsertUSDRates(context.Background(), map[string]decimal.Decimal{
		"EUR": decimal.RequireFromString("0.92"),
	}, "fiat")
	assert.ErrorIs(t, err, dbErr)
	assertExpectations(t, mock)
}
