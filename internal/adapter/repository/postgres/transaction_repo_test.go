package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/walletrecon/internal/domain"
)

func TestTransactionRepo_ListByUser(t *testing.T) {
	mock := newMockPool(t)
	repo := NewTransactionRepository(mock)
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	rows := pgxmock.NewRows([]string{
		"id", "wallet_id", "user_id", "type", "direction", "amount", "currency_code", "reference_id", "created_at",
	}).
		AddRow("tx-1", "w-1", "user-1", "deposit", "credit", "100", "PHP", "ref-1", t0).
		AddRow("tx-2", "w-1", "user-1", "sent", nil, "30.25", "PHP", nil, t0.Add(time.Minute)).
		AddRow("tx-3", nil, "user-1", "adjustment", nil, nil, nil, nil, t0.Add(2*time.Minute))

	mock.ExpectQuery("SELECT .+ FROM wallet_transactions WHERE user_id .+ ORDER BY created_at ASC").
		WithArgs("user-1").
		WillReturnRows(rows)

	txs, err := repo.ListByUser(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, txs, 3)

	assert.Equal(t, domain.DirectionCredit, txs[0].Direction)
	assert.Equal(t, "ref-1", txs[0].ReferenceID)

	assert.Equal(t, domain.Direction(""), txs[1].Direction)
	assert.True(t, txs[1].Amount.Equal(decimal.RequireFromString("30.25")))

	assert.True(t, txs[2].Amount.IsZero(), "null amount must read as zero")
	assert.Equal(t, "", txs[2].CurrencyCode)
	assert.Equal(t, "", txs[2].WalletID)
	assertExpectations(t, mock)
}

func TestTransactionRepo_ListByUserEmpty(t *testing.T) {
	mock := newMockPool(t)
	repo := NewTransactionRepository(mock)

	mock.ExpectQuery("FROM wallet_transactions").
		WithArgs("user-2").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "wallet_id", "user_id", "type", "direction", "amount", "currency_code", "reference_id", "created_at",
		}))

	txs, err := repo.ListByUser(context.Background(), "user-2")
	require.NoError(t, err)
	assert.Empty(t, txs)
}
