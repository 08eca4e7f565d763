package usecase

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/iho/walletrecon/internal/domain"
)

// AggregationUseCase sums a user's ledger per currency.
type AggregationUseCase struct {
	txRepo TransactionRepository
}

// NewAggregationUseCase creates a new AggregationUseCase.
func NewAggregationUseCase(txRepo TransactionRepository) *AggregationUseCase {
	return &AggregationUseCase{txRepo: txRepo}
}

// AggregateByCurrency returns the signed ledger total per currency code.
// Entries keep the ledger order (oldest first).
func (uc *AggregationUseCase) AggregateByCurrency(ctx context.Context, userID string) (map[string]*domain.CurrencyLedger, error) {
	txs, err := uc.txRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions for user %s: %w", userID, err)
	}

	return Aggregate(txs), nil
}

// Aggregate groups transactions by currency and sums their signed amounts.
func Aggregate(txs []*domain.Transaction) map[string]*domain.CurrencyLedger {
	ledgers := make(map[string]*domain.CurrencyLedger)

	for _, tx := range txs {
		if tx == nil {
			continue
		}

		code := tx.Currency()
		ledger, ok := ledgers[code]
		if !ok {
			ledger = &domain.CurrencyLedger{Currency: code, Computed: decimal.Zero}
			ledgers[code] = ledger
		}

		ledger.Computed = ledger.Computed.Add(tx.SignedAmount())
		ledger.Entries = append(ledger.Entries, tx)
	}

	return ledgers
}
