package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/iho/walletrecon/internal/domain"
)

// TransactionRepository implements usecase.TransactionRepository.
type TransactionRepository struct {
	pool Pool
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(pool Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

// ListByUser returns every transaction of a user, oldest first.
func (r *TransactionRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Transaction, error) {
	query := `
		SELECT id, wallet_id, user_id, type, direction, amount, currency_code, reference_id, created_at
		FROM wallet_transactions
		WHERE user_id = $1
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txs []*domain.Transaction
	for rows.Next() {
		var (
			tx                                   domain.Transaction
			kind                                 string
			walletID, direction, currency, refID pgtype.Text
			amount                               pgtype.Numeric
		)

		if err := rows.Scan(
			&tx.ID,
			&walletID,
			&tx.UserID,
			&kind,
			&direction,
			&amount,
			&currency,
			&refID,
			&tx.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}

		tx.WalletID = textOrEmpty(walletID)
		tx.Kind = domain.TransactionKind(kind)
		tx.Direction = domain.Direction(textOrEmpty(direction))
		tx.Amount = numericToDecimal(amount)
		tx.CurrencyCode = textOrEmpty(currency)
		tx.ReferenceID = textOrEmpty(refID)

		txs = append(txs, &tx)
	}

	return txs, rows.Err()
}
