package postgres

import (
	"context"
	"fmt"

	"github.com/iho/walletrecon/internal/usecase"
)

// Procedures calls the ledger functions that own balance mutation.
type Procedures struct {
	pool    Pool
	ids     usecase.IDGenerator
	retrier *Retrier
}

// NewProcedures creates a new Procedures.
func NewProcedures(pool Pool, ids usecase.IDGenerator, retrier *Retrier) *Procedures {
	return &Procedures{pool: pool, ids: ids, retrier: retrier}
}

// RecordWalletTransaction appends a transaction and updates the wallet
// balance atomically. It returns the transaction ID.
func (p *Procedures) RecordWalletTransaction(ctx context.Context, input usecase.RecordTransactionInput) (string, error) {
	id := p.ids.Generate()

	var recorded string
	err := p.retry(ctx, func(ctx context.Context) error {
		return p.pool.QueryRow(ctx,
			`SELECT record_wallet_transaction($1, $2, $3, $4, $5, $6, $7, $8)`,
			id,
			input.UserID,
			input.CurrencyCode,
			string(input.Kind),
			nullableText(string(input.Direction)),
			decimalToNumeric(input.Amount),
			nullableText(input.ReferenceID),
			nullableText(input.Description),
		).Scan(&recorded)
	})
	if err != nil {
		return "", fmt.Errorf("record wallet transaction: %w", err)
	}

	return recorded, nil
}

// EnsureUserWallets creates any missing default wallets for a user.
func (p *Procedures) EnsureUserWallets(ctx context.Context, userID string) error {
	err := p.retry(ctx, func(ctx context.Context) error {
		_, err := p.pool.Exec(ctx, `SELECT ensure_user_wallets($1)`, userID)
		return err
	})
	if err != nil {
		return fmt.Errorf("ensure user wallets: %w", err)
	}
	return nil
}

func (p *Procedures) retry(ctx context.Context, op func(ctx context.Context) error) error {
	if p.retrier == nil {
		return op(ctx)
	}
	return p.retrier.Retry(ctx, op)
}
