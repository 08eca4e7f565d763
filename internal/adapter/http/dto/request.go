package dto

import (
	"github.com/shopspring/decimal"

	"github.com/iho/walletrecon/internal/domain"
	"github.com/iho/walletrecon/internal/usecase"
)

// CreateWalletRequest represents a request to open a wallet.
type CreateWalletRequest struct {
	Currency string `json:"currency"`
}

// RecordTransactionRequest represents a ledger entry submitted for a user.
type RecordTransactionRequest struct {
	Currency    string          `json:"currency"`
	Type        string          `json:"type"`
	Direction   string          `json:"direction,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	ReferenceID string          `json:"reference_id,omitempty"`
	Description string          `json:"description,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *RecordTransactionRequest) ToUseCaseInput(userID string) usecase.RecordTransactionInput {
	return usecase.RecordTransactionInput{
		UserID:       userID,
		CurrencyCode: r.Currency,
		Kind:         domain.TransactionKind(r.Type),
		Direction:    domain.Direction(r.Direction),
		Amount:       r.Amount,
		ReferenceID:  r.ReferenceID,
		Description:  r.Description,
	}
}
