package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Wallet is a per-user, per-currency balance record.
// Balance is a cached projection of the ledger and is only changed by the
// remote transaction procedures.
type Wallet struct {
	ID             string
	UserID         string
	CurrencyCode   string
	Type           CurrencyType
	Balance        decimal.Decimal
	TotalDeposited decimal.Decimal
	TotalWithdrawn decimal.Decimal
	AccountNumber  string
	Active         bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// User is the minimal user projection needed for batch reconciliation.
type User struct {
	ID        string
	Email     string
	CreatedAt time.Time
}
