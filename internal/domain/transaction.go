package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Direction is the sign of a ledger entry.
type Direction string

const (
	DirectionDebit  Direction = "debit"
	DirectionCredit Direction = "credit"
)

// Sign returns -1 for debits and +1 for credits.
func (d Direction) Sign() decimal.Decimal {
	if d == DirectionDebit {
		return decimal.NewFromInt(-1)
	}
	return decimal.NewFromInt(1)
}

// IsValid reports whether d is a known direction.
func (d Direction) IsValid() bool {
	return d == DirectionDebit || d == DirectionCredit
}

// TransactionKind is the type tag stored on a ledger entry.
type TransactionKind string

const (
	KindDeposit     TransactionKind = "deposit"
	KindWithdrawal  TransactionKind = "withdrawal"
	KindSent        TransactionKind = "sent"
	KindReceived    TransactionKind = "received"
	KindPayment     TransactionKind = "payment"
	KindBillPayment TransactionKind = "bill_payment"
	KindLoanPayment TransactionKind = "loan_payment"
	KindLoanPayout  TransactionKind = "loan_disbursement"
	KindFee         TransactionKind = "fee"
	KindRefund      TransactionKind = "refund"
	KindAdjustment  TransactionKind = "adjustment"
)

var debitKeywords = []string{"sent", "withdrawal", "debit"}

// Direction infers the sign of a kind from its name. Rows written with an
// explicit direction never go through this path.
func (k TransactionKind) Direction() Direction {
	kind := strings.ToLower(strings.TrimSpace(string(k)))
	if kind == string(KindBillPayment) || kind == string(KindPayment) {
		return DirectionDebit
	}
	for _, kw := range debitKeywords {
		if strings.Contains(kind, kw) {
			return DirectionDebit
		}
	}
	return DirectionCredit
}

// Transaction is an immutable ledger entry.
type Transaction struct {
	ID           string
	WalletID     string
	UserID       string
	Kind         TransactionKind
	Direction    Direction // empty for legacy rows
	Amount       decimal.Decimal
	CurrencyCode string
	ReferenceID  string
	CreatedAt    time.Time
}

// EffectiveDirection prefers the stored direction over the kind heuristic.
func (t *Transaction) EffectiveDirection() Direction {
	if t.Direction.IsValid() {
		return t.Direction
	}
	return t.Kind.Direction()
}

// SignedAmount returns the magnitude with the entry's sign applied.
func (t *Transaction) SignedAmount() decimal.Decimal {
	return t.Amount.Abs().Mul(t.EffectiveDirection().Sign())
}

// Currency returns the entry's currency, defaulting to DefaultCurrency.
func (t *Transaction) Currency() string {
	code := NormalizeCurrencyCode(t.CurrencyCode)
	if code == "" {
		return DefaultCurrency
	}
	return code
}
