package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DiffPrecision is the rounding applied to reconciliation differences.
const DiffPrecision = 8

// CurrencyLedger is the aggregated ledger for one currency.
type CurrencyLedger struct {
	Currency string
	Computed decimal.Decimal
	Entries  []*Transaction
}

// CurrencyReconciliation compares ledger and stored balance for one currency.
type CurrencyReconciliation struct {
	Currency        string
	Computed        decimal.Decimal
	Stored          decimal.Decimal
	Diff            decimal.Decimal
	ConvertedToBase *decimal.Decimal
	Entries         int
}

// IsReconciled reports whether ledger and wallet agree.
func (c *CurrencyReconciliation) IsReconciled() bool {
	return c.Diff.IsZero()
}

// ReconciliationReport is computed per invocation and never persisted.
type ReconciliationReport struct {
	UserID       string
	BaseCurrency string
	Currencies   []*CurrencyReconciliation
	TotalInBase  decimal.Decimal
	Issues       []string
	CheckedAt    time.Time
}

// Discrepancies returns the currencies whose diff is non-zero.
func (r *ReconciliationReport) Discrepancies() []*CurrencyReconciliation {
	var out []*CurrencyReconciliation
	for _, c := range r.Currencies {
		if !c.IsReconciled() {
			out = append(out, c)
		}
	}
	return out
}

// Currency returns the entry for code, or nil.
func (r *ReconciliationReport) Currency(code string) *CurrencyReconciliation {
	for _, c := range r.Currencies {
		if c.Currency == code {
			return c
		}
	}
	return nil
}

// UserReconciliation is one element of a batch run.
type UserReconciliation struct {
	UserID string
	Report *ReconciliationReport
	Error  string
}

// MissingRateIssue formats the issue recorded for an unconvertible currency.
func MissingRateIssue(currency, base string) string {
	return fmt.Sprintf("Missing rate %s->%s", currency, base)
}
