package usecase

import "time"

const (
	// DefaultBaseCurrency is the currency reconciliation totals are normalised to.
	DefaultBaseCurrency = "PHP"

	// MaxAccountNumberAttempts bounds the account number uniqueness loop.
	MaxAccountNumberAttempts = 10

	// DefaultBatchSize is used when a batch reconciliation gets no size.
	DefaultBatchSize = 100

	// ExternalQuoteTimeout caps a single live rate lookup.
	ExternalQuoteTimeout = 5 * time.Second
)
