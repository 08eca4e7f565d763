package domain

import "time"

// Event types
const (
	EventTypeWalletCreated             = "wallet.created"
	EventTypeWalletTransactionRecorded = "wallet.transaction_recorded"
	EventTypeWalletsEnsured            = "wallet.ensured"
)

// WalletEvent notifies subscribers of a wallet change.
type WalletEvent struct {
	Type         string
	UserID       string
	WalletID     string
	CurrencyCode string
	Payload      map[string]any
	OccurredAt   time.Time
}
