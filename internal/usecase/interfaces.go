package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/walletrecon/internal/domain"
)

// CurrencyRepository defines read access to currency reference data.
type CurrencyRepository interface {
	GetByCode(ctx context.Context, code string) (*domain.Currency, error)
	List(ctx context.Context, activeOnly bool) ([]*domain.Currency, error)
}

// WalletRepository defines data access for wallets.
type WalletRepository interface {
	Create(ctx context.Context, wallet *domain.Wallet) error
	GetByID(ctx context.Context, id string) (*domain.Wallet, error)
	GetByUserAndCurrency(ctx context.Context, userID, currencyCode string) (*domain.Wallet, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.Wallet, error)
	AccountNumberExists(ctx context.Context, accountNumber string) (bool, error)
}

// TransactionRepository defines read access to the append-only ledger.
type TransactionRepository interface {
	ListByUser(ctx context.Context, userID string) ([]*domain.Transaction, error)
}

// RateRepository defines read access to stored rates.
// GetPair returns domain.ErrRateNotFound when no row exists for the pair.
type RateRepository interface {
	GetPair(ctx context.Context, from, to string) (decimal.Decimal, error)
	GetUSDRate(ctx context.Context, code string) (decimal.Decimal, error)
}

// RateStore persists a USD-based rate table.
type RateStore interface {
	UpsertUSDRates(ctx context.Context, rates map[string]decimal.Decimal, source string) error
}

// UserRepository defines read access to users.
type UserRepository interface {
	List(ctx context.Context, limit, offset int) ([]*domain.User, error)
}

// RecordTransactionInput is passed to the remote ledger procedure.
type RecordTransactionInput struct {
	UserID       string
	CurrencyCode string
	Kind         domain.TransactionKind
	Direction    domain.Direction
	Amount       decimal.Decimal
	ReferenceID  string
	Description  string
}

// LedgerProcedures invokes the atomic stored procedures owned by the database.
type LedgerProcedures interface {
	RecordWalletTransaction(ctx context.Context, input RecordTransactionInput) (string, error)
	EnsureUserWallets(ctx context.Context, userID string) error
}

// RateProvider returns live quotes from an external source.
type RateProvider interface {
	Quote(ctx context.Context, from, to string) (float64, error)
}

// EventPublisher delivers wallet events to subscribers.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.WalletEvent)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// AccountNumberGenerator produces candidate wallet account numbers.
type AccountNumberGenerator interface {
	Generate() (string, error)
}

// Cache defines caching operations.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore remembers responses of mutating requests by key.
type IdempotencyStore interface {
	Claim(ctx context.Context, key string, ttl time.Duration) (claimed bool, response []byte, err error)
	Complete(ctx context.Context, key string, response []byte, ttl time.Duration) error
	Release(ctx context.Context, key string) error
}
