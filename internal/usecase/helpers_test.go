package usecase_test

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/iho/walletrecon/internal/domain"
)

type stubRateRepository struct {
	mu      sync.Mutex
	pairs   map[string]decimal.Decimal
	usd     map[string]decimal.Decimal
	pairErr error
	calls   int
}

func newStubRateRepository() *stubRateRepository {
	return &stubRateRepository{
		pairs: map[string]decimal.Decimal{},
		usd:   map[string]decimal.Decimal{},
	}
}

func (s *stubRateRepository) GetPair(_ context.Context, from, to string) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.pairErr != nil {
		return decimal.Zero, s.pairErr
	}
	if r, ok := s.pairs[domain.PairKey(from, to)]; ok {
		return r, nil
	}
	return decimal.Zero, domain.ErrRateNotFound
}

func (s *stubRateRepository) GetUSDRate(_ context.Context, code string) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if r, ok := s.usd[code]; ok {
		return r, nil
	}
	return decimal.Zero, domain.ErrRateNotFound
}

type stubTransactionRepository struct {
	byUser map[string][]*domain.Transaction
	errs   map[string]error
}

func (s *stubTransactionRepository) ListByUser(_ context.Context, userID string) ([]*domain.Transaction, error) {
	if err := s.errs[userID]; err != nil {
		return nil, err
	}
	return s.byUser[userID], nil
}

// stubWalletRepository only serves ListByUser; reconciliation never writes.
type stubWalletRepository struct {
	byUser map[string][]*domain.Wallet
	err    error
}

func (s *stubWalletRepository) Create(context.Context, *domain.Wallet) error {
	panic("unexpected Create")
}
func (s *stubWalletRepository) GetByID(context.Context, string) (*domain.Wallet, error) {
	panic("unexpected GetByID")
}
func (s *stubWalletRepository) GetByUserAndCurrency(context.Context, string, string) (*domain.Wallet, error) {
	panic("unexpected GetByUserAndCurrency")
}
func (s *stubWalletRepository) AccountNumberExists(context.Context, string) (bool, error) {
	panic("unexpected AccountNumberExists")
}
func (s *stubWalletRepository) ListByUser(_ context.Context, userID string) ([]*domain.Wallet, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.byUser[userID], nil
}

type stubUserRepository struct {
	users     []*domain.User
	err       error
	gotLimit  int
	gotOffset int
}

func (s *stubUserRepository) List(_ context.Context, limit, offset int) ([]*domain.User, error) {
	s.gotLimit, s.gotOffset = limit, offset
	if s.err != nil {
		return nil, s.err
	}
	if limit < len(s.users) {
		return s.users[:limit], nil
	}
	return s.users, nil
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func tx(kind domain.TransactionKind, amount, currency string) *domain.Transaction {
	return &domain.Transaction{Kind: kind, Amount: dec(amount), CurrencyCode: currency}
}

func wallet(userID, currency, balance string) *domain.Wallet {
	return &domain.Wallet{UserID: userID, CurrencyCode: currency, Balance: dec(balance)}
}
