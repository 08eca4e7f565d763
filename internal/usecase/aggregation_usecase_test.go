package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/walletrecon/internal/domain"
	"github.com/iho/walletrecon/internal/usecase"
)

func TestAggregate_SignsAndGroups(t *testing.T) {
	txs := []*domain.Transaction{
		tx(domain.KindDeposit, "100", "PHP"),
		tx(domain.KindSent, "30", "PHP"),
		tx(domain.KindBillPayment, "5", "PHP"),
		tx(domain.KindReceived, "0.5", "BTC"),
		tx("crypto_withdrawal", "0.1", "BTC"),
		tx(domain.KindRefund, "2", ""),
		nil,
	}

	ledgers := usecase.Aggregate(txs)

	php := ledgers["PHP"]
	if php == nil || !php.Computed.Equal(dec("67")) {
		t.Fatalf("expected PHP 67, got %+v", php)
	}
	if len(php.Entries) != 4 {
		t.Fatalf("expected 4 PHP entries (including defaulted currency), got %d", len(php.Entries))
	}

	btc := ledgers["BTC"]
	if btc == nil || !btc.Computed.Equal(dec("0.4")) {
		t.Fatalf("expected BTC 0.4, got %+v", btc)
	}
}

func TestAggregate_ExplicitDirectionWins(t *testing.T) {
	txs := []*domain.Transaction{
		// Keyword rule would call this a debit.
		{Kind: domain.KindSent, Direction: domain.DirectionCredit, Amount: dec("10"), CurrencyCode: "PHP"},
		// Keyword rule would call this a credit.
		{Kind: domain.KindAdjustment, Direction: domain.DirectionDebit, Amount: dec("4"), CurrencyCode: "PHP"},
	}

	ledgers := usecase.Aggregate(txs)

	if got := ledgers["PHP"].Computed; !got.Equal(dec("6")) {
		t.Fatalf("expected 6, got %s", got)
	}
}

func TestAggregate_MagnitudeAndNullAmounts(t *testing.T) {
	txs := []*domain.Transaction{
		// Stored sign is ignored; the kind decides.
		{Kind: domain.KindWithdrawal, Amount: dec("-20"), CurrencyCode: "PHP"},
		{Kind: domain.KindDeposit, Amount: decimal.Zero, CurrencyCode: "PHP"},
		{Kind: domain.KindDeposit, CurrencyCode: "PHP"},
	}

	ledgers := usecase.Aggregate(txs)

	if got := ledgers["PHP"].Computed; !got.Equal(dec("-20")) {
		t.Fatalf("expected -20, got %s", got)
	}
}

func TestAggregate_Empty(t *testing.T) {
	if got := usecase.Aggregate(nil); len(got) != 0 {
		t.Fatalf("expected no ledgers, got %v", got)
	}
}

func TestAggregationUseCase_KeepsLedgerOrder(t *testing.T) {
	t0 := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	first := &domain.Transaction{ID: "a", Kind: domain.KindDeposit, Amount: dec("1"), CurrencyCode: "PHP", CreatedAt: t0}
	second := &domain.Transaction{ID: "b", Kind: domain.KindDeposit, Amount: dec("2"), CurrencyCode: "PHP", CreatedAt: t0.Add(time.Hour)}

	repo := &stubTransactionRepository{byUser: map[string][]*domain.Transaction{"user-1": {first, second}}}
	uc := usecase.NewAggregationUseCase(repo)

	ledgers, err := uc.AggregateByCurrency(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	entries := ledgers["PHP"].Entries
	if len(entries) != 2 || entries[0].ID != "a" || entries[1].ID != "b" {
		t.Fatalf("expected ledger order a,b, got %v", entries)
	}
}

func TestAggregationUseCase_RepositoryError(t *testing.T) {
	dbErr := errors.New("db down")
	repo := &stubTransactionRepository{errs: map[string]error{"user-1": dbErr}}
	uc := usecase.NewAggregationUseCase(repo)

	if _, err := uc.AggregateByCurrency(context.Background(), "user-1"); !errors.Is(err, dbErr) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}
