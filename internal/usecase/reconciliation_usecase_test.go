package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/iho/walletrecon/internal/domain"
	"github.com/iho/walletrecon/internal/infrastructure/metrics"
	"github.com/iho/walletrecon/internal/usecase"
)

type reconciliationFixture struct {
	txs     *stubTransactionRepository
	wallets *stubWalletRepository
	users   *stubUserRepository
	rates   *stubRateRepository
	metrics *metrics.Metrics
}

func newReconciliationFixture() *reconciliationFixture {
	return &reconciliationFixture{
		txs:     &stubTransactionRepository{byUser: map[string][]*domain.Transaction{}, errs: map[string]error{}},
		wallets: &stubWalletRepository{byUser: map[string][]*domain.Wallet{}},
		users:   &stubUserRepository{},
		rates:   newStubRateRepository(),
		metrics: metrics.New(prometheus.NewRegistry()),
	}
}

func (f *reconciliationFixture) useCase() *usecase.ReconciliationUseCase {
	return f.useCaseWithResolver(usecase.NewRateUseCase(f.rates, nil, nil, zerolog.Nop()))
}

func (f *reconciliationFixture) useCaseWithResolver(rates usecase.RateResolver) *usecase.ReconciliationUseCase {
	return usecase.NewReconciliationUseCase(
		f.wallets,
		f.users,
		usecase.NewAggregationUseCase(f.txs),
		rates,
		f.metrics,
		zerolog.Nop(),
	)
}

func TestReconcile_InSync(t *testing.T) {
	f := newReconciliationFixture()
	f.txs.byUser["user-1"] = []*domain.Transaction{
		tx(domain.KindDeposit, "100", "PHP"),
		tx(domain.KindSent, "30", "PHP"),
	}
	f.wallets.byUser["user-1"] = []*domain.Wallet{wallet("user-1", "PHP", "70")}

	report, err := f.useCase().Reconcile(context.Background(), "user-1", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.BaseCurrency != "PHP" {
		t.Fatalf("expected default base PHP, got %s", report.BaseCurrency)
	}
	php := report.Currency("PHP")
	if php == nil {
		t.Fatalf("expected PHP entry")
	}
	if !php.Computed.Equal(dec("70")) || !php.Stored.Equal(dec("70")) || !php.Diff.IsZero() {
		t.Fatalf("expected in-sync PHP 70/70/0, got %s/%s/%s", php.Computed, php.Stored, php.Diff)
	}
	if php.Entries != 2 {
		t.Fatalf("expected 2 entries, got %d", php.Entries)
	}
	if !report.TotalInBase.Equal(dec("70")) {
		t.Fatalf("expected total 70, got %s", report.TotalInBase)
	}
	if len(report.Issues) != 0 || len(report.Discrepancies()) != 0 {
		t.Fatalf("expected a clean report, got issues=%v", report.Issues)
	}
	if got := testutil.ToFloat64(f.metrics.ReconciliationRuns.WithLabelValues("success")); got != 1 {
		t.Fatalf("expected 1 successful run, got %v", got)
	}
}

func TestReconcile_MissingRateBecomesIssue(t *testing.T) {
	f := newReconciliationFixture()
	f.txs.byUser["user-1"] = []*domain.Transaction{
		tx(domain.KindDeposit, "100", "PHP"),
		tx(domain.KindReceived, "0.5", "BTC"),
	}
	f.wallets.byUser["user-1"] = []*domain.Wallet{
		wallet("user-1", "BTC", "0.5"),
		wallet("user-1", "PHP", "100"),
	}

	report, err := f.useCase().Reconcile(context.Background(), "user-1", "PHP")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(report.Issues) != 1 || report.Issues[0] != "Missing rate BTC->PHP" {
		t.Fatalf("expected missing BTC rate issue, got %v", report.Issues)
	}
	if !report.TotalInBase.Equal(dec("100")) {
		t.Fatalf("expected total to exclude BTC, got %s", report.TotalInBase)
	}

	btc := report.Currency("BTC")
	if btc == nil || btc.ConvertedToBase != nil {
		t.Fatalf("expected BTC entry without conversion, got %+v", btc)
	}
	if !btc.Diff.IsZero() {
		t.Fatalf("expected BTC in sync, got diff %s", btc.Diff)
	}
	if got := testutil.ToFloat64(f.metrics.MissingRates.WithLabelValues("BTC", "PHP")); got != 1 {
		t.Fatalf("expected missing rate metric, got %v", got)
	}
}

func TestReconcile_WalletWithoutTransactionsAndRate(t *testing.T) {
	f := newReconciliationFixture()
	f.txs.byUser["user-1"] = []*domain.Transaction{
		tx(domain.KindDeposit, "100", "PHP"),
		tx(domain.KindSent, "30", "PHP"),
	}
	f.wallets.byUser["user-1"] = []*domain.Wallet{
		wallet("user-1", "PHP", "70"),
		wallet("user-1", "BTC", "0.5"),
	}

	report, err := f.useCase().Reconcile(context.Background(), "user-1", "PHP")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	php := report.Currency("PHP")
	if php == nil || !php.Diff.IsZero() {
		t.Fatalf("expected PHP in sync, got %+v", php)
	}

	btc := report.Currency("BTC")
	if btc == nil {
		t.Fatalf("expected a BTC entry for the wallet-only currency")
	}
	if !btc.Computed.IsZero() || !btc.Stored.Equal(dec("0.5")) || !btc.Diff.Equal(dec("-0.5")) {
		t.Fatalf("expected BTC 0/0.5/-0.5, got %s/%s/%s", btc.Computed, btc.Stored, btc.Diff)
	}
	if btc.Entries != 0 || btc.ConvertedToBase != nil {
		t.Fatalf("expected BTC without entries or conversion, got %+v", btc)
	}

	if len(report.Issues) != 1 || report.Issues[0] != "Missing rate BTC->PHP" {
		t.Fatalf("expected missing BTC rate issue, got %v", report.Issues)
	}
	if !report.TotalInBase.Equal(dec("70")) {
		t.Fatalf("expected total to be the PHP contribution only, got %s", report.TotalInBase)
	}
	if d := report.Discrepancies(); len(d) != 1 || d[0].Currency != "BTC" {
		t.Fatalf("expected BTC as the only discrepancy, got %v", d)
	}
}

func TestReconcile_ConvertsForeignCurrencies(t *testing.T) {
	f := newReconciliationFixture()
	f.rates.pairs["USD_PHP"] = dec("56")
	f.txs.byUser["user-1"] = []*domain.Transaction{
		tx(domain.KindDeposit, "10", "USD"),
		tx(domain.KindDeposit, "70", "PHP"),
	}
	f.wallets.byUser["user-1"] = []*domain.Wallet{
		wallet("user-1", "PHP", "70"),
		wallet("user-1", "USD", "10"),
	}

	report, err := f.useCase().Reconcile(context.Background(), "user-1", "php")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	usd := report.Currency("USD")
	if usd.ConvertedToBase == nil || !usd.ConvertedToBase.Equal(dec("560")) {
		t.Fatalf("expected USD converted to 560, got %v", usd.ConvertedToBase)
	}
	if !report.TotalInBase.Equal(dec("630")) {
		t.Fatalf("expected total 630, got %s", report.TotalInBase)
	}
	if report.Currencies[0].Currency != "PHP" || report.Currencies[1].Currency != "USD" {
		t.Fatalf("expected entries sorted by currency code")
	}
}

func TestReconcile_ReportsDrift(t *testing.T) {
	f := newReconciliationFixture()
	f.txs.byUser["user-1"] = []*domain.Transaction{tx(domain.KindDeposit, "70", "PHP")}
	f.wallets.byUser["user-1"] = []*domain.Wallet{
		wallet("user-1", "PHP", "80"),
		wallet("user-1", "EUR", "5"),
	}
	f.rates.pairs["EUR_PHP"] = dec("60")

	report, err := f.useCase().Reconcile(context.Background(), "user-1", "PHP")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := report.Currency("PHP").Diff; !got.Equal(dec("-10")) {
		t.Fatalf("expected PHP diff -10, got %s", got)
	}

	eur := report.Currency("EUR")
	if eur == nil || !eur.Computed.IsZero() || !eur.Diff.Equal(dec("-5")) || eur.Entries != 0 {
		t.Fatalf("expected wallet-only EUR entry with diff -5, got %+v", eur)
	}

	if len(report.Discrepancies()) != 2 {
		t.Fatalf("expected 2 discrepancies, got %d", len(report.Discrepancies()))
	}
	if got := testutil.ToFloat64(f.metrics.ReconciliationDiscrepancies.WithLabelValues("PHP")); got != 1 {
		t.Fatalf("expected PHP discrepancy metric, got %v", got)
	}
}

func TestReconcile_DiffRoundsToEightPlaces(t *testing.T) {
	f := newReconciliationFixture()
	f.txs.byUser["user-1"] = []*domain.Transaction{
		tx(domain.KindDeposit, "0.1", "PHP"),
		tx(domain.KindDeposit, "0.2", "PHP"),
	}
	f.wallets.byUser["user-1"] = []*domain.Wallet{wallet("user-1", "PHP", "0.300000000001")}

	report, err := f.useCase().Reconcile(context.Background(), "user-1", "PHP")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !report.Currency("PHP").Diff.IsZero() {
		t.Fatalf("expected sub-precision drift to round to zero, got %s", report.Currency("PHP").Diff)
	}
}

func TestReconcile_EmptyUser(t *testing.T) {
	f := newReconciliationFixture()

	report, err := f.useCase().Reconcile(context.Background(), "user-9", "PHP")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(report.Currencies) != 0 || !report.TotalInBase.IsZero() || report.Issues == nil {
		t.Fatalf("expected empty report with non-nil issues, got %+v", report)
	}
}

func TestReconcile_StorageErrorsPropagate(t *testing.T) {
	dbErr := errors.New("db down")

	f := newReconciliationFixture()
	f.txs.errs["user-1"] = dbErr
	if _, err := f.useCase().Reconcile(context.Background(), "user-1", "PHP"); !errors.Is(err, dbErr) {
		t.Fatalf("expected transaction error, got %v", err)
	}

	f = newReconciliationFixture()
	f.wallets.err = dbErr
	if _, err := f.useCase().Reconcile(context.Background(), "user-1", "PHP"); !errors.Is(err, dbErr) {
		t.Fatalf("expected wallet error, got %v", err)
	}
}

type failingResolver struct{ err error }

func (r failingResolver) GetRate(context.Context, string, string) (*domain.RateQuote, error) {
	return nil, r.err
}

func TestReconcile_UnexpectedRateErrorAborts(t *testing.T) {
	f := newReconciliationFixture()
	f.txs.byUser["user-1"] = []*domain.Transaction{tx(domain.KindDeposit, "5", "USD")}

	_, err := f.useCaseWithResolver(failingResolver{err: context.DeadlineExceeded}).
		Reconcile(context.Background(), "user-1", "PHP")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
}

func TestReconcileAllUsers_ContinuesPastFailures(t *testing.T) {
	f := newReconciliationFixture()
	f.users.users = []*domain.User{{ID: "user-1"}, {ID: "user-2"}, {ID: "user-3"}}
	f.txs.byUser["user-1"] = []*domain.Transaction{tx(domain.KindDeposit, "10", "PHP")}
	f.txs.errs["user-2"] = errors.New("ledger unavailable")
	f.txs.byUser["user-3"] = []*domain.Transaction{tx(domain.KindDeposit, "5", "PHP")}
	f.wallets.byUser["user-1"] = []*domain.Wallet{wallet("user-1", "PHP", "10")}
	f.wallets.byUser["user-3"] = []*domain.Wallet{wallet("user-3", "PHP", "5")}

	results, err := f.useCase().ReconcileAllUsers(context.Background(), 10, "PHP")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	if results[0].Report == nil || results[0].Error != "" {
		t.Fatalf("expected report for user-1, got %+v", results[0])
	}
	if results[1].UserID != "user-2" || results[1].Report != nil || results[1].Error == "" {
		t.Fatalf("expected error for user-2, got %+v", results[1])
	}
	if results[2].Report == nil || !results[2].Report.TotalInBase.Equal(dec("5")) {
		t.Fatalf("expected report for user-3, got %+v", results[2])
	}
	if got := testutil.ToFloat64(f.metrics.ReconciliationRuns.WithLabelValues("error")); got != 1 {
		t.Fatalf("expected 1 failed run, got %v", got)
	}
}

func TestReconcileAllUsers_BatchSize(t *testing.T) {
	tests := []struct {
		name      string
		batchSize int
		wantLimit int
	}{
		{name: "default", batchSize: 0, wantLimit: usecase.DefaultBatchSize},
		{name: "explicit", batchSize: 25, wantLimit: 25},
		{name: "clamped", batchSize: domain.MaxPageSize + 500, wantLimit: domain.MaxPageSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newReconciliationFixture()

			if _, err := f.useCase().ReconcileAllUsers(context.Background(), tt.batchSize, "PHP"); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if f.users.gotLimit != tt.wantLimit || f.users.gotOffset != 0 {
				t.Fatalf("expected limit %d offset 0, got %d/%d", tt.wantLimit, f.users.gotLimit, f.users.gotOffset)
			}
		})
	}
}

func TestReconcileAllUsers_ListError(t *testing.T) {
	f := newReconciliationFixture()
	f.users.err = errors.New("users table locked")

	if _, err := f.useCase().ReconcileAllUsers(context.Background(), 10, "PHP"); !errors.Is(err, f.users.err) {
		t.Fatalf("expected list error, got %v", err)
	}
}
