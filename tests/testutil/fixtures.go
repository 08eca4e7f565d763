package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"

	"github.com/iho/walletrecon/internal/infrastructure/postgres"
)

// TestDB provides isolated test database connections.
type TestDB struct {
	Pool *pgxpool.Pool
	t    *testing.T
}

// NewTestDB connects to DATABASE_URL and applies the migrations. The test is
// skipped when DATABASE_URL is not set.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set")
	}

	migrationsPath := "internal/infrastructure/postgres/migrations"
	for _, candidate := range []string{
		migrationsPath,
		"../../" + migrationsPath,
		"../../../" + migrationsPath,
	} {
		if _, err := os.Stat(candidate); err == nil {
			migrationsPath = candidate
			break
		}
	}

	if err := postgres.RunMigrations(dbURL, migrationsPath); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := postgres.NewPool(ctx, dbURL, 5, 1)
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

	return &TestDB{Pool: pool, t: t}
}

// Cleanup closes the database connection.
func (db *TestDB) Cleanup() {
	db.Pool.Close()
}

// TruncateAll removes all mutable data. Seeded currencies are kept.
func (db *TestDB) TruncateAll(ctx context.Context) {
	db.t.Helper()

	_, err := db.Pool.Exec(ctx, `
		TRUNCATE wallet_transactions, wallets, users, pairs RESTART IDENTITY CASCADE
	`)
	if err != nil {
		db.t.Fatalf("failed to truncate tables: %v", err)
	}
}

// CreateUser inserts a user and returns its ID.
func (db *TestDB) CreateUser(ctx context.Context) string {
	db.t.Helper()

	id := ulid.Make().String()
	if _, err := db.Pool.Exec(ctx, `INSERT INTO users (id) VALUES ($1)`, id); err != nil {
		db.t.Fatalf("failed to create user: %v", err)
	}
	return id
}

// SetPair stores a directional rate in the pairs table.
func (db *TestDB) SetPair(ctx context.Context, from, to string, rate decimal.Decimal) {
	db.t.Helper()

	_, err := db.Pool.Exec(ctx, `
		INSERT INTO pairs (from_currency, to_currency, rate) VALUES ($1, $2, $3::numeric)
		ON CONFLICT (from_currency, to_currency) DO UPDATE SET rate = EXCLUDED.rate
	`, from, to, rate.String())
	if err != nil {
		db.t.Fatalf("failed to set pair: %v", err)
	}
}

// SetBalance overwrites a wallet balance, simulating an out-of-band change.
func (db *TestDB) SetBalance(ctx context.Context, userID, currency string, balance decimal.Decimal) {
	db.t.Helper()

	_, err := db.Pool.Exec(ctx, `
		UPDATE wallets SET balance = $3::numeric WHERE user_id = $1 AND currency_code = $2
	`, userID, currency, balance.String())
	if err != nil {
		db.t.Fatalf("failed to set balance: %v", err)
	}
}

// InsertLegacyTransaction writes a ledger row without a direction, the way
// older clients did.
func (db *TestDB) InsertLegacyTransaction(ctx context.Context, userID, kind, currency string, amount decimal.Decimal) {
	db.t.Helper()

	_, err := db.Pool.Exec(ctx, `
		INSERT INTO wallet_transactions (id, user_id, type, amount, currency_code)
		VALUES ($1, $2, $3, $4::numeric, $5)
	`, ulid.Make().String(), userID, kind, amount.String(), currency)
	if err != nil {
		db.t.Fatalf("failed to insert transaction: %v", err)
	}
}
