package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/iho/walletrecon/internal/domain"
)

const (
	walletUserCurrencyConstraint  = "wallets_user_currency_key"
	walletAccountNumberConstraint = "wallets_account_number_key"
)

// WalletRepository implements usecase.WalletRepository.
type WalletRepository struct {
	pool Pool
}

// NewWalletRepository creates a new WalletRepository.
func NewWalletRepository(pool Pool) *WalletRepository {
	return &WalletRepository{pool: pool}
}

const walletColumns = `id, user_id, currency_code, type, balance, total_deposited, total_withdrawn, account_number, is_active, created_at, updated_at`

// Create inserts a new wallet. A second wallet for the same user and
// currency yields domain.ErrWalletExists, a duplicate account number
// domain.ErrAccountNumberTaken.
func (r *WalletRepository) Create(ctx context.Context, w *domain.Wallet) error {
	query := `
		INSERT INTO wallets (` + walletColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.pool.Exec(ctx, query,
		w.ID,
		w.UserID,
		w.CurrencyCode,
		string(w.Type),
		decimalToNumeric(w.Balance),
		decimalToNumeric(w.TotalDeposited),
		decimalToNumeric(w.TotalWithdrawn),
		w.AccountNumber,
		w.Active,
		w.CreatedAt,
		w.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, walletUserCurrencyConstraint) {
			return domain.ErrWalletExists
		}
		if isUniqueViolation(err, walletAccountNumberConstraint) {
			return domain.ErrAccountNumberTaken
		}
		return fmt.Errorf("insert wallet: %w", err)
	}

	return nil
}

// GetByID retrieves a wallet by ID.
func (r *WalletRepository) GetByID(ctx context.Context, id string) (*domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE id = $1`

	w, err := scanWallet(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrWalletNotFound
		}
		return nil, fmt.Errorf("get wallet by id: %w", err)
	}

	return w, nil
}

// GetByUserAndCurrency retrieves the wallet a user holds in a currency.
func (r *WalletRepository) GetByUserAndCurrency(ctx context.Context, userID, currencyCode string) (*domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE user_id = $1 AND currency_code = $2`

	w, err := scanWallet(r.pool.QueryRow(ctx, query, userID, currencyCode))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrWalletNotFound
		}
		return nil, fmt.Errorf("get wallet by user and currency: %w", err)
	}

	return w, nil
}

// ListByUser returns all wallets of a user ordered by currency.
func (r *WalletRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE user_id = $1 ORDER BY currency_code`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list wallets: %w", err)
	}
	defer rows.Close()

	var wallets []*domain.Wallet
	for rows.Next() {
		w, err := scanWallet(rows)
		if err != nil {
			return nil, fmt.Errorf("scan wallet: %w", err)
		}
		wallets = append(wallets, w)
	}

	return wallets, rows.Err()
}

// AccountNumberExists reports whether any wallet uses accountNumber.
func (r *WalletRepository) AccountNumberExists(ctx context.Context, accountNumber string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM wallets WHERE account_number = $1)`,
		accountNumber,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check account number: %w", err)
	}
	return exists, nil
}

func scanWallet(row pgx.Row) (*domain.Wallet, error) {
	var (
		w                                   domain.Wallet
		wtype                               string
		balance, totalDeposited, totalWithd pgtype.Numeric
	)

	err := row.Scan(
		&w.ID,
		&w.UserID,
		&w.CurrencyCode,
		&wtype,
		&balance,
		&totalDeposited,
		&totalWithd,
		&w.AccountNumber,
		&w.Active,
		&w.CreatedAt,
		&w.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	w.Type = domain.CurrencyType(wtype)
	w.Balance = numericToDecimal(balance)
	w.TotalDeposited = numericToDecimal(totalDeposited)
	w.TotalWithdrawn = numericToDecimal(totalWithd)

	return &w, nil
}
