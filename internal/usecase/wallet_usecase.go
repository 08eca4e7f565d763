package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/walletrecon/internal/domain"
	"github.com/iho/walletrecon/internal/infrastructure/metrics"
)

// WalletUseCase handles wallet creation and lookup.
type WalletUseCase struct {
	walletRepo   WalletRepository
	currencyRepo CurrencyRepository
	procedures   LedgerProcedures
	idGen        IDGenerator
	accountGen   AccountNumberGenerator
	events       EventPublisher
	metrics      *metrics.Metrics
	logger       zerolog.Logger
}

// WalletUseCaseConfig holds WalletUseCase dependencies.
type WalletUseCaseConfig struct {
	WalletRepo     WalletRepository
	CurrencyRepo   CurrencyRepository
	Procedures     LedgerProcedures
	IDGen          IDGenerator
	AccountNumbers AccountNumberGenerator
	Events         EventPublisher
	Metrics        *metrics.Metrics
	Logger         zerolog.Logger
}

// NewWalletUseCase creates a new WalletUseCase.
func NewWalletUseCase(cfg WalletUseCaseConfig) *WalletUseCase {
	return &WalletUseCase{
		walletRepo:   cfg.WalletRepo,
		currencyRepo: cfg.CurrencyRepo,
		procedures:   cfg.Procedures,
		idGen:        cfg.IDGen,
		accountGen:   cfg.AccountNumbers,
		events:       cfg.Events,
		metrics:      cfg.Metrics,
		logger:       cfg.Logger.With().Str("component", "wallets").Logger(),
	}
}

// CreateWallet returns the user's wallet for currencyCode, creating it if needed.
func (uc *WalletUseCase) CreateWallet(ctx context.Context, userID, currencyCode string) (*domain.Wallet, error) {
	if err := domain.ValidateUserID(userID); err != nil {
		return nil, err
	}

	code := domain.NormalizeCurrencyCode(currencyCode)
	if err := domain.ValidateCurrency(code); err != nil {
		return nil, err
	}

	currency, err := uc.currencyRepo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, domain.ErrCurrencyNotFound) {
			return nil, fmt.Errorf("%w: %s", domain.ErrCurrencyNotFound, code)
		}
		return nil, fmt.Errorf("load currency %s: %w", code, err)
	}
	if !currency.Active {
		return nil, fmt.Errorf("%w: %s", domain.ErrCurrencyInactive, code)
	}
	if !currency.Type.IsValid() {
		return nil, fmt.Errorf("%w: %s has type %q", domain.ErrInvalidCurrencyType, code, currency.Type)
	}

	existing, err := uc.findWallet(ctx, userID, code)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	now := time.Now().UTC()
	wallet := &domain.Wallet{
		UserID:         userID,
		CurrencyCode:   code,
		Type:           currency.Type,
		Balance:        decimal.Zero,
		TotalDeposited: decimal.Zero,
		TotalWithdrawn: decimal.Zero,
		Active:         true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	persisted, created, err := uc.insertWallet(ctx, wallet)
	if err != nil {
		return nil, err
	}
	if persisted.Type != currency.Type {
		return nil, fmt.Errorf("%w: wallet %s is %q, currency %s is %q",
			domain.ErrWalletTypeMismatch, persisted.ID, persisted.Type, code, currency.Type)
	}
	if !created {
		return persisted, nil
	}

	uc.logger.Info().
		Str("user_id", userID).
		Str("wallet_id", persisted.ID).
		Str("currency", code).
		Msg("wallet created")

	if uc.metrics != nil {
		uc.metrics.WalletsCreated.WithLabelValues(string(currency.Type)).Inc()
	}

	uc.publish(ctx, domain.WalletEvent{
		Type:         domain.EventTypeWalletCreated,
		UserID:       userID,
		WalletID:     persisted.ID,
		CurrencyCode: code,
		Payload:      map[string]any{"account_number": persisted.AccountNumber, "type": string(persisted.Type)},
	})

	return persisted, nil
}

// GetWallet returns the user's wallet for a currency.
func (uc *WalletUseCase) GetWallet(ctx context.Context, userID, currencyCode string) (*domain.Wallet, error) {
	if err := domain.ValidateUserID(userID); err != nil {
		return nil, err
	}
	return uc.walletRepo.GetByUserAndCurrency(ctx, userID, domain.NormalizeCurrencyCode(currencyCode))
}

// ListWallets returns all wallets of a user.
func (uc *WalletUseCase) ListWallets(ctx context.Context, userID string) ([]*domain.Wallet, error) {
	if err := domain.ValidateUserID(userID); err != nil {
		return nil, err
	}
	return uc.walletRepo.ListByUser(ctx, userID)
}

// ListCurrencies returns the active currencies. When the catalogue cannot
// be read the static list is served instead.
func (uc *WalletUseCase) ListCurrencies(ctx context.Context) ([]*domain.Currency, error) {
	currencies, err := uc.currencyRepo.List(ctx, true)
	if err != nil {
		uc.logger.Warn().Err(err).Msg("currency catalogue unavailable, serving static list")
		return domain.StaticCurrencies(), nil
	}
	return currencies, nil
}

// RecordTransaction appends a ledger entry through the remote procedure,
// which also updates the wallet balance atomically.
func (uc *WalletUseCase) RecordTransaction(ctx context.Context, input RecordTransactionInput) (string, error) {
	if err := domain.ValidateUserID(input.UserID); err != nil {
		return "", err
	}
	input.CurrencyCode = domain.NormalizeCurrencyCode(input.CurrencyCode)
	if err := domain.ValidateCurrency(input.CurrencyCode); err != nil {
		return "", err
	}
	if err := domain.ValidateAmount(input.Amount); err != nil {
		return "", err
	}
	if input.Direction == "" {
		input.Direction = input.Kind.Direction()
	}
	if !input.Direction.IsValid() {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidDirection, input.Direction)
	}

	txID, err := uc.procedures.RecordWalletTransaction(ctx, input)
	if err != nil {
		return "", fmt.Errorf("record wallet transaction: %w", err)
	}

	uc.publish(ctx, domain.WalletEvent{
		Type:         domain.EventTypeWalletTransactionRecorded,
		UserID:       input.UserID,
		CurrencyCode: input.CurrencyCode,
		Payload: map[string]any{
			"transaction_id": txID,
			"kind":           string(input.Kind),
			"direction":      string(input.Direction),
			"amount":         input.Amount.String(),
		},
	})

	return txID, nil
}

// EnsureDefaultWallets asks the database to create the default wallet set.
func (uc *WalletUseCase) EnsureDefaultWallets(ctx context.Context, userID string) error {
	if err := domain.ValidateUserID(userID); err != nil {
		return err
	}
	if err := uc.procedures.EnsureUserWallets(ctx, userID); err != nil {
		return fmt.Errorf("ensure wallets for user %s: %w", userID, err)
	}
	uc.publish(ctx, domain.WalletEvent{Type: domain.EventTypeWalletsEnsured, UserID: userID})
	return nil
}

func (uc *WalletUseCase) findWallet(ctx context.Context, userID, code string) (*domain.Wallet, error) {
	wallet, err := uc.walletRepo.GetByUserAndCurrency(ctx, userID, code)
	if err != nil {
		if errors.Is(err, domain.ErrWalletNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("lookup wallet: %w", err)
	}
	return wallet, nil
}

// insertWallet draws account numbers until the insert goes through, within
// MaxAccountNumberAttempts. The returned wallet is re-read from storage; when
// a concurrent creator took the (user, currency) pair first it is theirs and
// created is false.
func (uc *WalletUseCase) insertWallet(ctx context.Context, wallet *domain.Wallet) (*domain.Wallet, bool, error) {
	for attempt := 1; attempt <= MaxAccountNumberAttempts; attempt++ {
		candidate, err := uc.accountGen.Generate()
		if err != nil {
			return nil, false, fmt.Errorf("generate account number: %w", err)
		}

		exists, err := uc.walletRepo.AccountNumberExists(ctx, candidate)
		if err != nil {
			return nil, false, fmt.Errorf("check account number: %w", err)
		}
		if exists {
			uc.logger.Debug().Int("attempt", attempt).Msg("account number collision")
			continue
		}

		if wallet.ID == "" {
			wallet.ID = uc.idGen.Generate()
		}
		wallet.AccountNumber = candidate

		err = uc.walletRepo.Create(ctx, wallet)
		switch {
		case err == nil:
			persisted, err := uc.walletRepo.GetByID(ctx, wallet.ID)
			if err != nil {
				return nil, false, fmt.Errorf("reload wallet %s: %w", wallet.ID, err)
			}
			return persisted, true, nil
		case errors.Is(err, domain.ErrWalletExists):
			// Lost a race with a concurrent creator.
			winner, err := uc.walletRepo.GetByUserAndCurrency(ctx, wallet.UserID, wallet.CurrencyCode)
			if err != nil {
				return nil, false, fmt.Errorf("reload wallet: %w", err)
			}
			return winner, false, nil
		case errors.Is(err, domain.ErrAccountNumberTaken):
			uc.logger.Debug().Int("attempt", attempt).Msg("account number taken on insert")
			continue
		default:
			return nil, false, fmt.Errorf("create wallet: %w", err)
		}
	}

	return nil, false, fmt.Errorf("%w after %d attempts", domain.ErrAccountNumberExhausted, MaxAccountNumberAttempts)
}

func (uc *WalletUseCase) publish(ctx context.Context, event domain.WalletEvent) {
	if uc.events == nil {
		return
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	uc.events.Publish(ctx, event)
}
