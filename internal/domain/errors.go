package domain

import "errors"

var (
	// Wallet errors
	ErrInvalidUserID          = errors.New("invalid user id")
	ErrWalletNotFound         = errors.New("wallet not found")
	ErrWalletExists           = errors.New("wallet already exists")
	ErrWalletTypeMismatch     = errors.New("wallet type does not match currency type")
	ErrAccountNumberExhausted = errors.New("could not generate a unique account number")
	ErrAccountNumberTaken     = errors.New("account number already taken")

	// Currency errors
	ErrCurrencyNotFound    = errors.New("currency not found")
	ErrCurrencyInactive    = errors.New("currency is not active")
	ErrInvalidCurrencyType = errors.New("invalid currency type")
	ErrInvalidCurrency     = errors.New("invalid currency code")

	// Rate errors
	ErrRateUnavailable = errors.New("exchange rate unavailable")
	ErrRateNotFound    = errors.New("rate not found")

	// Transaction errors
	ErrInvalidAmount    = errors.New("amount must be positive")
	ErrInvalidDirection = errors.New("invalid transaction direction")
)
