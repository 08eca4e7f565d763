package domain

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Validation constants
const (
	MaxTransactionAmount = "1000000000000" // 1 trillion
	MaxPageSize          = 1000
	DefaultPageSize      = 50
)

// Currency codes cover ISO 4217 as well as crypto tickers such as USDT.
var currencyCodeRegex = regexp.MustCompile(`^[A-Z0-9]{2,10}$`)

// Identifiers the front-end sends when no real user is signed in.
var invalidUserIDs = map[string]bool{
	"":          true,
	"null":      true,
	"undefined": true,
}

const guestUserMarker = "guest-local"

// ValidateUserID rejects missing and guest user identifiers.
func ValidateUserID(userID string) error {
	id := strings.TrimSpace(userID)
	if invalidUserIDs[strings.ToLower(id)] {
		return fmt.Errorf("%w: %q", ErrInvalidUserID, userID)
	}
	if strings.Contains(id, guestUserMarker) {
		return fmt.Errorf("%w: guest session %q", ErrInvalidUserID, userID)
	}
	return nil
}

// ValidateCurrency validates the shape of a currency code.
func ValidateCurrency(currency string) error {
	code := NormalizeCurrencyCode(currency)
	if !currencyCodeRegex.MatchString(code) {
		return fmt.Errorf("%w: %q", ErrInvalidCurrency, currency)
	}
	return nil
}

// ValidateAmount validates a transaction amount.
func ValidateAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	maxAmount, _ := decimal.NewFromString(MaxTransactionAmount)
	if amount.GreaterThan(maxAmount) {
		return fmt.Errorf("%w: maximum amount is %s", ErrInvalidAmount, MaxTransactionAmount)
	}

	return nil
}

// ValidatePagination validates and limits pagination parameters
func ValidatePagination(limit, offset int) (int, int, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset, nil
}
