package postgres

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"

	"github.com/oklog/ulid/v2"
)

// ULIDGenerator generates ULID-based IDs.
type ULIDGenerator struct{}

// NewULIDGenerator creates a new ULIDGenerator.
func NewULIDGenerator() *ULIDGenerator {
	return &ULIDGenerator{}
}

// Generate generates a new ULID.
func (g *ULIDGenerator) Generate() string {
	return ulid.Make().String()
}

// AccountNumberLength is the number of digits in a wallet account number.
const AccountNumberLength = 12

// AccountNumberGenerator draws random numeric account numbers.
type AccountNumberGenerator struct {
	rand io.Reader
}

// NewAccountNumberGenerator creates a generator backed by crypto/rand.
func NewAccountNumberGenerator() *AccountNumberGenerator {
	return &AccountNumberGenerator{rand: rand.Reader}
}

// Generate returns a zero-padded AccountNumberLength digit string.
func (g *AccountNumberGenerator) Generate() (string, error) {
	limit := new(big.Int).Exp(big.NewInt(10), big.NewInt(AccountNumberLength), nil)

	n, err := rand.Int(g.rand, limit)
	if err != nil {
		return "", fmt.Errorf("generate account number: %w", err)
	}

	return fmt.Sprintf("%0*s", AccountNumberLength, n.String()), nil
}
