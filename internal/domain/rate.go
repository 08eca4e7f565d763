package domain

import (
	"math"

	"github.com/shopspring/decimal"
)

// RateMethod records how a rate was obtained.
type RateMethod string

const (
	RateMethodIdentity RateMethod = "identity"
	RateMethodDirect   RateMethod = "direct"
	RateMethodPivot    RateMethod = "pivot"
	RateMethodInverse  RateMethod = "inverse"
	RateMethodExternal RateMethod = "external"
)

// RatePrecision is the number of decimal places kept on divisions.
const RatePrecision = 16

// RateQuote is a resolved conversion rate: 1 From = Rate To.
type RateQuote struct {
	From   string
	To     string
	Rate   decimal.Decimal
	Method RateMethod
}

// Convert applies the quote to amount.
func (q *RateQuote) Convert(amount decimal.Decimal) decimal.Decimal {
	return amount.Mul(q.Rate)
}

// PairKey formats a directional pair the way the pairs table is keyed.
func PairKey(from, to string) string {
	return from + "_" + to
}

// ValidRate reports whether r is usable as a conversion rate.
func ValidRate(r decimal.Decimal) bool {
	return r.IsPositive()
}

// ValidFloatRate rejects NaN, infinities and non-positive values before
// they are turned into decimals.
func ValidFloatRate(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0) && f > 0
}
