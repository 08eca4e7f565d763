package domain

import "strings"

// CurrencyType classifies a currency.
type CurrencyType string

const (
	CurrencyTypeFiat   CurrencyType = "fiat"
	CurrencyTypeCrypto CurrencyType = "crypto"
	CurrencyTypeWire   CurrencyType = "wire"
)

// IsValid reports whether the type is one a wallet can be opened for.
func (t CurrencyType) IsValid() bool {
	switch t {
	case CurrencyTypeFiat, CurrencyTypeCrypto, CurrencyTypeWire:
		return true
	}
	return false
}

// DefaultCurrency is assumed for ledger rows without a currency code.
const DefaultCurrency = "PHP"

// PivotCurrency is the intermediate currency for cross rates.
const PivotCurrency = "USD"

// Currency is immutable reference data.
type Currency struct {
	Code     string
	Name     string
	Symbol   string
	Type     CurrencyType
	Decimals int
	Active   bool
}

// NormalizeCurrencyCode upper-cases and trims a currency code.
func NormalizeCurrencyCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// StaticCurrencies is the currency list served when the catalogue is
// unreachable. It mirrors the seeded rows.
func StaticCurrencies() []*Currency {
	return []*Currency{
		{Code: "BTC", Name: "Bitcoin", Symbol: "₿", Type: CurrencyTypeCrypto, Decimals: 8, Active: true},
		{Code: "ETH", Name: "Ethereum", Symbol: "Ξ", Type: CurrencyTypeCrypto, Decimals: 8, Active: true},
		{Code: "EUR", Name: "Euro", Symbol: "€", Type: CurrencyTypeFiat, Decimals: 2, Active: true},
		{Code: "JPY", Name: "Japanese Yen", Symbol: "¥", Type: CurrencyTypeFiat, Decimals: 0, Active: true},
		{Code: "PHP", Name: "Philippine Peso", Symbol: "₱", Type: CurrencyTypeFiat, Decimals: 2, Active: true},
		{Code: "SWIFT", Name: "SWIFT Wire (USD)", Symbol: "$", Type: CurrencyTypeWire, Decimals: 2, Active: true},
		{Code: "USD", Name: "US Dollar", Symbol: "$", Type: CurrencyTypeFiat, Decimals: 2, Active: true},
		{Code: "USDT", Name: "Tether", Symbol: "₮", Type: CurrencyTypeCrypto, Decimals: 6, Active: true},
	}
}
