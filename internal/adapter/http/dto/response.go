package dto

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/walletrecon/internal/domain"
)

// RateResponse represents a resolved exchange rate.
type RateResponse struct {
	From      string           `json:"from"`
	To        string           `json:"to"`
	Rate      decimal.Decimal  `json:"rate"`
	Method    string           `json:"method"`
	Amount    *decimal.Decimal `json:"amount,omitempty"`
	Converted *decimal.Decimal `json:"converted,omitempty"`
}

// RateFromDomain converts a quote to a response. When amount is non-nil the
// converted value is included.
func RateFromDomain(q *domain.RateQuote, amount *decimal.Decimal) *RateResponse {
	resp := &RateResponse{
		From:   q.From,
		To:     q.To,
		Rate:   q.Rate,
		Method: string(q.Method),
	}
	if amount != nil {
		converted := q.Convert(*amount)
		resp.Amount = amount
		resp.Converted = &converted
	}
	return resp
}

// CurrencyResponse represents a currency in API responses.
type CurrencyResponse struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Symbol   string `json:"symbol,omitempty"`
	Type     string `json:"type"`
	Decimals int    `json:"decimals"`
}

// CurrenciesFromDomain converts domain currencies to responses.
func CurrenciesFromDomain(currencies []*domain.Currency) []*CurrencyResponse {
	result := make([]*CurrencyResponse, len(currencies))
	for i, c := range currencies {
		result[i] = &CurrencyResponse{
			Code:     c.Code,
			Name:     c.Name,
			Symbol:   c.Symbol,
			Type:     string(c.Type),
			Decimals: c.Decimals,
		}
	}
	return result
}

// WalletResponse represents a wallet in API responses.
type WalletResponse struct {
	ID             string          `json:"id"`
	UserID         string          `json:"user_id"`
	Currency       string          `json:"currency"`
	Type           string          `json:"type"`
	Balance        decimal.Decimal `json:"balance"`
	TotalDeposited decimal.Decimal `json:"total_deposited"`
	TotalWithdrawn decimal.Decimal `json:"total_withdrawn"`
	AccountNumber  string          `json:"account_number"`
	Active         bool            `json:"is_active"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// WalletFromDomain converts a domain wallet to a response.
func WalletFromDomain(w *domain.Wallet) *WalletResponse {
	return &WalletResponse{
		ID:             w.ID,
		UserID:         w.UserID,
		Currency:       w.CurrencyCode,
		Type:           string(w.Type),
		Balance:        w.Balance,
		TotalDeposited: w.TotalDeposited,
		TotalWithdrawn: w.TotalWithdrawn,
		AccountNumber:  w.AccountNumber,
		Active:         w.Active,
		CreatedAt:      w.CreatedAt,
		UpdatedAt:      w.UpdatedAt,
	}
}

// WalletsFromDomain converts domain wallets to responses.
func WalletsFromDomain(wallets []*domain.Wallet) []*WalletResponse {
	result := make([]*WalletResponse, len(wallets))
	for i, w := range wallets {
		result[i] = WalletFromDomain(w)
	}
	return result
}

// ListWalletsResponse represents a list of wallets.
type ListWalletsResponse struct {
	Wallets []*WalletResponse `json:"wallets"`
	Total   int               `json:"total"`
}

// TransactionRecordedResponse is returned after a ledger entry is written.
type TransactionRecordedResponse struct {
	ID string `json:"id"`
}

// LedgerEntryResponse is one aggregated ledger row.
type LedgerEntryResponse struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Direction string          `json:"direction"`
	Amount    decimal.Decimal `json:"amount"`
	Signed    decimal.Decimal `json:"signed_amount"`
	CreatedAt time.Time       `json:"created_at"`
}

// CurrencyLedgerResponse is the ledger total for one currency.
type CurrencyLedgerResponse struct {
	Currency string                 `json:"currency"`
	Computed decimal.Decimal        `json:"computed"`
	Entries  []*LedgerEntryResponse `json:"entries"`
}

// LedgerResponse lists a user's ledger per currency.
type LedgerResponse struct {
	UserID     string                    `json:"user_id"`
	Currencies []*CurrencyLedgerResponse `json:"currencies"`
}

// LedgerFromDomain converts aggregated ledgers to a response ordered by
// currency code.
func LedgerFromDomain(userID string, ledgers map[string]*domain.CurrencyLedger) *LedgerResponse {
	codes := make([]string, 0, len(ledgers))
	for code := range ledgers {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	resp := &LedgerResponse{UserID: userID, Currencies: make([]*CurrencyLedgerResponse, 0, len(codes))}
	for _, code := range codes {
		l := ledgers[code]
		entries := make([]*LedgerEntryResponse, len(l.Entries))
		for i, tx := range l.Entries {
			entries[i] = &LedgerEntryResponse{
				ID:        tx.ID,
				Type:      string(tx.Kind),
				Direction: string(tx.EffectiveDirection()),
				Amount:    tx.Amount,
				Signed:    tx.SignedAmount(),
				CreatedAt: tx.CreatedAt,
			}
		}
		resp.Currencies = append(resp.Currencies, &CurrencyLedgerResponse{
			Currency: code,
			Computed: l.Computed,
			Entries:  entries,
		})
	}
	return resp
}

// CurrencyReconciliationResponse compares ledger and wallet for one currency.
type CurrencyReconciliationResponse struct {
	Currency        string           `json:"currency"`
	Computed        decimal.Decimal  `json:"computed"`
	Stored          decimal.Decimal  `json:"stored"`
	Diff            decimal.Decimal  `json:"diff"`
	ConvertedToBase *decimal.Decimal `json:"converted_to_base,omitempty"`
	Entries         int              `json:"entries"`
	Reconciled      bool             `json:"reconciled"`
}

// ReconciliationResponse is a single user's report.
type ReconciliationResponse struct {
	UserID       string                            `json:"user_id"`
	BaseCurrency string                            `json:"base_currency"`
	Currencies   []*CurrencyReconciliationResponse `json:"currencies"`
	TotalInBase  decimal.Decimal                   `json:"total_in_base"`
	Issues       []string                          `json:"issues"`
	CheckedAt    time.Time                         `json:"checked_at"`
}

// ReconciliationFromDomain converts a report to a response.
func ReconciliationFromDomain(r *domain.ReconciliationReport) *ReconciliationResponse {
	resp := &ReconciliationResponse{
		UserID:       r.UserID,
		BaseCurrency: r.BaseCurrency,
		Currencies:   make([]*CurrencyReconciliationResponse, len(r.Currencies)),
		TotalInBase:  r.TotalInBase,
		Issues:       r.Issues,
		CheckedAt:    r.CheckedAt,
	}
	if resp.Issues == nil {
		resp.Issues = []string{}
	}
	for i, c := range r.Currencies {
		resp.Currencies[i] = &CurrencyReconciliationResponse{
			Currency:        c.Currency,
			Computed:        c.Computed,
			Stored:          c.Stored,
			Diff:            c.Diff,
			ConvertedToBase: c.ConvertedToBase,
			Entries:         c.Entries,
			Reconciled:      c.IsReconciled(),
		}
	}
	return resp
}

// UserReconciliationResponse is one user's outcome in a batch run.
type UserReconciliationResponse struct {
	UserID string                  `json:"user_id"`
	Report *ReconciliationResponse `json:"report,omitempty"`
	Error  string                  `json:"error,omitempty"`
}

// BatchReconciliationResponse summarises a batch run.
type BatchReconciliationResponse struct {
	Results    []*UserReconciliationResponse `json:"results"`
	Processed  int                           `json:"processed"`
	Failed     int                           `json:"failed"`
	Discrepant int                           `json:"discrepant"`
}

// BatchReconciliationFromDomain converts batch results to a response.
func BatchReconciliationFromDomain(results []*domain.UserReconciliation) *BatchReconciliationResponse {
	resp := &BatchReconciliationResponse{
		Results:   make([]*UserReconciliationResponse, len(results)),
		Processed: len(results),
	}
	for i, res := range results {
		item := &UserReconciliationResponse{UserID: res.UserID, Error: res.Error}
		if res.Report != nil {
			item.Report = ReconciliationFromDomain(res.Report)
			if len(res.Report.Discrepancies()) > 0 {
				resp.Discrepant++
			}
		}
		if res.Error != "" {
			resp.Failed++
		}
		resp.Results[i] = item
	}
	return resp
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
