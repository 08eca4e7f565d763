package handler

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/iho/walletrecon/internal/adapter/http/dto"
	"github.com/iho/walletrecon/internal/domain"
)

// RateService defines the behavior needed by RateHandler.
type RateService interface {
	GetRate(ctx context.Context, from, to string) (*domain.RateQuote, error)
}

// RateHandler resolves exchange rates.
type RateHandler struct {
	rateUC RateService
}

// NewRateHandler creates a new RateHandler.
func NewRateHandler(rateUC RateService) *RateHandler {
	return &RateHandler{rateUC: rateUC}
}

// Get resolves ?from=&to= and, when ?amount= is given, converts it.
func (h *RateHandler) Get(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	from := domain.NormalizeCurrencyCode(query.Get("from"))
	to := domain.NormalizeCurrencyCode(query.Get("to"))

	if err := domain.ValidateCurrency(from); err != nil {
		writeError(w, http.StatusBadRequest, "invalid from currency", err.Error())
		return
	}
	if err := domain.ValidateCurrency(to); err != nil {
		writeError(w, http.StatusBadRequest, "invalid to currency", err.Error())
		return
	}

	var amount *decimal.Decimal
	if raw := query.Get("amount"); raw != "" {
		parsed, err := decimal.NewFromString(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid amount", err.Error())
			return
		}
		amount = &parsed
	}

	quote, err := h.rateUC.GetRate(r.Context(), from, to)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to resolve rate", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.RateFromDomain(quote, amount))
}
