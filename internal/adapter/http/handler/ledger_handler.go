package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/walletrecon/internal/adapter/http/dto"
	"github.com/iho/walletrecon/internal/domain"
)

// LedgerService defines the behavior needed by LedgerHandler.
type LedgerService interface {
	AggregateByCurrency(ctx context.Context, userID string) (map[string]*domain.CurrencyLedger, error)
}

// LedgerHandler exposes a user's aggregated ledger.
type LedgerHandler struct {
	ledgerUC LedgerService
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(ledgerUC LedgerService) *LedgerHandler {
	return &LedgerHandler{ledgerUC: ledgerUC}
}

// Get returns the per-currency ledger totals of a user.
func (h *LedgerHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	if err := domain.ValidateUserID(userID); err != nil {
		writeError(w, http.StatusBadRequest, "invalid user ID", err.Error())
		return
	}

	ledgers, err := h.ledgerUC.AggregateByCurrency(r.Context(), userID)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to aggregate ledger", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.LedgerFromDomain(userID, ledgers))
}
