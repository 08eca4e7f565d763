package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/walletrecon/internal/adapter/http/dto"
	"github.com/iho/walletrecon/internal/domain"
)

// ReconciliationService defines the behavior needed by ReconciliationHandler.
type ReconciliationService interface {
	Reconcile(ctx context.Context, userID, baseCurrency string) (*domain.ReconciliationReport, error)
	ReconcileAllUsers(ctx context.Context, batchSize int, baseCurrency string) ([]*domain.UserReconciliation, error)
}

// ReconciliationHandler runs ledger-vs-wallet reconciliation.
type ReconciliationHandler struct {
	reconUC          ReconciliationService
	defaultBase      string
	defaultBatchSize int
}

// NewReconciliationHandler creates a new ReconciliationHandler.
func NewReconciliationHandler(reconUC ReconciliationService, defaultBase string, defaultBatchSize int) *ReconciliationHandler {
	return &ReconciliationHandler{
		reconUC:          reconUC,
		defaultBase:      defaultBase,
		defaultBatchSize: defaultBatchSize,
	}
}

// User reconciles one user. ?base= overrides the base currency.
func (h *ReconciliationHandler) User(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	if err := domain.ValidateUserID(userID); err != nil {
		writeError(w, http.StatusBadRequest, "invalid user ID", err.Error())
		return
	}

	base, ok := h.baseCurrency(w, r)
	if !ok {
		return
	}

	report, err := h.reconUC.Reconcile(r.Context(), userID, base)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to reconcile user", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ReconciliationFromDomain(report))
}

// Batch reconciles one page of users. ?batch_size= bounds the page.
func (h *ReconciliationHandler) Batch(w http.ResponseWriter, r *http.Request) {
	base, ok := h.baseCurrency(w, r)
	if !ok {
		return
	}

	batchSize := parseIntQuery(r, "batch_size", h.defaultBatchSize)

	results, err := h.reconUC.ReconcileAllUsers(r.Context(), batchSize, base)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to reconcile users", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.BatchReconciliationFromDomain(results))
}

func (h *ReconciliationHandler) baseCurrency(w http.ResponseWriter, r *http.Request) (string, bool) {
	base := domain.NormalizeCurrencyCode(r.URL.Query().Get("base"))
	if base == "" {
		return h.defaultBase, true
	}
	if err := domain.ValidateCurrency(base); err != nil {
		writeError(w, http.StatusBadRequest, "invalid base currency", err.Error())
		return "", false
	}
	return base, true
}
