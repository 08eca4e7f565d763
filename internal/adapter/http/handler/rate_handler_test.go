package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/iho/walletrecon/internal/adapter/http/dto"
	"github.com/iho/walletrecon/internal/domain"
)

type rateServiceStub struct {
	getFn func(ctx context.Context, from, to string) (*domain.RateQuote, error)
}

func (s *rateServiceStub) GetRate(ctx context.Context, from, to string) (*domain.RateQuote, error) {
	return s.getFn(ctx, from, to)
}

func TestRateHandler_Get(t *testing.T) {
	handler := NewRateHandler(&rateServiceStub{
		getFn: func(ctx context.Context, from, to string) (*domain.RateQuote, error) {
			if from != "USD" || to != "PHP" {
				t.Fatalf("expected normalized codes, got %s %s", from, to)
			}
			return &domain.RateQuote{From: from, To: to, Rate: decimal.RequireFromString("56.5"), Method: domain.RateMethodDirect}, nil
		},
	})

	rec := httptest.NewRecorder()
	handler.Get(rec, httptest.NewRequest(http.MethodGet, "/rates?from=usd&to=php&amount=2", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp dto.RateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Method != "direct" || resp.Converted == nil || !resp.Converted.Equal(decimal.NewFromInt(113)) {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestRateHandler_BadInput(t *testing.T) {
	handler := NewRateHandler(&rateServiceStub{
		getFn: func(ctx context.Context, from, to string) (*domain.RateQuote, error) {
			t.Fatal("GetRate should not be called for invalid input")
			return nil, nil
		},
	})

	for _, target := range []string{"/rates?to=PHP", "/rates?from=USD&to=P$P", "/rates?from=USD&to=PHP&amount=abc"} {
		rec := httptest.NewRecorder()
		handler.Get(rec, httptest.NewRequest(http.MethodGet, target, nil))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", target, rec.Code)
		}
	}
}

func TestRateHandler_Unavailable(t *testing.T) {
	handler := NewRateHandler(&rateServiceStub{
		getFn: func(ctx context.Context, from, to string) (*domain.RateQuote, error) {
			return nil, domain.ErrRateUnavailable
		},
	})

	rec := httptest.NewRecorder()
	handler.Get(rec, httptest.NewRequest(http.MethodGet, "/rates?from=XAU&to=PHP", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
