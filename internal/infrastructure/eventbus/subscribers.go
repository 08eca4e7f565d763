package eventbus

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/iho/walletrecon/internal/domain"
	"github.com/iho/walletrecon/internal/infrastructure/metrics"
)

// LogSubscriber returns a handler that logs every event.
func LogSubscriber(logger zerolog.Logger) Handler {
	return func(_ context.Context, event domain.WalletEvent) {
		payload, err := json.Marshal(event.Payload)
		if err != nil {
			payload = []byte(`{}`)
		}

		logger.Info().
			Str("event_type", event.Type).
			Str("user_id", event.UserID).
			Str("wallet_id", event.WalletID).
			Str("currency", event.CurrencyCode).
			RawJSON("payload", payload).
			Msg("wallet event")
	}
}

// MetricsSubscriber returns a handler counting events by type.
func MetricsSubscriber(m *metrics.Metrics) Handler {
	return func(_ context.Context, event domain.WalletEvent) {
		m.WalletEvents.WithLabelValues(event.Type).Inc()
	}
}
