package eventbus

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/iho/walletrecon/internal/domain"
	"github.com/iho/walletrecon/internal/infrastructure/metrics"
)

func TestBusDeliversToTypedAndWildcardSubscribers(t *testing.T) {
	bus := New(zerolog.Nop())
	ctx := context.Background()

	var typed, wildcard []string
	bus.Subscribe(domain.EventTypeWalletCreated, func(_ context.Context, e domain.WalletEvent) {
		typed = append(typed, e.WalletID)
	})
	bus.Subscribe(AllEvents, func(_ context.Context, e domain.WalletEvent) {
		wildcard = append(wildcard, e.Type)
	})

	bus.Publish(ctx, domain.WalletEvent{Type: domain.EventTypeWalletCreated, WalletID: "w-1"})
	bus.Publish(ctx, domain.WalletEvent{Type: domain.EventTypeWalletTransactionRecorded, WalletID: "w-1"})

	if len(typed) != 1 || typed[0] != "w-1" {
		t.Fatalf("expected one typed delivery, got %v", typed)
	}
	if len(wildcard) != 2 {
		t.Fatalf("expected two wildcard deliveries, got %v", wildcard)
	}
}

func TestBusUnsubscribe(t *testing.T) {
	bus := New(zerolog.Nop())
	calls := 0

	unsubscribe := bus.Subscribe(domain.EventTypeWalletCreated, func(context.Context, domain.WalletEvent) { calls++ })
	unsubscribe()
	unsubscribe()

	bus.Publish(context.Background(), domain.WalletEvent{Type: domain.EventTypeWalletCreated})

	if calls != 0 {
		t.Fatalf("expected no calls after unsubscribe, got %d", calls)
	}
	if n := bus.SubscriberCount(domain.EventTypeWalletCreated); n != 0 {
		t.Fatalf("expected no subscribers, got %d", n)
	}
}

func TestBusRecoversFromPanickingHandler(t *testing.T) {
	bus := New(zerolog.Nop())
	delivered := false

	bus.Subscribe(domain.EventTypeWalletCreated, func(context.Context, domain.WalletEvent) { panic("boom") })
	bus.Subscribe(domain.EventTypeWalletCreated, func(context.Context, domain.WalletEvent) { delivered = true })

	bus.Publish(context.Background(), domain.WalletEvent{Type: domain.EventTypeWalletCreated})

	if !delivered {
		t.Fatal("expected second handler to run after first panicked")
	}
}

func TestBusCloseDropsSubscribers(t *testing.T) {
	bus := New(zerolog.Nop())
	calls := 0
	bus.Subscribe(AllEvents, func(context.Context, domain.WalletEvent) { calls++ })

	bus.Close()
	bus.Publish(context.Background(), domain.WalletEvent{Type: domain.EventTypeWalletCreated})

	if calls != 0 {
		t.Fatalf("expected no deliveries after close, got %d", calls)
	}
}

func TestSubscribers(t *testing.T) {
	var buf bytes.Buffer
	m := metrics.New(prometheus.NewRegistry())

	bus := New(zerolog.Nop())
	bus.Subscribe(AllEvents, LogSubscriber(zerolog.New(&buf)))
	bus.Subscribe(AllEvents, MetricsSubscriber(m))

	bus.Publish(context.Background(), domain.WalletEvent{
		Type:     domain.EventTypeWalletCreated,
		UserID:   "user-1",
		WalletID: "w-1",
		Payload:  map[string]any{"account_number": "123"},
	})

	if !strings.Contains(buf.String(), `"event_type":"wallet.created"`) {
		t.Fatalf("expected log line for event, got %q", buf.String())
	}
	if got := testutil.ToFloat64(m.WalletEvents.WithLabelValues(domain.EventTypeWalletCreated)); got != 1 {
		t.Fatalf("expected event counter 1, got %v", got)
	}
}
