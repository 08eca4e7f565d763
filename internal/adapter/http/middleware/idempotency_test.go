package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type fakeIdempotencyStore struct {
	claimFn    func(ctx context.Context, key string, ttl time.Duration) (bool, []byte, error)
	completed  []byte
	released   bool
	claimCalls int
}

func (f *fakeIdempotencyStore) Claim(ctx context.Context, key string, ttl time.Duration) (bool, []byte, error) {
	f.claimCalls++
	if f.claimFn != nil {
		return f.claimFn(ctx, key, ttl)
	}
	return true, nil, nil
}

func (f *fakeIdempotencyStore) Complete(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	f.completed = append([]byte(nil), response...)
	return nil
}

func (f *fakeIdempotencyStore) Release(ctx context.Context, key string) error {
	f.released = true
	return nil
}

func serveIdempotent(store *fakeIdempotencyStore, method, key string, next http.HandlerFunc) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/api/v1/users/u1/wallets", bytes.NewBufferString(`{}`))
	if key != "" {
		req.Header.Set(IdempotencyKeyHeader, key)
	}
	rr := httptest.NewRecorder()
	NewIdempotencyMiddleware(store, zerolog.Nop()).Wrap(next).ServeHTTP(rr, req)
	return rr
}

func TestIdempotencyMiddleware_StoreErrorRejectsRequest(t *testing.T) {
	var called bool
	store := &fakeIdempotencyStore{
		claimFn: func(ctx context.Context, key string, ttl time.Duration) (bool, []byte, error) {
			return false, nil, context.DeadlineExceeded
		},
	}

	rr := serveIdempotent(store, http.MethodPost, "key-err", func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	if called {
		t.Fatalf("handler should not be called when store errors")
	}
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rr.Code)
	}
}

func TestIdempotencyMiddleware_StoresSuccessfulResponse(t *testing.T) {
	store := &fakeIdempotencyStore{}

	serveIdempotent(store, http.MethodPost, "key-ok", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"w-1"}`))
	})

	var stored storedResponse
	if err := json.Unmarshal(store.completed, &stored); err != nil {
		t.Fatalf("stored response is not decodable: %v", err)
	}
	if stored.Status != http.StatusCreated || string(stored.Body) != `{"id":"w-1"}` {
		t.Fatalf("unexpected stored response %d %q", stored.Status, stored.Body)
	}
	if store.released {
		t.Fatalf("successful request must not release the key")
	}
}

func TestIdempotencyMiddleware_ReleasesFailedResponses(t *testing.T) {
	store := &fakeIdempotencyStore{}

	serveIdempotent(store, http.MethodPost, "key-fail", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	if store.completed != nil {
		t.Fatalf("expected error responses not to be cached")
	}
	if !store.released {
		t.Fatalf("expected key to be released after failure")
	}
}

func TestIdempotencyMiddleware_ReplaysStatusAndBody(t *testing.T) {
	store := &fakeIdempotencyStore{}
	created := func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"w-1"}`))
	}

	first := serveIdempotent(store, http.MethodPost, "key-replay", created)
	if first.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", first.Code)
	}

	store.claimFn = func(ctx context.Context, key string, ttl time.Duration) (bool, []byte, error) {
		return false, store.completed, nil
	}
	rr := serveIdempotent(store, http.MethodPost, "key-replay", func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run on replay")
	})

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected replayed 201, got %d", rr.Code)
	}
	if rr.Header().Get("X-Idempotency-Replay") != "true" || rr.Body.String() != `{"id":"w-1"}` {
		t.Fatalf("unexpected replay response: %v %q", rr.Header(), rr.Body.String())
	}
}

func TestIdempotencyMiddleware_ReplaysBareBodyAsOK(t *testing.T) {
	store := &fakeIdempotencyStore{
		claimFn: func(ctx context.Context, key string, ttl time.Duration) (bool, []byte, error) {
			return false, []byte(`{"id":"w-1"}`), nil
		},
	}

	rr := serveIdempotent(store, http.MethodPost, "key-legacy", func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run on replay")
	})

	if rr.Code != http.StatusOK || rr.Body.String() != `{"id":"w-1"}` {
		t.Fatalf("unexpected replay response: %d %q", rr.Code, rr.Body.String())
	}
}

func TestIdempotencyMiddleware_InFlightConflict(t *testing.T) {
	store := &fakeIdempotencyStore{
		claimFn: func(ctx context.Context, key string, ttl time.Duration) (bool, []byte, error) {
			return false, nil, nil
		},
	}

	rr := serveIdempotent(store, http.MethodPost, "key-busy", func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run while the key is in flight")
	})

	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rr.Code)
	}
}

func TestIdempotencyMiddleware_SkipsReadsAndMissingKey(t *testing.T) {
	store := &fakeIdempotencyStore{}
	calls := 0
	next := func(w http.ResponseWriter, r *http.Request) { calls++ }

	serveIdempotent(store, http.MethodGet, "key-get", next)
	serveIdempotent(store, http.MethodPost, "", next)

	if calls != 2 || store.claimCalls != 0 {
		t.Fatalf("expected passthrough without store use, calls=%d claims=%d", calls, store.claimCalls)
	}
}
