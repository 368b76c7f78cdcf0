package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// countingTransport serves csrf tokens and counts fetches, with an optional
// delay to hold concurrent callers in flight.
type countingTransport struct {
	fetches atomic.Int64
	delay   time.Duration
	err     error
}

func (t *countingTransport) Send(ctx context.Context, method, path string, body any, headers map[string]string) (json.RawMessage, error) {
	n := t.fetches.Add(1)
	if t.delay > 0 {
		time.Sleep(t.delay)
	}
	if t.err != nil {
		return nil, t.err
	}
	return json.RawMessage(fmt.Sprintf(`{"csrf_token":"tok-%d"}`, n)), nil
}

func TestTokenCache_FetchesLazilyAndCaches(t *testing.T) {
	transport := &countingTransport{}
	cache := NewTokenCache(transport, zerolog.Nop())

	tok, err := cache.Token(context.Background())
	if err != nil {
		t.Fatalf("token fetch failed: %v", err)
	}
	if tok != "tok-1" {
		t.Fatalf("unexpected token: %q", tok)
	}

	// Second call hits the cache.
	if _, err := cache.Token(context.Background()); err != nil {
		t.Fatalf("cached token failed: %v", err)
	}
	if got := transport.fetches.Load(); got != 1 {
		t.Fatalf("expected one fetch, got %d", got)
	}
}

func TestTokenCache_CoalescesConcurrentFetches(t *testing.T) {
	transport := &countingTransport{delay: 20 * time.Millisecond}
	cache := NewTokenCache(transport, zerolog.Nop())

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.Token(context.Background()); err != nil {
				t.Errorf("token fetch failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := transport.fetches.Load(); got != 1 {
		t.Fatalf("concurrent callers must coalesce into one fetch, got %d", got)
	}
}

func TestTokenCache_InvalidateForcesRefetch(t *testing.T) {
	transport := &countingTransport{}
	cache := NewTokenCache(transport, zerolog.Nop())

	first, _ := cache.Token(context.Background())
	cache.Invalidate()
	second, err := cache.Token(context.Background())
	if err != nil {
		t.Fatalf("refetch failed: %v", err)
	}

	if first == second {
		t.Fatalf("expected a fresh token after invalidation")
	}
	if got := transport.fetches.Load(); got != 2 {
		t.Fatalf("expected two fetches, got %d", got)
	}
}

func TestTokenCache_FetchErrorPropagates(t *testing.T) {
	transport := &countingTransport{err: fmt.Errorf("csrf endpoint down")}
	cache := NewTokenCache(transport, zerolog.Nop())

	if _, err := cache.Token(context.Background()); err == nil {
		t.Fatalf("expected error from failed fetch")
	}

	// The slot stays empty; a later call tries again.
	transport.err = nil
	if _, err := cache.Token(context.Background()); err != nil {
		t.Fatalf("recovery fetch failed: %v", err)
	}
}
