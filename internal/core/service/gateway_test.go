package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/rs/zerolog"

	"github.com/mesavista/storefront-core/internal/core/domain"
	"github.com/mesavista/storefront-core/internal/infrastructure/store"
)

// stubTransport records the last request and replays a scripted response.
type stubTransport struct {
	lastMethod  string
	lastPath    string
	lastHeaders map[string]string
	calls       int

	resp json.RawMessage
	err  error
}

func (t *stubTransport) Send(ctx context.Context, method, path string, body any, headers map[string]string) (json.RawMessage, error) {
	t.calls++
	t.lastMethod = method
	t.lastPath = path
	t.lastHeaders = headers
	return t.resp, t.err
}

func TestGateway_AttachesSessionAndCSRFHeaders(t *testing.T) {
	st := store.NewMemory()
	_ = st.SaveSession("sk-1", nil)
	transport := &stubTransport{resp: json.RawMessage(`{}`)}
	tokens := &stubTokens{token: "csrf-abc"}
	gw := NewGateway(transport, tokens, st, zerolog.Nop())

	if _, err := gw.Send(context.Background(), http.MethodPost, "/api/login/", nil); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	if got := transport.lastHeaders["X-Session-Key"]; got != "sk-1" {
		t.Fatalf("expected session key header, got %q", got)
	}
	if got := transport.lastHeaders["X-CSRFToken"]; got != "csrf-abc" {
		t.Fatalf("expected csrf header, got %q", got)
	}
}

func TestGateway_NoCSRFOnGet(t *testing.T) {
	transport := &stubTransport{resp: json.RawMessage(`{}`)}
	tokens := &stubTokens{token: "csrf-abc"}
	gw := NewGateway(transport, tokens, store.NewMemory(), zerolog.Nop())

	if _, err := gw.Send(context.Background(), http.MethodGet, "/api/check-user-type/", nil); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	if _, present := transport.lastHeaders["X-CSRFToken"]; present {
		t.Fatalf("csrf token must never be sent on GET")
	}
	if tokens.fetches != 0 {
		t.Fatalf("GET must not trigger a csrf fetch")
	}
}

func TestGateway_Unauthorized_ClearsSession(t *testing.T) {
	st := store.NewMemory()
	_ = st.SaveSession("sk-dead", nil)
	transport := &stubTransport{err: &domain.APIError{Status: http.StatusUnauthorized, Body: []byte(`{}`)}}
	gw := NewGateway(transport, &stubTokens{token: "t"}, st, zerolog.Nop())

	_, err := gw.Send(context.Background(), http.MethodGet, "/api/check-user-type/", nil)
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if _, _, ok := st.LoadSession(); ok {
		t.Fatalf("session store must be empty immediately after a 401")
	}
	if transport.calls != 1 {
		t.Fatalf("gateway must not auto-retry, made %d calls", transport.calls)
	}
}

func TestGateway_Forbidden_ClearsSessionAndCSRF(t *testing.T) {
	st := store.NewMemory()
	_ = st.SaveSession("sk-dead", nil)
	transport := &stubTransport{err: &domain.APIError{Status: http.StatusForbidden, Body: []byte(`{}`)}}
	tokens := &stubTokens{token: "t"}
	gw := NewGateway(transport, tokens, st, zerolog.Nop())

	_, err := gw.Send(context.Background(), http.MethodPost, "/api/logout/", nil)
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, _, ok := st.LoadSession(); ok {
		t.Fatalf("session store must be empty immediately after a 403")
	}
	if tokens.invalidated != 1 {
		t.Fatalf("a 403 must invalidate the cached csrf token")
	}
}

func TestGateway_ApplicationErrorsPropagateUnchanged(t *testing.T) {
	st := store.NewMemory()
	_ = st.SaveSession("sk-live", nil)
	wantErr := &domain.APIError{Status: http.StatusBadRequest, Body: []byte(`{"error":"invalid promo code"}`)}
	transport := &stubTransport{err: wantErr}
	gw := NewGateway(transport, &stubTokens{token: "t"}, st, zerolog.Nop())

	_, err := gw.Send(context.Background(), http.MethodPost, "/api/promo/", map[string]string{"code": "NOPE"})

	var apiErr *domain.APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusBadRequest {
		t.Fatalf("expected the application error verbatim, got %v", err)
	}
	if _, _, ok := st.LoadSession(); !ok {
		t.Fatalf("non-auth errors must not clear the session")
	}
}

func TestGateway_CSRFFetchFailureBlocksNonGet(t *testing.T) {
	transport := &stubTransport{resp: json.RawMessage(`{}`)}
	tokens := &stubTokens{err: errors.New("csrf endpoint down")}
	gw := NewGateway(transport, tokens, store.NewMemory(), zerolog.Nop())

	if _, err := gw.Send(context.Background(), http.MethodPost, "/api/login/", nil); err == nil {
		t.Fatalf("expected error when the csrf fetch fails")
	}
	if transport.calls != 0 {
		t.Fatalf("request must not be issued without a csrf token")
	}
}
