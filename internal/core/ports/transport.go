package ports

import (
	"context"
	"encoding/json"
)

// Transport issues one HTTP round trip against the storefront backend and
// returns the raw JSON body. Implementations are stateless beyond connection
// reuse and carry no business rules.
type Transport interface {
	Send(ctx context.Context, method, path string, body any, headers map[string]string) (json.RawMessage, error)
}

// TokenSource supplies the current anti-forgery token, fetching one lazily
// when the cache is empty. Invalidate drops the cached token so the next call
// fetches a fresh one.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
	Invalidate()
}
