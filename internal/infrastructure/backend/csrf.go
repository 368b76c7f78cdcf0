package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/mesavista/storefront-core/internal/core/ports"
)

const csrfPath = "/api/csrf-token/"

// TokenCache is the single-slot cache of the current anti-forgery token,
// refreshed lazily. It lives for the process and is never persisted; a
// restart always re-fetches. Concurrent fetches while the slot is empty are
// coalesced into one in-flight request to avoid token thrash.
type TokenCache struct {
	transport ports.Transport
	log       zerolog.Logger

	mu    sync.Mutex
	token string
	group singleflight.Group
}

// NewTokenCache wraps the given transport.
func NewTokenCache(transport ports.Transport, log zerolog.Logger) *TokenCache {
	return &TokenCache{transport: transport, log: log}
}

type csrfResponse struct {
	CSRFToken string `json:"csrf_token"`
}

// Token returns the cached token, fetching one when the slot is empty.
// Callers must tolerate token replacement mid-flight.
func (c *TokenCache) Token(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.token != "" {
		tok := c.token
		c.mu.Unlock()
		return tok, nil
	}
	c.mu.Unlock()

	v, err, _ := c.group.Do("csrf", func() (any, error) {
		raw, err := c.transport.Send(ctx, http.MethodGet, csrfPath, nil, nil)
		if err != nil {
			return "", fmt.Errorf("fetch csrf token: %w", err)
		}
		var resp csrfResponse
		if err := json.Unmarshal(raw, &resp); err != nil {
			return "", fmt.Errorf("decode csrf token: %w", err)
		}

		c.mu.Lock()
		c.token = resp.CSRFToken
		c.mu.Unlock()

		c.log.Debug().Msg("csrf token refreshed")
		return resp.CSRFToken, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Invalidate drops the cached token so the next Token call fetches fresh.
func (c *TokenCache) Invalidate() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
}
