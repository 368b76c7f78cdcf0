package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/mesavista/storefront-core/internal/core/domain"
	"github.com/mesavista/storefront-core/internal/core/ports"
)

// Gateway composes the transport, the CSRF cache, and the session store into
// the single choke point for authenticated calls. Every other component only
// ever reads session validity through the auth state machine; nothing else
// re-derives it.
type Gateway struct {
	transport ports.Transport
	csrf      ports.TokenSource
	store     ports.SessionStore
	log       zerolog.Logger
}

func NewGateway(transport ports.Transport, csrf ports.TokenSource, store ports.SessionStore, log zerolog.Logger) *Gateway {
	return &Gateway{transport: transport, csrf: csrf, store: store, log: log}
}

// Send attaches the session key (when stored) and, on non-GET methods, the
// CSRF token, then issues the request.
//
// On 401/403 the stored session is cleared and the error re-raised. There is
// no auto-retry: the credentials that caused the failure are gone, so a blind
// retry would either fail identically or succeed with anonymous semantics the
// caller did not ask for. All other errors propagate unchanged.
func (g *Gateway) Send(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	headers := make(map[string]string, 2)

	if method != http.MethodGet {
		token, err := g.csrf.Token(ctx)
		if err != nil {
			return nil, fmt.Errorf("csrf token: %w", err)
		}
		headers["X-CSRFToken"] = token
	}
	if key, _, ok := g.store.LoadSession(); ok && key != "" {
		headers["X-Session-Key"] = key
	}

	raw, err := g.transport.Send(ctx, method, path, body, headers)
	if err == nil {
		return raw, nil
	}

	var apiErr *domain.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Status {
		case http.StatusUnauthorized:
			g.invalidateSession(method, path, apiErr.Status)
			return nil, fmt.Errorf("%w: %s %s", domain.ErrUnauthorized, method, path)
		case http.StatusForbidden:
			g.invalidateSession(method, path, apiErr.Status)
			// A 403 may be a rejected CSRF token rather than a dead session;
			// drop the cached token so the next non-GET call fetches fresh.
			g.csrf.Invalidate()
			return nil, fmt.Errorf("%w: %s %s", domain.ErrForbidden, method, path)
		}
	}
	return nil, err
}

func (g *Gateway) invalidateSession(method, path string, status int) {
	if err := g.store.ClearSession(); err != nil {
		g.log.Error().Err(err).Msg("failed to clear session after auth failure")
	}
	g.log.Info().
		Str("method", method).
		Str("path", path).
		Int("status", status).
		Msg("session invalidated by backend")
}
