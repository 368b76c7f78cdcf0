// Package runtime holds one core instance per browser session: a backend
// client with its own cookie jar, a CSRF cache, a namespaced session store,
// and the auth and cart state machines. The SPA reaches its runtime through
// the signed browser-session cookie.
package runtime

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mesavista/storefront-core/internal/api/metrics"
	"github.com/mesavista/storefront-core/internal/core/ports"
	"github.com/mesavista/storefront-core/internal/core/service"
	"github.com/mesavista/storefront-core/internal/infrastructure/backend"
)

// StoreFactory builds the durable session store for one browser session
// namespace.
type StoreFactory func(namespace string) ports.SessionStore

// Runtime is the per-browser core.
type Runtime struct {
	Auth ports.AuthService
	Cart ports.CartService
}

// Config tunes the manager.
type Config struct {
	BackendBaseURL string
	BackendTimeout time.Duration
	// IdleTTL is how long an untouched runtime survives before eviction.
	IdleTTL time.Duration
}

const defaultIdleTTL = 30 * time.Minute

// Manager is the process-wide runtime registry.
type Manager struct {
	cfg    Config
	stores StoreFactory
	log    zerolog.Logger

	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	rt       *Runtime
	lastSeen time.Time
}

// NewManager creates a Manager. IdleTTL <= 0 falls back to 30 minutes.
func NewManager(cfg Config, stores StoreFactory, log zerolog.Logger) *Manager {
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = defaultIdleTTL
	}
	return &Manager{
		cfg:     cfg,
		stores:  stores,
		log:     log,
		entries: make(map[string]*entry),
	}
}

// Get returns the runtime for a browser session, constructing and
// bootstrapping it on first touch. Bootstrap runs at most once per runtime;
// concurrent first requests block until the startup status check completes.
func (m *Manager) Get(ctx context.Context, sessionID string) *Runtime {
	m.mu.Lock()
	if e, ok := m.entries[sessionID]; ok {
		e.lastSeen = time.Now()
		m.mu.Unlock()
		e.rt.Auth.Bootstrap(ctx)
		return e.rt
	}

	log := m.log.With().Str("session_id", sessionID).Logger()
	client := backend.NewClient(m.cfg.BackendBaseURL, m.cfg.BackendTimeout)
	csrf := backend.NewTokenCache(client, log)
	st := m.stores(sessionID)
	gateway := service.NewGateway(client, csrf, st, log)

	rt := &Runtime{
		Auth: service.NewAuthService(gateway, st, csrf, log),
		Cart: service.NewCartService(st, log),
	}
	m.entries[sessionID] = &entry{rt: rt, lastSeen: time.Now()}
	metrics.ActiveRuntimes.Set(float64(len(m.entries)))
	m.mu.Unlock()

	log.Info().Msg("runtime created")
	rt.Auth.Bootstrap(ctx)
	return rt
}

// Len reports the number of live runtimes.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// StartSweeper launches the idle-eviction loop. It stops when ctx is
// cancelled.
func (m *Manager) StartSweeper(ctx context.Context) {
	interval := m.cfg.IdleTTL / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.sweep(time.Now())
			}
		}
	}()
}

// sweep evicts runtimes idle for longer than IdleTTL. Durable state stays in
// the session store; a returning browser gets a fresh runtime rebuilt from it.
func (m *Manager) sweep(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	evicted := 0
	for sid, e := range m.entries {
		if now.Sub(e.lastSeen) > m.cfg.IdleTTL {
			delete(m.entries, sid)
			evicted++
		}
	}
	if evicted > 0 {
		metrics.RuntimesEvictedTotal.Add(float64(evicted))
		metrics.ActiveRuntimes.Set(float64(len(m.entries)))
		m.log.Info().Int("evicted", evicted).Int("remaining", len(m.entries)).Msg("idle runtimes evicted")
	}
}
