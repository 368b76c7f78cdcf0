package service

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/mesavista/storefront-core/internal/core/domain"
	"github.com/mesavista/storefront-core/internal/core/ports"
)

const (
	loginPath      = "/api/login/"
	adminLoginPath = "/api/admin/login/"
	logoutPath     = "/api/logout/"
	checkUserPath  = "/api/check-user-type/"
)

// AuthService is the auth state machine. It owns the canonical snapshot and
// drives login/logout/status-check against the gateway.
//
// opMu serializes whole operations: the login sequence (send credentials,
// persist key, re-check) never interleaves with a concurrent logout or
// another check. stateMu only guards the snapshot and subscriber set, so
// State() never blocks behind a network call.
type AuthService struct {
	gateway ports.Gateway
	store   ports.SessionStore
	csrf    ports.TokenSource
	log     zerolog.Logger

	opMu      sync.Mutex
	loggingIn atomic.Bool
	bootstrap sync.Once

	stateMu sync.Mutex
	state   domain.AuthState
	subs    map[int]chan domain.AuthState
	nextSub int
}

func NewAuthService(gateway ports.Gateway, store ports.SessionStore, csrf ports.TokenSource, log zerolog.Logger) *AuthService {
	return &AuthService{
		gateway: gateway,
		store:   store,
		csrf:    csrf,
		log:     log,
		subs:    make(map[int]chan domain.AuthState),
	}
}

type checkUserResponse struct {
	IsAuthenticated bool   `json:"is_authenticated"`
	UserID          int64  `json:"user_id"`
	Username        string `json:"username"`
	Email           string `json:"email"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	IsAdmin         bool   `json:"is_admin"`
	IsCustomer      bool   `json:"is_customer"`
}

type loginResponse struct {
	SessionKey string `json:"session_key"`
}

// State returns a copy of the current snapshot.
func (s *AuthService) State() domain.AuthState {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return cloneState(s.state)
}

// Subscribe registers a listener for state transitions. Sends are
// non-blocking; a slow listener misses intermediate snapshots, never blocks
// the state machine.
func (s *AuthService) Subscribe() (<-chan domain.AuthState, func()) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()

	id := s.nextSub
	s.nextSub++
	ch := make(chan domain.AuthState, 8)
	s.subs[id] = ch

	return ch, func() {
		s.stateMu.Lock()
		defer s.stateMu.Unlock()
		delete(s.subs, id)
	}
}

// Bootstrap runs the startup sequence exactly once: warm the CSRF cache as a
// best-effort connectivity probe (failures ignored), then run a status check
// regardless of whether a stored session was found. A stored session is only
// a hint, never trusted without server confirmation.
//
// The sequence runs on a detached context so it completes even if the
// initiating request is torn down; global auth state depends on it.
func (s *AuthService) Bootstrap(ctx context.Context) domain.AuthState {
	s.bootstrap.Do(func() {
		ctx := context.WithoutCancel(ctx)
		if _, err := s.csrf.Token(ctx); err != nil {
			s.log.Warn().Err(err).Msg("startup csrf warm-up failed")
		}
		s.CheckAuth(ctx)
	})
	return s.State()
}

// CheckAuth asks the backend who this session belongs to and re-publishes the
// authoritative answer. Fail-closed: any error is treated as "not
// authenticated", never as fatal. Completion always sets initialized=true and
// loading=false; this is the only path on which initialized becomes true.
func (s *AuthService) CheckAuth(ctx context.Context) domain.AuthState {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	return s.checkAuthLocked(ctx)
}

func (s *AuthService) checkAuthLocked(ctx context.Context) domain.AuthState {
	s.setLoading(true)

	raw, err := s.gateway.Send(ctx, http.MethodGet, checkUserPath, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("status check failed, treating as anonymous")
		return s.toAnonymous()
	}

	var resp checkUserResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		s.log.Warn().Err(err).Msg("status check returned unexpected payload")
		return s.toAnonymous()
	}
	if !resp.IsAuthenticated {
		return s.toAnonymous()
	}

	user := &domain.User{
		ID:         resp.UserID,
		Username:   resp.Username,
		Email:      resp.Email,
		FirstName:  resp.FirstName,
		LastName:   resp.LastName,
		IsAdmin:    resp.IsAdmin,
		IsCustomer: resp.IsCustomer,
	}

	// Persist the confirmed identity, but only when a session key is already
	// present locally. The check itself never mints a new key.
	if key, _, ok := s.store.LoadSession(); ok && key != "" {
		if err := s.store.SaveSession(key, user); err != nil {
			s.log.Error().Err(err).Msg("failed to persist user snapshot")
		}
	}

	return s.publish(domain.AuthState{
		IsAuthenticated: true,
		IsAdmin:         user.IsAdmin,
		User:            user,
		Initialized:     true,
	})
}

// Login authenticates a customer. The result is only reported as success
// after a full status check confirms the identity; redirect decisions must be
// based on the authoritative post-check state, not the login response.
func (s *AuthService) Login(ctx context.Context, identity, password string) domain.LoginResult {
	return s.login(ctx, loginPath, map[string]string{"identity": identity, "password": password})
}

// AdminLogin authenticates an administrator against the admin endpoint.
func (s *AuthService) AdminLogin(ctx context.Context, email, password string) domain.LoginResult {
	return s.login(ctx, adminLoginPath, map[string]string{"email": email, "password": password})
}

func (s *AuthService) login(ctx context.Context, path string, credentials map[string]string) domain.LoginResult {
	// Reject overlapping attempts instead of queuing: the second caller would
	// otherwise act on a session it did not establish.
	if !s.loggingIn.CompareAndSwap(false, true) {
		return domain.LoginResult{Error: domain.ErrLoginInFlight.Error()}
	}
	defer s.loggingIn.Store(false)

	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.setLoading(true)

	raw, err := s.gateway.Send(ctx, http.MethodPost, path, credentials)
	if err != nil {
		s.log.Info().Err(err).Msg("login rejected")
		s.failLogin(err.Error())
		return domain.LoginResult{Error: err.Error()}
	}

	// Store any returned session key immediately; the confirmed user snapshot
	// follows from the check below.
	var resp loginResponse
	if err := json.Unmarshal(raw, &resp); err == nil && resp.SessionKey != "" {
		if err := s.store.SaveSession(resp.SessionKey, nil); err != nil {
			s.log.Error().Err(err).Msg("failed to persist session key")
		}
	}

	st := s.checkAuthLocked(ctx)
	if !st.IsAuthenticated {
		// The login call succeeded but the authoritative check disagrees.
		// Report failure rather than leaving a stale authenticated state.
		return domain.LoginResult{Error: "login did not establish a session"}
	}

	s.log.Info().Str("username", st.User.Username).Bool("is_admin", st.IsAdmin).Msg("login confirmed")
	return domain.LoginResult{Success: true, IsAdmin: st.IsAdmin}
}

// Logout notifies the backend on a best-effort basis and unconditionally
// clears local state and the session store. Logout must never leave the
// client believing it is still authenticated, even if the server call fails.
func (s *AuthService) Logout(ctx context.Context) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	if _, err := s.gateway.Send(ctx, http.MethodPost, logoutPath, nil); err != nil {
		s.log.Warn().Err(err).Msg("logout request failed, clearing local session anyway")
	}

	if err := s.store.ClearSession(); err != nil {
		s.log.Error().Err(err).Msg("failed to clear session store on logout")
	}

	s.stateMu.Lock()
	initialized := s.state.Initialized
	s.stateMu.Unlock()
	s.publish(domain.AuthState{Initialized: initialized})
	s.log.Info().Msg("logged out")
}

// toAnonymous clears the stored session and publishes an anonymous,
// initialized snapshot.
func (s *AuthService) toAnonymous() domain.AuthState {
	if err := s.store.ClearSession(); err != nil {
		s.log.Error().Err(err).Msg("failed to clear session store")
	}
	return s.publish(domain.AuthState{Initialized: true})
}

// setLoading flips loading on while keeping the previously known identity
// visible, so the UI can show a spinner without flickering to "guest".
func (s *AuthService) setLoading(loading bool) {
	s.stateMu.Lock()
	st := cloneState(s.state)
	st.Loading = loading
	st.Error = ""
	s.state = st
	s.notifyLocked(st)
	s.stateMu.Unlock()
}

// failLogin records the error and stops loading, leaving the prior identity
// untouched.
func (s *AuthService) failLogin(msg string) {
	s.stateMu.Lock()
	st := cloneState(s.state)
	st.Loading = false
	st.Error = msg
	s.state = st
	s.notifyLocked(st)
	s.stateMu.Unlock()
}

// publish replaces the snapshot and notifies subscribers. Loading is always
// off in a published terminal state.
func (s *AuthService) publish(st domain.AuthState) domain.AuthState {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()

	prev := s.state
	st.Loading = false
	s.state = st
	s.notifyLocked(st)

	if prev.IsAuthenticated != st.IsAuthenticated || !prev.Initialized {
		s.log.Info().
			Bool("was_authenticated", prev.IsAuthenticated).
			Bool("authenticated", st.IsAuthenticated).
			Bool("is_admin", st.IsAdmin).
			Msg("auth state transition")
	}
	return cloneState(st)
}

func (s *AuthService) notifyLocked(st domain.AuthState) {
	for _, ch := range s.subs {
		select {
		case ch <- cloneState(st):
		default:
		}
	}
}

func cloneState(st domain.AuthState) domain.AuthState {
	if st.User != nil {
		u := *st.User
		st.User = &u
	}
	return st
}
