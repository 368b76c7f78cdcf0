package ports

import (
	"context"

	"github.com/mesavista/storefront-core/internal/core/domain"
)

// AuthService owns the canonical authentication snapshot and drives
// login/logout/status-check against the gateway. Operations are serialized:
// a login never interleaves with a concurrent logout or second login.
type AuthService interface {
	// State returns the current snapshot.
	State() domain.AuthState
	// Bootstrap runs the startup sequence once: best-effort connectivity
	// probe, CSRF warm-up, then CheckAuth. It runs to completion even if the
	// caller's context is cancelled, since global auth state depends on it.
	Bootstrap(ctx context.Context) domain.AuthState
	// CheckAuth asks the backend who the session belongs to. Fail-closed:
	// any error yields an anonymous, initialized snapshot.
	CheckAuth(ctx context.Context) domain.AuthState
	// Login authenticates a customer by username or email.
	Login(ctx context.Context, identity, password string) domain.LoginResult
	// AdminLogin authenticates an administrator by email.
	AdminLogin(ctx context.Context, email, password string) domain.LoginResult
	// Logout calls the backend best-effort and unconditionally clears local
	// state and the session store.
	Logout(ctx context.Context)
	// Subscribe returns a channel receiving state snapshots after every
	// transition, plus a cancel func that releases the subscription.
	Subscribe() (<-chan domain.AuthState, func())
}
