package ports

import "github.com/mesavista/storefront-core/internal/core/domain"

// SessionStore is the durable key/value store for the opaque session key, the
// last-known user snapshot, and the cart. It is the only durable artifact of
// the core; everything else is rebuilt at startup from this plus a fresh
// server round trip.
//
// LoadSession and LoadCart must parse defensively: a corrupt or unparsable
// record is treated as absent and cleared as a side effect, never surfaced as
// an error to the caller.
type SessionStore interface {
	// SaveSession persists the session key and, when non-nil, the user
	// snapshot. A nil user removes any stored snapshot.
	SaveSession(sessionKey string, user *domain.User) error
	// LoadSession returns the stored session, or ok=false when absent.
	LoadSession() (sessionKey string, user *domain.User, ok bool)
	// ClearSession removes the session key and user snapshot.
	ClearSession() error

	// SaveCart persists the full ordered line list. Nil or empty clears it.
	SaveCart(lines []domain.CartLine) error
	// LoadCart returns the stored lines, or nil when absent or unparsable.
	LoadCart() []domain.CartLine
}
