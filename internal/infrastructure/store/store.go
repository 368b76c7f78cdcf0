// Package store provides the durable SessionStore implementations: an
// in-memory store for tests, a file-backed store, and a Redis-backed store.
// All three persist the same three records: the opaque session key, the
// last-known user snapshot, and the cart line list.
package store

import (
	"encoding/json"

	"github.com/mesavista/storefront-core/internal/core/domain"
)

// Durable record keys, shared by every backing store.
const (
	keySessionKey = "session_key"
	keyUserData   = "user_data"
	keyCart       = "cart"
)

// decodeUser parses a stored user snapshot. ok=false marks a corrupt record,
// which callers must treat as absent and clear.
func decodeUser(raw []byte) (*domain.User, bool) {
	if len(raw) == 0 {
		return nil, true
	}
	var u domain.User
	if err := json.Unmarshal(raw, &u); err != nil {
		return nil, false
	}
	if u.ID == 0 && u.Username == "" {
		// Parsable but empty snapshots carry no identity; treat as corrupt.
		return nil, false
	}
	return &u, true
}

// decodeLines parses a stored cart. ok=false marks a corrupt record.
func decodeLines(raw []byte) ([]domain.CartLine, bool) {
	if len(raw) == 0 {
		return nil, true
	}
	var lines []domain.CartLine
	if err := json.Unmarshal(raw, &lines); err != nil {
		return nil, false
	}
	return lines, true
}
