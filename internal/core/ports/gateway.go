package ports

import (
	"context"
	"encoding/json"
)

// Gateway is the single choke point for authenticated calls: it attaches the
// session key and CSRF token, and it alone detects that the session is no
// longer valid (401/403) and clears the stored session before re-raising.
// It never auto-retries after clearing.
type Gateway interface {
	Send(ctx context.Context, method, path string, body any) (json.RawMessage, error)
}
