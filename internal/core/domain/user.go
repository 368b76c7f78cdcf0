package domain

// User models the authenticated principal as reported by the storefront
// backend. Identity fields are owned by the auth state machine and only ever
// change through a login or status-check round trip — never optimistically.
type User struct {
	ID         int64  `json:"id"`
	Username   string `json:"username"`
	Email      string `json:"email,omitempty"`
	FirstName  string `json:"first_name,omitempty"`
	LastName   string `json:"last_name,omitempty"`
	IsAdmin    bool   `json:"is_admin"`
	IsCustomer bool   `json:"is_customer"`
}

// AuthState is the public snapshot published by the auth state machine.
//
// Initialized becomes true exactly once, after the first completed status
// check following process start. Consumers must treat Initialized=false as
// "unknown", never as "logged out".
//
// Invariant: IsAuthenticated=false implies User=nil and IsAdmin=false.
type AuthState struct {
	IsAuthenticated bool   `json:"is_authenticated"`
	IsAdmin         bool   `json:"is_admin"`
	User            *User  `json:"user,omitempty"`
	Loading         bool   `json:"loading"`
	Error           string `json:"error,omitempty"`
	Initialized     bool   `json:"initialized"`
}

// LoginResult is the outcome reported to the caller of a login attempt.
// Success only becomes true once the post-login status check confirmed the
// identity, so redirect decisions can rely on IsAdmin.
type LoginResult struct {
	Success bool   `json:"success"`
	IsAdmin bool   `json:"is_admin"`
	Error   string `json:"error,omitempty"`
}
