package types

import "github.com/google/uuid"

// CartContext identifies the caller of a checkout-scoped operation.
// The session id always exists (guest or logged in); the user id is
// set only for authenticated callers. Handlers build it from the
// session and auth middlewares and services receive it explicitly,
// never through ambient globals.
type CartContext struct {
	SessionID string
	UserID    *uuid.UUID
}

// Authenticated reports whether the caller carries a logged-in user
func (c CartContext) Authenticated() bool {
	return c.UserID != nil
}
