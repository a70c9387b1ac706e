package auth

import "context"

// User is the minimal identity the repository layer depends on.
type User struct {
	ID string
}

// UserProvider resolves the currently authenticated user for a request.
// Implementations return nil when no user can be resolved; the repository
// re-resolves on every call and never caches the answer.
type UserProvider interface {
	CurrentUser(ctx context.Context) *User
}

type ctxKey struct{}

// WithUser returns a context carrying the authenticated user. The HTTP auth
// middleware attaches the user after verifying the bearer token.
func WithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

// UserFromContext extracts the authenticated user, or nil.
func UserFromContext(ctx context.Context) *User {
	u, _ := ctx.Value(ctxKey{}).(*User)
	return u
}

// ContextProvider resolves the user from the request context populated by the
// auth middleware.
type ContextProvider struct{}

func (ContextProvider) CurrentUser(ctx context.Context) *User {
	return UserFromContext(ctx)
}

// StaticProvider always resolves the same user. Used by tests and one-off
// tooling; a nil User models an unauthenticated session.
type StaticProvider struct {
	User *User
}

func (p StaticProvider) CurrentUser(ctx context.Context) *User {
	return p.User
}
