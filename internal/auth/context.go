// internal/auth/context.go
//
// Authenticated-user helper.  The Basic Auth middleware stores the matched
// username in the request context so handlers, templates, and the audit
// log can attribute a render without re-parsing headers.
//
// Usage
// -----
//     // Attach the user after a successful credential check.
//     ctx = auth.WithUser(ctx, "alice")
//
//     // Downstream code retrieves it.
//     name, ok := auth.User(ctx)   // "alice", true

package auth

import "context"

// userKey is unexported to avoid context-key collisions.
type userKey struct{}

// WithUser returns a new context carrying the given username.
func WithUser(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, userKey{}, username)
}

// User extracts the username from ctx.  It returns ("", false) when auth is
// disabled or the middleware has not run.
func User(ctx context.Context) (string, bool) {
	name, ok := ctx.Value(userKey{}).(string)
	return name, ok
}
