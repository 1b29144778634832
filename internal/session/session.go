// Package session carries the authenticated caller through a request
// context. Authentication itself happens upstream; this package only
// transports its result.
package session

import (
	"context"
	"strings"
)

// HeaderUserID is the request header set by the upstream authenticator.
const HeaderUserID = "X-User-ID"

// Session identifies the caller of one request.
type Session struct {
	UserID string
}

type ctxKey struct{}

// WithSession returns a child context carrying s. An empty user id leaves
// ctx unchanged.
func WithSession(ctx context.Context, s Session) context.Context {
	s.UserID = strings.TrimSpace(s.UserID)
	if s.UserID == "" {
		return ctx
	}
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the session carried by ctx, if any.
func FromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(Session)
	return s, ok
}

// UserID returns the caller's id or "" when ctx carries no session.
func UserID(ctx context.Context) string {
	s, _ := FromContext(ctx)
	return s.UserID
}

// CanAccess reports whether the caller in ctx may see a record owned by
// owner. Contexts without a session (CLI, workers) see everything.
func CanAccess(ctx context.Context, owner string) bool {
	s, ok := FromContext(ctx)
	if !ok {
		return true
	}
	return s.UserID == owner
}
