package shared

import "context"

type sessionKey struct{}

// ContextWithSession returns a context carrying the request session. The
// session middleware installs it once per request, before any handler or
// authorization guard runs.
func ContextWithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, sess)
}

// SessionFromContext returns the session placed in the context by the
// session middleware, or nil when the request bypassed the session layer.
// Callers must treat nil as an anonymous request.
func SessionFromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionKey{}).(*Session)
	return sess
}
