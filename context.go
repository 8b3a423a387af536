package sessiongate

import (
	"context"

	"github.com/jhyun-dev/sessiongate/clientinfo"
	"github.com/jhyun-dev/sessiongate/session"
)

type sessionContextKey struct{}
type clientContextKey struct{}
type pageContextKey struct{}

// WithSession returns a context carrying the resolved session.
func WithSession(ctx context.Context, s *session.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, s)
}

// SessionFromContext returns the session placed by [WithSession], if any.
func SessionFromContext(ctx context.Context) (*session.Session, bool) {
	s, ok := ctx.Value(sessionContextKey{}).(*session.Session)
	return s, ok && s != nil
}

// WithClientContext returns a context carrying the classified client context.
func WithClientContext(ctx context.Context, c clientinfo.ClientContext) context.Context {
	return context.WithValue(ctx, clientContextKey{}, c)
}

// ClientContextFromContext returns the client context placed by [WithClientContext], if any.
func ClientContextFromContext(ctx context.Context) (clientinfo.ClientContext, bool) {
	c, ok := ctx.Value(clientContextKey{}).(clientinfo.ClientContext)
	return c, ok
}

// WithPageContext returns a context carrying the per-request page context.
func WithPageContext(ctx context.Context, p *PageContext) context.Context {
	return context.WithValue(ctx, pageContextKey{}, p)
}

// PageContextFromContext returns the page context placed by [WithPageContext], if any.
func PageContextFromContext(ctx context.Context) (*PageContext, bool) {
	p, ok := ctx.Value(pageContextKey{}).(*PageContext)
	return p, ok && p != nil
}
