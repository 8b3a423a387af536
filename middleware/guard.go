package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/jhyun-dev/sessiongate"
)

// UnauthorizedRenderer draws the HTML denial page. The guard calls it for
// browser-shaped requests; API-shaped requests get the JSON body instead.
type UnauthorizedRenderer func(w http.ResponseWriter, r *http.Request, page *sessiongate.PageContext)

// GuardOption configures a [Require] guard.
type GuardOption func(*guard)

// WithUnauthorizedRenderer replaces the default plain-text denial page.
func WithUnauthorizedRenderer(render UnauthorizedRenderer) GuardOption {
	return func(g *guard) {
		if render != nil {
			g.render = render
		}
	}
}

type guard struct {
	core   *sessiongate.Core
	policy sessiongate.Policy
	render UnauthorizedRenderer
}

// Require wraps a handler with an access policy. The session must already be
// in the request context, so Require sits inside an [Attach] chain. A request
// without a resolved session is treated as anonymous.
func Require(core *sessiongate.Core, policy sessiongate.Policy, opts ...GuardOption) func(http.Handler) http.Handler {
	g := &guard{
		core:   core,
		policy: policy,
		render: defaultUnauthorizedPage,
	}
	for _, opt := range opts {
		opt(g)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, _ := sessiongate.SessionFromContext(r.Context())

			if g.core.Authorize(r.Context(), sess, g.policy) {
				next.ServeHTTP(w, r)
				return
			}

			g.deny(w, r)
		})
	}
}

func (g *guard) deny(w http.ResponseWriter, r *http.Request) {
	switch sessiongate.ClassifyContentType(r.Header.Get("Content-Type")) {
	case sessiongate.JSONPayload:
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(sessiongate.DeniedPayload{
			Message: sessiongate.DeniedMessage,
		})
	default:
		page, _ := sessiongate.PageContextFromContext(r.Context())
		g.render(w, r, page)
	}
}

func defaultUnauthorizedPage(w http.ResponseWriter, r *http.Request, _ *sessiongate.PageContext) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte("<!doctype html><title>401</title><h1>" + sessiongate.DeniedMessage + "</h1>"))
}
