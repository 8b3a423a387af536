package sessiongate

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/jhyun-dev/sessiongate/clientinfo"
	"github.com/jhyun-dev/sessiongate/session"
)

// Core defines a public type used by sessiongate APIs.
//
// Core instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Core struct {
	config  Config
	store   session.Store
	cookies *cookieCodec
	audit   *auditDispatcher
	metrics *Metrics
	now     func() time.Time
}

// ResolveInput carries the request attributes the resolve step needs. Handlers
// built on net/http can fill it directly from *http.Request.
type ResolveInput struct {
	RemoteAddr  string
	Header      http.Header
	CookieValue string
}

// Resolution is the outcome of resolving one request: the live session, the
// classified client context, and the sealed cookie value the caller should
// set when IsNew is true.
type Resolution struct {
	Session     *session.Session
	Client      clientinfo.ClientContext
	IsNew       bool
	CookieValue string
}

// Close describes the close operation and its observable behavior.
//
// Close may return an error when input validation, dependency calls, or security checks fail.
// Close does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Core) Close() {
	if c == nil {
		return
	}
	if c.audit != nil {
		c.audit.Close()
	}
}

// AuditDropped describes the auditdropped operation and its observable behavior.
//
// AuditDropped may return an error when input validation, dependency calls, or security checks fail.
// AuditDropped does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Core) AuditDropped() uint64 {
	if c == nil || c.audit == nil {
		return 0
	}
	return c.audit.Dropped()
}

// MetricsSnapshot describes the metricssnapshot operation and its observable behavior.
//
// MetricsSnapshot may return an error when input validation, dependency calls, or security checks fail.
// MetricsSnapshot does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Core) MetricsSnapshot() MetricsSnapshot {
	if c == nil || c.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return c.metrics.Snapshot()
}

func (c *Core) metricInc(id MetricID) {
	if c == nil || c.metrics == nil {
		return
	}
	c.metrics.Inc(id)
}

// Resolve describes the resolve operation and its observable behavior.
//
// Resolve classifies the client, restores the session named by the request
// cookie, and falls back to a fresh anonymous session whenever the cookie is
// absent, forged, expired, or the store cannot produce the record. A store
// fault never propagates to the caller as a failure; the request proceeds
// anonymously and the degradation is audited. Resolve may return an error only
// when the core itself is not initialized.
func (c *Core) Resolve(ctx context.Context, in ResolveInput) (*Resolution, error) {
	if c == nil || c.store == nil {
		return nil, ErrCoreNotReady
	}

	start := c.now()
	client := clientinfo.Resolve(in.RemoteAddr, in.Header)

	sess, isNew := c.restore(ctx, in.CookieValue, client)
	sess.Client = client
	sess.Touch(c.now())

	// The platform tag is derived, not stored state; recompute it on every
	// request so older records pick it up.
	if sess.Authenticated() {
		sess.Member.DerivePlatform()
	}

	if isNew || c.config.Session.Rolling {
		if err := c.store.Save(ctx, sess, c.config.Session.TTL); err != nil {
			// The request still gets its session; only persistence is lost.
			c.metricInc(MetricStoreDegraded)
			c.emitAudit(ctx, auditEventSessionSaveFail, false, sess.MemberID(), sess.ID, client.IP, err, nil)
		}
	}

	if sess.Authenticated() {
		c.spawnReconcile(ctx, sess, client.IP)
	}

	cookieValue := in.CookieValue
	if isNew {
		sealed, err := c.cookies.Seal(sess.ID)
		if err == nil {
			cookieValue = sealed
		}
		c.metricInc(MetricSessionCreated)
		c.emitAudit(ctx, auditEventSessionCreated, true, sess.MemberID(), sess.ID, client.IP, nil, nil)
	}

	c.metricInc(MetricSessionResolved)
	if c.metrics.LatencyEnabled() {
		c.metrics.Observe(MetricResolveLatency, c.now().Sub(start))
	}

	return &Resolution{
		Session:     sess,
		Client:      client,
		IsNew:       isNew,
		CookieValue: cookieValue,
	}, nil
}

// restore loads the session behind the cookie or mints a new anonymous one.
func (c *Core) restore(ctx context.Context, cookieValue string, client clientinfo.ClientContext) (*session.Session, bool) {
	if cookieValue == "" {
		return session.NewAnonymous(c.now()), true
	}

	id, err := c.cookies.Unseal(cookieValue)
	if err != nil {
		c.emitAudit(ctx, auditEventSessionDegraded, false, "", "", client.IP, err, nil)
		return session.NewAnonymous(c.now()), true
	}

	sess, err := c.store.Load(ctx, id)
	switch {
	case err == nil:
		return sess, false
	case errors.Is(err, session.ErrSessionNotFound):
		// Expired, evicted, or never existed. Same answer either way.
		return session.NewAnonymous(c.now()), true
	default:
		c.metricInc(MetricStoreDegraded)
		c.emitAudit(ctx, auditEventSessionDegraded, false, "", id, client.IP, err, nil)
		return session.NewAnonymous(c.now()), true
	}
}

// Login describes the login operation and its observable behavior.
//
// Login attaches the member to the session, derives the member's platform tag
// from its provider-prefixed id, and persists the updated record. The session
// id is kept; the store write moves the member index entry atomically. A save
// failure is returned so callers can refuse to report a login that did not
// persist.
func (c *Core) Login(ctx context.Context, sess *session.Session, m *session.Member) error {
	if c == nil || c.store == nil {
		return ErrCoreNotReady
	}
	if sess == nil || m == nil {
		return ErrUnauthorized
	}

	sess.Member = m
	m.DerivePlatform()
	sess.Touch(c.now())

	if err := c.store.Save(ctx, sess, c.config.Session.TTL); err != nil {
		sess.Member = nil
		c.metricInc(MetricStoreDegraded)
		c.emitAudit(ctx, auditEventLogin, false, m.ID, sess.ID, sess.Client.IP, err, nil)
		return err
	}

	c.metricInc(MetricLogin)
	c.emitAudit(ctx, auditEventLogin, true, m.ID, sess.ID, sess.Client.IP, nil, nil)

	c.spawnReconcile(ctx, sess, sess.Client.IP)

	return nil
}

// Logout describes the logout operation and its observable behavior.
//
// Logout clears the member from the session in place. The session itself
// survives as an anonymous one under the same id, matching the behavior of a
// server that resets session user state without rotating the cookie.
func (c *Core) Logout(ctx context.Context, sess *session.Session) error {
	if c == nil || c.store == nil {
		return ErrCoreNotReady
	}
	if sess == nil {
		return ErrNoSession
	}

	memberID := sess.MemberID()
	sess.Member = nil
	sess.Touch(c.now())

	if err := c.store.Save(ctx, sess, c.config.Session.TTL); err != nil {
		c.metricInc(MetricStoreDegraded)
		c.emitAudit(ctx, auditEventLogout, false, memberID, sess.ID, sess.Client.IP, err, nil)
		return err
	}

	c.metricInc(MetricLogout)
	c.emitAudit(ctx, auditEventLogout, true, memberID, sess.ID, sess.Client.IP, nil, nil)

	return nil
}

// Destroy removes the session record entirely. Unlike [Core.Logout] nothing
// survives; the next request with the same cookie starts anonymous.
func (c *Core) Destroy(ctx context.Context, sess *session.Session) error {
	if c == nil || c.store == nil {
		return ErrCoreNotReady
	}
	if sess == nil {
		return ErrNoSession
	}
	return c.store.Destroy(ctx, sess.ID)
}

// Authorize describes the authorize operation and its observable behavior.
//
// Authorize runs the policy against the session and records the outcome. The
// denial decision carries no reason detail; callers shape the response with
// [ClassifyContentType].
func (c *Core) Authorize(ctx context.Context, sess *session.Session, policy Policy) bool {
	if policy == nil {
		return false
	}
	if policy(sess) {
		c.metricInc(MetricGateAllowed)
		return true
	}

	c.metricInc(MetricGateDenied)

	var memberID, sessionID, ip string
	if sess != nil {
		memberID = sess.MemberID()
		sessionID = sess.ID
		ip = sess.Client.IP
	}
	c.emitAudit(ctx, auditEventGateDenied, false, memberID, sessionID, ip, ErrUnauthorized, nil)

	return false
}

// PageContext assembles the template-facing bundle for one resolved request.
func (c *Core) PageContext(sess *session.Session, client clientinfo.ClientContext) *PageContext {
	page := &PageContext{
		AppName:      c.config.App.Name,
		Env:          c.config.App.Env,
		Domain:       c.config.App.Domain,
		Version:      c.config.App.Version,
		CacheEnabled: c.config.App.CacheEnabled,
		Session:      sess,
		Client:       client,
	}
	if sess != nil && sess.Authenticated() {
		page.LoggedIn = true
		page.Admin = sess.Member.HasRoleTag("ADMIN")
	}
	return page
}

// CookieName returns the configured session cookie name.
func (c *Core) CookieName() string {
	return c.config.Session.CookieName
}

// SessionTTL returns the configured rolling session lifetime.
func (c *Core) SessionTTL() time.Duration {
	return c.config.Session.TTL
}
