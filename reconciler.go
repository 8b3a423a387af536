package sessiongate

import (
	"context"
	"errors"
	"time"

	"github.com/jhyun-dev/sessiongate/session"
)

const reconcileTimeout = 5 * time.Second

// spawnReconcile runs the duplicate pass for one member. The duplicate set is
// captured synchronously, before the request returns, so a pass triggered by
// an earlier login can never name a session that logged in after it. Only the
// destruction runs off the request path. Failures are audited and counted,
// never surfaced to the request that triggered the pass.
func (c *Core) spawnReconcile(ctx context.Context, sess *session.Session, ip string) {
	memberID := sess.MemberID()
	if memberID == "" {
		return
	}
	keep := sess.ID

	c.metricInc(MetricReconcileRuns)

	ids, err := c.duplicateSessionIDs(ctx, memberID, keep)
	if err != nil {
		c.metricInc(MetricReconcileFailure)
		c.emitAudit(ctx, auditEventReconcileFailure, false, memberID, keep, ip, err, nil)
		return
	}
	if len(ids) == 0 {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), reconcileTimeout)
		defer cancel()

		if err := c.evictDuplicates(ctx, memberID, keep, ids); err != nil {
			c.metricInc(MetricReconcileFailure)
			c.emitAudit(ctx, auditEventReconcileFailure, false, memberID, keep, ip, err, nil)
		}
	}()
}

// ReconcileDuplicates describes the reconcileduplicates operation and its observable behavior.
//
// ReconcileDuplicates enforces the single-live-session rule for one member:
// every session of the member other than keepSessionID is destroyed. The most
// recent activity wins because the pass runs on behalf of the session that
// just resolved. Eviction is best-effort: a session that cannot be destroyed
// is skipped, the pass continues, and the accumulated errors come back joined.
func (c *Core) ReconcileDuplicates(ctx context.Context, memberID, keepSessionID string) error {
	if c == nil || c.store == nil {
		return ErrCoreNotReady
	}
	if memberID == "" {
		return nil
	}

	c.metricInc(MetricReconcileRuns)

	ids, err := c.duplicateSessionIDs(ctx, memberID, keepSessionID)
	if err != nil {
		return err
	}

	return c.evictDuplicates(ctx, memberID, keepSessionID, ids)
}

func (c *Core) evictDuplicates(ctx context.Context, memberID, keepSessionID string, ids []string) error {
	var errs []error
	for _, id := range ids {
		if err := c.store.Destroy(ctx, id); err != nil {
			errs = append(errs, err)
			continue
		}
		c.metricInc(MetricSessionEvicted)
		c.emitAudit(ctx, auditEventSessionEvicted, true, memberID, id, "", nil, func() map[string]string {
			return map[string]string{
				"kept_session": keepSessionID,
			}
		})
	}

	return errors.Join(errs...)
}

// duplicateSessionIDs finds every other session of the member. Stores that
// maintain a member index answer directly; otherwise the pass falls back to a
// full scan.
func (c *Core) duplicateSessionIDs(ctx context.Context, memberID, keepSessionID string) ([]string, error) {
	if idx, ok := c.store.(session.MemberIndex); ok {
		ids, err := idx.SessionsForMember(ctx, memberID)
		if err != nil {
			return nil, err
		}
		out := ids[:0]
		for _, id := range ids {
			if id != keepSessionID {
				out = append(out, id)
			}
		}
		return out, nil
	}

	all, err := c.store.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, s := range all {
		if s.MemberID() == memberID && s.ID != keepSessionID {
			out = append(out, s.ID)
		}
	}
	return out, nil
}
