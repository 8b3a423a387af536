package sessiongate

import (
	"context"
	"errors"
	"time"

	"github.com/jhyun-dev/sessiongate/session"
)

const (
	auditEventSessionCreated   = "session_created"
	auditEventSessionDegraded  = "session_degraded"
	auditEventSessionSaveFail  = "session_save_failed"
	auditEventSessionEvicted   = "session_evicted"
	auditEventReconcileFailure = "reconcile_failure"
	auditEventLogin            = "login"
	auditEventLogout           = "logout"
	auditEventGateDenied       = "gate_denied"
)

// AuditErrorCode defines a public type used by sessiongate APIs.
//
// AuditErrorCode instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditErrorCode string

const (
	auditErrUnauthorized    AuditErrorCode = "unauthorized"
	auditErrSessionNotFound AuditErrorCode = "session_not_found"
	auditErrUnavailable     AuditErrorCode = "backend_unavailable"
	auditErrCorruptSession  AuditErrorCode = "corrupt_session"
	auditErrInvalidCookie   AuditErrorCode = "invalid_cookie"
	auditErrInternal        AuditErrorCode = "internal_error"
)

func (c *Core) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	memberID string,
	sessionID string,
	ip string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if c == nil || c.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		MemberID:  memberID,
		SessionID: sessionID,
		IP:        ip,
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	c.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrUnauthorized):
		return auditErrUnauthorized
	case errors.Is(err, ErrSessionNotFound):
		return auditErrSessionNotFound
	case errors.Is(err, ErrStoreUnavailable):
		return auditErrUnavailable
	case errors.Is(err, session.ErrCorruptSession):
		return auditErrCorruptSession
	case errors.Is(err, ErrInvalidCookie):
		return auditErrInvalidCookie
	default:
		return auditErrInternal
	}
}
