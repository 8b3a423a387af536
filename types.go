package sessiongate

import (
	"github.com/jhyun-dev/sessiongate/clientinfo"
	"github.com/jhyun-dev/sessiongate/session"
)

// Member aliases the session package's member record so callers rarely need
// to import the subpackage directly.
type Member = session.Member

// Session aliases the session package's session record.
type Session = session.Session

// PageContext is the bundle of per-request values surfaced to view templates:
// site settings from [AppConfig] plus the resolved session and client context.
// It never influences access decisions.
type PageContext struct {
	AppName      string
	Env          string
	Domain       string
	URL          string
	Version      string
	CacheEnabled bool

	Session *session.Session
	Client  clientinfo.ClientContext

	// LoggedIn and Admin are convenience flags for templates; both derive
	// from Session and carry no independent state.
	LoggedIn bool
	Admin    bool
}
