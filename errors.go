package sessiongate

import (
	"errors"

	"github.com/jhyun-dev/sessiongate/session"
)

var (
	// ErrUnauthorized is an exported constant or variable used by the session core.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrCoreNotReady is an exported constant or variable used by the session core.
	ErrCoreNotReady = errors.New("core not initialized")
	// ErrNoSession is an exported constant or variable used by the session core.
	ErrNoSession = errors.New("no session in request context")
	// ErrInvalidCookie is an exported constant or variable used by the session core.
	ErrInvalidCookie = errors.New("invalid session cookie")
)

// ErrSessionNotFound re-exports the store's absent sentinel.
var ErrSessionNotFound = session.ErrSessionNotFound

// ErrStoreUnavailable re-exports the store's fault sentinel.
var ErrStoreUnavailable = session.ErrStoreUnavailable
