package sessiongate

import (
	"github.com/jhyun-dev/sessiongate/session"
)

// Policy defines a public type used by sessiongate APIs.
//
// A Policy inspects the resolved session and reports whether the request may
// proceed. Policies never mutate the session and never touch the store, so
// they are safe to share across routes and goroutines.
type Policy func(s *session.Session) bool

// AllowAll admits every request regardless of session state.
func AllowAll() Policy {
	return func(*session.Session) bool { return true }
}

// AllowAnonymous admits only requests with no logged-in member. Authenticated
// sessions are rejected, which makes it the guard for login and signup routes.
func AllowAnonymous() Policy {
	return func(s *session.Session) bool {
		return s == nil || !s.Authenticated()
	}
}

// AllowAuthenticated admits any request with a logged-in member, whatever the
// member's role value is.
func AllowAuthenticated() Policy {
	return func(s *session.Session) bool {
		return s != nil && s.Authenticated()
	}
}

// AllowAdmin admits members whose packed role value contains the ADMIN tag.
// Containment, not equality: a member carrying "ADMIN_USER" passes both
// AllowAdmin and AllowUser.
func AllowAdmin() Policy {
	return roleTag("ADMIN")
}

// AllowUser admits members whose packed role value contains the USER tag.
func AllowUser() Policy {
	return roleTag("USER")
}

// AllowRoles admits members whose role value equals one of the given values
// exactly. Unlike [AllowAdmin] and [AllowUser] there is no substring matching:
// AllowRoles("ADMIN") rejects a member whose role is "ADMIN_USER". Callers
// that want a packed value admitted must list the packed value itself.
func AllowRoles(roles ...string) Policy {
	// Copied so later mutation of the caller's slice cannot change the gate.
	owned := make([]string, len(roles))
	copy(owned, roles)

	return func(s *session.Session) bool {
		if s == nil || !s.Authenticated() {
			return false
		}
		for _, role := range owned {
			if s.Member.Role == role {
				return true
			}
		}
		return false
	}
}

func roleTag(tag string) Policy {
	return func(s *session.Session) bool {
		return s != nil && s.Authenticated() && s.Member.HasRoleTag(tag)
	}
}
