package session

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhyun-dev/sessiongate/clientinfo"
)

// SocialNone is the sentinel for members who did not sign in through an
// external platform. Platform derivation is skipped for them.
const SocialNone = "NONE"

// Member is the authenticated principal attached to a session. It is owned by
// the login flow and read-only here, except for the derived Platform field.
//
// Role is a packed tag value: a single string that may carry several role
// tags (e.g. "ADMIN_USER"). Role checks test substring containment, not
// exact equality; see the access policies in the root package.
type Member struct {
	ID       string
	Role     string
	Active   bool
	Withdraw bool
	Social   string
	Platform string
}

// HasRoleTag reports whether the packed role value contains the given tag.
func (m *Member) HasRoleTag(tag string) bool {
	if m == nil {
		return false
	}
	return strings.Contains(m.Role, tag)
}

// DerivePlatform fills the Platform field from the member id prefix (the part
// before the first underscore) whenever the member signed in through an
// external platform. A presentation convenience consumed by templates.
func (m *Member) DerivePlatform() {
	if m == nil || m.Social == SocialNone || m.Social == "" {
		return
	}
	platform, _, ok := strings.Cut(m.ID, "_")
	if ok {
		m.Platform = platform
	}
}

// Session correlates one browser/client conversation with an optional
// authenticated [Member]. It is created anonymous on first contact, mutated in
// place on login and logout, and destroyed by expiry or by the duplicate
// session reconciler when superseded.
type Session struct {
	ID string

	// Member is nil for anonymous sessions.
	Member *Member

	CreatedAt    int64
	LastAccessAt int64

	Client clientinfo.ClientContext
}

// NewAnonymous creates a fresh anonymous session with a generated id.
func NewAnonymous(now time.Time) *Session {
	return &Session{
		ID:           uuid.NewString(),
		CreatedAt:    now.Unix(),
		LastAccessAt: now.Unix(),
	}
}

// Authenticated reports whether a member is attached.
func (s *Session) Authenticated() bool {
	return s != nil && s.Member != nil
}

// MemberID returns the attached member id, or "" for anonymous sessions.
func (s *Session) MemberID() string {
	if s == nil || s.Member == nil {
		return ""
	}
	return s.Member.ID
}

// Touch updates the last-access timestamp. Called once per resolved request
// before the rolling-TTL save.
func (s *Session) Touch(now time.Time) {
	s.LastAccessAt = now.Unix()
}
