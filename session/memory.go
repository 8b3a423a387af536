package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process [Store] for tests and single-node development.
// A background janitor reaps expired records; Load double-checks expiry so a
// session can never be observed between its deadline and the next sweep.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*memoryRecord
	byMember map[string]map[string]struct{}
	stop     chan struct{}
	stopOnce sync.Once
}

type memoryRecord struct {
	sess      *Session
	expiresAt time.Time
}

// NewMemoryStore creates a [MemoryStore] and starts its janitor.
func NewMemoryStore(sweepInterval time.Duration) *MemoryStore {
	if sweepInterval <= 0 {
		sweepInterval = 10 * time.Second
	}

	s := &MemoryStore{
		sessions: make(map[string]*memoryRecord),
		byMember: make(map[string]map[string]struct{}),
		stop:     make(chan struct{}),
	}

	go s.sweepLoop(sweepInterval)
	return s
}

// Close stops the janitor. Idempotent.
func (s *MemoryStore) Close() {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
}

// Load implements [Store]. The returned session is a copy; mutations become
// visible to other requests only through Save.
func (s *MemoryStore) Load(ctx context.Context, id string) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	rec, ok := s.sessions[id]
	s.mu.RUnlock()

	if !ok || time.Now().After(rec.expiresAt) {
		return nil, ErrSessionNotFound
	}

	return cloneSession(rec.sess), nil
}

// Save implements [Store].
func (s *MemoryStore) Save(ctx context.Context, sess *Session, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.sessions[sess.ID]; ok {
		if prevMember := prev.sess.MemberID(); prevMember != "" && prevMember != sess.MemberID() {
			s.unindexLocked(prevMember, sess.ID)
		}
	}

	s.sessions[sess.ID] = &memoryRecord{
		sess:      cloneSession(sess),
		expiresAt: time.Now().Add(ttl),
	}

	if memberID := sess.MemberID(); memberID != "" {
		ids, ok := s.byMember[memberID]
		if !ok {
			ids = make(map[string]struct{})
			s.byMember[memberID] = ids
		}
		ids[sess.ID] = struct{}{}
	}

	return nil
}

// ListAll implements [Store].
func (s *MemoryStore) ListAll(ctx context.Context) ([]*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now()
	out := make([]*Session, 0, len(s.sessions))
	for _, rec := range s.sessions {
		if now.After(rec.expiresAt) {
			continue
		}
		out = append(out, cloneSession(rec.sess))
	}
	return out, nil
}

// Destroy implements [Store]; idempotent.
func (s *MemoryStore) Destroy(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.sessions[id]
	if !ok {
		return nil
	}

	if memberID := rec.sess.MemberID(); memberID != "" {
		s.unindexLocked(memberID, id)
	}
	delete(s.sessions, id)
	return nil
}

// SessionsForMember implements [MemberIndex].
func (s *MemoryStore) SessionsForMember(ctx context.Context, memberID string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if memberID == "" {
		return []string{}, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now()
	ids := make([]string, 0, len(s.byMember[memberID]))
	for id := range s.byMember[memberID] {
		if rec, ok := s.sessions[id]; ok && !now.After(rec.expiresAt) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (s *MemoryStore) unindexLocked(memberID, id string) {
	ids, ok := s.byMember[memberID]
	if !ok {
		return
	}
	delete(ids, id)
	if len(ids) == 0 {
		delete(s.byMember, memberID)
	}
}

func (s *MemoryStore) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stop:
			return
		}
	}
}

func (s *MemoryStore) sweep() {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for id, rec := range s.sessions {
		if now.After(rec.expiresAt) {
			if memberID := rec.sess.MemberID(); memberID != "" {
				s.unindexLocked(memberID, id)
			}
			delete(s.sessions, id)
		}
	}
}

func cloneSession(s *Session) *Session {
	out := *s
	if s.Member != nil {
		m := *s.Member
		out.Member = &m
	}
	return &out
}
