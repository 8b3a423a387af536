package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedisStoreTest(t *testing.T) (*RedisStore, *miniredis.Miniredis, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStore(rdb, "sg")
	return store, mr, func() {
		rdb.Close()
		mr.Close()
	}
}

func storedSession(id, memberID string) *Session {
	now := time.Now()
	s := &Session{
		ID:           id,
		CreatedAt:    now.Unix(),
		LastAccessAt: now.Unix(),
	}
	if memberID != "" {
		s.Member = &Member{ID: memberID, Role: "USER", Active: true, Social: SocialNone}
	}
	return s
}

func TestRedisStoreSaveLoadRoundTrip(t *testing.T) {
	store, _, done := newRedisStoreTest(t)
	defer done()
	ctx := context.Background()

	in := storedSession("sid-1", "github_77")
	if err := store.Save(ctx, in, time.Hour); err != nil {
		t.Fatalf("save: %v", err)
	}

	out, err := store.Load(ctx, "sid-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if out.ID != "sid-1" || out.MemberID() != "github_77" {
		t.Fatalf("loaded %+v, want sid-1/github_77", out)
	}
}

func TestRedisStoreLoadAbsent(t *testing.T) {
	store, _, done := newRedisStoreTest(t)
	defer done()

	_, err := store.Load(context.Background(), "missing")
	if !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestRedisStoreExpiredSessionNeverReturned(t *testing.T) {
	store, mr, done := newRedisStoreTest(t)
	defer done()
	ctx := context.Background()

	if err := store.Save(ctx, storedSession("sid-ttl", "m1"), time.Minute); err != nil {
		t.Fatalf("save: %v", err)
	}

	mr.FastForward(2 * time.Minute)

	if _, err := store.Load(ctx, "sid-ttl"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expired load err = %v, want ErrSessionNotFound", err)
	}
}

func TestRedisStoreRollingTTLResetOnSave(t *testing.T) {
	store, mr, done := newRedisStoreTest(t)
	defer done()
	ctx := context.Background()

	sess := storedSession("sid-roll", "m1")
	if err := store.Save(ctx, sess, time.Minute); err != nil {
		t.Fatalf("save: %v", err)
	}

	// Keep touching before the deadline; the window must restart each time.
	for i := 0; i < 3; i++ {
		mr.FastForward(40 * time.Second)
		sess.Touch(time.Now())
		if err := store.Save(ctx, sess, time.Minute); err != nil {
			t.Fatalf("resave %d: %v", i, err)
		}
	}

	if _, err := store.Load(ctx, "sid-roll"); err != nil {
		t.Fatalf("session expired despite rolling saves: %v", err)
	}
}

func TestRedisStoreDestroyIdempotent(t *testing.T) {
	store, _, done := newRedisStoreTest(t)
	defer done()
	ctx := context.Background()

	if err := store.Save(ctx, storedSession("sid-d", "m1"), time.Hour); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Destroy(ctx, "sid-d"); err != nil {
		t.Fatalf("first destroy: %v", err)
	}
	if err := store.Destroy(ctx, "sid-d"); err != nil {
		t.Fatalf("second destroy: %v", err)
	}
	if err := store.Destroy(ctx, "never-existed"); err != nil {
		t.Fatalf("destroy of absent id: %v", err)
	}

	ids, err := store.SessionsForMember(ctx, "m1")
	if err != nil {
		t.Fatalf("index lookup: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("index not cleaned on destroy: %v", ids)
	}
}

func TestRedisStoreMemberIndexFollowsLoginLogout(t *testing.T) {
	store, _, done := newRedisStoreTest(t)
	defer done()
	ctx := context.Background()

	// Anonymous first: no index entry.
	sess := storedSession("sid-x", "")
	if err := store.Save(ctx, sess, time.Hour); err != nil {
		t.Fatalf("save anonymous: %v", err)
	}

	// Login attaches a member: index entry appears.
	sess.Member = &Member{ID: "kakao_31", Role: "USER", Active: true, Social: "KAKAO"}
	if err := store.Save(ctx, sess, time.Hour); err != nil {
		t.Fatalf("save member: %v", err)
	}
	ids, err := store.SessionsForMember(ctx, "kakao_31")
	if err != nil {
		t.Fatalf("index lookup: %v", err)
	}
	if len(ids) != 1 || ids[0] != "sid-x" {
		t.Fatalf("index = %v, want [sid-x]", ids)
	}

	// Logout clears the member in place: stale index entry must go.
	sess.Member = nil
	if err := store.Save(ctx, sess, time.Hour); err != nil {
		t.Fatalf("save logout: %v", err)
	}
	ids, err = store.SessionsForMember(ctx, "kakao_31")
	if err != nil {
		t.Fatalf("index lookup after logout: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("index retains logged-out session: %v", ids)
	}

	// The session itself survives logout.
	out, err := store.Load(ctx, "sid-x")
	if err != nil {
		t.Fatalf("load after logout: %v", err)
	}
	if out.Authenticated() {
		t.Fatalf("session still authenticated after logout: %+v", out)
	}
}

func TestRedisStoreIndexPrunedAfterNaturalExpiry(t *testing.T) {
	store, mr, done := newRedisStoreTest(t)
	defer done()
	ctx := context.Background()

	if err := store.Save(ctx, storedSession("sid-p", "m9"), time.Minute); err != nil {
		t.Fatalf("save: %v", err)
	}

	mr.FastForward(2 * time.Minute)

	ids, err := store.SessionsForMember(ctx, "m9")
	if err != nil {
		t.Fatalf("index lookup: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("expired session still indexed: %v", ids)
	}
}

func TestRedisStoreListAll(t *testing.T) {
	store, _, done := newRedisStoreTest(t)
	defer done()
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		if err := store.Save(ctx, storedSession(id, "m-"+id), time.Hour); err != nil {
			t.Fatalf("save %s: %v", id, err)
		}
	}

	all, err := store.ListAll(ctx)
	if err != nil {
		t.Fatalf("listall: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("listall len = %d, want 3", len(all))
	}

	seen := map[string]bool{}
	for _, s := range all {
		seen[s.ID] = true
	}
	for _, id := range []string{"a", "b", "c"} {
		if !seen[id] {
			t.Fatalf("listall missing %s: %v", id, seen)
		}
	}
}

func TestRedisStoreCorruptBlobTreatedAsAbsent(t *testing.T) {
	store, mr, done := newRedisStoreTest(t)
	defer done()
	ctx := context.Background()

	mr.Set("sg:bad", "\xff\xff")

	if _, err := store.Load(ctx, "bad"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("corrupt load err = %v, want ErrSessionNotFound", err)
	}
}
