package sessiongate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jhyun-dev/sessiongate/session"
)

func TestReconcileEvictsOtherSessionsOfMember(t *testing.T) {
	core, _ := newTestCore(t, func(b *Builder) { b.WithMetricsEnabled(true) })
	ctx := context.Background()

	member := func() *session.Member {
		return &session.Member{ID: "github_55", Role: "USER", Active: true, Social: "GITHUB"}
	}

	// The same member logs in from two browsers.
	first := resolveRequest(t, core, "")
	if err := core.Login(ctx, first.Session, member()); err != nil {
		t.Fatalf("first login: %v", err)
	}
	second := resolveRequest(t, core, "")
	if err := core.Login(ctx, second.Session, member()); err != nil {
		t.Fatalf("second login: %v", err)
	}

	if err := core.ReconcileDuplicates(ctx, "github_55", second.Session.ID); err != nil {
		t.Fatalf("reconcile: %v", err)
	}

	// The first browser's session is gone; replaying its cookie starts over.
	if _, err := core.store.Load(ctx, first.Session.ID); !errors.Is(err, session.ErrSessionNotFound) {
		t.Fatalf("displaced session load err = %v, want ErrSessionNotFound", err)
	}
	replay := resolveRequest(t, core, first.CookieValue)
	if !replay.IsNew || replay.Session.Authenticated() {
		t.Fatalf("replayed cookie must start anonymous: %+v", replay)
	}

	// The winner is untouched.
	if _, err := core.store.Load(ctx, second.Session.ID); err != nil {
		t.Fatalf("kept session must survive: %v", err)
	}

	if got := core.MetricsSnapshot().Counters[MetricSessionEvicted]; got == 0 {
		t.Fatal("eviction must be counted")
	}
}

func TestReconcileLeavesOtherMembersAlone(t *testing.T) {
	core, _ := newTestCore(t)
	ctx := context.Background()

	a := resolveRequest(t, core, "")
	if err := core.Login(ctx, a.Session, &session.Member{ID: "github_1", Role: "USER", Active: true, Social: "GITHUB"}); err != nil {
		t.Fatalf("login a: %v", err)
	}
	b := resolveRequest(t, core, "")
	if err := core.Login(ctx, b.Session, &session.Member{ID: "kakao_2", Role: "USER", Active: true, Social: "KAKAO"}); err != nil {
		t.Fatalf("login b: %v", err)
	}

	if err := core.ReconcileDuplicates(ctx, "github_1", a.Session.ID); err != nil {
		t.Fatalf("reconcile: %v", err)
	}

	if _, err := core.store.Load(ctx, b.Session.ID); err != nil {
		t.Fatalf("unrelated member's session must survive: %v", err)
	}
}

func TestReconcileNoopForAnonymous(t *testing.T) {
	core, _ := newTestCore(t, func(b *Builder) { b.WithMetricsEnabled(true) })

	if err := core.ReconcileDuplicates(context.Background(), "", "sid"); err != nil {
		t.Fatalf("anonymous reconcile: %v", err)
	}
	if got := core.MetricsSnapshot().Counters[MetricReconcileRuns]; got != 0 {
		t.Fatal("anonymous reconcile must not count as a run")
	}
}

// scanStore hides the member index so the reconciler exercises the full-scan
// fallback path.
type scanStore struct {
	inner session.Store
}

func (s *scanStore) Load(ctx context.Context, id string) (*session.Session, error) {
	return s.inner.Load(ctx, id)
}

func (s *scanStore) Save(ctx context.Context, sess *session.Session, ttl time.Duration) error {
	return s.inner.Save(ctx, sess, ttl)
}

func (s *scanStore) ListAll(ctx context.Context) ([]*session.Session, error) {
	return s.inner.ListAll(ctx)
}

func (s *scanStore) Destroy(ctx context.Context, id string) error {
	return s.inner.Destroy(ctx, id)
}

func TestReconcileFallsBackToFullScan(t *testing.T) {
	mem := session.NewMemoryStore(time.Minute)
	t.Cleanup(mem.Close)

	core, err := New().WithStore(&scanStore{inner: mem}).Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	t.Cleanup(core.Close)
	ctx := context.Background()

	member := func() *session.Member {
		return &session.Member{ID: "naver_9", Role: "USER", Active: true, Social: "NAVER"}
	}

	first := resolveRequest(t, core, "")
	if err := core.Login(ctx, first.Session, member()); err != nil {
		t.Fatalf("first login: %v", err)
	}
	second := resolveRequest(t, core, "")
	if err := core.Login(ctx, second.Session, member()); err != nil {
		t.Fatalf("second login: %v", err)
	}

	if err := core.ReconcileDuplicates(ctx, "naver_9", second.Session.ID); err != nil {
		t.Fatalf("reconcile: %v", err)
	}

	if _, err := core.store.Load(ctx, first.Session.ID); !errors.Is(err, session.ErrSessionNotFound) {
		t.Fatalf("scan fallback missed the duplicate: %v", err)
	}
	if _, err := core.store.Load(ctx, second.Session.ID); err != nil {
		t.Fatalf("kept session must survive: %v", err)
	}
}

// flakyDestroyStore fails Destroy for one specific session id.
type flakyDestroyStore struct {
	session.Store
	failID string
}

func (s *flakyDestroyStore) Destroy(ctx context.Context, id string) error {
	if id == s.failID {
		return session.ErrStoreUnavailable
	}
	return s.Store.Destroy(ctx, id)
}

func TestReconcileIsBestEffort(t *testing.T) {
	mem := session.NewMemoryStore(time.Minute)
	t.Cleanup(mem.Close)

	ctx := context.Background()
	member := &session.Member{ID: "dup_1", Role: "USER", Active: true}
	for _, id := range []string{"s1", "s2", "s3"} {
		sess := session.NewAnonymous(time.Now())
		sess.ID = id
		sess.Member = member
		if err := mem.Save(ctx, sess, time.Minute); err != nil {
			t.Fatalf("seed %s: %v", id, err)
		}
	}

	flaky := &flakyDestroyStore{Store: mem, failID: "s2"}
	core, err := New().WithStore(flaky).Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	t.Cleanup(core.Close)

	err = core.ReconcileDuplicates(ctx, "dup_1", "s3")
	if !errors.Is(err, session.ErrStoreUnavailable) {
		t.Fatalf("reconcile err = %v, want ErrStoreUnavailable", err)
	}

	// The failing id stays, but the other duplicate was still evicted.
	if _, loadErr := mem.Load(ctx, "s1"); !errors.Is(loadErr, session.ErrSessionNotFound) {
		t.Fatalf("s1 should be evicted despite s2 failing: %v", loadErr)
	}
	if _, loadErr := mem.Load(ctx, "s3"); loadErr != nil {
		t.Fatalf("kept session must survive: %v", loadErr)
	}
}

func TestLoginTriggersAsyncReconcile(t *testing.T) {
	sink := newCaptureSink(64)
	cfg := defaultConfig()
	cfg.Audit.Enabled = true

	core, _ := newTestCore(t, func(b *Builder) {
		b.WithConfig(cfg).WithAuditSink(sink)
	})
	ctx := context.Background()

	member := func() *session.Member {
		return &session.Member{ID: "github_77", Role: "USER", Active: true, Social: "GITHUB"}
	}

	first := resolveRequest(t, core, "")
	if err := core.Login(ctx, first.Session, member()); err != nil {
		t.Fatalf("first login: %v", err)
	}
	second := resolveRequest(t, core, "")
	if err := core.Login(ctx, second.Session, member()); err != nil {
		t.Fatalf("second login: %v", err)
	}

	ev := waitForEvent(t, sink, auditEventSessionEvicted)
	if ev.SessionID != first.Session.ID {
		t.Fatalf("evicted session = %q, want %q", ev.SessionID, first.Session.ID)
	}
	if ev.Metadata["kept_session"] != second.Session.ID {
		t.Fatalf("kept session metadata = %+v", ev.Metadata)
	}

	// The pass triggered by the first login captured its duplicate set before
	// the second login existed, so the later login always survives.
	if _, err := core.store.Load(ctx, second.Session.ID); err != nil {
		t.Fatalf("newest login must survive: %v", err)
	}
	if _, err := core.store.Load(ctx, first.Session.ID); !errors.Is(err, session.ErrSessionNotFound) {
		t.Fatalf("displaced login load err = %v, want ErrSessionNotFound", err)
	}
}
