package session

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newMemoryStoreTest(t *testing.T) *MemoryStore {
	t.Helper()
	store := NewMemoryStore(10 * time.Millisecond)
	t.Cleanup(store.Close)
	return store
}

func TestMemoryStoreRoundTripAndIsolation(t *testing.T) {
	store := newMemoryStoreTest(t)
	ctx := context.Background()

	in := storedSession("sid-m", "naver_5")
	if err := store.Save(ctx, in, time.Hour); err != nil {
		t.Fatalf("save: %v", err)
	}

	out, err := store.Load(ctx, "sid-m")
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	// Loaded sessions are copies; mutating one must not leak into the store.
	out.Member.Role = "ADMIN"
	again, err := store.Load(ctx, "sid-m")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if again.Member.Role != "USER" {
		t.Fatalf("store record mutated through a loaded copy: %+v", again.Member)
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := newMemoryStoreTest(t)
	ctx := context.Background()

	if err := store.Save(ctx, storedSession("sid-e", "m1"), 20*time.Millisecond); err != nil {
		t.Fatalf("save: %v", err)
	}

	time.Sleep(40 * time.Millisecond)

	if _, err := store.Load(ctx, "sid-e"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expired load err = %v, want ErrSessionNotFound", err)
	}

	ids, err := store.SessionsForMember(ctx, "m1")
	if err != nil {
		t.Fatalf("index lookup: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("expired session still indexed: %v", ids)
	}
}

func TestMemoryStoreDestroyIdempotent(t *testing.T) {
	store := newMemoryStoreTest(t)
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
}

func TestMemoryStoreMemberIndex(t *testing.T) {
	store := newMemoryStoreTest(t)
	ctx := context.Background()

	if err := store.Save(ctx, storedSession("s1", "dup"), time.Hour); err != nil {
		t.Fatalf("save s1: %v", err)
	}
	if err := store.Save(ctx, storedSession("s2", "dup"), time.Hour); err != nil {
		t.Fatalf("save s2: %v", err)
	}
	if err := store.Save(ctx, storedSession("s3", "other"), time.Hour); err != nil {
		t.Fatalf("save s3: %v", err)
	}

	ids, err := store.SessionsForMember(ctx, "dup")
	if err != nil {
		t.Fatalf("index lookup: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("index = %v, want two entries", ids)
	}

	all, err := store.ListAll(ctx)
	if err != nil {
		t.Fatalf("listall: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("listall len = %d, want 3", len(all))
	}
}
