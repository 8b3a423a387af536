// Package session provides the session record, a compact binary codec for it,
// and the persistent stores that hold live sessions.
//
// # Binary encoding
//
// Sessions are stored as a compact binary blob (schema versions v1–v2) with
// forward migration on read. The encoder is append-only: new versions add
// fields but never reinterpret old ones. The member id sits at a fixed early
// offset so the Redis Lua scripts can read it without decoding the whole blob.
//
// # Stores
//
// [RedisStore] is the production store: one key per session with a rolling
// TTL, plus a per-member SET that indexes live session ids for the duplicate
// session reconciler. [MemoryStore] is a mutex-guarded map with a background
// janitor, used by tests and the runnable example.
//
// # Architecture boundaries
//
// This package owns persistence and encoding only. It does NOT evaluate access
// policies, classify clients, or decide eviction; those belong to the core.
//
// # What this package must NOT do
//
//   - Import the root sessiongate package (no upward imports).
//   - Return expired sessions from Load.
//   - Treat Destroy of an absent id as an error.
package session
