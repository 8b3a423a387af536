package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrSessionNotFound is returned by Load when no live session exists for the
// id. Expired and corrupt records report the same way: absent.
var ErrSessionNotFound = errors.New("session not found")

// ErrStoreUnavailable wraps transport and storage faults. Callers degrade to
// anonymous on load failures and swallow save/destroy failures.
var ErrStoreUnavailable = errors.New("session store unavailable")

// Store is the keyed, persistent collection of session records. It is the
// only shared mutable resource in the core; every implementation must be safe
// for concurrent use.
type Store interface {
	// Load fetches a live session by id. Absent, expired, and undecodable
	// records all return ErrSessionNotFound.
	Load(ctx context.Context, id string) (*Session, error)

	// Save upserts a session and resets its rolling expiry window.
	Save(ctx context.Context, s *Session, ttl time.Duration) error

	// ListAll enumerates every live session. O(total live sessions); used
	// only by the duplicate session reconciler's fallback path.
	ListAll(ctx context.Context) ([]*Session, error)

	// Destroy removes a session. Destroying an absent id is a no-op.
	Destroy(ctx context.Context, id string) error
}

// MemberIndex is the optional secondary index keyed by member id. Stores that
// implement it let the reconciler skip the full ListAll scan.
type MemberIndex interface {
	// SessionsForMember returns the live session ids attached to a member.
	SessionsForMember(ctx context.Context, memberID string) ([]string, error)
}

// saveSessionScript keeps the member index consistent with the blob it
// replaces: if the old blob belonged to a different member (login as someone
// else, or logout), the stale index entry is removed before the new blob and
// index entry are written. The member id is parsed straight out of the binary
// blob at its fixed offset.
const saveSessionScript = `
local function member_id(data)
  local len = string.byte(data, 2)
  if not len or len == 0 then
    return nil
  end
  if #data < 2 + len then
    return nil
  end
  return string.sub(data, 3, 2 + len)
end

local old = redis.call("GET", KEYS[1])
if old then
  local prev = member_id(old)
  if prev and prev ~= ARGV[4] then
    redis.call("SREM", ARGV[3] .. prev, ARGV[1])
  end
end

redis.call("SET", KEYS[1], ARGV[2], "PX", tonumber(ARGV[5]))
if ARGV[4] ~= "" then
  redis.call("SADD", ARGV[3] .. ARGV[4], ARGV[1])
end
return 1
`

var saveSessionLua = redis.NewScript(saveSessionScript)

// destroySessionScript deletes a session and its member index entry in one
// round trip. Absent ids return 0 without error.
const destroySessionScript = `
local data = redis.call("GET", KEYS[1])
if not data then
  return 0
end

local len = string.byte(data, 2)
if len and len > 0 and #data >= 2 + len then
  redis.call("SREM", ARGV[2] .. string.sub(data, 3, 2 + len), ARGV[1])
end

redis.call("DEL", KEYS[1])
return 1
`

var destroySessionLua = redis.NewScript(destroySessionScript)

// RedisStore is the production [Store]: one Redis key per session carrying a
// rolling TTL, plus a per-member SET of live session ids. Expired sessions
// are reaped by Redis itself and are never returned by Load.
type RedisStore struct {
	redis       redis.UniversalClient
	prefix      string
	indexPrefix string
}

// NewRedisStore creates a [RedisStore] on the given client. prefix namespaces
// the session keys; the member index lives under "<prefix>m:".
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "sg"
	}
	return &RedisStore{
		redis:       client,
		prefix:      prefix,
		indexPrefix: prefix + "m:",
	}
}

func (s *RedisStore) key(id string) string {
	return s.prefix + ":" + id
}

// Load implements [Store]. Undecodable blobs are destroyed best-effort and
// reported as absent, so one corrupt record cannot wedge a client.
func (s *RedisStore) Load(ctx context.Context, id string) (*Session, error) {
	data, err := s.redis.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	sess, err := Decode(data)
	if err != nil {
		_ = s.redis.Del(ctx, s.key(id)).Err()
		return nil, ErrSessionNotFound
	}
	sess.ID = id

	return sess, nil
}

// Save implements [Store]. The TTL window restarts on every save, which gives
// the rolling expiry measured from the last resolved request.
func (s *RedisStore) Save(ctx context.Context, sess *Session, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("%w: non-positive ttl", ErrStoreUnavailable)
	}

	data, err := Encode(sess)
	if err != nil {
		return err
	}

	err = saveSessionLua.Run(
		ctx,
		s.redis,
		[]string{s.key(sess.ID)},
		sess.ID,
		data,
		s.indexPrefix,
		sess.MemberID(),
		strconv.FormatInt(ttl.Milliseconds(), 10),
	).Err()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return nil
}

// ListAll implements [Store] with a cursor SCAN over the session namespace
// followed by pipelined GETs. Records that vanish or fail to decode mid-scan
// are skipped.
func (s *RedisStore) ListAll(ctx context.Context) ([]*Session, error) {
	pattern := s.prefix + ":*"

	var keys []string
	var cursor uint64
	for {
		batch, next, err := s.redis.Scan(ctx, cursor, pattern, 1000).Result()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		keys = append(keys, batch...)
		cursor = next
		if cursor == 0 {
			break
		}
	}

	if len(keys) == 0 {
		return []*Session{}, nil
	}

	pipe := s.redis.Pipeline()
	cmds := make([]*redis.StringCmd, len(keys))
	for i, key := range keys {
		cmds[i] = pipe.Get(ctx, key)
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	sessions := make([]*Session, 0, len(keys))
	for i, cmd := range cmds {
		data, err := cmd.Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}

		sess, err := Decode(data)
		if err != nil {
			continue
		}
		sess.ID = strings.TrimPrefix(keys[i], s.prefix+":")
		sessions = append(sessions, sess)
	}

	return sessions, nil
}

// Destroy implements [Store]; idempotent by contract.
func (s *RedisStore) Destroy(ctx context.Context, id string) error {
	err := destroySessionLua.Run(
		ctx,
		s.redis,
		[]string{s.key(id)},
		id,
		s.indexPrefix,
	).Err()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// SessionsForMember implements [MemberIndex]. Index entries whose session key
// already expired are pruned on the way out, so natural TTL expiry cannot
// grow the index without bound.
func (s *RedisStore) SessionsForMember(ctx context.Context, memberID string) ([]string, error) {
	if memberID == "" {
		return []string{}, nil
	}

	indexKey := s.indexPrefix + memberID
	ids, err := s.redis.SMembers(ctx, indexKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if len(ids) == 0 {
		return []string{}, nil
	}

	pipe := s.redis.Pipeline()
	exists := make([]*redis.IntCmd, len(ids))
	for i, id := range ids {
		exists[i] = pipe.Exists(ctx, s.key(id))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	live := make([]string, 0, len(ids))
	var stale []interface{}
	for i, cmd := range exists {
		n, err := cmd.Result()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		if n > 0 {
			live = append(live, ids[i])
		} else {
			stale = append(stale, ids[i])
		}
	}

	if len(stale) > 0 {
		_ = s.redis.SRem(ctx, indexKey, stale...).Err()
	}

	return live, nil
}

// Ping returns a point-in-time availability check and its latency.
func (s *RedisStore) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return time.Since(start), fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return time.Since(start), nil
}
