package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// StageLock guarantees at most one run of a stage per session at a time.
// Implementations must be safe for concurrent use.
type StageLock interface {
	// Acquire returns a release func when the key was free. The lock expires
	// after ttl even if release is never called.
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), acquired bool, err error)
}

// releaseScript deletes the key only while it still holds our token, so an
// expired holder cannot release a lock taken over by someone else.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisStageLock implements StageLock with SET NX PX.
type RedisStageLock struct {
	client *redis.Client
}

// NewRedisStageLock creates a new RedisStageLock from a Redis URL.
func NewRedisStageLock(redisURL string) (*RedisStageLock, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	return &RedisStageLock{client: redis.NewClient(opts)}, nil
}

func (l *RedisStageLock) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}

func (l *RedisStageLock) Close() error {
	return l.client.Close()
}

func (l *RedisStageLock) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), bool, error) {
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}

	release := func() {
		// The caller's context may already be done by the time the stage returns.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = releaseScript.Run(releaseCtx, l.client, []string{key}, token).Err()
	}

	return release, true, nil
}

// MemoryStageLock implements StageLock inside a single process.
type MemoryStageLock struct {
	mu     sync.Mutex
	held   map[string]memoryEntry
	tokens uint64
	clock  func() time.Time
}

type memoryEntry struct {
	token     uint64
	expiresAt time.Time
}

func NewMemoryStageLock() *MemoryStageLock {
	return &MemoryStageLock{
		held:  make(map[string]memoryEntry),
		clock: time.Now,
	}
}

func (l *MemoryStageLock) Acquire(_ context.Context, key string, ttl time.Duration) (func(), bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock()
	if entry, ok := l.held[key]; ok && now.Before(entry.expiresAt) {
		return nil, false, nil
	}

	l.tokens++
	token := l.tokens
	l.held[key] = memoryEntry{token: token, expiresAt: now.Add(ttl)}

	release := func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		if entry, ok := l.held[key]; ok && entry.token == token {
			delete(l.held, key)
		}
	}

	return release, true, nil
}
