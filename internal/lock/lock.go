// Package lock serializes mutations of a single loan. The redis locker is
// shared between service instances, the local locker only within a process.
package lock

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	customError "github.com/segyhp/lending-engine/pkg/errors"
)

const (
	keyPrefix     = "lending:lock:"
	retryInterval = 25 * time.Millisecond
)

// Unlock releases a held lock. Calling it more than once is a no-op.
type Unlock func()

// Locker grants exclusive access to a key until the returned Unlock is called.
type Locker interface {
	Lock(ctx context.Context, key string) (Unlock, error)
}

// compare-and-delete, so an expired holder cannot release its successor's lock
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
	wait   time.Duration
}

// NewRedisLocker creates a locker whose locks expire after ttl. Lock waits up
// to wait for a busy key before giving up.
func NewRedisLocker(client *redis.Client, ttl, wait time.Duration) *RedisLocker {
	return &RedisLocker{client: client, ttl: ttl, wait: wait}
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (Unlock, error) {
	redisKey := keyPrefix + key
	token := uuid.NewString()
	deadline := time.Now().Add(l.wait)

	for {
		ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			return nil, customError.WrapLockError(key, err)
		}
		if ok {
			break
		}
		if !time.Now().Before(deadline) {
			return nil, customError.WrapLockError(key, customError.ErrLockNotAcquired)
		}

		select {
		case <-ctx.Done():
			return nil, customError.WrapLockError(key, ctx.Err())
		case <-time.After(retryInterval):
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// the caller's context may already be cancelled
			releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			_ = releaseScript.Run(releaseCtx, l.client, []string{redisKey}, token).Err()
		})
	}, nil
}

type entry struct {
	sem  chan struct{}
	refs int
}

// LocalLocker is an in-process keyed mutex.
type LocalLocker struct {
	mu    sync.Mutex
	locks map[string]*entry
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{locks: make(map[string]*entry)}
}

func (l *LocalLocker) Lock(ctx context.Context, key string) (Unlock, error) {
	l.mu.Lock()
	e, ok := l.locks[key]
	if !ok {
		e = &entry{sem: make(chan struct{}, 1)}
		l.locks[key] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.sem <- struct{}{}:
	case <-ctx.Done():
		l.release(key, e)
		return nil, customError.WrapLockError(key, ctx.Err())
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.sem
			l.release(key, e)
		})
	}, nil
}

func (l *LocalLocker) release(key string, e *entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.locks, key)
	}
}

// IsNotAcquired reports whether err means the key was held by someone else.
func IsNotAcquired(err error) bool {
	return errors.Is(err, customError.ErrLockNotAcquired)
}
