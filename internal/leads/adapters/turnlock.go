package adapters

import (
	"context"
	"fmt"
	"sync"
	"time"

	"leadbot_backend/internal/leads/ports"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	turnLockPrefix    = "leadbot:turn:"
	defaultLockTTL    = 30 * time.Second
	defaultLockWait   = 5 * time.Second
	lockRetryInterval = 25 * time.Millisecond
)

// releaseScript deletes the key only if we still own it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisTurnLocker serialises turns per lead across API instances using
// SET NX PX with an owner token. The TTL bounds how long a crashed writer
// can block a lead.
type RedisTurnLocker struct {
	client *redis.Client
	ttl    time.Duration
	wait   time.Duration
}

// NewRedisTurnLocker creates a locker. Zero ttl or wait use the defaults.
func NewRedisTurnLocker(client *redis.Client, ttl, wait time.Duration) *RedisTurnLocker {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	if wait <= 0 {
		wait = defaultLockWait
	}
	return &RedisTurnLocker{client: client, ttl: ttl, wait: wait}
}

// Lock acquires the lead's lock, polling until wait elapses.
func (l *RedisTurnLocker) Lock(ctx context.Context, leadID string) (func(), error) {
	key := turnLockPrefix + leadID
	token := uuid.NewString()
	deadline := time.Now().Add(l.wait)

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire turn lock: %w", err)
		}
		if ok {
			return func() {
				// release must outlive a cancelled request
				releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
				defer cancel()
				_ = releaseScript.Run(releaseCtx, l.client, []string{key}, token).Err()
			}, nil
		}
		if time.Now().After(deadline) {
			return nil, ports.ErrLockHeld
		}

		timer := time.NewTimer(lockRetryInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

// LocalTurnLocker serialises turns within a single process.
type LocalTurnLocker struct {
	mu    sync.Mutex
	locks map[string]*leadLock
}

type leadLock struct {
	ch   chan struct{}
	refs int
}

// NewLocalTurnLocker creates an in-process locker.
func NewLocalTurnLocker() *LocalTurnLocker {
	return &LocalTurnLocker{locks: make(map[string]*leadLock)}
}

// Lock blocks until the lead is free or ctx is done.
func (l *LocalTurnLocker) Lock(ctx context.Context, leadID string) (func(), error) {
	l.mu.Lock()
	lk, ok := l.locks[leadID]
	if !ok {
		lk = &leadLock{ch: make(chan struct{}, 1)}
		l.locks[leadID] = lk
	}
	lk.refs++
	l.mu.Unlock()

	select {
	case lk.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(leadID, lk, false)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() { l.release(leadID, lk, true) })
	}, nil
}

func (l *LocalTurnLocker) release(leadID string, lk *leadLock, held bool) {
	if held {
		<-lk.ch
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	lk.refs--
	if lk.refs == 0 {
		delete(l.locks, leadID)
	}
}

var (
	_ ports.TurnLocker = (*RedisTurnLocker)(nil)
	_ ports.TurnLocker = (*LocalTurnLocker)(nil)
)
