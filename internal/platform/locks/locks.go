// Package locks serializes work on one key, either inside this process or across
// replicas through Redis.
package locks

import (
	"context"
	"sync"
	"time"

	"github.com/yungbote/inkforge-backend/internal/observability"
)

// Locker hands out exclusive access per key. Release must be called exactly once.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

type localEntry struct {
	ch   chan struct{}
	refs int
}

type local struct {
	mu      sync.Mutex
	entries map[string]*localEntry
	metrics *observability.Metrics
}

// NewLocal returns an in-process keyed mutex. Idle keys are forgotten.
func NewLocal(metrics *observability.Metrics) Locker {
	return &local{entries: map[string]*localEntry{}, metrics: metrics}
}

func (l *local) Acquire(ctx context.Context, key string) (func(), error) {
	start := time.Now()
	l.mu.Lock()
	e, ok := l.entries[key]
	if !ok {
		e = &localEntry{ch: make(chan struct{}, 1)}
		l.entries[key] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		l.forget(key, e)
		return nil, ctx.Err()
	}
	l.metrics.ObserveLockWait("local", time.Since(start))

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.ch
			l.forget(key, e)
		})
	}, nil
}

func (l *local) forget(key string, e *localEntry) {
	l.mu.Lock()
	e.refs--
	if e.refs == 0 {
		delete(l.entries, key)
	}
	l.mu.Unlock()
}

// size is the number of keys currently held or waited on.
func (l *local) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
