// Package lock serialises read-modify-write sequences on a single receipt
// book, in process or across replicas through Redis.
package lock

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// BookKey is the lock key of a receipt book
func BookKey(id uuid.UUID) string {
	return "receipt-book:" + id.String()
}

// LocalLocker is a keyed mutex for single-instance deployments
type LocalLocker struct {
	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	ch   chan struct{}
	refs int
}

// NewLocalLocker creates an in-process keyed locker
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{slots: make(map[string]*slot)}
}

// WithLock runs fn while holding the lock for key. Waiting stops when ctx
// is done; a running fn is never interrupted.
func (l *LocalLocker) WithLock(ctx context.Context, key string, fn func() error) error {
	s := l.acquireSlot(key)

	select {
	case s.ch <- struct{}{}:
	case <-ctx.Done():
		l.releaseSlot(key, s)
		return ctx.Err()
	}

	defer func() {
		<-s.ch
		l.releaseSlot(key, s)
	}()

	return fn()
}

func (l *LocalLocker) acquireSlot(key string) *slot {
	l.mu.Lock()
	defer l.mu.Unlock()

	s, ok := l.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		l.slots[key] = s
	}
	s.refs++
	return s
}

func (l *LocalLocker) releaseSlot(key string, s *slot) {
	l.mu.Lock()
	defer l.mu.Unlock()

	s.refs--
	if s.refs == 0 {
		delete(l.slots, key)
	}
}
