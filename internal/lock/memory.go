package lock

import (
	"context"
	"sync"
	"time"

	"github.com/ayurtrace/ayurtrace/internal/observability/metrics"
)

type entry struct {
	ch   chan struct{}
	refs int
}

// MemoryLocker is a keyed mutex scoped to this process. Entries are dropped
// once no caller holds or waits on them.
type MemoryLocker struct {
	mu      sync.Mutex
	entries map[string]*entry
	metrics *metrics.TraceMetrics
}

func NewMemoryLocker(m *metrics.TraceMetrics) *MemoryLocker {
	return &MemoryLocker{entries: make(map[string]*entry), metrics: m}
}

func (l *MemoryLocker) Lock(ctx context.Context, key string) (func(), error) {
	start := time.Now()

	l.mu.Lock()
	e, ok := l.entries[key]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		l.entries[key] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(key, e, false)
		return nil, ctx.Err()
	}
	l.metrics.ObserveLockWait(time.Since(start))

	var once sync.Once
	return func() {
		once.Do(func() { l.release(key, e, true) })
	}, nil
}

func (l *MemoryLocker) release(key string, e *entry, held bool) {
	if held {
		<-e.ch
	}
	l.mu.Lock()
	e.refs--
	if e.refs == 0 {
		delete(l.entries, key)
	}
	l.mu.Unlock()
}

func (l *MemoryLocker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
