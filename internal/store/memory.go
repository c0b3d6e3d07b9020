package store

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/google/uuid"

	"github.com/jpalmerr/walkin/directory"
)

type subscriber struct {
	id uint64
	fn func(directory.Result)
}

// MemoryStore is an in-memory implementation of [Store].
//
// Publishes are serialized through a single delivery loop: the goroutine
// whose publish finds the store idle delivers its result, and any results
// published meanwhile (including from inside a subscriber callback), to
// every subscriber before returning. A publish that arrives while another
// goroutine is delivering is queued and delivered by that goroutine, in
// order. Subscriber panics are recovered and logged.
type MemoryStore struct {
	logger *slog.Logger

	mu          sync.Mutex
	current     directory.Result
	subscribers []subscriber
	nextID      uint64
	pending     []directory.Result
	delivering  bool
	closed      bool
}

// NewMemoryStore creates a [MemoryStore] in the loading state.
//
// If logger is nil, slog.Default() is used.
func NewMemoryStore(logger *slog.Logger) *MemoryStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &MemoryStore{
		logger:  logger,
		current: directory.Loading(),
	}
}

// Read returns the current result.
func (m *MemoryStore) Read() directory.Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Publish replaces the current result and notifies all subscribers in
// registration order. It returns false if the store is closed.
func (m *MemoryStore) Publish(next directory.Result) bool {
	return m.PublishIf(next, nil)
}

// PublishIf is Publish guarded by accept. accept runs under the store lock,
// at the moment the store would take the result, and the result is dropped
// if it returns false. A nil accept always accepts. accept must not call
// back into the store.
func (m *MemoryStore) PublishIf(next directory.Result, accept func() bool) bool {
	m.mu.Lock()
	if m.closed || (accept != nil && !accept()) {
		m.mu.Unlock()
		return false
	}

	m.pending = append(m.pending, next)
	if m.delivering {
		// the active delivery loop picks it up after the current notification
		m.mu.Unlock()
		return true
	}
	m.delivering = true

	for len(m.pending) > 0 && !m.closed {
		result := m.pending[0]
		m.pending = m.pending[1:]
		m.current = result

		subs := make([]subscriber, len(m.subscribers))
		copy(subs, m.subscribers)

		m.mu.Unlock()
		for _, s := range subs {
			m.notify(s, result)
		}
		m.mu.Lock()
	}

	m.pending = nil
	m.delivering = false
	m.mu.Unlock()
	return true
}

// Subscribe registers fn for change notification.
//
// fn is called synchronously from the publishing goroutine and must not
// block. It may call Read and Publish.
func (m *MemoryStore) Subscribe(fn func(directory.Result)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed || fn == nil {
		return func() {}
	}

	m.nextID++
	id := m.nextID
	m.subscribers = append(m.subscribers, subscriber{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() { m.unsubscribe(id) })
	}
}

// Subscribers returns the number of active subscriptions.
func (m *MemoryStore) Subscribers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subscribers)
}

// Close discards queued results and all subscriptions. Later publishes
// return false. Safe to call multiple times.
func (m *MemoryStore) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.pending = nil
	m.subscribers = nil
}

func (m *MemoryStore) unsubscribe(id uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, s := range m.subscribers {
		if s.id == id {
			m.subscribers = append(m.subscribers[:i:i], m.subscribers[i+1:]...)
			return
		}
	}
}

// notify calls a subscriber with panic recovery.
func (m *MemoryStore) notify(s subscriber, result directory.Result) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("store subscriber panicked",
				"correlation_id", uuid.NewString(),
				"subscriber", s.id,
				"state", result.State.String(),
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)
		}
	}()
	s.fn(result)
}

// Await blocks until s holds a non-loading result or ctx is done.
func Await(ctx context.Context, s Store) (directory.Result, error) {
	ch := make(chan directory.Result, 1)
	unsubscribe := s.Subscribe(func(r directory.Result) {
		if r.IsLoading() {
			return
		}
		select {
		case ch <- r:
		default:
		}
	})
	defer unsubscribe()

	// subscribed first so a publish between the two steps is not missed
	if r := s.Read(); !r.IsLoading() {
		return r, nil
	}

	select {
	case r := <-ch:
		return r, nil
	case <-ctx.Done():
		return directory.Result{}, ctx.Err()
	}
}
