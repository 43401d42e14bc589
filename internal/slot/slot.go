// Package slot implements the observable slot primitive: a single-value,
// multicast container with latest-value replay and optional write-through
// persistence. Slots are the only communication medium between the sync
// scheduler, the mutation coordinator and UI-side subscribers.
package slot

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/chihung93/kotlinconf-app/internal/domain"
	"github.com/chihung93/kotlinconf-app/internal/metrics"
)

// Slot holds the latest value of one piece of state. Writers replace the
// value with Set; subscribers receive the current value on registration and
// every subsequent value until their handle is cancelled.
type Slot[T any] struct {
	name  string
	store domain.SlotStore

	// writeMu serializes Set end-to-end (value swap, persist, notify) so
	// subscribers observe writes to this slot in order.
	writeMu sync.Mutex

	mu    sync.RWMutex
	value T

	subMu  sync.Mutex
	subs   map[int]func(T)
	nextID int
}

// New creates an in-memory slot holding initial.
func New[T any](name string, initial T) *Slot[T] {
	return &Slot[T]{
		name:  name,
		value: initial,
		subs:  make(map[int]func(T)),
	}
}

// NewPersistent creates a slot backed by store under the slot's name. A
// previously persisted value replaces initial; restore failures are logged
// and leave the slot at initial.
func NewPersistent[T any](name string, initial T, store domain.SlotStore) *Slot[T] {
	s := New(name, initial)
	s.store = store

	data, found, err := store.Restore(name)
	if err != nil {
		slog.Warn("Slot restore failed", "slot", name, "error", err)
		return s
	}
	if !found {
		return s
	}

	var restored T
	if err := json.Unmarshal(data, &restored); err != nil {
		slog.Warn("Slot restore unmarshal failed", "slot", name, "error", err)
		return s
	}
	s.value = restored
	return s
}

// Set replaces the current value and synchronously notifies active
// subscribers. Concurrent writers are serialized; notification order across
// subscribers is unspecified.
func (s *Slot[T]) Set(v T) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	s.value = v
	s.mu.Unlock()

	s.persist(v)
	s.notify(v)
}

// Current returns the latest value without subscribing.
func (s *Slot[T]) Current() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// Subscribe registers fn, delivers the current value to it immediately, and
// returns a handle that stops future delivery when cancelled. Cancelling is
// idempotent and never blocks on notification to other subscribers.
func (s *Slot[T]) Subscribe(fn func(T)) *Subscription {
	s.writeMu.Lock()

	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	metrics.SlotSubscribers.WithLabelValues(s.name).Set(float64(len(s.subs)))
	s.subMu.Unlock()

	// Replay under writeMu so a concurrent Set cannot deliver a newer value
	// before the stale one.
	fn(s.Current())
	s.writeMu.Unlock()

	return &Subscription{release: func() { s.remove(id) }}
}

func (s *Slot[T]) remove(id int) {
	s.subMu.Lock()
	delete(s.subs, id)
	metrics.SlotSubscribers.WithLabelValues(s.name).Set(float64(len(s.subs)))
	s.subMu.Unlock()
}

func (s *Slot[T]) notify(v T) {
	s.subMu.Lock()
	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	s.subMu.Unlock()

	for _, id := range ids {
		// Re-check membership so a cancelled handle stops delivery even if
		// cancellation raced this notification.
		s.subMu.Lock()
		fn, ok := s.subs[id]
		s.subMu.Unlock()
		if ok {
			fn(v)
		}
	}
}

func (s *Slot[T]) persist(v T) {
	if s.store == nil {
		return
	}

	data, err := json.Marshal(v)
	if err != nil {
		slog.Warn("Slot persist marshal failed", "slot", s.name, "error", err)
		metrics.SlotPersistFailuresTotal.WithLabelValues(s.name).Inc()
		return
	}
	if err := s.store.Persist(s.name, data); err != nil {
		slog.Warn("Slot persist failed", "slot", s.name, "error", err)
		metrics.SlotPersistFailuresTotal.WithLabelValues(s.name).Inc()
	}
}

// Subscription is a cancellation handle returned by Subscribe.
type Subscription struct {
	once    sync.Once
	release func()
}

// Cancel stops all future delivery to the subscriber. Safe to call multiple
// times and after the slot's producers have stopped.
func (s *Subscription) Cancel() {
	s.once.Do(s.release)
}
