// Package notify implements the notification collaborator: a local,
// clock-driven scheduler that fires reminder callbacks at their due time.
// Delivery to the OS notification surface is the embedder's concern; the
// default delivery just logs.
package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// Delivery receives a due notification.
type Delivery func(title, body string)

// LocalScheduler schedules notifications against an injectable clock.
type LocalScheduler struct {
	clock   clockwork.Clock
	deliver Delivery

	mu      sync.Mutex
	pending map[string]clockwork.Timer
}

// NewLocalScheduler creates a scheduler. deliver may be nil, in which case
// due notifications are logged.
func NewLocalScheduler(clock clockwork.Clock, deliver Delivery) *LocalScheduler {
	if deliver == nil {
		deliver = func(title, body string) {
			slog.Info("Notification due", "title", title, "body", body)
		}
	}
	return &LocalScheduler{
		clock:   clock,
		deliver: deliver,
		pending: make(map[string]clockwork.Timer),
	}
}

// Schedule registers a notification to fire at the given time and returns its
// id. Times in the past fire immediately.
func (s *LocalScheduler) Schedule(title, body string, at time.Time) (string, error) {
	id := uuid.NewString()

	delay := at.Sub(s.clock.Now())
	if delay < 0 {
		delay = 0
	}

	s.mu.Lock()
	timer := s.clock.AfterFunc(delay, func() {
		s.mu.Lock()
		delete(s.pending, id)
		s.mu.Unlock()
		s.deliver(title, body)
	})
	s.pending[id] = timer
	s.mu.Unlock()

	slog.Debug("Notification scheduled", "id", id, "title", title, "at", at)
	return id, nil
}

// Cancel stops a pending notification. Unknown or already fired ids are a
// no-op.
func (s *LocalScheduler) Cancel(notificationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if timer, ok := s.pending[notificationID]; ok {
		timer.Stop()
		delete(s.pending, notificationID)
	}
	return nil
}

// RequestPermission asks the platform for notification permission. The local
// scheduler always grants it.
func (s *LocalScheduler) RequestPermission(_ context.Context) (bool, error) {
	slog.Debug("Notification permission requested")
	return true, nil
}

// PendingCount returns the number of notifications not yet fired.
func (s *LocalScheduler) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}
