package store

import (
	"sync"

	"github.com/collabws/workspace-server/internal/model"
)

// NotificationLog is the global append-only event record. Unbounded; the
// full history is rendered on demand.
type NotificationLog struct {
	mu      sync.Mutex
	entries []model.Notification
}

// Append adds one entry. Entries commit in call order.
func (l *NotificationLog) Append(n model.Notification) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, n)
}

// All returns the entries in append order.
func (l *NotificationLog) All() []model.Notification {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]model.Notification, len(l.entries))
	copy(out, l.entries)
	return out
}
