// Package registry tracks which usernames are bound to live connections.
//
// One mutex covers the binding maps, the per-connection activity stamps and
// the directory's online flags, so "online iff bound" holds at every
// observable instant. Nothing in this package performs network I/O; callers
// snapshot what they need under the lock and send after it is released.
package registry

import (
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/collabws/workspace-server/internal/directory"
	"github.com/collabws/workspace-server/internal/errs"
)

// Session is the registry's view of one authenticated connection.
type Session interface {
	// ID is the opaque connection identifier.
	ID() uuid.UUID
	// Username is the name bound at login.
	Username() string
	// Send writes one discrete text message to the client. It may block on
	// the socket and must never be called while holding the registry lock.
	Send(msg string) error
	// Close tears the connection down, unblocking the handler's read.
	Close() error
}

type entry struct {
	sess         Session
	lastActivity time.Time
	probedAt     time.Time // zero when no probe is outstanding
}

// Registry is the authoritative map of username to live session.
type Registry struct {
	mu     sync.Mutex
	byName map[string]*entry
	byID   map[uuid.UUID]*entry

	dir    directory.Directory
	now    func() time.Time
	logger *zap.Logger
}

// New constructs an empty registry over the given directory.
func New(dir directory.Directory, logger *zap.Logger) *Registry {
	return &Registry{
		byName: make(map[string]*entry),
		byID:   make(map[uuid.UUID]*entry),
		dir:    dir,
		now:    time.Now,
		logger: logger,
	}
}

// Bind atomically binds username to sess and flips the directory flag to
// online. A username already bound to a live session is refused with
// ErrAlreadyExists; the directory tracks a single boolean per user and
// cannot arbitrate two concurrent logins, so the earlier session wins.
func (r *Registry) Bind(username string, sess Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, bound := r.byName[username]; bound {
		return errs.ErrAlreadyExists
	}
	e := &entry{sess: sess, lastActivity: r.now()}
	r.byName[username] = e
	r.byID[sess.ID()] = e
	r.dir.SetOnline(username, true)
	r.logger.Info("session bound",
		zap.String("user", username),
		zap.String("conn", sess.ID().String()),
	)
	return nil
}

// Unbind removes sess and marks its user offline. Unbinding a session that
// is not registered is a no-op, so disconnect and eviction can race safely.
func (r *Registry) Unbind(sess Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.byID[sess.ID()]
	if !ok {
		return
	}
	delete(r.byID, sess.ID())
	username := sess.Username()
	// Only drop the name index if it still points at this session.
	if cur, ok := r.byName[username]; ok && cur == e {
		delete(r.byName, username)
		r.dir.SetOnline(username, false)
	}
	r.logger.Info("session unbound",
		zap.String("user", username),
		zap.String("conn", sess.ID().String()),
	)
}

// Lookup returns the live session bound to username.
func (r *Registry) Lookup(username string) (Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.byName[username]
	if !ok {
		return nil, false
	}
	return e.sess, true
}

// Touch refreshes the session's last-activity stamp.
func (r *Registry) Touch(sess Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.byID[sess.ID()]; ok {
		e.lastActivity = r.now()
	}
}

// IdleSince returns sessions whose last activity is older than cutoff and
// that are not already being probed.
func (r *Registry) IdleSince(cutoff time.Time) []Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	var idle []Session
	for _, e := range r.byID {
		if e.probedAt.IsZero() && e.lastActivity.Before(cutoff) {
			idle = append(idle, e.sess)
		}
	}
	return idle
}

// BeginProbe marks sess as under liveness probe at the given instant. It
// returns false if the session is gone or a probe is already outstanding.
func (r *Registry) BeginProbe(sess Session, at time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.byID[sess.ID()]
	if !ok || !e.probedAt.IsZero() {
		return false
	}
	e.probedAt = at
	return true
}

// EndProbe clears an outstanding probe mark.
func (r *Registry) EndProbe(sess Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.byID[sess.ID()]; ok {
		e.probedAt = time.Time{}
	}
}

// ActiveSince reports whether the session has shown activity strictly after
// t. A session that is no longer registered reports false.
func (r *Registry) ActiveSince(sess Session, t time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.byID[sess.ID()]
	if !ok {
		return false
	}
	return e.lastActivity.After(t)
}

// Sessions returns a snapshot of all registered sessions.
func (r *Registry) Sessions() []Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Session, 0, len(r.byID))
	for _, e := range r.byID {
		out = append(out, e.sess)
	}
	return out
}
