package server

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/collabws/workspace-server/internal/registry"
)

// probeText is pushed to a connection that has gone quiet.
const probeText = "still there? say 'hi' in 30 seconds"

// Monitor periodically sweeps the registry for idle connections. Each flagged
// connection gets its own probe goroutine: send the probe, wait out the grace
// window, then evict unless the connection showed any activity after the
// probe was sent. Grace periods run concurrently so one slow client never
// delays probing others.
type Monitor struct {
	reg *registry.Registry

	interval  time.Duration // sweep tick
	idleAfter time.Duration // quiet time before a probe is sent
	grace     time.Duration // time allowed to answer the probe

	now    func() time.Time
	logger *zap.Logger
}

// NewMonitor constructs a liveness monitor over the registry.
func NewMonitor(reg *registry.Registry, interval, idleAfter, grace time.Duration, logger *zap.Logger) *Monitor {
	return &Monitor{
		reg:       reg,
		interval:  interval,
		idleAfter: idleAfter,
		grace:     grace,
		now:       time.Now,
		logger:    logger,
	}
}

// Run blocks until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.sweep(ctx)
		}
	}
}

func (m *Monitor) sweep(ctx context.Context) {
	cutoff := m.now().Add(-m.idleAfter)
	for _, sess := range m.reg.IdleSince(cutoff) {
		probedAt := m.now()
		if !m.reg.BeginProbe(sess, probedAt) {
			continue
		}
		go m.probe(ctx, sess, probedAt)
	}
}

// probe runs the two-phase probe-then-confirm for one session. The grace
// window is measured from probe-send time, so sweep latency never shrinks or
// stretches it. Any inbound message within the window counts as an answer,
// not only heartbeats.
func (m *Monitor) probe(ctx context.Context, sess registry.Session, probedAt time.Time) {
	if err := sess.Send(probeText); err != nil {
		m.evict(sess, "probe send failed")
		return
	}

	timer := time.NewTimer(m.grace)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		m.reg.EndProbe(sess)
		return
	case <-timer.C:
	}

	if m.reg.ActiveSince(sess, probedAt) {
		m.reg.EndProbe(sess)
		return
	}
	m.evict(sess, "unresponsive")
}

// evict is a lifecycle transition, not a fault: unregister, close, and the
// directory flag flips offline with the unbind.
func (m *Monitor) evict(sess registry.Session, reason string) {
	m.logger.Info("disconnecting idle client",
		zap.String("user", sess.Username()),
		zap.String("reason", reason),
	)
	m.reg.Unbind(sess)
	_ = sess.Close()
}
