// Package server glues the pieces together: TCP accept loop, login gate,
// per-connection handler loop, and the background liveness monitor.
package server

import (
	"context"
	"errors"
	"net"
	"runtime/debug"
	"time"

	"go.uber.org/zap"

	"github.com/collabws/workspace-server/internal/command"
	"github.com/collabws/workspace-server/internal/directory"
	"github.com/collabws/workspace-server/internal/registry"
	"github.com/collabws/workspace-server/internal/store"
)

// Config carries the externally configurable options.
type Config struct {
	Addr string

	SweepInterval time.Duration
	IdleAfter     time.Duration
	Grace         time.Duration
}

// Server owns the listener and all shared session state.
type Server struct {
	cfg Config

	dir        directory.Directory
	reg        *registry.Registry
	store      *store.Store
	dispatcher *command.Dispatcher
	gate       *authGate
	monitor    *Monitor

	ln     net.Listener
	ready  chan struct{}
	logger *zap.Logger
}

// New wires the registry, store, dispatcher and monitor over dir.
func New(cfg Config, dir directory.Directory, logger *zap.Logger) *Server {
	reg := registry.New(dir, logger)
	st := store.New(dir, logger)
	return &Server{
		cfg:        cfg,
		dir:        dir,
		reg:        reg,
		store:      st,
		dispatcher: command.NewDispatcher(dir, reg, st, logger),
		gate:       &authGate{dir: dir, reg: reg},
		monitor:    NewMonitor(reg, cfg.SweepInterval, cfg.IdleAfter, cfg.Grace, logger),
		ready:      make(chan struct{}),
		logger:     logger,
	}
}

// Ready is closed once the listener is bound; Addr is valid after that.
func (s *Server) Ready() <-chan struct{} { return s.ready }

// Addr returns the bound listen address.
func (s *Server) Addr() string {
	if s.ln == nil {
		return s.cfg.Addr
	}
	return s.ln.Addr().String()
}

// Run listens and serves until ctx is cancelled. On shutdown the listener
// closes first, then every live session, which unblocks all handler reads.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	s.ln = ln
	close(s.ready)
	s.logger.Info("workspace server running", zap.String("addr", ln.Addr().String()))

	go s.monitor.Run(ctx)
	go func() {
		<-ctx.Done()
		_ = ln.Close()
		for _, sess := range s.reg.Sessions() {
			_ = sess.Close()
		}
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		go s.handle(conn)
	}
}

// handle runs one connection: auth gate, registration, dispatch loop,
// deregistration. A panic ends only this session.
func (s *Server) handle(conn net.Conn) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("panic in connection handler",
				zap.Any("reason", r),
				zap.ByteString("stack", debug.Stack()),
			)
			_ = conn.Close()
		}
	}()

	sess, err := newSession(conn)
	if err != nil {
		s.logger.Error("session setup failed", zap.Error(err))
		_ = conn.Close()
		return
	}
	s.logger.Info("connection accepted", zap.String("remote", sess.remoteAddr()))

	username, err := s.gate.admit(sess)
	if err != nil {
		s.logger.Info("login rejected",
			zap.String("remote", sess.remoteAddr()),
			zap.Error(err),
		)
		_ = sess.Close()
		return
	}

	log := s.logger.With(
		zap.String("user", username),
		zap.String("conn", sess.ID().String()),
	)
	log.Info("logged in")

	defer func() {
		s.reg.Unbind(sess)
		_ = sess.Close()
		log.Info("disconnected")
	}()

	for {
		frame, err := sess.ReadFrame()
		if err != nil {
			// transport failure or client close; cleanup only
			log.Debug("read ended", zap.Error(err))
			return
		}
		if s.dispatcher.Dispatch(sess, username, frame) {
			log.Info("logged out")
			return
		}
	}
}
