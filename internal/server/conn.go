package server

import (
	"net"
	"strings"
	"sync"

	"github.com/gofrs/uuid/v5"

	"github.com/collabws/workspace-server/internal/registry"
)

// readBufSize bounds one inbound frame. Message boundaries are whatever one
// read call returns; there is no length-prefix framing on this protocol.
const readBufSize = 4096

// session wraps one accepted TCP connection. A write mutex keeps concurrent
// pushes (replies, relays, probes) from interleaving on the socket.
type session struct {
	id       uuid.UUID
	conn     net.Conn
	username string // set by the auth gate before the session is bound

	writeMu   sync.Mutex
	closeOnce sync.Once
	readBuf   []byte
}

var _ registry.Session = (*session)(nil)

func newSession(conn net.Conn) (*session, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	return &session{id: id, conn: conn, readBuf: make([]byte, readBufSize)}, nil
}

func (s *session) ID() uuid.UUID    { return s.id }
func (s *session) Username() string { return s.username }

// ReadFrame blocks for the next inbound message and returns it trimmed.
// Only the handler goroutine reads.
func (s *session) ReadFrame() (string, error) {
	n, err := s.conn.Read(s.readBuf)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(s.readBuf[:n])), nil
}

func (s *session) Send(msg string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_, err := s.conn.Write([]byte(msg))
	return err
}

// Close is idempotent; closing unblocks a pending ReadFrame.
func (s *session) Close() error {
	var err error
	s.closeOnce.Do(func() { err = s.conn.Close() })
	return err
}

func (s *session) remoteAddr() string {
	if addr := s.conn.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return ""
}
