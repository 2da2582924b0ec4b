package server

import (
	"fmt"
	"strings"

	"github.com/collabws/workspace-server/internal/directory"
	"github.com/collabws/workspace-server/internal/errs"
	"github.com/collabws/workspace-server/internal/registry"
)

const (
	loginPrefix = "login:"
	replyOK     = "OK\n"
	replyFail   = "FAIL\n"
)

// authGate validates the one-shot login handshake. One malformed or failed
// attempt terminates the connection; there is no retry loop.
type authGate struct {
	dir directory.Directory
	reg *registry.Registry
}

// admit consumes exactly one frame of the form login:<user>:<pass>. The
// password may itself contain colons, so the frame splits into at most three
// parts. On success the session is bound (which flips the directory flag to
// online — the single directory mutation of a login) and the client receives
// OK plus its role line. Every failure sends FAIL; the caller closes.
func (g *authGate) admit(sess *session) (username string, err error) {
	frame, err := sess.ReadFrame()
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(frame, loginPrefix) {
		_ = sess.Send(replyFail)
		return "", errs.ErrUnauthorized
	}
	parts := strings.SplitN(frame, ":", 3)
	if len(parts) < 3 {
		_ = sess.Send(replyFail)
		return "", errs.ErrUnauthorized
	}
	username, password := parts[1], parts[2]

	if !g.dir.Verify(username, password) {
		_ = sess.Send(replyFail)
		return "", errs.ErrUnauthorized
	}

	sess.username = username
	if err := g.reg.Bind(username, sess); err != nil {
		// username already bound to a live connection: refuse this login
		_ = sess.Send(replyFail)
		return "", err
	}

	if err := sess.Send(replyOK); err != nil {
		g.reg.Unbind(sess)
		return "", err
	}
	if err := sess.Send(fmt.Sprintf("role: %s\n", g.dir.Role(username))); err != nil {
		g.reg.Unbind(sess)
		return "", err
	}
	return username, nil
}
