package command

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/collabws/workspace-server/internal/directory"
	"github.com/collabws/workspace-server/internal/registry"
	"github.com/collabws/workspace-server/internal/store"
)

// Dispatcher routes parsed commands. It holds no per-session state; the
// caller's identity arrives with each frame. State is mutated through the
// store and registry first, and any sends to other sessions happen after
// those locks are released.
type Dispatcher struct {
	dir    directory.Directory
	reg    *registry.Registry
	store  *store.Store
	logger *zap.Logger
}

// NewDispatcher wires the dispatcher's collaborators.
func NewDispatcher(dir directory.Directory, reg *registry.Registry, st *store.Store, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{dir: dir, reg: reg, store: st, logger: logger}
}

// Dispatch handles one frame from sess and reports whether the session asked
// to log out. Every frame, heartbeats included, refreshes the sender's
// activity stamp. Reply failures are the sender's own transport problem and
// surface on the handler's next read, so they are only logged here.
func (d *Dispatcher) Dispatch(sess registry.Session, username, msg string) (logout bool) {
	d.reg.Touch(sess)

	cmd := Parse(msg)
	switch cmd.Kind {
	case KindHeartbeat:
		d.reply(sess, "ok\n")
	case KindWho:
		d.reply(sess, d.who())
	case KindPrivate:
		d.private(sess, username, cmd)
	case KindProject:
		d.project(sess, username, cmd)
	case KindLogout:
		return true
	default:
		d.reply(sess, "try: who, @user msg, /project help, logout\n")
	}
	return false
}

func (d *Dispatcher) who() string {
	online := d.dir.Online()
	if len(online) == 0 {
		return "nobody online"
	}
	return "online: " + strings.Join(online, ", ")
}

func (d *Dispatcher) private(sess registry.Session, sender string, cmd Command) {
	if cmd.Text == "" {
		d.reply(sess, "usage: @username message")
		return
	}
	target, ok := d.reg.Lookup(cmd.Target)
	if !ok {
		d.reply(sess, fmt.Sprintf("%s not online", cmd.Target))
		return
	}
	if err := target.Send(fmt.Sprintf("[%s]: %s", sender, cmd.Text)); err != nil {
		d.logger.Debug("private relay failed",
			zap.String("from", sender),
			zap.String("to", cmd.Target),
			zap.Error(err),
		)
	}
	d.reply(sess, fmt.Sprintf("-> %s: %s", cmd.Target, cmd.Text))
}

func (d *Dispatcher) project(sess registry.Session, username string, cmd Command) {
	role := d.dir.Role(username)

	var reply string
	var pushes []store.Push
	switch cmd.Op {
	case OpHelp:
		reply = store.Help
	case OpCreate:
		reply = d.store.Create(username, role, cmd.Name)
	case OpJoin:
		reply = d.store.Join(username, cmd.Name)
	case OpAdd:
		reply, pushes = d.store.Add(username, role, cmd.Name, cmd.Arg)
	case OpKick:
		reply = d.store.Kick(username, role, cmd.Name, cmd.Arg)
	case OpLeave:
		reply = d.store.Leave(username, role, cmd.Name)
	case OpList:
		reply = d.store.List()
	case OpMessage:
		reply, pushes = d.store.Message(username, cmd.Name, cmd.Text)
	case OpInfo:
		reply = d.store.Info(cmd.Name)
	case OpFiles:
		reply = d.store.Files(username, cmd.Name)
	case OpUpload:
		reply = d.store.Upload(username, cmd.Name, cmd.Arg)
	case OpNotifications:
		reply = d.store.Notifications()
	default:
		reply = "unknown command"
	}

	d.deliver(pushes)
	d.reply(sess, reply)
}

// deliver sends store pushes to their targets' live sessions, best effort.
func (d *Dispatcher) deliver(pushes []store.Push) {
	for _, p := range pushes {
		target, ok := d.reg.Lookup(p.User)
		if !ok {
			continue
		}
		if err := target.Send(p.Text); err != nil {
			d.logger.Debug("push failed", zap.String("to", p.User), zap.Error(err))
		}
	}
}

func (d *Dispatcher) reply(sess registry.Session, msg string) {
	if err := sess.Send(msg); err != nil {
		d.logger.Debug("reply failed", zap.String("user", sess.Username()), zap.Error(err))
	}
}
