// Package directory provides the user directory the session engine consumes:
// lookup by name, credential verification, and the mutable online flag.
// Identities are provisioned externally (seed file); the core never creates
// or destroys them.
package directory

import "github.com/collabws/workspace-server/internal/model"

// Directory is the read/write view the server has of provisioned users.
//
// SetOnline must only be called by the connection registry, inside its own
// critical section, so that "online iff bound" stays atomic.
type Directory interface {
	// Lookup returns a copy of the user record.
	Lookup(name string) (model.User, bool)
	// Verify checks the password for name. Unknown names verify false.
	Verify(name, password string) bool
	// Role returns the user's role, defaulting to viewer for unknown names.
	Role(name string) model.Role
	// Exists reports whether name is provisioned.
	Exists(name string) bool
	// SetOnline flips the user's online flag.
	SetOnline(name string, online bool)
	// Online returns the names of all users currently flagged online, sorted.
	Online() []string
}
