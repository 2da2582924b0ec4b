// Package model defines domain entities shared by the directory, registry and store.
package model

import (
	"fmt"
	"time"
)

// Role is the closed set of access levels known to the workspace.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
	RoleViewer Role = "viewer"
)

// ParseRole maps a configuration string onto a Role.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RoleEditor, RoleViewer:
		return Role(s), nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// CanManageMembers reports whether the role may add or remove project members.
func (r Role) CanManageMembers() bool {
	return r == RoleAdmin || r == RoleEditor
}

// User is one identity in the directory. Credentials are stored hashed; the
// plaintext password exists only inside the login handshake.
type User struct {
	Name     string
	PwdHash  []byte
	SaltAuth []byte
	Role     Role
	Online   bool
}

// Project is a named collaboration group. Members and Files keep insertion
// order and never contain duplicates. Active is set at creation and never
// toggled (there is no delete/archive operation).
type Project struct {
	Name      string
	Creator   string
	Members   []string
	Active    bool
	CreatedAt time.Time
	Files     []string
}

// HasMember reports whether name is currently a member.
func (p *Project) HasMember(name string) bool {
	for _, m := range p.Members {
		if m == name {
			return true
		}
	}
	return false
}

// HasFile reports whether filename is already attached to the project.
func (p *Project) HasFile(filename string) bool {
	for _, f := range p.Files {
		if f == filename {
			return true
		}
	}
	return false
}

// Notification is an immutable record of a membership or upload event.
type Notification struct {
	User      string
	Message   string
	Timestamp time.Time
}
