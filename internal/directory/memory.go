package directory

import (
	"fmt"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/collabws/workspace-server/internal/crypto"
	"github.com/collabws/workspace-server/internal/model"
)

// Seed is one provisioned identity as it appears in the users file.
type Seed struct {
	Name     string `yaml:"name"`
	Password string `yaml:"password"`
	Role     string `yaml:"role"`
}

type seedFile struct {
	Users []Seed `yaml:"users"`
}

// MemDirectory is the in-memory Directory implementation. Passwords are
// argon2id-hashed at construction and never kept in plaintext.
type MemDirectory struct {
	mu    sync.RWMutex
	users map[string]*model.User
}

var _ Directory = (*MemDirectory)(nil)

// NewMem builds a directory from seeds. Duplicate names and unknown roles
// are rejected.
func NewMem(seeds []Seed) (*MemDirectory, error) {
	d := &MemDirectory{users: make(map[string]*model.User, len(seeds))}
	for _, s := range seeds {
		if s.Name == "" {
			return nil, fmt.Errorf("user with empty name")
		}
		if _, dup := d.users[s.Name]; dup {
			return nil, fmt.Errorf("duplicate user %q", s.Name)
		}
		role, err := model.ParseRole(s.Role)
		if err != nil {
			return nil, fmt.Errorf("user %q: %w", s.Name, err)
		}
		hash, salt, err := crypto.HashPassword(s.Password)
		if err != nil {
			return nil, fmt.Errorf("user %q: %w", s.Name, err)
		}
		d.users[s.Name] = &model.User{
			Name:     s.Name,
			PwdHash:  hash,
			SaltAuth: salt,
			Role:     role,
		}
	}
	return d, nil
}

// Load reads a YAML users file and builds the directory from it.
func Load(path string) (*MemDirectory, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f seedFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(f.Users) == 0 {
		return nil, fmt.Errorf("%s: no users", path)
	}
	return NewMem(f.Users)
}

// DefaultSeeds returns the built-in user set used when no users file is given.
func DefaultSeeds() []Seed {
	return []Seed{
		{Name: "Ahmed", Password: "pw1", Role: "admin"},
		{Name: "Matthew", Password: "pw2", Role: "viewer"},
		{Name: "John", Password: "pw3", Role: "editor"},
	}
}

func (d *MemDirectory) Lookup(name string) (model.User, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	u, ok := d.users[name]
	if !ok {
		return model.User{}, false
	}
	return *u, true
}

func (d *MemDirectory) Verify(name, password string) bool {
	d.mu.RLock()
	u, ok := d.users[name]
	d.mu.RUnlock()
	if !ok {
		return false
	}
	return crypto.VerifyPassword(password, u.SaltAuth, u.PwdHash)
}

func (d *MemDirectory) Role(name string) model.Role {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if u, ok := d.users[name]; ok {
		return u.Role
	}
	return model.RoleViewer
}

func (d *MemDirectory) Exists(name string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.users[name]
	return ok
}

func (d *MemDirectory) SetOnline(name string, online bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if u, ok := d.users[name]; ok {
		u.Online = online
	}
}

func (d *MemDirectory) Online() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var names []string
	for _, u := range d.users {
		if u.Online {
			names = append(names, u.Name)
		}
	}
	sort.Strings(names)
	return names
}
