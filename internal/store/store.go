// Package store holds the shared project state: projects with membership and
// file lists, the file-access permission table, and the notification log.
//
// Every operation validates in a fixed order — role gate first for the
// privileged mutations, then project existence, then user/file existence —
// and turns each failure into its user-visible reply. Replies go back to the
// caller; messages for other users are returned as Push values so the
// dispatcher can deliver them after the store lock is released.
package store

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/collabws/workspace-server/internal/directory"
	"github.com/collabws/workspace-server/internal/model"
)

// Push is a message for another user, delivered by the caller outside the
// store lock if that user is online.
type Push struct {
	User string
	Text string
}

// Store owns all project and permission state for the process lifetime.
type Store struct {
	mu       sync.Mutex
	projects map[string]*model.Project
	order    []string            // project creation order, for list/rendering
	perms    map[string][]string // filename -> users with read access
	log      *NotificationLog

	dir    directory.Directory
	now    func() time.Time
	logger *zap.Logger
}

// websiteFiles are pre-populated into any new project whose name mentions
// "website".
var websiteFiles = []string{"design.png", "mockup.pdf"}

// New constructs the store with the fixed permission-table seed.
func New(dir directory.Directory, logger *zap.Logger) *Store {
	return &Store{
		projects: make(map[string]*model.Project),
		perms: map[string][]string{
			"pic.png":    {"Ahmed", "Matthew"},
			"file.xlsx":  {"Ahmed"},
			"test.txt":   {"Ahmed", "Matthew", "John"},
			"design.png": {"Ahmed", "Matthew"},
			"mockup.pdf": {"Ahmed", "Matthew"},
		},
		log:    &NotificationLog{},
		dir:    dir,
		now:    time.Now,
		logger: logger,
	}
}

// Create makes a new project owned by caller. Admin only.
func (s *Store) Create(caller string, role model.Role, name string) string {
	if role != model.RoleAdmin {
		return "need admin role"
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.projects[name]; exists {
		return fmt.Sprintf("%s exists", name)
	}
	var files []string
	if strings.Contains(name, "website") {
		files = append(files, websiteFiles...)
	}
	s.projects[name] = &model.Project{
		Name:      name,
		Creator:   caller,
		Members:   []string{caller},
		Active:    true,
		CreatedAt: s.now(),
		Files:     files,
	}
	s.order = append(s.order, name)
	s.logger.Info("project created", zap.String("project", name), zap.String("creator", caller))
	return fmt.Sprintf("created %s", name)
}

// Join adds the caller to a project's members.
func (s *Store) Join(caller, name string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[name]
	if !ok {
		return fmt.Sprintf("%s not found", name)
	}
	if p.HasMember(caller) {
		return fmt.Sprintf("already in %s", name)
	}
	p.Members = append(p.Members, caller)
	return fmt.Sprintf("joined %s", name)
}

// Add puts target into the project's members, records a notification, and
// returns a live push for the target. Admin or editor only; the role gate
// runs before any existence check.
func (s *Store) Add(caller string, role model.Role, name, target string) (string, []Push) {
	if !role.CanManageMembers() {
		return "need admin or editor", nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[name]
	if !ok {
		return fmt.Sprintf("%s not found", name), nil
	}
	if !s.dir.Exists(target) {
		return fmt.Sprintf("user %s not found", target), nil
	}
	if p.HasMember(target) {
		return fmt.Sprintf("%s already in %s", target, name), nil
	}
	p.Members = append(p.Members, target)
	s.log.Append(model.Notification{
		User:      target,
		Message:   fmt.Sprintf("Added to %s project", name),
		Timestamp: s.now(),
	})
	push := Push{
		User: target,
		Text: fmt.Sprintf("[NOTIFICATION] Added to %s project by %s", name, caller),
	}
	return fmt.Sprintf("added %s to %s", target, name), []Push{push}
}

// Kick removes target from the project's members. Admin or editor only.
func (s *Store) Kick(caller string, role model.Role, name, target string) string {
	if !role.CanManageMembers() {
		return "need admin or editor"
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[name]
	if !ok || !p.HasMember(target) {
		return "project or user not found"
	}
	p.Members = removeMember(p.Members, target)
	return fmt.Sprintf("kicked %s from %s", target, name)
}

// Leave removes the caller from the project's members. Shares the kick gate:
// admin or editor only.
func (s *Store) Leave(caller string, role model.Role, name string) string {
	if !role.CanManageMembers() {
		return "need admin or editor"
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[name]
	if !ok || !p.HasMember(caller) {
		return "not in that project"
	}
	p.Members = removeMember(p.Members, caller)
	return fmt.Sprintf("left %s", name)
}

// List renders all projects with member count, creator and active flag.
func (s *Store) List() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.order) == 0 {
		return "no projects"
	}
	parts := make([]string, 0, len(s.order))
	for _, name := range s.order {
		p := s.projects[name]
		status := "inactive"
		if p.Active {
			status = "active"
		}
		parts = append(parts, fmt.Sprintf("%s(%d) by %s [%s]", name, len(p.Members), p.Creator, status))
	}
	return "projects: " + strings.Join(parts, ", ")
}

// Message relays text to every other project member. The member snapshot is
// taken under the lock; delivery happens in the caller afterwards.
func (s *Store) Message(caller, name, text string) (string, []Push) {
	s.mu.Lock()
	p, ok := s.projects[name]
	if !ok || !p.HasMember(caller) {
		s.mu.Unlock()
		return fmt.Sprintf("not in project %s", name), nil
	}
	members := make([]string, len(p.Members))
	copy(members, p.Members)
	s.mu.Unlock()

	var pushes []Push
	for _, m := range members {
		if m == caller {
			continue
		}
		pushes = append(pushes, Push{
			User: m,
			Text: fmt.Sprintf("[%s] %s: %s", name, caller, text),
		})
	}
	return fmt.Sprintf("sent to %s: %s", name, text), pushes
}

// Info renders creator, members and files of one project.
func (s *Store) Info(name string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[name]
	if !ok {
		return "project not found"
	}
	return fmt.Sprintf("Project: %s\nCreator: %s\nMembers: %s\nFiles: %s",
		p.Name, p.Creator, strings.Join(p.Members, ", "), strings.Join(p.Files, ", "))
}

// Files renders each project file with the caller's access verdict from the
// permission table.
func (s *Store) Files(caller, name string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[name]
	if !ok {
		return "project not found"
	}
	if len(p.Files) == 0 {
		return "no files"
	}
	lines := make([]string, 0, len(p.Files))
	for _, f := range p.Files {
		status := "no access"
		if s.canAccess(caller, f) {
			status = "can access"
		}
		lines = append(lines, fmt.Sprintf("%s - %s", f, status))
	}
	return strings.Join(lines, "\n")
}

// Upload attaches a new filename to the project, grants the uploader access
// to it, and records a notification. Members only.
func (s *Store) Upload(caller, name, filename string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[name]
	if !ok {
		return "project not found"
	}
	if !p.HasMember(caller) {
		return "not in project"
	}
	if p.HasFile(filename) {
		return "file already exists"
	}
	p.Files = append(p.Files, filename)
	if _, seeded := s.perms[filename]; !seeded {
		s.perms[filename] = []string{caller}
	}
	s.log.Append(model.Notification{
		User:      caller,
		Message:   fmt.Sprintf("New file uploaded to %s", name),
		Timestamp: s.now(),
	})
	s.logger.Info("file uploaded",
		zap.String("project", name),
		zap.String("file", filename),
		zap.String("user", caller),
	)
	return fmt.Sprintf("uploaded %s to %s", filename, name)
}

// Notifications renders the full log in append order.
func (s *Store) Notifications() string {
	entries := s.log.All()
	if len(entries) == 0 {
		return "no notifications"
	}
	lines := make([]string, 0, len(entries))
	for _, n := range entries {
		lines = append(lines, fmt.Sprintf("%s: %s at %s", n.User, n.Message, n.Timestamp.Format("15:04")))
	}
	return strings.Join(lines, "\n")
}

// CanAccess reports the permission-table verdict for one user and file.
func (s *Store) CanAccess(user, filename string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.canAccess(user, filename)
}

func (s *Store) canAccess(user, filename string) bool {
	for _, u := range s.perms[filename] {
		if u == user {
			return true
		}
	}
	return false
}

func removeMember(members []string, name string) []string {
	out := members[:0]
	for _, m := range members {
		if m != name {
			out = append(out, m)
		}
	}
	return out
}

// Help is the /project command summary.
const Help = `project commands:
/project create name - make project (admin only)
/project join name - join project
/project add name user - add user to project (admin/editor)
/project kick name user - kick user (admin/editor)
/project leave name - leave project (admin/editor)
/project list - show projects
/project info name - show project details
/project files name - show project files
/project upload name filename - add file to project
/project notifications - show recent notifications
/project message name text - send message to project`
