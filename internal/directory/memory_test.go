package directory

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewMem_VerifyAndRoles(t *testing.T) {
	t.Parallel()

	d, err := NewMem(DefaultSeeds())
	if err != nil {
		t.Fatalf("NewMem: %v", err)
	}

	if !d.Verify("Ahmed", "pw1") {
		t.Fatalf("Verify: correct password rejected")
	}
	if d.Verify("Ahmed", "pw2") {
		t.Fatalf("Verify: wrong password accepted")
	}
	if d.Verify("nobody", "pw1") {
		t.Fatalf("Verify: unknown user accepted")
	}

	if got := d.Role("Ahmed"); got != "admin" {
		t.Fatalf("Role(Ahmed)=%s, want admin", got)
	}
	if got := d.Role("unknown"); got != "viewer" {
		t.Fatalf("Role(unknown)=%s, want viewer default", got)
	}

	u, ok := d.Lookup("Matthew")
	if !ok || u.Role != "viewer" {
		t.Fatalf("Lookup(Matthew)=%+v ok=%v", u, ok)
	}
	if len(u.PwdHash) == 0 || len(u.SaltAuth) == 0 {
		t.Fatalf("credentials not hashed at load")
	}
}

func TestNewMem_RejectsBadSeeds(t *testing.T) {
	t.Parallel()

	if _, err := NewMem([]Seed{{Name: "a", Password: "p", Role: "root"}}); err == nil {
		t.Fatalf("want error for unknown role")
	}
	if _, err := NewMem([]Seed{
		{Name: "a", Password: "p", Role: "admin"},
		{Name: "a", Password: "q", Role: "viewer"},
	}); err == nil {
		t.Fatalf("want error for duplicate name")
	}
	if _, err := NewMem([]Seed{{Password: "p", Role: "admin"}}); err == nil {
		t.Fatalf("want error for empty name")
	}
}

func TestOnlineFlag(t *testing.T) {
	t.Parallel()

	d, err := NewMem(DefaultSeeds())
	if err != nil {
		t.Fatalf("NewMem: %v", err)
	}

	if got := d.Online(); len(got) != 0 {
		t.Fatalf("Online()=%v, want empty", got)
	}

	d.SetOnline("Matthew", true)
	d.SetOnline("Ahmed", true)
	got := d.Online()
	if len(got) != 2 || got[0] != "Ahmed" || got[1] != "Matthew" {
		t.Fatalf("Online()=%v, want sorted [Ahmed Matthew]", got)
	}

	d.SetOnline("Ahmed", false)
	got = d.Online()
	if len(got) != 1 || got[0] != "Matthew" {
		t.Fatalf("Online()=%v after offline, want [Matthew]", got)
	}

	// unknown names are ignored
	d.SetOnline("ghost", true)
	if got := d.Online(); len(got) != 1 {
		t.Fatalf("Online()=%v, unknown name leaked in", got)
	}
}

func TestLoad_YAML(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "users.yaml")
	data := `users:
  - name: Ahmed
    password: pw1
    role: admin
  - name: Matthew
    password: pw2
    role: viewer
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write seed file: %v", err)
	}

	d, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !d.Exists("Ahmed") || !d.Exists("Matthew") {
		t.Fatalf("seeded users missing")
	}
	if !d.Verify("Matthew", "pw2") {
		t.Fatalf("Verify after Load failed")
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("want error for missing file")
	}
}
