package server

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/collabws/workspace-server/internal/directory"
	"github.com/collabws/workspace-server/internal/registry"
)

func newGate(t *testing.T) (*authGate, *registry.Registry, *directory.MemDirectory) {
	t.Helper()
	dir, err := directory.NewMem(directory.DefaultSeeds())
	require.NoError(t, err)
	reg := registry.New(dir, zap.NewNop())
	return &authGate{dir: dir, reg: reg}, reg, dir
}

// runAdmit drives the gate against one end of a pipe while the test plays
// the client on the other end.
func runAdmit(t *testing.T, gate *authGate, frame string) (replies []string, username string, admitErr error) {
	t.Helper()
	clientEnd, serverEnd := net.Pipe()
	defer clientEnd.Close()
	defer serverEnd.Close()

	sess, err := newSession(serverEnd)
	require.NoError(t, err)

	type result struct {
		username string
		err      error
	}
	done := make(chan result, 1)
	go func() {
		u, err := gate.admit(sess)
		done <- result{u, err}
	}()

	require.NoError(t, clientEnd.SetDeadline(time.Now().Add(2*time.Second)))
	_, err = clientEnd.Write([]byte(frame))
	require.NoError(t, err)

	buf := make([]byte, 256)
	for {
		select {
		case r := <-done:
			return replies, r.username, r.err
		default:
		}
		_ = clientEnd.SetReadDeadline(time.Now().Add(50 * time.Millisecond))
		n, err := clientEnd.Read(buf)
		if n > 0 {
			replies = append(replies, string(buf[:n]))
		}
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			r := <-done
			return replies, r.username, r.err
		}
	}
}

func TestAdmit_Success(t *testing.T) {
	t.Parallel()
	gate, reg, dir := newGate(t)

	replies, username, err := runAdmit(t, gate, "login:Ahmed:pw1")
	require.NoError(t, err)
	require.Equal(t, "Ahmed", username)
	require.Equal(t, []string{"OK\n", "role: admin\n"}, replies)

	_, bound := reg.Lookup("Ahmed")
	require.True(t, bound)
	u, _ := dir.Lookup("Ahmed")
	require.True(t, u.Online)
}

func TestAdmit_PasswordMayContainColons(t *testing.T) {
	t.Parallel()

	dir, err := directory.NewMem([]directory.Seed{
		{Name: "Zoe", Password: "a:b:c", Role: "editor"},
	})
	require.NoError(t, err)
	gate := &authGate{dir: dir, reg: registry.New(dir, zap.NewNop())}

	replies, username, err := runAdmit(t, gate, "login:Zoe:a:b:c")
	require.NoError(t, err)
	require.Equal(t, "Zoe", username)
	require.Equal(t, []string{"OK\n", "role: editor\n"}, replies)
}

func TestAdmit_Failures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		frame string
	}{
		{"missing prefix", "hello there"},
		{"too few parts", "login:Ahmed"},
		{"unknown user", "login:ghost:pw1"},
		{"wrong password", "login:Ahmed:nope"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			gate, reg, dir := newGate(t)

			replies, _, err := runAdmit(t, gate, tt.frame)
			require.Error(t, err)
			require.Equal(t, []string{"FAIL\n"}, replies)

			if _, bound := reg.Lookup("Ahmed"); bound {
				t.Fatalf("failed login left a binding")
			}
			if u, _ := dir.Lookup("Ahmed"); u.Online {
				t.Fatalf("failed login flipped online flag")
			}
		})
	}
}

func TestAdmit_RefusesDuplicateLogin(t *testing.T) {
	t.Parallel()
	gate, reg, dir := newGate(t)

	first := newFakeSession(t, "Ahmed")
	require.NoError(t, reg.Bind("Ahmed", first))

	replies, _, err := runAdmit(t, gate, "login:Ahmed:pw1")
	require.Error(t, err)
	require.Equal(t, []string{"FAIL\n"}, replies)

	// the first session stays bound and online
	got, bound := reg.Lookup("Ahmed")
	require.True(t, bound)
	require.Equal(t, first.ID(), got.ID())
	u, _ := dir.Lookup("Ahmed")
	require.True(t, u.Online)
}
