package server

import (
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/collabws/workspace-server/internal/directory"
)

func startServer(t *testing.T) *Server {
	t.Helper()
	dir, err := directory.NewMem(directory.DefaultSeeds())
	require.NoError(t, err)

	srv := New(Config{
		Addr:          "127.0.0.1:0",
		SweepInterval: time.Hour,
		IdleAfter:     time.Hour,
		Grace:         time.Hour,
	}, dir, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		if err := srv.Run(ctx); err != nil {
			t.Errorf("Run: %v", err)
		}
	}()
	select {
	case <-srv.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("server never became ready")
	}
	t.Cleanup(cancel)
	return srv
}

// readUntil accumulates reads until the buffer contains want. TCP may
// coalesce or split the server's writes arbitrarily.
func readUntil(t *testing.T, conn net.Conn, want string) string {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var got strings.Builder
	buf := make([]byte, 1024)
	for {
		if strings.Contains(got.String(), want) {
			return got.String()
		}
		n, err := conn.Read(buf)
		if n > 0 {
			got.Write(buf[:n])
			continue
		}
		require.NoError(t, err, "waiting for %q, got %q", want, got.String())
	}
}

func dialAndLogin(t *testing.T, srv *Server, frame, want string) net.Conn {
	t.Helper()
	conn, err := net.Dial("tcp", srv.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	_, err = conn.Write([]byte(frame))
	require.NoError(t, err)
	readUntil(t, conn, want)
	return conn
}

func TestServer_LoginWhoLogout(t *testing.T) {
	srv := startServer(t)

	conn := dialAndLogin(t, srv, "login:Ahmed:pw1", "role: admin\n")

	_, err := conn.Write([]byte("who"))
	require.NoError(t, err)
	readUntil(t, conn, "online: Ahmed")

	_, err = conn.Write([]byte("logout"))
	require.NoError(t, err)

	// the handler closes the socket after logout
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	buf := make([]byte, 64)
	for {
		if _, err := conn.Read(buf); err != nil {
			break
		}
	}

	// username released: a fresh login for Ahmed succeeds
	require.Eventually(t, func() bool {
		c, err := net.Dial("tcp", srv.Addr())
		if err != nil {
			return false
		}
		defer c.Close()
		if _, err := c.Write([]byte("login:Ahmed:pw1")); err != nil {
			return false
		}
		_ = c.SetReadDeadline(time.Now().Add(time.Second))
		b := make([]byte, 64)
		n, err := c.Read(b)
		return err == nil && strings.HasPrefix(string(b[:n]), "OK")
	}, 2*time.Second, 50*time.Millisecond)
}

func TestServer_BadLoginCloses(t *testing.T) {
	srv := startServer(t)

	conn, err := net.Dial("tcp", srv.Addr())
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("login:Ahmed:wrong"))
	require.NoError(t, err)
	readUntil(t, conn, "FAIL\n")

	// server closes its end after the rejection
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	buf := make([]byte, 64)
	for {
		if _, err := conn.Read(buf); err != nil {
			return
		}
	}
}

func TestServer_PrivateMessageBetweenClients(t *testing.T) {
	srv := startServer(t)

	ahmed := dialAndLogin(t, srv, "login:Ahmed:pw1", "role: admin\n")
	matthew := dialAndLogin(t, srv, "login:Matthew:pw2", "role: viewer\n")

	_, err := ahmed.Write([]byte("@Matthew hey"))
	require.NoError(t, err)

	readUntil(t, matthew, "[Ahmed]: hey")
	readUntil(t, ahmed, "-> Matthew: hey")
}

func TestServer_SecondLoginRefused(t *testing.T) {
	srv := startServer(t)

	dialAndLogin(t, srv, "login:Ahmed:pw1", "role: admin\n")

	conn, err := net.Dial("tcp", srv.Addr())
	require.NoError(t, err)
	defer conn.Close()
	_, err = conn.Write([]byte("login:Ahmed:pw1"))
	require.NoError(t, err)
	readUntil(t, conn, "FAIL\n")
}
