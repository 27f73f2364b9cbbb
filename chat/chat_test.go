package chat

import (
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startServer(t *testing.T) (*Server, string) {
	t.Helper()

	srv, err := NewServer("chatserver", 128, 512, 8, discardLogger())
	require.NoError(t, err)
	require.NoError(t, srv.Listen("127.0.0.1:0"))

	go srv.Serve()
	t.Cleanup(func() { srv.Close() })

	return srv, srv.ln.Addr().String()
}

func connectClient(t *testing.T, username, addr string) *Client {
	t.Helper()

	c := NewClient(username, 512, 8)
	require.NoError(t, c.Connect(addr))
	t.Cleanup(func() { c.Disconnect() })

	return c
}

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition never became true")
}

// TestHandshakeAndBroadcast checks S4: a client's handshake completes, the
// server records it, and a second client's join is visible to the first
// along with ordinary relayed chat messages.
func TestHandshakeAndBroadcast(t *testing.T) {
	srv, addr := startServer(t)

	alice := connectClient(t, "alice", addr)

	welcome, err := alice.Recv()
	require.NoError(t, err)
	require.Equal(t, `chatserver: Welcome to the chat "chatserver"`, welcome)
	require.Equal(t, StateSessionOpen, alice.State())

	eventually(t, func() bool {
		srv.mu.RLock()
		defer srv.mu.RUnlock()
		_, ok := srv.clients["alice"]
		return ok
	})

	state, ok := srv.ClientState("alice")
	require.True(t, ok)
	require.Equal(t, StateSessionOpen, state)

	bob := connectClient(t, "bob", addr)

	joinNotice, err := alice.Recv()
	require.NoError(t, err)
	require.True(t, strings.Contains(joinNotice, "bob") && strings.Contains(joinNotice, "joined"))

	bobWelcome, err := bob.Recv()
	require.NoError(t, err)
	require.Equal(t, `chatserver: Welcome to the chat "chatserver"`, bobWelcome)

	require.NoError(t, alice.Send("hi bob"))
	got, err := bob.Recv()
	require.NoError(t, err)
	require.Equal(t, "alice: hi bob", got)

	require.NoError(t, alice.Disconnect())
	require.Equal(t, StateClosed, alice.State())

	eventually(t, func() bool {
		_, ok := srv.ClientState("alice")
		return !ok
	})
}

// TestDuplicateUsernameRejected checks S5: a second client offering a name
// already in use never reaches an open session.
func TestDuplicateUsernameRejected(t *testing.T) {
	_, addr := startServer(t)

	_ = connectClient(t, "carol", addr)

	dup := NewClient("carol", 512, 8)
	err := dup.Connect(addr)
	require.Error(t, err)
}

// TestUsernameMatchingChatnameRejected checks that a client cannot take the
// server's own chatname.
func TestUsernameMatchingChatnameRejected(t *testing.T) {
	_, addr := startServer(t)

	dup := NewClient("chatserver", 512, 8)
	err := dup.Connect(addr)
	require.Error(t, err)
}

// TestInvalidUsernameRejected checks that a malformed username never reaches
// an open session.
func TestInvalidUsernameRejected(t *testing.T) {
	_, addr := startServer(t)

	bad := NewClient("not a valid name!", 512, 8)
	err := bad.Connect(addr)
	require.Error(t, err)
}

// TestCorruptedFrameDropsClient checks S6/S8 at the protocol level: a client
// that writes a frame which fails to decrypt/verify is dropped by the
// server rather than corrupting another client's stream.
func TestCorruptedFrameDropsClient(t *testing.T) {
	srv, addr := startServer(t)

	dave := connectClient(t, "dave", addr)
	_, err := dave.Recv()
	require.NoError(t, err)

	eventually(t, func() bool {
		srv.mu.RLock()
		defer srv.mu.RUnlock()
		_, ok := srv.clients["dave"]
		return ok
	})

	// Not a multiple of the AES block size: guaranteed to fail decryption
	// rather than merely fail the hash check.
	require.NoError(t, dave.conn.Send([]byte{0x01, 0x02, 0x03}))

	eventually(t, func() bool {
		srv.mu.RLock()
		defer srv.mu.RUnlock()
		_, ok := srv.clients["dave"]
		return !ok
	})
}
