package core

import (
	"bufio"
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/openmortal/mortalnet/internal/config"
)

// testConn is the remote end of a piped client connection.
type testConn struct {
	net.Conn
	r *bufio.Reader
}

func newTestHub(t *testing.T, mutate func(*config.Config)) *Hub {
	t.Helper()

	cfg := config.Default()
	cfg.MaxClients = 8
	cfg.NickReserveSecs = 0
	cfg.WriteTimeout = time.Second
	cfg.IdleTimeout = 5 * time.Second
	if mutate != nil {
		mutate(&cfg)
	}

	logger := zerolog.Nop()
	hub := NewHub(&cfg, &logger, nil)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	return hub
}

// dial joins a piped client to the hub and returns the remote end.
func dial(t *testing.T, h *Hub, ip string) *testConn {
	t.Helper()

	server, remote := net.Pipe()
	c := NewClient(server, ip)
	if !h.TryJoin(c) {
		t.Fatal("hub event queue full")
	}
	return &testConn{Conn: remote, r: bufio.NewReader(remote)}
}

func (tc *testConn) sendLine(t *testing.T, line string) {
	t.Helper()
	tc.SetWriteDeadline(time.Now().Add(2 * time.Second))
	if _, err := tc.Write([]byte(line + "\n")); err != nil {
		t.Fatalf("send %q: %v", line, err)
	}
}

// mustLine reads lines until one with the wanted command byte arrives and
// returns its content. Lines of other kinds are skipped, mirroring how a
// real client filters the stream.
func (tc *testConn) mustLine(t *testing.T, cmd byte) string {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for {
		tc.SetReadDeadline(deadline)
		line, err := tc.r.ReadString('\n')
		if err != nil {
			t.Fatalf("waiting for %q: %v (last partial %q)", string(cmd), err, line)
		}
		line = strings.TrimRight(line, "\n")
		if line != "" && line[0] == cmd {
			return line[1:]
		}
	}
}

// expectClosed asserts the connection reaches EOF soon.
func (tc *testConn) expectClosed(t *testing.T) {
	t.Helper()

	tc.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		if _, err := tc.r.ReadString('\n'); err != nil {
			return
		}
	}
}

// register sets a nick and returns the one the hub assigned.
func (tc *testConn) register(t *testing.T, nick string) string {
	t.Helper()
	tc.sendLine(t, "N"+nick)
	return tc.mustLine(t, 'Y')
}
