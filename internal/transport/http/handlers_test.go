package http

import (
	"encoding/json"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/openmortal/mortalnet/internal/config"
	"github.com/openmortal/mortalnet/internal/core"
)

// fakeHub serves canned data so handlers can be tested without a hub loop.
type fakeHub struct {
	snap core.Snapshot
	raw  []byte
}

func (f *fakeHub) GetSnapshot() core.Snapshot { return f.snap }
func (f *fakeHub) GetRawStats() []byte        { return f.raw }
func (f *fakeHub) Subscribe() chan string     { return make(chan string, 1) }
func (f *fakeHub) Unsubscribe(ch chan string) {}

func newTestServer() (*fakeHub, stdhttp.Handler) {
	hub := &fakeHub{
		snap: core.Snapshot{
			UptimeSeconds: 42,
			PlayerCount:   1,
			Players: []core.PlayerInfo{
				{Nick: "scorpion", IP: "10.0.0.1", Status: "chat", JoinedAt: 100, IdleSeconds: 5},
			},
			Metrics: core.Metrics{ConnectionsTotal: 3, MessagesTotal: 9},
		},
		raw: []byte(`{"server_start": 1}`),
	}
	cfg := config.Default()
	logger := zerolog.Nop()
	srv := NewServer(hub, &cfg, &logger)
	return hub, srv.Handler
}

func TestHealthz(t *testing.T) {
	_, handler := newTestServer()

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(stdhttp.MethodGet, "/healthz", nil))

	if w.Code != stdhttp.StatusOK || w.Body.String() != "OK\n" {
		t.Fatalf("healthz: %d %q", w.Code, w.Body.String())
	}
}

func TestStatusJSON(t *testing.T) {
	_, handler := newTestServer()

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(stdhttp.MethodGet, "/api/status", nil))

	if w.Code != stdhttp.StatusOK {
		t.Fatalf("status code %d", w.Code)
	}
	var snap core.Snapshot
	if err := json.Unmarshal(w.Body.Bytes(), &snap); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if snap.UptimeSeconds != 42 || len(snap.Players) != 1 || snap.Players[0].Nick != "scorpion" {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}

func TestRawStats(t *testing.T) {
	_, handler := newTestServer()

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(stdhttp.MethodGet, "/api/stats", nil))

	if w.Code != stdhttp.StatusOK {
		t.Fatalf("status code %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "server_start") {
		t.Fatalf("raw stats body %q", w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Fatalf("content type %q", ct)
	}
}

func TestMetricsText(t *testing.T) {
	_, handler := newTestServer()

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(stdhttp.MethodGet, "/metrics", nil))

	body := w.Body.String()
	for _, want := range []string{
		"mortalnet_connections_total 3",
		"mortalnet_messages_total 9",
		"mortalnet_active_players 1",
		"mortalnet_uptime_seconds 42",
		"# TYPE mortalnet_connections_total counter",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics body missing %q:\n%s", want, body)
		}
	}
}

func TestDashboardHTML(t *testing.T) {
	_, handler := newTestServer()

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(stdhttp.MethodGet, "/", nil))

	body := w.Body.String()
	if w.Code != stdhttp.StatusOK {
		t.Fatalf("status code %d", w.Code)
	}
	for _, want := range []string{"MortalNet Status", "scorpion", "10.0.0.1", "status-chat"} {
		if !strings.Contains(body, want) {
			t.Fatalf("dashboard missing %q:\n%s", want, body)
		}
	}
}

func TestSecurityHeaders(t *testing.T) {
	_, handler := newTestServer()

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(stdhttp.MethodGet, "/healthz", nil))

	if got := w.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Fatalf("nosniff header %q", got)
	}
	if got := w.Header().Get("Cache-Control"); got != "no-store" {
		t.Fatalf("cache header %q", got)
	}
}

func TestWriteMethodsRejected(t *testing.T) {
	_, handler := newTestServer()

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(stdhttp.MethodPost, "/api/status", nil))

	if w.Code != stdhttp.StatusNotFound && w.Code != stdhttp.StatusMethodNotAllowed {
		t.Fatalf("POST accepted with code %d", w.Code)
	}
}
