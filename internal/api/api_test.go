package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"endless-runner/internal/api"
	"endless-runner/internal/config"
	"endless-runner/internal/protocol"
	"endless-runner/internal/relay"

	"github.com/gorilla/websocket"
)

// ============================================================================
// Mock Implementations
// ============================================================================

// stubRelay implements api.RelayInterface for testing
type stubRelay struct {
	snapshot relay.Snapshot
	stopped  bool
}

func (s *stubRelay) Snapshot() (relay.Snapshot, bool) {
	if s.stopped {
		return relay.Snapshot{}, false
	}
	return s.snapshot, true
}

func newStubRelay() *stubRelay {
	return &stubRelay{snapshot: relay.Snapshot{
		Players: []protocol.PlayerState{
			{ID: "p1", Color: 0xff0000},
			{ID: "p2", Color: 0x00ff00, IsGameOver: true},
		},
		RecentObstacles: 3,
		Relayed:         42,
	}}
}

func quietRouter(r api.RelayInterface) http.Handler {
	return api.NewRouter(api.RouterConfig{
		Relay: r,
		RateLimitConfig: &api.RateLimitConfig{
			RequestsPerSecond: 1000,
			Burst:             1000,
			CleanupInterval:   time.Hour,
		},
		DisableLogging: true,
	})
}

// ============================================================================
// Router Tests
// ============================================================================

// TestNewRouterHasNoSideEffects verifies that NewRouter opens no listener
// and never queries the relay.
func TestNewRouterHasNoSideEffects(t *testing.T) {
	stub := &stubRelay{stopped: true}

	router := quietRouter(stub)
	if router == nil {
		t.Fatal("Router should not be nil")
	}
}

// TestAPIGetState tests the relay state endpoint
func TestAPIGetState(t *testing.T) {
	ts := httptest.NewServer(quietRouter(newStubRelay()))
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/state")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	var result relay.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(result.Players) != 2 {
		t.Errorf("Expected 2 players, got %d", len(result.Players))
	}
	if result.Relayed != 42 {
		t.Errorf("Expected relayed 42, got %d", result.Relayed)
	}
}

// TestAPIGetStats tests the aggregated stats endpoint
func TestAPIGetStats(t *testing.T) {
	ts := httptest.NewServer(quietRouter(newStubRelay()))
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/stats")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	var result map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if result["playerCount"] != float64(2) {
		t.Errorf("Expected playerCount 2, got %v", result["playerCount"])
	}
	if result["playingCount"] != float64(1) {
		t.Errorf("Expected playingCount 1, got %v", result["playingCount"])
	}
	if _, ok := result["rateLimit"]; !ok {
		t.Error("Response should contain rateLimit")
	}
}

// TestAPIStoppedRelay verifies every relay-backed endpoint reports 503
// once the relay loop is gone.
func TestAPIStoppedRelay(t *testing.T) {
	ts := httptest.NewServer(quietRouter(&stubRelay{stopped: true}))
	defer ts.Close()

	for _, path := range []string{"/api/state", "/api/stats", "/api/health"} {
		t.Run(path, func(t *testing.T) {
			resp, err := http.Get(ts.URL + path)
			if err != nil {
				t.Fatalf("Request failed: %v", err)
			}
			resp.Body.Close()

			if resp.StatusCode != http.StatusServiceUnavailable {
				t.Errorf("Expected 503, got %d", resp.StatusCode)
			}
		})
	}
}

// TestAPIRateLimited verifies the IP limiter sits in front of every route
func TestAPIRateLimited(t *testing.T) {
	router := api.NewRouter(api.RouterConfig{
		Relay: newStubRelay(),
		RateLimitConfig: &api.RateLimitConfig{
			RequestsPerSecond: 0.001,
			Burst:             2,
			CleanupInterval:   time.Hour,
		},
		DisableLogging: true,
	})

	ts := httptest.NewServer(router)
	defer ts.Close()

	var last int
	for range 3 {
		resp, err := http.Get(ts.URL + "/api/health")
		if err != nil {
			t.Fatalf("Request failed: %v", err)
		}
		resp.Body.Close()
		last = resp.StatusCode
	}

	if last != http.StatusTooManyRequests {
		t.Errorf("Expected 429 after burst, got %d", last)
	}
}

// ============================================================================
// WebSocket Integration
// ============================================================================

type wsHarness struct {
	ts    *httptest.Server
	srv   *api.Server
	relay *relay.Relay
}

func newWSHarness(t *testing.T) *wsHarness {
	t.Helper()

	cfg := config.AppConfig{
		Server: config.DefaultServer(),
		Relay:  config.DefaultRelay(),
	}
	cfg.Relay.EventLogPath = ""

	n := 0
	r := relay.New(relay.Options{
		Config: cfg.Relay,
		NewID: func() string {
			n++
			return fmt.Sprintf("runner-%d", n)
		},
	})
	go r.Run()

	srv := api.NewServer(cfg, r, nil)
	ts := httptest.NewServer(srv.Router())

	t.Cleanup(func() {
		ts.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	})

	return &wsHarness{ts: ts, srv: srv, relay: r}
}

func (h *wsHarness) dial(t *testing.T) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(h.ts.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	resp.Body.Close()
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) protocol.ServerEvent {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	ev, err := protocol.DecodeServerEvent(msg)
	if err != nil {
		t.Fatalf("Decode failed for %s: %v", msg, err)
	}
	return ev
}

func writeEvent(t *testing.T, conn *websocket.Conn, event string, payload any) {
	t.Helper()

	frame, err := protocol.Encode(event, payload)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
}

// TestWebSocketRelaysToPeersOnly connects two runners and checks that
// updates reach the other runner but are never echoed to the sender.
func TestWebSocketRelaysToPeersOnly(t *testing.T) {
	h := newWSHarness(t)

	a := h.dial(t)
	welcomeA, ok := readEvent(t, a).(protocol.Init)
	if !ok {
		t.Fatal("First frame for A should be init")
	}

	b := h.dial(t)
	welcomeB, ok := readEvent(t, b).(protocol.Init)
	if !ok {
		t.Fatal("First frame for B should be init")
	}
	if _, ok := welcomeB.Players[welcomeA.Self]; !ok {
		t.Errorf("B's init should list A (%s)", welcomeA.Self)
	}

	joined, ok := readEvent(t, a).(protocol.PlayerJoined)
	if !ok || joined.Player.ID != welcomeB.Self {
		t.Fatalf("A should see B join, got %+v", joined)
	}

	writeEvent(t, b, protocol.EvPlayerUpdate, protocol.PlayerUpdate{
		Position:  protocol.Vec3{X: 1, Y: 0.5},
		IsJumping: true,
	})
	moved, ok := readEvent(t, a).(protocol.PlayerMoved)
	if !ok || moved.Player.ID != welcomeB.Self || !moved.Player.IsJumping {
		t.Fatalf("A should see B move, got %+v", moved)
	}

	// B's update is already processed, so an echo would arrive before this
	writeEvent(t, a, protocol.EvPlayerUpdate, protocol.PlayerUpdate{
		Position: protocol.Vec3{X: -1, Y: 0.5},
	})
	next, ok := readEvent(t, b).(protocol.PlayerMoved)
	if !ok || next.Player.ID != welcomeA.Self {
		t.Fatalf("B should only see A's move, got %+v", next)
	}
}

// TestWebSocketSkipsMalformedFrames verifies a bad frame is discarded
// without closing the connection.
func TestWebSocketSkipsMalformedFrames(t *testing.T) {
	h := newWSHarness(t)

	a := h.dial(t)
	readEvent(t, a)
	b := h.dial(t)
	welcomeB := readEvent(t, b).(protocol.Init)
	readEvent(t, a) // playerJoined

	if err := b.WriteMessage(websocket.TextMessage, []byte("{not json")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	writeEvent(t, b, "teleport", map[string]int{"x": 1})
	writeEvent(t, b, protocol.EvGameOver, nil)

	over, ok := readEvent(t, a).(protocol.PlayerGameOver)
	if !ok || over.ID != welcomeB.Self {
		t.Fatalf("Expected playerGameOver for B, got %+v", over)
	}
}

// TestWebSocketDisconnectAnnounced verifies peers learn about a closed socket
func TestWebSocketDisconnectAnnounced(t *testing.T) {
	h := newWSHarness(t)

	a := h.dial(t)
	readEvent(t, a)
	b := h.dial(t)
	welcomeB := readEvent(t, b).(protocol.Init)
	readEvent(t, a)

	b.Close()

	left, ok := readEvent(t, a).(protocol.PlayerLeft)
	if !ok || left.ID != welcomeB.Self {
		t.Fatalf("Expected playerLeft for B, got %+v", left)
	}

	deadline := time.Now().Add(2 * time.Second)
	for h.srv.Hub().ClientCount() != 1 {
		if time.Now().After(deadline) {
			t.Fatalf("Expected 1 connection, got %d", h.srv.Hub().ClientCount())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// TestWebSocketRejectsForeignOrigin verifies the origin allowlist
func TestWebSocketRejectsForeignOrigin(t *testing.T) {
	h := newWSHarness(t)

	url := "ws" + strings.TrimPrefix(h.ts.URL, "http") + "/ws"
	header := http.Header{"Origin": []string{"https://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	if err == nil {
		t.Fatal("Dial from a foreign origin should fail")
	}
	if resp != nil {
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusForbidden {
			t.Errorf("Expected 403, got %d", resp.StatusCode)
		}
	}
}
