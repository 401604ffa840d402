package realtime

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	sio "github.com/agam1092005/multiGalaxy/internal/adapters/wire/socketio"
)

// wsTestServer is a minimal collaboration endpoint: it acks every event and
// records what it received, so connection and delivery behavior can be
// asserted without the full hub.
type wsTestServer struct {
	t   *testing.T
	srv *httptest.Server

	mu    sync.Mutex
	conns []*websocket.Conn

	events chan sio.Packet

	// rejectUpgrades makes every new dial fail the handshake, simulating an
	// unreachable server without tearing down the listener.
	rejectUpgrades atomic.Bool

	// ackBody lets a test force error acknowledgments per event name.
	ackBody func(event string) any
}

func newWSTestServer(t *testing.T) *wsTestServer {
	t.Helper()
	s := &wsTestServer{t: t, events: make(chan sio.Packet, 64)}
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	s.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.rejectUpgrades.Load() {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		s.mu.Lock()
		s.conns = append(s.conns, ws)
		s.mu.Unlock()
		s.serve(ws)
	}))
	t.Cleanup(func() {
		s.rejectUpgrades.Store(true)
		s.dropConns()
		s.srv.Close()
	})
	return s
}

func (s *wsTestServer) serve(ws *websocket.Conn) {
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			return
		}
		pkt, err := sio.Decode(data)
		if err != nil {
			continue
		}
		switch pkt.Type {
		case sio.PacketPing:
			reply, _ := sio.Pong(nil)
			s.write(ws, reply)
		case sio.PacketEvent:
			select {
			case s.events <- pkt:
			default:
			}
			if pkt.AckID >= 0 {
				body := any(map[string]bool{"ok": true})
				if s.ackBody != nil {
					body = s.ackBody(pkt.Event)
				}
				reply, _ := sio.Ack(pkt.AckID, body)
				s.write(ws, reply)
			}
		}
	}
}

func (s *wsTestServer) write(ws *websocket.Conn, pkt sio.Packet) {
	data, err := sio.Encode(pkt)
	if err != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = ws.WriteMessage(websocket.TextMessage, data)
}

// push sends an event to every connected client.
func (s *wsTestServer) push(event string, payload any) {
	pkt, err := sio.Event(event, -1, payload)
	if err != nil {
		s.t.Fatalf("push encode: %v", err)
	}
	data, _ := sio.Encode(pkt)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ws := range s.conns {
		_ = ws.WriteMessage(websocket.TextMessage, data)
	}
}

// dropConns force-closes every live connection, simulating network loss.
func (s *wsTestServer) dropConns() {
	s.mu.Lock()
	conns := s.conns
	s.conns = nil
	s.mu.Unlock()
	for _, ws := range conns {
		_ = ws.Close()
	}
}

func (s *wsTestServer) url() string {
	return "ws" + strings.TrimPrefix(s.srv.URL, "http")
}

// nextEvent waits for the next event the server received.
func (s *wsTestServer) nextEvent(timeout time.Duration) (sio.Packet, bool) {
	select {
	case pkt := <-s.events:
		return pkt, true
	case <-time.After(timeout):
		return sio.Packet{}, false
	}
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("condition not met within %v: %s", timeout, msg)
}

// fastOptions keeps reconnect timing tight for tests. Jitter is disabled so
// schedules stay deterministic.
func fastOptions(url string) Options {
	return Options{
		URL:                  url,
		BaseDelay:            10 * time.Millisecond,
		MaxDelay:             80 * time.Millisecond,
		JitterMax:            -1,
		MaxReconnectAttempts: 5,
		ServerCloseGrace:     10 * time.Millisecond,
		AckTimeout:           2 * time.Second,
		DrainInterval:        50 * time.Millisecond,
	}
}
