package realtime

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	sio "github.com/agam1092005/multiGalaxy/internal/adapters/wire/socketio"
	"github.com/agam1092005/multiGalaxy/internal/domain"
)

var (
	ErrNotConnected = errors.New("realtime: not connected")
	ErrConnClosed   = errors.New("realtime: connection closed")
)

// Conn owns the single logical websocket link to the collaboration server:
// connect/disconnect lifecycle, reconnection with exponential backoff and
// jitter, heartbeat liveness and network awareness. Transport errors after
// the initial Connect never surface as returned errors; they flow through
// status callbacks only.
type Conn struct {
	opts Options
	log  zerolog.Logger

	mu       sync.Mutex
	ws       *websocket.Conn
	state    domain.ConnState
	attempts int
	lastErr  string
	network  domain.NetworkStatus
	closed   bool
	// gen invalidates read loops and heartbeats of replaced connections
	gen            int
	reconnectTimer *time.Timer
	heartbeatStop  chan struct{}
	lastPingAt     time.Time

	writeMu sync.Mutex

	statusSubs []func(domain.ConnectionStatus)
	netSubs    []func(domain.NetworkStatus)
	onPacket   func(sio.Packet)
	// onUp runs (async) after every successful dial, manual or automatic
	onUp func()

	done chan struct{}
}

func NewConn(opts Options) *Conn {
	opts = opts.withDefaults()
	c := &Conn{
		opts:    opts,
		log:     opts.Logger.With().Str("component", "realtime.conn").Logger(),
		state:   domain.StateDisconnected,
		network: opts.Network.Status(),
		done:    make(chan struct{}),
	}
	go c.networkLoop()
	return c
}

// OnPacket registers the single inbound packet handler. Must be set before
// Connect.
func (c *Conn) OnPacket(fn func(sio.Packet)) {
	c.mu.Lock()
	c.onPacket = fn
	c.mu.Unlock()
}

// OnConnected registers a hook that runs after every successful dial.
func (c *Conn) OnConnected(fn func()) {
	c.mu.Lock()
	c.onUp = fn
	c.mu.Unlock()
}

// OnStatusChange registers a callback fired with a full status snapshot on
// every status-relevant transition, not only on change of value.
func (c *Conn) OnStatusChange(fn func(domain.ConnectionStatus)) {
	c.mu.Lock()
	c.statusSubs = append(c.statusSubs, fn)
	c.mu.Unlock()
}

func (c *Conn) OnNetworkChange(fn func(domain.NetworkStatus)) {
	c.mu.Lock()
	c.netSubs = append(c.netSubs, fn)
	c.mu.Unlock()
}

func (c *Conn) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == domain.StateConnected
}

func (c *Conn) Status() domain.ConnectionStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.statusLocked()
}

func (c *Conn) statusLocked() domain.ConnectionStatus {
	return domain.ConnectionStatus{
		State:             c.state,
		Connected:         c.state == domain.StateConnected,
		ReconnectAttempts: c.attempts,
		Network:           c.network,
		LastError:         c.lastErr,
	}
}

// Connect dials the server. It resets the reconnect attempt counter, so a
// manual call also revives a terminally failed connection.
func (c *Conn) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrConnClosed
	}
	if c.state == domain.StateConnected {
		c.mu.Unlock()
		return nil
	}
	c.attempts = 0
	c.state = domain.StateConnecting
	c.mu.Unlock()
	c.notifyStatus()

	ws, err := c.dial(ctx)
	if err != nil {
		c.mu.Lock()
		c.state = domain.StateDisconnected
		c.lastErr = err.Error()
		c.mu.Unlock()
		c.notifyStatus()
		return err
	}
	c.adopt(ws)
	return nil
}

// Close tears down the connection and all timers. The Conn is not reusable
// afterwards.
func (c *Conn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.gen++
	if c.reconnectTimer != nil {
		c.reconnectTimer.Stop()
		c.reconnectTimer = nil
	}
	if c.heartbeatStop != nil {
		close(c.heartbeatStop)
		c.heartbeatStop = nil
	}
	ws := c.ws
	c.ws = nil
	c.state = domain.StateDisconnected
	c.mu.Unlock()
	close(c.done)
	if ws != nil {
		_ = ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		_ = ws.Close()
	}
	c.notifyStatus()
	return nil
}

// SendPacket encodes and writes one frame. gorilla/websocket permits a
// single concurrent writer, hence the write mutex.
func (c *Conn) SendPacket(pkt sio.Packet) error {
	data, err := sio.Encode(pkt)
	if err != nil {
		return err
	}
	c.mu.Lock()
	ws := c.ws
	connected := c.state == domain.StateConnected
	c.mu.Unlock()
	if !connected || ws == nil {
		return ErrNotConnected
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = ws.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return ws.WriteMessage(websocket.TextMessage, data)
}

func (c *Conn) dial(ctx context.Context) (*websocket.Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: c.opts.HandshakeTimeout}
	hdr := http.Header{}
	if c.opts.Token != "" {
		hdr.Set("Authorization", "Bearer "+c.opts.Token)
	}
	ws, resp, err := dialer.DialContext(ctx, c.opts.URL, hdr)
	if err != nil {
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
		return nil, err
	}
	return ws, nil
}

// adopt installs a freshly dialed connection and starts its pumps.
func (c *Conn) adopt(ws *websocket.Conn) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		_ = ws.Close()
		return
	}
	if c.heartbeatStop != nil {
		close(c.heartbeatStop)
	}
	c.ws = ws
	c.state = domain.StateConnected
	c.attempts = 0
	c.lastErr = ""
	c.gen++
	gen := c.gen
	stop := make(chan struct{})
	c.heartbeatStop = stop
	onUp := c.onUp
	c.mu.Unlock()

	c.log.Info().Str("url", c.opts.URL).Msg("connected")
	c.notifyStatus()
	go c.readLoop(gen, ws)
	go c.heartbeatLoop(stop)
	if onUp != nil {
		go onUp()
	}
}

func (c *Conn) readLoop(gen int, ws *websocket.Conn) {
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			c.handleReadError(gen, err)
			return
		}
		pkt, perr := sio.Decode(data)
		if perr != nil {
			c.log.Warn().Err(perr).Msg("skipping malformed frame")
			continue
		}
		switch pkt.Type {
		case sio.PacketPong:
			c.handlePong(pkt)
		case sio.PacketPing:
			// server-side probes are not part of the protocol; ignore
		default:
			c.mu.Lock()
			h := c.onPacket
			c.mu.Unlock()
			if h != nil {
				h(pkt)
			}
		}
	}
}

func (c *Conn) handlePong(pkt sio.Packet) {
	c.mu.Lock()
	sent := c.lastPingAt
	c.mu.Unlock()
	if !sent.IsZero() {
		c.log.Debug().Dur("latency", time.Since(sent)).Msg("heartbeat pong")
	}
}

func (c *Conn) heartbeatLoop(stop chan struct{}) {
	ticker := time.NewTicker(c.opts.HeartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			c.mu.Lock()
			c.lastPingAt = time.Now()
			c.mu.Unlock()
			pkt, err := sio.Ping(domain.Heartbeat{Timestamp: time.Now().UTC().Format(time.RFC3339Nano)})
			if err == nil {
				if err := c.SendPacket(pkt); err != nil {
					c.log.Debug().Err(err).Msg("heartbeat send failed")
				}
			}
		}
	}
}

func (c *Conn) handleReadError(gen int, err error) {
	c.mu.Lock()
	if c.closed || gen != c.gen {
		c.mu.Unlock()
		return
	}
	if c.heartbeatStop != nil {
		close(c.heartbeatStop)
		c.heartbeatStop = nil
	}
	if c.ws != nil {
		_ = c.ws.Close()
		c.ws = nil
	}
	c.lastErr = err.Error()
	c.state = domain.StateReconnecting
	c.mu.Unlock()
	c.log.Warn().Err(err).Msg("connection lost")
	c.notifyStatus()

	// a server-initiated close gets a fixed grace period before the
	// backoff schedule starts
	var grace time.Duration
	if websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseServiceRestart,
		websocket.CloseTryAgainLater) {
		grace = c.opts.ServerCloseGrace
	}
	c.scheduleReconnect(grace)
}

func (c *Conn) scheduleReconnect(extra time.Duration) {
	c.mu.Lock()
	if c.closed || c.state == domain.StateConnected {
		c.mu.Unlock()
		return
	}
	if c.network == domain.NetworkOffline {
		// suppressed while offline; the online transition reschedules
		c.mu.Unlock()
		return
	}
	next := c.attempts + 1
	if next > c.opts.MaxReconnectAttempts {
		c.state = domain.StateFailed
		c.mu.Unlock()
		c.log.Error().Int("attempts", c.opts.MaxReconnectAttempts).Msg("reconnect attempts exhausted")
		c.notifyStatus()
		return
	}
	delay := backoffDelay(next, c.opts.BaseDelay, c.opts.MaxDelay, c.opts.JitterMax) + extra
	if c.reconnectTimer != nil {
		c.reconnectTimer.Stop()
	}
	c.reconnectTimer = time.AfterFunc(delay, func() { c.tryReconnect(next) })
	c.mu.Unlock()
	c.log.Info().Int("attempt", next).Dur("delay", delay).Msg("reconnect scheduled")
}

func (c *Conn) tryReconnect(attempt int) {
	c.mu.Lock()
	if c.closed || c.state == domain.StateConnected {
		c.mu.Unlock()
		return
	}
	if c.network == domain.NetworkOffline {
		c.mu.Unlock()
		return
	}
	c.attempts = attempt
	c.state = domain.StateReconnecting
	c.mu.Unlock()
	c.notifyStatus()

	ctx, cancel := context.WithTimeout(context.Background(), c.opts.HandshakeTimeout)
	ws, err := c.dial(ctx)
	cancel()
	if err != nil {
		c.mu.Lock()
		c.lastErr = err.Error()
		c.mu.Unlock()
		c.log.Warn().Err(err).Int("attempt", attempt).Msg("reconnect failed")
		c.notifyStatus()
		c.scheduleReconnect(0)
		return
	}
	c.adopt(ws)
}

func (c *Conn) networkLoop() {
	events := c.opts.Network.Events()
	for {
		select {
		case <-c.done:
			return
		case st, ok := <-events:
			if !ok {
				return
			}
			c.mu.Lock()
			c.network = st
			var timer *time.Timer
			if st == domain.NetworkOffline {
				timer = c.reconnectTimer
				c.reconnectTimer = nil
			}
			c.mu.Unlock()
			if timer != nil {
				timer.Stop()
			}
			c.notifyNetwork(st)
			c.notifyStatus()
			if st == domain.NetworkOnline {
				c.reviveOnline()
			}
		}
	}
}

// reviveOnline kicks an immediate reconnect attempt after the network comes
// back, including from the terminal failed state.
func (c *Conn) reviveOnline() {
	c.mu.Lock()
	if c.closed || c.state == domain.StateConnected || c.state == domain.StateConnecting {
		c.mu.Unlock()
		return
	}
	if c.state == domain.StateDisconnected && c.lastErr == "" {
		// never connected or cleanly disconnected; nothing to resume
		c.mu.Unlock()
		return
	}
	c.attempts = 0
	c.state = domain.StateReconnecting
	c.mu.Unlock()
	c.notifyStatus()
	go c.tryReconnect(1)
}

func (c *Conn) notifyStatus() {
	c.mu.Lock()
	st := c.statusLocked()
	subs := append(([]func(domain.ConnectionStatus))(nil), c.statusSubs...)
	c.mu.Unlock()
	for _, fn := range subs {
		fn(st)
	}
}

func (c *Conn) notifyNetwork(st domain.NetworkStatus) {
	c.mu.Lock()
	subs := append(([]func(domain.NetworkStatus))(nil), c.netSubs...)
	c.mu.Unlock()
	for _, fn := range subs {
		fn(st)
	}
}

// backoffDelay computes min(base*2^(attempt-1) + jitter, max) with jitter
// uniform in [0, jitterMax).
func backoffDelay(attempt int, base, max, jitterMax time.Duration) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := base
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= max {
			d = max
			break
		}
	}
	if jitterMax > 0 {
		d += time.Duration(rand.Int63n(int64(jitterMax)))
	}
	if d > max {
		d = max
	}
	return d
}
