package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	sio "github.com/agam1092005/multiGalaxy/internal/adapters/wire/socketio"
	"github.com/agam1092005/multiGalaxy/internal/domain"
)

var ErrAckTimeout = errors.New("realtime: acknowledgment timeout")

// Client is the collaboration endpoint used by the canvas layer: emit with
// acknowledgment while connected, transparent queuing while disconnected,
// session membership and typed inbound event subscriptions.
//
// Clients are explicitly constructed and disposed; nothing here is a
// process-wide singleton.
type Client struct {
	opts  Options
	log   zerolog.Logger
	conn  *Conn
	queue *Queue

	ackMu   sync.Mutex
	nextAck int64
	pending map[int64]chan error

	hmu      sync.RWMutex
	handlers map[string][]func(json.RawMessage)

	membership *Membership

	dispatch chan sio.Packet
	done     chan struct{}
	closeOne sync.Once
}

func NewClient(opts Options) *Client {
	opts = opts.withDefaults()
	c := &Client{
		opts:       opts,
		log:        opts.Logger.With().Str("component", "realtime.client").Logger(),
		queue:      NewQueue(opts.QueueMaxAge, opts.MaxRetries),
		pending:    make(map[int64]chan error),
		handlers:   make(map[string][]func(json.RawMessage)),
		membership: NewMembership(),
		dispatch:   make(chan sio.Packet, 256),
		done:       make(chan struct{}),
	}
	c.conn = NewConn(opts)
	c.conn.OnPacket(c.onPacket)
	c.conn.OnConnected(c.onConnected)

	// membership bookkeeping rides on the same typed subscriptions the
	// application uses
	c.OnSessionState(c.membership.Reconcile)
	c.OnSessionJoin(c.membership.ApplyJoin)
	c.OnSessionLeave(c.membership.ApplyLeave)

	go c.dispatchLoop()
	go c.drainLoop()
	return c
}

func (c *Client) Connect(ctx context.Context) error { return c.conn.Connect(ctx) }

func (c *Client) Close() error {
	c.closeOne.Do(func() { close(c.done) })
	return c.conn.Close()
}

func (c *Client) IsConnected() bool { return c.conn.IsConnected() }

func (c *Client) Status() domain.ConnectionStatus { return c.conn.Status() }

func (c *Client) OnConnectionStatusChange(fn func(domain.ConnectionStatus)) {
	c.conn.OnStatusChange(fn)
}

func (c *Client) OnNetworkStatusChange(fn func(domain.NetworkStatus)) {
	c.conn.OnNetworkChange(fn)
}

// QueueLen reports the number of buffered outbound messages.
func (c *Client) QueueLen() int { return c.queue.Len() }

// Emit sends an event with acknowledgment when connected; when the link is
// down the message is queued and Emit returns immediately so callers are
// never stalled by connectivity loss.
func (c *Client) Emit(event string, payload any) error {
	if c.conn.IsConnected() {
		return c.emitNow(event, payload)
	}
	c.queue.Enqueue(event, payload)
	c.log.Debug().Str("event", event).Msg("offline, message queued")
	return nil
}

func (c *Client) emitNow(event string, payload any) error {
	c.ackMu.Lock()
	c.nextAck++
	ackID := c.nextAck
	ch := make(chan error, 1)
	c.pending[ackID] = ch
	c.ackMu.Unlock()
	defer func() {
		c.ackMu.Lock()
		delete(c.pending, ackID)
		c.ackMu.Unlock()
	}()

	pkt, err := sio.Event(event, ackID, payload)
	if err != nil {
		return err
	}
	if err := c.conn.SendPacket(pkt); err != nil {
		return err
	}
	timer := time.NewTimer(c.opts.AckTimeout)
	defer timer.Stop()
	select {
	case err := <-ch:
		return err
	case <-timer.C:
		return ErrAckTimeout
	case <-c.done:
		return ErrConnClosed
	}
}

// JoinSession joins a shared editing session, awaiting the server
// acknowledgment. Joining while another session is active leaves it first.
func (c *Client) JoinSession(sessionID, userID string) error {
	if cur, _, ok := c.membership.Active(); ok && cur != sessionID {
		_ = c.LeaveSession()
	}
	if err := c.Emit(domain.EventJoinSession, domain.JoinSession{SessionID: sessionID, UserID: userID}); err != nil {
		return err
	}
	c.membership.SetActive(sessionID, userID)
	return nil
}

// LeaveSession notifies the server and clears local session state. No-op
// without an active session; local state is cleared even when the emit
// fails, since the server expires membership on disconnect anyway.
func (c *Client) LeaveSession() error {
	sessionID, _, ok := c.membership.Active()
	if !ok {
		return nil
	}
	err := c.Emit(domain.EventLeaveSession, domain.LeaveSession{SessionID: sessionID})
	c.membership.Clear()
	return err
}

// Session returns the active session id, if any.
func (c *Client) Session() (string, bool) {
	sid, _, ok := c.membership.Active()
	return sid, ok
}

// Participants returns the current local membership view.
func (c *Client) Participants() []string { return c.membership.Participants() }

// SendChat delivers a chat message to the active session.
func (c *Client) SendChat(msg domain.ChatMessage) error {
	return c.Emit(domain.EventChatMessage, msg)
}

// SendAudioChunk streams one audio fragment for server-side processing.
func (c *Client) SendAudioChunk(chunk domain.AudioChunk) error {
	return c.Emit(domain.EventAudioChunk, chunk)
}

// onConnected runs after every successful dial: re-attach to the session
// room, then flush whatever accumulated while offline.
func (c *Client) onConnected() {
	if sessionID, userID, ok := c.membership.Active(); ok {
		if err := c.emitNow(domain.EventJoinSession, domain.JoinSession{SessionID: sessionID, UserID: userID}); err != nil {
			c.log.Warn().Err(err).Str("session", sessionID).Msg("session re-join failed")
		}
	}
	c.drainNow()
}

func (c *Client) drainLoop() {
	ticker := time.NewTicker(c.opts.DrainInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.drainNow()
		}
	}
}

func (c *Client) drainNow() {
	if !c.conn.IsConnected() || c.queue.Len() == 0 {
		return
	}
	st := c.queue.Sweep(func(event string, payload any) error {
		if !c.conn.IsConnected() {
			return ErrNotConnected
		}
		return c.emitNow(event, payload)
	})
	if st.Delivered+st.Requeued+st.DroppedAge+st.DroppedRetry > 0 {
		c.log.Info().
			Int("delivered", st.Delivered).
			Int("requeued", st.Requeued).
			Int("expired", st.DroppedAge).
			Int("retry_capped", st.DroppedRetry).
			Msg("queue drained")
	}
}

func (c *Client) onPacket(pkt sio.Packet) {
	switch pkt.Type {
	case sio.PacketAck:
		c.resolveAck(pkt)
	case sio.PacketEvent:
		select {
		case c.dispatch <- pkt:
		default:
			c.log.Warn().Str("event", pkt.Event).Msg("dispatch buffer full, dropping event")
		}
	}
}

func (c *Client) resolveAck(pkt sio.Packet) {
	c.ackMu.Lock()
	ch, ok := c.pending[pkt.AckID]
	c.ackMu.Unlock()
	if !ok {
		return
	}
	var result error
	if len(pkt.Args) > 0 {
		var body struct {
			Error string `json:"error"`
		}
		if err := json.Unmarshal(pkt.Args[0], &body); err == nil && body.Error != "" {
			result = fmt.Errorf("realtime: server rejected message: %s", body.Error)
		}
	}
	select {
	case ch <- result:
	default:
	}
}

func (c *Client) dispatchLoop() {
	for {
		select {
		case <-c.done:
			return
		case pkt := <-c.dispatch:
			c.hmu.RLock()
			subs := append(([]func(json.RawMessage))(nil), c.handlers[pkt.Event]...)
			c.hmu.RUnlock()
			var payload json.RawMessage
			if len(pkt.Args) > 0 {
				payload = pkt.Args[0]
			}
			for _, fn := range subs {
				fn(payload)
			}
		}
	}
}

func (c *Client) on(event string, fn func(json.RawMessage)) {
	c.hmu.Lock()
	c.handlers[event] = append(c.handlers[event], fn)
	c.hmu.Unlock()
}

// Typed inbound subscriptions. Payloads that fail to decode are logged and
// skipped; they never halt processing of subsequent events.

func (c *Client) OnCanvasUpdate(fn func(domain.CanvasUpdate)) {
	subscribe(c, domain.EventCanvasUpdate, fn)
}

func (c *Client) OnSessionState(fn func(domain.SessionState)) {
	subscribe(c, domain.EventSessionState, fn)
}

func (c *Client) OnSessionJoin(fn func(domain.SessionEvent)) {
	subscribe(c, domain.EventSessionJoin, fn)
}

func (c *Client) OnSessionLeave(fn func(domain.SessionEvent)) {
	subscribe(c, domain.EventSessionLeave, fn)
}

func (c *Client) OnChatMessage(fn func(domain.ChatMessage)) {
	subscribe(c, domain.EventChatMessage, fn)
}

func (c *Client) OnServerError(fn func(domain.ErrorMessage)) {
	subscribe(c, domain.EventError, fn)
}

func subscribe[T any](c *Client, event string, fn func(T)) {
	c.on(event, func(raw json.RawMessage) {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			c.log.Warn().Err(err).Str("event", event).Msg("malformed payload, skipping")
			return
		}
		fn(v)
	})
}
