package wsapi

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	sio "github.com/agam1092005/multiGalaxy/internal/adapters/wire/socketio"
	"github.com/agam1092005/multiGalaxy/internal/domain"
	"github.com/agam1092005/multiGalaxy/internal/infrastructure/config"
	obs "github.com/agam1092005/multiGalaxy/internal/infrastructure/observability"
	"github.com/agam1092005/multiGalaxy/internal/usecase"
	"github.com/agam1092005/multiGalaxy/pkg/shared/redact"
)

// Hub owns all live websocket connections and the session rooms they join.
// Fan-out of canvas updates skips the sender; chat goes to the whole room.
type Hub struct {
	cfg     config.Config
	logger  *zerolog.Logger
	metrics *obs.Metrics
	svc     *usecase.SessionService

	upgrader websocket.Upgrader

	mu    sync.RWMutex
	rooms map[string]map[*client]struct{}

	done     chan struct{}
	stopOnce sync.Once
}

// client is one websocket connection. gorilla/websocket allows a single
// writer, so every write goes through writeMu.
type client struct {
	conn    *websocket.Conn
	writeMu sync.Mutex

	mu        sync.Mutex
	userID    string
	sessionID string
}

func NewHub(cfg config.Config, logger *zerolog.Logger, metrics *obs.Metrics, svc *usecase.SessionService) *Hub {
	h := &Hub{
		cfg:      cfg,
		logger:   logger,
		metrics:  metrics,
		svc:      svc,
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		rooms:    make(map[string]map[*client]struct{}),
		done:     make(chan struct{}),
	}
	go h.snapshotLoop()
	return h
}

// Stop ends the periodic snapshot pushes.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("websocket upgrade failed")
		return
	}
	c := &client{conn: conn}
	h.metrics.ConnectedClients.Inc()
	h.logger.Info().Str("client", conn.RemoteAddr().String()).Msg("client connected")
	h.readPump(c)
}

func (h *Hub) readPump(c *client) {
	defer func() {
		h.leaveRoom(c, true)
		_ = c.conn.Close()
		h.metrics.ConnectedClients.Dec()
		h.logger.Info().Str("client", c.conn.RemoteAddr().String()).Msg("client disconnected")
	}()
	for {
		mt, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		if mt != websocket.TextMessage {
			continue
		}
		pkt, err := sio.Decode(data)
		if err != nil {
			h.metrics.DroppedMessagesTotal.WithLabelValues("malformed").Inc()
			h.logger.Warn().Err(err).Msg("dropping malformed frame")
			continue
		}
		switch pkt.Type {
		case sio.PacketPing:
			h.handlePing(c, pkt)
		case sio.PacketEvent:
			h.dispatch(c, pkt)
		}
	}
}

func (h *Hub) handlePing(c *client, pkt sio.Packet) {
	var hb domain.Heartbeat
	if len(pkt.Args) > 0 {
		_ = json.Unmarshal(pkt.Args[0], &hb)
	}
	if hb.Timestamp == "" {
		hb.Timestamp = nowISO()
	}
	pong, err := sio.Pong(hb)
	if err != nil {
		return
	}
	h.send(c, pong)
}

func (h *Hub) dispatch(c *client, pkt sio.Packet) {
	h.metrics.MessagesTotal.WithLabelValues(pkt.Event).Inc()
	if h.logger.GetLevel() <= zerolog.DebugLevel && len(pkt.Args) > 0 {
		h.logger.Debug().Str("event", pkt.Event).Str("args", redact.RedactJSON(string(pkt.Args[0]))).Msg("event received")
	}
	switch pkt.Event {
	case domain.EventJoinSession:
		h.handleJoin(c, pkt)
	case domain.EventLeaveSession:
		h.handleLeave(c, pkt)
	case domain.EventCanvasUpdate:
		h.handleCanvasUpdate(c, pkt)
	case domain.EventChatMessage:
		h.handleChat(c, pkt)
	case domain.EventAudioChunk:
		h.handleAudioChunk(c, pkt)
	default:
		h.metrics.DroppedMessagesTotal.WithLabelValues("unknown_event").Inc()
		h.ackErr(c, pkt.AckID, "unknown event "+pkt.Event)
	}
}

func (h *Hub) handleJoin(c *client, pkt sio.Packet) {
	var req domain.JoinSession
	if err := pkt.Arg(0, &req); err != nil || req.SessionID == "" || req.UserID == "" {
		h.ackErr(c, pkt.AckID, "missing session_id or user_id")
		return
	}
	ctx := context.Background()
	// joining a new session implicitly leaves the previous one
	h.leaveRoom(c, false)
	if err := h.svc.Join(ctx, req.SessionID, req.UserID); err != nil {
		h.ackErr(c, pkt.AckID, "failed to join session")
		return
	}
	c.mu.Lock()
	c.sessionID = req.SessionID
	c.userID = req.UserID
	c.mu.Unlock()

	h.mu.Lock()
	room, ok := h.rooms[req.SessionID]
	if !ok {
		room = make(map[*client]struct{})
		h.rooms[req.SessionID] = room
		h.metrics.ActiveSessions.Inc()
	}
	room[c] = struct{}{}
	h.mu.Unlock()

	h.ackOK(c, pkt.AckID)
	h.broadcast(req.SessionID, domain.EventSessionJoin, domain.SessionEvent{
		SessionID: req.SessionID, UserID: req.UserID, Timestamp: nowISO(),
	}, c)
	// authoritative state goes to the joiner right away
	h.pushState(c, req.SessionID)
	h.logger.Info().Str("session", req.SessionID).Str("user", req.UserID).Msg("user joined session")
}

func (h *Hub) handleLeave(c *client, pkt sio.Packet) {
	h.leaveRoom(c, false)
	h.ackOK(c, pkt.AckID)
}

// leaveRoom detaches the client from its current room, updates the store
// and notifies remaining participants. Safe to call when not in a room.
func (h *Hub) leaveRoom(c *client, disconnecting bool) {
	c.mu.Lock()
	sessionID, userID := c.sessionID, c.userID
	c.sessionID = ""
	c.mu.Unlock()
	if sessionID == "" {
		return
	}

	h.mu.Lock()
	if room, ok := h.rooms[sessionID]; ok {
		delete(room, c)
		if len(room) == 0 {
			delete(h.rooms, sessionID)
			h.metrics.ActiveSessions.Dec()
		}
	}
	h.mu.Unlock()

	ctx := context.Background()
	remaining, err := h.svc.Leave(ctx, sessionID, userID)
	if err == nil && remaining == 0 {
		_ = h.svc.SetClosed(ctx, sessionID, time.Now().UTC(), nil)
	}
	h.broadcast(sessionID, domain.EventSessionLeave, domain.SessionEvent{
		SessionID: sessionID, UserID: userID, Timestamp: nowISO(),
	}, nil)
	h.logger.Info().Str("session", sessionID).Str("user", userID).Bool("disconnect", disconnecting).Msg("user left session")
}

func (h *Hub) handleCanvasUpdate(c *client, pkt sio.Packet) {
	c.mu.Lock()
	sessionID, userID := c.sessionID, c.userID
	c.mu.Unlock()
	if sessionID == "" {
		h.ackErr(c, pkt.AckID, "not in a session")
		return
	}
	var u domain.CanvasUpdate
	if err := pkt.Arg(0, &u); err != nil {
		h.metrics.DroppedMessagesTotal.WithLabelValues("bad_update").Inc()
		h.ackErr(c, pkt.AckID, "invalid canvas update")
		return
	}
	// stamp origin and time server-side
	u.UserID = userID
	if u.Timestamp == "" {
		u.Timestamp = nowISO()
	}
	if err := h.svc.AddUpdate(context.Background(), sessionID, u); err != nil {
		h.ackErr(c, pkt.AckID, "failed to store update")
		return
	}
	h.metrics.UpdatesTotal.WithLabelValues(string(u.Type)).Inc()
	h.ackOK(c, pkt.AckID)
	h.broadcast(sessionID, domain.EventCanvasUpdate, u, c)
}

func (h *Hub) handleChat(c *client, pkt sio.Packet) {
	c.mu.Lock()
	sessionID, userID := c.sessionID, c.userID
	c.mu.Unlock()
	if sessionID == "" {
		h.ackErr(c, pkt.AckID, "not in a session")
		return
	}
	var m domain.ChatMessage
	if err := pkt.Arg(0, &m); err != nil {
		h.ackErr(c, pkt.AckID, "invalid chat message")
		return
	}
	m.UserID = userID
	if m.Timestamp == "" {
		m.Timestamp = nowISO()
	}
	_ = h.svc.AddChat(context.Background(), sessionID, m)
	h.ackOK(c, pkt.AckID)
	// chat is delivered to the sender too, matching the reference backend
	h.broadcast(sessionID, domain.EventChatMessage, m, nil)
}

// handleAudioChunk only acknowledges receipt; speech processing belongs to
// the AI services outside this server.
func (h *Hub) handleAudioChunk(c *client, pkt sio.Packet) {
	c.mu.Lock()
	sessionID := c.sessionID
	c.mu.Unlock()
	if sessionID == "" {
		h.ackErr(c, pkt.AckID, "not in a session")
		return
	}
	var chunk domain.AudioChunk
	if err := pkt.Arg(0, &chunk); err != nil {
		h.ackErr(c, pkt.AckID, "invalid audio chunk")
		return
	}
	_ = h.svc.CountAudioChunk(context.Background(), sessionID)
	h.ackOK(c, pkt.AckID)
}

// snapshotLoop pushes the authoritative session_state to every room on a
// fixed cadence so clients that missed fan-out reconcile within one interval.
func (h *Hub) snapshotLoop() {
	interval := time.Duration(h.cfg.SnapshotIntervalMs) * time.Millisecond
	if interval <= 0 {
		interval = 15 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-h.done:
			return
		case <-ticker.C:
			h.mu.RLock()
			ids := make([]string, 0, len(h.rooms))
			for id := range h.rooms {
				ids = append(ids, id)
			}
			h.mu.RUnlock()
			for _, id := range ids {
				h.pushStateRoom(id)
			}
		}
	}
}

func (h *Hub) buildState(sessionID string) (domain.SessionState, bool) {
	ctx := context.Background()
	sess, ok, err := h.svc.Get(ctx, sessionID)
	if err != nil || !ok {
		return domain.SessionState{}, false
	}
	updates, err := h.svc.RecentUpdates(ctx, sessionID, h.cfg.SnapshotUpdates)
	if err != nil {
		updates = nil
	}
	users := sess.Participants
	if users == nil {
		users = []string{}
	}
	if updates == nil {
		updates = []domain.CanvasUpdate{}
	}
	return domain.SessionState{
		SessionID:     sessionID,
		ActiveUsers:   users,
		CanvasUpdates: updates,
		Timestamp:     nowISO(),
	}, true
}

func (h *Hub) pushState(c *client, sessionID string) {
	st, ok := h.buildState(sessionID)
	if !ok {
		return
	}
	pkt, err := sio.Event(domain.EventSessionState, -1, st)
	if err != nil {
		return
	}
	h.send(c, pkt)
	h.metrics.SnapshotPushesTotal.Inc()
}

func (h *Hub) pushStateRoom(sessionID string) {
	st, ok := h.buildState(sessionID)
	if !ok {
		return
	}
	h.broadcast(sessionID, domain.EventSessionState, st, nil)
	h.metrics.SnapshotPushesTotal.Inc()
}

// broadcast fans an event out to a room, optionally skipping the sender.
func (h *Hub) broadcast(sessionID, event string, payload any, skip *client) {
	pkt, err := sio.Event(event, -1, payload)
	if err != nil {
		h.logger.Error().Err(err).Str("event", event).Msg("broadcast encode failed")
		return
	}
	h.mu.RLock()
	targets := make([]*client, 0, len(h.rooms[sessionID]))
	for c := range h.rooms[sessionID] {
		if c != skip {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()
	for _, c := range targets {
		h.send(c, pkt)
	}
}

func (h *Hub) send(c *client, pkt sio.Packet) {
	data, err := sio.Encode(pkt)
	if err != nil {
		return
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		h.metrics.DroppedMessagesTotal.WithLabelValues("write_failed").Inc()
	}
}

func (h *Hub) ackOK(c *client, ackID int64) {
	if ackID < 0 {
		return
	}
	pkt, err := sio.Ack(ackID, map[string]any{"ok": true})
	if err != nil {
		return
	}
	h.send(c, pkt)
}

func (h *Hub) ackErr(c *client, ackID int64, msg string) {
	h.metrics.AckErrorsTotal.Inc()
	if ackID < 0 {
		// no ack requested; surface as an error event like the reference backend
		pkt, err := sio.Event(domain.EventError, -1, domain.ErrorMessage{Error: msg, Timestamp: nowISO()})
		if err != nil {
			return
		}
		h.send(c, pkt)
		return
	}
	pkt, err := sio.Ack(ackID, map[string]any{"error": msg})
	if err != nil {
		return
	}
	h.send(c, pkt)
}

func nowISO() string { return time.Now().UTC().Format(time.RFC3339Nano) }
