package domain

// Wire event names. The socket carries socket.io-style event packets;
// these are the event identifiers used by both client and server.
const (
	EventJoinSession  = "join_session"
	EventLeaveSession = "leave_session"
	EventCanvasUpdate = "canvas_update"
	EventSessionState = "session_state"
	EventSessionJoin  = "session_join"
	EventSessionLeave = "session_leave"
	EventChatMessage  = "chat_message"
	EventAudioChunk   = "audio_chunk"
	EventError        = "error"
)

type JoinSession struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
}

type LeaveSession struct {
	SessionID string `json:"session_id"`
}

// SessionState is the server-pushed authoritative snapshot. The local
// participant view is replaced wholesale to match ActiveUsers.
type SessionState struct {
	SessionID     string         `json:"session_id"`
	ActiveUsers   []string       `json:"active_users"`
	CanvasUpdates []CanvasUpdate `json:"canvas_updates"`
	Timestamp     string         `json:"timestamp"`
}

// SessionEvent is the advisory point-to-point join/leave notification;
// the next SessionState snapshot can correct it.
type SessionEvent struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
	Timestamp string `json:"timestamp"`
}

type ChatMessage struct {
	Message   string `json:"message"`
	MessageID string `json:"message_id"`
	Timestamp string `json:"timestamp"`
	UserID    string `json:"user_id,omitempty"`
}

type AudioChunk struct {
	Data      string `json:"data"`
	Timestamp string `json:"timestamp"`
	Sequence  int    `json:"sequence"`
}

type ErrorMessage struct {
	Error     string `json:"error"`
	Timestamp string `json:"timestamp"`
}

// Heartbeat is the payload of liveness ping/pong packets. Used only for
// latency diagnostics, not failure detection.
type Heartbeat struct {
	Timestamp string `json:"timestamp"`
}
