package domain

// ConnState is the connection manager's state machine position.
type ConnState string

const (
	StateDisconnected ConnState = "disconnected"
	StateConnecting   ConnState = "connecting"
	StateConnected    ConnState = "connected"
	StateReconnecting ConnState = "reconnecting"
	// StateFailed is terminal after the reconnect attempt cap; revived only
	// by a manual connect or a network online transition.
	StateFailed ConnState = "failed"
)

type NetworkStatus string

const (
	NetworkOnline   NetworkStatus = "online"
	NetworkOffline  NetworkStatus = "offline"
	NetworkUnstable NetworkStatus = "unstable"
)

// ConnectionStatus is the read-only snapshot delivered to status callbacks
// on every status-relevant transition.
type ConnectionStatus struct {
	State             ConnState     `json:"state"`
	Connected         bool          `json:"connected"`
	ReconnectAttempts int           `json:"reconnect_attempts"`
	Network           NetworkStatus `json:"network_status"`
	LastError         string        `json:"last_error,omitempty"`
}
