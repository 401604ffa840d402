package realtime

import (
	"time"

	"github.com/rs/zerolog"
)

type Options struct {
	// URL is the ws:// or wss:// endpoint of the collaboration server.
	URL string
	// Token, when set, is sent as a bearer Authorization header on dial.
	Token string

	HandshakeTimeout  time.Duration
	HeartbeatInterval time.Duration

	// Reconnection backoff: delay = min(BaseDelay*2^(n-1) + jitter, MaxDelay),
	// jitter uniform in [0, JitterMax); a negative JitterMax disables
	// jitter. After MaxReconnectAttempts failures
	// the connection reports a terminal failed status and waits for a manual
	// Connect or a network online transition.
	BaseDelay            time.Duration
	MaxDelay             time.Duration
	JitterMax            time.Duration
	MaxReconnectAttempts int
	// ServerCloseGrace delays the first reconnect attempt after a
	// server-initiated close.
	ServerCloseGrace time.Duration

	// Delivery.
	AckTimeout    time.Duration
	DrainInterval time.Duration
	QueueMaxAge   time.Duration
	MaxRetries    int

	Network NetworkMonitor
	Logger  *zerolog.Logger
}

func (o Options) withDefaults() Options {
	if o.HandshakeTimeout <= 0 {
		o.HandshakeTimeout = 10 * time.Second
	}
	if o.HeartbeatInterval <= 0 {
		o.HeartbeatInterval = 30 * time.Second
	}
	if o.BaseDelay <= 0 {
		o.BaseDelay = time.Second
	}
	if o.MaxDelay <= 0 {
		o.MaxDelay = 30 * time.Second
	}
	if o.JitterMax < 0 {
		o.JitterMax = 0
	} else if o.JitterMax == 0 {
		o.JitterMax = time.Second
	}
	if o.MaxReconnectAttempts <= 0 {
		o.MaxReconnectAttempts = 5
	}
	if o.ServerCloseGrace <= 0 {
		o.ServerCloseGrace = 5 * time.Second
	}
	if o.AckTimeout <= 0 {
		o.AckTimeout = 10 * time.Second
	}
	if o.DrainInterval <= 0 {
		o.DrainInterval = 5 * time.Second
	}
	if o.QueueMaxAge <= 0 {
		o.QueueMaxAge = 5 * time.Minute
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = 3
	}
	if o.Network == nil {
		o.Network = alwaysOnline{}
	}
	if o.Logger == nil {
		nop := zerolog.Nop()
		o.Logger = &nop
	}
	return o
}
