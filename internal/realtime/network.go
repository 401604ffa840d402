package realtime

import (
	"sync"

	"github.com/agam1092005/multiGalaxy/internal/domain"
)

// NetworkMonitor reports connectivity of the underlying platform. The
// connection manager suppresses reconnect attempts while offline and kicks
// an immediate attempt on the offline->online transition.
type NetworkMonitor interface {
	Status() domain.NetworkStatus
	Events() <-chan domain.NetworkStatus
}

// ManualMonitor is a NetworkMonitor driven by explicit Set calls; callers
// wire it to whatever connectivity signal the platform exposes.
type ManualMonitor struct {
	mu     sync.Mutex
	status domain.NetworkStatus
	ch     chan domain.NetworkStatus
}

func NewManualMonitor(initial domain.NetworkStatus) *ManualMonitor {
	if initial == "" {
		initial = domain.NetworkOnline
	}
	return &ManualMonitor{status: initial, ch: make(chan domain.NetworkStatus, 16)}
}

func (m *ManualMonitor) Status() domain.NetworkStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

func (m *ManualMonitor) Events() <-chan domain.NetworkStatus { return m.ch }

// Set records a transition and publishes it. Repeated equal values are
// ignored so subscribers only see edges.
func (m *ManualMonitor) Set(st domain.NetworkStatus) {
	m.mu.Lock()
	if m.status == st {
		m.mu.Unlock()
		return
	}
	m.status = st
	m.mu.Unlock()
	select {
	case m.ch <- st:
	default:
	}
}

// alwaysOnline is the default monitor for environments without a
// connectivity signal. Its nil event channel never fires.
type alwaysOnline struct{}

func (alwaysOnline) Status() domain.NetworkStatus        { return domain.NetworkOnline }
func (alwaysOnline) Events() <-chan domain.NetworkStatus { return nil }
