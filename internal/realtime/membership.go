package realtime

import (
	"sort"
	"sync"

	"github.com/agam1092005/multiGalaxy/internal/domain"
)

// Membership is the local view of who is in the shared session. Advisory
// session_join/session_leave notifications update it optimistically; the
// periodic session_state snapshot replaces the participant set wholesale
// and is the sole source of truth.
type Membership struct {
	mu           sync.Mutex
	sessionID    string
	userID       string
	participants map[string]struct{}
}

func NewMembership() *Membership {
	return &Membership{participants: make(map[string]struct{})}
}

// SetActive records the joined session with self as the first known
// participant.
func (m *Membership) SetActive(sessionID, userID string) {
	m.mu.Lock()
	m.sessionID = sessionID
	m.userID = userID
	m.participants = map[string]struct{}{userID: {}}
	m.mu.Unlock()
}

func (m *Membership) Clear() {
	m.mu.Lock()
	m.sessionID = ""
	m.userID = ""
	m.participants = make(map[string]struct{})
	m.mu.Unlock()
}

func (m *Membership) Active() (sessionID, userID string, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessionID, m.userID, m.sessionID != ""
}

func (m *Membership) Participants() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.participants))
	for p := range m.participants {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Reconcile replaces the participant set to match the authoritative
// snapshot exactly. Snapshots for other sessions are ignored.
func (m *Membership) Reconcile(st domain.SessionState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sessionID == "" || st.SessionID != m.sessionID {
		return
	}
	next := make(map[string]struct{}, len(st.ActiveUsers))
	for _, u := range st.ActiveUsers {
		next[u] = struct{}{}
	}
	m.participants = next
}

func (m *Membership) ApplyJoin(ev domain.SessionEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sessionID == "" || ev.SessionID != m.sessionID {
		return
	}
	m.participants[ev.UserID] = struct{}{}
}

func (m *Membership) ApplyLeave(ev domain.SessionEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sessionID == "" || ev.SessionID != m.sessionID {
		return
	}
	delete(m.participants, ev.UserID)
}
