package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/agam1092005/multiGalaxy/internal/domain"
	"github.com/agam1092005/multiGalaxy/internal/usecase"
)

type sessionEntry struct {
	session   domain.Session
	updates   []domain.CanvasUpdate
	chat      []domain.ChatMessage
	createdAt time.Time
}

// Store keeps all session state in memory. Sessions are evicted by TTL and
// by capacity (oldest first); the per-session update slice is a bounded ring
// matching the snapshot window.
type Store struct {
	mu sync.RWMutex
	// insertion order of session ids, for capacity eviction
	order []string
	items map[string]*sessionEntry

	maxSessions          int
	maxUpdatesPerSession int
	maxChatPerSession    int
	ttl                  time.Duration
}

func NewStore(maxSessions, maxUpdates, maxChat int, ttl time.Duration) *Store {
	return &Store{
		order:                make([]string, 0, maxSessions),
		items:                make(map[string]*sessionEntry, maxSessions),
		maxSessions:          maxSessions,
		maxUpdatesPerSession: maxUpdates,
		maxChatPerSession:    maxChat,
		ttl:                  ttl,
	}
}

// SessionRepository
func (s *Store) CreateSession(ctx context.Context, sess domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictExpiredLocked()
	if len(s.items) >= s.maxSessions {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.items, oldest)
	}
	s.items[sess.ID] = &sessionEntry{
		session:   sess,
		updates:   make([]domain.CanvasUpdate, 0, 16),
		chat:      make([]domain.ChatMessage, 0, 8),
		createdAt: time.Now(),
	}
	s.order = append(s.order, sess.ID)
	return nil
}

func (s *Store) GetSession(ctx context.Context, id string) (domain.Session, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if e, ok := s.items[id]; ok {
		return cloneSession(e.session), true, nil
	}
	return domain.Session{}, false, nil
}

func (s *Store) DeleteSession(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; ok {
		delete(s.items, id)
		for i, sid := range s.order {
			if sid == id {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
	}
	return nil
}

func (s *Store) ClearAllSessions(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make(map[string]*sessionEntry, len(s.items))
	s.order = s.order[:0]
	return nil
}

func (s *Store) ListSessions(ctx context.Context, f usecase.SessionFilter) ([]domain.Session, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	results := make([]domain.Session, 0, len(s.items))
	for _, id := range s.order { // preserve insertion order
		e := s.items[id]
		if e == nil {
			continue
		}
		if f.ActiveOnly && len(e.session.Participants) == 0 {
			continue
		}
		if f.Q != "" && !strings.Contains(strings.ToLower(e.session.ID), strings.ToLower(f.Q)) {
			continue
		}
		results = append(results, cloneSession(e.session))
	}
	total := len(results)
	start := f.Offset
	if start > total {
		start = total
	}
	end := start + f.Limit
	if f.Limit <= 0 || end > total {
		end = total
	}
	return results[start:end], total, nil
}

func (s *Store) AddParticipant(ctx context.Context, sessionID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.items[sessionID]
	if !ok {
		return nil
	}
	for _, p := range e.session.Participants {
		if p == userID {
			return nil
		}
	}
	e.session.Participants = append(e.session.Participants, userID)
	return nil
}

func (s *Store) RemoveParticipant(ctx context.Context, sessionID, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.items[sessionID]
	if !ok {
		return 0, nil
	}
	for i, p := range e.session.Participants {
		if p == userID {
			e.session.Participants = append(e.session.Participants[:i], e.session.Participants[i+1:]...)
			break
		}
	}
	return len(e.session.Participants), nil
}

func (s *Store) SetClosed(ctx context.Context, id string, ts time.Time, errMsg *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.items[id]; ok {
		e.session.ClosedAt = &ts
		e.session.Error = errMsg
	}
	return nil
}

// UpdateRepository
func (s *Store) AppendUpdate(ctx context.Context, sessionID string, u domain.CanvasUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.items[sessionID]
	if !ok {
		return nil
	}
	if len(e.updates) >= s.maxUpdatesPerSession {
		// drop-from-head policy
		e.updates = e.updates[1:]
	}
	e.updates = append(e.updates, u)
	e.session.Updates.Total++
	switch u.Type {
	case domain.UpdateDraw:
		e.session.Updates.Draws++
	case domain.UpdateClear:
		e.session.Updates.Clears++
	default:
		e.session.Updates.Objects++
	}
	return nil
}

func (s *Store) ListRecentUpdates(ctx context.Context, sessionID string, limit int) ([]domain.CanvasUpdate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.items[sessionID]
	if !ok {
		return nil, nil
	}
	start := 0
	if limit > 0 && len(e.updates) > limit {
		start = len(e.updates) - limit
	}
	out := make([]domain.CanvasUpdate, len(e.updates)-start)
	copy(out, e.updates[start:])
	return out, nil
}

// ChatRepository
func (s *Store) AppendChat(ctx context.Context, sessionID string, m domain.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.items[sessionID]
	if !ok {
		return nil
	}
	if len(e.chat) >= s.maxChatPerSession {
		e.chat = e.chat[1:]
	}
	e.chat = append(e.chat, m)
	e.session.ChatCount++
	return nil
}

func (s *Store) ListChat(ctx context.Context, sessionID string, from string, limit int) ([]domain.ChatMessage, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.items[sessionID]
	if !ok {
		return nil, "", nil
	}
	start := 0
	if from != "" {
		for i := range e.chat {
			if e.chat[i].MessageID == from {
				start = i + 1
				break
			}
		}
	}
	end := start + limit
	if limit <= 0 || end > len(e.chat) {
		end = len(e.chat)
	}
	next := ""
	if end < len(e.chat) && end > start {
		next = e.chat[end-1].MessageID
	}
	out := make([]domain.ChatMessage, end-start)
	copy(out, e.chat[start:end])
	return out, next, nil
}

// CountAudioChunk bumps the per-session diagnostics counter.
func (s *Store) CountAudioChunk(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.items[sessionID]; ok {
		e.session.AudioChunks++
	}
	return nil
}

func (s *Store) evictExpiredLocked() {
	if s.ttl <= 0 {
		return
	}
	now := time.Now()
	i := 0
	for i < len(s.order) {
		id := s.order[i]
		e := s.items[id]
		if e == nil || now.Sub(e.createdAt) > s.ttl {
			delete(s.items, id)
			s.order = append(s.order[:i], s.order[i+1:]...)
			continue
		}
		i++
	}
}

func cloneSession(in domain.Session) domain.Session {
	out := in
	out.Participants = append([]string(nil), in.Participants...)
	return out
}
