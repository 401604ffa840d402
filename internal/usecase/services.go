package usecase

import (
	"context"
	"time"

	"github.com/agam1092005/multiGalaxy/internal/domain"
)

type SessionService struct {
	sessions SessionRepository
	updates  UpdateRepository
	chat     ChatRepository
}

func NewSessionService(s SessionRepository, u UpdateRepository, c ChatRepository) *SessionService {
	return &SessionService{sessions: s, updates: u, chat: c}
}

// EnsureSession creates the session on first join. Existing sessions are
// left untouched so re-joins keep counters and the update ring.
func (s *SessionService) EnsureSession(ctx context.Context, id string) error {
	if _, ok, err := s.sessions.GetSession(ctx, id); err != nil || ok {
		return err
	}
	return s.sessions.CreateSession(ctx, domain.Session{ID: id, StartedAt: time.Now().UTC()})
}

func (s *SessionService) Get(ctx context.Context, id string) (domain.Session, bool, error) {
	return s.sessions.GetSession(ctx, id)
}

func (s *SessionService) List(ctx context.Context, f SessionFilter) ([]domain.Session, int, error) {
	return s.sessions.ListSessions(ctx, f)
}

func (s *SessionService) Delete(ctx context.Context, id string) error {
	return s.sessions.DeleteSession(ctx, id)
}

func (s *SessionService) ClearAll(ctx context.Context) error {
	return s.sessions.ClearAllSessions(ctx)
}

func (s *SessionService) Join(ctx context.Context, sessionID, userID string) error {
	if err := s.EnsureSession(ctx, sessionID); err != nil {
		return err
	}
	return s.sessions.AddParticipant(ctx, sessionID, userID)
}

func (s *SessionService) Leave(ctx context.Context, sessionID, userID string) (remaining int, err error) {
	return s.sessions.RemoveParticipant(ctx, sessionID, userID)
}

func (s *SessionService) AddUpdate(ctx context.Context, sessionID string, u domain.CanvasUpdate) error {
	return s.updates.AppendUpdate(ctx, sessionID, u)
}

func (s *SessionService) RecentUpdates(ctx context.Context, sessionID string, limit int) ([]domain.CanvasUpdate, error) {
	return s.updates.ListRecentUpdates(ctx, sessionID, limit)
}

func (s *SessionService) AddChat(ctx context.Context, sessionID string, m domain.ChatMessage) error {
	return s.chat.AppendChat(ctx, sessionID, m)
}

func (s *SessionService) ListChat(ctx context.Context, sessionID string, from string, limit int) ([]domain.ChatMessage, string, error) {
	return s.chat.ListChat(ctx, sessionID, from, limit)
}

func (s *SessionService) SetClosed(ctx context.Context, id string, closedAt time.Time, errMsg *string) error {
	return s.sessions.SetClosed(ctx, id, closedAt, errMsg)
}

func (s *SessionService) CountAudioChunk(ctx context.Context, sessionID string) error {
	return s.sessions.CountAudioChunk(ctx, sessionID)
}
