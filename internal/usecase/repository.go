package usecase

import (
	"context"
	"time"

	"github.com/agam1092005/multiGalaxy/internal/domain"
)

type SessionRepository interface {
	CreateSession(ctx context.Context, s domain.Session) error
	GetSession(ctx context.Context, id string) (domain.Session, bool, error)
	DeleteSession(ctx context.Context, id string) error
	ListSessions(ctx context.Context, f SessionFilter) ([]domain.Session, int, error)
	AddParticipant(ctx context.Context, sessionID, userID string) error
	RemoveParticipant(ctx context.Context, sessionID, userID string) (remaining int, err error)
	SetClosed(ctx context.Context, id string, closedAt time.Time, errMsg *string) error
	ClearAllSessions(ctx context.Context) error
	// CountAudioChunk bumps the per-session audio diagnostics counter.
	CountAudioChunk(ctx context.Context, sessionID string) error
}

type UpdateRepository interface {
	AppendUpdate(ctx context.Context, sessionID string, u domain.CanvasUpdate) error
	// ListRecentUpdates returns up to limit updates, oldest first, taken from
	// the tail of the per-session ring.
	ListRecentUpdates(ctx context.Context, sessionID string, limit int) ([]domain.CanvasUpdate, error)
}

type ChatRepository interface {
	AppendChat(ctx context.Context, sessionID string, m domain.ChatMessage) error
	ListChat(ctx context.Context, sessionID string, from string, limit int) ([]domain.ChatMessage, string, error)
}

type SessionFilter struct {
	Q          string
	ActiveOnly bool
	Limit      int
	Offset     int
}
