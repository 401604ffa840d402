package memory

import (
	"context"
	"testing"
	"time"

	"github.com/agam1092005/multiGalaxy/internal/domain"
	"github.com/agam1092005/multiGalaxy/internal/usecase"
)

func TestParticipantsAddRemove(t *testing.T) {
	s := NewStore(10, 50, 50, time.Hour)
	ctx := context.Background()
	if err := s.CreateSession(ctx, domain.Session{ID: "s1", StartedAt: time.Now()}); err != nil {
		t.Fatal(err)
	}
	_ = s.AddParticipant(ctx, "s1", "u1")
	_ = s.AddParticipant(ctx, "s1", "u2")
	_ = s.AddParticipant(ctx, "s1", "u1") // duplicate join is a no-op
	sess, ok, _ := s.GetSession(ctx, "s1")
	if !ok || len(sess.Participants) != 2 {
		t.Fatalf("participants: %+v", sess.Participants)
	}
	remaining, _ := s.RemoveParticipant(ctx, "s1", "u1")
	if remaining != 1 {
		t.Fatalf("remaining = %d", remaining)
	}
	remaining, _ = s.RemoveParticipant(ctx, "s1", "missing")
	if remaining != 1 {
		t.Fatalf("removing unknown user changed count: %d", remaining)
	}
}

func TestUpdateRingBounded(t *testing.T) {
	s := NewStore(10, 5, 50, time.Hour)
	ctx := context.Background()
	_ = s.CreateSession(ctx, domain.Session{ID: "s1"})
	for i := 0; i < 12; i++ {
		u := domain.CanvasUpdate{Type: domain.UpdateObjectAdded, Data: domain.ObjectData{Object: domain.SceneObject{ID: string(rune('a' + i))}}}
		_ = s.AppendUpdate(ctx, "s1", u)
	}
	got, _ := s.ListRecentUpdates(ctx, "s1", 0)
	if len(got) != 5 {
		t.Fatalf("ring size = %d, want 5", len(got))
	}
	// oldest entries dropped from the head
	last := got[len(got)-1].Data.(domain.ObjectData)
	if last.Object.ID != string(rune('a'+11)) {
		t.Fatalf("tail = %q", last.Object.ID)
	}
	sess, _, _ := s.GetSession(ctx, "s1")
	if sess.Updates.Total != 12 {
		t.Fatalf("total = %d", sess.Updates.Total)
	}
}

func TestListRecentUpdatesWindow(t *testing.T) {
	s := NewStore(10, 50, 50, time.Hour)
	ctx := context.Background()
	_ = s.CreateSession(ctx, domain.Session{ID: "s1"})
	for i := 0; i < 20; i++ {
		_ = s.AppendUpdate(ctx, "s1", domain.CanvasUpdate{Type: domain.UpdateClear, Data: domain.ClearData{}})
	}
	got, _ := s.ListRecentUpdates(ctx, "s1", 10)
	if len(got) != 10 {
		t.Fatalf("window = %d, want 10", len(got))
	}
}

func TestCapacityEviction(t *testing.T) {
	s := NewStore(2, 50, 50, time.Hour)
	ctx := context.Background()
	_ = s.CreateSession(ctx, domain.Session{ID: "s1"})
	_ = s.CreateSession(ctx, domain.Session{ID: "s2"})
	_ = s.CreateSession(ctx, domain.Session{ID: "s3"})
	if _, ok, _ := s.GetSession(ctx, "s1"); ok {
		t.Fatal("oldest session should have been evicted")
	}
	if _, ok, _ := s.GetSession(ctx, "s3"); !ok {
		t.Fatal("newest session missing")
	}
}

func TestListSessionsFilter(t *testing.T) {
	s := NewStore(10, 50, 50, time.Hour)
	ctx := context.Background()
	_ = s.CreateSession(ctx, domain.Session{ID: "math-101"})
	_ = s.CreateSession(ctx, domain.Session{ID: "physics-1"})
	_ = s.AddParticipant(ctx, "math-101", "u1")
	got, total, _ := s.ListSessions(ctx, usecase.SessionFilter{ActiveOnly: true})
	if total != 1 || len(got) != 1 || got[0].ID != "math-101" {
		t.Fatalf("active filter: %+v total=%d", got, total)
	}
	got, _, _ = s.ListSessions(ctx, usecase.SessionFilter{Q: "PHYS"})
	if len(got) != 1 || got[0].ID != "physics-1" {
		t.Fatalf("q filter: %+v", got)
	}
}

func TestChatPagination(t *testing.T) {
	s := NewStore(10, 50, 50, time.Hour)
	ctx := context.Background()
	_ = s.CreateSession(ctx, domain.Session{ID: "s1"})
	for i := 0; i < 5; i++ {
		_ = s.AppendChat(ctx, "s1", domain.ChatMessage{MessageID: string(rune('a' + i)), Message: "m"})
	}
	page, next, _ := s.ListChat(ctx, "s1", "", 2)
	if len(page) != 2 || next != "b" {
		t.Fatalf("page1: %+v next=%q", page, next)
	}
	page, _, _ = s.ListChat(ctx, "s1", next, 10)
	if len(page) != 3 || page[0].MessageID != "c" {
		t.Fatalf("page2: %+v", page)
	}
}
