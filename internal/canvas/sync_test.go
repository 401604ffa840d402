package canvas

import (
	"sync"
	"testing"

	"github.com/agam1092005/multiGalaxy/internal/domain"
)

type captureEmitter struct {
	mu      sync.Mutex
	updates []domain.CanvasUpdate
}

func (e *captureEmitter) Emit(event string, payload any) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if upd, ok := payload.(domain.CanvasUpdate); ok {
		e.updates = append(e.updates, upd)
	}
	return nil
}

func (e *captureEmitter) all() []domain.CanvasUpdate {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]domain.CanvasUpdate(nil), e.updates...)
}

func TestSyncBroadcastsLocalEdits(t *testing.T) {
	scene := NewScene()
	em := &captureEmitter{}
	s := NewSync(scene, em, nil)
	defer s.Close()

	scene.Add(domain.SceneObject{ID: "obj_1", Kind: domain.KindRect, Left: 1})
	scene.Merge("obj_1", domain.SceneObject{Left: 2})
	scene.Remove("obj_1")
	scene.AddPath(domain.SceneObject{ID: "p1", Points: []domain.Point{{X: 0, Y: 0}}})
	scene.Clear("")

	got := em.all()
	want := []domain.UpdateType{
		domain.UpdateObjectAdded,
		domain.UpdateObjectModified,
		domain.UpdateObjectRemoved,
		domain.UpdateDraw,
		domain.UpdateClear,
	}
	if len(got) != len(want) {
		t.Fatalf("got %d updates, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].Type != want[i] {
			t.Fatalf("update %d type = %q, want %q", i, got[i].Type, want[i])
		}
	}
	if d, ok := got[2].Data.(domain.RemoveData); !ok || d.ObjectID != "obj_1" {
		t.Fatalf("remove data = %+v", got[2].Data)
	}
}

func TestSyncApplySuppressesEcho(t *testing.T) {
	scene := NewScene()
	em := &captureEmitter{}
	s := NewSync(scene, em, nil)
	defer s.Close()

	s.Apply(domain.CanvasUpdate{
		Type: domain.UpdateObjectAdded,
		Data: domain.ObjectData{Object: domain.SceneObject{ID: "remote_1", Kind: domain.KindRect}},
	})
	s.Apply(domain.CanvasUpdate{Type: domain.UpdateClear, Data: domain.ClearData{}})

	if n := len(em.all()); n != 0 {
		t.Fatalf("remote updates re-broadcast %d times, want 0", n)
	}
	if len(scene.Objects()) != 0 {
		t.Fatalf("clear not applied")
	}
}

func TestSyncApplyIgnoresUnknownObjects(t *testing.T) {
	scene := NewScene()
	em := &captureEmitter{}
	s := NewSync(scene, em, nil)
	defer s.Close()

	s.Apply(domain.CanvasUpdate{
		Type: domain.UpdateObjectModified,
		Data: domain.ObjectData{Object: domain.SceneObject{ID: "ghost"}},
	})
	s.Apply(domain.CanvasUpdate{
		Type: domain.UpdateObjectRemoved,
		Data: domain.RemoveData{ObjectID: "ghost"},
	})
	if len(scene.Objects()) != 0 {
		t.Fatalf("scene should remain empty")
	}
}

func TestSyncEraseBroadcastsOnce(t *testing.T) {
	scene := NewScene()
	em := &captureEmitter{}
	s := NewSync(scene, em, nil)
	defer s.Close()

	scene.Add(domain.SceneObject{ID: "a", Kind: domain.KindPath})
	scene.Add(domain.SceneObject{ID: "b", Kind: domain.KindPath})
	before := len(em.all())

	s.Erase([]string{"a", "b", "missing"})

	got := em.all()[before:]
	if len(got) != 1 || got[0].Type != domain.UpdateErase {
		t.Fatalf("erase broadcast = %+v, want single erase update", got)
	}
	d := got[0].Data.(domain.EraseData)
	if len(d.ObjectIDs) != 2 {
		t.Fatalf("erased ids = %v, want a and b", d.ObjectIDs)
	}
}

func TestSyncUndoRedoLocalOnly(t *testing.T) {
	scene := NewScene()
	em := &captureEmitter{}
	s := NewSync(scene, em, nil)
	defer s.Close()

	scene.Add(domain.SceneObject{ID: "a", Kind: domain.KindRect})
	scene.Add(domain.SceneObject{ID: "b", Kind: domain.KindRect})
	before := len(em.all())

	if !s.Undo() {
		t.Fatalf("undo failed")
	}
	if len(scene.Objects()) != 1 {
		t.Fatalf("undo should roll back to one object, have %d", len(scene.Objects()))
	}
	if !s.Redo() {
		t.Fatalf("redo failed")
	}
	if len(scene.Objects()) != 2 {
		t.Fatalf("redo should restore both objects")
	}
	if got := len(em.all()); got != before {
		t.Fatalf("undo/redo emitted %d updates, want 0", got-before)
	}
}

func TestSyncRealtimeToggle(t *testing.T) {
	scene := NewScene()
	em := &captureEmitter{}
	s := NewSync(scene, em, nil)
	defer s.Close()

	s.SetRealtime(false)
	scene.Add(domain.SceneObject{ID: "quiet", Kind: domain.KindRect})
	if n := len(em.all()); n != 0 {
		t.Fatalf("broadcast while realtime disabled: %d updates", n)
	}
	// history keeps recording regardless
	if !s.Undo() {
		t.Fatalf("history should have recorded the muted edit")
	}
}

func TestSyncReplayAppliesInOrder(t *testing.T) {
	scene := NewScene()
	em := &captureEmitter{}
	s := NewSync(scene, em, nil)
	defer s.Close()

	s.Replay([]domain.CanvasUpdate{
		{Type: domain.UpdateObjectAdded, Data: domain.ObjectData{Object: domain.SceneObject{ID: "x", Kind: domain.KindRect, Left: 1}}},
		{Type: domain.UpdateObjectModified, Data: domain.ObjectData{Object: domain.SceneObject{ID: "x", Left: 9}}},
	})
	obj, ok := scene.Get("x")
	if !ok || obj.Left != 9 {
		t.Fatalf("replayed object = %+v, %v", obj, ok)
	}
	if n := len(em.all()); n != 0 {
		t.Fatalf("replay re-broadcast %d updates, want 0", n)
	}
}
