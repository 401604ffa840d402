package canvas

import (
	"sync"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/agam1092005/multiGalaxy/internal/domain"
)

// EventKind mirrors the change notifications a drawing surface emits.
type EventKind string

const (
	EventObjectAdded    EventKind = "object:added"
	EventObjectModified EventKind = "object:modified"
	EventObjectRemoved  EventKind = "object:removed"
	EventPathCreated    EventKind = "path:created"
	EventCleared        EventKind = "canvas:cleared"
)

type SceneEvent struct {
	Kind   EventKind
	Object domain.SceneObject
}

// SceneGraph is the drawing surface as the sync layer sees it. The real
// rendering engine lives outside this module; Scene below is the in-memory
// implementation used by the sync layer, tests and headless tooling.
type SceneGraph interface {
	Add(obj domain.SceneObject)
	AddPath(path domain.SceneObject)
	Merge(id string, props domain.SceneObject) bool
	Remove(id string) bool
	Get(id string) (domain.SceneObject, bool)
	Objects() []domain.SceneObject
	Clear(background string)
	Serialize() ([]byte, error)
	Restore(data []byte) error
	Render()
	Subscribe(fn func(SceneEvent)) (unsubscribe func())
}

type sceneState struct {
	Background string               `msgpack:"background"`
	Objects    []domain.SceneObject `msgpack:"objects"`
}

// Scene is an in-memory object graph with observer notifications. Restore
// replaces state wholesale and deliberately fires no events, so snapshot
// rollbacks are never re-broadcast.
type Scene struct {
	mu         sync.Mutex
	order      []string
	objects    map[string]domain.SceneObject
	background string
	renders    int

	subMu   sync.Mutex
	subs    map[int]func(SceneEvent)
	nextSub int
}

func NewScene() *Scene {
	return &Scene{
		objects: make(map[string]domain.SceneObject),
		subs:    make(map[int]func(SceneEvent)),
	}
}

func (s *Scene) Add(obj domain.SceneObject) {
	s.put(obj)
	s.emit(SceneEvent{Kind: EventObjectAdded, Object: obj})
}

// AddPath inserts a freehand path, notifying as path:created the way
// drawing surfaces distinguish brush strokes from shape insertion.
func (s *Scene) AddPath(path domain.SceneObject) {
	if path.Kind == "" {
		path.Kind = domain.KindPath
	}
	s.put(path)
	s.emit(SceneEvent{Kind: EventPathCreated, Object: path})
}

func (s *Scene) put(obj domain.SceneObject) {
	s.mu.Lock()
	if _, exists := s.objects[obj.ID]; !exists {
		s.order = append(s.order, obj.ID)
	}
	s.objects[obj.ID] = obj
	s.mu.Unlock()
}

// Merge folds new properties into an existing object. Returns false when
// the id is unknown.
func (s *Scene) Merge(id string, props domain.SceneObject) bool {
	s.mu.Lock()
	obj, ok := s.objects[id]
	if !ok {
		s.mu.Unlock()
		return false
	}
	obj.Merge(props)
	s.objects[id] = obj
	s.mu.Unlock()
	s.emit(SceneEvent{Kind: EventObjectModified, Object: obj})
	return true
}

func (s *Scene) Remove(id string) bool {
	s.mu.Lock()
	obj, ok := s.objects[id]
	if !ok {
		s.mu.Unlock()
		return false
	}
	delete(s.objects, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.mu.Unlock()
	s.emit(SceneEvent{Kind: EventObjectRemoved, Object: obj})
	return true
}

func (s *Scene) Get(id string) (domain.SceneObject, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.objects[id]
	return obj, ok
}

func (s *Scene) Objects() []domain.SceneObject {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.SceneObject, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.objects[id])
	}
	return out
}

func (s *Scene) Clear(background string) {
	s.mu.Lock()
	s.objects = make(map[string]domain.SceneObject)
	s.order = nil
	s.background = background
	s.mu.Unlock()
	s.emit(SceneEvent{Kind: EventCleared})
}

func (s *Scene) Background() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.background
}

func (s *Scene) Serialize() ([]byte, error) {
	s.mu.Lock()
	st := sceneState{Background: s.background, Objects: make([]domain.SceneObject, 0, len(s.order))}
	for _, id := range s.order {
		st.Objects = append(st.Objects, s.objects[id])
	}
	s.mu.Unlock()
	return msgpack.Marshal(st)
}

func (s *Scene) Restore(data []byte) error {
	var st sceneState
	if err := msgpack.Unmarshal(data, &st); err != nil {
		return err
	}
	s.mu.Lock()
	s.background = st.Background
	s.objects = make(map[string]domain.SceneObject, len(st.Objects))
	s.order = make([]string, 0, len(st.Objects))
	for _, obj := range st.Objects {
		s.objects[obj.ID] = obj
		s.order = append(s.order, obj.ID)
	}
	s.renders++
	s.mu.Unlock()
	return nil
}

// Render is a no-op placeholder for the real surface; it counts calls so
// tests can assert re-render behavior.
func (s *Scene) Render() {
	s.mu.Lock()
	s.renders++
	s.mu.Unlock()
}

func (s *Scene) Renders() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.renders
}

func (s *Scene) Subscribe(fn func(SceneEvent)) func() {
	s.subMu.Lock()
	s.nextSub++
	idx := s.nextSub
	s.subs[idx] = fn
	s.subMu.Unlock()
	return func() {
		s.subMu.Lock()
		delete(s.subs, idx)
		s.subMu.Unlock()
	}
}

// emit runs observers outside the state lock; handlers are free to call
// back into the scene (serialize, lookups).
func (s *Scene) emit(ev SceneEvent) {
	s.subMu.Lock()
	subs := make([]func(SceneEvent), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.subMu.Unlock()
	for _, fn := range subs {
		fn(ev)
	}
}
