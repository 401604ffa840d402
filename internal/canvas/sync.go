package canvas

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/agam1092005/multiGalaxy/internal/domain"
)

// Emitter is the outbound half of the collaboration client; realtime.Client
// satisfies it.
type Emitter interface {
	Emit(event string, payload any) error
}

// Sync bridges a scene graph and the collaboration channel. Local edits are
// snapshotted into history and broadcast as canvas updates; remote updates
// are applied to the scene without being re-broadcast.
type Sync struct {
	scene   SceneGraph
	emitter Emitter
	history *History
	log     zerolog.Logger

	// applyMu serializes remote application and local bulk helpers so the
	// suppress flag cannot race with scene observer callbacks.
	applyMu  sync.Mutex
	mu       sync.Mutex
	suppress bool
	realtime bool

	unsubscribe func()
}

func NewSync(scene SceneGraph, emitter Emitter, logger *zerolog.Logger) *Sync {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	s := &Sync{
		scene:    scene,
		emitter:  emitter,
		history:  NewHistory(DefaultHistoryLimit),
		log:      logger.With().Str("component", "canvas.sync").Logger(),
		realtime: true,
	}
	s.unsubscribe = scene.Subscribe(s.onSceneEvent)
	s.saveSnapshot()
	return s
}

// Close detaches from the scene; the scene itself stays usable.
func (s *Sync) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
}

// SetRealtime toggles broadcasting of local edits. History keeps recording
// either way.
func (s *Sync) SetRealtime(enabled bool) {
	s.mu.Lock()
	s.realtime = enabled
	s.mu.Unlock()
}

func (s *Sync) History() *History { return s.history }

// onSceneEvent runs synchronously inside every scene mutation. Snapshots
// are taken for all changes; only local ones are broadcast.
func (s *Sync) onSceneEvent(ev SceneEvent) {
	s.saveSnapshot()

	s.mu.Lock()
	mute := s.suppress || !s.realtime
	s.mu.Unlock()
	if mute {
		return
	}

	var upd domain.CanvasUpdate
	switch ev.Kind {
	case EventObjectAdded:
		upd = domain.CanvasUpdate{Type: domain.UpdateObjectAdded, Data: domain.ObjectData{Object: ev.Object}}
	case EventObjectModified:
		upd = domain.CanvasUpdate{Type: domain.UpdateObjectModified, Data: domain.ObjectData{Object: ev.Object}}
	case EventObjectRemoved:
		upd = domain.CanvasUpdate{Type: domain.UpdateObjectRemoved, Data: domain.RemoveData{ObjectID: ev.Object.ID}}
	case EventPathCreated:
		upd = domain.CanvasUpdate{Type: domain.UpdateDraw, Data: domain.PathData{Path: ev.Object}}
	case EventCleared:
		upd = domain.CanvasUpdate{Type: domain.UpdateClear, Data: domain.ClearData{}}
	default:
		return
	}
	if err := s.emitter.Emit(domain.EventCanvasUpdate, upd); err != nil {
		s.log.Warn().Err(err).Str("type", string(upd.Type)).Msg("canvas update emit failed")
	}
}

func (s *Sync) saveSnapshot() {
	state, err := s.scene.Serialize()
	if err != nil {
		s.log.Error().Err(err).Msg("scene snapshot failed")
		return
	}
	s.history.Save(state)
}

// withSuppressed mutates the scene without broadcasting the resulting
// observer events.
func (s *Sync) withSuppressed(fn func()) {
	s.applyMu.Lock()
	defer s.applyMu.Unlock()
	s.mu.Lock()
	s.suppress = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.suppress = false
		s.mu.Unlock()
	}()
	fn()
}

// Apply folds one remote update into the scene. Updates referencing unknown
// objects are ignored; late operations against deleted objects are routine
// during reconnects.
func (s *Sync) Apply(upd domain.CanvasUpdate) {
	s.withSuppressed(func() {
		switch data := upd.Data.(type) {
		case domain.ObjectData:
			switch upd.Type {
			case domain.UpdateObjectAdded:
				s.scene.Add(data.Object)
			case domain.UpdateObjectModified:
				if !s.scene.Merge(data.Object.ID, data.Object) {
					s.log.Debug().Str("object", data.Object.ID).Msg("modify for unknown object, ignored")
				}
			}
		case domain.PathData:
			s.scene.AddPath(data.Path)
		case domain.RemoveData:
			if !s.scene.Remove(data.ObjectID) {
				s.log.Debug().Str("object", data.ObjectID).Msg("remove for unknown object, ignored")
			}
		case domain.EraseData:
			for _, id := range data.ObjectIDs {
				s.scene.Remove(id)
			}
		case domain.ClearData:
			s.scene.Clear(data.Background)
		default:
			s.log.Warn().Str("type", string(upd.Type)).Msg("unhandled canvas update type")
		}
	})
	s.scene.Render()
}

// Replay applies a snapshot's recent updates in order, oldest first.
func (s *Sync) Replay(updates []domain.CanvasUpdate) {
	for _, upd := range updates {
		s.Apply(upd)
	}
}

// Erase removes a set of objects locally and broadcasts a single erase
// update instead of per-object removals.
func (s *Sync) Erase(objectIDs []string) {
	removed := make([]string, 0, len(objectIDs))
	s.withSuppressed(func() {
		for _, id := range objectIDs {
			if s.scene.Remove(id) {
				removed = append(removed, id)
			}
		}
	})
	if len(removed) == 0 {
		return
	}
	s.emitUpdate(domain.CanvasUpdate{Type: domain.UpdateErase, Data: domain.EraseData{ObjectIDs: removed}})
}

// Undo restores the previous snapshot. The rollback is local only.
func (s *Sync) Undo() bool {
	state, ok := s.history.Undo()
	if !ok {
		return false
	}
	s.restore(state)
	return true
}

// Redo restores the next snapshot. The rollback is local only.
func (s *Sync) Redo() bool {
	state, ok := s.history.Redo()
	if !ok {
		return false
	}
	s.restore(state)
	return true
}

func (s *Sync) restore(state []byte) {
	s.applyMu.Lock()
	defer s.applyMu.Unlock()
	if err := s.scene.Restore(state); err != nil {
		s.log.Error().Err(err).Msg("scene restore failed")
	}
}

func (s *Sync) emitUpdate(upd domain.CanvasUpdate) {
	s.mu.Lock()
	enabled := s.realtime
	s.mu.Unlock()
	if !enabled {
		return
	}
	if err := s.emitter.Emit(domain.EventCanvasUpdate, upd); err != nil {
		s.log.Warn().Err(err).Str("type", string(upd.Type)).Msg("canvas update emit failed")
	}
}
