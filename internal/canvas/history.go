package canvas

import "sync"

// DefaultHistoryLimit bounds retained undo snapshots.
const DefaultHistoryLimit = 50

// History keeps full-scene snapshots for linear undo/redo. Saving a new
// state discards the redo branch; the stack is bounded, oldest snapshots
// fall off first.
type History struct {
	mu     sync.Mutex
	states [][]byte
	cursor int
	limit  int
}

func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &History{cursor: -1, limit: limit}
}

// Save records a snapshot as the new current state.
func (h *History) Save(state []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.states = append(h.states[:h.cursor+1], state)
	if len(h.states) > h.limit {
		drop := len(h.states) - h.limit
		h.states = h.states[drop:]
	}
	h.cursor = len(h.states) - 1
}

// Undo steps back one snapshot. Returns false at the oldest state.
func (h *History) Undo() ([]byte, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cursor <= 0 {
		return nil, false
	}
	h.cursor--
	return h.states[h.cursor], true
}

// Redo steps forward one snapshot. Returns false at the newest state.
func (h *History) Redo() ([]byte, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cursor < 0 || h.cursor >= len(h.states)-1 {
		return nil, false
	}
	h.cursor++
	return h.states[h.cursor], true
}

func (h *History) CanUndo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cursor > 0
}

func (h *History) CanRedo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cursor >= 0 && h.cursor < len(h.states)-1
}

func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.states)
}

func (h *History) Reset() {
	h.mu.Lock()
	h.states = nil
	h.cursor = -1
	h.mu.Unlock()
}
