package canvas

import (
	"fmt"
	"testing"
)

func TestHistoryUndoRedo(t *testing.T) {
	h := NewHistory(10)
	h.Save([]byte("s0"))
	h.Save([]byte("s1"))
	h.Save([]byte("s2"))

	if !h.CanUndo() {
		t.Fatalf("expected undo available")
	}
	st, ok := h.Undo()
	if !ok || string(st) != "s1" {
		t.Fatalf("undo = %q, %v; want s1", st, ok)
	}
	st, ok = h.Undo()
	if !ok || string(st) != "s0" {
		t.Fatalf("undo = %q, %v; want s0", st, ok)
	}
	if _, ok := h.Undo(); ok {
		t.Fatalf("undo past oldest state should fail")
	}
	st, ok = h.Redo()
	if !ok || string(st) != "s1" {
		t.Fatalf("redo = %q, %v; want s1", st, ok)
	}
}

func TestHistorySaveDiscardsRedoBranch(t *testing.T) {
	h := NewHistory(10)
	h.Save([]byte("a"))
	h.Save([]byte("b"))
	h.Save([]byte("c"))
	if _, ok := h.Undo(); !ok {
		t.Fatalf("undo failed")
	}
	h.Save([]byte("d"))
	if h.CanRedo() {
		t.Fatalf("redo branch should be discarded after save")
	}
	st, ok := h.Undo()
	if !ok || string(st) != "b" {
		t.Fatalf("undo = %q, %v; want b", st, ok)
	}
}

func TestHistoryBounded(t *testing.T) {
	h := NewHistory(50)
	for i := 0; i < 60; i++ {
		h.Save([]byte(fmt.Sprintf("s%d", i)))
	}
	if got := h.Len(); got != 50 {
		t.Fatalf("len = %d, want 50", got)
	}
	// walk back to the oldest retained snapshot
	var last []byte
	for {
		st, ok := h.Undo()
		if !ok {
			break
		}
		last = st
	}
	if string(last) != "s10" {
		t.Fatalf("oldest retained = %q, want s10", last)
	}
}
