// Package history keeps undo/redo snapshots of a topology document.
package history

import (
	"github.com/diagram-to-compose/composer/internal/topology"
)

// History owns an undo stack that always holds the initial snapshot at index
// 0, and a redo stack whose front is the next state to restore. Snapshots are
// copied on the way in and out so callers never alias stored state.
type History struct {
	undo []topology.Topology
	redo []topology.Topology
}

// New returns a history whose initial entry is initial.
func New(initial topology.Topology) *History {
	return &History{undo: []topology.Topology{initial.Clone()}}
}

// Push records a committed mutation and clears the redo stack.
func (h *History) Push(snapshot topology.Topology) {
	h.undo = append(h.undo, snapshot.Clone())
	h.redo = nil
}

// Undo steps back one entry. With only the initial entry left it returns the
// current state and false.
func (h *History) Undo() (topology.Topology, bool) {
	if len(h.undo) <= 1 {
		return h.Current(), false
	}
	top := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	h.redo = append([]topology.Topology{top}, h.redo...)
	return h.Current(), true
}

// Redo re-applies the most recently undone entry.
func (h *History) Redo() (topology.Topology, bool) {
	if len(h.redo) == 0 {
		return h.Current(), false
	}
	next := h.redo[0]
	h.redo = h.redo[1:]
	h.undo = append(h.undo, next)
	return h.Current(), true
}

// Current returns a copy of the top of the undo stack.
func (h *History) Current() topology.Topology {
	return h.undo[len(h.undo)-1].Clone()
}

func (h *History) CanUndo() bool { return len(h.undo) > 1 }

func (h *History) CanRedo() bool { return len(h.redo) > 0 }

// Len reports the undo and redo stack depths.
func (h *History) Len() (undo, redo int) {
	return len(h.undo), len(h.redo)
}
