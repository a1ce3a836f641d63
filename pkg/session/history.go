package session

import "github.com/chazu/mallet/pkg/part"

// History holds deep-copied snapshots of the part collection. past is a
// stack with the most recent entry last; future has the next redo target
// first.
type History struct {
	past   [][]part.Part
	future [][]part.Part
	limit  int // 0 means unbounded
}

// NewHistory returns an empty history. limit bounds the number of undo
// steps kept; 0 keeps everything.
func NewHistory(limit int) *History {
	return &History{limit: limit}
}

// Snapshot records a deep copy of parts as an undo point and discards any
// redo entries.
func (h *History) Snapshot(parts []part.Part) {
	h.past = append(h.past, part.CloneAll(parts))
	if h.limit > 0 && len(h.past) > h.limit {
		h.past = h.past[len(h.past)-h.limit:]
	}
	h.future = nil
}

// Undo returns the collection to restore, pushing current onto the front
// of the redo list. ok is false, and nothing changes, when there is nothing
// to undo.
func (h *History) Undo(current []part.Part) (restored []part.Part, ok bool) {
	if len(h.past) == 0 {
		return nil, false
	}
	last := len(h.past) - 1
	restored = h.past[last]
	h.past = h.past[:last]
	h.future = append([][]part.Part{part.CloneAll(current)}, h.future...)
	return part.CloneAll(restored), true
}

// Redo is the inverse of Undo.
func (h *History) Redo(current []part.Part) (restored []part.Part, ok bool) {
	if len(h.future) == 0 {
		return nil, false
	}
	restored = h.future[0]
	h.future = h.future[1:]
	h.past = append(h.past, part.CloneAll(current))
	return part.CloneAll(restored), true
}

// CanUndo reports whether Undo would change anything.
func (h *History) CanUndo() bool { return len(h.past) > 0 }

// CanRedo reports whether Redo would change anything.
func (h *History) CanRedo() bool { return len(h.future) > 0 }

// Depth returns the number of undo and redo entries.
func (h *History) Depth() (undo, redo int) {
	return len(h.past), len(h.future)
}

// Reset drops all entries.
func (h *History) Reset() {
	h.past = nil
	h.future = nil
}

func (h *History) clone() *History {
	c := &History{limit: h.limit}
	for _, p := range h.past {
		c.past = append(c.past, part.CloneAll(p))
	}
	for _, f := range h.future {
		c.future = append(c.future, part.CloneAll(f))
	}
	return c
}
