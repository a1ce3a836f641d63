// Package session owns the editable model: the ordered part collection,
// the selection and the undo history. All mutation goes through Session
// methods; each logical action records exactly one history snapshot, taken
// only once the action is known to succeed.
package session

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/chazu/mallet/pkg/csg"
	"github.com/chazu/mallet/pkg/kernel"
	"github.com/chazu/mallet/pkg/part"
	"github.com/chazu/mallet/pkg/shape"
)

// Session is a single editing session. It is not safe for concurrent use;
// callers serialize actions.
type Session struct {
	parts     []part.Part
	selection Selection
	history   *History

	evaluator *csg.Evaluator
	defaults  part.Defaults
	logger    *slog.Logger
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithDefaults sets the size and palette of new parts.
func WithDefaults(d part.Defaults) Option {
	return func(s *Session) { s.defaults = d }
}

// WithHistoryLimit bounds the undo stack; 0 (the default) is unbounded.
func WithHistoryLimit(n int) Option {
	return func(s *Session) { s.history = NewHistory(n) }
}

// New returns an empty session that evaluates booleans with ev.
func New(ev *csg.Evaluator, opts ...Option) *Session {
	s := &Session{
		history:   NewHistory(0),
		evaluator: ev,
		defaults:  part.StandardDefaults(),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Len returns the number of parts.
func (s *Session) Len() int {
	return len(s.parts)
}

// Parts returns a deep copy of the collection.
func (s *Session) Parts() []part.Part {
	return part.CloneAll(s.parts)
}

// Part returns a copy of the part at i.
func (s *Session) Part(i int) (part.Part, error) {
	if err := s.checkIndex(i); err != nil {
		return part.Part{}, err
	}
	return s.parts[i].Clone(), nil
}

// Selection returns the selected indices in ascending order.
func (s *Session) Selection() []int {
	return s.selection.Indices()
}

// CanUndo reports whether Undo would change anything.
func (s *Session) CanUndo() bool { return s.history.CanUndo() }

// CanRedo reports whether Redo would change anything.
func (s *Session) CanRedo() bool { return s.history.CanRedo() }

// HistoryDepth returns the number of undo and redo entries.
func (s *Session) HistoryDepth() (undo, redo int) { return s.history.Depth() }

func (s *Session) checkIndex(i int) error {
	if i < 0 || i >= len(s.parts) {
		return &IndexOutOfRangeError{Index: i, Len: len(s.parts)}
	}
	return nil
}

// checkSelection enforces Selection ⊆ [0, len) after structural changes.
// A violation is a bug; it is logged and repaired.
func (s *Session) checkSelection(action string) {
	if bad := s.selection.outOfRange(len(s.parts)); len(bad) > 0 {
		s.logger.Error("selection out of range after structural change",
			"action", action,
			"indices", bad,
			"len", len(s.parts),
		)
		s.selection.prune(len(s.parts))
	}
}

// AddPart appends a default-configured part of the given kind and selects
// it. Only kinds from shape.Offered may be added.
func (s *Session) AddPart(kind shape.Kind) (int, error) {
	return s.AddConfigured(kind, nil)
}

// AddConfigured is AddPart with a hook that may adjust the new part through
// its setters before it is committed. If configure fails nothing changes.
func (s *Session) AddConfigured(kind shape.Kind, configure func(p *part.Part) error) (int, error) {
	if !slices.Contains(shape.Offered(), kind) {
		return -1, fmt.Errorf("session: add %q: %w", kind, ErrKindNotOffered)
	}
	p := part.New(kind, s.defaults, len(s.parts))
	if configure != nil {
		if err := configure(&p); err != nil {
			return -1, fmt.Errorf("session: add %s: %w", kind, err)
		}
	}
	s.history.Snapshot(s.parts)
	s.parts = append(s.parts, p)
	idx := len(s.parts) - 1
	s.selection.Set(idx)
	s.checkSelection("add")
	s.logger.Debug("part added", "kind", kind, "index", idx)
	return idx, nil
}

// AppendPart appends an existing descriptor, for example one imported from
// a file, and selects it. The part must validate without errors and its ID
// must not already be in use.
func (s *Session) AppendPart(p part.Part) (int, error) {
	candidate := append(s.Parts(), p.Clone())
	if res := part.Validate(candidate); !res.OK() {
		return -1, &LoadError{Findings: res.Errors}
	}
	s.history.Snapshot(s.parts)
	s.parts = append(s.parts, p.Clone())
	idx := len(s.parts) - 1
	s.selection.Set(idx)
	s.checkSelection("append")
	return idx, nil
}

// UpdatePart replaces the descriptor at i. The replacement must validate
// against the rest of the collection and, like SetScale, have a positive
// scale. The selection is unchanged.
func (s *Session) UpdatePart(i int, p part.Part) error {
	if err := s.checkIndex(i); err != nil {
		return err
	}
	if p.Scale.Finite() && !p.Scale.Positive() {
		return &part.FieldError{Field: "scale", Value: p.Scale, Reason: "components must be positive"}
	}
	candidate := s.Parts()
	candidate[i] = p
	if res := part.Validate(candidate); !res.OK() {
		return &LoadError{Findings: res.Errors}
	}
	s.history.Snapshot(s.parts)
	s.parts[i] = p.Clone()
	s.checkSelection("update")
	return nil
}

// RemovePart deletes the part at i, shifting later parts down, and clears
// the selection.
func (s *Session) RemovePart(i int) error {
	if err := s.checkIndex(i); err != nil {
		return err
	}
	s.history.Snapshot(s.parts)
	s.parts = slices.Delete(s.parts, i, i+1)
	s.selection.Clear()
	s.checkSelection("remove")
	return nil
}

// edit applies fn to a copy of part i and commits it with one snapshot if
// fn succeeds.
func (s *Session) edit(i int, fn func(p *part.Part) error) error {
	if err := s.checkIndex(i); err != nil {
		return err
	}
	p := s.parts[i].Clone()
	if err := fn(&p); err != nil {
		return err
	}
	s.history.Snapshot(s.parts)
	s.parts[i] = p
	return nil
}

// SetPosition moves part i.
func (s *Session) SetPosition(i int, v part.Vec3) error {
	return s.edit(i, func(p *part.Part) error { return p.SetPosition(v) })
}

// SetRotation sets the Euler rotation of part i in degrees.
func (s *Session) SetRotation(i int, v part.Vec3) error {
	return s.edit(i, func(p *part.Part) error { return p.SetRotation(v) })
}

// SetScale resizes part i. Non-positive scale is rejected.
func (s *Session) SetScale(i int, v part.Vec3) error {
	return s.edit(i, func(p *part.Part) error { return p.SetScale(v) })
}

// SetColor recolors part i.
func (s *Session) SetColor(i int, hex string) error {
	return s.edit(i, func(p *part.Part) error { return p.SetColor(hex) })
}

// SetSegments changes the facet count of part i, clamped to [3, 64].
func (s *Session) SetSegments(i int, n int) error {
	return s.edit(i, func(p *part.Part) error { return p.SetSegments(n) })
}

// CommitTransform applies the result of a drag as a single undoable step.
func (s *Session) CommitTransform(i int, position, rotation, scale part.Vec3) error {
	return s.edit(i, func(p *part.Part) error {
		if err := p.SetPosition(position); err != nil {
			return err
		}
		if err := p.SetRotation(rotation); err != nil {
			return err
		}
		return p.SetScale(scale)
	})
}

// Select replaces the selection. Every index must be in range.
func (s *Session) Select(indices ...int) error {
	for _, i := range indices {
		if err := s.checkIndex(i); err != nil {
			return err
		}
	}
	s.selection.Set(indices...)
	return nil
}

// Toggle flips the selection state of i.
func (s *Session) Toggle(i int) error {
	if err := s.checkIndex(i); err != nil {
		return err
	}
	s.selection.Toggle(i)
	return nil
}

// ClearSelection empties the selection.
func (s *Session) ClearSelection() {
	s.selection.Clear()
}

// HandlePick applies a pointer pick. index < 0 means empty space, which
// clears the selection unless multi is set. With multi the picked part is
// toggled; otherwise it becomes the only selected part.
func (s *Session) HandlePick(index int, multi bool) error {
	if index < 0 {
		if !multi {
			s.selection.Clear()
		}
		return nil
	}
	if multi {
		return s.Toggle(index)
	}
	return s.Select(index)
}

// Boolean combines the selected parts with op. On success the operands are
// removed, the result is appended and becomes the only selected part, and
// its index is returned. On failure nothing changes and no history entry
// is recorded.
func (s *Session) Boolean(op kernel.Op) (int, error) {
	sel := s.selection.Indices()
	operands := make([]csg.Operand, 0, len(sel))
	for _, i := range sel {
		operands = append(operands, csg.Operand{Index: i, Part: s.parts[i].Clone()})
	}

	result, err := s.evaluator.Evaluate(operands, op)
	if err != nil {
		return -1, err
	}

	s.history.Snapshot(s.parts)
	for i := len(sel) - 1; i >= 0; i-- {
		s.parts = slices.Delete(s.parts, sel[i], sel[i]+1)
	}
	s.parts = append(s.parts, result)
	idx := len(s.parts) - 1
	s.selection.Set(idx)
	s.checkSelection("boolean")
	s.logger.Info("boolean applied", "op", op, "operands", len(sel), "result", result.ID)
	return idx, nil
}

// Undo restores the previous collection and clears the selection. It
// reports false when there is nothing to undo.
func (s *Session) Undo() bool {
	restored, ok := s.history.Undo(s.parts)
	if !ok {
		return false
	}
	s.parts = restored
	s.selection.Clear()
	s.checkSelection("undo")
	return true
}

// Redo re-applies an undone change and clears the selection. It reports
// false when there is nothing to redo.
func (s *Session) Redo() bool {
	restored, ok := s.history.Redo(s.parts)
	if !ok {
		return false
	}
	s.parts = restored
	s.selection.Clear()
	s.checkSelection("redo")
	return true
}

// Load replaces the collection with parts, for example when opening a
// saved model. Parts with validation errors are rejected as a whole;
// warnings are logged. History and selection are reset.
func (s *Session) Load(parts []part.Part) error {
	res := part.Validate(parts)
	if !res.OK() {
		return &LoadError{Findings: res.Errors}
	}
	for _, w := range res.Warnings {
		s.logger.Warn("loaded part has a problem", "finding", w.Error())
	}
	s.parts = part.CloneAll(parts)
	s.selection.Clear()
	s.history.Reset()
	return nil
}

// Clone returns an independent copy of the session state that shares the
// evaluator, defaults and logger.
func (s *Session) Clone() *Session {
	return &Session{
		parts:     part.CloneAll(s.parts),
		selection: s.selection.clone(),
		history:   s.history.clone(),
		evaluator: s.evaluator,
		defaults:  s.defaults,
		logger:    s.logger,
	}
}

// Adopt replaces this session's parts, selection and history with other's.
// other must not be used afterwards.
func (s *Session) Adopt(other *Session) {
	s.parts = other.parts
	s.selection = other.selection
	s.history = other.history
}
