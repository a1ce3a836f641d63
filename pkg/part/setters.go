package part

import (
	"fmt"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Segment edits are clamped to this range.
const (
	MinSegments = 3
	MaxSegments = 64
)

// FieldError reports a rejected per-field edit.
type FieldError struct {
	Field  string
	Value  any
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("invalid %s %v: %s", e.Field, e.Value, e.Reason)
}

// SetPosition sets the translation. Components must be finite.
func (p *Part) SetPosition(v Vec3) error {
	if !v.Finite() {
		return &FieldError{Field: "position", Value: v, Reason: "components must be finite"}
	}
	p.Position = v
	return nil
}

// SetRotation sets the Euler rotation in degrees. Components must be finite.
func (p *Part) SetRotation(v Vec3) error {
	if !v.Finite() {
		return &FieldError{Field: "rotation", Value: v, Reason: "components must be finite"}
	}
	p.Rotation = v
	return nil
}

// SetScale sets the per-axis scale. Non-positive components are rejected
// rather than clamped.
func (p *Part) SetScale(v Vec3) error {
	if !v.Finite() {
		return &FieldError{Field: "scale", Value: v, Reason: "components must be finite"}
	}
	if !v.Positive() {
		return &FieldError{Field: "scale", Value: v, Reason: "components must be positive"}
	}
	p.Scale = v
	return nil
}

// SetColor sets the display color from a hex string such as "#e67e22".
// The stored form is normalized to lowercase #rrggbb. An empty string
// clears the color.
func (p *Part) SetColor(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		p.Color = ""
		return nil
	}
	c, err := NormalizeColor(s)
	if err != nil {
		return &FieldError{Field: "color", Value: s, Reason: err.Error()}
	}
	p.Color = c
	return nil
}

// NormalizeColor parses a #rgb or #rrggbb color and returns it as
// lowercase #rrggbb.
func NormalizeColor(s string) (string, error) {
	c, err := colorful.Hex(s)
	if err != nil {
		return "", fmt.Errorf("not a hex color: %w", err)
	}
	return c.Hex(), nil
}

// SetSegments sets the facet count, clamped to [MinSegments, MaxSegments].
// Kinds whose geometry ignores segments reject the edit.
func (p *Part) SetSegments(n int) error {
	if !p.Kind.HasSegments() {
		return &FieldError{Field: "segments", Value: n, Reason: fmt.Sprintf("kind %q has no segments", p.Kind)}
	}
	p.Segments = min(max(n, MinSegments), MaxSegments)
	return nil
}
