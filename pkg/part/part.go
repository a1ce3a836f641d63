// Package part defines the Part descriptor: the per-solid record of kind,
// transform, color, tessellation density and, for boolean results, the
// baked mesh.
package part

import (
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/chazu/mallet/pkg/shape"
)

// DefaultSize is the edge length of a newly added part. Primitives are
// built at unit scale, so this is also the initial scale on every axis.
const DefaultSize = 2.0

// DefaultPalette is cycled through when assigning colors to new parts.
var DefaultPalette = []string{
	"#4a90d9", "#e67e22", "#2ecc71", "#9b59b6",
	"#e74c3c", "#1abc9c", "#f39c12", "#3498db",
}

// Vec3 is a position, Euler rotation (degrees) or scale triple.
type Vec3 struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

// Finite reports whether no component is NaN or infinite.
func (v Vec3) Finite() bool {
	for _, c := range [3]float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// Positive reports whether every component is strictly positive.
func (v Vec3) Positive() bool {
	return v.X > 0 && v.Y > 0 && v.Z > 0
}

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

func (v Vec3) String() string {
	return fmt.Sprintf("(%g, %g, %g)", v.X, v.Y, v.Z)
}

// One is the identity scale.
var One = Vec3{1, 1, 1}

// Part describes one solid in the collection. Procedural kinds are fully
// determined by Kind and Segments at unit scale; Position, Rotation and
// Scale are applied on top and never baked in. Custom parts carry their
// geometry in BakedMesh.
type Part struct {
	ID        string     `json:"id" yaml:"id"`
	Kind      shape.Kind `json:"kind" yaml:"kind"`
	Position  Vec3       `json:"position" yaml:"position"`
	Rotation  Vec3       `json:"rotation" yaml:"rotation"` // degrees, applied X then Y then Z
	Scale     Vec3       `json:"scale" yaml:"scale"`
	Color     string     `json:"color,omitempty" yaml:"color,omitempty"`
	Segments  int        `json:"segments,omitempty" yaml:"segments,omitempty"` // 0 means the kind's default
	BakedMesh []byte     `json:"bakedMesh,omitempty" yaml:"bakedMesh,omitempty"`
}

// Defaults configures newly created parts.
type Defaults struct {
	Size    float64
	Palette []string
}

// StandardDefaults returns DefaultSize and DefaultPalette.
func StandardDefaults() Defaults {
	return Defaults{Size: DefaultSize, Palette: DefaultPalette}
}

// ColorFor returns the palette color for the n-th part.
func (d Defaults) ColorFor(n int) string {
	if len(d.Palette) == 0 {
		return ""
	}
	if n < 0 {
		n = -n
	}
	return d.Palette[n%len(d.Palette)]
}

// New returns a default-configured part of the given kind. n is the
// number of parts already in the collection and selects the color.
func New(kind shape.Kind, d Defaults, n int) Part {
	size := d.Size
	if size <= 0 {
		size = DefaultSize
	}
	return Part{
		ID:    uuid.NewString(),
		Kind:  kind,
		Scale: Vec3{size, size, size},
		Color: d.ColorFor(n),
	}
}

// EffectiveSegments returns the facet count used when the part is built.
func (p Part) EffectiveSegments() int {
	w, _ := shape.EffectiveSegments(p.Kind, p.Segments)
	return w
}

// Clone returns a deep copy of p. The baked mesh bytes are copied.
func (p Part) Clone() Part {
	c := p
	if p.BakedMesh != nil {
		c.BakedMesh = append([]byte(nil), p.BakedMesh...)
	}
	return c
}

// CloneAll deep-copies a collection. A nil input yields nil.
func CloneAll(parts []Part) []Part {
	if parts == nil {
		return nil
	}
	out := make([]Part, len(parts))
	for i, p := range parts {
		out[i] = p.Clone()
	}
	return out
}
