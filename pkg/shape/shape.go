// Package shape builds the canonical unit-scale meshes for primitive part
// kinds. Every mesh is Y-up, fits the [-0.5,0.5]^3 footprint, is closed and
// wound counter-clockwise when seen from outside.
package shape

import (
	"fmt"
	"strings"

	"github.com/chazu/mallet/pkg/kernel"
)

// Kind identifies the geometry family of a part. It is a string so that
// unrecognized values read from stored data survive a round trip.
type Kind string

const (
	Box      Kind = "box"
	Sphere   Kind = "sphere"
	Cylinder Kind = "cylinder"
	Prism    Kind = "prism"
	Cone     Kind = "cone"
	Pyramid  Kind = "pyramid"
	Custom   Kind = "custom"

	// Wedge is a legacy fixed 3-facet prism. It is read from old data but
	// never offered as a new choice.
	Wedge Kind = "wedge"
)

// Offered returns the kinds a user may add, in menu order.
func Offered() []Kind {
	return []Kind{Box, Sphere, Cylinder, Prism, Cone, Pyramid}
}

// Known reports whether k is one of the defined kinds.
func (k Kind) Known() bool {
	switch k {
	case Box, Sphere, Cylinder, Prism, Cone, Pyramid, Custom, Wedge:
		return true
	}
	return false
}

// Procedural reports whether meshes of this kind come from Build rather
// than from a baked mesh.
func (k Kind) Procedural() bool {
	return k != Custom
}

// HasSegments reports whether the segment count affects the geometry.
// Wedge is fixed at three facets and does not count.
func (k Kind) HasSegments() bool {
	switch k {
	case Sphere, Cylinder, Prism, Cone, Pyramid:
		return true
	}
	return false
}

// ParseKind converts a user-supplied name to a Kind. Matching is case
// insensitive. Unknown names are an error.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Known() {
		return "", fmt.Errorf("shape: unknown kind %q", s)
	}
	return k, nil
}

// DefaultSegments is the facet count used when a part leaves segments unset.
func DefaultSegments(k Kind) int {
	switch k {
	case Sphere, Cylinder, Cone:
		return 32
	case Prism, Wedge:
		return 3
	case Pyramid:
		return 4
	}
	return 0
}

const (
	minRoundSegments = 8
	minSphereRings   = 16
	minLowFacet      = 3
	maxLowFacet      = 12
)

// EffectiveSegments returns the segment count Build actually uses for a
// requested count; 0 or negative selects the kind's default. For spheres it
// also returns the ring count, otherwise rings is 0.
func EffectiveSegments(k Kind, segments int) (width, rings int) {
	if segments <= 0 {
		segments = DefaultSegments(k)
	}
	switch k {
	case Sphere:
		width = max(minRoundSegments, segments)
		return width, max(minSphereRings, width/2)
	case Cylinder, Cone:
		return max(minRoundSegments, segments), 0
	case Prism, Pyramid:
		return min(max(segments, minLowFacet), maxLowFacet), 0
	case Wedge:
		return 3, 0
	}
	return 0, 0
}

// Build returns the unit-scale mesh for kind. Custom returns nil: its
// geometry lives in the part's baked mesh. Unrecognized kinds build a Box.
func Build(k Kind, segments int) *kernel.Mesh {
	width, rings := EffectiveSegments(k, segments)
	switch k {
	case Custom:
		return nil
	case Sphere:
		return sphere(width, rings)
	case Cylinder:
		return prism(width, true)
	case Prism, Wedge:
		return prism(width, false)
	case Cone:
		return cone(width, true)
	case Pyramid:
		return cone(width, false)
	default:
		return box()
	}
}
