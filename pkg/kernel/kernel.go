// Package kernel defines the abstract geometry kernel interface.
// Implementations (sdfx, manifold) provide mesh boolean operations behind
// this interface. The kernel abstraction allows swapping backends without
// changing the brush factory or the boolean evaluator.
package kernel

import "fmt"

// Solid is an opaque handle to a geometry kernel solid.
// Implementations wrap their internal representation.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
}

// Kernel is the abstract geometry kernel interface.
//
// Inputs to Mesh are closed, outward-wound triangle meshes whose vertices
// are already in absolute (world) coordinates.
type Kernel interface {
	// Import
	Mesh(m *Mesh) (Solid, error)

	// Boolean operations
	Union(a, b Solid) Solid
	Difference(a, b Solid) Solid
	Intersection(a, b Solid) Solid

	// Mesh output
	ToMesh(s Solid) (*Mesh, error)
}

// Combine applies op to a and b. Subtract and Intersect are order
// sensitive: a is the left-hand operand.
func Combine(k Kernel, a, b Solid, op Op) (Solid, error) {
	switch op {
	case Union:
		return k.Union(a, b), nil
	case Subtract:
		return k.Difference(a, b), nil
	case Intersect:
		return k.Intersection(a, b), nil
	default:
		return nil, fmt.Errorf("kernel: unknown boolean op %q", op)
	}
}
