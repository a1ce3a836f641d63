// Package kerneltest provides a deterministic bounding-box kernel for
// tests of code that drives a kernel.Kernel.
package kerneltest

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/chazu/mallet/pkg/kernel"
)

// Solid is a fake solid: an axis-aligned box with an expression tag
// describing how it was built.
type Solid struct {
	Tag      string
	Min, Max [3]float64
	Empty    bool
}

// BoundingBox returns the box extents.
func (s *Solid) BoundingBox() (min, max [3]float64) {
	return s.Min, s.Max
}

// Kernel approximates every solid by its bounding box. Union takes the
// enclosing box, Intersection the overlap, Difference keeps the minuend's
// box (or nothing when the subtrahend covers it).
type Kernel struct {
	mu sync.Mutex

	// FailImport makes Mesh return an error.
	FailImport bool
	// PanicOnCombine makes the boolean operations panic.
	PanicOnCombine bool

	// LastTag is the expression of the most recent ToMesh input.
	LastTag string
	// Imports counts Mesh calls.
	Imports int
}

var _ kernel.Kernel = (*Kernel)(nil)

// Mesh imports m; the tag is the mesh's PartName.
func (k *Kernel) Mesh(m *kernel.Mesh) (kernel.Solid, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.FailImport {
		return nil, errors.New("kerneltest: import refused")
	}
	k.Imports++
	min, max := m.Bounds()
	return &Solid{Tag: m.PartName, Min: min, Max: max}, nil
}

func (k *Kernel) check() {
	if k.PanicOnCombine {
		panic("kerneltest: combine panic")
	}
}

// Union returns the enclosing box.
func (k *Kernel) Union(a, b kernel.Solid) kernel.Solid {
	k.check()
	sa, sb := a.(*Solid), b.(*Solid)
	out := &Solid{Tag: fmt.Sprintf("union(%s,%s)", sa.Tag, sb.Tag)}
	switch {
	case sa.Empty && sb.Empty:
		out.Empty = true
	case sa.Empty:
		out.Min, out.Max = sb.Min, sb.Max
	case sb.Empty:
		out.Min, out.Max = sa.Min, sa.Max
	default:
		for i := 0; i < 3; i++ {
			out.Min[i] = math.Min(sa.Min[i], sb.Min[i])
			out.Max[i] = math.Max(sa.Max[i], sb.Max[i])
		}
	}
	return out
}

// Difference keeps a's box unless b covers it entirely.
func (k *Kernel) Difference(a, b kernel.Solid) kernel.Solid {
	k.check()
	sa, sb := a.(*Solid), b.(*Solid)
	out := &Solid{Tag: fmt.Sprintf("difference(%s,%s)", sa.Tag, sb.Tag), Min: sa.Min, Max: sa.Max, Empty: sa.Empty}
	if !sa.Empty && !sb.Empty {
		covered := true
		for i := 0; i < 3; i++ {
			if sb.Min[i] > sa.Min[i] || sb.Max[i] < sa.Max[i] {
				covered = false
			}
		}
		out.Empty = covered
	}
	return out
}

// Intersection returns the overlap box, empty when disjoint.
func (k *Kernel) Intersection(a, b kernel.Solid) kernel.Solid {
	k.check()
	sa, sb := a.(*Solid), b.(*Solid)
	out := &Solid{Tag: fmt.Sprintf("intersection(%s,%s)", sa.Tag, sb.Tag)}
	if sa.Empty || sb.Empty {
		out.Empty = true
		return out
	}
	for i := 0; i < 3; i++ {
		out.Min[i] = math.Max(sa.Min[i], sb.Min[i])
		out.Max[i] = math.Min(sa.Max[i], sb.Max[i])
		if out.Min[i] >= out.Max[i] {
			out.Empty = true
		}
	}
	return out
}

// ToMesh returns a box mesh spanning the solid's extents.
func (k *Kernel) ToMesh(s kernel.Solid) (*kernel.Mesh, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	fs := s.(*Solid)
	k.LastTag = fs.Tag
	if fs.Empty {
		return &kernel.Mesh{}, nil
	}
	return BoxMesh(fs.Min, fs.Max), nil
}

// BoxMesh returns a closed outward-wound box mesh spanning min to max.
func BoxMesh(min, max [3]float64) *kernel.Mesh {
	corner := func(i int) [3]float32 {
		var p [3]float32
		for k := 0; k < 3; k++ {
			if i>>k&1 == 1 {
				p[k] = float32(max[k])
			} else {
				p[k] = float32(min[k])
			}
		}
		return p
	}
	m := &kernel.Mesh{}
	for i := 0; i < 8; i++ {
		p := corner(i)
		m.Vertices = append(m.Vertices, p[0], p[1], p[2])
	}
	m.Indices = []uint32{
		0, 4, 6, 0, 6, 2,
		1, 3, 7, 1, 7, 5,
		0, 1, 5, 0, 5, 4,
		2, 6, 7, 2, 7, 3,
		0, 2, 3, 0, 3, 1,
		4, 5, 7, 4, 7, 6,
	}
	m.Normals = kernel.SmoothNormals(m.Vertices, m.Indices)
	return m
}
