package sdfx

import (
	"errors"
	"math"

	"github.com/chazu/mallet/pkg/kernel"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// degenerateArea is the squared cross-product length below which a triangle
// contributes nothing to the distance field.
const degenerateArea = 1e-18

type triangle struct {
	a, b, c v3.Vec
}

// meshSDF is a signed distance field over a closed triangle mesh. The
// magnitude is the distance to the nearest triangle and the sign comes from
// the generalized winding number, which tolerates small cracks in the
// surface.
type meshSDF struct {
	tris []triangle
	bb   sdf.Box3
}

var _ sdf.SDF3 = (*meshSDF)(nil)

// newMeshSDF builds a distance field from world-space mesh vertices.
func newMeshSDF(m *kernel.Mesh) (*meshSDF, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	vert := func(i uint32) v3.Vec {
		return v3.Vec{
			X: float64(m.Vertices[i*3]),
			Y: float64(m.Vertices[i*3+1]),
			Z: float64(m.Vertices[i*3+2]),
		}
	}

	s := &meshSDF{tris: make([]triangle, 0, m.TriangleCount())}
	min := v3.Vec{X: math.MaxFloat64, Y: math.MaxFloat64, Z: math.MaxFloat64}
	max := v3.Vec{X: -math.MaxFloat64, Y: -math.MaxFloat64, Z: -math.MaxFloat64}
	for t := 0; t < m.TriangleCount(); t++ {
		tri := triangle{
			a: vert(m.Indices[t*3]),
			b: vert(m.Indices[t*3+1]),
			c: vert(m.Indices[t*3+2]),
		}
		n := tri.b.Sub(tri.a).Cross(tri.c.Sub(tri.a))
		if n.Dot(n) < degenerateArea {
			continue
		}
		s.tris = append(s.tris, tri)
		for _, p := range [3]v3.Vec{tri.a, tri.b, tri.c} {
			min = v3.Vec{X: math.Min(min.X, p.X), Y: math.Min(min.Y, p.Y), Z: math.Min(min.Z, p.Z)}
			max = v3.Vec{X: math.Max(max.X, p.X), Y: math.Max(max.Y, p.Y), Z: math.Max(max.Z, p.Z)}
		}
	}
	if len(s.tris) == 0 {
		return nil, errors.New("mesh has no non-degenerate triangles")
	}

	size := max.Sub(min)
	pad := 0.01*math.Max(size.X, math.Max(size.Y, size.Z)) + 1e-6
	padding := v3.Vec{X: pad, Y: pad, Z: pad}
	s.bb = sdf.Box3{Min: min.Sub(padding), Max: max.Add(padding)}
	return s, nil
}

// BoundingBox returns the padded bounding box of the mesh.
func (s *meshSDF) BoundingBox() sdf.Box3 {
	return s.bb
}

// Evaluate returns the signed distance from p to the mesh surface:
// negative inside, positive outside.
func (s *meshSDF) Evaluate(p v3.Vec) float64 {
	// Far from the box the box distance is a safe, cheap lower bound.
	if d := boxDistance(s.bb, p); d > 0 {
		return d
	}

	best := math.MaxFloat64
	winding := 0.0
	for i := range s.tris {
		tri := &s.tris[i]
		q := closestPoint(p, tri)
		d := p.Sub(q)
		if dd := d.Dot(d); dd < best {
			best = dd
		}
		winding += solidAngle(p, tri)
	}
	dist := math.Sqrt(best)
	if math.Abs(winding) > 2*math.Pi {
		return -dist
	}
	return dist
}

// boxDistance is the Euclidean distance from p to the box, 0 inside.
func boxDistance(bb sdf.Box3, p v3.Vec) float64 {
	dx := math.Max(math.Max(bb.Min.X-p.X, p.X-bb.Max.X), 0)
	dy := math.Max(math.Max(bb.Min.Y-p.Y, p.Y-bb.Max.Y), 0)
	dz := math.Max(math.Max(bb.Min.Z-p.Z, p.Z-bb.Max.Z), 0)
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// closestPoint returns the point of tri nearest to p, by Voronoi region
// classification (Ericson, Real-Time Collision Detection 5.1.5).
func closestPoint(p v3.Vec, tri *triangle) v3.Vec {
	a, b, c := tri.a, tri.b, tri.c
	ab := b.Sub(a)
	ac := c.Sub(a)

	ap := p.Sub(a)
	d1 := ab.Dot(ap)
	d2 := ac.Dot(ap)
	if d1 <= 0 && d2 <= 0 {
		return a
	}

	bp := p.Sub(b)
	d3 := ab.Dot(bp)
	d4 := ac.Dot(bp)
	if d3 >= 0 && d4 <= d3 {
		return b
	}

	vc := d1*d4 - d3*d2
	if vc <= 0 && d1 >= 0 && d3 <= 0 {
		v := d1 / (d1 - d3)
		return a.Add(ab.MulScalar(v))
	}

	cp := p.Sub(c)
	d5 := ab.Dot(cp)
	d6 := ac.Dot(cp)
	if d6 >= 0 && d5 <= d6 {
		return c
	}

	vb := d5*d2 - d1*d6
	if vb <= 0 && d2 >= 0 && d6 <= 0 {
		w := d2 / (d2 - d6)
		return a.Add(ac.MulScalar(w))
	}

	va := d3*d6 - d5*d4
	if va <= 0 && (d4-d3) >= 0 && (d5-d6) >= 0 {
		w := (d4 - d3) / ((d4 - d3) + (d5 - d6))
		return b.Add(c.Sub(b).MulScalar(w))
	}

	denom := 1 / (va + vb + vc)
	v := vb * denom
	w := vc * denom
	return a.Add(ab.MulScalar(v)).Add(ac.MulScalar(w))
}

// solidAngle is the signed solid angle subtended by tri at p
// (Van Oosterom and Strackee). Summed over a closed outward-wound mesh it
// is 4π inside and 0 outside.
func solidAngle(p v3.Vec, tri *triangle) float64 {
	a := tri.a.Sub(p)
	b := tri.b.Sub(p)
	c := tri.c.Sub(p)
	la, lb, lc := a.Length(), b.Length(), c.Length()
	num := a.Dot(b.Cross(c))
	den := la*lb*lc + a.Dot(b)*lc + b.Dot(c)*la + c.Dot(a)*lb
	return 2 * math.Atan2(num, den)
}
