package shape

import (
	"github.com/chazu/mallet/pkg/kernel"
	"github.com/chewxy/math32"
)

const (
	radius = 0.5
	half   = 0.5
)

type vec3 [3]float32

func (a vec3) sub(b vec3) vec3 { return vec3{a[0] - b[0], a[1] - b[1], a[2] - b[2]} }

func (a vec3) cross(b vec3) vec3 {
	return vec3{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

func (a vec3) normalize() vec3 {
	l := math32.Sqrt(a[0]*a[0] + a[1]*a[1] + a[2]*a[2])
	if l == 0 {
		return a
	}
	return vec3{a[0] / l, a[1] / l, a[2] / l}
}

// builder accumulates an indexed mesh.
type builder struct {
	m kernel.Mesh
}

func (b *builder) vertex(p, n vec3) uint32 {
	idx := uint32(len(b.m.Vertices) / 3)
	b.m.Vertices = append(b.m.Vertices, p[0], p[1], p[2])
	b.m.Normals = append(b.m.Normals, n[0], n[1], n[2])
	return idx
}

func (b *builder) tri(i, j, k uint32) {
	b.m.Indices = append(b.m.Indices, i, j, k)
}

// flatTri adds a triangle with its own vertices and face normal.
func (b *builder) flatTri(p0, p1, p2 vec3) {
	n := p1.sub(p0).cross(p2.sub(p0)).normalize()
	b.tri(b.vertex(p0, n), b.vertex(p1, n), b.vertex(p2, n))
}

// flatQuad adds two triangles (p0,p1,p2) and (p0,p2,p3) sharing a normal.
func (b *builder) flatQuad(p0, p1, p2, p3 vec3) {
	n := p1.sub(p0).cross(p2.sub(p0)).normalize()
	i0, i1, i2, i3 := b.vertex(p0, n), b.vertex(p1, n), b.vertex(p2, n), b.vertex(p3, n)
	b.tri(i0, i1, i2)
	b.tri(i0, i2, i3)
}

func (b *builder) mesh() *kernel.Mesh {
	m := b.m
	return &m
}

// ring returns n points on the circle of the given radius at height y.
// Angle θ runs from +Z toward +X.
func ring(n int, y float32) []vec3 {
	pts := make([]vec3, n)
	for i := range pts {
		theta := 2 * math32.Pi * float32(i) / float32(n)
		pts[i] = vec3{radius * math32.Sin(theta), y, radius * math32.Cos(theta)}
	}
	return pts
}

// caps adds the top and bottom discs of a ring pair.
func caps(b *builder, bottom, top []vec3) {
	n := len(bottom)
	if top != nil {
		up := vec3{0, 1, 0}
		c := b.vertex(vec3{0, half, 0}, up)
		idx := make([]uint32, n)
		for i, p := range top {
			idx[i] = b.vertex(p, up)
		}
		for i := 0; i < n; i++ {
			b.tri(c, idx[i], idx[(i+1)%n])
		}
	}
	down := vec3{0, -1, 0}
	c := b.vertex(vec3{0, -half, 0}, down)
	idx := make([]uint32, n)
	for i, p := range bottom {
		idx[i] = b.vertex(p, down)
	}
	for i := 0; i < n; i++ {
		b.tri(c, idx[(i+1)%n], idx[i])
	}
}

func box() *kernel.Mesh {
	corner := func(i int) vec3 {
		return vec3{
			-half + float32(i&1),
			-half + float32((i>>1)&1),
			-half + float32((i>>2)&1),
		}
	}
	faces := [6][4]int{
		{0, 4, 6, 2}, // -X
		{1, 3, 7, 5}, // +X
		{0, 1, 5, 4}, // -Y
		{2, 6, 7, 3}, // +Y
		{0, 2, 3, 1}, // -Z
		{4, 5, 7, 6}, // +Z
	}
	var b builder
	for _, f := range faces {
		b.flatQuad(corner(f[0]), corner(f[1]), corner(f[2]), corner(f[3]))
	}
	return b.mesh()
}

// prism builds an n-sided unit-height prism. With smooth set the side
// normals follow the circle, which renders as a cylinder.
func prism(n int, smooth bool) *kernel.Mesh {
	bottom := ring(n, -half)
	top := ring(n, half)
	var b builder
	if smooth {
		bi := make([]uint32, n)
		ti := make([]uint32, n)
		for i := 0; i < n; i++ {
			nrm := vec3{bottom[i][0], 0, bottom[i][2]}.normalize()
			bi[i] = b.vertex(bottom[i], nrm)
			ti[i] = b.vertex(top[i], nrm)
		}
		for i := 0; i < n; i++ {
			j := (i + 1) % n
			b.tri(bi[i], bi[j], ti[j])
			b.tri(bi[i], ti[j], ti[i])
		}
	} else {
		for i := 0; i < n; i++ {
			j := (i + 1) % n
			b.flatQuad(bottom[i], bottom[j], top[j], top[i])
		}
	}
	caps(&b, bottom, top)
	return b.mesh()
}

// cone builds an n-sided unit-height cone with its apex on +Y. With smooth
// set the side normals follow the circular cone surface.
func cone(n int, smooth bool) *kernel.Mesh {
	bottom := ring(n, -half)
	apex := vec3{0, half, 0}
	var b builder
	if smooth {
		// The slant normal of a cone of height h and radius r is
		// proportional to (h·sinθ, r, h·cosθ).
		const h = 2 * half
		slant := func(sin, cos float32) vec3 {
			return vec3{h * sin, radius, h * cos}.normalize()
		}
		bi := make([]uint32, n)
		for i, p := range bottom {
			bi[i] = b.vertex(p, slant(p[0]/radius, p[2]/radius))
		}
		for i := 0; i < n; i++ {
			j := (i + 1) % n
			mid := 2 * math32.Pi * (float32(i) + 0.5) / float32(n)
			a := b.vertex(apex, slant(math32.Sin(mid), math32.Cos(mid)))
			b.tri(bi[i], bi[j], a)
		}
	} else {
		for i := 0; i < n; i++ {
			b.flatTri(bottom[i], bottom[(i+1)%n], apex)
		}
	}
	caps(&b, bottom, nil)
	return b.mesh()
}

// sphere builds a UV sphere with width segments around and rings from
// pole to pole. Poles are single vertices.
func sphere(width, rings int) *kernel.Mesh {
	var b builder
	point := func(phi, theta float32) vec3 {
		return vec3{
			radius * math32.Sin(phi) * math32.Sin(theta),
			radius * math32.Cos(phi),
			radius * math32.Sin(phi) * math32.Cos(theta),
		}
	}
	add := func(p vec3) uint32 {
		return b.vertex(p, vec3{p[0] / radius, p[1] / radius, p[2] / radius})
	}

	top := add(vec3{0, radius, 0})
	grid := make([][]uint32, rings-1)
	for r := 1; r < rings; r++ {
		phi := math32.Pi * float32(r) / float32(rings)
		row := make([]uint32, width)
		for i := range row {
			theta := 2 * math32.Pi * float32(i) / float32(width)
			row[i] = add(point(phi, theta))
		}
		grid[r-1] = row
	}
	bottom := add(vec3{0, -radius, 0})

	for i := 0; i < width; i++ {
		j := (i + 1) % width
		b.tri(top, grid[0][i], grid[0][j])
	}
	for r := 0; r+1 < len(grid); r++ {
		up, lo := grid[r], grid[r+1]
		for i := 0; i < width; i++ {
			j := (i + 1) % width
			b.tri(lo[i], lo[j], up[j])
			b.tri(lo[i], up[j], up[i])
		}
	}
	last := grid[len(grid)-1]
	for i := 0; i < width; i++ {
		j := (i + 1) % width
		b.tri(bottom, last[j], last[i])
	}
	return b.mesh()
}
