package kernel

import (
	"fmt"
	"math"

	"github.com/chewxy/math32"
)

// Mesh is a triangle mesh suitable for rendering.
// All arrays are flat: vertices has 3 floats per vertex (x,y,z),
// normals has 3 floats per vertex, indices has 3 uint32s per triangle.
type Mesh struct {
	Vertices []float32 `json:"vertices"` // [x0,y0,z0, x1,y1,z1, ...]
	Normals  []float32 `json:"normals"`  // [nx0,ny0,nz0, ...]
	Indices  []uint32  `json:"indices"`  // [i0,i1,i2, ...] triangles
	PartName string    `json:"partName"` // which part this came from
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices) / 3
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Vertices) == 0 || len(m.Indices) == 0
}

// Clone returns a copy that shares no memory with m.
func (m *Mesh) Clone() *Mesh {
	return &Mesh{
		Vertices: append([]float32(nil), m.Vertices...),
		Normals:  append([]float32(nil), m.Normals...),
		Indices:  append([]uint32(nil), m.Indices...),
		PartName: m.PartName,
	}
}

// Validate checks that the flat arrays are consistent: whole vertices,
// one normal per vertex, whole triangles, and indices in range.
func (m *Mesh) Validate() error {
	if len(m.Vertices)%3 != 0 {
		return fmt.Errorf("vertex array length %d is not a multiple of 3", len(m.Vertices))
	}
	if len(m.Normals) != len(m.Vertices) {
		return fmt.Errorf("normals length %d != vertices length %d", len(m.Normals), len(m.Vertices))
	}
	if len(m.Indices)%3 != 0 {
		return fmt.Errorf("index array length %d is not a multiple of 3", len(m.Indices))
	}
	n := uint32(m.VertexCount())
	for i, idx := range m.Indices {
		if idx >= n {
			return fmt.Errorf("index %d at position %d out of range (%d vertices)", idx, i, n)
		}
	}
	for i, v := range m.Vertices {
		if math32.IsNaN(v) || math32.IsInf(v, 0) {
			return fmt.Errorf("vertex component %d is not finite", i)
		}
	}
	return nil
}

// Bounds returns the axis-aligned bounding box of the vertices.
// An empty mesh has zero bounds.
func (m *Mesh) Bounds() (min, max [3]float64) {
	if m.VertexCount() == 0 {
		return min, max
	}
	for k := 0; k < 3; k++ {
		min[k] = math.MaxFloat64
		max[k] = -math.MaxFloat64
	}
	for i := 0; i < len(m.Vertices); i += 3 {
		for k := 0; k < 3; k++ {
			v := float64(m.Vertices[i+k])
			if v < min[k] {
				min[k] = v
			}
			if v > max[k] {
				max[k] = v
			}
		}
	}
	return min, max
}

// Center returns the center of the bounding box.
func (m *Mesh) Center() [3]float64 {
	min, max := m.Bounds()
	return [3]float64{
		(min[0] + max[0]) / 2,
		(min[1] + max[1]) / 2,
		(min[2] + max[2]) / 2,
	}
}

// Translate moves every vertex by (x, y, z) in place.
func (m *Mesh) Translate(x, y, z float64) {
	dx, dy, dz := float32(x), float32(y), float32(z)
	for i := 0; i < len(m.Vertices); i += 3 {
		m.Vertices[i+0] += dx
		m.Vertices[i+1] += dy
		m.Vertices[i+2] += dz
	}
}

// SmoothNormals generates per-vertex normals by averaging the face normals
// of all triangles incident on each vertex.
func SmoothNormals(vertices []float32, indices []uint32) []float32 {
	numVerts := len(vertices) / 3
	normals := make([]float32, numVerts*3)

	numTris := len(indices) / 3
	for t := 0; t < numTris; t++ {
		i0 := indices[t*3+0]
		i1 := indices[t*3+1]
		i2 := indices[t*3+2]

		ax, ay, az := vertices[i0*3], vertices[i0*3+1], vertices[i0*3+2]
		bx, by, bz := vertices[i1*3], vertices[i1*3+1], vertices[i1*3+2]
		cx, cy, cz := vertices[i2*3], vertices[i2*3+1], vertices[i2*3+2]

		e1x, e1y, e1z := bx-ax, by-ay, bz-az
		e2x, e2y, e2z := cx-ax, cy-ay, cz-az

		// Unnormalized, so larger faces weigh more.
		nx := e1y*e2z - e1z*e2y
		ny := e1z*e2x - e1x*e2z
		nz := e1x*e2y - e1y*e2x

		for _, idx := range [3]uint32{i0, i1, i2} {
			normals[idx*3+0] += nx
			normals[idx*3+1] += ny
			normals[idx*3+2] += nz
		}
	}

	for i := 0; i < numVerts; i++ {
		nx, ny, nz := normals[i*3+0], normals[i*3+1], normals[i*3+2]
		length := math32.Sqrt(nx*nx + ny*ny + nz*nz)
		if length > 1e-12 {
			normals[i*3+0] = nx / length
			normals[i*3+1] = ny / length
			normals[i*3+2] = nz / length
		}
	}

	return normals
}
