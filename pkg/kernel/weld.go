package kernel

import "math"

// WeldTolerance is the grid size used to merge coincident vertices.
const WeldTolerance = 1e-5

// Weld merges vertices whose positions fall in the same tolerance cell and
// returns an indexed position-only mesh. Triangles that collapse to a line
// or a point are dropped. Kernels that require shared topology (Manifold)
// import welded meshes.
func Weld(m *Mesh, tolerance float64) (positions []float32, indices []uint32) {
	if tolerance <= 0 {
		tolerance = WeldTolerance
	}
	type cell [3]int64
	lookup := make(map[cell]uint32, m.VertexCount())
	remap := make([]uint32, m.VertexCount())

	for i := 0; i < m.VertexCount(); i++ {
		var key cell
		for k := 0; k < 3; k++ {
			key[k] = int64(math.Round(float64(m.Vertices[i*3+k]) / tolerance))
		}
		idx, ok := lookup[key]
		if !ok {
			idx = uint32(len(positions) / 3)
			positions = append(positions, m.Vertices[i*3], m.Vertices[i*3+1], m.Vertices[i*3+2])
			lookup[key] = idx
		}
		remap[i] = idx
	}

	indices = make([]uint32, 0, len(m.Indices))
	for t := 0; t+2 < len(m.Indices); t += 3 {
		a, b, c := remap[m.Indices[t]], remap[m.Indices[t+1]], remap[m.Indices[t+2]]
		if a == b || b == c || a == c {
			continue
		}
		indices = append(indices, a, b, c)
	}
	return positions, indices
}

// OpenEdges counts directed edges of a welded mesh that are not matched by
// the opposite edge of a neighboring triangle. A closed, consistently wound
// mesh has zero open edges.
func OpenEdges(indices []uint32) int {
	type edge [2]uint32
	count := make(map[edge]int, len(indices))
	for t := 0; t+2 < len(indices); t += 3 {
		tri := [3]uint32{indices[t], indices[t+1], indices[t+2]}
		for k := 0; k < 3; k++ {
			count[edge{tri[k], tri[(k+1)%3]}]++
		}
	}
	open := 0
	for e, n := range count {
		back := count[edge{e[1], e[0]}]
		if n != 1 || back != 1 {
			open++
		}
	}
	return open
}
