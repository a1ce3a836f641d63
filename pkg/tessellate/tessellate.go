// Package tessellate turns a part collection into world-space triangle
// meshes for display and export. One mesh is produced per part.
package tessellate

import (
	"fmt"

	"github.com/chazu/mallet/pkg/brush"
	"github.com/chazu/mallet/pkg/kernel"
	"github.com/chazu/mallet/pkg/part"
)

// Item is the render mesh of one part.
type Item struct {
	Index int
	Color string
	Mesh  *kernel.Mesh // world space, PartName is the part ID
}

// Skip records a part that could not be meshed. It is rendered as absent.
type Skip struct {
	Index  int
	PartID string
	Err    error
}

func (s Skip) Error() string {
	return fmt.Sprintf("part %d (%s): %v", s.Index, s.PartID, s.Err)
}

// Result holds the meshes of every renderable part in collection order.
type Result struct {
	Items   []Item
	Skipped []Skip
}

// Tessellate builds a world-space mesh for each part. It never mutates
// parts. A part whose geometry cannot be built (a malformed baked mesh, a
// non-finite transform) is reported in Skipped and does not prevent the
// rest from rendering.
func Tessellate(parts []part.Part) Result {
	var res Result
	for i, p := range parts {
		b, err := brush.Build(p)
		if err != nil {
			res.Skipped = append(res.Skipped, Skip{Index: i, PartID: p.ID, Err: err})
			continue
		}
		res.Items = append(res.Items, Item{Index: i, Color: p.Color, Mesh: b.World()})
	}
	return res
}

// Meshes returns the item meshes in order.
func (r Result) Meshes() []*kernel.Mesh {
	out := make([]*kernel.Mesh, len(r.Items))
	for i, it := range r.Items {
		out[i] = it.Mesh
	}
	return out
}

// TriangleCount returns the total number of triangles.
func (r Result) TriangleCount() int {
	n := 0
	for _, it := range r.Items {
		n += it.Mesh.TriangleCount()
	}
	return n
}

// Merge concatenates meshes into one triangle soup, for example to write
// a whole scene to a single STL file. It returns an empty mesh for no
// input.
func Merge(meshes []*kernel.Mesh) *kernel.Mesh {
	out := &kernel.Mesh{}
	for _, m := range meshes {
		if m == nil {
			continue
		}
		base := uint32(out.VertexCount())
		out.Vertices = append(out.Vertices, m.Vertices...)
		out.Normals = append(out.Normals, m.Normals...)
		for _, idx := range m.Indices {
			out.Indices = append(out.Indices, base+idx)
		}
	}
	return out
}
