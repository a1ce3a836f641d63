// Package brush turns part descriptors into world-space meshes ready for
// boolean evaluation.
package brush

import (
	"errors"
	"fmt"
	"math"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/mallet/pkg/kernel"
	"github.com/chazu/mallet/pkg/part"
	"github.com/chazu/mallet/pkg/shape"
)

// Brush is a part's local mesh together with its resolved world matrix.
type Brush struct {
	PartID string
	Local  *kernel.Mesh
	Matrix sdf.M44 // T · Rz · Ry · Rx · S

	rotation sdf.M44
	scale    part.Vec3
}

// Build resolves p into a Brush. Procedural kinds use the canonical unit
// mesh for (kind, segments); custom parts decode their baked mesh, which
// fails with a *kernel.GeometryDecodeError.
func Build(p part.Part) (*Brush, error) {
	var local *kernel.Mesh
	if p.Kind == shape.Custom {
		m, err := kernel.DecodeMesh(p.BakedMesh)
		if err != nil {
			var gde *kernel.GeometryDecodeError
			if errors.As(err, &gde) {
				gde.PartID = p.ID
			}
			return nil, err
		}
		local = m
	} else {
		local = shape.Build(p.Kind, p.Segments)
	}
	if !p.Position.Finite() || !p.Rotation.Finite() || !p.Scale.Finite() {
		return nil, fmt.Errorf("brush: part %s has a non-finite transform", p.ID)
	}

	rot := Rotation(p.Rotation)
	m := sdf.Translate3d(vec(p.Position)).
		Mul(rot).
		Mul(sdf.Scale3d(vec(p.Scale)))

	return &Brush{
		PartID:   p.ID,
		Local:    local,
		Matrix:   m,
		rotation: rot,
		scale:    p.Scale,
	}, nil
}

// Rotation returns Rz · Ry · Rx for Euler angles in degrees, so X is
// applied first.
func Rotation(deg part.Vec3) sdf.M44 {
	const toRad = math.Pi / 180.0
	return sdf.RotateZ(deg.Z * toRad).
		Mul(sdf.RotateY(deg.Y * toRad)).
		Mul(sdf.RotateX(deg.X * toRad))
}

func vec(v part.Vec3) v3.Vec {
	return v3.Vec{X: v.X, Y: v.Y, Z: v.Z}
}

// World returns a new mesh with the brush matrix applied to every vertex.
// A mirroring scale reverses triangle winding so the result stays
// outward-facing. Zero scale yields degenerate geometry, which is passed
// through as is.
func (b *Brush) World() *kernel.Mesh {
	out := &kernel.Mesh{
		Vertices: make([]float32, len(b.Local.Vertices)),
		Indices:  append([]uint32(nil), b.Local.Indices...),
		PartName: b.PartID,
	}
	for i := 0; i+2 < len(b.Local.Vertices); i += 3 {
		p := b.Matrix.MulPosition(v3.Vec{
			X: float64(b.Local.Vertices[i]),
			Y: float64(b.Local.Vertices[i+1]),
			Z: float64(b.Local.Vertices[i+2]),
		})
		out.Vertices[i] = float32(p.X)
		out.Vertices[i+1] = float32(p.Y)
		out.Vertices[i+2] = float32(p.Z)
	}

	det := b.scale.X * b.scale.Y * b.scale.Z
	if det < 0 {
		for t := 0; t+2 < len(out.Indices); t += 3 {
			out.Indices[t+1], out.Indices[t+2] = out.Indices[t+2], out.Indices[t+1]
		}
	}

	if det == 0 || len(b.Local.Normals) != len(b.Local.Vertices) {
		out.Normals = kernel.SmoothNormals(out.Vertices, out.Indices)
		return out
	}

	// Normals transform by the inverse transpose, which for R·S is R·S⁻¹.
	inv := v3.Vec{X: 1 / b.scale.X, Y: 1 / b.scale.Y, Z: 1 / b.scale.Z}
	out.Normals = make([]float32, len(b.Local.Normals))
	for i := 0; i+2 < len(b.Local.Normals); i += 3 {
		n := v3.Vec{
			X: float64(b.Local.Normals[i]) * inv.X,
			Y: float64(b.Local.Normals[i+1]) * inv.Y,
			Z: float64(b.Local.Normals[i+2]) * inv.Z,
		}
		n = b.rotation.MulPosition(n)
		if l := n.Length(); l > 0 {
			n = n.MulScalar(1 / l)
		}
		out.Normals[i] = float32(n.X)
		out.Normals[i+1] = float32(n.Y)
		out.Normals[i+2] = float32(n.Z)
	}
	return out
}
