package shape

import (
	"math"
	"testing"

	"github.com/chazu/mallet/pkg/kernel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// signedVolume is positive for a closed mesh wound outward.
func signedVolume(m *kernel.Mesh) float64 {
	v := func(i uint32) [3]float64 {
		return [3]float64{
			float64(m.Vertices[i*3]),
			float64(m.Vertices[i*3+1]),
			float64(m.Vertices[i*3+2]),
		}
	}
	vol := 0.0
	for t := 0; t < m.TriangleCount(); t++ {
		a, b, c := v(m.Indices[t*3]), v(m.Indices[t*3+1]), v(m.Indices[t*3+2])
		cross := [3]float64{
			b[1]*c[2] - b[2]*c[1],
			b[2]*c[0] - b[0]*c[2],
			b[0]*c[1] - b[1]*c[0],
		}
		vol += a[0]*cross[0] + a[1]*cross[1] + a[2]*cross[2]
	}
	return vol / 6
}

func TestBuildPrimitives(t *testing.T) {
	tests := []struct {
		kind      Kind
		segments  int
		triangles int
		volume    float64
	}{
		{Box, 0, 12, 1},
		{Sphere, 0, 2 * 32 * 15, 4.0 / 3.0 * math.Pi * 0.125},
		{Cylinder, 0, 4 * 32, math.Pi * 0.25},
		{Prism, 0, 4 * 3, 0},
		{Prism, 6, 4 * 6, 0},
		{Cone, 0, 2 * 32, math.Pi * 0.25 / 3},
		{Pyramid, 0, 2 * 4, 0},
		{Wedge, 0, 4 * 3, 0},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			m := Build(tt.kind, tt.segments)
			require.NotNil(t, m)
			require.NoError(t, m.Validate())
			assert.Equal(t, tt.triangles, m.TriangleCount())

			min, max := m.Bounds()
			for i := 0; i < 3; i++ {
				assert.GreaterOrEqual(t, min[i], -0.5-1e-6, "min[%d]", i)
				assert.LessOrEqual(t, max[i], 0.5+1e-6, "max[%d]", i)
			}
			// Height axis is Y for every kind.
			assert.InDelta(t, -0.5, min[1], 1e-6)
			assert.InDelta(t, 0.5, max[1], 1e-6)

			vol := signedVolume(m)
			assert.Greater(t, vol, 0.0, "mesh must be wound outward")
			if tt.volume > 0 {
				assert.InDelta(t, tt.volume, vol, tt.volume*0.05)
			}
		})
	}
}

func TestPrimitivesAreClosed(t *testing.T) {
	for _, k := range append(Offered(), Wedge) {
		t.Run(string(k), func(t *testing.T) {
			_, idx := kernel.Weld(Build(k, 0), 0)
			assert.Equal(t, 0, kernel.OpenEdges(idx))
		})
	}
}

func TestNormalsAreUnitLength(t *testing.T) {
	for _, k := range Offered() {
		m := Build(k, 0)
		for i := 0; i < m.VertexCount(); i++ {
			nx, ny, nz := m.Normals[i*3], m.Normals[i*3+1], m.Normals[i*3+2]
			l := math.Sqrt(float64(nx*nx + ny*ny + nz*nz))
			if math.Abs(l-1) > 1e-5 {
				t.Fatalf("%s: normal %d has length %f", k, i, l)
			}
		}
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	for _, k := range Offered() {
		assert.Equal(t, Build(k, 24), Build(k, 24), "kind %s", k)
	}
}

func TestBuildCustomIsNil(t *testing.T) {
	assert.Nil(t, Build(Custom, 0))
}

func TestBuildUnknownKindIsBox(t *testing.T) {
	assert.Equal(t, Build(Box, 0), Build(Kind("torus"), 0))
	assert.Equal(t, Build(Box, 0), Build(Kind(""), 7))
}

func TestEffectiveSegments(t *testing.T) {
	tests := []struct {
		name      string
		kind      Kind
		segments  int
		wantWidth int
		wantRings int
	}{
		{"prism default is 3 not 32", Prism, 0, 3, 0},
		{"pyramid default", Pyramid, 0, 4, 0},
		{"prism upper clamp", Prism, 40, 12, 0},
		{"pyramid lower clamp", Pyramid, 1, 3, 0},
		{"cylinder default", Cylinder, 0, 32, 0},
		{"cylinder minimum", Cylinder, 3, 8, 0},
		{"cone minimum", Cone, 5, 8, 0},
		{"cone large", Cone, 64, 64, 0},
		{"sphere default", Sphere, 0, 32, 16},
		{"sphere ring floor", Sphere, 10, 10, 16},
		{"sphere width floor", Sphere, 4, 8, 16},
		{"sphere rings follow width", Sphere, 64, 64, 32},
		{"wedge fixed", Wedge, 9, 3, 0},
		{"box has none", Box, 9, 0, 0},
		{"negative means default", Cylinder, -4, 32, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, r := EffectiveSegments(tt.kind, tt.segments)
			assert.Equal(t, tt.wantWidth, w)
			assert.Equal(t, tt.wantRings, r)
		})
	}
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind(" Sphere ")
	require.NoError(t, err)
	assert.Equal(t, Sphere, k)

	_, err = ParseKind("torus")
	assert.Error(t, err)
}

func TestOfferedExcludesLegacyAndCustom(t *testing.T) {
	assert.NotContains(t, Offered(), Wedge)
	assert.NotContains(t, Offered(), Custom)
	assert.Len(t, Offered(), 6)
}

func TestKindPredicates(t *testing.T) {
	assert.True(t, Sphere.HasSegments())
	assert.False(t, Box.HasSegments())
	assert.False(t, Wedge.HasSegments())
	assert.False(t, Custom.Procedural())
	assert.True(t, Kind("torus").Procedural())
	assert.False(t, Kind("torus").Known())
}
