package part

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/mallet/pkg/kernel"
	"github.com/chazu/mallet/pkg/shape"
)

func TestNewDefaults(t *testing.T) {
	p := New(shape.Sphere, StandardDefaults(), 1)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, shape.Sphere, p.Kind)
	assert.Equal(t, Vec3{DefaultSize, DefaultSize, DefaultSize}, p.Scale)
	assert.Equal(t, Vec3{}, p.Position)
	assert.Equal(t, Vec3{}, p.Rotation)
	assert.Equal(t, DefaultPalette[1], p.Color)
	assert.Zero(t, p.Segments)
	assert.Nil(t, p.BakedMesh)

	q := New(shape.Sphere, StandardDefaults(), 1)
	assert.NotEqual(t, p.ID, q.ID, "ids are unique")
}

func TestNewSizeFallback(t *testing.T) {
	p := New(shape.Box, Defaults{}, 0)
	assert.Equal(t, Vec3{DefaultSize, DefaultSize, DefaultSize}, p.Scale)
	assert.Empty(t, p.Color)
}

func TestColorForCycles(t *testing.T) {
	d := Defaults{Palette: []string{"#000000", "#ffffff"}}
	assert.Equal(t, "#000000", d.ColorFor(0))
	assert.Equal(t, "#ffffff", d.ColorFor(1))
	assert.Equal(t, "#000000", d.ColorFor(2))
}

func TestEffectiveSegmentsPrismDefault(t *testing.T) {
	p := New(shape.Prism, StandardDefaults(), 0)
	assert.Equal(t, 3, p.EffectiveSegments())
	c := New(shape.Cylinder, StandardDefaults(), 0)
	assert.Equal(t, 32, c.EffectiveSegments())
}

func TestCloneIsDeep(t *testing.T) {
	p := New(shape.Custom, StandardDefaults(), 0)
	p.BakedMesh = []byte{1, 2, 3}
	c := p.Clone()
	c.BakedMesh[0] = 9
	c.Position.X = 5
	assert.Equal(t, byte(1), p.BakedMesh[0])
	assert.Zero(t, p.Position.X)

	assert.Nil(t, CloneAll(nil))
	all := CloneAll([]Part{p})
	all[0].BakedMesh[1] = 7
	assert.Equal(t, byte(2), p.BakedMesh[1])
}

func TestSetScale(t *testing.T) {
	tests := []struct {
		name    string
		v       Vec3
		wantErr bool
	}{
		{"positive", Vec3{1, 2, 3}, false},
		{"zero", Vec3{0, 1, 1}, true},
		{"negative", Vec3{1, -1, 1}, true},
		{"nan", Vec3{math.NaN(), 1, 1}, true},
		{"inf", Vec3{1, math.Inf(1), 1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(shape.Box, StandardDefaults(), 0)
			before := p.Scale
			err := p.SetScale(tt.v)
			if tt.wantErr {
				var fe *FieldError
				require.True(t, errors.As(err, &fe))
				assert.Equal(t, "scale", fe.Field)
				assert.Equal(t, before, p.Scale, "rejected edit leaves part unchanged")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.v, p.Scale)
		})
	}
}

func TestSetPositionAndRotation(t *testing.T) {
	p := New(shape.Box, StandardDefaults(), 0)
	require.NoError(t, p.SetPosition(Vec3{-3, 0, 4}))
	require.NoError(t, p.SetRotation(Vec3{0, 90, -45}))
	assert.Equal(t, Vec3{-3, 0, 4}, p.Position)
	assert.Equal(t, Vec3{0, 90, -45}, p.Rotation)

	assert.Error(t, p.SetPosition(Vec3{math.NaN(), 0, 0}))
	assert.Error(t, p.SetRotation(Vec3{0, math.Inf(-1), 0}))
	assert.Equal(t, Vec3{-3, 0, 4}, p.Position)
}

func TestSetColor(t *testing.T) {
	p := New(shape.Box, StandardDefaults(), 0)
	require.NoError(t, p.SetColor("#E67E22"))
	assert.Equal(t, "#e67e22", p.Color)

	require.NoError(t, p.SetColor("#fff"))
	assert.Equal(t, "#ffffff", p.Color)

	assert.Error(t, p.SetColor("orange"))
	assert.Equal(t, "#ffffff", p.Color)

	require.NoError(t, p.SetColor(""))
	assert.Empty(t, p.Color)
}

func TestSetSegments(t *testing.T) {
	tests := []struct {
		name    string
		kind    shape.Kind
		n       int
		want    int
		wantErr bool
	}{
		{"in range", shape.Cylinder, 24, 24, false},
		{"clamped low", shape.Prism, 1, MinSegments, false},
		{"clamped high", shape.Sphere, 500, MaxSegments, false},
		{"box rejects", shape.Box, 8, 0, true},
		{"custom rejects", shape.Custom, 8, 0, true},
		{"wedge rejects", shape.Wedge, 8, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(tt.kind, StandardDefaults(), 0)
			err := p.SetSegments(tt.n)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Zero(t, p.Segments)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Segments)
		})
	}
}

func validBaked(t *testing.T) []byte {
	t.Helper()
	data, err := kernel.EncodeMesh(shape.Build(shape.Box, 0))
	require.NoError(t, err)
	return data
}

func TestValidate(t *testing.T) {
	custom := New(shape.Custom, StandardDefaults(), 0)
	custom.BakedMesh = validBaked(t)

	tests := []struct {
		name         string
		mutate       func(ps []Part) []Part
		wantErrors   int
		wantWarnings int
	}{
		{"valid", func(ps []Part) []Part { return ps }, 0, 0},
		{"duplicate id", func(ps []Part) []Part { ps[1].ID = ps[0].ID; return ps }, 1, 0},
		{"empty id", func(ps []Part) []Part { ps[0].ID = ""; return ps }, 1, 0},
		{"nan position", func(ps []Part) []Part { ps[0].Position.Y = math.NaN(); return ps }, 1, 0},
		{"zero scale", func(ps []Part) []Part { ps[0].Scale.X = 0; return ps }, 0, 1},
		{"custom without mesh", func(ps []Part) []Part { ps[2].BakedMesh = nil; return ps }, 1, 0},
		{"custom with bad mesh", func(ps []Part) []Part { ps[2].BakedMesh = []byte{0xde, 0xad}; return ps }, 0, 1},
		{"unknown kind", func(ps []Part) []Part { ps[0].Kind = "torus"; return ps }, 0, 1},
		{"segments out of range", func(ps []Part) []Part { ps[1].Segments = 200; return ps }, 0, 1},
		{"bad color", func(ps []Part) []Part { ps[1].Color = "red"; return ps }, 0, 1},
		{"baked mesh on primitive", func(ps []Part) []Part { ps[0].BakedMesh = []byte{1}; return ps }, 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parts := []Part{
				New(shape.Box, StandardDefaults(), 0),
				New(shape.Cylinder, StandardDefaults(), 1),
				custom.Clone(),
			}
			res := Validate(tt.mutate(parts))
			assert.Len(t, res.Errors, tt.wantErrors, "errors: %v", res.Errors)
			assert.Len(t, res.Warnings, tt.wantWarnings, "warnings: %v", res.Warnings)
			assert.Equal(t, tt.wantErrors == 0, res.OK())
		})
	}
}

func TestValidationErrorString(t *testing.T) {
	e := ValidationError{Index: 2, Message: "boom", Severity: SeverityWarning}
	assert.Equal(t, "[warning] part 2: boom", e.Error())
	assert.Equal(t, "error", SeverityError.String())
}
