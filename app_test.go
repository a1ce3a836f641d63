package main

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/mallet/pkg/config"
	"github.com/chazu/mallet/pkg/kernel/kerneltest"
	"github.com/chazu/mallet/pkg/kernel/manifold"
	"github.com/chazu/mallet/pkg/part"
	"github.com/chazu/mallet/pkg/session"
	"github.com/chazu/mallet/pkg/shape"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestApp returns an App backed by the bounding-box kernel.
func newTestApp(t *testing.T) *App {
	t.Helper()
	return newApp(config.Default(), quietLogger(), &kerneltest.Kernel{}, "test")
}

func readExample(t *testing.T, name string) string {
	t.Helper()
	src, err := os.ReadFile(filepath.Join("examples", name))
	require.NoError(t, err)
	return string(src)
}

// TestE2EGalleryExample exercises the full pipeline: script -> engine ->
// session -> tessellate -> meshes.
func TestE2EGalleryExample(t *testing.T) {
	app := newTestApp(t)
	result := app.RunScript(readExample(t, "gallery.mallet"))
	require.Empty(t, result.Errors)

	scene := result.Scene
	require.Len(t, scene.Meshes, len(shape.Offered()))
	assert.Empty(t, scene.Selection)
	assert.Empty(t, scene.Warnings)
	for i, m := range scene.Meshes {
		assert.Equal(t, i, m.Index)
		assert.Equal(t, scene.Parts[i].ID, m.PartName)
		assert.NotEmpty(t, m.Vertices, "part %d", i)
		assert.Len(t, m.Normals, len(m.Vertices), "part %d", i)
		assert.NotEmpty(t, m.Indices, "part %d", i)
		assert.NotEmpty(t, m.Color, "part %d", i)
	}
	assert.Equal(t, "#e74c3c", scene.Meshes[4].Color)
	assert.Equal(t, 24, scene.Parts[2].Segments)
}

func TestE2EBooleanExamples(t *testing.T) {
	for _, name := range []string{"bite.mallet", "bracket.mallet"} {
		t.Run(name, func(t *testing.T) {
			app := newTestApp(t)
			result := app.RunScript(readExample(t, name))
			require.Empty(t, result.Errors)
			require.Len(t, result.Scene.Parts, 1)
			assert.Equal(t, shape.Custom, result.Scene.Parts[0].Kind)
			assert.Equal(t, []int{0}, result.Scene.Selection)
			require.Len(t, result.Scene.Meshes, 1)
			assert.True(t, result.Scene.CanUndo)
		})
	}
}

// TestE2EBiteWithSdfx runs a real boolean through the sdfx kernel.
func TestE2EBiteWithSdfx(t *testing.T) {
	if testing.Short() {
		t.Skip("marching cubes in -short mode")
	}
	cfg := config.Default()
	cfg.MeshCells = 24
	app := NewApp(cfg, quietLogger())

	result := app.RunScript(readExample(t, "bite.mallet"))
	require.Empty(t, result.Errors)
	require.Len(t, result.Scene.Meshes, 1)
	assert.Equal(t, "sdfx", result.Scene.Kernel)

	// The bite removes a corner but not a whole face, so the bounding box,
	// and with it the part's position, stays centered on the block.
	p := result.Scene.Parts[0]
	for _, c := range []float64{p.Position.X, p.Position.Y, p.Position.Z} {
		assert.InDelta(t, 0, c, 0.25)
	}
	assert.Greater(t, len(result.Scene.Meshes[0].Indices)/3, 12)
}

func TestE2EEmptySource(t *testing.T) {
	app := newTestApp(t)
	for _, src := range []string{"", "   \n\t", ";; comments only\n; more\n"} {
		result := app.RunScript(src)
		assert.Empty(t, result.Errors, "source %q", src)
		assert.Empty(t, result.Scene.Meshes)
		assert.NotNil(t, result.Scene.Parts, "empty collections serialize as []")
	}
}

func TestE2ESyntaxError(t *testing.T) {
	app := newTestApp(t)
	result := app.RunScript("(add :box)\n(add :cone")
	require.NotEmpty(t, result.Errors)
	assert.NotEmpty(t, result.Errors[0].Message)
	assert.Empty(t, result.Scene.Parts, "failed script leaves the model unchanged")
}

func TestE2EFailedScriptLeavesModel(t *testing.T) {
	app := newTestApp(t)
	_, err := app.AddPart("box")
	require.NoError(t, err)
	before := app.Scene().Parts

	result := app.RunScript("(move 0 (vec3 9 9 9))\n(remove 4)")
	require.NotEmpty(t, result.Errors)
	assert.Equal(t, before, result.Scene.Parts)
}

func TestE2ERapidRuns(t *testing.T) {
	app := newTestApp(t)
	for i := 0; i < 20; i++ {
		result := app.RunScript("(add :box)")
		require.Empty(t, result.Errors, "run %d", i)
	}
	assert.Len(t, app.Scene().Parts, 20)
}

func TestAppInteractiveFlow(t *testing.T) {
	app := newTestApp(t)

	_, err := app.AddPart("Box")
	require.NoError(t, err)
	scene, err := app.AddPart("cone")
	require.NoError(t, err)
	assert.Equal(t, []int{1}, scene.Selection)

	scene, err = app.Pick(0, true)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, scene.Selection)

	scene, err = app.Boolean("union")
	require.NoError(t, err)
	require.Len(t, scene.Parts, 1)
	assert.Equal(t, shape.Custom, scene.Parts[0].Kind)

	scene = app.Undo()
	assert.Len(t, scene.Parts, 2)
	assert.Empty(t, scene.Selection)
	assert.True(t, scene.CanRedo)

	scene = app.Redo()
	assert.Len(t, scene.Parts, 1)

	scene, err = app.Pick(-1, false)
	require.NoError(t, err)
	assert.Empty(t, scene.Selection)
}

func TestAppRejectsBadInput(t *testing.T) {
	app := newTestApp(t)

	_, err := app.AddPart("torus")
	assert.Error(t, err)
	_, err = app.AddPart("custom")
	assert.ErrorIs(t, err, session.ErrKindNotOffered)

	_, err = app.Boolean("xor")
	assert.Error(t, err)
	_, err = app.Boolean("union")
	assert.Error(t, err, "no selection")

	_, err = app.Pick(3, false)
	assert.Error(t, err)
}

func TestExportImportParts(t *testing.T) {
	app := newTestApp(t)
	result := app.RunScript(readExample(t, "bite.mallet"))
	require.Empty(t, result.Errors)

	data, err := app.ExportParts()
	require.NoError(t, err)

	other := newTestApp(t)
	require.NoError(t, other.ImportParts(data))
	scene := other.Scene()
	assert.Equal(t, app.Scene().Parts, scene.Parts)
	assert.False(t, scene.CanUndo)
	assert.Len(t, scene.Meshes, 1, "baked mesh survives JSON")
}

func TestImportPartsRejectsInvalid(t *testing.T) {
	app := newTestApp(t)
	assert.Error(t, app.ImportParts([]byte("{not json")))

	p := part.New(shape.Box, part.StandardDefaults(), 0)
	data, err := json.Marshal([]part.Part{p, p})
	require.NoError(t, err)
	err = app.ImportParts(data)
	var le *session.LoadError
	require.True(t, errors.As(err, &le))
	assert.True(t, strings.Contains(err.Error(), "duplicate"))
}

func TestSceneReportsUnrenderablePart(t *testing.T) {
	app := newTestApp(t)
	_, err := app.AddPart("box")
	require.NoError(t, err)
	_, err = app.AddPart("sphere")
	require.NoError(t, err)

	bad, err := app.session.Part(0)
	require.NoError(t, err)
	bad.Kind = shape.Custom
	bad.BakedMesh = []byte{0xff, 0x00}
	require.NoError(t, app.session.UpdatePart(0, bad))

	scene := app.Scene()
	assert.Len(t, scene.Parts, 2)
	require.Len(t, scene.Meshes, 1)
	assert.Equal(t, 1, scene.Meshes[0].Index)
	require.Len(t, scene.Warnings, 1)
	assert.Contains(t, scene.Warnings[0].Message, bad.ID)
}

func TestImportPartsWithCorruptCustomPart(t *testing.T) {
	app := newTestApp(t)
	good := part.New(shape.Box, part.StandardDefaults(), 0)
	corrupt := part.New(shape.Box, part.StandardDefaults(), 1)
	corrupt.Kind = shape.Custom
	corrupt.BakedMesh = []byte{0xde, 0xad, 0xbe, 0xef}
	data, err := json.Marshal([]part.Part{good, corrupt})
	require.NoError(t, err)

	require.NoError(t, app.ImportParts(data))
	scene := app.Scene()
	assert.Len(t, scene.Parts, 2)
	require.Len(t, scene.Meshes, 1)
	assert.Equal(t, 0, scene.Meshes[0].Index)
	require.Len(t, scene.Warnings, 1)
	assert.Contains(t, scene.Warnings[0].Message, corrupt.ID)
}

func TestExportSTL(t *testing.T) {
	app := newTestApp(t)
	path := filepath.Join(t.TempDir(), "model.stl")
	assert.Error(t, app.ExportSTL(path), "empty model")

	result := app.RunScript(readExample(t, "gallery.mallet"))
	require.Empty(t, result.Errors)
	require.NoError(t, app.ExportSTL(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(84))
}

func TestSceneIsJSONSerializable(t *testing.T) {
	app := newTestApp(t)
	_, err := app.AddPart("pyramid")
	require.NoError(t, err)

	data, err := json.Marshal(app.Scene())
	require.NoError(t, err)
	for _, key := range []string{`"parts"`, `"meshes"`, `"partName"`, `"canUndo"`, `"selection":[0]`} {
		assert.Contains(t, string(data), key)
	}
}

func TestSelectKernelFallback(t *testing.T) {
	cfg := config.Default()
	cfg.Kernel = config.KernelManifold
	k, name := selectKernel(cfg, quietLogger())
	require.NotNil(t, k)

	if _, err := manifold.New(); err != nil {
		assert.Equal(t, config.KernelSdfx, name)
	} else {
		assert.Equal(t, config.KernelManifold, name)
	}

	_, name = selectKernel(config.Default(), quietLogger())
	assert.Equal(t, config.KernelSdfx, name)
}

func TestHistoryLimitFromConfig(t *testing.T) {
	addAndUndo := func(cfg *config.Config) (undos int) {
		app := newApp(cfg, quietLogger(), &kerneltest.Kernel{}, "test")
		for i := 0; i < config.DefaultHistoryLimit+5; i++ {
			_, err := app.AddPart("box")
			require.NoError(t, err)
		}
		for app.session.CanUndo() {
			app.Undo()
			undos++
		}
		return undos
	}

	assert.Equal(t, config.DefaultHistoryLimit, addAndUndo(config.Default()))

	cfg, err := config.Parse([]byte("history_limit: -1\n"))
	require.NoError(t, err)
	assert.Equal(t, config.DefaultHistoryLimit+5, addAndUndo(cfg))
}
