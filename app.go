package main

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/chazu/mallet/pkg/config"
	"github.com/chazu/mallet/pkg/csg"
	"github.com/chazu/mallet/pkg/engine"
	"github.com/chazu/mallet/pkg/kernel"
	"github.com/chazu/mallet/pkg/kernel/manifold"
	"github.com/chazu/mallet/pkg/kernel/sdfx"
	"github.com/chazu/mallet/pkg/part"
	"github.com/chazu/mallet/pkg/session"
	"github.com/chazu/mallet/pkg/shape"
	"github.com/chazu/mallet/pkg/tessellate"
)

// App is the presentation boundary. Its methods take and return plain
// JSON-serializable values so a frontend (or the CLI) can drive the model.
type App struct {
	logger     *slog.Logger
	kernelName string
	session    *session.Session
	engine     *engine.Engine
}

// MeshData is the JSON-serializable mesh format sent to the frontend.
type MeshData struct {
	Index    int       `json:"index"`
	Vertices []float32 `json:"vertices"`
	Normals  []float32 `json:"normals"`
	Indices  []uint32  `json:"indices"`
	PartName string    `json:"partName"`
	Color    string    `json:"color"`
}

// ErrorData is a JSON-serializable error for the frontend.
type ErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// SceneData is a snapshot of everything the frontend displays.
type SceneData struct {
	Parts     []part.Part `json:"parts"`
	Selection []int       `json:"selection"`
	Meshes    []MeshData  `json:"meshes"`
	Warnings  []ErrorData `json:"warnings"`
	CanUndo   bool        `json:"canUndo"`
	CanRedo   bool        `json:"canRedo"`
	Kernel    string      `json:"kernel"`
}

// EvalResult is the result of running a script.
type EvalResult struct {
	Scene  SceneData   `json:"scene"`
	Errors []ErrorData `json:"errors"`
}

// NewApp creates an App using the kernel named in cfg. When the Manifold
// kernel is requested but not compiled in, it falls back to sdfx.
func NewApp(cfg *config.Config, logger *slog.Logger) *App {
	k, name := selectKernel(cfg, logger)
	return newApp(cfg, logger, k, name)
}

func selectKernel(cfg *config.Config, logger *slog.Logger) (kernel.Kernel, string) {
	if cfg.Kernel == config.KernelManifold {
		k, err := manifold.New()
		if err == nil {
			return k, config.KernelManifold
		}
		logger.Warn("manifold kernel unavailable, falling back to sdfx", "error", err)
	}
	return sdfx.New(cfg.MeshCells), config.KernelSdfx
}

func newApp(cfg *config.Config, logger *slog.Logger, k kernel.Kernel, kernelName string) *App {
	ev := csg.NewEvaluator(k, logger)
	return &App{
		logger:     logger,
		kernelName: kernelName,
		session: session.New(ev,
			session.WithLogger(logger),
			session.WithDefaults(cfg.PartDefaults()),
			session.WithHistoryLimit(cfg.HistorySize()),
		),
		engine: engine.NewEngine(
			engine.WithTimeout(cfg.EvalTimeout()),
			engine.WithLogger(logger),
		),
	}
}

// Scene returns the current model with render meshes. Parts whose geometry
// cannot be built are left out of Meshes and reported in Warnings.
func (a *App) Scene() SceneData {
	parts := a.session.Parts()
	res := tessellate.Tessellate(parts)

	scene := SceneData{
		Parts:     parts,
		Selection: a.session.Selection(),
		Meshes:    []MeshData{},
		Warnings:  []ErrorData{},
		CanUndo:   a.session.CanUndo(),
		CanRedo:   a.session.CanRedo(),
		Kernel:    a.kernelName,
	}
	if scene.Parts == nil {
		scene.Parts = []part.Part{}
	}
	if scene.Selection == nil {
		scene.Selection = []int{}
	}
	for _, it := range res.Items {
		scene.Meshes = append(scene.Meshes, MeshData{
			Index:    it.Index,
			Vertices: it.Mesh.Vertices,
			Normals:  it.Mesh.Normals,
			Indices:  it.Mesh.Indices,
			PartName: it.Mesh.PartName,
			Color:    it.Color,
		})
	}
	for _, s := range res.Skipped {
		a.logger.Warn("part not rendered", "index", s.Index, "part", s.PartID, "error", s.Err)
		scene.Warnings = append(scene.Warnings, ErrorData{Message: s.Error()})
	}
	return scene
}

// RunScript evaluates a script against the model. On any error the model
// is unchanged.
func (a *App) RunScript(source string) EvalResult {
	result := EvalResult{Errors: []ErrorData{}}

	_, evalErrs, err := a.engine.Run(a.session, source)
	switch {
	case err != nil:
		// Fatal error (panic, timeout, etc.)
		result.Errors = append(result.Errors, ErrorData{Message: err.Error()})
	case len(evalErrs) > 0:
		for _, e := range evalErrs {
			result.Errors = append(result.Errors, ErrorData{
				Line:    e.Line,
				Col:     e.Col,
				Message: e.Message,
			})
		}
	}
	result.Scene = a.Scene()
	return result
}

// AddPart adds a primitive by kind name and selects it.
func (a *App) AddPart(kind string) (SceneData, error) {
	k, err := shape.ParseKind(kind)
	if err != nil {
		return SceneData{}, err
	}
	if _, err := a.session.AddPart(k); err != nil {
		return SceneData{}, err
	}
	return a.Scene(), nil
}

// Pick applies a viewport pick; index -1 is empty space.
func (a *App) Pick(index int, multi bool) (SceneData, error) {
	if err := a.session.HandlePick(index, multi); err != nil {
		return SceneData{}, err
	}
	return a.Scene(), nil
}

// Boolean combines the selected parts. op is union, subtract or intersect.
func (a *App) Boolean(op string) (SceneData, error) {
	o, err := kernel.ParseOp(op)
	if err != nil {
		return SceneData{}, err
	}
	if _, err := a.session.Boolean(o); err != nil {
		return SceneData{}, err
	}
	return a.Scene(), nil
}

// Undo reverts the last change.
func (a *App) Undo() SceneData {
	a.session.Undo()
	return a.Scene()
}

// Redo re-applies the last undone change.
func (a *App) Redo() SceneData {
	a.session.Redo()
	return a.Scene()
}

// ExportParts returns the part collection as JSON, for a storage layer.
func (a *App) ExportParts() ([]byte, error) {
	return json.MarshalIndent(a.session.Parts(), "", "  ")
}

// ImportParts replaces the model with a JSON part collection. History and
// selection are reset.
func (a *App) ImportParts(data []byte) error {
	parts, err := decodeParts(data)
	if err != nil {
		return err
	}
	return a.session.Load(parts)
}

// ExportSTL writes every renderable part to a single binary STL file.
func (a *App) ExportSTL(path string) error {
	res := tessellate.Tessellate(a.session.Parts())
	if len(res.Items) == 0 {
		return fmt.Errorf("export stl: nothing to export")
	}
	return sdfx.SaveSTL(path, tessellate.Merge(res.Meshes()))
}

func decodeParts(data []byte) ([]part.Part, error) {
	var parts []part.Part
	if err := json.Unmarshal(data, &parts); err != nil {
		return nil, fmt.Errorf("decode parts: %w", err)
	}
	return parts, nil
}
