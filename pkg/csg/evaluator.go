// Package csg reduces a set of parts into a single custom part with a
// boolean set operation.
package csg

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/chazu/mallet/pkg/brush"
	"github.com/chazu/mallet/pkg/kernel"
	"github.com/chazu/mallet/pkg/part"
	"github.com/chazu/mallet/pkg/shape"
)

// Operand is a part together with its index in the collection. The index
// fixes the reduction order.
type Operand struct {
	Index int
	Part  part.Part
}

// Evaluator runs boolean reductions on a geometry kernel.
type Evaluator struct {
	kernel kernel.Kernel
	logger *slog.Logger
}

// NewEvaluator returns an evaluator backed by k. A nil logger uses
// slog.Default().
func NewEvaluator(k kernel.Kernel, logger *slog.Logger) *Evaluator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Evaluator{kernel: k, logger: logger}
}

// Evaluate reduces operands with op and returns the resulting custom part.
//
// Operands are ordered by ascending Index regardless of input order and
// folded left to right, so for Subtract the lowest-index operand is the
// minuend. The result mesh is re-centered on its bounding-box center,
// which becomes the part's position. The result takes the color of the
// lowest-index operand.
//
// Errors: *InsufficientOperandsError for fewer than two operands,
// *kernel.GeometryDecodeError when a custom operand's baked mesh is
// malformed, *BooleanEvaluationError for everything the kernel could not
// do, including an empty result.
func (e *Evaluator) Evaluate(operands []Operand, op kernel.Op) (part.Part, error) {
	start := time.Now()
	res, err := e.evaluate(operands, op)
	booleanDuration.WithLabelValues(string(op)).Observe(time.Since(start).Seconds())

	var (
		insufficient *InsufficientOperandsError
		decode       *kernel.GeometryDecodeError
	)
	switch {
	case err == nil:
		booleanTotal.WithLabelValues(string(op), resultOK).Inc()
		e.logger.Debug("boolean evaluated",
			"op", op,
			"operands", len(operands),
			"duration", time.Since(start),
		)
	case errors.As(err, &insufficient):
		booleanTotal.WithLabelValues(string(op), resultInsufficient).Inc()
	case errors.As(err, &decode):
		booleanTotal.WithLabelValues(string(op), resultDecode).Inc()
		e.logger.Warn("boolean operand has malformed geometry", "op", op, "error", err)
	default:
		booleanTotal.WithLabelValues(string(op), resultFailed).Inc()
		e.logger.Warn("boolean evaluation failed", "op", op, "error", err)
	}
	return res, err
}

func (e *Evaluator) evaluate(operands []Operand, op kernel.Op) (part.Part, error) {
	if len(operands) < 2 {
		return part.Part{}, &InsufficientOperandsError{Count: len(operands)}
	}
	if _, err := kernel.ParseOp(string(op)); err != nil {
		return part.Part{}, &BooleanEvaluationError{Op: op, Err: err}
	}

	ordered := append([]Operand(nil), operands...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Index < ordered[j].Index
	})

	worlds := make([]*kernel.Mesh, len(ordered))
	for i, o := range ordered {
		b, err := brush.Build(o.Part)
		if err != nil {
			var gde *kernel.GeometryDecodeError
			if errors.As(err, &gde) {
				return part.Part{}, err
			}
			return part.Part{}, &BooleanEvaluationError{Op: op, Err: err}
		}
		worlds[i] = b.World()
	}

	mesh, err := e.reduce(worlds, op)
	if err != nil {
		return part.Part{}, &BooleanEvaluationError{Op: op, Err: err}
	}
	if mesh == nil || mesh.IsEmpty() {
		return part.Part{}, &BooleanEvaluationError{Op: op, Err: ErrEmptyResult}
	}
	booleanTriangles.Observe(float64(mesh.TriangleCount()))

	c := mesh.Center()
	mesh.Translate(-c[0], -c[1], -c[2])
	baked, err := kernel.EncodeMesh(mesh)
	if err != nil {
		return part.Part{}, &BooleanEvaluationError{Op: op, Err: err}
	}

	first := ordered[0].Part
	return part.Part{
		ID:        uuid.NewString(),
		Kind:      shape.Custom,
		Position:  part.Vec3{X: c[0], Y: c[1], Z: c[2]},
		Scale:     part.One,
		Color:     first.Color,
		BakedMesh: baked,
	}, nil
}

// reduce imports every mesh and folds them left to right. Kernel panics
// (cgo assertions, sdfx argument checks) are converted to errors.
func (e *Evaluator) reduce(worlds []*kernel.Mesh, op kernel.Op) (mesh *kernel.Mesh, err error) {
	defer func() {
		if r := recover(); r != nil {
			mesh = nil
			err = fmt.Errorf("kernel panic: %v", r)
		}
	}()

	acc, err := e.kernel.Mesh(worlds[0])
	if err != nil {
		return nil, fmt.Errorf("operand 0: %w", err)
	}
	for i := 1; i < len(worlds); i++ {
		next, err := e.kernel.Mesh(worlds[i])
		if err != nil {
			return nil, fmt.Errorf("operand %d: %w", i, err)
		}
		acc, err = kernel.Combine(e.kernel, acc, next, op)
		if err != nil {
			return nil, err
		}
	}
	return e.kernel.ToMesh(acc)
}
