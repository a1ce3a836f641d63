package csg

import (
	"errors"
	"fmt"

	"github.com/chazu/mallet/pkg/kernel"
)

// ErrEmptyResult is wrapped by BooleanEvaluationError when the kernel
// produced no geometry, for example intersecting disjoint solids.
var ErrEmptyResult = errors.New("boolean result is empty")

// InsufficientOperandsError is returned when fewer than two operands are
// supplied. From the caller's perspective the operation is a no-op.
type InsufficientOperandsError struct {
	Count int
}

func (e *InsufficientOperandsError) Error() string {
	return fmt.Sprintf("boolean operation needs at least 2 operands, got %d", e.Count)
}

// BooleanEvaluationError reports that the kernel could not produce a
// result. The part collection must be left unmodified.
type BooleanEvaluationError struct {
	Op  kernel.Op
	Err error
}

func (e *BooleanEvaluationError) Error() string {
	return fmt.Sprintf("boolean %s failed: %v", e.Op, e.Err)
}

func (e *BooleanEvaluationError) Unwrap() error { return e.Err }
