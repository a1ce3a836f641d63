package kernel

import "fmt"

// Op is a boolean set operation between two solids.
type Op string

const (
	Union     Op = "union"     // A ∪ B
	Subtract  Op = "subtract"  // A \ B
	Intersect Op = "intersect" // A ∩ B
)

// ParseOp converts a name such as "subtract" to an Op.
func ParseOp(s string) (Op, error) {
	switch Op(s) {
	case Union, Subtract, Intersect:
		return Op(s), nil
	}
	return "", fmt.Errorf("kernel: invalid boolean op %q, expected union, subtract, or intersect", s)
}
