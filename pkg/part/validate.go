package part

import (
	"fmt"

	"github.com/chazu/mallet/pkg/kernel"
	"github.com/chazu/mallet/pkg/shape"
)

// ValidationSeverity indicates whether a validation finding blocks loading
// or is merely informational.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // blocks loading
	SeverityWarning                           // informational
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	Index    int                // position in the collection
	PartID   string             // part ID, empty if unknown
	Message  string             // human-readable description
	Severity ValidationSeverity // error or warning
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] part %d: %s", e.Severity, e.Index, e.Message)
}

// ValidationResult bundles errors (blocking) and warnings (advisory).
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationError
}

// OK reports whether there are no blocking errors.
func (r ValidationResult) OK() bool {
	return len(r.Errors) == 0
}

// Validate checks a part collection and returns all findings. It is
// read-only.
//
// Errors: duplicate or empty IDs, non-finite transforms, custom parts with
// no baked mesh.
// Warnings: baked meshes that do not decode (the part renders as absent),
// non-positive scale, unrecognized kinds (rendered as boxes),
// segments outside [MinSegments, MaxSegments], malformed colors, baked
// meshes attached to procedural kinds.
func Validate(parts []Part) ValidationResult {
	var result ValidationResult
	add := func(i int, p Part, sev ValidationSeverity, format string, args ...any) {
		e := ValidationError{Index: i, PartID: p.ID, Message: fmt.Sprintf(format, args...), Severity: sev}
		if sev == SeverityError {
			result.Errors = append(result.Errors, e)
		} else {
			result.Warnings = append(result.Warnings, e)
		}
	}

	seen := make(map[string]int, len(parts))
	for i, p := range parts {
		if p.ID == "" {
			add(i, p, SeverityError, "empty id")
		} else if first, dup := seen[p.ID]; dup {
			add(i, p, SeverityError, "duplicate id %s (first at %d)", p.ID, first)
		} else {
			seen[p.ID] = i
		}

		for _, f := range []struct {
			name string
			v    Vec3
		}{{"position", p.Position}, {"rotation", p.Rotation}, {"scale", p.Scale}} {
			if !f.v.Finite() {
				add(i, p, SeverityError, "%s %s is not finite", f.name, f.v)
			}
		}
		if p.Scale.Finite() && !p.Scale.Positive() {
			add(i, p, SeverityWarning, "scale %s has non-positive components", p.Scale)
		}

		switch {
		case p.Kind == shape.Custom:
			if len(p.BakedMesh) == 0 {
				add(i, p, SeverityError, "custom part has no baked mesh")
			} else if _, err := kernel.DecodeMesh(p.BakedMesh); err != nil {
				add(i, p, SeverityWarning, "%v (part renders as absent)", err)
			}
		case !p.Kind.Known():
			add(i, p, SeverityWarning, "unknown kind %q renders as box", p.Kind)
		case len(p.BakedMesh) > 0:
			add(i, p, SeverityWarning, "baked mesh on %s part is ignored", p.Kind)
		}

		if p.Segments != 0 && p.Kind.HasSegments() && (p.Segments < MinSegments || p.Segments > MaxSegments) {
			add(i, p, SeverityWarning, "segments %d outside [%d, %d]", p.Segments, MinSegments, MaxSegments)
		}

		if p.Color != "" {
			if _, err := NormalizeColor(p.Color); err != nil {
				add(i, p, SeverityWarning, "color %q: %v", p.Color, err)
			}
		}
	}
	return result
}
