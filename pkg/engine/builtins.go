package engine

import (
	"errors"
	"fmt"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/mallet/pkg/csg"
	"github.com/chazu/mallet/pkg/kernel"
	"github.com/chazu/mallet/pkg/part"
	"github.com/chazu/mallet/pkg/session"
	"github.com/chazu/mallet/pkg/shape"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource transforms mallet script source before passing it to
// zygomys. It performs two transformations:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal)
//     This avoids the need to register keyword symbols as globals, which
//     would conflict with user-defined variables of the same name.
//
//  2. Kebab-case to underscore: clear-selection -> clear_selection
//     zygomys does not allow hyphens in identifiers (it interprets them
//     as the subtraction operator). This converts kebab-case identifiers
//     to underscore form outside of strings and comments.
//
// Both transformations respect string literal boundaries and line comments.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		// Skip double-quoted string literals.
		if b[i] == '"' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i], b[i+1])
					i += 2
					continue
				}
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Skip backtick-quoted string literals.
		if b[i] == '`' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '`' {
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Convert ; line comments to // comments for zygomys.
		// zygomys uses // for line comments, not the traditional Lisp ;.
		if b[i] == ';' {
			result = append(result, '/', '/')
			i++
			// Skip additional ; characters (;; style).
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Transform :keyword to "__kw_keyword".
		if b[i] == ':' && i+1 < len(b) {
			// Preserve := (assignment operator).
			if b[i+1] == '=' {
				result = append(result, b[i], b[i+1])
				i += 2
				continue
			}
			// Check for keyword: colon followed by a letter.
			if isLetter(b[i+1]) {
				j := i + 1
				for j < len(b) && isKWChar(b[j]) {
					j++
				}
				kwName := string(b[i+1 : j])
				result = append(result, '"')
				result = append(result, []byte(kwPrefix)...)
				result = append(result, []byte(kwName)...)
				result = append(result, '"')
				i = j
				continue
			}
		}
		// Transform kebab-case identifiers: alpha-alpha -> alpha_alpha.
		// Only when hyphen sits between identifier characters (not a minus operator).
		if b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isIdentStartChar(b[i+1]) {
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

func isIdentStartChar(c byte) bool {
	return isLetter(c)
}

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpVec3 wraps a part.Vec3.
type sexpVec3 struct {
	vec part.Vec3
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments. The
// first keyword of a call may also be positional (add :box), so a keyword
// is only treated as a key when a value follows it and it is not the
// first argument.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if ok && i > 0 && i+1 < len(args) {
			result.kw[name] = args[i+1]
			i += 2
			continue
		}
		result.positional = append(result.positional, args[i])
		i++
	}
	return result
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toInt extracts an int from a SexpInt.
func toInt(s zygo.Sexp) (int, error) {
	if v, ok := s.(*zygo.SexpInt); ok {
		return int(v.Val), nil
	}
	return 0, fmt.Errorf("expected integer, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString extracts a keyword name or plain string from a Sexp.
// Handles both preprocessed keywords (__kw_box) and plain strings ("box").
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, s.SexpString(nil))
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], nil
	}
	return str.S, nil
}

// toVec3 extracts a Vec3 from a sexpVec3. A plain number n is accepted as
// (vec3 n n n).
func toVec3(s zygo.Sexp) (part.Vec3, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	if f, err := toFloat64(s); err == nil {
		return part.Vec3{X: f, Y: f, Z: f}, nil
	}
	return part.Vec3{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

func sexpInt(n int) zygo.Sexp   { return &zygo.SexpInt{Val: int64(n)} }
func sexpBool(b bool) zygo.Sexp { return &zygo.SexpBool{Val: b} }

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// scriptState is the session a run mutates plus its tallies.
type scriptState struct {
	s        *session.Session
	actions  int
	booleans int
}

func (st *scriptState) report() *Report {
	return &Report{
		Actions:   st.actions,
		Booleans:  st.booleans,
		Parts:     st.s.Len(),
		Selection: st.s.Selection(),
	}
}

type builtin func(st *scriptState, pa kwArgs) (zygo.Sexp, error)

// indexArg parses the leading part index of calls like (move 0 (vec3 1 2 3)).
func indexArg(name string, pa kwArgs, want int) (int, error) {
	if len(pa.positional) != want {
		return 0, fmt.Errorf("%s requires %d arguments, got %d", name, want, len(pa.positional))
	}
	i, err := toInt(pa.positional[0])
	if err != nil {
		return 0, fmt.Errorf("%s: index: %w", name, err)
	}
	return i, nil
}

// vecEdit builds move, rotate and resize: (move INDEX VEC3).
func vecEdit(name string, set func(s *session.Session, i int, v part.Vec3) error) builtin {
	return func(st *scriptState, pa kwArgs) (zygo.Sexp, error) {
		i, err := indexArg(name, pa, 2)
		if err != nil {
			return zygo.SexpNull, err
		}
		v, err := toVec3(pa.positional[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("%s: %w", name, err)
		}
		if err := set(st.s, i, v); err != nil {
			return zygo.SexpNull, fmt.Errorf("%s: %w", name, err)
		}
		st.actions++
		return zygo.SexpNull, nil
	}
}

// booleanOp builds union, subtract and intersect. With index arguments
// the operands are selected first; otherwise the current selection is used.
func booleanOp(name string, op kernel.Op) builtin {
	return func(st *scriptState, pa kwArgs) (zygo.Sexp, error) {
		if len(pa.positional) > 0 {
			indices := make([]int, len(pa.positional))
			for k, a := range pa.positional {
				i, err := toInt(a)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("%s: operand %d: %w", name, k, err)
				}
				indices[k] = i
			}
			if err := st.s.Select(indices...); err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", name, err)
			}
		}
		idx, err := st.s.Boolean(op)
		var insufficient *csg.InsufficientOperandsError
		if errors.As(err, &insufficient) {
			return zygo.SexpNull, fmt.Errorf("%s: %w (%d selected)", name, errNoOperands, insufficient.Count)
		}
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("%s: %w", name, err)
		}
		st.actions++
		st.booleans++
		return sexpInt(idx), nil
	}
}

// addPart implements (add :kind :at V :rotation V :scale V :color "#hex"
// :segments N) and returns the new part's index.
func addPart(st *scriptState, pa kwArgs) (zygo.Sexp, error) {
	if len(pa.positional) != 1 {
		return zygo.SexpNull, fmt.Errorf("add requires a kind, e.g. (add :box)")
	}
	name, err := toKeywordString(pa.positional[0])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("add: kind: %w", err)
	}
	kind, err := shape.ParseKind(name)
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("add: %w", err)
	}

	idx, err := st.s.AddConfigured(kind, func(p *part.Part) error {
		for key, val := range pa.kw {
			if err := applyField(p, key, val); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("add: %w", err)
	}
	st.actions++
	return sexpInt(idx), nil
}

// applyField sets one keyword argument of add through the part's setters.
func applyField(p *part.Part, key string, val zygo.Sexp) error {
	switch key {
	case "at", "position":
		v, err := toVec3(val)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		return p.SetPosition(v)
	case "rotation":
		v, err := toVec3(val)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		return p.SetRotation(v)
	case "scale":
		v, err := toVec3(val)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		return p.SetScale(v)
	case "color":
		c, err := toString(val)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		return p.SetColor(c)
	case "segments":
		n, err := toInt(val)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		return p.SetSegments(n)
	}
	return fmt.Errorf("unknown keyword :%s", key)
}

// builtins maps script names (after kebab-case conversion) to handlers.
var builtins = map[string]builtin{
	// (vec3 1 2 3)
	"vec3": func(st *scriptState, pa kwArgs) (zygo.Sexp, error) {
		if len(pa.positional) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(pa.positional))
		}
		var c [3]float64
		for i, a := range pa.positional {
			f, err := toFloat64(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("vec3: %c: %w", "xyz"[i], err)
			}
			c[i] = f
		}
		return &sexpVec3{vec: part.Vec3{X: c[0], Y: c[1], Z: c[2]}}, nil
	},

	"add": addPart,

	// (select 0 2)
	"select": func(st *scriptState, pa kwArgs) (zygo.Sexp, error) {
		indices := make([]int, len(pa.positional))
		for k, a := range pa.positional {
			i, err := toInt(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("select: %w", err)
			}
			indices[k] = i
		}
		if err := st.s.Select(indices...); err != nil {
			return zygo.SexpNull, fmt.Errorf("select: %w", err)
		}
		return zygo.SexpNull, nil
	},

	// (toggle 1)
	"toggle": func(st *scriptState, pa kwArgs) (zygo.Sexp, error) {
		i, err := indexArg("toggle", pa, 1)
		if err != nil {
			return zygo.SexpNull, err
		}
		if err := st.s.Toggle(i); err != nil {
			return zygo.SexpNull, fmt.Errorf("toggle: %w", err)
		}
		return zygo.SexpNull, nil
	},

	// (clear-selection)
	"clear_selection": func(st *scriptState, pa kwArgs) (zygo.Sexp, error) {
		st.s.ClearSelection()
		return zygo.SexpNull, nil
	},

	"union":     booleanOp("union", kernel.Union),
	"subtract":  booleanOp("subtract", kernel.Subtract),
	"intersect": booleanOp("intersect", kernel.Intersect),

	"move":   vecEdit("move", (*session.Session).SetPosition),
	"rotate": vecEdit("rotate", (*session.Session).SetRotation),
	"resize": vecEdit("resize", (*session.Session).SetScale),

	// (paint 0 "#ff8800")
	"paint": func(st *scriptState, pa kwArgs) (zygo.Sexp, error) {
		i, err := indexArg("paint", pa, 2)
		if err != nil {
			return zygo.SexpNull, err
		}
		c, err := toString(pa.positional[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("paint: color: %w", err)
		}
		if err := st.s.SetColor(i, c); err != nil {
			return zygo.SexpNull, fmt.Errorf("paint: %w", err)
		}
		st.actions++
		return zygo.SexpNull, nil
	},

	// (segments 0 12)
	"segments": func(st *scriptState, pa kwArgs) (zygo.Sexp, error) {
		i, err := indexArg("segments", pa, 2)
		if err != nil {
			return zygo.SexpNull, err
		}
		n, err := toInt(pa.positional[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("segments: count: %w", err)
		}
		if err := st.s.SetSegments(i, n); err != nil {
			return zygo.SexpNull, fmt.Errorf("segments: %w", err)
		}
		st.actions++
		return zygo.SexpNull, nil
	},

	// (remove 0)
	"remove": func(st *scriptState, pa kwArgs) (zygo.Sexp, error) {
		i, err := indexArg("remove", pa, 1)
		if err != nil {
			return zygo.SexpNull, err
		}
		if err := st.s.RemovePart(i); err != nil {
			return zygo.SexpNull, fmt.Errorf("remove: %w", err)
		}
		st.actions++
		return zygo.SexpNull, nil
	},

	// (undo) and (redo) return whether anything changed.
	"undo": func(st *scriptState, pa kwArgs) (zygo.Sexp, error) {
		ok := st.s.Undo()
		if ok {
			st.actions++
		}
		return sexpBool(ok), nil
	},
	"redo": func(st *scriptState, pa kwArgs) (zygo.Sexp, error) {
		ok := st.s.Redo()
		if ok {
			st.actions++
		}
		return sexpBool(ok), nil
	},

	// (count)
	"count": func(st *scriptState, pa kwArgs) (zygo.Sexp, error) {
		return sexpInt(st.s.Len()), nil
	},
}

// errNoOperands is reported instead of the evaluator's error when a script
// calls a boolean with an empty or single selection.
var errNoOperands = errors.New("select at least two parts first")

// registerBuiltins installs the mallet builtins into a zygomys environment.
// They operate on st's session, mutating it during evaluation.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, st *scriptState) {
	for name, fn := range builtins {
		fn := fn
		env.AddFunction(name, func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			return fn(st, parseArgs(args))
		})
	}
}
