// Package engine provides the script console for mallet. It wraps zygomys
// in a sandboxed environment whose builtins drive a modeling session.
package engine

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/mallet/pkg/session"
)

// EvalError represents a non-fatal error encountered during evaluation,
// such as a parse error or a failed action in user code.
type EvalError struct {
	Line    int
	Col     int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// Report summarizes a successful run.
type Report struct {
	Actions   int   // builtin calls that changed the model
	Booleans  int   // boolean operations applied
	Parts     int   // parts in the session afterwards
	Selection []int // selection afterwards
}

// Engine runs scripts against a session. It is safe for concurrent use;
// each call to Run creates a fresh sandboxed environment for determinism.
type Engine struct {
	mu         sync.Mutex
	generation uint64

	timeout time.Duration
	logger  *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithTimeout sets the hard limit for a single run.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) { e.timeout = d }
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// NewEngine creates a new Engine instance.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{timeout: EvalTimeout, logger: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run evaluates source against s. The script operates on a clone of the
// session; the clone replaces s's state only if the whole script succeeds,
// so a failing script leaves s untouched.
//
// Return semantics:
//   - On success: returns report + nil errors + nil error
//   - On parse/eval failure: returns nil report + eval errors + nil error
//   - On fatal failure (timeout, panic, superseded): returns nil + nil + error
func (e *Engine) Run(s *session.Session, source string) (*Report, []EvalError, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	start := time.Now()
	work := s.Clone()
	ch := make(chan evalResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()

		rep, evalErrs, err := e.evaluate(work, source)
		ch <- evalResult{report: rep, errors: evalErrs, err: err}
	}()

	rep, evalErrs, err := e.waitWithTimeout(ch, gen)
	switch {
	case err != nil:
		scriptRuns.WithLabelValues(runFatal).Inc()
		e.logger.Warn("script aborted", "error", err, "duration", time.Since(start))
		return nil, nil, err
	case len(evalErrs) > 0:
		scriptRuns.WithLabelValues(runFailed).Inc()
		e.logger.Debug("script failed", "errors", len(evalErrs), "first", evalErrs[0].Error())
		return nil, evalErrs, nil
	}

	s.Adopt(work)
	scriptRuns.WithLabelValues(runOK).Inc()
	e.logger.Debug("script applied",
		"actions", rep.Actions,
		"parts", rep.Parts,
		"duration", time.Since(start),
	)
	return rep, nil, nil
}

// evaluate performs the actual zygomys evaluation in a fresh sandbox.
func (e *Engine) evaluate(s *session.Session, source string) (*Report, []EvalError, error) {
	st := &scriptState{s: s}

	// Empty source is a valid program that changes nothing.
	if strings.TrimSpace(source) == "" {
		return st.report(), nil, nil
	}

	// Sandbox mode prevents user code from accessing the filesystem or syscalls.
	env := zygo.NewZlispSandbox()
	defer env.Stop()
	registerBuiltins(env, st)

	if err := env.LoadString(preprocessSource(source)); err != nil {
		return nil, parseZygomysError(err), nil
	}
	if _, err := env.Run(); err != nil {
		return nil, parseZygomysError(err), nil
	}
	return st.report(), nil, nil
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into one or more EvalError values.
// It attempts to extract line number information from the error message.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()

	for _, re := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := re.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return []EvalError{{
				Line:    line,
				Message: strings.TrimSpace(m[2]),
			}}
		}
	}

	// Fallback: no line info available.
	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
