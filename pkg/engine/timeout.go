package engine

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// EvalTimeout is the default hard limit for a single run.
const EvalTimeout = 5 * time.Second

const (
	runOK     = "ok"
	runFailed = "failed"
	runFatal  = "fatal"
)

var scriptRuns = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "mallet_script_runs_total",
	Help: "Script console runs by outcome.",
}, []string{"result"})

// evalResult is the internal type used to pass evaluation results through channels.
type evalResult struct {
	report *Report
	errors []EvalError
	err    error
}

// waitWithTimeout waits for a result from ch, but returns a timeout error
// if the evaluation exceeds the engine's timeout. It uses the generation
// counter to discard results from runs that a newer Run has superseded.
//
// On timeout, the goroutine may still be running; it works on a session
// clone that is never adopted.
func (e *Engine) waitWithTimeout(ch <-chan evalResult, gen uint64) (*Report, []EvalError, error) {
	timer := time.NewTimer(e.timeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		e.mu.Lock()
		current := e.generation
		e.mu.Unlock()

		if gen != current {
			return nil, nil, fmt.Errorf("evaluation superseded by newer request")
		}
		return res.report, res.errors, res.err

	case <-timer.C:
		return nil, nil, fmt.Errorf("evaluation timed out after %s", e.timeout)
	}
}
