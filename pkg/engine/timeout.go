package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/chazu/brushwork/pkg/quakemap"
)

// EvalTimeout is the default limit for a single evaluation.
const EvalTimeout = 5 * time.Second

var (
	// ErrTimeout is returned when a script runs past the engine's limit.
	ErrTimeout = errors.New("evaluation timed out")
	// ErrSuperseded is returned to an evaluation that finished after a
	// newer one had started on the same engine.
	ErrSuperseded = errors.New("evaluation superseded by newer request")
)

// evalResult carries one finished evaluation back to the caller.
type evalResult struct {
	m      *quakemap.Map
	errors []EvalError
	err    error
}

// begin starts a new generation and returns it.
func (e *Engine) begin() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.generation++
	return e.generation
}

// current reports whether gen is still the newest evaluation.
func (e *Engine) current(gen uint64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return gen == e.generation
}

// wait blocks for the result of generation gen. A result that arrives
// after a newer evaluation began is dropped with ErrSuperseded. When the
// timeout fires first the script goroutine keeps running on its private
// clone and its result is dropped.
func (e *Engine) wait(ch <-chan evalResult, gen uint64) (*quakemap.Map, []EvalError, error) {
	timer := time.NewTimer(e.timeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		if !e.current(gen) {
			return nil, nil, ErrSuperseded
		}
		return res.m, res.errors, res.err

	case <-timer.C:
		return nil, nil, fmt.Errorf("%w after %s", ErrTimeout, e.timeout)
	}
}
