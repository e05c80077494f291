package signals

import "fmt"

// runEffect executes one dirty effect body synchronously inside the pass.
// The pass holds the engine lock, so the body has the exclusive window the
// host promised it; it must not call back into mutating engine methods —
// sends are fine, they only stage queue entries for the next pass.
// A failing body is logged, recorded, and treated as completed: no retry
// until a source or trigger dirties the node again.
func (e *Engine) runEffect(n *node, stats *PassStats) {
	args, argErr := e.resolveArgs(n, stats)
	n.dirty = false
	if argErr != nil {
		e.fail(n, argErr, stats)
		return
	}

	start := e.now()
	err := invokeEffect(n.effect, args)
	dur := e.now().Sub(start)
	stats.EffectsRun++
	e.obs.EffectRan(n.handle, dur, err)

	if err != nil {
		e.fail(n, fmt.Errorf("%w: %w", ErrEvaluationFailed, err), stats)
	}
}

// invokeEffect runs an effect body, converting a panic into an error so
// one bad body cannot abort the pass.
func invokeEffect(fn EffectFunc, args []Value) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return fn(args)
}
