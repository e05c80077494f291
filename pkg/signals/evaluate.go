package signals

import "fmt"

// resolve returns n's value for the current pass, recomputing a dirty
// Computed node at most once. depth counts the source chain from the eager
// node that started the pull; exceeding the limit is treated as a cycle.
// Failures are contained: the previous committed value stays, a diagnostic
// is recorded, and callers read the stale value for this pass.
func (e *Engine) resolve(n *node, depth int, stats *PassStats) Value {
	switch n.kind {
	case KindState:
		return n.value
	case KindEffect, KindTask:
		// Terminal nodes cannot be sources; construction enforces it.
		return n.value
	}

	if !n.dirty {
		return n.value
	}
	if n.resolving {
		n.dirty = false
		e.fail(n, fmt.Errorf("%w: %s re-entered while resolving", ErrCycleDetected, n.handle), stats)
		return n.value
	}
	if depth >= e.maxDepth {
		n.dirty = false
		e.fail(n, fmt.Errorf("%w: source chain deeper than %d at %s", ErrCycleDetected, e.maxDepth, n.handle), stats)
		return n.value
	}

	n.resolving = true
	defer func() { n.resolving = false }()

	args, argErr := e.resolveArgsAt(n, depth, stats)
	n.dirty = false
	n.next = Value{}
	if argErr != nil {
		e.fail(n, argErr, stats)
		return n.value
	}

	start := e.now()
	v, err := invokeCompute(n.compute, args)
	dur := e.now().Sub(start)
	stats.Evaluated++
	e.obs.ComputedEvaluated(n.handle, dur, err)

	if err != nil {
		e.fail(n, fmt.Errorf("%w: %w", ErrEvaluationFailed, err), stats)
		return n.value
	}
	n.value = ValueOf(v)
	return n.value
}

// resolveArgs assembles the argument tuple for an eager node (effect or
// task), pulling each source in declared order.
func (e *Engine) resolveArgs(n *node, stats *PassStats) ([]Value, error) {
	return e.resolveArgsAt(n, 0, stats)
}

func (e *Engine) resolveArgsAt(n *node, depth int, stats *PassStats) ([]Value, error) {
	if len(n.sources) == 0 {
		return nil, nil
	}
	args := make([]Value, len(n.sources))
	for i, s := range n.sources {
		sn := e.graph.get(s)
		if sn == nil {
			return nil, fmt.Errorf("%w: source %s of %s", ErrUnresolvedDependency, s, n.handle)
		}
		args[i] = e.resolve(sn, depth+1, stats)
	}
	return args, nil
}

// invokeCompute runs a computed body, converting a panic into an error so
// one bad body cannot abort the pass.
func invokeCompute(fn ComputeFunc, args []Value) (v any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			v = nil
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return fn(args)
}

// fail records a contained node failure as the node's latest diagnostic
// and in the engine ring.
func (e *Engine) fail(n *node, err error, stats *PassStats) {
	d := Diagnostic{
		Node:  n.handle,
		Kind:  n.kind,
		Label: n.label,
		Pass:  e.passNum,
		Err:   err,
		At:    e.now(),
	}
	n.failure = &d
	e.diags.push(d)
	stats.Failures++
	e.obs.FailureRecorded(d)
	e.log.Warn("node failure", "node", n.handle, "kind", n.kind.String(),
		"label", n.label, "pass", e.passNum, "err", err)
}
