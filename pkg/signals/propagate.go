package signals

import (
	"container/heap"

	mapset "github.com/deckarep/golang-set/v2"
)

// ProcessPending runs one propagation pass and is the single entry point
// the host's pass trigger calls. One pass fully commits before the next
// begins:
//
//  1. Drain the send queue and commit staged values; State commits happen
//     here, and only actual changes (or forced triggers) seed propagation.
//  2. Mark transitive dependents dirty breadth-first with a visited set,
//     so no node is queued twice.
//  3. Walk the dirty set in topological order: Computed nodes resolve
//     lazily and memoized, Effect bodies run synchronously, Task bodies
//     spawn on the executor with per-node dedup.
//  4. Poll the task registry; observed completions enqueue their deferred
//     batches for the next pass.
//
// ProcessPending is safe to call from one goroutine at a time; hosts drive
// it from their tick loop.
func (e *Engine) ProcessPending() PassStats {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return PassStats{}
	}

	e.passNum++
	start := e.now()
	stats := PassStats{Pass: e.passNum}
	e.obs.PassStarted(e.passNum)

	roots := e.commitSends(&stats)

	dirty := e.markDirty(roots)
	stats.Dirtied = dirty.Cardinality()

	for _, h := range e.topoOrder(dirty) {
		n := e.graph.get(h)
		if n == nil || !n.dirty {
			continue
		}
		switch n.kind {
		case KindState:
			n.dirty = false
		case KindComputed:
			e.resolve(n, 0, &stats)
		case KindEffect:
			e.runEffect(n, &stats)
		case KindTask:
			e.dispatchTask(n, &stats)
		}
	}

	for _, c := range e.registry.poll() {
		stats.Completions++
		e.applyCompletion(c, &stats)
	}

	stats.Duration = e.now().Sub(start)
	e.obs.PassCompleted(stats)
	e.log.Debug("pass complete", "pass", stats.Pass, "sends", stats.Sends,
		"dirtied", stats.Dirtied, "evaluated", stats.Evaluated,
		"effects", stats.EffectsRun, "spawned", stats.TasksSpawned,
		"completions", stats.Completions, "failures", stats.Failures,
		"duration", stats.Duration)
	return stats
}

// commitSends drains the queue, commits State values, and returns the
// propagation roots: changed or forced sends plus carryover nodes left
// dirty by earlier passes (deduped tasks, freshly created nodes).
func (e *Engine) commitSends(stats *PassStats) []Handle {
	entries := e.queue.drain()
	stats.Sends = len(entries)

	roots := make([]Handle, 0, len(entries)+e.carry.Cardinality())
	for _, ent := range entries {
		n := e.graph.get(ent.target)
		if n == nil {
			e.log.Debug("send to missing node dropped", "node", ent.target)
			continue
		}
		n.next = ValueOf(ent.value)
		if n.kind == KindState {
			changed := ent.force || !n.equals(n.value, n.next)
			n.value, n.next = n.next, Value{}
			if !changed {
				continue
			}
		}
		n.dirty = true
		roots = append(roots, n.handle)
	}

	e.carry.Each(func(h Handle) bool {
		if e.graph.get(h) != nil {
			roots = append(roots, h)
		}
		return false
	})
	e.carry.Clear()
	return roots
}

// markDirty walks forward edges breadth-first from the roots, marking
// every transitively reachable dependent dirty exactly once.
func (e *Engine) markDirty(roots []Handle) mapset.Set[Handle] {
	visited := mapset.NewThreadUnsafeSet[Handle]()
	queue := append([]Handle(nil), roots...)
	for i := 0; i < len(queue); i++ {
		h := queue[i]
		if !visited.Add(h) {
			continue
		}
		n := e.graph.get(h)
		if n == nil {
			visited.Remove(h)
			continue
		}
		n.dirty = true
		for _, d := range e.graph.dependentsOf(h) {
			if !visited.Contains(d) {
				queue = append(queue, d)
			}
		}
	}
	return visited
}

// topoOrder orders the dirty set so dependencies evaluate before
// dependents (Kahn's algorithm over the induced subgraph, smallest handle
// first for determinism). With the eager cycle check disabled a cycle can
// reach this point; its members keep nonzero in-degree and are appended in
// handle order so evaluation still runs and the depth limit reports them.
func (e *Engine) topoOrder(dirty mapset.Set[Handle]) []Handle {
	members := dirty.ToSlice()
	indeg := make(map[Handle]int, len(members))
	for _, h := range members {
		n := e.graph.get(h)
		if n == nil {
			continue
		}
		seen := mapset.NewThreadUnsafeSet[Handle]()
		for _, s := range n.sources {
			if s != h && dirty.Contains(s) && seen.Add(s) {
				indeg[h]++
			}
		}
		n.triggers.Each(func(t Handle) bool {
			if t != h && dirty.Contains(t) && seen.Add(t) {
				indeg[h]++
			}
			return false
		})
	}

	ready := &handleHeap{}
	heap.Init(ready)
	for _, h := range members {
		if indeg[h] == 0 {
			heap.Push(ready, h)
		}
	}

	order := make([]Handle, 0, len(members))
	placed := mapset.NewThreadUnsafeSet[Handle]()
	for ready.Len() > 0 {
		h := heap.Pop(ready).(Handle)
		order = append(order, h)
		placed.Add(h)
		for _, d := range e.graph.dependentsOf(h) {
			if !dirty.Contains(d) {
				continue
			}
			indeg[d]--
			if indeg[d] == 0 {
				heap.Push(ready, d)
			}
		}
	}

	if len(order) < len(members) {
		rest := &handleHeap{}
		heap.Init(rest)
		for _, h := range members {
			if !placed.Contains(h) {
				heap.Push(rest, h)
			}
		}
		for rest.Len() > 0 {
			order = append(order, heap.Pop(rest).(Handle))
		}
	}
	return order
}

// handleHeap is a min-heap of handles for deterministic ready ordering.
type handleHeap []Handle

func (h handleHeap) Len() int           { return len(h) }
func (h handleHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h handleHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *handleHeap) Push(x any)        { *h = append(*h, x.(Handle)) }
func (h *handleHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
