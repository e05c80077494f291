package signals

import (
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/cespare/xxhash/v2"
	mapset "github.com/deckarep/golang-set/v2"
)

// EdgeKind distinguishes how a dependent consumes a dependency.
type EdgeKind uint8

const (
	// EdgeSource marks a dependency whose value is read as an evaluation
	// argument. Source order is argument order.
	EdgeSource EdgeKind = iota

	// EdgeTrigger marks a dependency that re-runs the dependent without
	// its value being read.
	EdgeTrigger
)

// String returns a human-readable name for the edge kind.
func (k EdgeKind) String() string {
	switch k {
	case EdgeSource:
		return "source"
	case EdgeTrigger:
		return "trigger"
	default:
		return "unknown"
	}
}

// Dependency is one backward edge of a node, as reported by
// DependenciesOf: sources in declared order first, then triggers in handle
// order.
type Dependency struct {
	Handle Handle
	Kind   EdgeKind
}

// graph is the arena of nodes plus bidirectional adjacency. Backward edges
// live on the nodes themselves (sources, triggers); forward edges live in
// dependents so propagation never chases pointers. All methods assume the
// engine's lock is held.
type graph struct {
	nodes map[Handle]*node

	// dependents maps a node to every node it feeds, both edge kinds.
	dependents map[Handle]mapset.Set[Handle]
}

func newGraph() *graph {
	return &graph{
		nodes:      make(map[Handle]*node),
		dependents: make(map[Handle]mapset.Set[Handle]),
	}
}

func (g *graph) get(h Handle) *node {
	return g.nodes[h]
}

func (g *graph) len() int {
	return len(g.nodes)
}

// insert adds a node with no edges. The handle must be unoccupied.
func (g *graph) insert(n *node) {
	g.nodes[n.handle] = n
}

// addEdge wires from as a dependency of to. Source edges append to the
// dependent's ordered source list; trigger edges join its trigger set.
// Both nodes must exist, from must not be terminal, and when checkCycle is
// set the edge must not make from reachable from itself.
func (g *graph) addEdge(from, to Handle, kind EdgeKind, checkCycle bool) error {
	dep := g.nodes[from]
	if dep == nil {
		return fmt.Errorf("%w: dependency %s", ErrNoSuchNode, from)
	}
	target := g.nodes[to]
	if target == nil {
		return fmt.Errorf("%w: dependent %s", ErrNoSuchNode, to)
	}
	if dep.kind == KindEffect || dep.kind == KindTask {
		return fmt.Errorf("%w: %s %s", ErrTerminalNode, dep.kind, from)
	}
	if checkCycle && g.wouldCycle(from, to) {
		return fmt.Errorf("%w: edge %s -> %s", ErrCycleDetected, from, to)
	}

	switch kind {
	case EdgeSource:
		target.sources = append(target.sources, from)
	case EdgeTrigger:
		target.triggers.Add(from)
	}

	set, ok := g.dependents[from]
	if !ok {
		set = mapset.NewThreadUnsafeSet[Handle]()
		g.dependents[from] = set
	}
	set.Add(to)
	return nil
}

// wouldCycle reports whether an edge from -> to would close a cycle, i.e.
// whether from is already reachable from to along forward edges. A
// self-edge is the degenerate case.
func (g *graph) wouldCycle(from, to Handle) bool {
	if from == to {
		return true
	}
	visited := mapset.NewThreadUnsafeSet[Handle]()
	queue := []Handle{to}
	for len(queue) > 0 {
		h := queue[0]
		queue = queue[1:]
		if !visited.Add(h) {
			continue
		}
		set, ok := g.dependents[h]
		if !ok {
			continue
		}
		found := false
		set.Each(func(d Handle) bool {
			if d == from {
				found = true
				return true
			}
			if !visited.Contains(d) {
				queue = append(queue, d)
			}
			return false
		})
		if found {
			return true
		}
	}
	return false
}

// removeNode deletes h and cascades edge removal: h leaves every
// dependency's dependent set and every dependent's trigger set. A
// dependent's ordered source list keeps the now-dead handle, because
// compacting it would shift the argument positions of its surviving
// sources; the dependent fails with an unresolved-dependency diagnostic
// until the host rebuilds it.
func (g *graph) removeNode(h Handle) bool {
	n := g.nodes[h]
	if n == nil {
		return false
	}

	for _, s := range n.sources {
		if set, ok := g.dependents[s]; ok {
			set.Remove(h)
		}
	}
	n.triggers.Each(func(t Handle) bool {
		if set, ok := g.dependents[t]; ok {
			set.Remove(h)
		}
		return false
	})

	if set, ok := g.dependents[h]; ok {
		set.Each(func(d Handle) bool {
			if dn := g.nodes[d]; dn != nil {
				dn.triggers.Remove(h)
			}
			return false
		})
		delete(g.dependents, h)
	}

	delete(g.nodes, h)
	return true
}

// dependentsOf returns h's dependents in handle order.
func (g *graph) dependentsOf(h Handle) []Handle {
	set, ok := g.dependents[h]
	if !ok || set.Cardinality() == 0 {
		return nil
	}
	out := set.ToSlice()
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// dependenciesOf returns h's backward edges: sources in declared order,
// then triggers in handle order.
func (g *graph) dependenciesOf(h Handle) []Dependency {
	n := g.nodes[h]
	if n == nil {
		return nil
	}
	out := make([]Dependency, 0, len(n.sources)+n.triggers.Cardinality())
	for _, s := range n.sources {
		out = append(out, Dependency{Handle: s, Kind: EdgeSource})
	}
	triggers := n.triggers.ToSlice()
	sort.Slice(triggers, func(i, j int) bool { return triggers[i] < triggers[j] })
	for _, t := range triggers {
		out = append(out, Dependency{Handle: t, Kind: EdgeTrigger})
	}
	return out
}

// handles returns every live handle in ascending order.
func (g *graph) handles() []Handle {
	out := make([]Handle, 0, len(g.nodes))
	for h := range g.nodes {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// fingerprint hashes the topology: handles, kinds and edges, in canonical
// order. Values and flags are excluded, so the fingerprint moves only when
// the graph's shape does.
func (g *graph) fingerprint() uint64 {
	d := xxhash.New()
	var buf [8]byte
	writeHandle := func(h Handle) {
		binary.LittleEndian.PutUint64(buf[:], uint64(h))
		_, _ = d.Write(buf[:])
	}

	for _, h := range g.handles() {
		n := g.nodes[h]
		writeHandle(h)
		_, _ = d.Write([]byte{byte(n.kind)})
		for _, s := range n.sources {
			writeHandle(s)
		}
		_, _ = d.Write([]byte{0xff})
		triggers := n.triggers.ToSlice()
		sort.Slice(triggers, func(i, j int) bool { return triggers[i] < triggers[j] })
		for _, t := range triggers {
			writeHandle(t)
		}
		_, _ = d.Write([]byte{0xfe})
	}
	return d.Sum64()
}
