package depgraph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// AcyclicGraph is a Graph whose edge relation is expected to contain no
// directed cycle. The property is enforced by Validate, not by
// construction: callers build the graph, validate it once, and only then
// use the DAG operations. Root, TransitiveReduction and the walks have
// undefined behavior on a graph containing a cycle.
type AcyclicGraph struct {
	Graph
}

// ErrNoRoot is returned by Root when the graph is empty or no vertex has
// zero incoming edges. The latter cannot happen on a true DAG with at
// least one vertex, so it signals malformed input upstream.
var ErrNoRoot = errors.New("no root vertex found")

// MultipleRootsError is returned by Root when more than one vertex has no
// incoming edges. It carries all candidate roots for diagnostics.
type MultipleRootsError struct {
	Roots []Vertex
}

func (e *MultipleRootsError) Error() string {
	return fmt.Sprintf("multiple root vertices: %s", vertexNames(e.Roots))
}

// CycleError reports a directed cycle found during validation. Vertices
// holds the members of one strongly connected component (or the single
// vertex of a self-referencing edge).
type CycleError struct {
	Vertices []Vertex
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("cycle: %s", vertexNames(e.Vertices))
}

func vertexNames(vertices []Vertex) string {
	names := make([]string, len(vertices))
	for i, v := range vertices {
		names[i] = VertexName(v)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

// Root returns the unique vertex with no incoming edges. O(V).
func (g *AcyclicGraph) Root() (Vertex, error) {
	var roots []Vertex
	for _, v := range g.Vertices() {
		if g.upEdgesNoCopy(v).Len() == 0 {
			roots = append(roots, v)
		}
	}

	switch len(roots) {
	case 0:
		return nil, ErrNoRoot
	case 1:
		return roots[0], nil
	default:
		return nil, &MultipleRootsError{Roots: roots}
	}
}

// Validate checks that the graph contains no directed cycle, using
// strongly-connected-components analysis. Every strongly connected
// component with more than one vertex, and every self-referencing edge, is
// reported as a CycleError; all findings are combined into the returned
// error. A nil return means the graph is a valid DAG.
//
// Validation costs O(V+E), so the DAG operations don't re-run it
// implicitly - callers validate once after construction.
func (g *AcyclicGraph) Validate() error {
	var err error

	for _, cycle := range g.Cycles() {
		err = multierr.Append(err, &CycleError{Vertices: cycle})
	}

	for _, e := range g.Edges() {
		if hashcode(e.Source()) == hashcode(e.Target()) {
			err = multierr.Append(err, &CycleError{Vertices: []Vertex{e.Source()}})
		}
	}

	return err
}

// Cycles returns the strongly connected components of the graph that
// contain more than one vertex. Size-one components without a self-edge
// are acyclic and not reported.
func (g *AcyclicGraph) Cycles() [][]Vertex {
	var cycles [][]Vertex
	for _, component := range StronglyConnected(&g.Graph) {
		if len(component) > 1 {
			cycles = append(cycles, component)
		}
	}
	return cycles
}

// DepthWalkFunc is the callback for the depth-first walks. The depth is
// the traversal stack depth at which the vertex was first discovered. It
// is a discovery-order artifact, not a shortest-path distance: the
// explicit stack may interleave branches, so don't build correctness on
// it.
type DepthWalkFunc func(Vertex, int) error

// DepthFirstWalk explores the graph downward (along successor edges) from
// every vertex in start, invoking f once per discovered vertex. An error
// from f aborts the walk immediately and is returned; side effects of
// earlier visits stand.
func (g *AcyclicGraph) DepthFirstWalk(start Set, f DepthWalkFunc) error {
	return g.walk(start, g.downEdgesNoCopy, f)
}

// ReverseDepthFirstWalk is DepthFirstWalk along predecessor edges: it
// explores upward from every vertex in start.
func (g *AcyclicGraph) ReverseDepthFirstWalk(start Set, f DepthWalkFunc) error {
	return g.walk(start, g.upEdgesNoCopy, f)
}

type vertexAtDepth struct {
	Vertex Vertex
	Depth  int
}

// walk is the traversal shared by the forward and reverse walks; next
// selects which adjacency index to follow. It uses an explicit stack
// rather than recursion so that deep graphs can't exhaust the call stack,
// and a seen set so each vertex is visited at most once.
func (g *AcyclicGraph) walk(start Set, next func(Vertex) Set, f DepthWalkFunc) error {
	seen := make(map[any]struct{})

	frontier := make([]vertexAtDepth, 0, start.Len())
	for _, v := range start.List() {
		frontier = append(frontier, vertexAtDepth{Vertex: v})
	}

	for len(frontier) > 0 {
		n := len(frontier) - 1
		current := frontier[n]
		frontier = frontier[:n]

		key := hashcode(current.Vertex)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		if err := f(current.Vertex, current.Depth); err != nil {
			return err
		}

		for _, t := range next(current.Vertex).List() {
			frontier = append(frontier, vertexAtDepth{
				Vertex: t,
				Depth:  current.Depth + 1,
			})
		}
	}

	return nil
}

// Ancestors returns every vertex that v transitively depends on: the set
// of vertices reachable from v along successor edges, excluding v itself.
func (g *AcyclicGraph) Ancestors(v Vertex) Set {
	result := make(Set)
	_ = g.DepthFirstWalk(g.downEdgesNoCopy(v), func(w Vertex, depth int) error {
		result.Add(w)
		return nil
	})
	return result
}

// Descendants returns every vertex that transitively depends on v: the
// set of vertices reachable from v along predecessor edges, excluding v
// itself.
func (g *AcyclicGraph) Descendants(v Vertex) Set {
	result := make(Set)
	_ = g.ReverseDepthFirstWalk(g.upEdgesNoCopy(v), func(w Vertex, depth int) error {
		result.Add(w)
		return nil
	})
	return result
}

// TopologicalOrder returns all vertices ordered so that every vertex
// appears after all of its successors (its dependencies). The graph must
// be a validated DAG. Ordering among unrelated vertices is unspecified.
func (g *AcyclicGraph) TopologicalOrder() []Vertex {
	order := make([]Vertex, 0, g.vertices.Len())
	seen := make(map[any]struct{})

	var visit func(v Vertex)
	visit = func(v Vertex) {
		key := hashcode(v)
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}

		for _, dep := range g.downEdgesNoCopy(v).List() {
			visit(dep)
		}
		order = append(order, v)
	}

	for _, v := range g.Vertices() {
		visit(v)
	}

	return order
}

// ReverseTopologicalOrder is TopologicalOrder reversed: every vertex
// appears before its dependencies.
func (g *AcyclicGraph) ReverseTopologicalOrder() []Vertex {
	order := g.TopologicalOrder()
	for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
		order[i], order[j] = order[j], order[i]
	}
	return order
}

// TransitiveReduction removes, in place, every edge that is redundant
// because a longer path already connects its endpoints: for each vertex u
// with direct successors v, any vertex reachable below v that is also a
// direct successor of u loses its direct edge from u.
//
// The graph must be a validated DAG; behavior is unspecified otherwise.
// The reachability relation is preserved. O(V·(V+E)).
func (g *AcyclicGraph) TransitiveReduction() {
	for _, u := range g.Vertices() {
		uTargets := g.downEdgesNoCopy(u)

		_ = g.DepthFirstWalk(g.downEdgesNoCopy(u), func(v Vertex, depth int) error {
			shared := uTargets.Intersection(g.downEdgesNoCopy(v))
			for _, vPrime := range shared.List() {
				g.RemoveEdge(BasicEdge(u, vPrime))
			}
			return nil
		})
	}
}
