package depgraph

import (
	"bytes"
	"fmt"
	"sort"
)

// Vertex is an opaque value stored in a Graph. The graph never inspects
// vertex content; it only needs a stable identity, obtained from Hashcode()
// if the value implements Hashable, or from the value itself otherwise.
type Vertex any

// NamedVertex can be implemented by vertices to control how they are
// rendered in diagnostics.
type NamedVertex interface {
	Name() string
}

// VertexName returns the display name of a vertex, for error messages and
// debug output.
func VertexName(v Vertex) string {
	switch t := v.(type) {
	case NamedVertex:
		return t.Name()
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprintf("%v", t)
	}
}

// Graph is a directed graph. The zero value is ready for use.
//
// A Graph is not safe for concurrent mutation; the engine assumes a single
// writer during construction and validation.
type Graph struct {
	vertices Set
	edges    Set

	// Adjacency indexes keyed by vertex identity. For every edge (u, v) in
	// the edge set, v is in downEdges[u] and u is in upEdges[v]. Every
	// mutation keeps the three collections consistent.
	downEdges map[any]Set
	upEdges   map[any]Set
}

func (g *Graph) init() {
	if g.vertices == nil {
		g.vertices = make(Set)
	}
	if g.edges == nil {
		g.edges = make(Set)
	}
	if g.downEdges == nil {
		g.downEdges = make(map[any]Set)
	}
	if g.upEdges == nil {
		g.upEdges = make(map[any]Set)
	}
}

// Vertices returns a snapshot of all vertices in the graph, in no
// particular order.
func (g *Graph) Vertices() []Vertex {
	result := make([]Vertex, 0, g.vertices.Len())
	for _, v := range g.vertices {
		result = append(result, v)
	}
	return result
}

// Edges returns a snapshot of all edges in the graph, in no particular
// order.
func (g *Graph) Edges() []Edge {
	result := make([]Edge, 0, g.edges.Len())
	for _, e := range g.edges {
		result = append(result, e.(Edge))
	}
	return result
}

// Add inserts v into the graph and returns it. Adding a vertex that is
// already present has no effect.
func (g *Graph) Add(v Vertex) Vertex {
	g.init()
	g.vertices.Add(v)
	return v
}

// Remove deletes v along with every edge where v is the source or the
// target, keeping the adjacency indexes consistent. Removing an absent
// vertex is a no-op.
func (g *Graph) Remove(v Vertex) {
	g.init()

	for _, target := range g.downEdgesNoCopy(v).List() {
		g.RemoveEdge(BasicEdge(v, target))
	}
	for _, source := range g.upEdgesNoCopy(v).List() {
		g.RemoveEdge(BasicEdge(source, v))
	}

	g.vertices.Delete(v)
	delete(g.downEdges, hashcode(v))
	delete(g.upEdges, hashcode(v))
}

// HasVertex reports whether v is in the graph.
func (g *Graph) HasVertex(v Vertex) bool {
	return g.vertices.Include(v)
}

// HasEdge reports whether e is in the graph.
func (g *Graph) HasEdge(e Edge) bool {
	return g.edges.Include(e)
}

// Connect adds the directed edge e to the graph. Both endpoints are added
// to the vertex set if missing. Connecting an already connected pair has
// no effect.
func (g *Graph) Connect(e Edge) {
	g.init()

	source, target := e.Source(), e.Target()
	sourceKey, targetKey := hashcode(source), hashcode(target)

	// already connected
	if s, ok := g.downEdges[sourceKey]; ok && s.Include(target) {
		return
	}

	g.edges.Add(e)
	g.vertices.Add(source)
	g.vertices.Add(target)

	s, ok := g.downEdges[sourceKey]
	if !ok {
		s = make(Set)
		g.downEdges[sourceKey] = s
	}
	s.Add(target)

	s, ok = g.upEdges[targetKey]
	if !ok {
		s = make(Set)
		g.upEdges[targetKey] = s
	}
	s.Add(source)
}

// RemoveEdge deletes e from the graph. The vertices remain. Removing an
// absent edge is a no-op.
func (g *Graph) RemoveEdge(e Edge) {
	g.init()

	g.edges.Delete(e)

	if s, ok := g.downEdges[hashcode(e.Source())]; ok {
		s.Delete(e.Target())
	}
	if s, ok := g.upEdges[hashcode(e.Target())]; ok {
		s.Delete(e.Source())
	}
}

// DownEdges returns a copy of the set of direct successors of v - the
// vertices that v points at. Returns an empty set for a vertex with no
// outgoing edges, including vertices not in the graph.
func (g *Graph) DownEdges(v Vertex) Set {
	return g.downEdgesNoCopy(v).Copy()
}

// UpEdges returns a copy of the set of direct predecessors of v - the
// vertices pointing at v.
func (g *Graph) UpEdges(v Vertex) Set {
	return g.upEdgesNoCopy(v).Copy()
}

// downEdgesNoCopy returns the live successor set of v. Traversal hot paths
// use this to avoid copying; the caller must not mutate the result.
func (g *Graph) downEdgesNoCopy(v Vertex) Set {
	return g.downEdges[hashcode(v)]
}

// upEdgesNoCopy returns the live predecessor set of v. The caller must not
// mutate the result.
func (g *Graph) upEdgesNoCopy(v Vertex) Set {
	return g.upEdges[hashcode(v)]
}

// EdgesFrom returns the edges whose source is v.
func (g *Graph) EdgesFrom(v Vertex) []Edge {
	var result []Edge
	key := hashcode(v)
	for _, e := range g.Edges() {
		if hashcode(e.Source()) == key {
			result = append(result, e)
		}
	}
	return result
}

// EdgesTo returns the edges whose target is v.
func (g *Graph) EdgesTo(v Vertex) []Edge {
	var result []Edge
	key := hashcode(v)
	for _, e := range g.Edges() {
		if hashcode(e.Target()) == key {
			result = append(result, e)
		}
	}
	return result
}

// String renders the graph for debugging. Each vertex is listed in name
// order, followed by its direct successors indented below it:
//
//	root
//	  leaf
//	  mid
//	mid
//	  leaf
func (g *Graph) String() string {
	var buf bytes.Buffer

	names := make([]string, 0, g.vertices.Len())
	byName := make(map[string]Vertex, g.vertices.Len())
	for _, v := range g.Vertices() {
		name := VertexName(v)
		names = append(names, name)
		byName[name] = v
	}
	sort.Strings(names)

	for _, name := range names {
		v := byName[name]
		buf.WriteString(name + "\n")

		targets := g.downEdgesNoCopy(v)
		targetNames := make([]string, 0, targets.Len())
		for _, t := range targets.List() {
			targetNames = append(targetNames, VertexName(t))
		}
		sort.Strings(targetNames)

		for _, t := range targetNames {
			fmt.Fprintf(&buf, "  %s\n", t)
		}
	}

	return buf.String()
}
