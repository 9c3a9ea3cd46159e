package depgraph

// StronglyConnected returns the strongly connected components of g, using
// Tarjan's algorithm. Every vertex appears in exactly one component. A
// component of size one whose vertex has no self-edge is acyclic; any
// larger component is a cycle.
//
// The order of components is unspecified. Within a component, vertices
// appear in pop order (reverse discovery order). O(V+E).
func StronglyConnected(g *Graph) [][]Vertex {
	t := &tarjan{
		graph:   g,
		index:   make(map[any]int),
		lowlink: make(map[any]int),
		onStack: make(map[any]bool),
	}

	for _, v := range g.Vertices() {
		if _, visited := t.index[hashcode(v)]; !visited {
			t.strongConnect(v)
		}
	}

	return t.components
}

// tarjan holds the traversal state: a discovery index and low-link value
// per vertex, and the stack of vertices on the current search path.
type tarjan struct {
	graph      *Graph
	next       int
	index      map[any]int
	lowlink    map[any]int
	onStack    map[any]bool
	stack      []Vertex
	components [][]Vertex
}

func (t *tarjan) strongConnect(v Vertex) {
	key := hashcode(v)
	t.index[key] = t.next
	t.lowlink[key] = t.next
	t.next++

	t.stack = append(t.stack, v)
	t.onStack[key] = true

	for _, w := range t.graph.downEdgesNoCopy(v).List() {
		wKey := hashcode(w)

		if _, visited := t.index[wKey]; !visited {
			t.strongConnect(w)
			if t.lowlink[wKey] < t.lowlink[key] {
				t.lowlink[key] = t.lowlink[wKey]
			}
		} else if t.onStack[wKey] {
			// Neighbors no longer on the stack belong to components that
			// are already complete; following them would conflate
			// reachability with SCC membership.
			if t.index[wKey] < t.lowlink[key] {
				t.lowlink[key] = t.index[wKey]
			}
		}
	}

	// v is the root of a component when nothing above it on the search
	// path reaches back past it. Pop the stack down to and including v to
	// form the component.
	if t.lowlink[key] == t.index[key] {
		var component []Vertex
		for {
			n := len(t.stack) - 1
			w := t.stack[n]
			t.stack = t.stack[:n]

			wKey := hashcode(w)
			t.onStack[wKey] = false
			component = append(component, w)

			if wKey == key {
				break
			}
		}
		t.components = append(t.components, component)
	}
}
