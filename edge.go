package depgraph

// Edge is a directed connection from a source vertex to a target vertex.
type Edge interface {
	Source() Vertex
	Target() Vertex
}

// BasicEdge returns an Edge between the two given vertices.
func BasicEdge(source, target Vertex) Edge {
	return &basicEdge{S: source, T: target}
}

type basicEdge struct {
	S, T Vertex
}

// Hashcode identifies the edge by its endpoint identities, so two
// BasicEdges between the same pair of vertices are the same edge.
func (e *basicEdge) Hashcode() any {
	return [2]any{hashcode(e.S), hashcode(e.T)}
}

func (e *basicEdge) Source() Vertex {
	return e.S
}

func (e *basicEdge) Target() Vertex {
	return e.T
}
