package depgraph

import (
	"fmt"
	"math/rand"
	"sort"
	"testing"

	"github.com/dominikbraun/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// randomDAG builds an acyclic graph over n string vertices. Edges only go
// from a higher-numbered vertex to a lower-numbered one, so the result is
// acyclic by construction.
func randomDAG(rng *rand.Rand, n int, p float64) *AcyclicGraph {
	var g AcyclicGraph
	for i := 0; i < n; i++ {
		g.Add(fmt.Sprintf("v%02d", i))
	}
	for j := 1; j < n; j++ {
		for i := 0; i < j; i++ {
			if rng.Float64() < p {
				g.Connect(BasicEdge(fmt.Sprintf("v%02d", j), fmt.Sprintf("v%02d", i)))
			}
		}
	}
	return &g
}

// reachability returns, for every vertex, the set of vertices reachable
// through successor edges.
func reachability(g *AcyclicGraph) map[string]Set {
	result := make(map[string]Set)
	for _, v := range g.Vertices() {
		result[v.(string)] = g.Ancestors(v)
	}
	return result
}

func edgeStrings(g *Graph) []string {
	var result []string
	for _, e := range g.Edges() {
		result = append(result, fmt.Sprintf("%s->%s", VertexName(e.Source()), VertexName(e.Target())))
	}
	sort.Strings(result)
	return result
}

func TestAcyclicGraph_Root(t *testing.T) {
	var g AcyclicGraph
	g.Add(1)
	g.Add(2)
	g.Add(3)
	g.Connect(BasicEdge(3, 2))
	g.Connect(BasicEdge(3, 1))

	root, err := g.Root()
	require.NoError(t, err)
	assert.Equal(t, 3, root)
}

func TestAcyclicGraph_RootEmptyGraph(t *testing.T) {
	var g AcyclicGraph
	_, err := g.Root()
	assert.ErrorIs(t, err, ErrNoRoot)
}

func TestAcyclicGraph_RootCycle(t *testing.T) {
	// every vertex sits on the cycle, so none has zero in-degree
	var g AcyclicGraph
	g.Connect(BasicEdge("a", "b"))
	g.Connect(BasicEdge("b", "a"))

	_, err := g.Root()
	assert.ErrorIs(t, err, ErrNoRoot)
}

func TestAcyclicGraph_RootMultiple(t *testing.T) {
	var g AcyclicGraph
	g.Add("a")
	g.Add("b")

	_, err := g.Root()

	var rootsErr *MultipleRootsError
	require.ErrorAs(t, err, &rootsErr)
	assert.Len(t, rootsErr.Roots, 2)
	assert.Equal(t, "multiple root vertices: a, b", rootsErr.Error())
}

func TestAcyclicGraph_Validate(t *testing.T) {
	tests := []struct {
		name    string
		build   func(g *AcyclicGraph)
		wantErr string
	}{
		{
			name: "valid dag",
			build: func(g *AcyclicGraph) {
				g.Connect(BasicEdge("a", "b"))
				g.Connect(BasicEdge("b", "c"))
				g.Connect(BasicEdge("a", "c"))
			},
		},
		{
			name: "three cycle",
			build: func(g *AcyclicGraph) {
				g.Connect(BasicEdge("a", "b"))
				g.Connect(BasicEdge("b", "c"))
				g.Connect(BasicEdge("c", "a"))
			},
			wantErr: "cycle: a, b, c",
		},
		{
			name: "self edge",
			build: func(g *AcyclicGraph) {
				g.Add("a")
				g.Connect(BasicEdge("a", "a"))
			},
			wantErr: "cycle: a",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var g AcyclicGraph
			tt.build(&g)

			err := g.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)

			var cycleErr *CycleError
			assert.ErrorAs(t, err, &cycleErr)
		})
	}
}

func TestAcyclicGraph_ValidateReportsAllCycles(t *testing.T) {
	var g AcyclicGraph
	g.Connect(BasicEdge("a", "b"))
	g.Connect(BasicEdge("b", "a"))
	g.Connect(BasicEdge("x", "y"))
	g.Connect(BasicEdge("y", "x"))

	err := g.Validate()
	require.Error(t, err)

	assert.Len(t, g.Cycles(), 2)
	assert.Contains(t, err.Error(), "cycle: a, b")
	assert.Contains(t, err.Error(), "cycle: x, y")
}

func TestAcyclicGraph_DepthFirstWalk(t *testing.T) {
	var g AcyclicGraph
	g.Connect(BasicEdge("a", "b"))
	g.Connect(BasicEdge("a", "c"))
	g.Connect(BasicEdge("b", "d"))
	g.Connect(BasicEdge("c", "d"))
	g.Add("island") // not reachable from a

	visited := make(map[string]int)
	err := g.DepthFirstWalk(makeSet("a"), func(v Vertex, depth int) error {
		visited[v.(string)]++
		return nil
	})
	require.NoError(t, err)

	// every reachable vertex exactly once, nothing else
	assert.Equal(t, map[string]int{"a": 1, "b": 1, "c": 1, "d": 1}, visited)
}

func TestAcyclicGraph_DepthFirstWalkAbort(t *testing.T) {
	var g AcyclicGraph
	g.Connect(BasicEdge("a", "b"))
	g.Connect(BasicEdge("b", "c"))

	boom := fmt.Errorf("boom")
	var visits int
	err := g.DepthFirstWalk(makeSet("a"), func(v Vertex, depth int) error {
		visits++
		return boom
	})

	assert.Equal(t, boom, err)
	assert.Equal(t, 1, visits, "walk must halt on the first error")
}

func TestAcyclicGraph_DepthFirstWalkDepths(t *testing.T) {
	var g AcyclicGraph
	g.Connect(BasicEdge("a", "b"))
	g.Connect(BasicEdge("b", "c"))

	depths := make(map[string]int)
	err := g.DepthFirstWalk(makeSet("a"), func(v Vertex, depth int) error {
		depths[v.(string)] = depth
		return nil
	})
	require.NoError(t, err)

	// a simple chain has unambiguous discovery depths
	assert.Equal(t, map[string]int{"a": 0, "b": 1, "c": 2}, depths)
}

func TestAcyclicGraph_ReverseDepthFirstWalk(t *testing.T) {
	var g AcyclicGraph
	g.Connect(BasicEdge("a", "b"))
	g.Connect(BasicEdge("b", "c"))
	g.Add("island")

	visited := make(map[string]int)
	err := g.ReverseDepthFirstWalk(makeSet("c"), func(v Vertex, depth int) error {
		visited[v.(string)]++
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, map[string]int{"a": 1, "b": 1, "c": 1}, visited)
}

func TestAcyclicGraph_AncestorsAndDescendants(t *testing.T) {
	var g AcyclicGraph
	g.Connect(BasicEdge("a", "b"))
	g.Connect(BasicEdge("b", "c"))
	g.Connect(BasicEdge("x", "c"))

	ancestors := g.Ancestors("a")
	assert.Equal(t, 2, ancestors.Len())
	assert.True(t, ancestors.Include("b"))
	assert.True(t, ancestors.Include("c"))
	assert.False(t, ancestors.Include("a"), "a vertex is not its own ancestor")

	descendants := g.Descendants("c")
	assert.Equal(t, 3, descendants.Len())
	assert.True(t, descendants.Include("a"))
	assert.True(t, descendants.Include("b"))
	assert.True(t, descendants.Include("x"))
}

func TestAcyclicGraph_TopologicalOrder(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 10; i++ {
		g := randomDAG(rng, 20, 0.2)

		order := g.TopologicalOrder()
		require.Len(t, order, 20)

		position := make(map[string]int, len(order))
		for i, v := range order {
			position[v.(string)] = i
		}

		// dependencies come first
		for _, e := range g.Edges() {
			source := e.Source().(string)
			target := e.Target().(string)
			assert.Less(t, position[target], position[source],
				"%s depends on %s but is ordered before it", source, target)
		}

		// in the reverse order every vertex precedes its dependencies.
		// Each call may yield a different valid order, so check the
		// property rather than comparing against the forward order.
		reversed := g.ReverseTopologicalOrder()
		require.Len(t, reversed, 20)

		reversePosition := make(map[string]int, len(reversed))
		for i, v := range reversed {
			reversePosition[v.(string)] = i
		}
		for _, e := range g.Edges() {
			source := e.Source().(string)
			target := e.Target().(string)
			assert.Less(t, reversePosition[source], reversePosition[target],
				"%s must come before its dependency %s", source, target)
		}
	}
}

func TestAcyclicGraph_TransitiveReduction(t *testing.T) {
	// a -> b -> c with the shortcut a -> c: the shortcut is redundant
	var g AcyclicGraph
	g.Connect(BasicEdge("a", "b"))
	g.Connect(BasicEdge("b", "c"))
	g.Connect(BasicEdge("a", "c"))

	g.TransitiveReduction()

	assert.Equal(t, []string{"a->b", "b->c"}, edgeStrings(&g.Graph))
}

func TestAcyclicGraph_TransitiveReductionIdempotent(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 10; i++ {
		g := randomDAG(rng, 15, 0.3)

		g.TransitiveReduction()
		once := edgeStrings(&g.Graph)

		g.TransitiveReduction()
		twice := edgeStrings(&g.Graph)

		assert.Equal(t, once, twice)
	}
}

func TestAcyclicGraph_TransitiveReductionPreservesReachability(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 10; i++ {
		g := randomDAG(rng, 15, 0.3)

		before := reachability(g)
		g.TransitiveReduction()
		after := reachability(g)

		for v, want := range before {
			got := after[v]
			assert.Equal(t, sortedStrings(want), sortedStrings(got),
				"reachability from %s changed", v)
		}
	}
}

// TestAcyclicGraph_TransitiveReductionOracle cross-checks the in-place
// reduction against the dominikbraun/graph implementation on randomized
// DAGs.
func TestAcyclicGraph_TransitiveReductionOracle(t *testing.T) {
	rng := rand.New(rand.NewSource(99))

	for i := 0; i < 10; i++ {
		g := randomDAG(rng, 12, 0.3)

		oracle := graph.New(graph.StringHash, graph.Directed())
		for _, v := range g.Vertices() {
			require.NoError(t, oracle.AddVertex(v.(string)))
		}
		for _, e := range g.Edges() {
			require.NoError(t, oracle.AddEdge(e.Source().(string), e.Target().(string)))
		}

		g.TransitiveReduction()

		reduced, err := graph.TransitiveReduction(oracle)
		require.NoError(t, err)

		oracleEdges, err := reduced.Edges()
		require.NoError(t, err)

		var want []string
		for _, e := range oracleEdges {
			want = append(want, fmt.Sprintf("%s->%s", e.Source, e.Target))
		}
		sort.Strings(want)

		assert.Equal(t, want, edgeStrings(&g.Graph))
	}
}

func sortedStrings(s Set) []string {
	result := make([]string, 0, s.Len())
	for _, v := range s.List() {
		result = append(result, v.(string))
	}
	sort.Strings(result)
	return result
}
