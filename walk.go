package depgraph

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// WalkFunc is the per-vertex operation invoked by Walker.Walk.
type WalkFunc func(Vertex) error

// Walker runs an operation on every vertex of a graph so that a vertex's
// operation starts only after the operations of all its dependencies (its
// successor edges) have completed successfully. Vertices with no
// dependency relation run in any order, possibly concurrently.
//
// Shutdown on failure is cooperative: once a failure is observed no new
// vertex is dispatched, but operations already running are left to finish,
// and every failure is collected and returned after the in-flight work
// drains.
type Walker struct {
	// Concurrency bounds how many operations run at once. Zero or
	// negative means no bound.
	Concurrency int

	// Logger receives debug events for vertex dispatch, completion and
	// failure. Nil disables logging.
	Logger *zap.Logger
}

// Walk processes every vertex of g in dependency order. The graph must be
// a validated DAG (see AcyclicGraph.Validate); Walk does not re-validate.
//
// The returned error aggregates the errors of every failed operation,
// each annotated with its vertex name. Vertices left unprocessed because
// a dependency failed contribute no error of their own.
func (w *Walker) Walk(g *AcyclicGraph, cb WalkFunc) error {
	log := w.Logger
	if log == nil {
		log = zap.NewNop()
	}

	vertices := g.Vertices()
	if len(vertices) == 0 {
		return nil
	}

	// Count the not-yet-completed dependencies of each vertex. A vertex
	// is ready to dispatch when its count reaches zero.
	pending := make(map[any]int, len(vertices))
	for _, v := range vertices {
		pending[hashcode(v)] = g.downEdgesNoCopy(v).Len()
	}

	// Buffered to the vertex count so enqueueing never blocks while the
	// state lock is held.
	ready := make(chan Vertex, len(vertices))

	var (
		mu     sync.Mutex
		errs   error
		failed bool

		enqueued  int // vertices sent to the ready queue
		settled   int // vertices dispatched and finished, or skipped
		processed int // vertices whose operation actually ran
	)

	// Callers hold mu.
	enqueue := func(v Vertex) {
		enqueued++
		ready <- v
	}

	// Callers hold mu. The dispatch loop stops once every enqueued vertex
	// has settled; at that point nothing is in flight and no counter can
	// reach zero anymore.
	settle := func() {
		settled++
		if settled == enqueued {
			close(ready)
		}
	}

	mu.Lock()
	for _, v := range vertices {
		if pending[hashcode(v)] == 0 {
			enqueue(v)
		}
	}
	if enqueued == 0 {
		mu.Unlock()
		// Every vertex is waiting on another one, which cannot happen on
		// a validated DAG. Refuse rather than deadlock.
		return errors.New("every vertex has a dependency; graph was not validated")
	}
	mu.Unlock()

	workers := pool.New()
	if w.Concurrency > 0 {
		workers = workers.WithMaxGoroutines(w.Concurrency)
	}

	for v := range ready {
		v := v

		// A failure observed before dispatch stops this vertex from
		// starting, even though it was already ready.
		mu.Lock()
		if failed {
			settle()
			mu.Unlock()
			continue
		}
		mu.Unlock()

		workers.Go(func() {
			name := VertexName(v)

			log.Debug("walk: starting vertex", zap.String("vertex", name))
			err := cb(v)

			mu.Lock()
			defer mu.Unlock()

			processed++

			if err != nil {
				log.Debug("walk: vertex failed",
					zap.String("vertex", name), zap.Error(err))
				failed = true
				errs = multierr.Append(errs, errors.Wrapf(err, "vertex %q", name))
			} else {
				log.Debug("walk: vertex complete", zap.String("vertex", name))
				for _, dependent := range g.upEdgesNoCopy(v).List() {
					key := hashcode(dependent)
					pending[key]--
					if pending[key] == 0 && !failed {
						enqueue(dependent)
					}
				}
			}

			settle()
		})
	}

	workers.Wait()

	mu.Lock()
	defer mu.Unlock()

	if skipped := len(vertices) - processed; skipped > 0 {
		if !failed {
			// Unprocessed vertices without any failure means the
			// dependency counts never drained: the graph held a cycle.
			return errors.Errorf("walk stopped early with %d vertices unreachable; graph was not validated", skipped)
		}
		log.Debug("walk: vertices skipped after failure", zap.Int("skipped", skipped))
	}

	return errs
}
