package taskgraph

import "sync"

// Graph owns a set of Tasks and the Synchronizers coupling their
// vertices, and is the sole entry point for mutating validity: every
// topology change and every selfValid flip runs through it. A selfValid
// flip cascades to a fixpoint; a topology edit recomputes only the
// tasks it touches and their Synchronizer siblings, leaving tasks
// further downstream at their last-known validity.
type Graph struct {
	mu    sync.Mutex
	tasks map[*Task]bool

	invalidated []InvalidatedListener
}

// InvalidatedListener is notified when a registered task's
// aggregateValid flips from true to false.
type InvalidatedListener func(t *Task)

// NewGraph constructs an empty Graph.
func NewGraph() *Graph {
	return &Graph{tasks: make(map[*Task]bool)}
}

// OnInvalidated registers a listener fired every time recomputation
// flips a task's aggregateValid from true to false.
func (g *Graph) OnInvalidated(l InvalidatedListener) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.invalidated = append(g.invalidated, l)
}

// Register adds t to the graph so it participates in validity
// recomputation. NewTask does not auto-register: callers build the
// topology first, then register each task before mutating validity.
func (g *Graph) Register(t *Task) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.tasks[t] = true
}

// Connect makes downstream begin where upstream ends: both tasks'
// vertices on that boundary become the same Vertex object.
func (g *Graph) Connect(upstream, downstream *Task) {
	g.mu.Lock()
	defer g.mu.Unlock()
	boundary := upstream.Post
	downstream.Pre = boundary
	boundary.EdgesIn = appendUnique(boundary.EdgesIn, upstream)
	boundary.EdgesOut = appendUnique(boundary.EdgesOut, downstream)
}

func appendUnique(list []*Task, t *Task) []*Task {
	for _, existing := range list {
		if existing == t {
			return list
		}
	}
	return append(list, t)
}

func removeFrom(list []*Task, t *Task) []*Task {
	out := list[:0]
	for _, existing := range list {
		if existing != t {
			out = append(out, existing)
		}
	}
	return out
}

// SetSelfValid sets t.selfValid and propagates the resulting
// aggregateValid change, forward through successors, up through
// parents, and across any Synchronizer membership, until the graph
// reaches a fixpoint: the AND-shaped aggregateValid recomputation
// implements both the invalidate-forward and the
// validate-if-satisfied rule as one operation.
func (g *Graph) SetSelfValid(t *Task, valid bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	t.selfValid = valid
	g.propagateFrom(t)
}

func (g *Graph) propagateFrom(seed *Task) {
	queue := []*Task{seed}
	queued := map[*Task]bool{seed: true}

	for len(queue) > 0 {
		t := queue[0]
		queue = queue[1:]
		delete(queued, t)

		if !g.recomputeOne(t) {
			continue
		}

		enqueue := func(next *Task) {
			if next != nil && !queued[next] {
				queued[next] = true
				queue = append(queue, next)
			}
		}
		for _, succ := range t.Successors() {
			enqueue(succ)
		}
		enqueue(t.Parent)
		for _, sib := range g.synchronizedSiblings(t) {
			enqueue(sib)
		}
	}
}

// recomputeOne recalculates t.upstreamValid and t.aggregateValid from
// its current predecessors, children, and Synchronizer siblings (each
// sibling must be self- and upstream-valid), returning whether
// aggregateValid changed.
func (g *Graph) recomputeOne(t *Task) bool {
	before := t.aggregateValid

	upstreamValid := true
	for _, pred := range t.Predecessors() {
		if !pred.aggregateValid {
			upstreamValid = false
			break
		}
	}
	t.upstreamValid = upstreamValid

	childrenValid := true
	for _, c := range t.Children {
		if !c.aggregateValid {
			childrenValid = false
			break
		}
	}

	syncValid := true
	for _, sib := range g.synchronizedSiblings(t) {
		if !sib.selfValid || !sib.upstreamValid {
			syncValid = false
			break
		}
	}

	t.aggregateValid = t.selfValid && upstreamValid && childrenValid && syncValid
	if before && !t.aggregateValid {
		for _, l := range g.invalidated {
			l(t)
		}
	}
	return t.aggregateValid != before
}

// synchronizedSiblings returns the owning tasks of every vertex
// coupled to t's pre- or post-vertex by a Synchronizer, excluding t
// itself.
func (g *Graph) synchronizedSiblings(t *Task) []*Task {
	var out []*Task
	add := func(v *Vertex) {
		if v.Synchronizer == nil {
			return
		}
		for _, m := range v.Synchronizer.members {
			if m.Owner != t {
				out = append(out, m.Owner)
			}
		}
	}
	add(t.Pre)
	add(t.Post)
	return out
}

// invalidateLocal marks t invalid and recomputes its own aggregateValid
// along with any Synchronizer sibling affected by the same change, but
// does not walk further downstream. A topology edit at t only tells us
// that t's own boundary moved; it says nothing about whether t's
// successors still hold, so they are left at their last-known validity
// until something re-validates or re-executes them.
func (g *Graph) invalidateLocal(t *Task) {
	t.selfValid = false
	g.recomputeLocalCascadeSync(t)
}

// recomputeLocalCascadeSync recomputes seed and, transitively, any
// Synchronizer sibling whose aggregateValid changes as a result,
// without enqueueing ordinary successors or parents.
func (g *Graph) recomputeLocalCascadeSync(seed *Task) {
	queue := []*Task{seed}
	queued := map[*Task]bool{seed: true}

	for len(queue) > 0 {
		t := queue[0]
		queue = queue[1:]
		delete(queued, t)

		if !g.recomputeOne(t) {
			continue
		}
		for _, sib := range g.synchronizedSiblings(t) {
			if !queued[sib] {
				queued[sib] = true
				queue = append(queue, sib)
			}
		}
	}
}

// InsertBefore inserts newTask immediately upstream of existing:
// existing's old predecessors become newTask's predecessors, and
// existing now starts where newTask ends. Both existing and newTask
// become invalid.
func (g *Graph) InsertBefore(existing, newTask *Task) {
	g.mu.Lock()
	oldPre := existing.Pre
	newTask.Pre = oldPre
	oldPre.EdgesOut = removeFrom(oldPre.EdgesOut, existing)
	oldPre.EdgesOut = appendUnique(oldPre.EdgesOut, newTask)

	boundary := newVertex(PostVertex, newTask)
	newTask.Post = boundary
	existing.Pre = boundary
	boundary.EdgesIn = []*Task{newTask}
	boundary.EdgesOut = []*Task{existing}

	g.tasks[newTask] = true
	g.invalidateLocal(newTask)
	g.invalidateLocal(existing)
	g.mu.Unlock()
}

// InsertAfter inserts newTask immediately downstream of existing:
// whatever used to start where existing ends now starts where
// newTask ends, and existing now feeds only into newTask. existing's
// own validity is left intact; newTask starts invalid.
func (g *Graph) InsertAfter(existing, newTask *Task) {
	g.mu.Lock()
	oldPost := existing.Post
	newTask.Post = oldPost
	oldPost.EdgesIn = removeFrom(oldPost.EdgesIn, existing)
	oldPost.EdgesIn = appendUnique(oldPost.EdgesIn, newTask)

	boundary := newVertex(PostVertex, existing)
	existing.Post = boundary
	newTask.Pre = boundary
	boundary.EdgesIn = []*Task{existing}
	boundary.EdgesOut = []*Task{newTask}

	g.tasks[newTask] = true
	g.invalidateLocal(newTask)
	g.mu.Unlock()
}

// Remove detaches t from the graph, splicing its predecessors
// directly to its successors. Every immediate successor becomes
// invalid, since its upstream boundary moved; tasks further downstream
// are left at their last-known validity.
func (g *Graph) Remove(t *Task) {
	g.mu.Lock()
	preds := append([]*Task(nil), t.Predecessors()...)
	succs := append([]*Task(nil), t.Successors()...)

	for _, p := range preds {
		p.Post.EdgesOut = removeFrom(p.Post.EdgesOut, t)
	}
	for _, s := range succs {
		s.Pre = t.Pre
	}
	t.Pre.EdgesOut = succs
	delete(g.tasks, t)

	for _, s := range succs {
		g.invalidateLocal(s)
	}
	g.mu.Unlock()
}

// Snapshot returns a read-only view of every registered task's
// validity flags, keyed by name, for consumers like a PFC analyst
// that only needs to observe validity, not mutate the graph.
func (g *Graph) Snapshot() map[string]TaskValidity {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make(map[string]TaskValidity, len(g.tasks))
	for t := range g.tasks {
		out[t.Name] = TaskValidity{
			SelfValid:      t.selfValid,
			UpstreamValid:  t.upstreamValid,
			AggregateValid: t.aggregateValid,
		}
	}
	return out
}

// TaskValidity is a value-typed snapshot of one task's three validity
// flags.
type TaskValidity struct {
	SelfValid      bool
	UpstreamValid  bool
	AggregateValid bool
}
