package taskgraph

// Task is an Edge with a pre- and post-Vertex. A parent task's
// aggregateValid additionally requires every child to be
// aggregate-valid; children are not connected to the parent's pre- or
// post-vertex.
type Task struct {
	Name string

	Pre  *Vertex
	Post *Vertex

	Parent   *Task
	Children []*Task

	selfValid      bool
	upstreamValid  bool
	aggregateValid bool

	Execute func() error
}

// NewTask creates a standalone Task with fresh, unconnected vertices.
// It starts invalid: selfValid is false until something runs it
// successfully or the caller explicitly validates it.
func NewTask(name string) *Task {
	t := &Task{Name: name}
	t.Pre = newVertex(PreVertex, t)
	t.Post = newVertex(PostVertex, t)
	t.upstreamValid = true // no predecessors yet: vacuously true
	return t
}

// SelfValid reports the task's own last-known validity, independent
// of its graph position.
func (t *Task) SelfValid() bool { return t.selfValid }

// UpstreamValid reports whether every immediate predecessor is
// currently aggregate-valid.
func (t *Task) UpstreamValid() bool { return t.upstreamValid }

// AggregateValid reports selfValid ∧ upstreamValid ∧ all children
// aggregate-valid ∧ every Synchronizer sibling self- and upstream-valid.
func (t *Task) AggregateValid() bool { return t.aggregateValid }

// Predecessors returns the tasks ending at this task's pre-vertex.
func (t *Task) Predecessors() []*Task {
	return t.Pre.EdgesIn
}

// Successors returns the tasks starting at this task's post-vertex.
func (t *Task) Successors() []*Task {
	return t.Post.EdgesOut
}

// AddChild records child as a child of t by setting its Parent and
// appending it to Children. It does not connect the child to t's pre-
// or post-vertex, and it does not change the child's validity.
func (t *Task) AddChild(child *Task) {
	child.Parent = t
	t.Children = append(t.Children, child)
}
