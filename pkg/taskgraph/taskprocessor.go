package taskgraph

import (
	"errors"
	"fmt"

	"github.com/eaglepoint/batchsim/pkg/executive"
)

// ErrCyclicGraph is returned by StructuralCheck when the registered
// tasks do not form a DAG.
var ErrCyclicGraph = errors.New("taskgraph: task graph contains a cycle")

// ErrDanglingSynchronizerMember is returned by StructuralCheck when a
// Synchronizer couples a vertex whose owning task was never
// registered with the Graph.
var ErrDanglingSynchronizerMember = errors.New("taskgraph: synchronizer member owned by an unregistered task")

// TaskProcessor walks a Graph's tasks in topological order, requesting
// one Executive event per task: a task whose aggregateValid is false
// is eligible to run, and a successful run marks it selfValid, which
// re-triggers validity propagation through the Graph.
type TaskProcessor struct {
	graph *Graph
	roots []*Task
}

// NewTaskProcessor constructs a TaskProcessor over graph, rooted at
// roots (the tasks with no predecessors and no parent).
func NewTaskProcessor(graph *Graph, roots ...*Task) *TaskProcessor {
	return &TaskProcessor{graph: graph, roots: roots}
}

// StructuralCheck verifies the graph is acyclic and that every
// Synchronizer member belongs to a task the Graph actually tracks. It
// is run as a Prepare handler on the Idle->Validated transition.
func (p *TaskProcessor) StructuralCheck() error {
	if err := p.checkAcyclic(); err != nil {
		return err
	}
	return p.checkSynchronizerMembership()
}

func (p *TaskProcessor) checkAcyclic() error {
	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := make(map[*Task]int)

	var visit func(t *Task) error
	visit = func(t *Task) error {
		switch state[t] {
		case done:
			return nil
		case visiting:
			return fmt.Errorf("%w: at %q", ErrCyclicGraph, t.Name)
		}
		state[t] = visiting
		for _, succ := range t.Successors() {
			if err := visit(succ); err != nil {
				return err
			}
		}
		for _, c := range t.Children {
			if err := visit(c); err != nil {
				return err
			}
		}
		state[t] = done
		return nil
	}

	for _, root := range p.roots {
		if err := visit(root); err != nil {
			return err
		}
	}
	return nil
}

func (p *TaskProcessor) checkSynchronizerMembership() error {
	seen := make(map[*Synchronizer]bool)
	var walk func(t *Task) error
	walk = func(t *Task) error {
		for _, v := range []*Vertex{t.Pre, t.Post} {
			sync := v.Synchronizer
			if sync == nil || seen[sync] {
				continue
			}
			seen[sync] = true
			for _, member := range sync.Members() {
				if member.Owner != nil && !p.graph.tasks[member.Owner] {
					return fmt.Errorf("%w: %q via synchronizer %q", ErrDanglingSynchronizerMember, member.Owner.Name, sync.Name)
				}
			}
		}
		for _, succ := range t.Successors() {
			if err := walk(succ); err != nil {
				return err
			}
		}
		for _, c := range t.Children {
			if err := walk(c); err != nil {
				return err
			}
		}
		return nil
	}
	for _, root := range p.roots {
		if err := walk(root); err != nil {
			return err
		}
	}
	return nil
}

// topologicalOrder returns every reachable task from p.roots, each
// task appearing only after all of its predecessors and its parent.
func (p *TaskProcessor) topologicalOrder() []*Task {
	var order []*Task
	visited := make(map[*Task]bool)

	var visit func(t *Task)
	visit = func(t *Task) {
		if visited[t] {
			return
		}
		visited[t] = true
		for _, pred := range t.Predecessors() {
			visit(pred)
		}
		if t.Parent != nil {
			visit(t.Parent)
		}
		order = append(order, t)
		for _, succ := range t.Successors() {
			visit(succ)
		}
		for _, c := range t.Children {
			visit(c)
		}
	}
	for _, root := range p.roots {
		visit(root)
	}
	return order
}

// Run requests one synchronous event per task, in topological order,
// against exec. Each task whose aggregateValid is currently false is
// executed; Execute's success marks selfValid true and lets the Graph
// re-propagate, possibly making a previously-blocked downstream task
// eligible by the time its own event fires. A task with a nil Execute
// is treated as already satisfied and is skipped without being marked
// valid itself.
func (p *TaskProcessor) Run(exec *executive.Executive, startAt executive.SimTime) error {
	order := p.topologicalOrder()
	firstErr := make(chan error, 1)

	for i, t := range order {
		task := t
		// Events at equal When run highest-priority first, so earlier
		// topological positions get less negative priority values.
		_, err := exec.RequestEvent(func(ctx *executive.EventContext) error {
			if task.AggregateValid() || task.Execute == nil {
				return nil
			}
			if err := task.Execute(); err != nil {
				select {
				case firstErr <- fmt.Errorf("taskgraph: task %q failed: %w", task.Name, err):
				default:
				}
				return err
			}
			p.graph.SetSelfValid(task, true)
			return nil
		}, startAt, -float64(i), nil, executive.Synchronous)
		if err != nil {
			return err
		}
	}

	select {
	case err := <-firstErr:
		return err
	default:
		return nil
	}
}
