package taskgraph

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eaglepoint/batchsim/pkg/executive"
)

func chainWithRecorder(names ...string) (*Graph, []*Task, *[]string) {
	g := NewGraph()
	ran := make([]string, 0, len(names))
	tasks := make([]*Task, 0, len(names))

	var prev *Task
	for _, name := range names {
		n := name
		tk := NewTask(n)
		tk.Execute = func() error {
			ran = append(ran, n)
			return nil
		}
		g.Register(tk)
		if prev != nil {
			g.Connect(prev, tk)
		}
		prev = tk
		tasks = append(tasks, tk)
	}
	return g, tasks, &ran
}

func TestTaskProcessorRunExecutesInTopologicalOrder(t *testing.T) {
	graph, tasks, ran := chainWithRecorder("charge", "heat", "discharge")
	p := NewTaskProcessor(graph, tasks[0])

	exec := executive.New()
	require.NoError(t, p.Run(exec, 0))
	require.NoError(t, exec.Start())

	assert.Equal(t, []string{"charge", "heat", "discharge"}, *ran)
	for _, tk := range tasks {
		assert.True(t, tk.AggregateValid(), tk.Name)
	}
}

func TestTaskProcessorRunSkipsAlreadyValidTasks(t *testing.T) {
	graph, tasks, ran := chainWithRecorder("charge", "heat")
	graph.SetSelfValid(tasks[0], true)

	p := NewTaskProcessor(graph, tasks[0])
	exec := executive.New()
	require.NoError(t, p.Run(exec, 0))
	require.NoError(t, exec.Start())

	assert.Equal(t, []string{"heat"}, *ran, "an already aggregate-valid task must not re-run")
}

func TestTaskProcessorRunAbortsExecutiveOnExecuteFailure(t *testing.T) {
	graph := NewGraph()
	a := NewTask("a")
	b := NewTask("b")
	graph.Register(a)
	graph.Register(b)
	graph.Connect(a, b)

	boom := errors.New("boom")
	var aborted *executive.AbortedEventError
	bRan := false
	a.Execute = func() error { return boom }
	b.Execute = func() error { bRan = true; return nil }

	p := NewTaskProcessor(graph, a)
	exec := executive.New()
	exec.OnAborted(func(ae *executive.AbortedEventError) { aborted = ae })
	require.NoError(t, p.Run(exec, 0))

	require.NoError(t, exec.Start())
	require.NotNil(t, aborted)
	assert.ErrorIs(t, aborted.Cause, boom)
	assert.False(t, a.AggregateValid())
	assert.False(t, bRan, "an aborted executive must not run tasks queued after the failure")
}

func TestStructuralCheckRejectsCycle(t *testing.T) {
	graph := NewGraph()
	a := NewTask("a")
	b := NewTask("b")
	graph.Register(a)
	graph.Register(b)
	graph.Connect(a, b)
	graph.Connect(b, a)

	p := NewTaskProcessor(graph, a)
	err := p.StructuralCheck()
	assert.ErrorIs(t, err, ErrCyclicGraph)
}

func TestStructuralCheckAcceptsAcyclicGraph(t *testing.T) {
	graph, tasks, _ := chainWithRecorder("a", "b", "c")
	p := NewTaskProcessor(graph, tasks[0])
	assert.NoError(t, p.StructuralCheck())
}

func TestStructuralCheckRejectsDanglingSynchronizerMember(t *testing.T) {
	graph := NewGraph()
	a := NewTask("a")
	b := NewTask("b")
	graph.Register(a)
	// b is deliberately never registered with graph.

	sync := NewSynchronizer("cross-branch")
	sync.Join(a.Post)
	sync.Join(b.Post)

	p := NewTaskProcessor(graph, a)
	err := p.StructuralCheck()
	assert.ErrorIs(t, err, ErrDanglingSynchronizerMember)
}
