package taskgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewTaskStartsInvalidWithVacuousUpstream(t *testing.T) {
	tk := NewTask("t1")
	assert.False(t, tk.SelfValid())
	assert.True(t, tk.UpstreamValid())
	assert.False(t, tk.AggregateValid())
	assert.Empty(t, tk.Predecessors())
	assert.Empty(t, tk.Successors())
}

func TestAddChildRequiresAllChildrenValidForAggregate(t *testing.T) {
	g := NewGraph()
	parent := NewTask("batch")
	g.Register(parent)

	child1 := NewTask("charge")
	child2 := NewTask("heat")
	parent.AddChild(child1)
	parent.AddChild(child2)
	g.Register(child1)
	g.Register(child2)

	g.SetSelfValid(parent, true)
	g.SetSelfValid(child1, true)
	assert.False(t, parent.AggregateValid(), "child2 still invalid")

	g.SetSelfValid(child2, true)
	assert.True(t, parent.AggregateValid())
}
