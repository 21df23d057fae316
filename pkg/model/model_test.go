package model

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eaglepoint/batchsim/internal/config"
	"github.com/eaglepoint/batchsim/pkg/auditstore"
	"github.com/eaglepoint/batchsim/pkg/chemistry"
	"github.com/eaglepoint/batchsim/pkg/reaction"
	"github.com/eaglepoint/batchsim/pkg/taskgraph"
	"github.com/eaglepoint/batchsim/pkg/telemetry"
)

// counterTotal sums every sample of the named counter/counter-vec family
// found in families, or -1 if the family isn't present at all.
func counterTotal(t *testing.T, families []*dto.MetricFamily, name string) float64 {
	t.Helper()
	for _, fam := range families {
		if fam.GetName() != name {
			continue
		}
		total := 0.0
		for _, m := range fam.GetMetric() {
			total += m.GetCounter().GetValue()
		}
		return total
	}
	return -1
}

func reactionWithGhost(ghost *chemistry.MaterialType, catalog *chemistry.MaterialCatalog) reaction.Reaction {
	source := catalog.Register(&chemistry.MaterialType{Name: "Source", State: chemistry.Liquid, SpecificHeat: 1, SpecificGravity: 1})
	return reaction.Reaction{
		Name:      "decays-to-ghost",
		Reactants: []reaction.Component{{Type: source, Fraction: 1}},
		Products:  []reaction.Component{{Type: ghost, Fraction: 1}},
	}
}

func buildChain(names ...string) (*taskgraph.Graph, []*taskgraph.Task, *[]string) {
	g := taskgraph.NewGraph()
	ran := make([]string, 0, len(names))
	tasks := make([]*taskgraph.Task, 0, len(names))

	var prev *taskgraph.Task
	for _, name := range names {
		n := name
		tk := taskgraph.NewTask(n)
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

func TestModelValidateStartRunsEveryTaskToCompletion(t *testing.T) {
	graph, tasks, ran := buildChain("charge", "heat", "discharge")

	catalog := chemistry.NewMaterialCatalog()
	m := NewModel(config.Config{}, graph, []*taskgraph.Task{tasks[0]}, catalog)

	require.NoError(t, m.Validate())
	assert.Equal(t, Validated, m.States.Current())

	require.NoError(t, m.Start())
	assert.Equal(t, Finished, m.States.Current())

	assert.Equal(t, []string{"charge", "heat", "discharge"}, *ran)
	for _, tk := range tasks {
		assert.True(t, tk.AggregateValid(), tk.Name)
	}
}

func buildThreeBranches(names ...[]string) (*taskgraph.Graph, map[string]*taskgraph.Task, *[]string) {
	g := taskgraph.NewGraph()
	tasks := make(map[string]*taskgraph.Task)
	ran := make([]string, 0)

	for _, chain := range names {
		var prev *taskgraph.Task
		for _, name := range chain {
			n := name
			tk := taskgraph.NewTask(n)
			tk.Execute = func() error {
				ran = append(ran, n)
				return nil
			}
			g.Register(tk)
			tasks[n] = tk
			if prev != nil {
				g.Connect(prev, tk)
			}
			prev = tk
		}
	}
	return g, tasks, &ran
}

func TestModelRunsThreeIndependentBranchesToCompletion(t *testing.T) {
	chains := [][]string{
		{"t1", "t11", "t12", "t13"},
		{"t2", "t21", "t22", "t23"},
		{"t3", "t31", "t32", "t33"},
	}
	graph, tasks, ran := buildThreeBranches(chains...)

	roots := []*taskgraph.Task{tasks["t1"], tasks["t2"], tasks["t3"]}
	catalog := chemistry.NewMaterialCatalog()
	m := NewModel(config.Config{}, graph, roots, catalog)

	require.NoError(t, m.Validate())
	require.NoError(t, m.Start())
	assert.Equal(t, Finished, m.States.Current())

	for _, tk := range tasks {
		assert.True(t, tk.AggregateValid(), tk.Name)
	}
	assert.Len(t, *ran, 12)

	positions := make(map[string]int)
	for i, name := range *ran {
		positions[name] = i
	}
	for _, chain := range chains {
		for i := 1; i < len(chain); i++ {
			assert.Less(t, positions[chain[i-1]], positions[chain[i]], "%s must run before %s", chain[i-1], chain[i])
		}
	}
}

func TestModelValidateFailsOnCyclicGraph(t *testing.T) {
	graph := taskgraph.NewGraph()
	a := taskgraph.NewTask("a")
	b := taskgraph.NewTask("b")
	graph.Register(a)
	graph.Register(b)
	graph.Connect(a, b)
	graph.Connect(b, a)

	catalog := chemistry.NewMaterialCatalog()
	m := NewModel(config.Config{}, graph, []*taskgraph.Task{a}, catalog)

	err := m.Validate()
	assert.ErrorIs(t, err, ErrNotPrepared)
	assert.Equal(t, Idle, m.States.Current())
}

func TestModelReactionClosureBlocksValidation(t *testing.T) {
	graph, tasks, _ := buildChain("only")
	catalog := chemistry.NewMaterialCatalog()

	stale := &chemistry.MaterialType{ID: "not-registered", Name: "Ghost", State: chemistry.Liquid, SpecificHeat: 1, SpecificGravity: 1}
	m := NewModel(config.Config{}, graph, []*taskgraph.Task{tasks[0]}, catalog)
	require.NoError(t, m.Reactions.AddReaction(reactionWithGhost(stale, catalog)))

	err := m.Validate()
	assert.ErrorIs(t, err, ErrNotPrepared)
}

// TestModelWiresMetricsAndAuditStoreDuringARun is the integration test
// for wireObservability: it drives a real Validate/Start cycle with an
// audit store backed by sqlmock and asserts both that the Registry's
// counters moved and that every expected row was appended.
func TestModelWiresMetricsAndAuditStoreDuringARun(t *testing.T) {
	graph, tasks, _ := buildChain("charge", "heat", "discharge")

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	for range tasks {
		mock.ExpectQuery("INSERT INTO batchsim_events").
			WillReturnRows(sqlmock.NewRows([]string{"id", "occurred_at"}).AddRow(int64(1), time.Now()))
	}

	// The counter is package-level and earlier tests in this package
	// have already pumped events; start this run from zero.
	telemetry.EventsPumped.Reset()
	catalog := chemistry.NewMaterialCatalog()
	m := NewModel(config.Config{}, graph, []*taskgraph.Task{tasks[0]}, catalog,
		WithAuditStore(auditstore.New(db)))

	require.NoError(t, m.Validate())
	require.NoError(t, m.Start())

	families, err := m.Registry.Gather()
	require.NoError(t, err)
	assert.Equal(t, float64(len(tasks)), counterTotal(t, families, "batchsim_events_pumped_total"))

	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestModelWiresTasksInvalidatedMetric exercises the Graph.OnInvalidated
// hook through the Model rather than directly against taskgraph, proving
// a true-to-false validity flip during a real run reaches the Registry.
func TestModelWiresTasksInvalidatedMetric(t *testing.T) {
	graph, tasks, _ := buildChain("charge", "heat")
	catalog := chemistry.NewMaterialCatalog()
	m := NewModel(config.Config{}, graph, []*taskgraph.Task{tasks[0]}, catalog)

	require.NoError(t, m.Validate())
	require.NoError(t, m.Start())

	graph.SetSelfValid(tasks[0], false)

	families, err := m.Registry.Gather()
	require.NoError(t, err)
	assert.Greater(t, counterTotal(t, families, "batchsim_tasks_invalidated_total"), 0.0)
}

// TestModelWiresReactionsHappenedMetric drives a reaction to completion
// through a Model-owned ReactionProcessor and asserts the Registry
// reflects it, closing the loop the maintainer flagged as decorative.
func TestModelWiresReactionsHappenedMetric(t *testing.T) {
	graph, tasks, _ := buildChain("only")
	catalog := chemistry.NewMaterialCatalog()
	a := catalog.Register(&chemistry.MaterialType{Name: "A", State: chemistry.Liquid, SpecificHeat: 4.18, SpecificGravity: 1.0})
	b := catalog.Register(&chemistry.MaterialType{Name: "B", State: chemistry.Liquid, SpecificHeat: 4.18, SpecificGravity: 1.0})

	m := NewModel(config.Config{}, graph, []*taskgraph.Task{tasks[0]}, catalog)
	require.NoError(t, m.Reactions.AddReaction(reaction.Reaction{
		Name:      "A->B",
		Reactants: []reaction.Component{{Type: a, Fraction: 1.0}},
		Products:  []reaction.Component{{Type: b, Fraction: 1.0}},
	}))

	mix := chemistry.NewMixture()
	m.WatchMixture(mix)
	mix.AddMaterial(chemistry.NewSubstance(a, 5, 300))

	families, err := m.Registry.Gather()
	require.NoError(t, err)
	assert.Equal(t, 1.0, counterTotal(t, families, "batchsim_reactions_happened_total"))
}
