// Package model wires the Executive, the StateMachine, the Task
// graph, the MaterialCatalog, and the ReactionProcessor into the
// single control-flow root of a simulated batch plant, the way
// yf4toy-stateful-conflict-crm-engine/cmd/main.go wires its
// usecase/repository/delivery layers together by explicit constructor
// injection.
package model

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"

	"github.com/eaglepoint/batchsim/internal/config"
	"github.com/eaglepoint/batchsim/internal/logging"
	"github.com/eaglepoint/batchsim/pkg/auditstore"
	"github.com/eaglepoint/batchsim/pkg/chemistry"
	"github.com/eaglepoint/batchsim/pkg/eventbus"
	"github.com/eaglepoint/batchsim/pkg/executive"
	"github.com/eaglepoint/batchsim/pkg/reaction"
	"github.com/eaglepoint/batchsim/pkg/statemachine"
	"github.com/eaglepoint/batchsim/pkg/taskgraph"
	"github.com/eaglepoint/batchsim/pkg/telemetry"
)

// Lifecycle states, named the way the state machine package expects.
const (
	Idle      statemachine.State = "Idle"
	Validated statemachine.State = "Validated"
	Running   statemachine.State = "Running"
	Paused    statemachine.State = "Paused"
	Finished  statemachine.State = "Finished"
)

// ErrNotPrepared is returned by the Validate wrapper to
// surface a rolled-back transition without exposing
// statemachine.TransitionFailure directly to callers that only need a
// sentinel to check against.
var ErrNotPrepared = errors.New("model: transition prepare handlers declined")

// Model owns one of each subsystem and the cross-wiring between them.
type Model struct {
	cfg config.Config
	log *logging.Logger
	bus *eventbus.Publisher

	Executive *executive.Executive
	States    *statemachine.StateMachine
	Graph     *taskgraph.Graph
	Tasks     *taskgraph.TaskProcessor
	Catalog   *chemistry.MaterialCatalog
	Reactions *reaction.Processor

	// Registry holds every batchsim Prometheus collector, scraped by
	// cmd/batchsim's /metrics endpoint. Owned per-Model rather than
	// registered against prometheus.DefaultRegisterer so more than one
	// Model can run in the same process (as the test suite does)
	// without registration colliding across instances. The collectors
	// themselves are package-level values in pkg/telemetry, so every
	// Model's Registry reports the same process-wide counts.
	Registry *prometheus.Registry

	audit *auditstore.Store

	reactionSpansMu sync.Mutex
	reactionSpans   map[*chemistry.Mixture]trace.Span
}

// ModelOption customizes a Model at construction time.
type ModelOption func(*Model)

// WithLogger overrides the default stderr logger.
func WithLogger(l *logging.Logger) ModelOption {
	return func(m *Model) { m.log = l }
}

// WithEventBus wires bus so the Model publishes MaterialChanged,
// ReactionHappened, and executive started/finished notifications as
// they occur, for an external collaborator subscribed on NATS.
func WithEventBus(bus *eventbus.Publisher) ModelOption {
	return func(m *Model) { m.bus = bus }
}

// WithAuditStore wires store so the Model appends an audit row for
// every pumped event, reaction step, and task invalidation.
func WithAuditStore(store *auditstore.Store) ModelOption {
	return func(m *Model) { m.audit = store }
}

// NewModel constructs a Model over an already-built task graph rooted
// at roots, wiring the lifecycle transitions described in
// pkg/statemachine's matrix: Idle->Validated runs structural and
// closure checks, Validated->Running starts the Executive,
// Running<->Paused pause/resume it, and Running->Finished is taken by
// Start itself once the Executive reports it has finished.
func NewModel(cfg config.Config, graph *taskgraph.Graph, roots []*taskgraph.Task, catalog *chemistry.MaterialCatalog, opts ...ModelOption) *Model {
	m := &Model{
		cfg:           cfg,
		log:           logging.New("model"),
		Executive:     executive.New(),
		States:        statemachine.New(Idle),
		Graph:         graph,
		Tasks:         taskgraph.NewTaskProcessor(graph, roots...),
		Catalog:       catalog,
		Reactions:     reaction.NewProcessor(),
		Registry:      prometheus.NewRegistry(),
		reactionSpans: make(map[*chemistry.Mixture]trace.Span),
	}
	for _, opt := range opts {
		opt(m)
	}

	m.States.Permit(Idle, Validated)
	m.States.Permit(Validated, Running)
	m.States.Permit(Running, Paused)
	m.States.Permit(Paused, Running)
	m.States.Permit(Running, Finished)

	m.States.RegisterPrepare(Idle, Validated, 0, m.prepareValidate)
	m.States.RegisterCommit(Validated, Running, 0, m.commitStart)
	m.States.RegisterCommit(Running, Paused, 0, m.commitPause)
	m.States.RegisterCommit(Paused, Running, 0, m.commitResume)

	m.wireObservability()

	return m
}

// wireObservability registers the telemetry, tracing, and (when
// configured) audit-store listeners that turn Executive/Graph/
// Reactions activity into metrics, spans, and append-only audit rows.
// pkg/executive, pkg/taskgraph, and pkg/reaction stay free of any of
// these imports; the Model is the one place they cross.
func (m *Model) wireObservability() {
	telemetry.MustRegister(m.Registry)

	m.Executive.OnEventPumped(func(stats executive.PumpStats) {
		telemetry.EventsPumped.WithLabelValues(stats.Kind.String()).Inc()
		telemetry.QueueDepth.Set(float64(stats.QueueDepth))
		telemetry.DetachablesLive.Set(float64(stats.LiveCount))
		if m.audit != nil {
			m.appendAudit("event", stats.Kind.String(), fmt.Sprintf("queue_depth=%d live=%d", stats.QueueDepth, stats.LiveCount))
		}
	})

	m.Graph.OnInvalidated(func(t *taskgraph.Task) {
		telemetry.TasksInvalidated.WithLabelValues(t.Name).Inc()
		if m.audit != nil {
			m.appendAudit("validity", t.Name, "invalidated")
		}
	})

	m.Reactions.OnReactionHappened(func(mix *chemistry.Mixture, r reaction.Reaction, extent float64) {
		telemetry.ReactionsHappened.WithLabelValues(r.Name).Inc()
		if m.audit != nil {
			m.appendAudit("reaction", r.Name, fmt.Sprintf("extent_kg=%.6f", extent))
		}
		if m.bus != nil {
			m.bus.PublishReactionHappened(eventbus.ReactionHappenedEvent{
				MixtureID: mixtureID(mix),
				Reaction:  r.Name,
				ExtentKg:  extent,
			})
		}
	})

	m.Reactions.OnFixpointStarting(func(mix *chemistry.Mixture) {
		_, span := telemetry.StartReactionPass(context.Background())
		m.reactionSpansMu.Lock()
		m.reactionSpans[mix] = span
		m.reactionSpansMu.Unlock()
	})
	m.Reactions.OnFixpointFinished(func(mix *chemistry.Mixture, err error) {
		m.reactionSpansMu.Lock()
		span := m.reactionSpans[mix]
		delete(m.reactionSpans, mix)
		m.reactionSpansMu.Unlock()
		if span != nil {
			telemetry.EndWithError(span, err)
		}
	})
}

// appendAudit inserts an audit row stamped with the Executive's
// current simulated time, logging rather than failing the run if the
// store is unreachable: the audit log is a postmortem aid, not core
// state.
func (m *Model) appendAudit(category, subject, detail string) {
	_, err := m.audit.Append(auditstore.Event{
		SimTimeSec: float64(m.Executive.Now()),
		Category:   category,
		Subject:    subject,
		Detail:     detail,
	})
	if err != nil {
		m.log.Printf("audit append failed: %v", err)
	}
}

// mixtureID identifies mix for an external collaborator. Mixture
// carries no name of its own, so its process-local address stands in;
// an external consumer correlates it against whatever identifier its
// own bookkeeping assigned when it learned about the mixture.
func mixtureID(mix *chemistry.Mixture) string {
	return fmt.Sprintf("%p", mix)
}

// Validate runs Idle->Validated's Prepare checks.
func (m *Model) Validate() error {
	if err := m.States.DoTransition(Validated, nil); err != nil {
		return fmt.Errorf("%w: %v", ErrNotPrepared, err)
	}
	return nil
}

// Start runs Validated->Running, which synchronously calls
// Executive.Start and therefore blocks until the run finishes or is
// stopped (a Pause/Resume cycle during the run does not unblock it:
// the Executive's pump goroutine just waits internally). Once it
// finishes, Start follows on to Running->Finished itself, since that
// transition can only be taken from inside Running, a state the
// machine hasn't entered yet while commitStart's call to
// Executive.Start is still running.
func (m *Model) Start() error {
	if err := m.States.DoTransition(Running, nil); err != nil {
		return err
	}
	if m.Executive.CurrentState() == executive.StateFinished {
		return m.States.DoTransition(Finished, nil)
	}
	return nil
}

// Pause runs Running->Paused.
func (m *Model) Pause() error {
	return m.States.DoTransition(Paused, nil)
}

// Resume runs Paused->Running.
func (m *Model) Resume() error {
	return m.States.DoTransition(Running, nil)
}

func (m *Model) prepareValidate(_ interface{}) *statemachine.FailureReason {
	if err := m.Tasks.StructuralCheck(); err != nil {
		return &statemachine.FailureReason{Message: err.Error()}
	}
	if err := m.Reactions.CheckClosure(m.Catalog); err != nil {
		return &statemachine.FailureReason{Message: err.Error()}
	}
	return nil
}

func (m *Model) commitStart(_ interface{}) {
	if err := m.Tasks.Run(m.Executive, m.Executive.Now()); err != nil {
		m.log.Printf("task schedule failed: %v", err)
	}

	_, span := telemetry.StartExecutiveRun(context.Background())
	err := m.Executive.Start()
	telemetry.EndWithError(span, err)
	if err != nil {
		m.log.Printf("executive start failed: %v", err)
	}
}

func (m *Model) commitPause(_ interface{}) {
	if err := m.Executive.Pause(); err != nil {
		m.log.Printf("executive pause failed: %v", err)
	}
}

func (m *Model) commitResume(_ interface{}) {
	if err := m.Executive.Resume(); err != nil {
		m.log.Printf("executive resume failed: %v", err)
	}
}

// WatchMixture attaches the Model's ReactionProcessor to mix, so any
// reaction whose reactants become present is driven to a fixpoint
// automatically as the mixture changes. If an event bus is configured,
// mix's Contents/Temperature changes are also published as
// MaterialChanged notifications.
func (m *Model) WatchMixture(mix *chemistry.Mixture) {
	m.Reactions.Watch(mix)
	if m.bus == nil {
		return
	}
	mix.OnChanged(func(changed *chemistry.Mixture, kind chemistry.ChangeKind) {
		m.bus.PublishMaterialChanged(eventbus.MaterialChangedEvent{
			MixtureID: mixtureID(changed),
			Kind:      kind.String(),
			MassKg:    changed.Mass(),
			TempK:     changed.Temperature(),
		})
	})
}
