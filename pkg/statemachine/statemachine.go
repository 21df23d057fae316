// Package statemachine implements the model-wide lifecycle transition
// matrix: a fixed set of states, a permitted-transition table, and
// pluggable Prepare/Commit/Rollback handlers run in priority order on
// every doTransition call. Grounded on the explicit transition-table
// style of the high-throughput dispatcher's event state machine,
// generalized from a fixed switch to a registered matrix with
// handler phases.
package statemachine

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// State is a named lifecycle state. Any is the wildcard used to
// register outbound-from-any, inbound-to-any, or fully universal
// handlers.
type State string

// Any matches either side of a transition when registering a handler.
const Any State = "*"

// ErrIllegalTransition is returned when the matrix does not permit the
// requested source→target transition.
var ErrIllegalTransition = errors.New("statemachine: transition not permitted")

// FailureReason is collected from a Prepare handler that declines a
// transition.
type FailureReason struct {
	Message string
	Context interface{}
}

// TransitionFailure carries every FailureReason collected from Prepare
// handlers during a rolled-back transition.
type TransitionFailure struct {
	From, To State
	Reasons  []FailureReason
}

func (f *TransitionFailure) Error() string {
	return fmt.Sprintf("statemachine: transition %s->%s failed with %d reason(s)", f.From, f.To, len(f.Reasons))
}

// PrepareHandler runs before a transition commits. A non-nil return
// vetoes the transition.
type PrepareHandler func(userData interface{}) *FailureReason

// CommitHandler runs once a transition is guaranteed to take effect.
type CommitHandler func(userData interface{})

// RollbackHandler runs, in reverse registration order, when any
// Prepare handler vetoes a transition.
type RollbackHandler func(userData interface{}, reasons []FailureReason)

type transitionKey struct{ from, to State }

type prepareEntry struct {
	key      transitionKey
	priority float64
	seq      uint64
	fn       PrepareHandler
}

type commitEntry struct {
	key      transitionKey
	priority float64
	seq      uint64
	fn       CommitHandler
}

type rollbackEntry struct {
	key      transitionKey
	priority float64
	seq      uint64
	fn       RollbackHandler
}

// StateMachine is a transition matrix plus phase-ordered handlers for
// a single enumerated state set.
type StateMachine struct {
	mu sync.Mutex

	current  State
	matrix   map[transitionKey]bool
	followOn map[State]State

	seq       uint64
	prepares  []prepareEntry
	commits   []commitEntry
	rollbacks []rollbackEntry
}

// New constructs a StateMachine starting in initial.
func New(initial State) *StateMachine {
	return &StateMachine{
		current:  initial,
		matrix:   make(map[transitionKey]bool),
		followOn: make(map[State]State),
	}
}

// Current returns the current state.
func (m *StateMachine) Current() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Permit registers from->to as an allowed transition.
func (m *StateMachine) Permit(from, to State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.matrix[transitionKey{from, to}] = true
}

// SetFollowOn declares that entering state s immediately triggers a
// further transition to followOn once s is entered.
func (m *StateMachine) SetFollowOn(s, followOn State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.followOn[s] = followOn
}

func (m *StateMachine) nextSeq() uint64 {
	m.seq++
	return m.seq
}

// RegisterPrepare adds a Prepare handler for the from->to transition.
// from or to (or both) may be Any.
func (m *StateMachine) RegisterPrepare(from, to State, priority float64, fn PrepareHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prepares = append(m.prepares, prepareEntry{transitionKey{from, to}, priority, m.nextSeq(), fn})
}

// RegisterCommit adds a Commit handler for the from->to transition.
func (m *StateMachine) RegisterCommit(from, to State, priority float64, fn CommitHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commits = append(m.commits, commitEntry{transitionKey{from, to}, priority, m.nextSeq(), fn})
}

// RegisterRollback adds a Rollback handler for the from->to transition.
func (m *StateMachine) RegisterRollback(from, to State, priority float64, fn RollbackHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rollbacks = append(m.rollbacks, rollbackEntry{transitionKey{from, to}, priority, m.nextSeq(), fn})
}

// specificityRank orders handler groups: exact match first, then
// outbound-from-source, then inbound-to-target, then fully universal
// last: "(any, target)" handlers run after specific ones, and fully
// universal handlers run last of all.
func specificityRank(key, actual transitionKey) (match bool, rank int) {
	switch {
	case key.from == actual.from && key.to == actual.to:
		return true, 0
	case key.from == actual.from && key.to == Any:
		return true, 1
	case key.from == Any && key.to == actual.to:
		return true, 2
	case key.from == Any && key.to == Any:
		return true, 3
	default:
		return false, 0
	}
}

// DoTransition runs the full Prepare/Commit/Rollback protocol for a
// transition to target, then follows any declared follow-on state.
func (m *StateMachine) DoTransition(target State, userData interface{}) error {
	m.mu.Lock()
	from := m.current
	if !m.matrix[transitionKey{from, target}] {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s->%s", ErrIllegalTransition, from, target)
	}
	actual := transitionKey{from, target}

	type rankedPrepare struct {
		rank int
		e    prepareEntry
	}
	var preps []rankedPrepare
	for _, e := range m.prepares {
		if ok, rank := specificityRank(e.key, actual); ok {
			preps = append(preps, rankedPrepare{rank, e})
		}
	}
	sort.SliceStable(preps, func(i, j int) bool {
		if preps[i].rank != preps[j].rank {
			return preps[i].rank < preps[j].rank
		}
		if preps[i].e.priority != preps[j].e.priority {
			return preps[i].e.priority < preps[j].e.priority
		}
		return preps[i].e.seq < preps[j].e.seq
	})

	type rankedCommit struct {
		rank int
		e    commitEntry
	}
	var commits []rankedCommit
	for _, e := range m.commits {
		if ok, rank := specificityRank(e.key, actual); ok {
			commits = append(commits, rankedCommit{rank, e})
		}
	}
	sort.SliceStable(commits, func(i, j int) bool {
		if commits[i].rank != commits[j].rank {
			return commits[i].rank < commits[j].rank
		}
		if commits[i].e.priority != commits[j].e.priority {
			return commits[i].e.priority < commits[j].e.priority
		}
		return commits[i].e.seq < commits[j].e.seq
	})

	var rollbacks []rollbackEntry
	for _, e := range m.rollbacks {
		if ok, _ := specificityRank(e.key, actual); ok {
			rollbacks = append(rollbacks, e)
		}
	}
	m.mu.Unlock()

	var reasons []FailureReason
	for _, p := range preps {
		if r := p.e.fn(userData); r != nil {
			reasons = append(reasons, *r)
		}
	}

	if len(reasons) > 0 {
		sort.SliceStable(rollbacks, func(i, j int) bool {
			return rollbacks[i].seq > rollbacks[j].seq
		})
		for _, r := range rollbacks {
			r.fn(userData, reasons)
		}
		return &TransitionFailure{From: from, To: target, Reasons: reasons}
	}

	for _, c := range commits {
		c.e.fn(userData)
	}

	m.mu.Lock()
	m.current = target
	followOn, hasFollowOn := m.followOn[target]
	m.mu.Unlock()

	if hasFollowOn {
		return m.DoTransition(followOn, userData)
	}
	return nil
}
