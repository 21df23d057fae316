package executive

import (
	"sync"
)

// State is the Executive's run state.
type State int

const (
	StateStopped State = iota
	StateRunning
	StatePaused
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "Stopped"
	case StateRunning:
		return "Running"
	case StatePaused:
		return "Paused"
	case StateFinished:
		return "Finished"
	default:
		return "Unknown"
	}
}

// Executive pumps a priority-ordered event queue. It is constructed
// explicitly, with no package-level singleton, and owned by exactly
// one Model.
type Executive struct {
	mu   sync.Mutex
	cond *sync.Cond

	now   SimTime
	state State
	queue *eventHeap
	seq   uint64

	live map[*DetachableContext]bool

	resolved    map[EventKey]bool
	joinWaiters map[EventKey][]*DetachableContext

	// stopCh is closed by Stop so that any detachable blocked sending
	// to its yieldCh or waiting on its resumeCh — wherever it happens
	// to be parked — unblocks immediately instead of leaking, since Go
	// gives us no way to preempt a running goroutine.
	stopCh chan struct{}

	listeners lifecycleListeners
}

// New constructs a fresh Executive, stopped, with now == 0.
func New() *Executive {
	e := &Executive{
		queue:       newEventHeap(),
		live:        make(map[*DetachableContext]bool),
		resolved:    make(map[EventKey]bool),
		joinWaiters: make(map[EventKey][]*DetachableContext),
		stopCh:      make(chan struct{}),
	}
	e.cond = sync.NewCond(&e.mu)
	return e
}

// stopSignal returns the channel that closes when Stop is called.
func (e *Executive) stopSignal() chan struct{} {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stopCh
}

// Now returns the current simulated time.
func (e *Executive) Now() SimTime {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.now
}

// CurrentState returns the current run state.
func (e *Executive) CurrentState() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Executive) nextSequence() uint64 {
	e.seq++
	return e.seq
}

// RequestEvent inserts a new event into the queue. It fails with
// ErrCausalityViolation if when is strictly before the current time.
func (e *Executive) RequestEvent(receiver ReceiverFunc, when SimTime, priority float64, userData interface{}, kind Kind) (EventKey, error) {
	return e.requestEvent(receiver, when, priority, userData, kind, false)
}

// RequestDaemonEvent inserts an event that does not keep the
// Executive's pump alive once it is the only event of its kind
// remaining and no detachables are live.
func (e *Executive) RequestDaemonEvent(receiver ReceiverFunc, when SimTime, priority float64, userData interface{}, kind Kind) (EventKey, error) {
	return e.requestEvent(receiver, when, priority, userData, kind, true)
}

func (e *Executive) requestEvent(receiver ReceiverFunc, when SimTime, priority float64, userData interface{}, kind Kind, daemon bool) (EventKey, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if when < e.now {
		return NilEventKey, ErrCausalityViolation
	}
	ev := &Event{
		Key:      newEventKey(),
		When:     when,
		Priority: priority,
		Sequence: e.nextSequence(),
		Receiver: receiver,
		UserData: userData,
		Kind:     kind,
		Daemon:   daemon,
	}
	e.queue.insert(ev)
	e.cond.Broadcast()
	return ev.Key, nil
}

// EventPredicate selects queued events for bulk removal via
// UnrequestEvents.
type EventPredicate func(when SimTime, priority float64, userData interface{}, kind Kind) bool

// UnrequestEvent removes a still-queued event. It is an idempotent
// no-op if the event already fired or does not exist.
func (e *Executive) UnrequestEvent(key EventKey) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.queue.removeByKey(key)
	e.resolveKeyLocked(key)
	e.cond.Broadcast()
}

// UnrequestEvents removes every queued event matching pred.
func (e *Executive) UnrequestEvents(pred EventPredicate) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	matched := make([]EventKey, 0)
	n := e.queue.removeMatching(func(ev *Event) bool {
		if pred(ev.When, ev.Priority, ev.UserData, ev.Kind) {
			matched = append(matched, ev.Key)
			return true
		}
		return false
	})
	for _, k := range matched {
		e.resolveKeyLocked(k)
	}
	e.cond.Broadcast()
	return n
}

// Reset clears the queue and resets simulated time to zero. Requires
// the Executive to be Stopped or Finished.
func (e *Executive) Reset() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StateStopped && e.state != StateFinished {
		return ErrIllegalState
	}
	e.queue.clear()
	e.now = 0
	e.resolved = make(map[EventKey]bool)
	e.joinWaiters = make(map[EventKey][]*DetachableContext)
	e.live = make(map[*DetachableContext]bool)
	e.stopCh = make(chan struct{})
	e.state = StateStopped
	return nil
}

// Start transitions Stopped → Running and pumps events until the
// queue holds only daemon events and no detachables are live, then
// transitions Running → Finished. It blocks the calling goroutine for
// the duration of the run; Pause/Stop are meant to be called either
// from a receiver running on the pump or from a separate goroutine.
func (e *Executive) Start() error {
	e.mu.Lock()
	if e.state != StateStopped {
		e.mu.Unlock()
		return ErrIllegalState
	}
	e.state = StateRunning
	e.mu.Unlock()

	e.listeners.fireStarted()
	e.pump()
	return nil
}

// Pause blocks the pump after the event currently in flight completes.
func (e *Executive) Pause() error {
	e.mu.Lock()
	if e.state != StateRunning {
		e.mu.Unlock()
		return ErrIllegalState
	}
	e.state = StatePaused
	e.cond.Broadcast()
	e.mu.Unlock()
	e.listeners.firePaused()
	return nil
}

// Resume restarts pumping after a Pause, in the same pump goroutine
// that Start launched (it is parked in Pause's cond.Wait, not exited).
func (e *Executive) Resume() error {
	e.mu.Lock()
	if e.state != StatePaused {
		e.mu.Unlock()
		return ErrIllegalState
	}
	e.state = StateRunning
	e.cond.Broadcast()
	e.mu.Unlock()
	e.listeners.fireResumed()
	return nil
}

// Stop transitions Running or Paused to Stopped, drops remaining
// events, and aborts all live detachables. A detachable parked in
// SuspendUntil/SuspendFor/Join unblocks immediately via stopCh,
// wherever it happens to be waiting; one still running ordinary code
// between suspend points only observes Aborted() the next time it
// calls SuspendUntil/SuspendFor/Join, since Go gives us no way to
// preempt a running goroutine.
func (e *Executive) Stop() error {
	e.mu.Lock()
	if e.state != StateRunning && e.state != StatePaused {
		e.mu.Unlock()
		return ErrIllegalState
	}
	e.state = StateStopped
	e.queue.clear()
	e.live = make(map[*DetachableContext]bool)
	close(e.stopCh)
	e.cond.Broadcast()
	e.mu.Unlock()

	e.listeners.fireStopped()
	return nil
}

// resolveKeyLocked marks key as fired/removed and wakes any detachable
// whose join set is now fully satisfied. Callers must hold e.mu.
func (e *Executive) resolveKeyLocked(key EventKey) {
	e.resolved[key] = true
	waiters := e.joinWaiters[key]
	delete(e.joinWaiters, key)
	for _, ctx := range waiters {
		delete(ctx.joinSet, key)
		if len(ctx.joinSet) == 0 {
			e.scheduleResumptionLocked(ctx, e.now)
		}
	}
}

// scheduleResumptionLocked inserts a resumption event for a parked
// detachable. Suspend and join share this mechanism: both end with a
// resumption event landing back on the heap at the time the
// detachable is next eligible to run. Callers must hold e.mu.
func (e *Executive) scheduleResumptionLocked(ctx *DetachableContext, at SimTime) {
	ev := &Event{
		Key:      newEventKey(),
		When:     at,
		Priority: ctx.owningEvent.Priority,
		Sequence: e.nextSequence(),
		Kind:     Detachable,
		resumeOf: ctx,
	}
	e.queue.insert(ev)
	e.cond.Broadcast()
}
