package executive

import "sync"

// ClockListener is notified just before the Executive's simulated
// clock advances to a new value.
type ClockListener func(next SimTime)

// AbortListener is notified when a Receiver error stops the
// Executive.
type AbortListener func(err *AbortedEventError)

// VoidListener is notified on a plain lifecycle transition that
// carries no payload (Started, Paused, Resumed, Stopped, Finished).
type VoidListener func()

// PumpListener is notified once per event the pump dispatches, after
// the event is popped off the queue but before its Receiver runs.
type PumpListener func(stats PumpStats)

// PumpStats describes the event the pump just dispatched and the
// queue/detachable state left behind by popping it, for observability
// hooks that must live outside this package.
type PumpStats struct {
	Kind       Kind
	QueueDepth int
	LiveCount  int
}

// lifecycleListeners collects subscribers for the Executive's
// lifecycle notifications. Registration and firing are
// both safe for concurrent use; firing takes a snapshot under lock and
// calls out unlocked so a listener may itself call back into the
// Executive without deadlocking.
type lifecycleListeners struct {
	mu sync.Mutex

	started     []VoidListener
	startedOnce []VoidListener
	paused      []VoidListener
	resumed     []VoidListener
	stopped     []VoidListener
	finished    []VoidListener
	aborted     []AbortListener
	clockNext   []ClockListener
	pumped      []PumpListener
}

// OnStarted registers a listener fired every time Start() begins a
// run.
func (e *Executive) OnStarted(l VoidListener) {
	e.listeners.mu.Lock()
	defer e.listeners.mu.Unlock()
	e.listeners.started = append(e.listeners.started, l)
}

// OnStartedOnce registers a listener that fires the first time Start()
// begins a run on this Executive instance, then unregisters itself: a
// later Start() (after Stop/Reset) does not fire it again.
func (e *Executive) OnStartedOnce(l VoidListener) {
	e.listeners.mu.Lock()
	defer e.listeners.mu.Unlock()
	e.listeners.startedOnce = append(e.listeners.startedOnce, l)
}

// OnEventPumped registers a listener fired once per event the pump
// dispatches, after it is popped off the queue.
func (e *Executive) OnEventPumped(l PumpListener) {
	e.listeners.mu.Lock()
	defer e.listeners.mu.Unlock()
	e.listeners.pumped = append(e.listeners.pumped, l)
}

// OnPaused registers a listener fired every time Pause() takes
// effect.
func (e *Executive) OnPaused(l VoidListener) {
	e.listeners.mu.Lock()
	defer e.listeners.mu.Unlock()
	e.listeners.paused = append(e.listeners.paused, l)
}

// OnResumed registers a listener fired every time Resume() takes
// effect.
func (e *Executive) OnResumed(l VoidListener) {
	e.listeners.mu.Lock()
	defer e.listeners.mu.Unlock()
	e.listeners.resumed = append(e.listeners.resumed, l)
}

// OnStopped registers a listener fired every time Stop() takes
// effect.
func (e *Executive) OnStopped(l VoidListener) {
	e.listeners.mu.Lock()
	defer e.listeners.mu.Unlock()
	e.listeners.stopped = append(e.listeners.stopped, l)
}

// OnFinished registers a listener fired when the pump drains to
// nothing but daemon events and no live detachables remain.
func (e *Executive) OnFinished(l VoidListener) {
	e.listeners.mu.Lock()
	defer e.listeners.mu.Unlock()
	e.listeners.finished = append(e.listeners.finished, l)
}

// OnAborted registers a listener fired when a Receiver error forces
// the Executive to stop.
func (e *Executive) OnAborted(l AbortListener) {
	e.listeners.mu.Lock()
	defer e.listeners.mu.Unlock()
	e.listeners.aborted = append(e.listeners.aborted, l)
}

// OnClockAboutToChange registers a listener fired just before the
// simulated clock advances to a later event's When.
func (e *Executive) OnClockAboutToChange(l ClockListener) {
	e.listeners.mu.Lock()
	defer e.listeners.mu.Unlock()
	e.listeners.clockNext = append(e.listeners.clockNext, l)
}

func (l *lifecycleListeners) fireStarted() {
	l.fireVoid(l.snapshotVoid(&l.started))
	l.fireStartedOnce()
}
func (l *lifecycleListeners) firePaused()   { l.fireVoid(l.snapshotVoid(&l.paused)) }
func (l *lifecycleListeners) fireResumed()  { l.fireVoid(l.snapshotVoid(&l.resumed)) }
func (l *lifecycleListeners) fireStopped()  { l.fireVoid(l.snapshotVoid(&l.stopped)) }
func (l *lifecycleListeners) fireFinished() { l.fireVoid(l.snapshotVoid(&l.finished)) }

// fireStartedOnce fires and clears startedOnce, so each registered
// listener runs at most once across the Executive's lifetime.
func (l *lifecycleListeners) fireStartedOnce() {
	l.mu.Lock()
	snap := l.startedOnce
	l.startedOnce = nil
	l.mu.Unlock()
	for _, fn := range snap {
		fn()
	}
}

func (l *lifecycleListeners) firePumped(stats PumpStats) {
	l.mu.Lock()
	snap := append([]PumpListener(nil), l.pumped...)
	l.mu.Unlock()
	for _, fn := range snap {
		fn(stats)
	}
}

func (l *lifecycleListeners) fireAborted(err *AbortedEventError) {
	l.mu.Lock()
	snap := append([]AbortListener(nil), l.aborted...)
	l.mu.Unlock()
	for _, fn := range snap {
		fn(err)
	}
}

func (l *lifecycleListeners) fireClockAboutToChange(next SimTime) {
	l.mu.Lock()
	snap := append([]ClockListener(nil), l.clockNext...)
	l.mu.Unlock()
	for _, fn := range snap {
		fn(next)
	}
}

func (l *lifecycleListeners) snapshotVoid(src *[]VoidListener) []VoidListener {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]VoidListener(nil), (*src)...)
}

func (l *lifecycleListeners) fireVoid(snap []VoidListener) {
	for _, fn := range snap {
		fn()
	}
}
