// Package executive implements the priority-ordered discrete-event
// scheduler for a simulated plant: a heap-ordered event queue, a
// single pumping goroutine, and cooperatively-scheduled detachable
// events that may suspend and later resume.
package executive

import (
	"github.com/google/uuid"
)

// SimTime is simulated time, measured in seconds since the Executive's
// epoch. It is independent of wall-clock time so that scenarios can
// assert exact equalities after arbitrarily long simulated runs.
type SimTime float64

// Kind distinguishes how an Event's Receiver is invoked by the pump.
type Kind int

const (
	// Synchronous events run to completion on the pump goroutine.
	Synchronous Kind = iota
	// Detachable events may suspend themselves or join on other events.
	Detachable
	// Asynchronous events are dispatched fire-and-forget on their own
	// goroutine; the pump does not wait for them.
	Asynchronous
)

func (k Kind) String() string {
	switch k {
	case Synchronous:
		return "Synchronous"
	case Detachable:
		return "Detachable"
	case Asynchronous:
		return "Asynchronous"
	default:
		return "Unknown"
	}
}

// EventKey uniquely identifies a requested event for unrequest/join.
type EventKey uuid.UUID

// NilEventKey is the zero EventKey, never issued by RequestEvent.
var NilEventKey EventKey

func newEventKey() EventKey {
	return EventKey(uuid.New())
}

// String implements fmt.Stringer.
func (k EventKey) String() string {
	return uuid.UUID(k).String()
}

// EventContext is passed to a Receiver when it runs. Detachable is
// non-nil only when the event's Kind is Detachable, and only while the
// receiver is running on its own goroutine (never on the pump thread
// directly, preserving the "only the pump runs synchronous callbacks"
// invariant).
type EventContext struct {
	Event      *Event
	Executive  *Executive
	Detachable *DetachableController
}

// ReceiverFunc is the callback invoked when an event fires.
type ReceiverFunc func(ctx *EventContext) error

// Event is one scheduled unit of work. Ordering among queued events is
// ascending When, then descending Priority, then ascending Sequence.
type Event struct {
	Key      EventKey
	When     SimTime
	Priority float64
	Sequence uint64
	Receiver ReceiverFunc
	UserData interface{}
	Kind     Kind
	Daemon   bool

	// resumeOf is set only for internally-generated resumption events
	// that continue a parked detachable goroutine rather than spawning
	// a new one.
	resumeOf *DetachableContext

	// heapIndex is maintained by container/heap for O(log n) removal.
	heapIndex int
}

// IsResumption reports whether this event resumes a previously-started
// detachable rather than spawning a fresh goroutine for its Receiver.
func (e *Event) IsResumption() bool {
	return e.resumeOf != nil
}
