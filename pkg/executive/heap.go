package executive

import "container/heap"

// eventHeap is a container/heap.Interface ordered by (When asc,
// Priority desc, Sequence asc). No third-party priority-queue library
// fits this narrowly enough to be worth the dependency, so
// container/heap is used directly (see DESIGN.md).
type eventHeap struct {
	items      []*Event
	nonDaemon  int
	byKey      map[EventKey]*Event
}

func newEventHeap() *eventHeap {
	return &eventHeap{byKey: make(map[EventKey]*Event)}
}

func (h *eventHeap) Len() int { return len(h.items) }

func (h *eventHeap) Less(i, j int) bool {
	a, b := h.items[i], h.items[j]
	if a.When != b.When {
		return a.When < b.When
	}
	if a.Priority != b.Priority {
		return a.Priority > b.Priority
	}
	return a.Sequence < b.Sequence
}

func (h *eventHeap) Swap(i, j int) {
	h.items[i], h.items[j] = h.items[j], h.items[i]
	h.items[i].heapIndex = i
	h.items[j].heapIndex = j
}

func (h *eventHeap) Push(x interface{}) {
	ev := x.(*Event)
	ev.heapIndex = len(h.items)
	h.items = append(h.items, ev)
	h.byKey[ev.Key] = ev
	if !ev.Daemon {
		h.nonDaemon++
	}
}

func (h *eventHeap) Pop() interface{} {
	n := len(h.items)
	ev := h.items[n-1]
	h.items[n-1] = nil
	h.items = h.items[:n-1]
	delete(h.byKey, ev.Key)
	if !ev.Daemon {
		h.nonDaemon--
	}
	return ev
}

func (h *eventHeap) Peek() *Event {
	if len(h.items) == 0 {
		return nil
	}
	return h.items[0]
}

// insert pushes ev onto the heap, maintaining the heap invariant.
func (h *eventHeap) insert(ev *Event) {
	heap.Push(h, ev)
}

// popHead removes and returns the highest-priority, earliest event.
func (h *eventHeap) popHead() *Event {
	return heap.Pop(h).(*Event)
}

// removeByKey removes a still-queued event by key; reports whether it
// was found.
func (h *eventHeap) removeByKey(key EventKey) bool {
	ev, ok := h.byKey[key]
	if !ok {
		return false
	}
	heap.Remove(h, ev.heapIndex)
	return true
}

// onlyDaemonsQueued reports whether every remaining queued event is a
// daemon event.
func (h *eventHeap) onlyDaemonsQueued() bool {
	return h.nonDaemon == 0
}

// removeMatching removes every queued event for which match returns
// true, returning how many were removed.
func (h *eventHeap) removeMatching(match func(*Event) bool) int {
	keep := h.items[:0]
	removed := 0
	for _, ev := range h.items {
		if match(ev) {
			delete(h.byKey, ev.Key)
			if !ev.Daemon {
				h.nonDaemon--
			}
			removed++
			continue
		}
		keep = append(keep, ev)
	}
	h.items = keep
	for i, ev := range h.items {
		ev.heapIndex = i
	}
	heap.Init(h)
	return removed
}

func (h *eventHeap) clear() {
	h.items = nil
	h.byKey = make(map[EventKey]*Event)
	h.nonDaemon = 0
}
