package executive

// pump is the Executive's single scheduling loop. Only one receiver —
// the pump itself for Synchronous events, or the one live detachable
// it is blocked on — runs at a given simulated instant; Asynchronous
// receivers are the sole exception, by design.
func (e *Executive) pump() {
	for {
		e.mu.Lock()
		if e.state == StatePaused {
			e.cond.Wait()
			e.mu.Unlock()
			continue
		}
		if e.state != StateRunning {
			e.mu.Unlock()
			return
		}

		head := e.queue.Peek()
		if (head == nil || e.queue.onlyDaemonsQueued()) && len(e.live) == 0 {
			e.state = StateFinished
			e.mu.Unlock()
			e.listeners.fireFinished()
			return
		}
		if head == nil {
			// Every live detachable is parked on a join whose keys
			// have not resolved yet; nothing to pop until one does.
			e.cond.Wait()
			e.mu.Unlock()
			continue
		}

		if head.When > e.now {
			e.mu.Unlock()
			e.listeners.fireClockAboutToChange(head.When)
			e.mu.Lock()
			if next := e.queue.Peek(); next == nil || next.When != head.When {
				e.mu.Unlock()
				continue
			}
			e.now = head.When
		}
		ev := e.queue.popHead()
		stats := PumpStats{Kind: ev.Kind, QueueDepth: e.queue.Len(), LiveCount: len(e.live)}
		e.mu.Unlock()
		e.listeners.firePumped(stats)

		switch ev.Kind {
		case Synchronous:
			e.runSynchronous(ev)
		case Asynchronous:
			e.runAsynchronous(ev)
		case Detachable:
			e.runDetachable(ev)
		}
	}
}

func (e *Executive) runSynchronous(ev *Event) {
	ectx := &EventContext{Event: ev, Executive: e}
	err := ev.Receiver(ectx)
	e.mu.Lock()
	e.resolveKeyLocked(ev.Key)
	e.cond.Broadcast()
	e.mu.Unlock()
	if err != nil {
		e.handleReceiverError(ev, err)
	}
}

// runAsynchronous dispatches ev's Receiver on its own goroutine and
// returns immediately; the pump does not wait for it. This is the one
// place more than one Receiver may be executing at once.
func (e *Executive) runAsynchronous(ev *Event) {
	go func() {
		ectx := &EventContext{Event: ev, Executive: e}
		err := ev.Receiver(ectx)
		e.mu.Lock()
		e.resolveKeyLocked(ev.Key)
		e.cond.Broadcast()
		e.mu.Unlock()
		if err != nil {
			e.handleReceiverError(ev, err)
		}
	}()
}

// runDetachable either spawns a fresh goroutine for a new detachable
// event or wakes a parked one for a resumption event, then blocks the
// pump until that goroutine yields back by suspending, joining, or
// returning. This is what keeps "only one runner active at a time"
// true for detachables despite each living on its own goroutine.
func (e *Executive) runDetachable(ev *Event) {
	var ctx *DetachableContext

	if ev.resumeOf == nil {
		ctx = &DetachableContext{
			owningEvent: ev,
			joinSet:     make(map[EventKey]bool),
			resumeCh:    make(chan struct{}),
			yieldCh:     make(chan detachSignal),
		}
		e.mu.Lock()
		e.live[ctx] = true
		e.mu.Unlock()

		go func() {
			controller := &DetachableController{exec: e, ctx: ctx}
			ectx := &EventContext{Event: ev, Executive: e, Detachable: controller}
			err := ev.Receiver(ectx)
			ctx.yieldCh <- detachSignal{kind: sigDone, err: err}
		}()
	} else {
		ctx = ev.resumeOf
		ctx.resumeCh <- struct{}{}
	}

	sig := <-ctx.yieldCh
	switch sig.kind {
	case sigSuspend:
		e.mu.Lock()
		e.scheduleResumptionLocked(ctx, sig.wakeAt)
		e.mu.Unlock()

	case sigJoin:
		e.mu.Lock()
		pending := false
		for _, k := range sig.joinKeys {
			if e.resolved[k] {
				continue
			}
			ctx.joinSet[k] = true
			e.joinWaiters[k] = append(e.joinWaiters[k], ctx)
			pending = true
		}
		if !pending {
			e.scheduleResumptionLocked(ctx, e.now)
		}
		e.mu.Unlock()

	case sigDone:
		e.mu.Lock()
		delete(e.live, ctx)
		e.resolveKeyLocked(ctx.owningEvent.Key)
		e.cond.Broadcast()
		e.mu.Unlock()
		if sig.err != nil {
			e.handleReceiverError(ctx.owningEvent, sig.err)
		}
	}
}

// handleReceiverError handles an error escaping a Receiver: it stops
// the Executive and notifies OnAborted listeners.
func (e *Executive) handleReceiverError(ev *Event, err error) {
	e.mu.Lock()
	if e.state == StateRunning || e.state == StatePaused {
		e.state = StateStopped
		e.queue.clear()
		e.cond.Broadcast()
	}
	e.mu.Unlock()
	e.listeners.fireAborted(&AbortedEventError{Event: ev, Cause: err})
}
