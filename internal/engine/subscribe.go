package engine

// Subscribe registers fn to receive every published snapshot and returns
// a function that removes it. Callbacks run synchronously in publish
// order; they must not call back into the engine.
func (e *Engine) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	e.subsMu.Lock()
	id := e.nextSub
	e.nextSub++
	e.subs[id] = fn
	e.subsMu.Unlock()

	return func() {
		e.subsMu.Lock()
		delete(e.subs, id)
		e.subsMu.Unlock()
	}
}

// Updates returns a channel that always holds the most recent snapshot
// not yet received. Older undelivered snapshots are replaced, so a slow
// reader never blocks the engine.
func (e *Engine) Updates() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)
	unsubscribe := e.Subscribe(func(s Snapshot) {
		for {
			select {
			case ch <- s:
				return
			default:
			}
			select {
			case <-ch:
			default:
			}
		}
	})
	return ch, unsubscribe
}

// publishLocked delivers snap to every subscriber. The caller must hold
// pubMu; it is released on return.
func (e *Engine) publishLocked(snap Snapshot) {
	defer e.pubMu.Unlock()

	e.subsMu.Lock()
	fns := make([]func(Snapshot), 0, len(e.subs))
	for _, fn := range e.subs {
		fns = append(fns, fn)
	}
	e.subsMu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}
