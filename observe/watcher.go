package observe

import (
	mapset "github.com/deckarep/golang-set/v2"
)

// ChangeFunc receives the new value of a watched path. A returned error
// aborts the publish pass that triggered it.
type ChangeFunc func(newValue any) error

// Watcher binds a path expression to a change callback.
//
// Evaluating the path makes the watcher the active collector, so every
// property traversed on the way subscribes it. When one of them changes the
// watcher re-evaluates, compares against the last value it saw and calls
// its callback if the value is different.
type Watcher struct {
	rctx     *ReactiveContext
	id       uint64
	root     any
	path     Path
	onChange ChangeFunc

	// Last value seen, the baseline for change detection
	value any

	// Every Dep this watcher is subscribed to
	deps mapset.Set[*Dep]
	// Deps read during the collection in progress, nil when idle
	seen mapset.Set[*Dep]

	disposed bool
}

func newWatcher(rctx *ReactiveContext, root any, path Path, onChange ChangeFunc) (*Watcher, error) {
	if onChange == nil {
		onChange = func(any) error { return nil }
	}

	w := &Watcher{
		rctx:     rctx,
		id:       rctx.newID(),
		root:     root,
		path:     path,
		onChange: onChange,
		deps:     mapset.NewThreadUnsafeSet[*Dep](),
	}

	v, err := w.evaluate()
	if err != nil {
		// Leave nothing behind that could refresh a half-built watcher
		w.Dispose()
		return nil, err
	}
	w.value = v

	return w, nil
}

// evaluate resolves the path inside a collection. Deps that were read last
// time but not this time are dropped; Deps read again keep their place in
// their subscriber lists.
func (w *Watcher) evaluate() (any, error) {
	w.seen = mapset.NewThreadUnsafeSet[*Dep]()
	v, err := w.rctx.collect(w, func() (any, error) {
		return w.path.Get(w.root)
	})
	seen := w.seen
	w.seen = nil
	if err != nil {
		return nil, err
	}

	stale := w.deps.Difference(seen)
	stale.Each(func(d *Dep) bool {
		d.Unsubscribe(w)
		w.deps.Remove(d)
		return false
	})

	return v, nil
}

// joined records that the watcher was subscribed to d.
func (w *Watcher) joined(d *Dep) {
	w.deps.Add(d)
	if w.seen != nil {
		w.seen.Add(d)
	}
}

// Refresh re-evaluates the path and calls the change callback if the value
// differs from the last one seen. Deps call it when they publish.
func (w *Watcher) Refresh() error {
	if w.disposed {
		return nil
	}

	next, err := w.evaluate()
	if err != nil {
		return err
	}

	changed := !strictEqual(w.value, next)
	w.rctx.tracer.OnRefresh(w, changed)
	if !changed {
		return nil
	}
	w.value = next

	if err := w.onChange(next); err != nil {
		cbErr := &CallbackError{Path: w.path.expr, Value: next, Err: err}
		w.rctx.tracer.OnCallback(w, cbErr)
		w.rctx.logger.Debug().Err(err).Str("path", w.path.expr).Uint64("watcher", w.id).Msg("change callback failed")
		return cbErr
	}
	w.rctx.tracer.OnCallback(w, nil)

	return nil
}

// Dispose unsubscribes the watcher from every Dep it joined. A disposed
// watcher never fires again; disposing twice is a no-op.
func (w *Watcher) Dispose() {
	if w.disposed {
		return
	}
	w.disposed = true

	w.deps.Each(func(d *Dep) bool {
		d.Unsubscribe(w)
		return false
	})
	w.deps.Clear()

	w.rctx.tracer.OnDispose(w)
	w.rctx.logger.Debug().Str("path", w.path.expr).Uint64("watcher", w.id).Msg("watcher disposed")
}

// Value is the last value seen.
func (w *Watcher) Value() any {
	return w.value
}

func (w *Watcher) Path() Path {
	return w.path
}

// ID is unique within the watcher's ReactiveContext.
func (w *Watcher) ID() uint64 {
	return w.id
}

func (w *Watcher) Disposed() bool {
	return w.disposed
}

// DepCount is the number of Deps the watcher is subscribed to.
func (w *Watcher) DepCount() int {
	return w.deps.Cardinality()
}
