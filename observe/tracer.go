package observe

// Tracer receives engine events. Implementations must not mutate observed
// data from inside a hook.
type Tracer interface {
	// A watcher joined a Dep for the first time
	OnSubscribe(d *Dep, w *Watcher)
	// A Dep is about to notify its subscribers
	OnPublish(d *Dep, subscribers int)
	// A watcher re-evaluated its path
	OnRefresh(w *Watcher, changed bool)
	// A change callback returned, err is nil on success
	OnCallback(w *Watcher, err error)
	// A watcher was disposed
	OnDispose(w *Watcher)
}

type nopTracer struct{}

func (nopTracer) OnSubscribe(*Dep, *Watcher) {}
func (nopTracer) OnPublish(*Dep, int)        {}
func (nopTracer) OnRefresh(*Watcher, bool)   {}
func (nopTracer) OnCallback(*Watcher, error) {}
func (nopTracer) OnDispose(*Watcher)         {}
