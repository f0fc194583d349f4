package observe

import (
	"github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog"
)

// ReactiveContext owns the dependency context for one observed world. Every
// Object, Array and Watcher created under it keeps a pointer back to it.
//
// A ReactiveContext is not safe for concurrent use. The engine is fully
// synchronous; keep one context per goroutine.
type ReactiveContext struct {
	// The watcher whose path is being evaluated right now, nil when idle
	target *Watcher

	logger zerolog.Logger
	tracer Tracer

	// Compiled paths keyed by the xxhash of their expression
	paths map[uint64]Path

	nextID uint64
}

// Option configures a ReactiveContext.
type Option func(*ReactiveContext)

// WithLogger sets the logger used for debug output. Defaults to zerolog.Nop().
func WithLogger(logger zerolog.Logger) Option {
	return func(rctx *ReactiveContext) {
		rctx.logger = logger
	}
}

// WithTracer installs hooks that observe subscriptions, publishes, refreshes
// and disposals.
func WithTracer(tracer Tracer) Option {
	return func(rctx *ReactiveContext) {
		if tracer != nil {
			rctx.tracer = tracer
		}
	}
}

func NewReactiveContext(opts ...Option) *ReactiveContext {
	rctx := &ReactiveContext{
		logger: zerolog.Nop(),
		tracer: nopTracer{},
		paths:  map[uint64]Path{},
	}
	for _, opt := range opts {
		opt(rctx)
	}
	return rctx
}

// Collecting reports whether a watcher is currently collecting dependencies.
func (rctx *ReactiveContext) Collecting() bool {
	return rctx.target != nil
}

// Logger returns the context's logger.
func (rctx *ReactiveContext) Logger() zerolog.Logger {
	return rctx.logger
}

// collect runs fn with w as the active collector and restores the previous
// collector afterwards, whatever way fn exits.
func (rctx *ReactiveContext) collect(w *Watcher, fn func() (any, error)) (any, error) {
	prev := rctx.target
	defer func() {
		rctx.target = prev
	}()

	rctx.target = w
	return fn()
}

// Untracked runs fn with no active collector: reads made by fn subscribe
// nothing.
func (rctx *ReactiveContext) Untracked(fn func() (any, error)) (any, error) {
	return rctx.collect(nil, fn)
}

// track subscribes the active collector, if any, to d.
func (rctx *ReactiveContext) track(d *Dep) {
	w := rctx.target
	if w == nil {
		return
	}
	if d.Subscribe(w) {
		rctx.tracer.OnSubscribe(d, w)
	}
	w.joined(d)
}

func (rctx *ReactiveContext) compile(expr string) (Path, error) {
	key := xxhash.Sum64String(expr)
	if p, ok := rctx.paths[key]; ok && p.expr == expr {
		return p, nil
	}

	p, err := Compile(expr)
	if err != nil {
		return Path{}, err
	}

	// On a hash collision the first expression keeps the slot
	if _, taken := rctx.paths[key]; !taken {
		rctx.paths[key] = p
	}
	return p, nil
}

func (rctx *ReactiveContext) newID() uint64 {
	rctx.nextID++
	return rctx.nextID
}
