// Package vm is the forwarding facade over an observed data tree: top-level
// data keys, computed accessors and methods all reachable by name on one
// object.
package vm

import (
	"fmt"
	"sort"

	"github.com/delaneyj/mvvm/observe"
)

// ComputedFunc derives a value from the view model. It runs on every read.
type ComputedFunc func(vm *ViewModel) (any, error)

// MethodFunc is a method bound to the view model it is declared on.
type MethodFunc func(vm *ViewModel, args ...any) (any, error)

// Method is a MethodFunc already bound to its view model.
type Method func(args ...any) (any, error)

type Options struct {
	Data     map[string]any
	Computed map[string]ComputedFunc
	Methods  map[string]MethodFunc
}

// ViewModel forwards reads and writes of top-level names to its observed
// data. vm.Get("x") and GetValue(vm.Data(), "x") are the same reactive read.
type ViewModel struct {
	rctx     *observe.ReactiveContext
	data     *observe.Object
	computed map[string]ComputedFunc
	methods  map[string]MethodFunc

	// Watchers created through this view model, disposed by Destroy
	watchers []*observe.Watcher
}

func New(rctx *observe.ReactiveContext, opts Options) (*ViewModel, error) {
	vm := &ViewModel{
		rctx:     rctx,
		data:     observe.Observe(rctx, opts.Data),
		computed: map[string]ComputedFunc{},
		methods:  map[string]MethodFunc{},
	}

	// Computed accessors also live on the data object so path expressions
	// can name them
	for _, key := range sortedKeys(opts.Computed) {
		fn := opts.Computed[key]
		if vm.data.Has(key) {
			return nil, fmt.Errorf("%w: computed %q", ErrDuplicateKey, key)
		}
		if err := vm.data.DefineComputed(key, func() (any, error) {
			return fn(vm)
		}); err != nil {
			return nil, fmt.Errorf("error while defining computed %q: %w", key, err)
		}
		vm.computed[key] = fn
	}

	for _, key := range sortedKeys(opts.Methods) {
		if vm.data.Has(key) {
			return nil, fmt.Errorf("%w: method %q", ErrDuplicateKey, key)
		}
		vm.methods[key] = opts.Methods[key]
	}

	return vm, nil
}

func sortedKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Data is the observed backing store.
func (vm *ViewModel) Data() *observe.Object {
	return vm.data
}

func (vm *ViewModel) Context() *observe.ReactiveContext {
	return vm.rctx
}

// Keys returns the top-level data keys.
func (vm *ViewModel) Keys() []string {
	return vm.data.Keys()
}

// Get reads a top-level name. Data keys read the observed property,
// computed keys run their function, method names return the bound Method.
func (vm *ViewModel) Get(key string) (any, error) {
	if m, ok := vm.Method(key); ok {
		return m, nil
	}
	if !vm.data.Has(key) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	return vm.data.Get(key)
}

// Set writes a top-level data key through to the observed store. Keys added
// to the data after New, through SetValue or Data().Set, are reachable too.
func (vm *ViewModel) Set(key string, value any) error {
	if _, ok := vm.methods[key]; ok {
		return fmt.Errorf("%w: %q", observe.ErrReadOnly, key)
	}
	if _, ok := vm.computed[key]; ok {
		return fmt.Errorf("%w: %q", observe.ErrReadOnly, key)
	}
	if !vm.data.Has(key) {
		return fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	return vm.data.Set(key, value)
}

// Method returns the named method bound to vm.
func (vm *ViewModel) Method(name string) (Method, bool) {
	fn, ok := vm.methods[name]
	if !ok {
		return nil, false
	}
	return func(args ...any) (any, error) {
		return fn(vm, args...)
	}, true
}

// Call invokes the named method.
func (vm *ViewModel) Call(name string, args ...any) (any, error) {
	m, ok := vm.Method(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotCallable, name)
	}
	return m(args...)
}

// GetValue resolves a path expression against the data.
func (vm *ViewModel) GetValue(expr string) (any, error) {
	return observe.GetValue(vm.data, expr)
}

// SetValue assigns a path expression in the data.
func (vm *ViewModel) SetValue(expr string, value any) (any, error) {
	return observe.SetValue(vm.data, expr, value)
}

// Watch creates a watcher on the data owned by vm: Destroy disposes it.
func (vm *ViewModel) Watch(expr string, onChange observe.ChangeFunc) (*observe.Watcher, error) {
	w, err := observe.Watch(vm.data, expr, onChange)
	if err != nil {
		return nil, err
	}
	vm.watchers = append(vm.watchers, w)
	return w, nil
}

// Destroy disposes every watcher created through Watch.
func (vm *ViewModel) Destroy() {
	for _, w := range vm.watchers {
		w.Dispose()
	}
	vm.watchers = nil
}
