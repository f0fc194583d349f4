package observe

import (
	"fmt"
	"sort"
)

// Observe builds the observed tree for data and returns its root.
//
// Every nested map[string]any becomes an *Object and every []any an *Array,
// depth-first, so a compound is fully wrapped before the property holding it
// exists. Anything else is a scalar and is stored as is. data itself is not
// modified; keep using the returned root.
func Observe(rctx *ReactiveContext, data map[string]any) *Object {
	if data == nil {
		data = map[string]any{}
	}
	return newObject(rctx, data)
}

// wrap is the tree-building visitor over the value variant.
func wrap(rctx *ReactiveContext, v any) any {
	switch x := v.(type) {
	case *Object, *Array:
		// Already observed
		return x
	case map[string]any:
		return newObject(rctx, x)
	case []any:
		return newArray(rctx, x)
	case []map[string]any:
		items := make([]any, len(x))
		for i, m := range x {
			items[i] = m
		}
		return newArray(rctx, items)
	default:
		return v
	}
}

// Raw converts an observed value back into plain maps and slices without
// subscribing anything. Scalars are returned unchanged.
func Raw(v any) any {
	switch x := v.(type) {
	case *Object:
		return x.Snapshot()
	case *Array:
		return x.Snapshot()
	default:
		return v
	}
}

// Object is an observed keyed container.
type Object struct {
	rctx  *ReactiveContext
	keys  []string
	props map[string]*Property

	// Published when a key is defined after observation, so watchers that
	// read an absent key notice it appearing
	keysDep *Dep
}

func newObject(rctx *ReactiveContext, data map[string]any) *Object {
	o := &Object{
		rctx:    rctx,
		keys:    make([]string, 0, len(data)),
		props:   make(map[string]*Property, len(data)),
		keysDep: newDep(rctx, "*"),
	}

	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		o.define(k, data[k])
	}
	return o
}

func (o *Object) define(key string, v any) *Property {
	p := newProperty(o.rctx, key, wrap(o.rctx, v))
	o.keys = append(o.keys, key)
	o.props[key] = p
	return p
}

// Context returns the ReactiveContext the object was observed under.
func (o *Object) Context() *ReactiveContext {
	return o.rctx
}

// Get reads key, subscribing the active collector. An absent key yields nil.
func (o *Object) Get(key string) (any, error) {
	p, ok := o.props[key]
	if !ok {
		o.rctx.track(o.keysDep)
		return nil, nil
	}
	return p.get()
}

// Set assigns key. Assigning an absent key defines a new reactive property.
func (o *Object) Set(key string, v any) error {
	p, ok := o.props[key]
	if !ok {
		o.define(key, v)
		return o.keysDep.Publish()
	}
	return p.set(v)
}

// Peek reads key without subscribing.
func (o *Object) Peek(key string) (any, bool) {
	p, ok := o.props[key]
	if !ok {
		return nil, false
	}
	return p.peek(), true
}

// Has reports whether key is defined, data or computed.
func (o *Object) Has(key string) bool {
	_, ok := o.props[key]
	return ok
}

// Keys returns the data keys in definition order. Computed accessors are not
// listed.
func (o *Object) Keys() []string {
	out := make([]string, len(o.keys))
	copy(out, o.keys)
	return out
}

func (o *Object) Len() int {
	return len(o.keys)
}

// Property returns the slot for key, mostly useful for inspecting its Dep.
func (o *Object) Property(key string) (*Property, bool) {
	p, ok := o.props[key]
	return p, ok
}

// DefineComputed installs a read-only accessor that calls fn on every read.
// Reads made by fn attribute to whichever watcher is collecting, so watching
// a computed key tracks everything the function touches.
func (o *Object) DefineComputed(key string, fn func() (any, error)) error {
	if _, ok := o.props[key]; ok {
		return fmt.Errorf("%w: %q", ErrKeyExists, key)
	}
	o.props[key] = newComputedProperty(o.rctx, key, fn)
	return nil
}

// Snapshot returns a plain copy of the data keys without subscribing.
func (o *Object) Snapshot() map[string]any {
	out := make(map[string]any, len(o.keys))
	for _, k := range o.keys {
		out[k] = Raw(o.props[k].value)
	}
	return out
}

// Array is an observed indexed container. Every existing index is a reactive
// property; the length is fixed once observed.
type Array struct {
	rctx  *ReactiveContext
	items []*Property
}

func newArray(rctx *ReactiveContext, data []any) *Array {
	a := &Array{
		rctx:  rctx,
		items: make([]*Property, len(data)),
	}
	for i, v := range data {
		a.items[i] = newProperty(rctx, fmt.Sprintf("[%d]", i), wrap(rctx, v))
	}
	return a
}

// Len is not reactive.
func (a *Array) Len() int {
	return len(a.items)
}

// Get reads index i, subscribing the active collector. Out of range yields nil.
func (a *Array) Get(i int) (any, error) {
	if i < 0 || i >= len(a.items) {
		return nil, nil
	}
	return a.items[i].get()
}

// Set assigns an existing index.
func (a *Array) Set(i int, v any) error {
	if i < 0 || i >= len(a.items) {
		return fmt.Errorf("%w: %d (len %d)", ErrIndexOutOfRange, i, len(a.items))
	}
	return a.items[i].set(v)
}

func (a *Array) Peek(i int) (any, bool) {
	if i < 0 || i >= len(a.items) {
		return nil, false
	}
	return a.items[i].value, true
}

func (a *Array) Property(i int) (*Property, bool) {
	if i < 0 || i >= len(a.items) {
		return nil, false
	}
	return a.items[i], true
}

// Snapshot returns a plain copy without subscribing.
func (a *Array) Snapshot() []any {
	out := make([]any, len(a.items))
	for i, p := range a.items {
		out[i] = Raw(p.value)
	}
	return out
}
