package observe

import (
	"fmt"
	"reflect"
)

// Property is one (container, key) slot of an observed tree. Reads go
// through get, which subscribes the active collector; writes go through
// set, which converts, stores and publishes.
type Property struct {
	rctx  *ReactiveContext
	key   string
	value any
	dep   *Dep

	// Set for computed accessors: no stored value, no Dep of their own,
	// the function runs on every read.
	getter func() (any, error)
}

func newComputedProperty(rctx *ReactiveContext, key string, getter func() (any, error)) *Property {
	return &Property{
		rctx:   rctx,
		key:    key,
		getter: getter,
	}
}

func newProperty(rctx *ReactiveContext, key string, value any) *Property {
	return &Property{
		rctx:  rctx,
		key:   key,
		value: value,
		dep:   newDep(rctx, key),
	}
}

// Dep returns the property's registry, nil for computed accessors.
func (p *Property) Dep() *Dep {
	return p.dep
}

// Computed reports whether p is a computed accessor.
func (p *Property) Computed() bool {
	return p.getter != nil
}

func (p *Property) get() (any, error) {
	if p.getter != nil {
		return p.getter()
	}
	p.rctx.track(p.dep)
	return p.value, nil
}

func (p *Property) peek() any {
	if p.getter != nil {
		v, _ := p.rctx.Untracked(p.getter)
		return v
	}
	return p.value
}

func (p *Property) set(next any) error {
	if p.getter != nil {
		return fmt.Errorf("%w: %q", ErrReadOnly, p.key)
	}

	// Compare before converting: a plain map or slice is always a new value
	if strictEqual(p.value, next) {
		return nil
	}

	p.value = wrap(p.rctx, next)
	return p.dep.Publish()
}

// strictEqual is identity for compounds and == for scalars. Values whose
// dynamic type is not comparable are never equal.
func strictEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() || !va.Comparable() {
		return false
	}
	return a == b
}
