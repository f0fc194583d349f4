package observe

import (
	"reflect"

	mapset "github.com/deckarep/golang-set/v2"
)

// Subscriber is anything a Dep can notify. *Watcher is the only subscriber
// the engine creates itself. Implementations must be comparable types.
type Subscriber interface {
	Refresh() error
}

// Dep is the subscriber registry of a single property.
//
// Subscribers are kept in subscription order and deduplicated by identity:
// a watcher that reads the same property on every refresh stays subscribed
// exactly once, so notification counts never grow over its lifetime.
type Dep struct {
	rctx *ReactiveContext
	key  string

	subs    []Subscriber
	members mapset.Set[Subscriber]
}

func newDep(rctx *ReactiveContext, key string) *Dep {
	return &Dep{
		rctx:    rctx,
		key:     key,
		members: mapset.NewThreadUnsafeSet[Subscriber](),
	}
}

// Key is the name of the property owning this Dep.
func (d *Dep) Key() string {
	return d.key
}

// Len is the number of current subscribers.
func (d *Dep) Len() int {
	return len(d.subs)
}

// Subscribe appends s unless it is already subscribed. It reports whether s
// was added. Subscribers are compared by identity, so s must be of a
// comparable type (a pointer, typically); anything else is rejected.
func (d *Dep) Subscribe(s Subscriber) bool {
	if s == nil || !reflect.TypeOf(s).Comparable() || !d.members.Add(s) {
		return false
	}
	d.subs = append(d.subs, s)
	return true
}

// Unsubscribe removes s, keeping the order of the remaining subscribers.
func (d *Dep) Unsubscribe(s Subscriber) bool {
	if s == nil || !reflect.TypeOf(s).Comparable() || !d.members.Contains(s) {
		return false
	}
	d.members.Remove(s)
	for i, sub := range d.subs {
		if sub == s {
			d.subs = append(d.subs[:i], d.subs[i+1:]...)
			break
		}
	}
	return true
}

// Publish refreshes every subscriber in subscription order on the calling
// stack. The first error stops the pass: later subscribers are not refreshed
// and the error is returned unchanged.
func (d *Dep) Publish() error {
	if len(d.subs) == 0 {
		return nil
	}

	// Refreshing may subscribe or dispose watchers, iterate over a copy
	subs := make([]Subscriber, len(d.subs))
	copy(subs, d.subs)

	d.rctx.tracer.OnPublish(d, len(subs))
	d.rctx.logger.Debug().Str("key", d.key).Int("subscribers", len(subs)).Msg("publish")

	for i, sub := range subs {
		// Disposed earlier in this same pass
		if !d.members.Contains(sub) {
			continue
		}
		if err := sub.Refresh(); err != nil {
			d.rctx.logger.Debug().
				Err(err).
				Str("key", d.key).
				Int("skipped", len(subs)-i-1).
				Msg("publish aborted")
			return err
		}
	}
	return nil
}
