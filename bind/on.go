package bind

import (
	"fmt"

	"github.com/delaneyj/mvvm/vm"
)

// On routes event to the view model method named method. Every Fire calls
// the method with the event payload, bound to m, and sends the method's
// result to sink. sink may be nil.
func On(m *vm.ViewModel, sink Sink, event string, method string) (*Binding, error) {
	handler, ok := m.Method(method)
	if !ok {
		return nil, fmt.Errorf("error while binding %s to %q: %w", event, method, vm.ErrNotCallable)
	}
	if event == "" {
		event = method
	}
	return &Binding{
		root:    m.Data(),
		sink:    sink,
		event:   event,
		handler: handler,
	}, nil
}

// Event is the event name an On binding handles, empty for other bindings.
func (b *Binding) Event() string {
	return b.event
}

// Fire delivers payload to the bound method and returns its result. Firing a
// disposed binding does nothing.
func (b *Binding) Fire(payload any) (any, error) {
	if b.event == "" {
		return nil, ErrNotHandler
	}
	if b.handler == nil {
		return nil, nil
	}

	out, err := b.handler(payload)
	if err != nil {
		return nil, fmt.Errorf("%s handler: %w", b.event, err)
	}
	if b.sink != nil {
		if err := b.sink.Update(Format(out)); err != nil {
			return nil, err
		}
	}
	return out, nil
}
