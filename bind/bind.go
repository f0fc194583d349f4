// Package bind connects observed data to output sinks (text with {{ expr }}
// interpolation, raw HTML, class lists, two-way models) and routes events to
// view model methods.
package bind

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/delaneyj/mvvm/observe"
	"github.com/delaneyj/mvvm/vm"
	"github.com/ohler55/ojg/oj"
)

var (
	ErrNotModel   = errors.New("bind: binding does not accept input")
	ErrNotHandler = errors.New("bind: binding does not handle events")
)

// Sink receives every rendered value of a binding, starting with the initial
// one.
type Sink interface {
	Update(value string) error
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(value string) error

func (f SinkFunc) Update(value string) error {
	return f(value)
}

// Binding owns the watchers behind one bound output.
type Binding struct {
	root     *observe.Object
	sink     Sink
	model    string
	watchers []*observe.Watcher

	// Set for event bindings only
	event   string
	handler vm.Method
}

var interpolation = regexp.MustCompile(`\{\{(.*?)\}\}`)

type piece struct {
	literal string
	path    observe.Path
	expr    bool
}

// Text renders content with every {{ expr }} replaced by the value of expr.
// Any change to any of the expressions renders the whole content again,
// reading every expression afresh so each render is consistent.
func Text(root *observe.Object, sink Sink, content string) (*Binding, error) {
	b := &Binding{root: root, sink: sink}

	var pieces []piece
	render := func() error {
		var sb strings.Builder
		for _, p := range pieces {
			if !p.expr {
				sb.WriteString(p.literal)
				continue
			}
			v, err := root.Context().Untracked(func() (any, error) {
				return p.path.Get(root)
			})
			if err != nil {
				return err
			}
			sb.WriteString(Format(v))
		}
		return b.sink.Update(sb.String())
	}

	last := 0
	for _, m := range interpolation.FindAllStringSubmatchIndex(content, -1) {
		if m[0] > last {
			pieces = append(pieces, piece{literal: content[last:m[0]]})
		}
		path, err := b.watch(content[m[2]:m[3]], func(any) error { return render() })
		if err != nil {
			return nil, err
		}
		pieces = append(pieces, piece{path: path, expr: true})
		last = m[1]
	}
	if last < len(content) {
		pieces = append(pieces, piece{literal: content[last:]})
	}

	if err := render(); err != nil {
		b.Dispose()
		return nil, err
	}
	return b, nil
}

// HTML sends the value of expr to the sink unchanged.
func HTML(root *observe.Object, sink Sink, expr string) (*Binding, error) {
	return single(root, sink, expr, Format)
}

// Class renders the value of expr appended to a fixed set of base classes.
// The previous value is replaced, the base classes are kept.
func Class(root *observe.Object, sink Sink, base string, expr string) (*Binding, error) {
	base = strings.TrimSpace(base)
	return single(root, sink, expr, func(v any) string {
		value := strings.TrimSpace(Format(v))
		switch {
		case base == "":
			return value
		case value == "":
			return base
		default:
			return base + " " + value
		}
	})
}

// Model binds expr both ways: its value is shown in the sink and Input
// writes back to it.
func Model(root *observe.Object, sink Sink, expr string) (*Binding, error) {
	b, err := single(root, sink, expr, Format)
	if err != nil {
		return nil, err
	}
	b.model = expr
	return b, nil
}

func single(root *observe.Object, sink Sink, expr string, format func(any) string) (*Binding, error) {
	b := &Binding{root: root, sink: sink}
	if _, err := b.watch(expr, func(v any) error {
		return b.sink.Update(format(v))
	}); err != nil {
		return nil, err
	}
	if err := b.sink.Update(format(b.watchers[0].Value())); err != nil {
		b.Dispose()
		return nil, err
	}
	return b, nil
}

func (b *Binding) watch(expr string, onChange observe.ChangeFunc) (observe.Path, error) {
	path, err := observe.Compile(expr)
	if err == nil {
		var w *observe.Watcher
		if w, err = observe.WatchPath(b.root, path, onChange); err == nil {
			b.watchers = append(b.watchers, w)
			return path, nil
		}
	}
	b.Dispose()
	return observe.Path{}, fmt.Errorf("error while binding %q: %w", strings.TrimSpace(expr), err)
}

// Input writes v to the model expression. Writing the current value again
// notifies nobody.
func (b *Binding) Input(v any) error {
	if b.model == "" {
		return ErrNotModel
	}
	if len(b.watchers) == 0 {
		return nil
	}
	_, err := observe.SetValue(b.root, b.model, v)
	return err
}

// Dispose stops every watcher of the binding and detaches its event handler.
// The sink gets no more updates.
func (b *Binding) Dispose() {
	for _, w := range b.watchers {
		w.Dispose()
	}
	b.watchers = nil
	b.handler = nil
}

// Format renders a value for display. Absent values render empty, observed
// containers render as sorted JSON.
func Format(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case *observe.Object, *observe.Array:
		return oj.JSON(observe.Raw(x), &oj.Options{Sort: true})
	default:
		return fmt.Sprint(x)
	}
}
