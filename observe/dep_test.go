package observe

import (
	"bytes"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSub struct {
	name  string
	log   *[]string
	fails bool
}

func (s *countingSub) Refresh() error {
	*s.log = append(*s.log, s.name)
	if s.fails {
		return errors.New(s.name + " failed")
	}
	return nil
}

func TestDep(t *testing.T) {
	t.Run("subscribe deduplicates", func(t *testing.T) {
		d := newDep(NewReactiveContext(), "k")
		log := []string{}
		a := &countingSub{name: "a", log: &log}

		assert.True(t, d.Subscribe(a))
		assert.False(t, d.Subscribe(a))
		assert.False(t, d.Subscribe(nil))
		assert.Equal(t, 1, d.Len())

		require.NoError(t, d.Publish())
		assert.Equal(t, []string{"a"}, log)
	})

	t.Run("unsubscribe keeps order", func(t *testing.T) {
		d := newDep(NewReactiveContext(), "k")
		log := []string{}
		a := &countingSub{name: "a", log: &log}
		b := &countingSub{name: "b", log: &log}
		c := &countingSub{name: "c", log: &log}
		d.Subscribe(a)
		d.Subscribe(b)
		d.Subscribe(c)

		assert.True(t, d.Unsubscribe(b))
		assert.False(t, d.Unsubscribe(b))

		require.NoError(t, d.Publish())
		assert.Equal(t, []string{"a", "c"}, log)
	})

	t.Run("first error aborts the pass", func(t *testing.T) {
		d := newDep(NewReactiveContext(), "k")
		log := []string{}
		d.Subscribe(&countingSub{name: "a", log: &log})
		d.Subscribe(&countingSub{name: "b", log: &log, fails: true})
		d.Subscribe(&countingSub{name: "c", log: &log})

		err := d.Publish()
		require.EqualError(t, err, "b failed")
		assert.Equal(t, []string{"a", "b"}, log)
	})

	t.Run("empty publish", func(t *testing.T) {
		d := newDep(NewReactiveContext(), "k")
		assert.NoError(t, d.Publish())
	})

	t.Run("uncomparable subscribers are rejected", func(t *testing.T) {
		d := newDep(NewReactiveContext(), "k")
		calls := 0
		f := refreshFunc(func() error {
			calls++
			return nil
		})

		assert.NotPanics(t, func() {
			assert.False(t, d.Subscribe(f))
			assert.False(t, d.Unsubscribe(f))
		})
		assert.Equal(t, 0, d.Len())
		require.NoError(t, d.Publish())
		assert.Equal(t, 0, calls)
	})
}

type refreshFunc func() error

func (f refreshFunc) Refresh() error {
	return f()
}

func TestCollectRestoresOnError(t *testing.T) {
	rctx := NewReactiveContext()
	w := &Watcher{rctx: rctx}

	_, err := rctx.collect(w, func() (any, error) {
		assert.Same(t, w, rctx.target)
		return nil, errors.New("nope")
	})
	require.Error(t, err)
	assert.Nil(t, rctx.target)

	assert.Panics(t, func() {
		_, _ = rctx.collect(w, func() (any, error) {
			panic("boom")
		})
	})
	assert.Nil(t, rctx.target)
}

func TestCompileCache(t *testing.T) {
	rctx := NewReactiveContext()
	p1, err := rctx.compile("a.b.0")
	require.NoError(t, err)
	p2, err := rctx.compile("a.b.0")
	require.NoError(t, err)

	assert.Equal(t, p1, p2)
	assert.Len(t, rctx.paths, 1)
	assert.Equal(t, 3, p1.Len())
	assert.Equal(t, -1, p1.segs[0].index)
	assert.Equal(t, 0, p1.segs[2].index)

	_, err = rctx.compile("a..b")
	assert.ErrorIs(t, err, ErrInvalidPath)
	assert.Len(t, rctx.paths, 1)
}

func TestStrictEqual(t *testing.T) {
	obj := &Object{}
	for _, tc := range []struct {
		name     string
		a, b     any
		expected bool
	}{
		{"nil nil", nil, nil, true},
		{"nil scalar", nil, 0, false},
		{"same int", 1, 1, true},
		{"int vs float", 1, 1.0, false},
		{"same string", "x", "x", true},
		{"same object", obj, obj, true},
		{"different objects", obj, &Object{}, false},
		{"maps", map[string]any{}, map[string]any{}, false},
		{"slices", []any{1}, []any{1}, false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, strictEqual(tc.a, tc.b))
		})
	}
}

func TestDebugLogging(t *testing.T) {
	var buf bytes.Buffer
	rctx := NewReactiveContext(WithLogger(zerolog.New(&buf).Level(zerolog.DebugLevel)))
	root := Observe(rctx, map[string]any{"x": 0})

	w, err := Watch(root, "x", nil)
	require.NoError(t, err)
	_, err = SetValue(root, "x", 1)
	require.NoError(t, err)
	w.Dispose()

	out := buf.String()
	assert.Contains(t, out, `"message":"publish"`)
	assert.Contains(t, out, `"key":"x"`)
	assert.Contains(t, out, `"message":"watcher disposed"`)
}
