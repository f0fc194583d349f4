package observe

import (
	"fmt"
	"strconv"
	"strings"
)

type segment struct {
	name string
	// Parsed array index, -1 when name is not a non-negative integer
	index int
}

// Path is a compiled dotted path expression such as "school.name" or
// "items.0.title". Compile once and reuse; a Path is immutable.
type Path struct {
	expr string
	segs []segment
}

// Compile splits expr into segments. Empty expressions and empty segments
// are rejected with ErrInvalidPath.
func Compile(expr string) (Path, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return Path{}, fmt.Errorf("%w: empty expression", ErrInvalidPath)
	}

	parts := strings.Split(expr, ".")
	segs := make([]segment, len(parts))
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			return Path{}, fmt.Errorf("%w: empty segment %d in %q", ErrInvalidPath, i, expr)
		}
		idx := -1
		if n, err := strconv.Atoi(part); err == nil && n >= 0 {
			idx = n
		}
		segs[i] = segment{name: part, index: idx}
	}

	return Path{expr: expr, segs: segs}, nil
}

// MustCompile is Compile for expressions known at compile time.
func MustCompile(expr string) Path {
	p, err := Compile(expr)
	if err != nil {
		panic(err)
	}
	return p
}

func (p Path) String() string {
	return p.expr
}

// Len is the number of segments.
func (p Path) Len() int {
	return len(p.segs)
}

// Get folds the segments over root. Every traversed property subscribes the
// active collector. Indexing an absent intermediate value is a
// *PathResolutionError; an absent final key is nil.
func (p Path) Get(root any) (any, error) {
	if len(p.segs) == 0 {
		return nil, fmt.Errorf("%w: empty expression", ErrInvalidPath)
	}
	cur := root
	for i, seg := range p.segs {
		next, err := p.child(cur, i, seg)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}

// Set resolves all but the last segment and assigns value into the container
// found there. Nothing is assigned when resolution fails.
func (p Path) Set(root any, value any) (any, error) {
	if len(p.segs) == 0 {
		return nil, fmt.Errorf("%w: empty expression", ErrInvalidPath)
	}
	last := len(p.segs) - 1

	cur := root
	for i, seg := range p.segs[:last] {
		next, err := p.child(cur, i, seg)
		if err != nil {
			return nil, err
		}
		cur = next
	}

	seg := p.segs[last]
	switch c := cur.(type) {
	case *Object:
		if err := c.Set(seg.name, value); err != nil {
			return nil, err
		}
	case *Array:
		if seg.index < 0 {
			return nil, p.fail(last, seg, "not an array index")
		}
		if err := c.Set(seg.index, value); err != nil {
			return nil, err
		}
	case nil:
		return nil, p.fail(last, seg, "value is absent")
	default:
		return nil, p.fail(last, seg, fmt.Sprintf("cannot assign into %T", cur))
	}
	return value, nil
}

func (p Path) child(cur any, i int, seg segment) (any, error) {
	switch c := cur.(type) {
	case *Object:
		return c.Get(seg.name)
	case *Array:
		if seg.index < 0 {
			return nil, nil
		}
		return c.Get(seg.index)
	case nil:
		return nil, p.fail(i, seg, "value is absent")
	default:
		// Scalars have no properties
		return nil, nil
	}
}

func (p Path) fail(i int, seg segment, reason string) error {
	return &PathResolutionError{
		Path:    p.expr,
		Segment: seg.name,
		Index:   i,
		Reason:  reason,
	}
}
