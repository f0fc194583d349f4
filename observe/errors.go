package observe

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrPathResolution is matched by every *PathResolutionError.
	ErrPathResolution = errors.New("observe: path resolution failed")

	// ErrInvalidPath is returned when a path expression cannot be compiled,
	// e.g. it is empty or contains an empty segment ("a..b").
	ErrInvalidPath = errors.New("observe: invalid path expression")

	// ErrCallback is matched by every *CallbackError.
	ErrCallback = errors.New("observe: change callback failed")

	// ErrIndexOutOfRange is returned when assigning past the end of an Array.
	// Arrays cannot grow or shrink once observed.
	ErrIndexOutOfRange = errors.New("observe: array index out of range")

	// ErrKeyExists is returned when defining a computed accessor over an
	// existing key.
	ErrKeyExists = errors.New("observe: key already defined")

	// ErrReadOnly is returned when assigning to a computed property.
	ErrReadOnly = errors.New("observe: property is read-only")
)

// PathResolutionError reports a path whose traversal hit an absent or
// non-container value before the final segment.
type PathResolutionError struct {
	Path    string // the full expression
	Segment string // the segment that could not be indexed
	Index   int    // position of Segment in the path
	Reason  string
}

func (e *PathResolutionError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "observe: cannot resolve %q at segment %d (%q)", e.Path, e.Index, e.Segment)
	if e.Reason != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Reason)
	}
	return sb.String()
}

func (e *PathResolutionError) Is(target error) bool {
	return target == ErrPathResolution
}

// CallbackError wraps an error returned by a watcher's change callback.
// It aborts the publish pass it happened in.
type CallbackError struct {
	Path  string
	Value any
	Err   error
}

func (e *CallbackError) Error() string {
	return fmt.Sprintf("observe: change callback for %q failed: %v", e.Path, e.Err)
}

func (e *CallbackError) Unwrap() error {
	return e.Err
}

func (e *CallbackError) Is(target error) bool {
	return target == ErrCallback
}
