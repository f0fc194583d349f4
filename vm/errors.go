package vm

import "errors"

var (
	// ErrUnknownKey is returned for a name that is neither data, computed
	// nor a method.
	ErrUnknownKey = errors.New("vm: unknown key")

	// ErrDuplicateKey is returned by New when the same name is declared
	// twice across data, computed and methods.
	ErrDuplicateKey = errors.New("vm: duplicate key")

	// ErrNotCallable is returned by Call for a name that is not a method.
	ErrNotCallable = errors.New("vm: not a method")
)
