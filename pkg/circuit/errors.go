package circuit

import "errors"

var (
	// ErrComponentNotFound is returned when a reference designator does
	// not exist in the graph.
	ErrComponentNotFound = errors.New("component not found")

	// ErrNetNotFound is returned when a net name does not exist in the
	// graph.
	ErrNetNotFound = errors.New("net not found")

	// ErrDuplicateComponent is returned when adding a component whose
	// reference designator is already present.
	ErrDuplicateComponent = errors.New("duplicate component reference")

	// ErrDuplicateNet is returned when adding a net whose name is
	// already present.
	ErrDuplicateNet = errors.New("duplicate net name")
)
