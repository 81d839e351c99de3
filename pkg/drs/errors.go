package drs

import "errors"

var (
	// ErrComponentNotFound is returned when a reference has no footprint
	// on the board.
	ErrComponentNotFound = errors.New("component not found on board")

	// ErrNetNotFound is returned when a net name does not exist on the
	// board.
	ErrNetNotFound = errors.New("net not found on board")

	// ErrNoPath means the copper connectivity graph holds no route
	// between the two points. Callers treat it as a result, not a
	// failure: an unrouted board section is a legitimate finding.
	ErrNoPath = errors.New("no copper path found")

	// ErrNotOnNet is returned when a component has no pad on the
	// requested net.
	ErrNotOnNet = errors.New("component has no pad on net")
)
