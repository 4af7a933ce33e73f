package fleet

import "errors"

var (
	// ErrUnknownUnit is returned by commands naming a unit that does not exist.
	ErrUnknownUnit = errors.New("unknown unit")

	// ErrAlreadyReturning is returned when a return is requested for a unit
	// that is already on its way home. No state changes.
	ErrAlreadyReturning = errors.New("unit is already returning home")

	// ErrNotActive is returned when a return is requested for a unit that
	// is not flying.
	ErrNotActive = errors.New("unit is not active")

	// ErrCommandNotDelivered reports that the uplink rejected or timed out a
	// return command. The unit still returns and lands.
	ErrCommandNotDelivered = errors.New("return command not delivered")
)
