package domain

import "errors"

var (
	// ErrNotFound is returned when an audit or photo does not exist or is not
	// visible to the caller.
	ErrNotFound = errors.New("not found")
	// ErrInvalidSection is returned when a section update cannot be applied.
	ErrInvalidSection = errors.New("invalid section")
	// ErrInvalidStatus is returned for status values outside the lifecycle.
	ErrInvalidStatus = errors.New("invalid status")
	// ErrFixedFloor is returned when removing the basement or main floor.
	ErrFixedFloor = errors.New("basement and main floors cannot be removed")
	// ErrFinalFormNotSaved is returned when completing an audit whose
	// depressurization test was never saved.
	ErrFinalFormNotSaved = errors.New("depressurization test must be saved before completing the audit")
)
