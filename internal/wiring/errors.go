package wiring

import "fmt"

// UnknownEntityError is returned when an operation is dispatched against
// a uid the device description never listed (§7).
type UnknownEntityError struct {
	UID uint32
}

func (e *UnknownEntityError) Error() string {
	return fmt.Sprintf("wiring: unknown entity uid %d", e.UID)
}

// UnknownServiceError is returned when an operation's target service is
// not present on the device. ErrNoSelectedProgram is its one instance; a
// selected program uid with no registered program is reported as an
// UnknownEntityError instead.
type UnknownServiceError struct {
	Service string
}

func (e *UnknownServiceError) Error() string {
	return fmt.Sprintf("wiring: unknown service %q", e.Service)
}

// ErrNoSelectedProgram is returned by StartSelectedProgram when the
// device has no selected-program entity, or it carries no value yet.
var ErrNoSelectedProgram = &UnknownServiceError{Service: "selectedProgram"}
