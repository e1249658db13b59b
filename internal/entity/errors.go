package entity

import "fmt"

// InvalidServicePayloadError covers §7's "missing/wrong argument in a
// high-level operation": writing to a non-writable entity, or one
// currently unavailable.
type InvalidServicePayloadError struct {
	Reason string
}

func (e *InvalidServicePayloadError) Error() string {
	return fmt.Sprintf("entity: invalid service payload: %s", e.Reason)
}
