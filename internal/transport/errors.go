package transport

import "fmt"

// DuplicateTransportError is returned when a transport name is added to a
// supervisor that already contains it.
type DuplicateTransportError struct {
	Name string
}

func (e *DuplicateTransportError) Error() string {
	return fmt.Sprintf("transport %q already exists", e.Name)
}

// UnknownTransportError is returned when an operation references a transport
// name that is not managed by the supervisor.
type UnknownTransportError struct {
	Name string
}

func (e *UnknownTransportError) Error() string {
	return fmt.Sprintf("transport %q not found", e.Name)
}

// BindError wraps a failure to acquire the transport resource (port already
// bound, serial device missing). It is fatal for the endpoint; the endpoint
// transitions to Failed and is not retried internally.
type BindError struct {
	Kind    Kind
	Address string
	Err     error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("bind %s transport on %s: %v", e.Kind, e.Address, e.Err)
}

func (e *BindError) Unwrap() error {
	return e.Err
}
