package device

import "fmt"

// SlaveIDMin and SlaveIDMax bound the valid Modbus slave id range for an
// individual device.
const (
	SlaveIDMin = 1
	SlaveIDMax = 247
)

// DuplicateIDError is returned when a device id is added to a registry that
// already contains it.
type DuplicateIDError struct {
	ID int
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("device %d already exists", e.ID)
}

// UnknownIDError is returned when an operation references a device id that is
// not present in the registry.
type UnknownIDError struct {
	ID int
}

func (e *UnknownIDError) Error() string {
	return fmt.Sprintf("device %d not found", e.ID)
}

// InvalidIDError is returned when a device id is outside the valid Modbus
// slave id range.
type InvalidIDError struct {
	ID int
}

func (e *InvalidIDError) Error() string {
	return fmt.Sprintf("invalid device id %d: must be between %d and %d",
		e.ID, SlaveIDMin, SlaveIDMax)
}
