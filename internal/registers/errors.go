package registers

import "fmt"

// DuplicateAddressError is returned when a register address is added to a
// bank that already contains it.
type DuplicateAddressError struct {
	Address uint16
}

func (e *DuplicateAddressError) Error() string {
	return fmt.Sprintf("register %d already defined", e.Address)
}

// UnknownAddressError is returned when an operation references a register
// address that is not present in the bank.
type UnknownAddressError struct {
	Address uint16
}

func (e *UnknownAddressError) Error() string {
	return fmt.Sprintf("unknown register %d", e.Address)
}
