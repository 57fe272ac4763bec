package device

import (
	"fmt"

	"github.com/wennersten/mbsim/internal/registers"
)

// Device is one simulated Modbus slave with a bank of holding registers.
// The bank is exclusively owned by the device; transports reference the
// device itself, never a copy of its registers.
type Device struct {
	ID          int
	Name        string
	Description string

	holdingRegisters *registers.Bank
}

// New creates an empty device. The id is not validated here; the registry is
// the only creation point that enforces the slave id range.
func New(id int, name, description string) *Device {
	bank, _ := registers.NewBank()
	return &Device{
		ID:               id,
		Name:             name,
		Description:      description,
		holdingRegisters: bank,
	}
}

// DisplayName returns the device name, falling back to "Device {id}" when no
// name was given.
func (d *Device) DisplayName() string {
	if d.Name != "" {
		return d.Name
	}
	return fmt.Sprintf("Device %d", d.ID)
}

// AddRegister defines a new holding register on the device.
func (d *Device) AddRegister(entry registers.Entry) error {
	return d.holdingRegisters.Add(entry)
}

// ReadRegister returns the current value of a holding register.
func (d *Device) ReadRegister(address uint16) (uint16, error) {
	return d.holdingRegisters.Get(address)
}

// WriteRegister overwrites the value of an existing holding register.
func (d *Device) WriteRegister(address, value uint16) error {
	return d.holdingRegisters.Set(address, value)
}

// RemoveRegister deletes a holding register from the device.
func (d *Device) RemoveRegister(address uint16) error {
	return d.holdingRegisters.Remove(address)
}

// ListRegisters returns all holding registers in ascending address order.
func (d *Device) ListRegisters() []registers.Entry {
	return d.holdingRegisters.List()
}

// HoldingRegisters exposes the live register bank. Transports bind this bank
// into their per-slave datastores so protocol reads observe operator
// mutations immediately.
func (d *Device) HoldingRegisters() *registers.Bank {
	return d.holdingRegisters
}
