package transport

import (
	"github.com/wennersten/mbsim/internal/device"
	"github.com/wennersten/mbsim/internal/registers"
)

// SlaveDatastore exposes one device in the four-bank shape the protocol
// engine expects. Only the holding register bank is populated; it is the
// device's live bank, so operator mutations are visible to the very next
// protocol request. The other three banks are empty stubs and reject every
// address.
//
// Protocol addresses map one to one onto bank addresses; no 4xxxx offset
// translation is applied.
type SlaveDatastore struct {
	dev            *device.Device
	discreteInputs *registers.Bank
	coils          *registers.Bank
	inputRegisters *registers.Bank
}

func newSlaveDatastore(dev *device.Device) *SlaveDatastore {
	discrete, _ := registers.NewBank()
	coils, _ := registers.NewBank()
	input, _ := registers.NewBank()
	return &SlaveDatastore{
		dev:            dev,
		discreteInputs: discrete,
		coils:          coils,
		inputRegisters: input,
	}
}

// Device returns the device backing this datastore.
func (ds *SlaveDatastore) Device() *device.Device {
	return ds.dev
}

// ReadHolding reads quantity consecutive holding registers starting at
// start. Every address in the range must exist on the device.
func (ds *SlaveDatastore) ReadHolding(start, quantity uint16) ([]uint16, error) {
	values := make([]uint16, 0, quantity)
	for i := uint16(0); i < quantity; i++ {
		value, err := ds.dev.ReadRegister(start + i)
		if err != nil {
			return nil, err
		}
		values = append(values, value)
	}
	return values, nil
}

// WriteHolding overwrites a single holding register.
func (ds *SlaveDatastore) WriteHolding(address, value uint16) error {
	return ds.dev.WriteRegister(address, value)
}

// ReadInput reads from the input register stub bank. The bank is always
// empty, so any request fails with UnknownAddressError.
func (ds *SlaveDatastore) ReadInput(start, quantity uint16) ([]uint16, error) {
	values := make([]uint16, 0, quantity)
	for i := uint16(0); i < quantity; i++ {
		value, err := ds.inputRegisters.Get(start + i)
		if err != nil {
			return nil, err
		}
		values = append(values, value)
	}
	return values, nil
}

// ReadCoils reads from the coil stub bank.
func (ds *SlaveDatastore) ReadCoils(start, quantity uint16) ([]bool, error) {
	return readBits(ds.coils, start, quantity)
}

// ReadDiscreteInputs reads from the discrete input stub bank.
func (ds *SlaveDatastore) ReadDiscreteInputs(start, quantity uint16) ([]bool, error) {
	return readBits(ds.discreteInputs, start, quantity)
}

func readBits(bank *registers.Bank, start, quantity uint16) ([]bool, error) {
	bits := make([]bool, 0, quantity)
	for i := uint16(0); i < quantity; i++ {
		value, err := bank.Get(start + i)
		if err != nil {
			return nil, err
		}
		bits = append(bits, value != 0)
	}
	return bits, nil
}
