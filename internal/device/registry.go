package device

import (
	"sync"

	"github.com/wennersten/mbsim/internal/registers"
	"go.uber.org/zap"
)

// Descriptor is the value object handed to Registry.AddDevice. It carries
// everything needed to construct a device, including its initial registers.
type Descriptor struct {
	ID          int
	Name        string
	Description string
	Registers   []registers.Entry
}

// Registry owns the set of live devices, keyed by slave id. It is the sole
// creation and removal point for devices and enforces id uniqueness.
type Registry struct {
	mu      sync.RWMutex
	devices map[int]*Device
	order   []int
	logger  *zap.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		devices: make(map[int]*Device),
		logger:  logger,
	}
}

// AddDevice constructs a new device from the descriptor and takes ownership
// of it. Duplicate ids fail with DuplicateIDError; duplicate addresses among
// the initial registers fail with DuplicateAddressError and leave the
// registry unchanged (the device is never partially constructed).
func (r *Registry) AddDevice(desc Descriptor) (*Device, error) {
	if desc.ID < SlaveIDMin || desc.ID > SlaveIDMax {
		return nil, &InvalidIDError{ID: desc.ID}
	}

	// Pre-validate the initial registers so a duplicate address cannot
	// leave a half-built device behind.
	seen := make(map[uint16]struct{}, len(desc.Registers))
	for _, entry := range desc.Registers {
		if _, dup := seen[entry.Address]; dup {
			return nil, &registers.DuplicateAddressError{Address: entry.Address}
		}
		seen[entry.Address] = struct{}{}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.devices[desc.ID]; exists {
		return nil, &DuplicateIDError{ID: desc.ID}
	}

	dev := New(desc.ID, desc.Name, desc.Description)
	for _, entry := range desc.Registers {
		if err := dev.AddRegister(entry); err != nil {
			return nil, err
		}
	}

	r.devices[desc.ID] = dev
	r.order = append(r.order, desc.ID)

	r.logger.Info("Device added",
		zap.Int("id", desc.ID),
		zap.String("name", dev.DisplayName()),
		zap.Int("registers", len(desc.Registers)))

	return dev, nil
}

// RemoveDevice discards a device and its register bank.
func (r *Registry) RemoveDevice(id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.devices[id]; !exists {
		return &UnknownIDError{ID: id}
	}
	delete(r.devices, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}

	r.logger.Info("Device removed", zap.Int("id", id))
	return nil
}

// GetDevice returns the device with the given slave id.
func (r *Registry) GetDevice(id int) (*Device, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	dev, exists := r.devices[id]
	if !exists {
		return nil, &UnknownIDError{ID: id}
	}
	return dev, nil
}

// ListDevices returns all devices in insertion order. Note that this differs
// from register listing, which orders by address.
func (r *Registry) ListDevices() []*Device {
	r.mu.RLock()
	defer r.mu.RUnlock()

	devices := make([]*Device, 0, len(r.order))
	for _, id := range r.order {
		devices = append(devices, r.devices[id])
	}
	return devices
}

// DeviceMap returns a point-in-time snapshot of id to device. The map is a
// copy; the devices are the live objects. Transports are built from such a
// snapshot and do not see devices added afterwards.
func (r *Registry) DeviceMap() map[int]*Device {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snapshot := make(map[int]*Device, len(r.devices))
	for id, dev := range r.devices {
		snapshot[id] = dev
	}
	return snapshot
}

// Len returns the number of registered devices.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.devices)
}
