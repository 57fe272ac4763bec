package registers

import (
	"sort"
	"sync"
)

// Entry describes a single holding register: its address, current value and
// an optional human-readable label.
type Entry struct {
	Address uint16 `json:"address" yaml:"address"`
	Value   uint16 `json:"value" yaml:"value"`
	Label   string `json:"label,omitempty" yaml:"label,omitempty"`
}

// Bank tracks register values by address. All operations are safe for
// concurrent use; a protocol handler and an operator may touch the same bank
// at the same time.
type Bank struct {
	mu     sync.RWMutex
	values map[uint16]uint16
	labels map[uint16]string
}

// NewBank creates a bank pre-loaded with the given entries. Duplicate
// addresses among the initial entries fail with DuplicateAddressError.
func NewBank(initial ...Entry) (*Bank, error) {
	b := &Bank{
		values: make(map[uint16]uint16),
		labels: make(map[uint16]string),
	}
	for _, entry := range initial {
		if err := b.Add(entry); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// Add inserts a new register. Adding an address that already exists fails
// with DuplicateAddressError and leaves the existing entry untouched.
func (b *Bank) Add(entry Entry) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.values[entry.Address]; exists {
		return &DuplicateAddressError{Address: entry.Address}
	}
	b.values[entry.Address] = entry.Value
	if entry.Label != "" {
		b.labels[entry.Address] = entry.Label
	}
	return nil
}

// Set overwrites the value of an existing register.
func (b *Bank) Set(address, value uint16) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.values[address]; !exists {
		return &UnknownAddressError{Address: address}
	}
	b.values[address] = value
	return nil
}

// Get returns the current value of a register.
func (b *Bank) Get(address uint16) (uint16, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	value, exists := b.values[address]
	if !exists {
		return 0, &UnknownAddressError{Address: address}
	}
	return value, nil
}

// Remove deletes a register from the bank.
func (b *Bank) Remove(address uint16) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.values[address]; !exists {
		return &UnknownAddressError{Address: address}
	}
	delete(b.values, address)
	delete(b.labels, address)
	return nil
}

// List returns a snapshot of all entries in ascending address order.
// Mutations after the call do not affect an already-returned slice.
func (b *Bank) List() []Entry {
	b.mu.RLock()
	defer b.mu.RUnlock()

	addresses := make([]uint16, 0, len(b.values))
	for address := range b.values {
		addresses = append(addresses, address)
	}
	sort.Slice(addresses, func(i, j int) bool { return addresses[i] < addresses[j] })

	entries := make([]Entry, 0, len(addresses))
	for _, address := range addresses {
		entries = append(entries, Entry{
			Address: address,
			Value:   b.values[address],
			Label:   b.labels[address],
		})
	}
	return entries
}

// Len returns the number of registers in the bank.
func (b *Bank) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.values)
}
