package scenario

import (
	"fmt"
	"sort"

	"github.com/wennersten/mbsim/internal/device"
	"github.com/wennersten/mbsim/internal/registers"
)

// DefaultVersion is stamped on newly created scenarios.
const DefaultVersion = "0.0.1"

// Scenario is a named collection of simulated devices, the unit the store
// loads from and saves to disk.
type Scenario struct {
	Name        string
	Description string
	Version     string
	Devices     map[int]*device.Device
}

// New creates an empty scenario.
func New(name, description string) *Scenario {
	return &Scenario{
		Name:        name,
		Description: description,
		Version:     DefaultVersion,
		Devices:     make(map[int]*device.Device),
	}
}

// FromRegistry snapshots the registry's devices into a scenario suitable for
// saving. The scenario references the live device objects.
func FromRegistry(reg *device.Registry, name, description string) *Scenario {
	sc := New(name, description)
	for _, dev := range reg.ListDevices() {
		sc.Devices[dev.ID] = dev
	}
	return sc
}

// Apply loads every scenario device into the registry, in ascending id
// order. Registry failures (duplicate ids, duplicate addresses) surface
// unchanged.
func (sc *Scenario) Apply(reg *device.Registry) error {
	ids := make([]int, 0, len(sc.Devices))
	for id := range sc.Devices {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	for _, id := range ids {
		dev := sc.Devices[id]
		_, err := reg.AddDevice(device.Descriptor{
			ID:          id,
			Name:        dev.Name,
			Description: dev.Description,
			Registers:   dev.ListRegisters(),
		})
		if err != nil {
			return fmt.Errorf("apply scenario %q: %w", sc.Name, err)
		}
	}
	return nil
}

// document is the on-disk YAML shape of a scenario.
type document struct {
	Name        string                `yaml:"name"`
	Description string                `yaml:"description"`
	Version     string                `yaml:"version"`
	Devices     map[int]deviceSection `yaml:"devices"`
}

type deviceSection struct {
	Name        string          `yaml:"name"`
	Description string          `yaml:"description"`
	Registers   registerSection `yaml:"registers"`
}

type registerSection struct {
	HoldingRegisters []registers.Entry `yaml:"holding_registers"`
}

func (sc *Scenario) toDocument() document {
	doc := document{
		Name:        sc.Name,
		Description: sc.Description,
		Version:     sc.Version,
		Devices:     make(map[int]deviceSection, len(sc.Devices)),
	}
	for id, dev := range sc.Devices {
		doc.Devices[id] = deviceSection{
			Name:        dev.Name,
			Description: dev.Description,
			Registers: registerSection{
				// List is already sorted by address.
				HoldingRegisters: dev.ListRegisters(),
			},
		}
	}
	return doc
}

func fromDocument(doc document, fallbackName string) (*Scenario, error) {
	name := doc.Name
	if name == "" {
		name = fallbackName
	}
	sc := New(name, doc.Description)
	if doc.Version != "" {
		sc.Version = doc.Version
	}

	for id, section := range doc.Devices {
		dev := device.New(id, section.Name, section.Description)
		for _, entry := range section.Registers.HoldingRegisters {
			if err := dev.AddRegister(entry); err != nil {
				return nil, fmt.Errorf("device %d: %w", id, err)
			}
		}
		sc.Devices[id] = dev
	}
	return sc, nil
}
