package device

import (
	"errors"
	"testing"

	"github.com/wennersten/mbsim/internal/registers"
)

func TestHoldingRegisterRoundTrip(t *testing.T) {
	dev := New(1, "Pump", "")

	if err := dev.AddRegister(registers.Entry{Address: 40001, Value: 7}); err != nil {
		t.Fatalf("AddRegister failed: %v", err)
	}

	value, err := dev.ReadRegister(40001)
	if err != nil {
		t.Fatalf("ReadRegister failed: %v", err)
	}
	if value != 7 {
		t.Errorf("expected 7, got %d", value)
	}

	if err := dev.WriteRegister(40001, 11); err != nil {
		t.Fatalf("WriteRegister failed: %v", err)
	}
	value, _ = dev.ReadRegister(40001)
	if value != 11 {
		t.Errorf("expected 11 after write, got %d", value)
	}
}

func TestDisplayNameDefaultsToDeviceID(t *testing.T) {
	dev := New(3, "", "")
	if got := dev.DisplayName(); got != "Device 3" {
		t.Errorf("expected %q, got %q", "Device 3", got)
	}

	named := New(3, "Pump", "")
	if got := named.DisplayName(); got != "Pump" {
		t.Errorf("expected %q, got %q", "Pump", got)
	}
}

func TestListRegistersReturnsSortedEntries(t *testing.T) {
	dev := New(5, "Filter", "")
	dev.AddRegister(registers.Entry{Address: 40002, Value: 21})
	dev.AddRegister(registers.Entry{Address: 40001, Value: 7})

	entries := dev.ListRegisters()
	if entries[0].Address != 40001 {
		t.Errorf("expected first entry at 40001, got %d", entries[0].Address)
	}
	if entries[1].Value != 21 {
		t.Errorf("expected second entry value 21, got %d", entries[1].Value)
	}
}

func TestBankFailuresSurfaceUnchanged(t *testing.T) {
	dev := New(1, "", "")

	var unknown *registers.UnknownAddressError
	if _, err := dev.ReadRegister(40001); !errors.As(err, &unknown) {
		t.Errorf("expected UnknownAddressError from read, got %v", err)
	}
	if err := dev.WriteRegister(40001, 1); !errors.As(err, &unknown) {
		t.Errorf("expected UnknownAddressError from write, got %v", err)
	}
	if err := dev.RemoveRegister(40001); !errors.As(err, &unknown) {
		t.Errorf("expected UnknownAddressError from remove, got %v", err)
	}

	dev.AddRegister(registers.Entry{Address: 40001})
	var dup *registers.DuplicateAddressError
	if err := dev.AddRegister(registers.Entry{Address: 40001}); !errors.As(err, &dup) {
		t.Errorf("expected DuplicateAddressError from add, got %v", err)
	}
}
