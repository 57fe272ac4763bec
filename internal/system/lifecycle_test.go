package system

import (
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/wennersten/mbsim/internal/config"
	"github.com/wennersten/mbsim/internal/device"
	"github.com/wennersten/mbsim/internal/pattern"
	"github.com/wennersten/mbsim/internal/registers"
)

func newTestManager(t *testing.T) *LifecycleManager {
	t.Helper()

	cfg := config.Default()
	cfg.Scenario.Dir = t.TempDir()

	lm, err := NewLifecycleManager(cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("NewLifecycleManager: %v", err)
	}
	return lm
}

func TestSeedDefaultDevice(t *testing.T) {
	lm := newTestManager(t)

	if err := lm.populateDevices(); err != nil {
		t.Fatalf("populateDevices: %v", err)
	}

	dev, err := lm.Registry().GetDevice(1)
	if err != nil {
		t.Fatalf("GetDevice(1): %v", err)
	}
	if dev.DisplayName() != "Default Device" {
		t.Errorf("name = %q, want Default Device", dev.DisplayName())
	}

	want := map[uint16]uint16{40001: 123, 40002: 456, 40003: 789}
	for addr, value := range want {
		got, err := dev.ReadRegister(addr)
		if err != nil {
			t.Fatalf("ReadRegister(%d): %v", addr, err)
		}
		if got != value {
			t.Errorf("register %d = %d, want %d", addr, got, value)
		}
	}
}

func TestScenarioSaveLoadRoundTrip(t *testing.T) {
	lm := newTestManager(t)

	if _, err := lm.Registry().AddDevice(device.Descriptor{
		ID:   7,
		Name: "Boiler",
		Registers: []registers.Entry{
			{Address: 40010, Value: 55, Label: "temp"},
		},
	}); err != nil {
		t.Fatalf("AddDevice: %v", err)
	}

	if err := lm.SaveScenario("snapshot"); err != nil {
		t.Fatalf("SaveScenario: %v", err)
	}

	// Mutate the registry, then load the snapshot back.
	if _, err := lm.Registry().AddDevice(device.Descriptor{ID: 8}); err != nil {
		t.Fatalf("AddDevice: %v", err)
	}

	if err := lm.LoadScenario("snapshot"); err != nil {
		t.Fatalf("LoadScenario: %v", err)
	}

	if lm.Registry().Len() != 1 {
		t.Fatalf("registry has %d devices, want 1", lm.Registry().Len())
	}
	dev, err := lm.Registry().GetDevice(7)
	if err != nil {
		t.Fatalf("GetDevice(7): %v", err)
	}
	if v, _ := dev.ReadRegister(40010); v != 55 {
		t.Errorf("register 40010 = %d, want 55", v)
	}

	if status := lm.GetCurrentStatus(); status.Scenario == "" {
		t.Error("status should carry the loaded scenario name")
	}
}

func TestLoadScenarioUnknownName(t *testing.T) {
	lm := newTestManager(t)

	if err := lm.LoadScenario("missing"); err == nil {
		t.Fatal("expected error for missing scenario")
	}
}

func TestPatternLifecycle(t *testing.T) {
	lm := newTestManager(t)

	if _, err := lm.Registry().AddDevice(device.Descriptor{
		ID:        1,
		Registers: []registers.Entry{{Address: 40001, Value: 10}},
	}); err != nil {
		t.Fatalf("AddDevice: %v", err)
	}

	spec := pattern.Spec{Kind: "increment", Step: 1, Interval: time.Millisecond}
	if err := lm.StartPattern(1, 40001, spec); err != nil {
		t.Fatalf("StartPattern: %v", err)
	}

	if got := lm.GetCurrentStatus().ActivePatterns; got != 1 {
		t.Fatalf("ActivePatterns = %d, want 1", got)
	}

	// Replacing the runner on the same register does not leak.
	if err := lm.StartPattern(1, 40001, spec); err != nil {
		t.Fatalf("StartPattern replace: %v", err)
	}
	if got := lm.GetCurrentStatus().ActivePatterns; got != 1 {
		t.Fatalf("ActivePatterns after replace = %d, want 1", got)
	}

	if err := lm.StopPattern(1, 40001); err != nil {
		t.Fatalf("StopPattern: %v", err)
	}
	if err := lm.StopPattern(1, 40001); err == nil {
		t.Fatal("stopping a stopped pattern should fail")
	}

	if got := lm.GetCurrentStatus().ActivePatterns; got != 0 {
		t.Fatalf("ActivePatterns = %d, want 0", got)
	}
}

func TestStartPatternValidation(t *testing.T) {
	lm := newTestManager(t)

	spec := pattern.Spec{Kind: "increment"}
	if err := lm.StartPattern(9, 40001, spec); err == nil {
		t.Fatal("expected error for unknown device")
	}

	if _, err := lm.Registry().AddDevice(device.Descriptor{
		ID:        1,
		Registers: []registers.Entry{{Address: 40001}},
	}); err != nil {
		t.Fatalf("AddDevice: %v", err)
	}

	if err := lm.StartPattern(1, 40002, spec); err == nil {
		t.Fatal("expected error for unknown register")
	}
	if err := lm.StartPattern(1, 40001, pattern.Spec{Kind: "sawtooth"}); err == nil {
		t.Fatal("expected error for unknown pattern kind")
	}
}
