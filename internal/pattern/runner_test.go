package pattern

import (
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/wennersten/mbsim/internal/device"
	"github.com/wennersten/mbsim/internal/registers"
)

func testDevice(t *testing.T) *device.Device {
	t.Helper()

	dev := device.New(1, "Test Device", "")
	if err := dev.AddRegister(registers.Entry{Address: 40001, Value: 100}); err != nil {
		t.Fatalf("AddRegister: %v", err)
	}
	return dev
}

func TestNewRunnerRejectsMissingRegister(t *testing.T) {
	dev := testDevice(t)

	_, err := NewRunner(dev, 40099, Increment{Step: 1}, 10*time.Millisecond, zap.NewNop())
	if err == nil {
		t.Fatal("expected error for missing register")
	}
}

func TestNewRunnerRejectsBadInterval(t *testing.T) {
	dev := testDevice(t)

	if _, err := NewRunner(dev, 40001, Increment{Step: 1}, 0, zap.NewNop()); err == nil {
		t.Fatal("expected error for zero interval")
	}
	if _, err := NewRunner(dev, 40001, nil, time.Millisecond, zap.NewNop()); err == nil {
		t.Fatal("expected error for nil pattern")
	}
}

func TestRunnerAdvancesRegister(t *testing.T) {
	dev := testDevice(t)

	r, err := NewRunner(dev, 40001, Increment{Step: 1}, 5*time.Millisecond, zap.NewNop())
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}

	r.Start()
	defer r.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		v, err := dev.ReadRegister(40001)
		if err != nil {
			t.Fatalf("ReadRegister: %v", err)
		}
		if v > 100 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("register never advanced")
}

func TestRunnerOnChange(t *testing.T) {
	dev := testDevice(t)

	r, err := NewRunner(dev, 40001, Increment{Step: 1}, 5*time.Millisecond, zap.NewNop())
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}

	var calls atomic.Int64
	r.OnChange(func(deviceID int, address, value uint16) {
		if deviceID != 1 || address != 40001 {
			t.Errorf("OnChange got device %d address %d", deviceID, address)
		}
		calls.Add(1)
	})

	r.Start()
	defer r.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if calls.Load() > 0 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("OnChange never fired")
}

func TestRunnerStopIsIdempotent(t *testing.T) {
	dev := testDevice(t)

	r, err := NewRunner(dev, 40001, Increment{Step: 1}, time.Millisecond, zap.NewNop())
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}

	r.Start()
	if !r.IsRunning() {
		t.Fatal("runner should be running after Start")
	}

	r.Stop()
	r.Stop()
	if r.IsRunning() {
		t.Fatal("runner should be stopped")
	}

	// A second Start after Stop works.
	r.Start()
	if !r.IsRunning() {
		t.Fatal("runner should restart")
	}
	r.Stop()
}

func TestRunnerSurvivesRemovedRegister(t *testing.T) {
	dev := testDevice(t)

	r, err := NewRunner(dev, 40001, Increment{Step: 1}, time.Millisecond, zap.NewNop())
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}

	r.Start()
	defer r.Stop()

	if err := dev.RemoveRegister(40001); err != nil {
		t.Fatalf("RemoveRegister: %v", err)
	}
	time.Sleep(10 * time.Millisecond)

	if !r.IsRunning() {
		t.Fatal("runner should keep running when the register disappears")
	}
}
