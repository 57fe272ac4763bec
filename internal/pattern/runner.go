package pattern

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wennersten/mbsim/internal/device"
)

// ChangeFunc is called after every successful register update.
type ChangeFunc func(deviceID int, address, value uint16)

// Runner drives one register of one device with a Pattern on a fixed
// interval. Start and Stop may be called repeatedly; extra calls are no-ops.
type Runner struct {
	dev      *device.Device
	address  uint16
	pattern  Pattern
	interval time.Duration
	onChange ChangeFunc
	logger   *zap.Logger

	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewRunner validates that the target register exists before any ticking
// starts, so a typo in the address fails fast.
func NewRunner(dev *device.Device, address uint16, p Pattern, interval time.Duration, logger *zap.Logger) (*Runner, error) {
	if p == nil {
		return nil, fmt.Errorf("pattern is required")
	}
	if interval <= 0 {
		return nil, fmt.Errorf("interval must be positive, got %s", interval)
	}
	if _, err := dev.ReadRegister(address); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		dev:      dev,
		address:  address,
		pattern:  p,
		interval: interval,
		logger: logger.With(
			zap.Int("device_id", dev.ID),
			zap.Uint16("address", address),
		),
	}, nil
}

// OnChange registers a callback fired after each update. Must be set before
// Start.
func (r *Runner) OnChange(fn ChangeFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onChange = fn
}

func (r *Runner) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		r.logger.Warn("Pattern runner already started")
		return
	}

	r.stopChan = make(chan struct{})
	r.running = true
	r.wg.Add(1)
	go r.loop(r.stopChan)

	r.logger.Info("Pattern runner started", zap.Duration("interval", r.interval))
}

func (r *Runner) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	close(r.stopChan)
	r.mu.Unlock()

	r.wg.Wait()
	r.logger.Info("Pattern runner stopped")
}

func (r *Runner) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// Address reports the register this runner drives.
func (r *Runner) Address() uint16 {
	return r.address
}

func (r *Runner) loop(stop <-chan struct{}) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			r.tick()
		}
	}
}

func (r *Runner) tick() {
	current, err := r.dev.ReadRegister(r.address)
	if err != nil {
		// Register was removed out from under us; keep ticking in case
		// it comes back.
		r.logger.Warn("Pattern read failed", zap.Error(err))
		return
	}

	next := r.pattern.Next(current)
	if err := r.dev.WriteRegister(r.address, next); err != nil {
		r.logger.Warn("Pattern write failed", zap.Error(err))
		return
	}

	r.mu.Lock()
	fn := r.onChange
	r.mu.Unlock()
	if fn != nil {
		fn(r.dev.ID, r.address, next)
	}
}
