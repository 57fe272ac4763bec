package transport

import (
	"sync"

	"github.com/wennersten/mbsim/internal/device"
	"go.uber.org/zap"
)

// State is the lifecycle state of an endpoint.
type State int

const (
	StateIdle State = iota
	StateStarting
	StateServing
	StateStopping
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateStarting:
		return "STARTING"
	case StateServing:
		return "SERVING"
	case StateStopping:
		return "STOPPING"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// Endpoint binds one transport to a fixed set of slave ids. The device map
// is snapshotted at construction: devices registered afterwards are not
// served until a new endpoint is built. Protocol serving is delegated to the
// engine; the endpoint owns only the state machine around it.
type Endpoint struct {
	cfg    Config
	logger *zap.Logger
	slaves map[uint8]*SlaveDatastore
	engine Engine

	mu    sync.Mutex
	state State
}

// NewEndpoint creates an endpoint served by the production Modbus engine.
func NewEndpoint(cfg Config, devices map[int]*device.Device, logger *zap.Logger) *Endpoint {
	return NewEndpointWithFactory(cfg, devices, NewModbusEngine, logger)
}

// NewEndpointWithFactory creates an endpoint with a custom engine factory.
func NewEndpointWithFactory(cfg Config, devices map[int]*device.Device, factory EngineFactory, logger *zap.Logger) *Endpoint {
	cfg = cfg.withDefaults()

	slaves := make(map[uint8]*SlaveDatastore, len(devices))
	for id, dev := range devices {
		slaves[uint8(id)] = newSlaveDatastore(dev)
	}

	return &Endpoint{
		cfg:    cfg,
		logger: logger,
		slaves: slaves,
		engine: factory(cfg, slaves, logger),
		state:  StateIdle,
	}
}

// Start binds the transport and hands control to the engine's serve loop.
// Valid only from Idle; a call on an endpoint that is already starting or
// serving logs a warning and does nothing. A bind failure transitions the
// endpoint to Failed and is returned to the caller; it is fatal for this
// endpoint and not retried internally.
func (ep *Endpoint) Start() error {
	ep.mu.Lock()
	if ep.state != StateIdle {
		state := ep.state
		ep.mu.Unlock()
		ep.logger.Warn("Modbus server is already running",
			zap.String("kind", ep.cfg.Kind.String()),
			zap.String("state", state.String()))
		return nil
	}
	ep.state = StateStarting
	ep.mu.Unlock()

	ep.logger.Info("Starting Modbus server",
		zap.String("kind", ep.cfg.Kind.String()),
		zap.String("target", ep.cfg.BindTarget()),
		zap.Int("slaves", len(ep.slaves)))

	if err := ep.engine.Start(); err != nil {
		ep.setState(StateFailed)
		bindErr := &BindError{Kind: ep.cfg.Kind, Address: ep.cfg.BindTarget(), Err: err}
		ep.logger.Error("Failed to start Modbus server", zap.Error(bindErr))
		return bindErr
	}

	ep.setState(StateServing)
	return nil
}

// Stop requests the engine shut down. A call on an endpoint that is not
// serving is a no-op.
func (ep *Endpoint) Stop() error {
	ep.mu.Lock()
	if ep.state != StateServing {
		ep.mu.Unlock()
		return nil
	}
	ep.state = StateStopping
	ep.mu.Unlock()

	ep.logger.Info("Stopping Modbus server",
		zap.String("kind", ep.cfg.Kind.String()),
		zap.String("target", ep.cfg.BindTarget()))

	err := ep.engine.Stop()
	ep.setState(StateIdle)
	return err
}

// IsRunning reports whether the endpoint is serving. Both conditions must
// hold: the state machine says Serving and the engine reports itself active.
// A serving endpoint whose engine has silently died reports not running.
func (ep *Endpoint) IsRunning() bool {
	ep.mu.Lock()
	serving := ep.state == StateServing
	ep.mu.Unlock()
	return serving && ep.engine.Active()
}

// State returns the current lifecycle state.
func (ep *Endpoint) State() State {
	ep.mu.Lock()
	defer ep.mu.Unlock()
	return ep.state
}

// Config returns the endpoint's bind parameters with defaults applied.
func (ep *Endpoint) Config() Config {
	return ep.cfg
}

// SlaveDatastore returns the per-slave datastore, or false if the id was not
// part of the endpoint's original device map.
func (ep *Endpoint) SlaveDatastore(id int) (*SlaveDatastore, bool) {
	if id < device.SlaveIDMin || id > device.SlaveIDMax {
		return nil, false
	}
	ds, ok := ep.slaves[uint8(id)]
	return ds, ok
}

// SlaveIDs returns the slave ids served by this endpoint.
func (ep *Endpoint) SlaveIDs() []int {
	ids := make([]int, 0, len(ep.slaves))
	for id := range ep.slaves {
		ids = append(ids, int(id))
	}
	return ids
}

func (ep *Endpoint) setState(state State) {
	ep.mu.Lock()
	ep.state = state
	ep.mu.Unlock()
}
