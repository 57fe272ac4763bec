package system

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wennersten/mbsim/internal/api/rest"
	"github.com/wennersten/mbsim/internal/api/websocket"
	"github.com/wennersten/mbsim/internal/config"
	"github.com/wennersten/mbsim/internal/device"
	"github.com/wennersten/mbsim/internal/interfaces"
	"github.com/wennersten/mbsim/internal/pattern"
	"github.com/wennersten/mbsim/internal/registers"
	"github.com/wennersten/mbsim/internal/scenario"
	"github.com/wennersten/mbsim/internal/transport"
)

// MainTransportName is the endpoint the lifecycle manager builds from the
// config file at startup.
const MainTransportName = "main"

type patternKey struct {
	deviceID int
	address  uint16
}

type LifecycleManager struct {
	config     *config.Config
	registry   *device.Registry
	supervisor *transport.Supervisor
	scenarios  *scenario.Store
	wsHub      *websocket.Hub
	logger     *zap.Logger

	restServer *rest.Server

	stateMu      sync.RWMutex
	currentState SystemState
	scenarioName string

	runnersMu sync.Mutex
	runners   map[patternKey]*pattern.Runner

	shutdownChan chan struct{}
	shutdownOnce sync.Once
}

func NewLifecycleManager(cfg *config.Config, logger *zap.Logger) (*LifecycleManager, error) {
	store, err := scenario.NewStore(cfg.Scenario.Dir, logger)
	if err != nil {
		return nil, fmt.Errorf("scenario store: %w", err)
	}

	return &LifecycleManager{
		config:       cfg,
		registry:     device.NewRegistry(logger),
		supervisor:   transport.NewSupervisor(logger),
		scenarios:    store,
		wsHub:        websocket.NewHub(logger),
		logger:       logger,
		currentState: StateInitializing,
		runners:      make(map[patternKey]*pattern.Runner),
		shutdownChan: make(chan struct{}),
	}, nil
}

// Start brings up the whole simulator: devices, the main transport, the
// WebSocket hub and the REST API.
func (lm *LifecycleManager) Start() error {
	lm.logger.Info("Starting Modbus simulator")

	if err := lm.populateDevices(); err != nil {
		lm.setError(err)
		return err
	}

	if _, err := lm.supervisor.AddTransport(MainTransportName, lm.config.Transport.TransportSpec(), lm.registry.DeviceMap()); err != nil {
		lm.setError(err)
		return err
	}

	if err := lm.supervisor.StartAll(context.Background()); err != nil {
		lm.setError(fmt.Errorf("failed to start transports: %w", err))
		return fmt.Errorf("failed to start transports: %w", err)
	}

	go lm.wsHub.Run()

	if err := lm.startRESTServer(); err != nil {
		lm.setError(fmt.Errorf("failed to start REST API: %w", err))
		return err
	}

	lm.setState(StateRunning)
	lm.broadcastStatus()

	lm.logger.Info("System started successfully",
		zap.Int("http_port", lm.config.Server.HTTPPort),
		zap.Int("device_count", lm.registry.Len()),
		zap.Strings("transports", lm.supervisor.ListTransports()))

	return nil
}

// populateDevices loads the autoload scenario if one is configured,
// otherwise seeds the default device.
func (lm *LifecycleManager) populateDevices() error {
	if name := lm.config.Scenario.Autoload; name != "" {
		return lm.LoadScenario(name)
	}
	return lm.seedDefaultDevice()
}

func (lm *LifecycleManager) seedDefaultDevice() error {
	_, err := lm.registry.AddDevice(device.Descriptor{
		ID:   1,
		Name: "Default Device",
		Registers: []registers.Entry{
			{Address: 40001, Value: 123},
			{Address: 40002, Value: 456},
			{Address: 40003, Value: 789},
		},
	})
	if err != nil {
		return fmt.Errorf("seed default device: %w", err)
	}

	lm.logger.Info("Seeded default device", zap.Int("device_id", 1))
	return nil
}

// Shutdown gracefully shuts down the system
func (lm *LifecycleManager) Shutdown(ctx context.Context) error {
	var shutdownErr error

	lm.shutdownOnce.Do(func() {
		lm.logger.Info("Shutting down system")

		lm.setState(StateStopping)
		lm.broadcastStatus()

		shutdownErr = lm.gracefulShutdown(ctx)

		lm.setState(StateStopped)

		close(lm.shutdownChan)
	})

	return shutdownErr
}

func (lm *LifecycleManager) gracefulShutdown(ctx context.Context) error {
	lm.stopAllPatterns()

	var wg sync.WaitGroup
	errChan := make(chan error, 2)

	// 1. Stop all transport endpoints. Endpoint stop failures are logged
	// by the supervisor and never propagate.
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := lm.supervisor.StopAll(ctx); err != nil {
			errChan <- fmt.Errorf("transport stop failed: %w", err)
		}
	}()

	// 2. REST API Server graceful shutdown
	if lm.restServer != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()

			if err := lm.restServer.Shutdown(shutdownCtx); err != nil {
				errChan <- fmt.Errorf("rest api shutdown failed: %w", err)
			}
		}()
	}

	// Wait for all shutdowns
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		lm.logger.Info("Graceful shutdown completed")
		return nil
	case <-ctx.Done():
		lm.logger.Warn("Shutdown timeout, forcing stop")
		return fmt.Errorf("shutdown timeout exceeded")
	case err := <-errChan:
		return err
	}
}

func (lm *LifecycleManager) startRESTServer() error {
	lm.restServer = rest.NewServer(lm.config, lm, lm.logger, lm.wsHub)
	return lm.restServer.Start()
}

// LoadScenario replaces the registry contents with the named scenario.
func (lm *LifecycleManager) LoadScenario(name string) error {
	sc, err := lm.scenarios.Load(name)
	if err != nil {
		return err
	}

	lm.stopAllPatterns()

	// Clear out the current device set before applying.
	for _, dev := range lm.registry.ListDevices() {
		if err := lm.registry.RemoveDevice(dev.ID); err != nil {
			return err
		}
	}

	if err := sc.Apply(lm.registry); err != nil {
		return err
	}

	lm.stateMu.Lock()
	lm.scenarioName = sc.Name
	lm.stateMu.Unlock()

	lm.wsHub.Broadcast(websocket.NewScenarioLoadedMessage(sc.Name, lm.registry.Len()))
	lm.logger.Info("Scenario loaded",
		zap.String("scenario", sc.Name),
		zap.Int("device_count", lm.registry.Len()))

	return nil
}

// SaveScenario writes the current registry contents under the given name.
func (lm *LifecycleManager) SaveScenario(name string) error {
	lm.stateMu.RLock()
	current := lm.scenarioName
	lm.stateMu.RUnlock()
	if current == "" {
		current = name
	}

	sc := scenario.FromRegistry(lm.registry, current, "")
	if err := lm.scenarios.Save(sc, name); err != nil {
		return err
	}

	lm.logger.Info("Scenario saved", zap.String("scenario", name))
	return nil
}

// StartPattern attaches a pattern runner to a device register. An existing
// runner on the same register is replaced.
func (lm *LifecycleManager) StartPattern(deviceID int, address uint16, spec pattern.Spec) error {
	dev, err := lm.registry.GetDevice(deviceID)
	if err != nil {
		return err
	}

	p, err := spec.Build()
	if err != nil {
		return err
	}

	runner, err := pattern.NewRunner(dev, address, p, spec.TickInterval(), lm.logger)
	if err != nil {
		return err
	}
	runner.OnChange(func(deviceID int, address, value uint16) {
		lm.wsHub.Broadcast(websocket.NewRegisterChangedMessage(deviceID, address, value))
	})

	key := patternKey{deviceID: deviceID, address: address}

	lm.runnersMu.Lock()
	if old, ok := lm.runners[key]; ok {
		old.Stop()
	}
	lm.runners[key] = runner
	lm.runnersMu.Unlock()

	runner.Start()
	return nil
}

// StopPattern stops and removes the runner on a device register.
func (lm *LifecycleManager) StopPattern(deviceID int, address uint16) error {
	key := patternKey{deviceID: deviceID, address: address}

	lm.runnersMu.Lock()
	runner, ok := lm.runners[key]
	if ok {
		delete(lm.runners, key)
	}
	lm.runnersMu.Unlock()

	if !ok {
		return fmt.Errorf("no pattern on device %d register %d", deviceID, address)
	}

	runner.Stop()
	return nil
}

func (lm *LifecycleManager) stopAllPatterns() {
	lm.runnersMu.Lock()
	runners := make([]*pattern.Runner, 0, len(lm.runners))
	for _, r := range lm.runners {
		runners = append(runners, r)
	}
	lm.runners = make(map[patternKey]*pattern.Runner)
	lm.runnersMu.Unlock()

	for _, r := range runners {
		r.Stop()
	}
}

func (lm *LifecycleManager) setState(state SystemState) {
	lm.stateMu.Lock()
	defer lm.stateMu.Unlock()

	if err := ValidateTransition(lm.currentState, state); err != nil {
		lm.logger.Warn("Forcing state transition", zap.Error(err))
	}
	lm.currentState = state
}

func (lm *LifecycleManager) setError(err error) {
	lm.logger.Error("System entered error state", zap.Error(err))

	lm.stateMu.Lock()
	defer lm.stateMu.Unlock()
	lm.currentState = StateError
}

func (lm *LifecycleManager) broadcastStatus() {
	lm.wsHub.Broadcast(websocket.NewMessage(websocket.MessageTypeSystemStatus, lm.GetCurrentStatus()))
}

// GetCurrentStatus returns current system status (Interface implementation)
func (lm *LifecycleManager) GetCurrentStatus() interfaces.SystemStatus {
	lm.stateMu.RLock()
	state := lm.currentState
	scenarioName := lm.scenarioName
	lm.stateMu.RUnlock()

	running := 0
	for _, name := range lm.supervisor.ListTransports() {
		if ep, err := lm.supervisor.GetTransport(name); err == nil && ep.IsRunning() {
			running++
		}
	}

	lm.runnersMu.Lock()
	active := len(lm.runners)
	lm.runnersMu.Unlock()

	return interfaces.SystemStatus{
		State:             state.String(),
		Scenario:          scenarioName,
		DeviceCount:       lm.registry.Len(),
		RunningTransports: running,
		ActivePatterns:    active,
	}
}

// Registry returns the device registry
func (lm *LifecycleManager) Registry() *device.Registry {
	return lm.registry
}

// Supervisor returns the transport supervisor
func (lm *LifecycleManager) Supervisor() *transport.Supervisor {
	return lm.supervisor
}

// Scenarios returns the scenario store
func (lm *LifecycleManager) Scenarios() *scenario.Store {
	return lm.scenarios
}

// Config returns the configuration
func (lm *LifecycleManager) Config() *config.Config {
	return lm.config
}

// Hub returns the WebSocket hub
func (lm *LifecycleManager) Hub() *websocket.Hub {
	return lm.wsHub
}
