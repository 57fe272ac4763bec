package transport

import (
	"context"
	"fmt"
	"sync"

	"github.com/wennersten/mbsim/internal/device"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Supervisor owns a named collection of endpoints and coordinates their
// concurrent lifecycle.
type Supervisor struct {
	mu        sync.Mutex
	endpoints map[string]*Endpoint
	order     []string
	running   bool

	factory EngineFactory
	logger  *zap.Logger
}

// NewSupervisor creates an empty supervisor whose endpoints are served by
// the production Modbus engine.
func NewSupervisor(logger *zap.Logger) *Supervisor {
	return NewSupervisorWithFactory(NewModbusEngine, logger)
}

// NewSupervisorWithFactory creates a supervisor with a custom engine
// factory for its endpoints.
func NewSupervisorWithFactory(factory EngineFactory, logger *zap.Logger) *Supervisor {
	return &Supervisor{
		endpoints: make(map[string]*Endpoint),
		factory:   factory,
		logger:    logger,
	}
}

// AddTransport constructs a new endpoint bound to a snapshot of the given
// device map and registers it under name.
func (s *Supervisor) AddTransport(name string, cfg Config, devices map[int]*device.Device) (*Endpoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.endpoints[name]; exists {
		return nil, &DuplicateTransportError{Name: name}
	}

	ep := NewEndpointWithFactory(cfg, devices, s.factory,
		s.logger.With(zap.String("transport", name)))
	s.endpoints[name] = ep
	s.order = append(s.order, name)

	s.logger.Info("Transport added",
		zap.String("name", name),
		zap.String("kind", cfg.Kind.String()),
		zap.Int("devices", len(devices)))

	return ep, nil
}

// RemoveTransport drops an endpoint from the supervisor. If the endpoint is
// serving, its stop is scheduled fire-and-forget: removal returns before the
// stop completes, matching the behavior operators rely on for quick
// reconfiguration. Stop failures are logged, never surfaced.
func (s *Supervisor) RemoveTransport(name string) error {
	s.mu.Lock()
	ep, exists := s.endpoints[name]
	if !exists {
		s.mu.Unlock()
		return &UnknownTransportError{Name: name}
	}
	delete(s.endpoints, name)
	for i, existing := range s.order {
		if existing == name {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.mu.Unlock()

	if ep.IsRunning() {
		go func() {
			if err := ep.Stop(); err != nil {
				s.logger.Warn("Failed to stop removed transport",
					zap.String("name", name), zap.Error(err))
			}
		}()
	}

	s.logger.Info("Transport removed", zap.String("name", name))
	return nil
}

// GetTransport returns the endpoint registered under name.
func (s *Supervisor) GetTransport(name string) (*Endpoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ep, exists := s.endpoints[name]
	if !exists {
		return nil, &UnknownTransportError{Name: name}
	}
	return ep, nil
}

// ListTransports returns transport names in registration order.
func (s *Supervisor) ListTransports() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, len(s.order))
	copy(names, s.order)
	return names
}

// StartAll launches every endpoint's start concurrently and waits for all of
// them to either serve or fail. One endpoint's bind failure never prevents
// the others from starting; failures are collected and returned aggregated,
// and the supervisor flag is cleared when any endpoint failed. Calling
// StartAll while already running logs a warning and does nothing.
func (s *Supervisor) StartAll(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.logger.Warn("Transport supervisor is already running")
		return nil
	}
	s.running = true
	eps := make([]*Endpoint, 0, len(s.order))
	for _, name := range s.order {
		eps = append(eps, s.endpoints[name])
	}
	s.mu.Unlock()

	s.logger.Info("Starting transport servers", zap.Int("count", len(eps)))

	var wg sync.WaitGroup
	errs := make([]error, len(eps))
	for i, ep := range eps {
		wg.Add(1)
		go func(i int, ep *Endpoint) {
			defer wg.Done()
			errs[i] = ep.Start()
		}(i, ep)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		s.setRunning(false)
		return ctx.Err()
	}

	if combined := multierr.Combine(errs...); combined != nil {
		s.setRunning(false)
		s.logger.Error("Some transport servers failed to start", zap.Error(combined))
		return fmt.Errorf("start transports: %w", combined)
	}
	return nil
}

// StopAll requests every endpoint's stop concurrently and waits for
// completion. Shutdown is best-effort: individual failures are logged, never
// propagated. A call while not running is a no-op.
func (s *Supervisor) StopAll(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	eps := make(map[string]*Endpoint, len(s.endpoints))
	for name, ep := range s.endpoints {
		eps[name] = ep
	}
	s.mu.Unlock()

	s.logger.Info("Stopping all transport servers", zap.Int("count", len(eps)))

	var wg sync.WaitGroup
	for name, ep := range eps {
		wg.Add(1)
		go func(name string, ep *Endpoint) {
			defer wg.Done()
			if err := ep.Stop(); err != nil {
				s.logger.Warn("Transport stop failed",
					zap.String("name", name), zap.Error(err))
			}
		}(name, ep)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsRunning reports whether any managed endpoint is serving. A supervisor
// with a mix of serving and failed endpoints is still running.
func (s *Supervisor) IsRunning() bool {
	s.mu.Lock()
	eps := make([]*Endpoint, 0, len(s.endpoints))
	for _, ep := range s.endpoints {
		eps = append(eps, ep)
	}
	s.mu.Unlock()

	for _, ep := range eps {
		if ep.IsRunning() {
			return true
		}
	}
	return false
}

func (s *Supervisor) setRunning(running bool) {
	s.mu.Lock()
	s.running = running
	s.mu.Unlock()
}
