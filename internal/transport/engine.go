package transport

import "go.uber.org/zap"

// Engine is the external protocol engine behind an endpoint. It owns the
// Modbus wire format; the endpoint only drives its lifecycle. Start binds
// the transport resource and begins serving in the background, Stop shuts
// the engine down, Active reports whether it is still serving.
type Engine interface {
	Start() error
	Stop() error
	Active() bool
}

// EngineFactory builds the engine for one endpoint from its bind parameters
// and per-slave datastores. Tests substitute a fake here.
type EngineFactory func(cfg Config, slaves map[uint8]*SlaveDatastore, logger *zap.Logger) Engine
