package interfaces

import (
	"context"

	"github.com/wennersten/mbsim/internal/config"
	"github.com/wennersten/mbsim/internal/device"
	"github.com/wennersten/mbsim/internal/pattern"
	"github.com/wennersten/mbsim/internal/scenario"
	"github.com/wennersten/mbsim/internal/transport"
)

// SystemStatus represents the current system state
type SystemStatus struct {
	State             string `json:"state"`
	Scenario          string `json:"scenario,omitempty"`
	DeviceCount       int    `json:"device_count"`
	RunningTransports int    `json:"running_transports"`
	ActivePatterns    int    `json:"active_patterns"`
}

type LifecycleManager interface {
	Config() *config.Config
	Registry() *device.Registry
	Supervisor() *transport.Supervisor
	Scenarios() *scenario.Store
	LoadScenario(name string) error
	SaveScenario(name string) error
	StartPattern(deviceID int, address uint16, spec pattern.Spec) error
	StopPattern(deviceID int, address uint16) error
	GetCurrentStatus() SystemStatus
	Shutdown(ctx context.Context) error
}
