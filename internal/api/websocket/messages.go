package websocket

import "time"

// MessageType defines the type of WebSocket message
type MessageType string

const (
	// Register and device messages
	MessageTypeRegisterChanged MessageType = "register_changed"
	MessageTypeDeviceAdded     MessageType = "device_added"
	MessageTypeDeviceRemoved   MessageType = "device_removed"

	// Transport lifecycle messages
	MessageTypeTransportState MessageType = "transport_state"

	// Scenario messages
	MessageTypeScenarioLoaded MessageType = "scenario_loaded"

	// System messages
	MessageTypeSystemStatus MessageType = "system_status"
)

// Message represents a WebSocket message
type Message struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// RegisterChangeData represents a single register update
type RegisterChangeData struct {
	DeviceID int    `json:"device_id"`
	Address  uint16 `json:"address"`
	Value    uint16 `json:"value"`
	Label    string `json:"label,omitempty"`
}

// DeviceEventData represents device add/remove events
type DeviceEventData struct {
	DeviceID int    `json:"device_id"`
	Name     string `json:"name,omitempty"`
}

// TransportStateData represents a transport endpoint state change
type TransportStateData struct {
	Name  string `json:"name"`
	Kind  string `json:"kind"`
	State string `json:"state"`
}

// ScenarioData represents a scenario load event
type ScenarioData struct {
	Name        string `json:"name"`
	DeviceCount int    `json:"device_count"`
}

// NewMessage creates a new message with current timestamp
func NewMessage(msgType MessageType, data interface{}) Message {
	return Message{
		Type:      msgType,
		Timestamp: time.Now(),
		Data:      data,
	}
}

// Helper functions for creating specific message types

func NewRegisterChangedMessage(deviceID int, address, value uint16) Message {
	return NewMessage(MessageTypeRegisterChanged, RegisterChangeData{
		DeviceID: deviceID,
		Address:  address,
		Value:    value,
	})
}

func NewDeviceMessage(msgType MessageType, deviceID int, name string) Message {
	return NewMessage(msgType, DeviceEventData{
		DeviceID: deviceID,
		Name:     name,
	})
}

func NewTransportStateMessage(name, kind, state string) Message {
	return NewMessage(MessageTypeTransportState, TransportStateData{
		Name:  name,
		Kind:  kind,
		State: state,
	})
}

func NewScenarioLoadedMessage(name string, deviceCount int) Message {
	return NewMessage(MessageTypeScenarioLoaded, ScenarioData{
		Name:        name,
		DeviceCount: deviceCount,
	})
}
