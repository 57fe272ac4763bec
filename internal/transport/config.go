package transport

import (
	"fmt"
	"time"
)

// Kind selects the transport a Modbus endpoint binds. The set is closed:
// the simulator speaks TCP or serial RTU, nothing else.
type Kind string

const (
	KindTCP Kind = "tcp"
	KindRTU Kind = "rtu"
)

// Valid reports whether the kind is one of the supported transports.
func (k Kind) Valid() bool {
	return k == KindTCP || k == KindRTU
}

func (k Kind) String() string {
	return string(k)
}

// Config holds the bind parameters for one endpoint. TCP endpoints use Host
// and Port; RTU endpoints use SerialPort and the serial line parameters.
type Config struct {
	Kind Kind `json:"kind" mapstructure:"kind"`

	Host string `json:"host,omitempty" mapstructure:"host"`
	Port int    `json:"port,omitempty" mapstructure:"port"`

	SerialPort string        `json:"serial_port,omitempty" mapstructure:"serial_port"`
	BaudRate   int           `json:"baudrate,omitempty" mapstructure:"baudrate"`
	Parity     string        `json:"parity,omitempty" mapstructure:"parity"`
	StopBits   int           `json:"stopbits,omitempty" mapstructure:"stopbits"`
	DataBits   int           `json:"bytesize,omitempty" mapstructure:"bytesize"`
	Timeout    time.Duration `json:"timeout,omitempty" mapstructure:"timeout"`
}

// withDefaults fills in the protocol-level defaults for unset fields.
func (c Config) withDefaults() Config {
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = 502
	}
	if c.SerialPort == "" {
		c.SerialPort = "/dev/ttyUSB0"
	}
	if c.BaudRate == 0 {
		c.BaudRate = 9600
	}
	if c.Parity == "" {
		c.Parity = "N"
	}
	if c.StopBits == 0 {
		c.StopBits = 1
	}
	if c.DataBits == 0 {
		c.DataBits = 8
	}
	if c.Timeout == 0 {
		c.Timeout = 100 * time.Millisecond
	}
	return c
}

// BindTarget returns the resource the endpoint binds: host:port for TCP, the
// serial device path for RTU.
func (c Config) BindTarget() string {
	if c.Kind == KindRTU {
		return c.SerialPort
	}
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
