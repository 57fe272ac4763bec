package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"

	"github.com/wennersten/mbsim/internal/transport"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Transport TransportConfig `mapstructure:"transport"`
	Scenario  ScenarioConfig  `mapstructure:"scenario"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	HTTPPort        int           `mapstructure:"http_port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type TransportConfig struct {
	Kind       string        `mapstructure:"kind"`
	Host       string        `mapstructure:"host"`
	Port       int           `mapstructure:"port"`
	SerialPort string        `mapstructure:"serial_port"`
	BaudRate   int           `mapstructure:"baud_rate"`
	Parity     string        `mapstructure:"parity"`
	StopBits   int           `mapstructure:"stop_bits"`
	DataBits   int           `mapstructure:"data_bits"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

type ScenarioConfig struct {
	Dir      string `mapstructure:"dir"`
	Autoload string `mapstructure:"autoload"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads the YAML file at path on top of built-in defaults. A missing
// file is not an error; the defaults alone make a usable simulator.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetDefault("server.http_port", 8080)
	v.SetDefault("server.shutdown_timeout", "30s")

	v.SetDefault("transport.kind", "tcp")
	v.SetDefault("transport.host", "localhost")
	v.SetDefault("transport.port", 1502)
	v.SetDefault("transport.serial_port", "/dev/ttyUSB0")
	v.SetDefault("transport.baud_rate", 9600)
	v.SetDefault("transport.parity", "N")
	v.SetDefault("transport.stop_bits", 1)
	v.SetDefault("transport.data_bits", 8)
	v.SetDefault("transport.timeout", "100ms")

	v.SetDefault("scenario.dir", "scenarios")
	v.SetDefault("scenario.autoload", "")

	v.SetDefault("log.level", "info")

	v.AutomaticEnv()
	v.SetEnvPrefix("MBSIM")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:        8080,
			ShutdownTimeout: 30 * time.Second,
		},
		Transport: TransportConfig{
			Kind:       "tcp",
			Host:       "localhost",
			Port:       1502,
			SerialPort: "/dev/ttyUSB0",
			BaudRate:   9600,
			Parity:     "N",
			StopBits:   1,
			DataBits:   8,
			Timeout:    100 * time.Millisecond,
		},
		Scenario: ScenarioConfig{
			Dir: "scenarios",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// TransportSpec translates the file-level transport section into the
// endpoint configuration the supervisor consumes.
func (t *TransportConfig) TransportSpec() transport.Config {
	return transport.Config{
		Kind:       transport.Kind(t.Kind),
		Host:       t.Host,
		Port:       t.Port,
		SerialPort: t.SerialPort,
		BaudRate:   t.BaudRate,
		Parity:     t.Parity,
		StopBits:   t.StopBits,
		DataBits:   t.DataBits,
		Timeout:    t.Timeout,
	}
}
