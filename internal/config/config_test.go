package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/wennersten/mbsim/internal/transport"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.HTTPPort != 8080 {
		t.Errorf("HTTPPort = %d, want 8080", cfg.Server.HTTPPort)
	}
	if cfg.Transport.Kind != "tcp" || cfg.Transport.Port != 1502 {
		t.Errorf("transport defaults = %q/%d, want tcp/1502", cfg.Transport.Kind, cfg.Transport.Port)
	}
	if cfg.Transport.Timeout != 100*time.Millisecond {
		t.Errorf("Timeout = %s, want 100ms", cfg.Transport.Timeout)
	}
	if cfg.Scenario.Dir != "scenarios" {
		t.Errorf("Scenario.Dir = %q, want scenarios", cfg.Scenario.Dir)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want info", cfg.Log.Level)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mbsim.yml")
	data := `
server:
  http_port: 9090
transport:
  kind: rtu
  serial_port: /dev/ttyS3
  baud_rate: 19200
scenario:
  autoload: factory
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.HTTPPort != 9090 {
		t.Errorf("HTTPPort = %d, want 9090", cfg.Server.HTTPPort)
	}
	if cfg.Transport.Kind != "rtu" || cfg.Transport.SerialPort != "/dev/ttyS3" {
		t.Errorf("transport = %q/%q, want rtu//dev/ttyS3", cfg.Transport.Kind, cfg.Transport.SerialPort)
	}
	if cfg.Transport.BaudRate != 19200 {
		t.Errorf("BaudRate = %d, want 19200", cfg.Transport.BaudRate)
	}
	// Untouched keys keep their defaults.
	if cfg.Transport.Parity != "N" {
		t.Errorf("Parity = %q, want N", cfg.Transport.Parity)
	}
	if cfg.Scenario.Autoload != "factory" {
		t.Errorf("Autoload = %q, want factory", cfg.Scenario.Autoload)
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yml")
	if err := os.WriteFile(path, []byte("server: [not a map"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("expected error for malformed YAML")
	}
}

func TestTransportSpec(t *testing.T) {
	cfg := Default()
	spec := cfg.Transport.TransportSpec()

	if spec.Kind != transport.KindTCP {
		t.Errorf("Kind = %q, want %q", spec.Kind, transport.KindTCP)
	}
	if spec.Host != "localhost" || spec.Port != 1502 {
		t.Errorf("bind = %s:%d, want localhost:1502", spec.Host, spec.Port)
	}
}
