package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/wennersten/mbsim/internal/config"
	"github.com/wennersten/mbsim/internal/system"
)

func main() {
	var (
		configPath = flag.String("config", "configs/mbsim.yaml", "path to the config file")
		scenarioN  = flag.String("scenario", "", "scenario to load at startup")
		transportK = flag.String("transport", "", "transport kind: tcp or rtu")
		host       = flag.String("host", "", "TCP listen host")
		port       = flag.Int("port", 0, "TCP listen port")
		serialPort = flag.String("serial-port", "", "serial device for RTU")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Flags win over the config file.
	if *scenarioN != "" {
		cfg.Scenario.Autoload = *scenarioN
	}
	if *transportK != "" {
		cfg.Transport.Kind = *transportK
	}
	if *host != "" {
		cfg.Transport.Host = *host
	}
	if *port != 0 {
		cfg.Transport.Port = *port
	}
	if *serialPort != "" {
		cfg.Transport.SerialPort = *serialPort
	}

	logger, err := buildLogger(cfg.Log.Level)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("Config loaded successfully", zap.String("path", *configPath))

	lifecycle, err := system.NewLifecycleManager(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to create lifecycle manager", zap.Error(err))
	}

	if err := lifecycle.Start(); err != nil {
		logger.Fatal("Failed to start system", zap.Error(err))
	}

	logger.Info("Modbus simulator started successfully")

	// Graceful shutdown on signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	<-sigChan
	logger.Info("Shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := lifecycle.Shutdown(ctx); err != nil {
		logger.Error("Shutdown failed", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("Modbus simulator stopped successfully")
}

func buildLogger(level string) (*zap.Logger, error) {
	if level == "debug" {
		return zap.NewDevelopment()
	}

	cfg := zap.NewProductionConfig()
	lvl, err := zap.ParseAtomicLevel(level)
	if err == nil {
		cfg.Level = lvl
	}
	return cfg.Build()
}
