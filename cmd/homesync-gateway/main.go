// Command homesync-gateway runs the synchronization gateway with an
// in-memory backend.
//
// This command demonstrates a complete gateway deployment with:
//   - CLI argument parsing
//   - Configuration file support (YAML)
//   - WebSocket and SSE client endpoints
//   - mDNS discovery advertising
//   - Protocol event logging
//
// Usage:
//
//	homesync-gateway [flags]
//
// Flags:
//
//	-config string       Configuration file path
//	-listen string       HTTP listen address (default ":8090")
//	-log-level string    Log level: debug, info, warn, error (default "info")
//	-protocol-log string Protocol event log file path
//	-mdns                Advertise the gateway via mDNS (default true)
//
// Examples:
//
//	# Start with defaults and one seeded device
//	homesync-gateway -listen :8090
//
//	# Start from a config file with protocol capture
//	homesync-gateway -config /etc/homesync/gateway.yaml -protocol-log /var/log/homesync.hslog
package main

import (
	"context"
	"flag"
	"fmt"
	stdlog "log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/homesync-protocol/homesync-go/pkg/backend"
	"github.com/homesync-protocol/homesync-go/pkg/discovery"
	"github.com/homesync-protocol/homesync-go/pkg/gateway"
	"github.com/homesync-protocol/homesync-go/pkg/log"
	"github.com/homesync-protocol/homesync-go/pkg/transport"
)

// Config holds the gateway configuration.
type Config struct {
	Listen        string `yaml:"listen"`
	Name          string `yaml:"name"`
	PluginVersion string `yaml:"pluginVersion"`
	MinAppVersion string `yaml:"minAppVersion"`
	UseWs         bool   `yaml:"useWs"`
	SocketPath    string `yaml:"socketPath"`
	StreamPath    string `yaml:"streamPath"`
	MDNS          bool   `yaml:"mdns"`
	Interface     string `yaml:"interface"`
	LogLevel      string `yaml:"logLevel"`
	ProtocolLog   string `yaml:"protocolLog"`

	// Devices seeds the in-memory backend so clients can connect
	// right away.
	Devices []SeedDevice `yaml:"devices"`
}

// SeedDevice is one pre-provisioned device identity.
type SeedDevice struct {
	APIKey string `yaml:"apiKey"`
	Name   string `yaml:"name"`
}

var (
	config     Config
	configFile string
)

func init() {
	flag.StringVar(&configFile, "config", "", "Configuration file path")
	flag.StringVar(&config.Listen, "listen", ":8090", "HTTP listen address")
	flag.StringVar(&config.Name, "name", "homesync", "Advertised gateway name")
	flag.StringVar(&config.LogLevel, "log-level", "info", "Log level: debug, info, warn, error")
	flag.StringVar(&config.ProtocolLog, "protocol-log", "", "Protocol event log file path")
	flag.BoolVar(&config.MDNS, "mdns", true, "Advertise the gateway via mDNS")
}

func main() {
	flag.Parse()
	applyDefaults()

	if configFile != "" {
		if err := loadConfigFile(configFile, &config); err != nil {
			stdlog.Fatalf("Failed to load config file: %v", err)
		}
	}

	logger := setupLogging(config.LogLevel)

	logger.Info("homesync gateway starting",
		"listen", config.Listen,
		"plugin_version", config.PluginVersion,
		"use_ws", config.UseWs)

	protoLogger, cleanup, err := setupProtocolLog(logger)
	if err != nil {
		stdlog.Fatalf("Failed to open protocol log: %v", err)
	}
	defer cleanup()

	mem := seedBackend(logger)

	cfg := gateway.DefaultConfig()
	cfg.PluginVersion = config.PluginVersion
	cfg.MinAppVersion = config.MinAppVersion
	cfg.UseWs = config.UseWs
	cfg.Logger = logger
	cfg.ProtocolLogger = protoLogger

	engine, err := gateway.NewEngine(cfg, gateway.Deps{
		Devices:  mem,
		Users:    mem,
		Feed:     mem,
		Actions:  mem,
		Commands: backend.NopGateway{},
	})
	if err != nil {
		stdlog.Fatalf("Failed to create engine: %v", err)
	}

	mux := gateway.NewMultiplexer(engine)

	httpMux := http.NewServeMux()
	httpMux.Handle(config.SocketPath, transport.NewWSHandler(mux, logger))
	httpMux.Handle(config.StreamPath, transport.NewSSEHandler(engine, logger))

	server := &http.Server{
		Addr:              config.Listen,
		Handler:           httpMux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server failed", "error", err)
			cancel()
		}
	}()

	go func() {
		if err := mux.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Error("tick driver stopped", "error", err)
		}
	}()

	var advertiser *discovery.MDNSAdvertiser
	if config.MDNS {
		advertiser = discovery.NewMDNSAdvertiser(discovery.AdvertiserConfig{Interface: config.Interface})
		info := &discovery.Info{
			InstanceName:  config.Name,
			Port:          listenPort(config.Listen),
			PluginVersion: config.PluginVersion,
			SocketPath:    config.SocketPath,
			StreamPath:    config.StreamPath,
			UseWs:         config.UseWs,
		}
		if err := advertiser.Advertise(info); err != nil {
			logger.Warn("mdns advertisement failed", "error", err)
		} else {
			logger.Info("mdns advertisement active", "instance", config.Name)
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.Info("received signal, shutting down", "signal", sig.String())
	case <-ctx.Done():
	}

	if advertiser != nil {
		advertiser.Stop()
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
}

func applyDefaults() {
	if config.PluginVersion == "" {
		config.PluginVersion = "1.0.0"
	}
	if config.MinAppVersion == "" {
		config.MinAppVersion = "1.0.0"
	}
	if config.SocketPath == "" {
		config.SocketPath = "/ws"
	}
	if config.StreamPath == "" {
		config.StreamPath = "/events"
	}
	config.UseWs = true
}

func loadConfigFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

func setupLogging(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// setupProtocolLog builds the protocol logger: the CBOR file logger
// when a path is configured, combined with a console adapter at debug
// level.
func setupProtocolLog(logger *slog.Logger) (log.Logger, func(), error) {
	loggers := []log.Logger{log.NewSlogAdapter(logger)}
	cleanup := func() {}

	if config.ProtocolLog != "" {
		fl, err := log.NewFileLogger(config.ProtocolLog)
		if err != nil {
			return nil, nil, err
		}
		loggers = append(loggers, fl)
		cleanup = func() { _ = fl.Close() }
	}

	if len(loggers) == 1 {
		return loggers[0], cleanup, nil
	}
	return log.NewMultiLogger(loggers...), cleanup, nil
}

// seedBackend provisions the in-memory backend with the configured
// devices, a default user and a minimal generated config per device.
func seedBackend(logger *slog.Logger) *backend.Memory {
	mem := backend.NewMemory()
	mem.AddUser(&backend.User{ID: "1", Hash: "demo", Profile: "admin"})

	devices := config.Devices
	if len(devices) == 0 {
		devices = []SeedDevice{{APIKey: "demo-key", Name: "Demo Device"}}
	}
	for _, d := range devices {
		rec := mem.AddDevice(d.APIKey)
		rec.SetGeneratedConfig(&backend.ConfigSnapshot{
			FormatVersion: "1.0",
			Version:       time.Now().Unix(),
			CmdInfo:       map[string]any{},
			ScInfo:        map[string]any{},
			ObjInfo:       map[string]any{},
		})
		logger.Info("seeded device", "name", d.Name, "api_key", d.APIKey)
	}
	return mem
}

// listenPort extracts the numeric port from a listen address.
func listenPort(addr string) int {
	port := 0
	for i := len(addr) - 1; i >= 0; i-- {
		if addr[i] == ':' {
			fmt.Sscanf(addr[i+1:], "%d", &port)
			break
		}
	}
	return port
}
