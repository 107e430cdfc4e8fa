package gateway

import (
	"errors"
	"log/slog"
	"time"

	"github.com/homesync-protocol/homesync-go/pkg/backend"
	"github.com/homesync-protocol/homesync-go/pkg/log"
)

// Gateway errors.
var (
	ErrInvalidConfig  = errors.New("invalid configuration")
	ErrSessionClosed  = errors.New("session closed")
	ErrDeviceNotFound = errors.New("device not found")
	ErrEmptyConfig    = errors.New("device has no generated config")
)

// Config configures the synchronization core. The zero value is not
// usable; start from DefaultConfig.
type Config struct {
	// PluginVersion is the version of this gateway host, compared
	// against the client's pluginRequire during the handshake.
	PluginVersion string

	// MinAppVersion is the minimum client app version accepted by
	// the handshake.
	MinAppVersion string

	// AuthGraceWindow is how long an unauthenticated connection may
	// stay open before the reaper closes it.
	AuthGraceWindow time.Duration

	// TickInterval is the pacing of the multiplexer's tick driver.
	TickInterval time.Duration

	// PollInterval is the pacing of a polling session's loop.
	PollInterval time.Duration

	// HeartbeatIdleCycles is the number of consecutive idle polling
	// iterations (no events sent) before a heartbeat is emitted.
	HeartbeatIdleCycles int

	// UseWs advertises the preferred transport to clients in the
	// WELCOME payload.
	UseWs bool

	// Logger is the optional logger for debug output.
	// If nil, logging is disabled.
	Logger *slog.Logger

	// ProtocolLogger receives protocol events (envelopes, state
	// changes, errors). If nil, protocol capture is disabled.
	ProtocolLogger log.Logger
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		AuthGraceWindow:     3 * time.Second,
		TickInterval:        500 * time.Millisecond,
		PollInterval:        1 * time.Second,
		HeartbeatIdleCycles: 5,
	}
}

// Validate checks if the config is valid.
func (c *Config) Validate() error {
	if c.PluginVersion == "" || c.MinAppVersion == "" {
		return ErrInvalidConfig
	}
	if c.AuthGraceWindow <= 0 || c.TickInterval <= 0 || c.PollInterval <= 0 {
		return ErrInvalidConfig
	}
	if c.HeartbeatIdleCycles <= 0 {
		return ErrInvalidConfig
	}
	return nil
}

// logger returns the configured logger, or a disabled one.
func (c *Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.New(slog.DiscardHandler)
}

// protocolLogger returns the configured protocol logger, or a no-op.
func (c *Config) protocolLogger() log.Logger {
	if c.ProtocolLogger != nil {
		return c.ProtocolLogger
	}
	return log.NoopLogger{}
}

// Deps bundles the automation-backend collaborators the core consumes.
type Deps struct {
	Devices  backend.DeviceDirectory
	Users    backend.UserDirectory
	Feed     backend.ChangeFeed
	Actions  backend.ActionQueue
	Commands backend.CommandGateway
}

// Validate checks that all collaborators are present.
func (d *Deps) Validate() error {
	if d.Devices == nil || d.Users == nil || d.Feed == nil || d.Actions == nil || d.Commands == nil {
		return ErrInvalidConfig
	}
	return nil
}
