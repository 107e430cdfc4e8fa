package gateway

import (
	"log/slog"
	"time"

	"github.com/homesync-protocol/homesync-go/pkg/backend"
	"github.com/homesync-protocol/homesync-go/pkg/log"
)

// Engine is the shared synchronization core behind both transport
// adapters. It owns the connection registry and implements the
// handshake and the per-tick phases; adapters decide pacing, iteration
// and framing.
type Engine struct {
	cfg      Config
	deps     Deps
	registry *Registry

	logger   *slog.Logger
	protocol log.Logger

	handlers map[string]handlerFunc
}

// NewEngine creates an engine from the given configuration and
// backend collaborators.
func NewEngine(cfg Config, deps Deps) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := deps.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		cfg:      cfg,
		deps:     deps,
		registry: NewRegistry(),
		logger:   cfg.logger(),
		protocol: cfg.protocolLogger(),
	}
	e.handlers = e.buildHandlers()
	return e, nil
}

// Registry returns the engine's connection registry.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// Disconnect tears a connection down on transport close or error. If
// the connection still owns the device record's session, the record is
// stamped disconnected; a superseded connection leaves the newer
// session's stamp untouched.
func (e *Engine) Disconnect(c *Conn, transport log.Transport, reason string) {
	if c.State() == StateAuthenticated {
		rec, err := e.deps.Devices.LookupByIdentity(c.Identity())
		if err != nil {
			e.logError(c, transport, err, "device lookup")
		} else if rec != nil && rec.Configuration(backend.ConfSessionID, "") == c.SessionID() {
			rec.SetConfiguration(backend.ConfConnected, "0")
			rec.SetConfiguration(backend.ConfAppState, backend.AppStateBackground)
			if err := rec.Save(); err != nil {
				e.logError(c, transport, err, "disconnect stamp")
			}
		}
	}
	e.drop(c, transport, reason)
}

// logStateChange records a connection or session state transition in
// the protocol log.
func (e *Engine) logStateChange(c *Conn, transport log.Transport, entity log.StateEntity, oldState, newState, reason string) {
	e.protocol.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: c.ID(),
		Transport:    transport,
		Category:     log.CategoryState,
		Identity:     c.Identity(),
		RemoteAddr:   c.RemoteAddr(),
		StateChange: &log.StateChangeEvent{
			Entity:   entity,
			OldState: oldState,
			NewState: newState,
			Reason:   reason,
		},
	})
}

// logEnvelope records an envelope crossing the wire.
func (e *Engine) logEnvelope(c *Conn, transport log.Transport, dir log.Direction, msgType string, size int) {
	e.protocol.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: c.ID(),
		Direction:    dir,
		Transport:    transport,
		Category:     log.CategoryEnvelope,
		Identity:     c.Identity(),
		RemoteAddr:   c.RemoteAddr(),
		Envelope: &log.EnvelopeEvent{
			Type: msgType,
			Size: size,
		},
	})
}

// logError records a protocol-level error.
func (e *Engine) logError(c *Conn, transport log.Transport, err error, context string) {
	e.protocol.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: c.ID(),
		Transport:    transport,
		Category:     log.CategoryError,
		Identity:     c.Identity(),
		RemoteAddr:   c.RemoteAddr(),
		Error: &log.ErrorEventData{
			Message: err.Error(),
			Context: context,
		},
	})
}
