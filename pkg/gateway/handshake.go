package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/homesync-protocol/homesync-go/pkg/backend"
	"github.com/homesync-protocol/homesync-go/pkg/log"
	"github.com/homesync-protocol/homesync-go/pkg/version"
	"github.com/homesync-protocol/homesync-go/pkg/wire"
)

// Authenticate runs the handshake on the raw first message of an
// unauthenticated connection. A malformed message closes the connection
// without a reply; credential and config failures send a typed
// rejection envelope before closing. On success the connection joins
// the authenticated population and receives the WELCOME envelope.
func (e *Engine) Authenticate(ctx context.Context, c *Conn, transport log.Transport, raw []byte) error {
	msg, err := wire.ParseAuthMessage(raw)
	if err != nil {
		e.logError(c, transport, err, "handshake")
		e.drop(c, transport, "malformed auth message")
		return err
	}
	return e.AuthenticateCredentials(ctx, c, transport, msg)
}

// AuthenticateCredentials runs the handshake on already-parsed
// credentials. The polling transport uses this directly since its
// credentials arrive as request parameters rather than a first frame.
func (e *Engine) AuthenticateCredentials(ctx context.Context, c *Conn, transport log.Transport, msg *wire.AuthMessage) error {
	rec, err := e.deps.Devices.LookupByIdentity(msg.APIKey)
	if err != nil {
		e.logError(c, transport, err, "device lookup")
		e.drop(c, transport, "backend unavailable")
		return err
	}
	if rec == nil {
		return e.reject(c, transport, wire.NewEnvelope(wire.TypeBadKey, nil), "unknown identity")
	}

	// The snapshot read precedes record mutation: a config generated
	// between here and WELCOME is picked up by the next negotiation.
	snap := rec.GeneratedConfig()

	registered := rec.Configuration(backend.ConfDeviceID, "")
	if registered == "" {
		rec.SetConfiguration(backend.ConfDeviceID, msg.DeviceID)
		rec.SetConfiguration(backend.ConfDeviceName, msg.DeviceName)
	} else if registered != msg.DeviceID {
		return e.reject(c, transport, wire.NewEnvelope(wire.TypeBadDevice, nil), "device id mismatch")
	}
	rec.SetConfiguration(backend.ConfToken, msg.Token)
	if err := rec.Save(); err != nil {
		e.logError(c, transport, err, "device save")
		e.drop(c, transport, "backend unavailable")
		return err
	}

	if version.Older(msg.AppVersion, e.cfg.MinAppVersion) {
		payload := wire.PluginInfo{Version: e.cfg.PluginVersion, AppRequire: e.cfg.MinAppVersion}
		return e.reject(c, transport, wire.NewEnvelope(wire.TypeAppVersionError, payload), "app too old")
	}
	if version.Older(e.cfg.PluginVersion, msg.PluginRequire) {
		return e.reject(c, transport, wire.NewEnvelope(wire.TypePluginVersionError, nil), "plugin too old")
	}

	// Session ownership: a new authentication for an identity
	// supersedes any session that identity already holds.
	for _, prev := range e.registry.AuthenticatedByIdentity(msg.APIKey, c) {
		e.logStateChange(prev, transport, log.StateEntitySession, StateAuthenticated.String(), "SUPERSEDED", "newer session for identity")
		_ = prev.Close()
		e.registry.Remove(prev)
	}

	user, err := e.bindUser(rec)
	if err != nil {
		e.logError(c, transport, err, "user binding")
		e.drop(c, transport, "backend unavailable")
		return err
	}

	if snap == nil {
		return e.reject(c, transport, wire.NewEnvelope(wire.TypeEmptyConfigFile, nil), "no generated config")
	}
	if snap.FormatVersion == "" {
		return e.reject(c, transport, wire.NewEnvelope(wire.TypeFormatVersionError, nil), "config format missing")
	}

	now := time.Now()
	sessionID := uuid.New().String()
	c.Authenticate(msg.APIKey, sessionID, snap.Version, now)
	e.registry.AddAuthenticated(c)

	rec.SetConfiguration(backend.ConfPlatformOS, msg.PlatformOS)
	rec.SetConfiguration(backend.ConfSessionID, sessionID)
	rec.SetConfiguration(backend.ConfConnected, "1")
	rec.SetConfiguration(backend.ConfAllScenarios, "0")
	rec.SetConfiguration(backend.ConfAppState, backend.AppStateActive)
	if err := rec.Save(); err != nil {
		e.logError(c, transport, err, "session stamp")
		e.drop(c, transport, "backend unavailable")
		return err
	}

	pluginConfig, err := e.deps.Commands.PluginConfig(ctx, msg.APIKey)
	if err != nil {
		e.logError(c, transport, err, "plugin config")
		pluginConfig = nil
	}

	welcome := wire.WelcomePayload{
		PluginVersion:    e.cfg.PluginVersion,
		UseWs:            e.cfg.UseWs,
		ConfigVersion:    snap.Version,
		ScenariosEnabled: rec.Configuration(backend.ConfScenariosEnabled, "1") == "1",
		WebviewEnabled:   rec.Configuration(backend.ConfWebviewEnabled, "1") == "1",
		EditEnabled:      rec.Configuration(backend.ConfEditEnabled, "1") == "1",
		PluginConfig:     pluginConfig,
		CmdInfo:          snap.CmdInfo,
		ScInfo:           snap.ScInfo,
		ObjInfo:          snap.ObjInfo,
	}
	if user != nil {
		welcome.UserID = user.ID
		welcome.UserHash = user.Hash
		welcome.UserProfile = user.Profile
	}

	if err := e.sendEnvelope(c, transport, wire.NewEnvelope(wire.TypeWelcome, welcome)); err != nil {
		e.drop(c, transport, "welcome send failed")
		return err
	}

	e.logStateChange(c, transport, log.StateEntitySession,
		StateUnauthenticated.String(), StateAuthenticated.String(), "handshake complete")
	e.logger.Debug("session established",
		"conn_id", c.ID(), "session_id", sessionID, "identity", msg.APIKey)
	return nil
}

// bindUser resolves the backend user for the record, falling back to
// the first system user and persisting the binding.
func (e *Engine) bindUser(rec backend.DeviceRecord) (*backend.User, error) {
	if id := rec.Configuration(backend.ConfUserID, ""); id != "" {
		user, err := e.deps.Users.ByID(id)
		if err != nil {
			return nil, err
		}
		if user != nil {
			return user, nil
		}
	}
	user, err := e.deps.Users.First()
	if err != nil {
		return nil, err
	}
	if user != nil {
		rec.SetConfiguration(backend.ConfUserID, user.ID)
		if err := rec.Save(); err != nil {
			return nil, err
		}
	}
	return user, nil
}

// reject sends a typed rejection envelope, then closes and removes the
// connection. The returned error carries the rejection type.
func (e *Engine) reject(c *Conn, transport log.Transport, env *wire.Envelope, reason string) error {
	_ = e.sendEnvelope(c, transport, env)
	e.logStateChange(c, transport, log.StateEntityConnection,
		StateUnauthenticated.String(), "REJECTED", reason)
	_ = c.Close()
	e.registry.Remove(c)
	return fmt.Errorf("authentication rejected (%s): %s", env.Type, reason)
}

// drop closes and removes a connection without sending a reply.
func (e *Engine) drop(c *Conn, transport log.Transport, reason string) {
	e.logStateChange(c, transport, log.StateEntityConnection,
		c.State().String(), "CLOSED", reason)
	_ = c.Close()
	e.registry.Remove(c)
}

// sendEnvelope delivers one envelope on the connection and records it
// in the protocol log.
func (e *Engine) sendEnvelope(c *Conn, transport log.Transport, env *wire.Envelope) error {
	if err := c.Send(env); err != nil {
		e.logError(c, transport, err, "send "+env.Type)
		return err
	}
	e.logEnvelope(c, transport, log.DirectionOut, env.Type, 0)
	return nil
}
