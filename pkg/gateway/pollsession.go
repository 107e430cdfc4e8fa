package gateway

import (
	"context"
	"time"

	"github.com/homesync-protocol/homesync-go/pkg/backend"
	"github.com/homesync-protocol/homesync-go/pkg/log"
	"github.com/homesync-protocol/homesync-go/pkg/wire"
)

// PollSession drives one polling-transport connection in its own
// execution context. Credentials arrive with the request, so the
// handshake runs before the loop starts; the loop then paces the
// authenticated phases at the poll interval, skips them while the
// device is backgrounded, and emits a heartbeat marker after the
// configured number of idle iterations.
type PollSession struct {
	engine *Engine
	conn   *Conn
	creds  *wire.AuthMessage
}

// NewPollSession creates a session for one polling stream.
func NewPollSession(engine *Engine, link Link, remoteAddr string, creds *wire.AuthMessage) *PollSession {
	c := NewConn(link, remoteAddr)
	engine.registry.AddUnauthenticated(c)
	engine.logStateChange(c, log.TransportPolling, log.StateEntityConnection,
		"", StateUnauthenticated.String(), "stream opened")
	return &PollSession{engine: engine, conn: c, creds: creds}
}

// Conn returns the session's connection.
func (s *PollSession) Conn() *Conn {
	return s.conn
}

// Run authenticates and then loops until the stream fails or ctx is
// canceled. The returned error reports why the session ended; a
// handshake rejection has already been delivered on the stream.
func (s *PollSession) Run(ctx context.Context) error {
	e := s.engine
	c := s.conn

	if err := e.AuthenticateCredentials(ctx, c, log.TransportPolling, s.creds); err != nil {
		return err
	}

	// The combined infos frame opens every stream; clients key their
	// initial render off it.
	if err := s.sendInfos(); err != nil {
		e.Disconnect(c, log.TransportPolling, "stream send failed")
		return err
	}

	ticker := time.NewTicker(e.cfg.PollInterval)
	defer ticker.Stop()

	idle := 0
	for {
		select {
		case <-ctx.Done():
			e.Disconnect(c, log.TransportPolling, "stream closed")
			return ctx.Err()
		case <-ticker.C:
		}

		rec, err := e.deps.Devices.LookupByIdentity(c.Identity())
		if err != nil {
			e.logError(c, log.TransportPolling, err, "device lookup")
			continue
		}
		if rec == nil {
			e.Disconnect(c, log.TransportPolling, "device record removed")
			return ErrDeviceNotFound
		}
		if rec.Configuration(backend.ConfAppState, backend.AppStateActive) != backend.AppStateActive {
			continue
		}

		sent, err := e.RunConnCycle(c, rec, log.TransportPolling, time.Now())
		if err != nil {
			e.Disconnect(c, log.TransportPolling, "stream send failed")
			return err
		}
		if sent {
			idle = 0
			continue
		}

		idle++
		if idle >= e.cfg.HeartbeatIdleCycles {
			if err := c.Send(wire.Heartbeat()); err != nil {
				e.logError(c, log.TransportPolling, err, "send heartbeat")
				e.Disconnect(c, log.TransportPolling, "stream send failed")
				return err
			}
			e.logEnvelope(c, log.TransportPolling, log.DirectionOut, "heartbeat", 0)
			idle = 0
		}
	}
}

// sendInfos sends the combined config snapshot frame.
func (s *PollSession) sendInfos() error {
	e := s.engine
	c := s.conn

	rec, err := e.deps.Devices.LookupByIdentity(c.Identity())
	if err != nil || rec == nil {
		return err
	}
	snap := rec.GeneratedConfig()
	if snap == nil {
		return nil
	}

	infos := wire.InfosEnvelope{Infos: wire.Infos{
		CmdInfo: snap.CmdInfo,
		ScInfo:  snap.ScInfo,
		ObjInfo: snap.ObjInfo,
	}}
	if err := c.Send(infos); err != nil {
		return err
	}
	e.logEnvelope(c, log.TransportPolling, log.DirectionOut, "infos", 0)
	return nil
}
