package gateway

import (
	"context"
	"sync"
	"time"

	"github.com/homesync-protocol/homesync-go/pkg/log"
	"github.com/homesync-protocol/homesync-go/pkg/wire"
)

// Multiplexer adapts the engine to a callback transport: every open,
// message, close and tick runs under one mutex, so the registry and
// the per-connection state need no further coordination. The socket
// transport hands its callbacks straight to these methods.
type Multiplexer struct {
	mu     sync.Mutex
	engine *Engine
}

// NewMultiplexer creates a multiplexer over the engine.
func NewMultiplexer(engine *Engine) *Multiplexer {
	return &Multiplexer{engine: engine}
}

// OnOpen registers a freshly accepted transport connection. The
// connection has the grace window to authenticate before the reaper
// closes it.
func (m *Multiplexer) OnOpen(link Link, remoteAddr string) *Conn {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := NewConn(link, remoteAddr)
	m.engine.registry.AddUnauthenticated(c)
	m.engine.logStateChange(c, log.TransportWebSocket, log.StateEntityConnection,
		"", StateUnauthenticated.String(), "connection opened")
	m.engine.logger.Debug("connection opened", "conn_id", c.ID(), "remote_addr", remoteAddr)
	return c
}

// OnMessage handles one inbound frame. The first frame on an
// unauthenticated connection is the handshake; afterwards frames are
// routed as envelopes. Malformed envelopes from an authenticated
// client are dropped without closing the connection.
func (m *Multiplexer) OnMessage(ctx context.Context, c *Conn, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c.State() == StateUnauthenticated {
		_ = m.engine.Authenticate(ctx, c, log.TransportWebSocket, data)
		return
	}

	env, err := wire.DecodeEnvelope(data)
	if err != nil {
		m.engine.logError(c, log.TransportWebSocket, err, "decode envelope")
		return
	}
	_ = m.engine.Route(ctx, c, log.TransportWebSocket, env)
}

// OnClose tears the connection down after the transport reports a
// clean close.
func (m *Multiplexer) OnClose(c *Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.engine.Disconnect(c, log.TransportWebSocket, "transport closed")
}

// OnError tears the connection down after a transport error.
func (m *Multiplexer) OnError(c *Conn, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.engine.logError(c, log.TransportWebSocket, err, "transport")
	m.engine.Disconnect(c, log.TransportWebSocket, "transport error")
}

// Tick runs one synchronization cycle. The external driver decides
// pacing; Run provides a default ticker.
func (m *Multiplexer) Tick() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.engine.RunCycle(log.TransportWebSocket, time.Now())
}

// Run drives Tick at the configured interval until ctx is canceled.
func (m *Multiplexer) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.engine.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			m.Tick()
		}
	}
}
