package gateway

import (
	"time"

	"github.com/homesync-protocol/homesync-go/pkg/backend"
	"github.com/homesync-protocol/homesync-go/pkg/log"
)

// RunCycle executes one multiplexer tick: the reaper first, then the
// negotiator, dispatcher and broadcaster phases across every
// authenticated connection. Presence flags let an idle gateway skip
// phases without touching the backend.
func (e *Engine) RunCycle(transport log.Transport, now time.Time) {
	if e.registry.HasUnauthenticated() {
		e.Reap(transport, now)
	}
	if !e.registry.HasAuthenticated() {
		return
	}

	conns := e.registry.Authenticated()

	// One record lookup per connection per tick; the phases share it.
	// A lookup failure skips the connection for this tick, a missing
	// record means the device was deleted underneath the session. A
	// backgrounded device sits out all three phases with its checkpoint
	// untouched, so pending work is delivered once it returns to active.
	records := make(map[*Conn]backend.DeviceRecord, len(conns))
	for _, c := range conns {
		rec, err := e.deps.Devices.LookupByIdentity(c.Identity())
		if err != nil {
			e.logError(c, transport, err, "device lookup")
			continue
		}
		if rec == nil {
			e.drop(c, transport, "device record removed")
			continue
		}
		if rec.Configuration(backend.ConfAppState, backend.AppStateActive) != backend.AppStateActive {
			continue
		}
		records[c] = rec
	}

	for _, c := range conns {
		rec, ok := records[c]
		if !ok {
			continue
		}
		if snap, changed := e.Negotiate(c, rec); changed {
			if err := e.sendRefresh(c, transport, snap); err != nil {
				e.Disconnect(c, transport, "refresh send failed")
				delete(records, c)
			}
		}
	}

	for _, c := range conns {
		if _, ok := records[c]; !ok {
			continue
		}
		if _, err := e.Dispatch(c, transport); err != nil {
			e.Disconnect(c, transport, "action send failed")
			delete(records, c)
		}
	}

	for _, c := range conns {
		rec, ok := records[c]
		if !ok {
			continue
		}
		if _, err := e.Broadcast(c, rec, transport, now); err != nil {
			e.Disconnect(c, transport, "event send failed")
		}
	}
}

// RunConnCycle executes the three authenticated phases for a single
// connection. It reports whether any frame was sent, which the polling
// loop uses to pace its heartbeat. The first send failure aborts the
// cycle; on the polling transport that means the stream is gone.
func (e *Engine) RunConnCycle(c *Conn, rec backend.DeviceRecord, transport log.Transport, now time.Time) (bool, error) {
	sent := false

	if snap, changed := e.Negotiate(c, rec); changed {
		if err := e.sendRefresh(c, transport, snap); err != nil {
			return sent, err
		}
		sent = true
	}

	dispatched, err := e.Dispatch(c, transport)
	if err != nil {
		return sent, err
	}
	sent = sent || dispatched

	broadcast, err := e.Broadcast(c, rec, transport, now)
	if err != nil {
		return sent, err
	}
	return sent || broadcast, nil
}
