package gateway

import (
	"time"

	"github.com/homesync-protocol/homesync-go/pkg/backend"
	"github.com/homesync-protocol/homesync-go/pkg/log"
	"github.com/homesync-protocol/homesync-go/pkg/wire"
)

// Broadcast reads change-feed events past the connection's checkpoint
// and sends them grouped by category. The checkpoint advances to now
// BEFORE any send: a failed delivery loses those events rather than
// replaying them on the next tick. A feed read failure skips the phase
// without advancing, so nothing is lost to backend unavailability.
func (e *Engine) Broadcast(c *Conn, rec backend.DeviceRecord, transport log.Transport, now time.Time) (bool, error) {
	events, err := e.deps.Feed.ChangesSince(c.Checkpoint())
	if err != nil {
		e.logError(c, transport, err, "change feed read")
		return false, nil
	}
	c.AdvanceCheckpoint(now)
	if len(events) == 0 {
		return false, nil
	}

	var commands, scenarios, objects []any
	for _, ev := range events {
		switch ev.Category {
		case backend.CategoryCommand:
			commands = append(commands, ev.Payload)
		case backend.CategoryScenario:
			scenarios = append(scenarios, ev.Payload)
		case backend.CategoryObject:
			objects = append(objects, ev.Payload)
		}
	}

	scenarioType := wire.TypeSetScInfo
	if rec.Configuration(backend.ConfAllScenarios, "0") == "1" {
		scenarioType = wire.TypeSetAllSc
	}

	sent := false
	for _, batch := range []struct {
		msgType  string
		payloads []any
	}{
		{wire.TypeSetCmdInfo, commands},
		{scenarioType, scenarios},
		{wire.TypeSetObjInfo, objects},
	} {
		if len(batch.payloads) == 0 {
			continue
		}
		if err := e.sendEnvelope(c, transport, wire.NewEnvelope(batch.msgType, batch.payloads)); err != nil {
			return sent, err
		}
		sent = true
	}
	return sent, nil
}
