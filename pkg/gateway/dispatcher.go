package gateway

import (
	"github.com/homesync-protocol/homesync-go/pkg/log"
	"github.com/homesync-protocol/homesync-go/pkg/wire"
)

// Dispatch drains the identity's pending actions into one ACTIONS
// envelope. Delivery is at most once: the drained actions are removed
// from the queue after the send attempt whether or not it succeeded.
// A queue read failure skips the phase; the queue is retried untouched
// on the next tick.
func (e *Engine) Dispatch(c *Conn, transport log.Transport) (bool, error) {
	actions, err := e.deps.Actions.Pending(c.Identity())
	if err != nil {
		e.logError(c, transport, err, "action queue read")
		return false, nil
	}
	if len(actions) == 0 {
		return false, nil
	}

	payloads := make([]any, 0, len(actions))
	for _, a := range actions {
		payloads = append(payloads, a.Payload)
	}

	sendErr := e.sendEnvelope(c, transport, wire.NewEnvelope(wire.TypeActions, payloads))
	if err := e.deps.Actions.Remove(c.Identity(), actions); err != nil {
		e.logError(c, transport, err, "action queue remove")
	}
	return sendErr == nil, sendErr
}
