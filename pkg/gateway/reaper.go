package gateway

import (
	"time"

	"github.com/homesync-protocol/homesync-go/pkg/log"
)

// Reap closes unauthenticated connections whose grace window has
// expired and returns how many were closed. A connection gets the full
// window to present credentials; the reaper never touches the
// authenticated population.
func (e *Engine) Reap(transport log.Transport, now time.Time) int {
	reaped := 0
	for _, c := range e.registry.Unauthenticated() {
		if now.Sub(c.OpenedAt()) <= e.cfg.AuthGraceWindow {
			continue
		}
		e.drop(c, transport, "authentication grace window expired")
		reaped++
	}
	if reaped > 0 {
		e.logger.Debug("reaped stale connections", "count", reaped)
	}
	return reaped
}
