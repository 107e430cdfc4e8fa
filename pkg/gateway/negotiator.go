package gateway

import (
	"github.com/homesync-protocol/homesync-go/pkg/backend"
	"github.com/homesync-protocol/homesync-go/pkg/log"
	"github.com/homesync-protocol/homesync-go/pkg/wire"
)

// Negotiate compares the connection's held config version against the
// record's generated config. When the backend holds a newer version the
// connection's held version advances and the snapshot is returned for
// the adapter to frame. Version flow is strictly forward: an older or
// equal backend version produces no refresh.
func (e *Engine) Negotiate(c *Conn, rec backend.DeviceRecord) (*backend.ConfigSnapshot, bool) {
	snap := rec.GeneratedConfig()
	if snap == nil {
		return nil, false
	}
	if !c.AdvanceConfigVersion(snap.Version) {
		return nil, false
	}
	e.logger.Debug("config refresh",
		"conn_id", c.ID(), "identity", c.Identity(), "version", snap.Version)
	return snap, true
}

// sendRefresh pushes a config refresh with the transport's historical
// framing. The socket transport sends the info envelopes individually;
// the polling transport sends one combined infos frame first.
func (e *Engine) sendRefresh(c *Conn, transport log.Transport, snap *backend.ConfigSnapshot) error {
	if transport == log.TransportPolling {
		infos := wire.InfosEnvelope{Infos: wire.Infos{
			CmdInfo: snap.CmdInfo,
			ScInfo:  snap.ScInfo,
			ObjInfo: snap.ObjInfo,
		}}
		if err := c.Send(infos); err != nil {
			e.logError(c, transport, err, "send infos")
			return err
		}
		e.logEnvelope(c, transport, log.DirectionOut, "infos", 0)
		return e.sendEnvelope(c, transport, wire.NewEnvelope(wire.TypeSetConfig, snap))
	}

	if err := e.sendEnvelope(c, transport, wire.NewEnvelope(wire.TypeSetCmdInfo, snap.CmdInfo)); err != nil {
		return err
	}
	if err := e.sendEnvelope(c, transport, wire.NewEnvelope(wire.TypeSetScInfo, snap.ScInfo)); err != nil {
		return err
	}
	return e.sendEnvelope(c, transport, wire.NewEnvelope(wire.TypeSetConfig, snap))
}
