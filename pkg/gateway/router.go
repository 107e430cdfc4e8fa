package gateway

import (
	"context"

	"github.com/homesync-protocol/homesync-go/pkg/backend"
	"github.com/homesync-protocol/homesync-go/pkg/log"
	"github.com/homesync-protocol/homesync-go/pkg/wire"
)

// handlerFunc handles one inbound envelope on an authenticated
// connection.
type handlerFunc func(ctx context.Context, c *Conn, transport log.Transport, payload map[string]any) error

// Route dispatches an inbound envelope from an authenticated
// connection. Unknown message types are ignored without closing the
// connection: clients newer than the gateway may speak types it does
// not know.
func (e *Engine) Route(ctx context.Context, c *Conn, transport log.Transport, env *wire.Envelope) error {
	e.logEnvelope(c, transport, log.DirectionIn, env.Type, 0)

	handler, ok := e.handlers[env.Type]
	if !ok {
		e.logger.Debug("ignoring unknown message type",
			"conn_id", c.ID(), "type", env.Type)
		return nil
	}
	if err := handler(ctx, c, transport, env.PayloadMap()); err != nil {
		e.logError(c, transport, err, "handle "+env.Type)
		return err
	}
	return nil
}

// buildHandlers constructs the inbound routing table.
func (e *Engine) buildHandlers() map[string]handlerFunc {
	gw := e.deps.Commands

	fire := func(f func(ctx context.Context, identity string, payload map[string]any) error) handlerFunc {
		return func(ctx context.Context, c *Conn, _ log.Transport, payload map[string]any) error {
			return f(ctx, c.Identity(), payload)
		}
	}
	query := func(replyType string, f func(ctx context.Context, identity string, payload map[string]any) (any, error)) handlerFunc {
		return func(ctx context.Context, c *Conn, transport log.Transport, payload map[string]any) error {
			result, err := f(ctx, c.Identity(), payload)
			if err != nil {
				return err
			}
			return e.sendEnvelope(c, transport, wire.NewEnvelope(replyType, result))
		}
	}
	layout := func(op string) handlerFunc {
		return func(ctx context.Context, c *Conn, _ log.Transport, payload map[string]any) error {
			return gw.UpdateLayout(ctx, c.Identity(), op, payload)
		}
	}

	table := map[string]handlerFunc{
		wire.TypeCmdExec:        fire(gw.ExecCommand),
		wire.TypeCmdListExec:    fire(gw.ExecCommands),
		wire.TypeScExec:         fire(gw.ExecScenario),
		wire.TypeScStop:         fire(gw.StopScenario),
		wire.TypeScSetActive:    fire(gw.SetScenarioActive),
		wire.TypeSetBattery:     fire(gw.ReportBattery),
		wire.TypeSetAppConfig:   fire(gw.SetAppConfig),
		wire.TypeAddGeofence:    fire(gw.AddGeofence),
		wire.TypeRemoveGeofence: fire(gw.RemoveGeofence),

		wire.TypeGetHistory:   query(wire.TypeGetHistory, gw.History),
		wire.TypeGetFiles:     query(wire.TypeGetFiles, gw.Files),
		wire.TypeRemoveFile:   query(wire.TypeGetFiles, gw.RemoveFile),
		wire.TypeGetAppConfig: query(wire.TypeSetAppConfig, gw.AppConfig),

		wire.TypeGetPluginConfig: func(ctx context.Context, c *Conn, transport log.Transport, _ map[string]any) error {
			result, err := gw.PluginConfig(ctx, c.Identity())
			if err != nil {
				return err
			}
			return e.sendEnvelope(c, transport, wire.NewEnvelope(wire.TypePluginConfig, result))
		},
		wire.TypeGetBatteries: func(ctx context.Context, c *Conn, transport log.Transport, _ map[string]any) error {
			result, err := gw.Batteries(ctx)
			if err != nil {
				return err
			}
			return e.sendEnvelope(c, transport, wire.NewEnvelope(wire.TypeGetBatteries, result))
		},
		wire.TypeGetGeofences: func(ctx context.Context, c *Conn, transport log.Transport, _ map[string]any) error {
			result, err := gw.Geofences(ctx, c.Identity())
			if err != nil {
				return err
			}
			if result == nil {
				return nil
			}
			return e.sendEnvelope(c, transport, wire.NewEnvelope(wire.TypeSetGeofences, result))
		},
		wire.TypeGetNotifsConfig: func(ctx context.Context, c *Conn, transport log.Transport, _ map[string]any) error {
			result, err := gw.NotificationConfig(ctx, c.Identity())
			if err != nil {
				return err
			}
			return e.sendEnvelope(c, transport, wire.NewEnvelope(wire.TypeSetNotifsConfig, result))
		},

		wire.TypeGetConfig: func(ctx context.Context, c *Conn, transport log.Transport, _ map[string]any) error {
			rec, err := e.deps.Devices.LookupByIdentity(c.Identity())
			if err != nil || rec == nil {
				return err
			}
			snap := rec.GeneratedConfig()
			if snap == nil {
				return nil
			}
			return e.sendEnvelope(c, transport, wire.NewEnvelope(wire.TypeSetConfig, snap))
		},
		wire.TypeGetCmdInfo: func(ctx context.Context, c *Conn, transport log.Transport, _ map[string]any) error {
			return e.sendSnapshotPart(c, transport, wire.TypeSetCmdInfo)
		},
		wire.TypeGetScInfo: func(ctx context.Context, c *Conn, transport log.Transport, _ map[string]any) error {
			return e.sendSnapshotPart(c, transport, wire.TypeSetScInfo)
		},
		wire.TypeGetAllSc: func(ctx context.Context, c *Conn, transport log.Transport, _ map[string]any) error {
			if err := e.setAllScenarios(c, "1"); err != nil {
				return err
			}
			return e.sendSnapshotPart(c, transport, wire.TypeSetAllSc)
		},
		wire.TypeUnsubscribeSc: func(ctx context.Context, c *Conn, _ log.Transport, _ map[string]any) error {
			return e.setAllScenarios(c, "0")
		},
	}

	for _, op := range []string{
		wire.TypeSetWidget, wire.TypeAddWidgets, wire.TypeRemoveWidget,
		wire.TypeMoveWidget, wire.TypeSetCustomWidgets,
		wire.TypeAddGroup, wire.TypeSetGroup, wire.TypeRemoveGroup, wire.TypeMoveGroup,
		wire.TypeSetBottomTabs, wire.TypeRemoveBottomTab,
		wire.TypeSetTopTabs, wire.TypeRemoveTopTab, wire.TypeMoveTopTab,
		wire.TypeSetPageData, wire.TypeSetRooms, wire.TypeSetSummaries,
		wire.TypeSetBackgrounds,
	} {
		table[op] = layout(op)
	}

	return table
}

// sendSnapshotPart replies with one section of the device's generated
// config. SET_ALL_SC carries the scenario section.
func (e *Engine) sendSnapshotPart(c *Conn, transport log.Transport, msgType string) error {
	rec, err := e.deps.Devices.LookupByIdentity(c.Identity())
	if err != nil || rec == nil {
		return err
	}
	snap := rec.GeneratedConfig()
	if snap == nil {
		return nil
	}

	var payload any
	switch msgType {
	case wire.TypeSetCmdInfo:
		payload = snap.CmdInfo
	case wire.TypeSetScInfo, wire.TypeSetAllSc:
		payload = snap.ScInfo
	case wire.TypeSetObjInfo:
		payload = snap.ObjInfo
	}
	return e.sendEnvelope(c, transport, wire.NewEnvelope(msgType, payload))
}

// setAllScenarios flips the record's all-scenarios subscription flag.
func (e *Engine) setAllScenarios(c *Conn, value string) error {
	rec, err := e.deps.Devices.LookupByIdentity(c.Identity())
	if err != nil || rec == nil {
		return err
	}
	rec.SetConfiguration(backend.ConfAllScenarios, value)
	return rec.Save()
}
