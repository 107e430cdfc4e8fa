package backend

import (
	"context"
	"time"
)

// DeviceRecord is the mutable per-identity record owned by the backend.
// The gateway mutates it through SetConfiguration/Save during the
// handshake and on connection close; the registered device id, once
// set, must never be overwritten (mismatches are rejected upstream).
type DeviceRecord interface {
	// Identity returns the identity token this record is keyed by.
	Identity() string

	// Configuration returns the value for key, or def when unset.
	Configuration(key, def string) string

	// SetConfiguration stages a configuration value. Not durable
	// until Save.
	SetConfiguration(key, value string)

	// Save persists staged configuration changes.
	Save() error

	// GeneratedConfig returns the device's current generated config
	// snapshot, or nil when none has been generated yet.
	GeneratedConfig() *ConfigSnapshot
}

// DeviceDirectory resolves identity tokens to device records.
type DeviceDirectory interface {
	// LookupByIdentity returns the record for the token, (nil, nil)
	// when no record matches, or an error on backend failure.
	LookupByIdentity(token string) (DeviceRecord, error)
}

// ChangeFeed is the checkpointed backend mutation feed.
type ChangeFeed interface {
	// ChangesSince returns events recorded strictly after t
	// (exclusive lower bound), oldest first.
	ChangesSince(t time.Time) ([]ChangeEvent, error)
}

// ActionQueue holds pending actions per identity.
type ActionQueue interface {
	// Pending returns the identity's queued actions in FIFO order.
	Pending(identity string) ([]PendingAction, error)

	// Remove deletes the given actions from the identity's queue.
	Remove(identity string, actions []PendingAction) error
}

// UserDirectory resolves backend users for the handshake's user binding.
type UserDirectory interface {
	// ByID returns the user, or (nil, nil) when absent.
	ByID(id string) (*User, error)

	// First returns the first available system user.
	First() (*User, error)
}

// CommandGateway executes the RPC-style inbound messages against the
// backend. Payloads are passed through unmodified; the identity is the
// calling connection's identity token. Methods returning (any, error)
// reply on the same connection; the rest are fire-and-forget.
type CommandGateway interface {
	ExecCommand(ctx context.Context, identity string, payload map[string]any) error
	ExecCommands(ctx context.Context, identity string, payload map[string]any) error
	ExecScenario(ctx context.Context, identity string, payload map[string]any) error
	StopScenario(ctx context.Context, identity string, payload map[string]any) error
	SetScenarioActive(ctx context.Context, identity string, payload map[string]any) error

	// PluginConfig returns the plugin-wide config (transport addresses,
	// useWs preference) for the PLUGIN_CONFIG reply.
	PluginConfig(ctx context.Context, identity string) (any, error)

	Batteries(ctx context.Context) (any, error)
	History(ctx context.Context, identity string, payload map[string]any) (any, error)
	Files(ctx context.Context, identity string, payload map[string]any) (any, error)
	RemoveFile(ctx context.Context, identity string, payload map[string]any) (any, error)
	ReportBattery(ctx context.Context, identity string, payload map[string]any) error

	// UpdateLayout applies a widget/group/tab/room/page/summary/
	// background layout mutation. op is the inbound message type.
	UpdateLayout(ctx context.Context, identity, op string, payload map[string]any) error

	AppConfig(ctx context.Context, identity string, payload map[string]any) (any, error)
	SetAppConfig(ctx context.Context, identity string, payload map[string]any) error

	AddGeofence(ctx context.Context, identity string, payload map[string]any) error
	RemoveGeofence(ctx context.Context, identity string, payload map[string]any) error

	// Geofences returns the SET_GEOFENCES payload, or nil when the
	// device has none (no reply is sent then).
	Geofences(ctx context.Context, identity string) (any, error)

	// NotificationConfig returns the SET_NOTIFS_CONFIG payload.
	NotificationConfig(ctx context.Context, identity string) (any, error)
}
