package backend

import "time"

// Well-known configuration keys on a device record.
const (
	ConfDeviceID         = "deviceId"
	ConfDeviceName       = "deviceName"
	ConfToken            = "token"
	ConfUserID           = "userId"
	ConfPlatformOS       = "platformOs"
	ConfSessionID        = "sessionId"
	ConfConnected        = "connected"
	ConfAppState         = "appState"
	ConfAllScenarios     = "scAll"
	ConfUseWs            = "useWs"
	ConfScenariosEnabled = "scenariosEnabled"
	ConfWebviewEnabled   = "webviewEnabled"
	ConfEditEnabled      = "editEnabled"
)

// Device app states. A device that is not active receives no live
// updates until it foregrounds again.
const (
	AppStateActive     = "active"
	AppStateBackground = "background"
)

// ConfigSnapshot is a device's generated configuration at one version.
// Version is monotonically increasing per device; FormatVersion is the
// schema marker the handshake requires.
type ConfigSnapshot struct {
	FormatVersion string `json:"formatVersion"`
	Version       int64  `json:"configVersion"`
	CmdInfo       any    `json:"cmdInfo,omitempty"`
	ScInfo        any    `json:"scInfo,omitempty"`
	ObjInfo       any    `json:"objInfo,omitempty"`
}

// Category classifies a change event for envelope shaping.
type Category uint8

const (
	// CategoryCommand - command info value changed.
	CategoryCommand Category = iota

	// CategoryScenario - scenario state changed.
	CategoryScenario

	// CategoryObject - object/room summary changed.
	CategoryObject
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryCommand:
		return "COMMAND"
	case CategoryScenario:
		return "SCENARIO"
	case CategoryObject:
		return "OBJECT"
	default:
		return "UNKNOWN"
	}
}

// ChangeEvent is an ephemeral backend mutation record read from the
// change feed. The gateway does not retain events.
type ChangeEvent struct {
	Timestamp time.Time
	Category  Category
	Payload   any
}

// PendingAction is a queued unit of work for an identity. FIFO within
// an identity; consumed at most once per dispatch.
type PendingAction struct {
	ID      string
	Payload any
}

// User is the backend user a device is bound to.
type User struct {
	ID      string
	Hash    string
	Profile string
}
