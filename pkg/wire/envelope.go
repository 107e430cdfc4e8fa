package wire

// Outbound message types.
const (
	TypeWelcome            = "WELCOME"
	TypeBadKey             = "BAD_KEY"
	TypeBadDevice          = "BAD_DEVICE"
	TypeAppVersionError    = "APP_VERSION_ERROR"
	TypePluginVersionError = "PLUGIN_VERSION_ERROR"
	TypeEmptyConfigFile    = "EMPTY_CONFIG_FILE"
	TypeFormatVersionError = "FORMAT_VERSION_ERROR"
	TypeActions            = "ACTIONS"
	TypeSetCmdInfo         = "SET_CMD_INFO"
	TypeSetScInfo          = "SET_SC_INFO"
	TypeSetAllSc           = "SET_ALL_SC"
	TypeSetObjInfo         = "SET_OBJ_INFO"
	TypeSetConfig          = "SET_CONFIG"
	TypeSetGeofences       = "SET_GEOFENCES"
	TypeSetNotifsConfig    = "SET_NOTIFS_CONFIG"
	TypePluginConfig       = "PLUGIN_CONFIG"
)

// Inbound message types routed by the gateway.
const (
	TypeCmdExec          = "CMD_EXEC"
	TypeCmdListExec      = "CMDLIST_EXEC"
	TypeScExec           = "SC_EXEC"
	TypeScStop           = "SC_STOP"
	TypeScSetActive      = "SC_SET_ACTIVE"
	TypeGetPluginConfig  = "GET_PLUGIN_CONFIG"
	TypeGetConfig        = "GET_CONFIG"
	TypeGetBatteries     = "GET_BATTERIES"
	TypeGetCmdInfo       = "GET_CMD_INFO"
	TypeGetScInfo        = "GET_SC_INFO"
	TypeGetAllSc         = "GET_ALL_SC"
	TypeUnsubscribeSc    = "UNSUBSCRIBE_SC"
	TypeGetHistory       = "GET_HISTORY"
	TypeGetFiles         = "GET_FILES"
	TypeRemoveFile       = "REMOVE_FILE"
	TypeSetBattery       = "SET_BATTERY"
	TypeSetWidget        = "SET_WIDGET"
	TypeAddWidgets       = "ADD_WIDGETS"
	TypeRemoveWidget     = "REMOVE_WIDGET"
	TypeMoveWidget       = "MOVE_WIDGET"
	TypeSetCustomWidgets = "SET_CUSTOM_WIDGETS"
	TypeAddGroup         = "ADD_GROUP"
	TypeSetGroup         = "SET_GROUP"
	TypeRemoveGroup      = "REMOVE_GROUP"
	TypeMoveGroup        = "MOVE_GROUP"
	TypeSetBottomTabs    = "SET_BOTTOM_TABS"
	TypeRemoveBottomTab  = "REMOVE_BOTTOM_TAB"
	TypeSetTopTabs       = "SET_TOP_TABS"
	TypeRemoveTopTab     = "REMOVE_TOP_TAB"
	TypeMoveTopTab       = "MOVE_TOP_TAB"
	TypeSetPageData      = "SET_PAGE_DATA"
	TypeSetRooms         = "SET_ROOMS"
	TypeSetSummaries     = "SET_SUMMARIES"
	TypeSetBackgrounds   = "SET_BACKGROUNDS"
	TypeSetAppConfig     = "SET_APP_CONFIG"
	TypeGetAppConfig     = "GET_APP_CONFIG"
	TypeAddGeofence      = "ADD_GEOFENCE"
	TypeRemoveGeofence   = "REMOVE_GEOFENCE"
	TypeGetGeofences     = "GET_GEOFENCES"
	TypeGetNotifsConfig  = "GET_NOTIFS_CONFIG"
)

// Envelope is the `{type, payload}` wrapper used on both transports.
// Payload is nil for marker messages such as BAD_KEY.
type Envelope struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// NewEnvelope creates an envelope with the given type and payload.
func NewEnvelope(msgType string, payload any) *Envelope {
	return &Envelope{Type: msgType, Payload: payload}
}

// WelcomePayload is the payload of the WELCOME envelope sent on
// successful authentication.
type WelcomePayload struct {
	PluginVersion    string `json:"pluginVersion"`
	UseWs            bool   `json:"useWs"`
	UserID           string `json:"userId"`
	UserHash         string `json:"userHash"`
	UserProfile      string `json:"userProfile"`
	ConfigVersion    int64  `json:"configVersion"`
	ScenariosEnabled bool   `json:"scenariosEnabled"`
	WebviewEnabled   bool   `json:"webviewEnabled"`
	EditEnabled      bool   `json:"editEnabled"`
	PluginConfig     any    `json:"pluginConfig"`
	CmdInfo          any    `json:"cmdInfo"`
	ScInfo           any    `json:"scInfo"`
	ObjInfo          any    `json:"objInfo"`
}

// PluginInfo is the payload of APP_VERSION_ERROR: metadata about the
// host plugin so the client can explain the version mismatch.
type PluginInfo struct {
	Version    string `json:"version"`
	AppRequire string `json:"require"`
}

// Infos is the combined snapshot the polling transport emits on connect
// and on every config refresh.
type Infos struct {
	CmdInfo any `json:"cmdInfo"`
	ScInfo  any `json:"scInfo"`
	ObjInfo any `json:"objInfo"`
}

// InfosEnvelope wraps Infos in its single-key envelope form.
type InfosEnvelope struct {
	Infos Infos `json:"infos"`
}

// HeartbeatMarker is the idle keep-alive marker emitted by the polling
// transport. It intentionally does not use the {type, payload} shape.
type HeartbeatMarker struct {
	Event string `json:"event"`
}

// Heartbeat returns the heartbeat marker.
func Heartbeat() HeartbeatMarker {
	return HeartbeatMarker{Event: "heartbeat"}
}
