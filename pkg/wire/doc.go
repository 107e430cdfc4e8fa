// Package wire defines the JSON wire format for the homesync client protocol.
//
// Every message on both transports is a `{"type": ..., "payload": ...}`
// envelope encoded as JSON text. The WebSocket transport sends one envelope
// per text frame; the polling transport wraps envelopes (or arrays of
// envelopes) in `data:<json>\r\n\r\n` server-sent-event frames.
//
// # Message Types
//
// Outbound types cover the authentication outcome (WELCOME plus the typed
// rejections), the synchronization pushes (SET_CMD_INFO, SET_SC_INFO,
// SET_ALL_SC, SET_CONFIG, ACTIONS) and on-demand replies (PLUGIN_CONFIG,
// SET_GEOFENCES, SET_NOTIFS_CONFIG). Inbound types are routed by the
// gateway's handler table; their payloads are backend-defined and pass
// through this package unmodified.
//
// # Authentication message
//
// The first message on an unauthenticated connection must carry the
// credential fields (apiKey, deviceId, deviceName, token, platformOs,
// appVersion, pluginRequire). ParseAuthMessage validates presence of the
// required fields; a failure there is a protocol error, not a rejection.
package wire
