package wire

import (
	"encoding/json"
	"fmt"
)

// AuthMessage carries the credential fields a client must send as its
// first message on an unauthenticated connection.
type AuthMessage struct {
	APIKey        string `json:"apiKey"`
	DeviceID      string `json:"deviceId"`
	DeviceName    string `json:"deviceName"`
	Token         string `json:"token"`
	PlatformOS    string `json:"platformOs"`
	AppVersion    string `json:"appVersion"`
	PluginRequire string `json:"pluginRequire"`
}

// ParseAuthMessage decodes and validates an authentication message.
// A parse failure or a missing required field is a protocol error: the
// caller must close the connection without a reply.
func ParseAuthMessage(data []byte) (*AuthMessage, error) {
	var msg AuthMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to decode auth message: %w", err)
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}

// Validate checks that all required credential fields are present.
func (m *AuthMessage) Validate() error {
	switch {
	case m.APIKey == "":
		return fmt.Errorf("auth message missing apiKey")
	case m.DeviceID == "":
		return fmt.Errorf("auth message missing deviceId")
	case m.DeviceName == "":
		return fmt.Errorf("auth message missing deviceName")
	case m.Token == "":
		return fmt.Errorf("auth message missing token")
	case m.PlatformOS == "":
		return fmt.Errorf("auth message missing platformOs")
	case m.AppVersion == "":
		return fmt.Errorf("auth message missing appVersion")
	case m.PluginRequire == "":
		return fmt.Errorf("auth message missing pluginRequire")
	}
	return nil
}
