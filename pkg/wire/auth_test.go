package wire

import (
	"strings"
	"testing"
)

func validAuthJSON() string {
	return `{
		"apiKey": "key-1",
		"deviceId": "device-1",
		"deviceName": "Kitchen Tablet",
		"token": "tok-1",
		"platformOs": "android",
		"appVersion": "1.2.0",
		"pluginRequire": "1.0.0"
	}`
}

func TestParseAuthMessage(t *testing.T) {
	msg, err := ParseAuthMessage([]byte(validAuthJSON()))
	if err != nil {
		t.Fatalf("ParseAuthMessage failed: %v", err)
	}
	if msg.APIKey != "key-1" {
		t.Errorf("APIKey = %q", msg.APIKey)
	}
	if msg.DeviceID != "device-1" {
		t.Errorf("DeviceID = %q", msg.DeviceID)
	}
	if msg.AppVersion != "1.2.0" {
		t.Errorf("AppVersion = %q", msg.AppVersion)
	}
}

func TestParseAuthMessageMalformed(t *testing.T) {
	if _, err := ParseAuthMessage([]byte("{not json")); err == nil {
		t.Error("expected error for malformed JSON")
	}
	if _, err := ParseAuthMessage([]byte(`"just a string"`)); err == nil {
		t.Error("expected error for non-object JSON")
	}
}

func TestParseAuthMessageMissingFields(t *testing.T) {
	fields := []string{
		"apiKey", "deviceId", "deviceName", "token",
		"platformOs", "appVersion", "pluginRequire",
	}

	for _, field := range fields {
		// Blank out one field at a time.
		broken := strings.Replace(validAuthJSON(), `"`+field+`": `, `"`+field+`X": `, 1)
		_, err := ParseAuthMessage([]byte(broken))
		if err == nil {
			t.Errorf("expected error with %s missing", field)
			continue
		}
		if !strings.Contains(err.Error(), field) {
			t.Errorf("error %q does not name missing field %s", err, field)
		}
	}
}
