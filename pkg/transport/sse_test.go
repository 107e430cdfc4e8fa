package transport

import (
	"context"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homesync-protocol/homesync-go/pkg/backend"
	"github.com/homesync-protocol/homesync-go/pkg/gateway"
)

func newTestEngine(t *testing.T) (*gateway.Engine, *backend.Memory) {
	t.Helper()

	cfg := gateway.DefaultConfig()
	cfg.PluginVersion = "1.5.0"
	cfg.MinAppVersion = "1.0.0"

	mem := backend.NewMemory()
	engine, err := gateway.NewEngine(cfg, gateway.Deps{
		Devices:  mem,
		Users:    mem,
		Feed:     mem,
		Actions:  mem,
		Commands: backend.NopGateway{},
	})
	require.NoError(t, err)
	return engine, mem
}

func seedDevice(mem *backend.Memory, identity string) {
	rec := mem.AddDevice(identity)
	rec.SetGeneratedConfig(&backend.ConfigSnapshot{
		FormatVersion: "1.0",
		Version:       1,
		CmdInfo:       map[string]any{"cmd": 1},
	})
}

const credentialQuery = "apiKey=key-1&deviceId=device-1&deviceName=Tablet" +
	"&token=tok&platformOs=ios&appVersion=1.2.0&pluginRequire=1.0.0"

// serveStream runs one SSE request with an already-canceled context so
// the session sends its opening frames and exits on the first
// iteration.
func serveStream(t *testing.T, engine *gateway.Engine, query string) *httptest.ResponseRecorder {
	t.Helper()

	h := NewSSEHandler(engine, nil)
	req := httptest.NewRequest("GET", "/events?"+query, nil)
	ctx, cancel := context.WithCancel(req.Context())
	cancel()
	req = req.WithContext(ctx)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestSSEStreamHeaders(t *testing.T) {
	engine, mem := newTestEngine(t)
	seedDevice(mem, "key-1")

	w := serveStream(t, engine, credentialQuery)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", w.Header().Get("Cache-Control"))
	assert.Equal(t, "no", w.Header().Get("X-Accel-Buffering"))
}

func TestSSEStreamFraming(t *testing.T) {
	engine, mem := newTestEngine(t)
	seedDevice(mem, "key-1")

	body := serveStream(t, engine, credentialQuery).Body.String()
	frames := strings.Split(strings.TrimSuffix(body, "\r\n\r\n"), "\r\n\r\n")
	require.Len(t, frames, 2)

	// Envelopes ride the stream wrapped in a JSON array.
	assert.True(t, strings.HasPrefix(frames[0], "data:["), "welcome frame: %s", frames[0])
	assert.Contains(t, frames[0], `"type":"WELCOME"`)

	// The combined infos frame is not an envelope and not wrapped.
	assert.True(t, strings.HasPrefix(frames[1], `data:{"infos":`), "infos frame: %s", frames[1])
}

func TestSSEStreamRejectsUnknownKey(t *testing.T) {
	engine, _ := newTestEngine(t)

	query := strings.Replace(credentialQuery, "key-1", "wrong", 1)
	body := serveStream(t, engine, query).Body.String()

	assert.Contains(t, body, `"type":"BAD_KEY"`)
	assert.NotContains(t, body, "WELCOME")
}

func TestCredentialsFromQuery(t *testing.T) {
	q, err := url.ParseQuery(credentialQuery)
	require.NoError(t, err)

	msg := credentialsFromQuery(q)
	assert.Equal(t, "key-1", msg.APIKey)
	assert.Equal(t, "device-1", msg.DeviceID)
	assert.Equal(t, "Tablet", msg.DeviceName)
	assert.Equal(t, "tok", msg.Token)
	assert.Equal(t, "ios", msg.PlatformOS)
	assert.Equal(t, "1.2.0", msg.AppVersion)
	assert.Equal(t, "1.0.0", msg.PluginRequire)
	assert.NoError(t, msg.Validate())
}
