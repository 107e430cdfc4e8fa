package gateway

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/homesync-protocol/homesync-go/pkg/backend"
	"github.com/homesync-protocol/homesync-go/pkg/log"
	"github.com/homesync-protocol/homesync-go/pkg/wire"
)

// fakeLink records everything sent on a connection.
type fakeLink struct {
	mu       sync.Mutex
	sent     []any
	closed   bool
	failSend bool
}

func (l *fakeLink) Send(v any) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failSend {
		return errors.New("send failed")
	}
	l.sent = append(l.sent, v)
	return nil
}

func (l *fakeLink) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	return nil
}

func (l *fakeLink) isClosed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}

// frames returns a snapshot of everything sent.
func (l *fakeLink) frames() []any {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]any, len(l.sent))
	copy(out, l.sent)
	return out
}

// envelopes returns only the envelope frames.
func (l *fakeLink) envelopes() []*wire.Envelope {
	var out []*wire.Envelope
	for _, v := range l.frames() {
		if env, ok := v.(*wire.Envelope); ok {
			out = append(out, env)
		}
	}
	return out
}

// envelopeTypes returns the envelope types in send order.
func (l *fakeLink) envelopeTypes() []string {
	var out []string
	for _, env := range l.envelopes() {
		out = append(out, env.Type)
	}
	return out
}

// recordingGateway records command-gateway calls on top of the no-op
// implementation.
type recordingGateway struct {
	backend.NopGateway

	mu        sync.Mutex
	calls     []string
	layoutOps []string
	geofences any
}

func (g *recordingGateway) record(name string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, name)
}

func (g *recordingGateway) recorded() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]string, len(g.calls))
	copy(out, g.calls)
	return out
}

func (g *recordingGateway) ExecCommand(context.Context, string, map[string]any) error {
	g.record("ExecCommand")
	return nil
}

func (g *recordingGateway) ExecScenario(context.Context, string, map[string]any) error {
	g.record("ExecScenario")
	return nil
}

func (g *recordingGateway) PluginConfig(context.Context, string) (any, error) {
	g.record("PluginConfig")
	return map[string]any{"useWs": true}, nil
}

func (g *recordingGateway) UpdateLayout(_ context.Context, _ string, op string, _ map[string]any) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.layoutOps = append(g.layoutOps, op)
	return nil
}

func (g *recordingGateway) Geofences(context.Context, string) (any, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.geofences, nil
}

// testEnv wires an engine against the in-memory backend.
type testEnv struct {
	engine *Engine
	mem    *backend.Memory
	gw     *recordingGateway
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvCfg(t, nil)
}

func newTestEnvCfg(t *testing.T, mutate func(*Config)) *testEnv {
	t.Helper()

	cfg := DefaultConfig()
	cfg.PluginVersion = "1.5.0"
	cfg.MinAppVersion = "1.0.0"
	cfg.UseWs = true
	if mutate != nil {
		mutate(&cfg)
	}

	mem := backend.NewMemory()
	gw := &recordingGateway{}

	engine, err := NewEngine(cfg, Deps{
		Devices:  mem,
		Users:    mem,
		Feed:     mem,
		Actions:  mem,
		Commands: gw,
	})
	require.NoError(t, err)

	return &testEnv{engine: engine, mem: mem, gw: gw}
}

// seedDevice provisions a device with a generated config at version 1.
func (env *testEnv) seedDevice(identity string) *backend.MemoryRecord {
	rec := env.mem.AddDevice(identity)
	rec.SetGeneratedConfig(&backend.ConfigSnapshot{
		FormatVersion: "1.0",
		Version:       1,
		CmdInfo:       map[string]any{"cmd": 1},
		ScInfo:        map[string]any{"sc": 1},
		ObjInfo:       map[string]any{"obj": 1},
	})
	return rec
}

func validCredentials() *wire.AuthMessage {
	return &wire.AuthMessage{
		APIKey:        "key-1",
		DeviceID:      "device-1",
		DeviceName:    "Kitchen Tablet",
		Token:         "tok-1",
		PlatformOS:    "android",
		AppVersion:    "1.2.0",
		PluginRequire: "1.0.0",
	}
}

// openConn registers an unauthenticated connection over a fake link.
func (env *testEnv) openConn() (*Conn, *fakeLink) {
	link := &fakeLink{}
	c := NewConn(link, "192.0.2.1:4711")
	env.engine.registry.AddUnauthenticated(c)
	return c, link
}

// authedConn opens and authenticates a connection for the seeded
// identity.
func (env *testEnv) authedConn(t *testing.T) (*Conn, *fakeLink) {
	t.Helper()
	c, link := env.openConn()
	err := env.engine.AuthenticateCredentials(context.Background(), c, log.TransportWebSocket, validCredentials())
	require.NoError(t, err)
	require.Equal(t, StateAuthenticated, c.State())
	return c, link
}

// record looks the seeded identity's record back up.
func (env *testEnv) record(t *testing.T, identity string) backend.DeviceRecord {
	t.Helper()
	rec, err := env.mem.LookupByIdentity(identity)
	require.NoError(t, err)
	require.NotNil(t, rec)
	return rec
}

// backdate shifts a connection's open time so the reaper sees it as
// stale.
func backdate(c *Conn, d time.Duration) {
	c.openedAt = c.openedAt.Add(-d)
}
