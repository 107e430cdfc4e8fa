package gateway

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homesync-protocol/homesync-go/pkg/backend"
	"github.com/homesync-protocol/homesync-go/pkg/log"
	"github.com/homesync-protocol/homesync-go/pkg/wire"
)

func TestHandshakeSuccess(t *testing.T) {
	env := newTestEnv(t)
	env.seedDevice("key-1")
	env.mem.AddUser(&backend.User{ID: "7", Hash: "hash-7", Profile: "admin"})

	c, link := env.authedConn(t)

	envelopes := link.envelopes()
	require.Len(t, envelopes, 1)
	require.Equal(t, wire.TypeWelcome, envelopes[0].Type)

	welcome, ok := envelopes[0].Payload.(wire.WelcomePayload)
	require.True(t, ok)
	assert.Equal(t, "1.5.0", welcome.PluginVersion)
	assert.True(t, welcome.UseWs)
	assert.Equal(t, int64(1), welcome.ConfigVersion)
	assert.Equal(t, "7", welcome.UserID)
	assert.Equal(t, "hash-7", welcome.UserHash)
	assert.NotNil(t, welcome.CmdInfo)

	// Connection joined the authenticated population with a session.
	assert.NotEmpty(t, c.SessionID())
	assert.Equal(t, "key-1", c.Identity())
	assert.Equal(t, int64(1), c.ConfigVersion())
	unauth, auth := env.engine.registry.Counts()
	assert.Equal(t, 0, unauth)
	assert.Equal(t, 1, auth)

	// The record was stamped for the new session.
	rec := env.record(t, "key-1")
	assert.Equal(t, c.SessionID(), rec.Configuration(backend.ConfSessionID, ""))
	assert.Equal(t, "1", rec.Configuration(backend.ConfConnected, ""))
	assert.Equal(t, backend.AppStateActive, rec.Configuration(backend.ConfAppState, ""))
	assert.Equal(t, "0", rec.Configuration(backend.ConfAllScenarios, ""))
	assert.Equal(t, "android", rec.Configuration(backend.ConfPlatformOS, ""))
	assert.Equal(t, "tok-1", rec.Configuration(backend.ConfToken, ""))
	assert.Equal(t, "7", rec.Configuration(backend.ConfUserID, ""))
}

func TestHandshakeBindsDeviceOnFirstContact(t *testing.T) {
	env := newTestEnv(t)
	env.seedDevice("key-1")

	env.authedConn(t)

	rec := env.record(t, "key-1")
	assert.Equal(t, "device-1", rec.Configuration(backend.ConfDeviceID, ""))
	assert.Equal(t, "Kitchen Tablet", rec.Configuration(backend.ConfDeviceName, ""))
}

func TestHandshakeMalformedMessageClosesSilently(t *testing.T) {
	env := newTestEnv(t)
	env.seedDevice("key-1")
	c, link := env.openConn()

	err := env.engine.Authenticate(context.Background(), c, log.TransportWebSocket, []byte("{broken"))
	require.Error(t, err)

	assert.Empty(t, link.frames(), "no reply on protocol error")
	assert.True(t, link.isClosed())
	unauth, auth := env.engine.registry.Counts()
	assert.Zero(t, unauth+auth)
}

func TestHandshakeRejections(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(env *testEnv)
		creds    func(m *wire.AuthMessage)
		wantType string
	}{
		{
			name:     "unknown identity",
			setup:    func(env *testEnv) {},
			creds:    func(m *wire.AuthMessage) { m.APIKey = "wrong-key" },
			wantType: wire.TypeBadKey,
		},
		{
			name: "device id mismatch",
			setup: func(env *testEnv) {
				rec := env.seedDevice("key-1")
				rec.SetConfiguration(backend.ConfDeviceID, "other-device")
			},
			creds:    func(m *wire.AuthMessage) {},
			wantType: wire.TypeBadDevice,
		},
		{
			name:     "app too old",
			setup:    func(env *testEnv) { env.seedDevice("key-1") },
			creds:    func(m *wire.AuthMessage) { m.AppVersion = "0.9.0" },
			wantType: wire.TypeAppVersionError,
		},
		{
			name:     "plugin too old",
			setup:    func(env *testEnv) { env.seedDevice("key-1") },
			creds:    func(m *wire.AuthMessage) { m.PluginRequire = "9.0.0" },
			wantType: wire.TypePluginVersionError,
		},
		{
			name:     "no generated config",
			setup:    func(env *testEnv) { env.mem.AddDevice("key-1") },
			creds:    func(m *wire.AuthMessage) {},
			wantType: wire.TypeEmptyConfigFile,
		},
		{
			name: "config format missing",
			setup: func(env *testEnv) {
				rec := env.mem.AddDevice("key-1")
				rec.SetGeneratedConfig(&backend.ConfigSnapshot{Version: 1})
			},
			creds:    func(m *wire.AuthMessage) {},
			wantType: wire.TypeFormatVersionError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			tt.setup(env)
			c, link := env.openConn()

			msg := validCredentials()
			tt.creds(msg)

			err := env.engine.AuthenticateCredentials(context.Background(), c, log.TransportWebSocket, msg)
			require.Error(t, err)

			envelopes := link.envelopes()
			require.Len(t, envelopes, 1)
			assert.Equal(t, tt.wantType, envelopes[0].Type)
			assert.True(t, link.isClosed())
			assert.Equal(t, StateUnauthenticated, c.State())

			unauth, auth := env.engine.registry.Counts()
			assert.Zero(t, unauth+auth)
		})
	}
}

func TestHandshakeAppVersionErrorCarriesPluginInfo(t *testing.T) {
	env := newTestEnv(t)
	env.seedDevice("key-1")
	c, link := env.openConn()

	msg := validCredentials()
	msg.AppVersion = "0.5.0"
	err := env.engine.AuthenticateCredentials(context.Background(), c, log.TransportWebSocket, msg)
	require.Error(t, err)

	envelopes := link.envelopes()
	require.Len(t, envelopes, 1)
	info, ok := envelopes[0].Payload.(wire.PluginInfo)
	require.True(t, ok)
	assert.Equal(t, "1.5.0", info.Version)
	assert.Equal(t, "1.0.0", info.AppRequire)
}

func TestHandshakeDeviceCheckPrecedesConfigCheck(t *testing.T) {
	env := newTestEnv(t)
	rec := env.mem.AddDevice("key-1")
	rec.SetConfiguration(backend.ConfDeviceID, "other-device")
	c, link := env.openConn()

	err := env.engine.AuthenticateCredentials(context.Background(), c, log.TransportWebSocket, validCredentials())
	require.Error(t, err)

	envelopes := link.envelopes()
	require.Len(t, envelopes, 1)
	assert.Equal(t, wire.TypeBadDevice, envelopes[0].Type)
}

func TestHandshakeSupersedesPriorSession(t *testing.T) {
	env := newTestEnv(t)
	env.seedDevice("key-1")

	first, firstLink := env.authedConn(t)
	second, _ := env.authedConn(t)

	assert.True(t, firstLink.isClosed(), "prior session closed")
	assert.False(t, second.Closed())

	_, auth := env.engine.registry.Counts()
	assert.Equal(t, 1, auth)

	// The record carries the newer session's stamp.
	rec := env.record(t, "key-1")
	assert.Equal(t, second.SessionID(), rec.Configuration(backend.ConfSessionID, ""))
	assert.NotEqual(t, first.SessionID(), second.SessionID())
}

func TestHandshakeFallsBackToFirstUser(t *testing.T) {
	env := newTestEnv(t)
	env.seedDevice("key-1")
	env.mem.AddUser(&backend.User{ID: "1", Hash: "first"})
	env.mem.AddUser(&backend.User{ID: "2", Hash: "second"})

	_, link := env.authedConn(t)

	welcome := link.envelopes()[0].Payload.(wire.WelcomePayload)
	assert.Equal(t, "1", welcome.UserID)

	// The binding is persisted for the next handshake.
	rec := env.record(t, "key-1")
	assert.Equal(t, "1", rec.Configuration(backend.ConfUserID, ""))
}
