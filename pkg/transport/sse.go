package transport

import (
	"log/slog"
	"net/http"
	"net/url"
	"sync"

	"github.com/homesync-protocol/homesync-go/pkg/gateway"
	"github.com/homesync-protocol/homesync-go/pkg/wire"
)

// SSEHandler serves the polling transport: one Server-Sent-Events
// stream per request, driven by a poll session. Credentials arrive as
// query parameters since EventSource clients cannot send a first frame.
type SSEHandler struct {
	engine *gateway.Engine
	logger *slog.Logger
}

// NewSSEHandler creates the SSE endpoint handler.
// If logger is nil, logging is disabled.
func NewSSEHandler(engine *gateway.Engine, logger *slog.Logger) *SSEHandler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SSEHandler{engine: engine, logger: logger}
}

// ServeHTTP runs one stream to completion.
func (h *SSEHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	creds := credentialsFromQuery(r.URL.Query())

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	link := &sseLink{w: w, flusher: flusher}
	sess := gateway.NewPollSession(h.engine, link, RemoteAddr(r), creds)

	if err := sess.Run(r.Context()); err != nil {
		h.logger.Debug("stream ended", "remote_addr", r.RemoteAddr, "error", err)
	}
}

// credentialsFromQuery maps query parameters onto the credential
// message the handshake consumes.
func credentialsFromQuery(q url.Values) *wire.AuthMessage {
	return &wire.AuthMessage{
		APIKey:        q.Get("apiKey"),
		DeviceID:      q.Get("deviceId"),
		DeviceName:    q.Get("deviceName"),
		Token:         q.Get("token"),
		PlatformOS:    q.Get("platformOs"),
		AppVersion:    q.Get("appVersion"),
		PluginRequire: q.Get("pluginRequire"),
	}
}

// sseLink writes values as SSE data frames. A single envelope is
// wrapped in a JSON array before framing; the stream has always
// batched envelopes that way and clients iterate the array.
type sseLink struct {
	mu      sync.Mutex
	w       http.ResponseWriter
	flusher http.Flusher
	closed  bool
}

// Send writes one data frame and flushes it.
func (l *sseLink) Send(v any) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return gateway.ErrSessionClosed
	}

	if env, ok := v.(*wire.Envelope); ok {
		v = []*wire.Envelope{env}
	}

	data, err := wire.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := l.w.Write([]byte("data:" + string(data) + "\r\n\r\n")); err != nil {
		return err
	}
	l.flusher.Flush()
	return nil
}

// Close marks the stream closed; the HTTP layer tears the response
// down when the handler returns.
func (l *sseLink) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	return nil
}

// Compile-time interface satisfaction check.
var _ gateway.Link = (*sseLink)(nil)
