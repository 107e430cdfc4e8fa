package transport

import (
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/homesync-protocol/homesync-go/pkg/gateway"
)

// WSHandler upgrades HTTP requests to WebSocket connections and feeds
// them to the multiplexer. Authentication happens in-band: the first
// text frame must be the credential message.
type WSHandler struct {
	mux      *gateway.Multiplexer
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewWSHandler creates the WebSocket endpoint handler.
// If logger is nil, logging is disabled.
func NewWSHandler(mux *gateway.Multiplexer, logger *slog.Logger) *WSHandler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &WSHandler{
		mux: mux,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Mobile clients connect from app webviews with no
			// meaningful origin.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		logger: logger,
	}
}

// ServeHTTP runs one WebSocket connection to completion.
func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", "error", err, "remote_addr", r.RemoteAddr)
		return
	}

	link := &wsLink{ws: ws}
	conn := h.mux.OnOpen(link, RemoteAddr(r))

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if conn.Closed() {
				return
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.mux.OnClose(conn)
			} else {
				h.mux.OnError(conn, err)
			}
			return
		}
		h.mux.OnMessage(r.Context(), conn, data)
	}
}

// wsLink adapts a gorilla connection to the gateway link. The write
// mutex serializes frames; gorilla allows only one concurrent writer.
type wsLink struct {
	mu sync.Mutex
	ws *websocket.Conn
}

// Send writes one value as a JSON text frame.
func (l *wsLink) Send(v any) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ws.WriteJSON(v)
}

// Close closes the WebSocket connection.
func (l *wsLink) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	_ = l.ws.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return l.ws.Close()
}

// Compile-time interface satisfaction check.
var _ gateway.Link = (*wsLink)(nil)

// RemoteAddr returns the peer address, preferring the first
// X-Forwarded-For hop when the gateway sits behind a proxy.
func RemoteAddr(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}
	return r.RemoteAddr
}
