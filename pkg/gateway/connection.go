package gateway

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Link is the transport-level sender behind a connection. Send marshals
// and delivers one outbound value; implementations supply their own
// framing (WebSocket text frame, SSE data frame). Send must be safe for
// concurrent use.
type Link interface {
	Send(v any) error
	Close() error
}

// State is a connection's authentication state.
type State uint8

const (
	// StateUnauthenticated - connection opened, no valid credentials yet.
	StateUnauthenticated State = iota

	// StateAuthenticated - handshake completed, session assigned.
	StateAuthenticated
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "UNAUTHENTICATED"
	case StateAuthenticated:
		return "AUTHENTICATED"
	default:
		return "UNKNOWN"
	}
}

// Conn is one transport session. It is created on transport open and
// destroyed on transport close/error; while authenticated it may be
// superseded (force-closed) by a newer authentication for the same
// identity.
type Conn struct {
	mu sync.Mutex

	id         string
	remoteAddr string
	openedAt   time.Time
	link       Link

	state         State
	identity      string
	sessionID     string
	configVersion int64
	checkpoint    time.Time

	closed bool
}

// NewConn creates an unauthenticated connection over the given link.
func NewConn(link Link, remoteAddr string) *Conn {
	return &Conn{
		id:         uuid.New().String(),
		remoteAddr: remoteAddr,
		openedAt:   time.Now(),
		link:       link,
	}
}

// ID returns the connection's unique id.
func (c *Conn) ID() string {
	return c.id
}

// RemoteAddr returns the peer address.
func (c *Conn) RemoteAddr() string {
	return c.remoteAddr
}

// OpenedAt returns when the transport session was opened.
func (c *Conn) OpenedAt() time.Time {
	return c.openedAt
}

// State returns the authentication state.
func (c *Conn) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Identity returns the identity token, or "" before authentication.
func (c *Conn) Identity() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.identity
}

// SessionID returns the session id assigned at authentication.
func (c *Conn) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// ConfigVersion returns the config version this connection holds.
func (c *Conn) ConfigVersion() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.configVersion
}

// Checkpoint returns the timestamp up to which change-feed events are
// considered delivered to this connection.
func (c *Conn) Checkpoint() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.checkpoint
}

// Authenticate transitions the connection to the authenticated state,
// binding it to the identity with a fresh session. The checkpoint
// starts at now: only changes after authentication are broadcast.
func (c *Conn) Authenticate(identity, sessionID string, configVersion int64, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = StateAuthenticated
	c.identity = identity
	c.sessionID = sessionID
	c.configVersion = configVersion
	c.checkpoint = now
}

// AdvanceConfigVersion moves the held config version forward. The held
// version never regresses; returns false if v is not newer.
func (c *Conn) AdvanceConfigVersion(v int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v <= c.configVersion {
		return false
	}
	c.configVersion = v
	return true
}

// AdvanceCheckpoint moves the checkpoint forward. The checkpoint never
// regresses.
func (c *Conn) AdvanceCheckpoint(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t.After(c.checkpoint) {
		c.checkpoint = t
	}
}

// Send delivers one outbound value on the connection's link.
func (c *Conn) Send(v any) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrSessionClosed
	}
	link := c.link
	c.mu.Unlock()

	return link.Send(v)
}

// Close closes the underlying link. Safe to call multiple times.
func (c *Conn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	link := c.link
	c.mu.Unlock()

	return link.Close()
}

// Closed reports whether Close has been called.
func (c *Conn) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
