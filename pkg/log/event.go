package log

import "time"

// Event represents a protocol log event. CBOR encoding uses integer
// keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// ConnectionID uniquely identifies the connection (UUID).
	ConnectionID string `cbor:"2,keyasint"`

	// Direction indicates message flow.
	Direction Direction `cbor:"3,keyasint"`

	// Transport is the transport the connection arrived on.
	Transport Transport `cbor:"4,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"5,keyasint"`

	// Identity is the connection's identity token (set after auth).
	Identity string `cbor:"6,keyasint,omitempty"`

	// RemoteAddr is the peer address (IP:port).
	RemoteAddr string `cbor:"7,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Envelope    *EnvelopeEvent    `cbor:"8,keyasint,omitempty"`  // Envelope in/out
	StateChange *StateChangeEvent `cbor:"9,keyasint,omitempty"`  // Connection/session state
	Error       *ErrorEventData   `cbor:"10,keyasint,omitempty"` // Errors
}

// Direction indicates the direction of message flow.
type Direction uint8

const (
	// DirectionIn indicates an incoming message.
	DirectionIn Direction = 0
	// DirectionOut indicates an outgoing message.
	DirectionOut Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// Transport indicates which transport a connection uses.
type Transport uint8

const (
	// TransportWebSocket is the push-style socket transport.
	TransportWebSocket Transport = 0
	// TransportPolling is the SSE polling stream transport.
	TransportPolling Transport = 1
)

// String returns the transport name.
func (t Transport) String() string {
	switch t {
	case TransportWebSocket:
		return "WEBSOCKET"
	case TransportPolling:
		return "POLLING"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryEnvelope indicates a protocol envelope.
	CategoryEnvelope Category = 0
	// CategoryState indicates a state change.
	CategoryState Category = 1
	// CategoryError indicates an error event.
	CategoryError Category = 2
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryEnvelope:
		return "ENVELOPE"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// EnvelopeEvent captures a protocol envelope crossing the wire.
type EnvelopeEvent struct {
	// Type is the envelope's message type ("WELCOME", "ACTIONS", ...).
	// The polling transport's non-envelope frames use the synthetic
	// types "infos" and "heartbeat".
	Type string `cbor:"1,keyasint"`

	// Size is the encoded envelope size in bytes.
	Size int `cbor:"2,keyasint,omitempty"`
}

// StateChangeEvent captures connection and session lifecycle events.
type StateChangeEvent struct {
	// Entity being changed.
	Entity StateEntity `cbor:"1,keyasint"`

	// OldState is the previous state (may be empty).
	OldState string `cbor:"2,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"3,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"4,keyasint,omitempty"`
}

// StateEntity indicates what entity changed state.
type StateEntity uint8

const (
	// StateEntityConnection indicates a connection state change.
	StateEntityConnection StateEntity = 0
	// StateEntitySession indicates a session state change.
	StateEntitySession StateEntity = 1
)

// String returns the state entity name.
func (s StateEntity) String() string {
	switch s {
	case StateEntityConnection:
		return "CONNECTION"
	case StateEntitySession:
		return "SESSION"
	default:
		return "UNKNOWN"
	}
}

// ErrorEventData captures errors on a connection.
type ErrorEventData struct {
	// Message is the error message.
	Message string `cbor:"1,keyasint"`

	// Context describes what operation was being performed.
	Context string `cbor:"2,keyasint,omitempty"`
}
