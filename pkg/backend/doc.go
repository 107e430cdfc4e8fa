// Package backend defines the gateway's view of the automation backend.
//
// The gateway never interprets backend data: device records are opaque
// configuration maps with a handful of well-known keys, change events and
// action payloads pass through unmodified, and every RPC-style inbound
// message is delegated to the CommandGateway. The interfaces here are the
// complete contract; the Memory implementation backs the test suite and
// the demo binary.
//
// Lookup-style operations return (nil, nil) for "not found"; a non-nil
// error always means a transient backend failure, which callers treat as
// skip-and-retry rather than terminal.
package backend
