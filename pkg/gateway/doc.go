// Package gateway implements the synchronization core: connection
// lifecycle, the authentication handshake, session ownership,
// config-version negotiation, action dispatch and event broadcast.
//
// The core is one state machine driven by two transport adapters:
//
//   - Multiplexer: a single execution context owns the whole connection
//     registry; transport callbacks (open/message/close/error) and the
//     externally-driven Tick are serialized, so registry mutation needs
//     no further coordination. One tick runs the idle reaper, then the
//     negotiator, dispatcher and broadcaster phases over every
//     authenticated connection.
//
//   - PollSession: one execution context per connection, looping with
//     fixed pacing. Each iteration detects transport disconnect, skips
//     all phases while the device is backgrounded, runs the same three
//     authenticated phases for its one connection, and emits a
//     heartbeat marker after a fixed number of idle iterations.
//
// Both adapters share the same phase implementations; they differ only
// in pacing, iteration and framing, which is where the two transports'
// historical behavior differences (combined infos frames and array
// wrapping on the polling path) are kept explicit.
//
// Known narrow race: two concurrent polling authentications for the same
// identity may interleave their device-record session stamps; the
// multiplexer cannot race by construction. The registry itself always
// converges on a single session per identity.
package gateway
