// Package transport exposes the two client-facing HTTP endpoints: the
// WebSocket endpoint feeding the multiplexed adapter and the SSE
// endpoint backed by one polling session per request. Both speak JSON;
// framing differs per transport (text frames vs data: lines, with the
// stream's historical array wrapping of envelopes).
package transport
