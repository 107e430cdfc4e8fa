// Package discovery advertises the gateway on the local network via
// mDNS/DNS-SD so mobile clients can find it without manual addressing.
package discovery
