// Package log provides structured protocol logging for the homesync
// gateway.
//
// This package defines the Logger interface and Event types for capturing
// protocol-level events: envelopes in and out, connection/session state
// changes, and errors. It is separate from operational logging (slog) -
// protocol capture provides a complete machine-readable event trace for
// debugging client synchronization issues.
//
// # Basic Usage
//
// Applications configure logging by providing a Logger implementation:
//
//	// For development: log to console via slog
//	cfg.ProtocolLogger = log.NewSlogAdapter(slog.Default())
//
//	// For production: write to binary file
//	cfg.ProtocolLogger, _ = log.NewFileLogger("/var/log/homesync/gateway.hslog")
//
//	// Both: use MultiLogger
//	cfg.ProtocolLogger = log.NewMultiLogger(
//	    log.NewSlogAdapter(slog.Default()),
//	    log.NewFileLogger("/var/log/homesync/gateway.hslog"),
//	)
//
// # File Format
//
// Log files are a stream of CBOR-encoded events with integer keys
// (.hslog extension). Reader iterates a file, optionally filtered by
// connection, identity, transport, direction or time range.
package log
