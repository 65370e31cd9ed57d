// Package errs defines the error taxonomy shared across the pipeline.
// Callers wrap these sentinels with fmt.Errorf("...: %w", ...) and test
// membership with errors.Is, matching the convention used throughout the
// rest of this module.
package errs

import "errors"

var (
	// ErrConfig marks a missing or invalid required configuration value.
	// Fatal at startup.
	ErrConfig = errors.New("config error")

	// ErrTransientNetwork marks a connect/send/read failure, a single
	// frame's parse failure that aborted the connection, or the 120s
	// inactivity timeout. Recovered by session-local reconnect.
	ErrTransientNetwork = errors.New("transient network error")

	// ErrPayloadParse marks a single update that could not be parsed
	// numerically. The offending update is dropped; the session continues.
	ErrPayloadParse = errors.New("payload parse error")

	// ErrCollaborator marks a watchlist-producer, executor, or
	// position-monitor failure. Logged, never fatal.
	ErrCollaborator = errors.New("collaborator error")

	// ErrChannelFull marks outbound signal back-pressure after the send
	// timeout elapsed. The signal is dropped, the session continues.
	ErrChannelFull = errors.New("outbound channel full")

	// ErrChannelClosed marks a closed outbound channel. The emitting
	// session logs it and drops the signal; the session does not terminate
	// and keeps streaming.
	ErrChannelClosed = errors.New("outbound channel closed")
)
