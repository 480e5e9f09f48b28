package stomp

import "errors"

// Header and codec decode errors.
var (
	errMissingColon       = errors.New("stomp: header line has no unescaped colon")
	errInvalidEscape      = errors.New("stomp: invalid header escape sequence")
	errUnterminatedEscape = errors.New("stomp: header value ends mid escape sequence")
	errBadContentLength   = errors.New("stomp: content-length header is not a valid non-negative integer")
	errUnexpectedNull     = errors.New("stomp: expected a single NUL terminator after frame body")
)

// ErrTxDone is returned when a transaction is used after it has already
// been committed or aborted.
var ErrTxDone = errors.New("stomp: transaction has already been committed or aborted")

// ErrSessionNotConnected is returned (as a warning-level condition, not a
// panic) when a caller attempts to send on a session that has not yet
// completed its CONNECT handshake.
var ErrSessionNotConnected = errors.New("stomp: session is not connected")

// ErrSessionClosed is returned when a caller attempts to use a session
// that has already transitioned to Disconnected.
var ErrSessionClosed = errors.New("stomp: session is closed")

// ErrUnsubscribeUnknown is returned by Unsubscribe for an id that is not
// (or is no longer) present in the subscription registry.
var ErrUnsubscribeUnknown = errors.New("stomp: unknown subscription id")

var errTLSHandshakeTimeout = errors.New("stomp: tls handshake timed out")
