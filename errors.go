package socket

import (
	"errors"
)

// Errors reported by framing, transport and message operations.
//
// Per-connection failures are delivered to disconnect listeners wrapped
// around one of these values, so callers should match them with errors.Is.
// Context is added at the failure site with github.com/pkg/errors.
var (
	// ErrFraming is returned when a frame header is malformed.
	ErrFraming = errors.New("malformed frame")
	// ErrFrameTooLarge is returned when a frame exceeds the configured maximum size.
	ErrFrameTooLarge = errors.New("frame too large")
	// ErrTransport wraps low-level read/write/accept failures.
	ErrTransport = errors.New("transport failure")
	// ErrPeerClosed is returned when the remote side closed the connection.
	ErrPeerClosed = errors.New("peer closed connection")
	// ErrTimeout is returned when a client waits for readiness without progress.
	ErrTimeout = errors.New("timed out waiting for readiness")

	// ErrNoData is returned by Message getters when no item is left.
	ErrNoData = errors.New("no data available")
	// ErrDecodeType is returned when an item cannot be decoded as the requested type.
	ErrDecodeType = errors.New("item does not match requested type")
	// ErrMessageFrozen is returned when putting into a message that was already sent.
	ErrMessageFrozen = errors.New("message is frozen")

	// ErrSwapperAbort is reported when a swapper declines to produce a message.
	ErrSwapperAbort = errors.New("swapper aborted exchange")

	// ErrServerClosed is returned by Serve after Close has been called.
	ErrServerClosed = errors.New("server closed")
	// ErrReactorClosed is the disconnect cause of connections still open at shutdown.
	ErrReactorClosed = errors.New("reactor closed")
	// ErrUnsupportedPlatform is returned where no readiness primitive is available.
	ErrUnsupportedPlatform = errors.New("reactor not supported on this platform")

	// ErrInvalidSwapper is returned when no swapper or swapper factory is available.
	ErrInvalidSwapper = errors.New("invalid swapper")
)

// TransportError records a failed socket operation.
// It matches ErrTransport with errors.Is and unwraps to the system error.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return e.Op + ": " + ErrTransport.Error() + ": " + e.Err.Error()
}

// Is reports whether target is ErrTransport.
func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func transportError(op string, err error) error {
	return &TransportError{Op: op, Err: err}
}
