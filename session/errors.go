package session

import "errors"

var (
	// ErrNotConnected is returned by operations that require a live
	// transport (push, invoke) when called before connect succeeds.
	ErrNotConnected = errors.New("session: not connected")

	// ErrAlreadyConnecting is returned by connect/connectAll when a dial
	// is already in flight.
	ErrAlreadyConnecting = errors.New("session: connect already in progress")

	// ErrAlreadyConnected is returned by connect/connectAll when the
	// session already has a live transport.
	ErrAlreadyConnected = errors.New("session: already connected")

	// ErrOperationAborted is the terminal error delivered to every
	// outstanding future and channel when the session disconnects.
	ErrOperationAborted = errors.New("session: operation aborted by disconnect")

	// ErrNoEndpoints is returned by connectAll when given an empty
	// endpoint list.
	ErrNoEndpoints = errors.New("session: no endpoints given")

	// ErrUnknownSpan is logged (not returned) when a frame arrives for a
	// span with no live channel — a revoked or never-registered span.
	ErrUnknownSpan = errors.New("session: frame for unknown span")
)
