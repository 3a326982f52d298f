package future

import "errors"

var (
	// ErrPromiseAlreadySatisfied is returned by SetValue/SetException when the
	// shared state has already left the empty state.
	ErrPromiseAlreadySatisfied = errors.New("future: promise already satisfied")

	// ErrBrokenPromise is returned by Get when the promise side was dropped
	// without ever resolving the shared state.
	ErrBrokenPromise = errors.New("future: broken promise")

	// ErrNoState is returned by Get/Then on a future that has already been
	// consumed once.
	ErrNoState = errors.New("future: no state, future already consumed")

	// ErrFutureAlreadyRetrieved is returned by Promise.Future when the
	// promise's future has already been handed out (New always does so).
	ErrFutureAlreadyRetrieved = errors.New("future: future already retrieved")
)
