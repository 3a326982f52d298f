package stream

import "errors"

// ErrStreamClosed is returned by Next when the stream is closed and the
// queue is empty and any stored exception has already been observed.
var ErrStreamClosed = errors.New("stream: closed")
