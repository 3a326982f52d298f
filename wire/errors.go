package wire

import "errors"

var (
	// ErrNeedMore is returned by TryDecode when its buffer holds less than
	// one complete frame. It is not a hard failure: the caller should retry
	// once more bytes have arrived. Decoder.Decode blocks instead.
	ErrNeedMore = errors.New("wire: need more bytes")

	// ErrDecodeFailed is returned for malformed frames (wrong array arity,
	// non-integer span/type, corrupt msgpack). Fatal for the session: the
	// same path as a transport error.
	ErrDecodeFailed = errors.New("wire: decode failed")

	// ErrUnknownEvent is returned by an EventRegistry lookup miss.
	ErrUnknownEvent = errors.New("wire: unknown event")
)
