// Package wire implements the session's MessagePack frame codec: each frame
// on the wire is a 3-element array [span:uint, type:uint, args:array],
// concatenated on the stream with no separator, bit-identical to the
// surrounding ecosystem's existing RPC protocol. It also carries the small
// event-registry surface the typed session facade consumes.
package wire

import (
	"bufio"
	"bytes"
	"errors"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

// Frame is one complete wire message: a span, a channel-opaque type code,
// and the msgpack-encoded argument array.
type Frame struct {
	Span uint64
	Type uint64
	Args msgpack.RawMessage
}

// Encode writes a frame to w: [span, type, args].
func Encode(w io.Writer, span, typ uint64, args any) error {
	enc := msgpack.NewEncoder(w)
	if err := enc.EncodeArrayLen(3); err != nil {
		return err
	}
	if err := enc.EncodeUint64(span); err != nil {
		return err
	}
	if err := enc.EncodeUint64(typ); err != nil {
		return err
	}
	return enc.Encode(args)
}

// EncodeBytes is Encode into a fresh byte slice, for callers that need a
// pre-encoded frame (e.g. BasicSession.Invoke's contract).
func EncodeBytes(span, typ uint64, args any) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, span, typ, args); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decoder incrementally decodes frames from a buffered byte stream, such as
// a bufio.Reader wrapping a net.Conn. Decode blocks on short reads the same
// way the underlying reader does; a connection that closes mid-frame
// surfaces as ErrDecodeFailed, the same fatal path as any other decode
// error.
type Decoder struct {
	dec *msgpack.Decoder
}

// NewDecoder wraps r for incremental frame decoding.
func NewDecoder(r *bufio.Reader) *Decoder {
	return &Decoder{dec: msgpack.NewDecoder(r)}
}

// Decode reads the next frame. It returns ErrDecodeFailed on malformed
// input (wrong arity, non-integer span/type). An io error hit before the
// frame's first byte (such as a clean EOF) is returned unchanged, while one
// hit inside a frame is reported as ErrDecodeFailed, so callers can
// distinguish a clean EOF from a torn frame.
func (d *Decoder) Decode() (Frame, error) {
	n, err := d.dec.DecodeArrayLen()
	if err != nil {
		return Frame{}, err
	}
	if n != 3 {
		return Frame{}, ErrDecodeFailed
	}
	span, err := d.dec.DecodeUint64()
	if err != nil {
		return Frame{}, ErrDecodeFailed
	}
	typ, err := d.dec.DecodeUint64()
	if err != nil {
		return Frame{}, ErrDecodeFailed
	}
	var raw msgpack.RawMessage
	if err := d.dec.Decode(&raw); err != nil {
		return Frame{}, ErrDecodeFailed
	}
	return Frame{Span: span, Type: typ, Args: raw}, nil
}

// TryDecode is the non-blocking form named in the framing contract: it
// decodes a frame from buf without waiting for more bytes, reporting
// ErrNeedMore (with consumed=0) when buf holds less than one complete
// frame. On success it returns the number of bytes the frame occupied.
func TryDecode(buf []byte) (frame Frame, consumed int, err error) {
	r := bytes.NewReader(buf)
	dec := msgpack.NewDecoder(r)

	n, derr := dec.DecodeArrayLen()
	if derr != nil {
		return Frame{}, 0, needMoreOr(derr)
	}
	if n != 3 {
		return Frame{}, 0, ErrDecodeFailed
	}
	span, derr := dec.DecodeUint64()
	if derr != nil {
		return Frame{}, 0, needMoreOr(derr)
	}
	typ, derr := dec.DecodeUint64()
	if derr != nil {
		return Frame{}, 0, needMoreOr(derr)
	}
	var raw msgpack.RawMessage
	if derr := dec.Decode(&raw); derr != nil {
		return Frame{}, 0, needMoreOr(derr)
	}
	consumed = len(buf) - r.Len()
	return Frame{Span: span, Type: typ, Args: raw}, consumed, nil
}

func needMoreOr(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return ErrNeedMore
	}
	return ErrDecodeFailed
}

// UnmarshalArgs decodes a frame's raw argument array into out.
func UnmarshalArgs(f Frame, out any) error {
	return msgpack.Unmarshal(f.Args, out)
}
