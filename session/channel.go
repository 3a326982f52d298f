package session

import (
	"context"

	"github.com/danmuck/cocaine/future"
	"github.com/danmuck/cocaine/stream"
	"github.com/danmuck/cocaine/wire"
)

// Sender is the write half of a channel: a non-owning back-reference to the
// session that pushes frames tagged with this channel's span. It holds no
// state of its own beyond the span, so a Sender outliving its Channel is
// harmless. Push does not check whether the span is still live: frames on a
// revoked span are still written, and any reply to them is dropped by the
// read loop as a frame for an unknown span.
type Sender struct {
	span uint64
	sess *BasicSession
}

// Push encodes and writes one frame of type typ with the given args,
// tagged with the sender's span. The returned future resolves once the
// frame has been handed to the transport, not once it's acknowledged.
func (s *Sender) Push(ctx context.Context, typ uint64, args any) *future.Future[struct{}] {
	frame, err := wire.EncodeBytes(s.span, typ, args)
	if err != nil {
		p, f := future.New[struct{}]()
		p.SetException(err)
		return f
	}
	return s.sess.Push(ctx, frame)
}

// Span returns the channel span this sender writes to.
func (s *Sender) Span() uint64 { return s.span }

// Receiver is the read half of a channel: a generator of decoded frames
// produced by the session's read loop as they arrive on this span.
type Receiver struct {
	span uint64
	gen  *stream.Generator[wire.Frame]
}

// Next blocks for the next frame on this channel, or returns stream.ErrStreamClosed
// once the upstream protocol reaches a terminal ("choke") message.
func (r *Receiver) Next(ctx context.Context) (wire.Frame, error) {
	return r.gen.Next(ctx)
}

// Span returns the channel span this receiver reads from.
func (r *Receiver) Span() uint64 { return r.span }

// channel is the session-owned record for one in-flight invocation: the
// sender is a weak reference (the Sender struct above holds the only
// session pointer a caller sees), while the stream.Stream push-side is the
// sole owning edge back to the receiver's buffered state. Removing a
// channel's map entry is what actually lets everything get collected.
type channel struct {
	span     uint64
	upstream *wire.Protocol
	push     *stream.Stream[wire.Frame]
	recv     *Receiver
}

// Channel is the pair of halves returned to an invoker: tx may be used to
// send further frames on this span (for upstream protocols that allow
// it), rx receives frames dispatched back on this span.
type Channel struct {
	Span uint64
	Tx   *Sender
	Rx   *Receiver
}
