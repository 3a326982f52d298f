package session

import (
	"bufio"
	"context"
	"net"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/danmuck/cocaine/future"
	"github.com/danmuck/cocaine/stream"
	"github.com/danmuck/cocaine/wire"
)

const (
	stateDisconnected int32 = iota
	stateConnecting
	stateConnected
)

type writeRequest struct {
	frame   []byte
	promise *future.Promise[struct{}]
}

// BasicSession is the untyped transport core of a cocaine RPC connection:
// one dial, one read loop, one write loop, and a span-keyed table of live
// channels. It knows nothing about event names or argument shapes — that
// lives one layer up, in the typed facade.
type BasicSession struct {
	cfg    Config
	logger zerolog.Logger

	state   atomic.Int32
	connMu  sync.Mutex // guards conn + connect/disconnect transitions
	conn    net.Conn
	writeCh chan writeRequest
	done    chan struct{}
	wg      sync.WaitGroup

	nextSpan atomic.Uint64

	chMu     sync.Mutex
	channels map[uint64]*channel

	disconnectOnce sync.Once
}

// NewBasicSession constructs a session ready to dial. cfg is normalized
// with WithDefaults.
func NewBasicSession(cfg Config, logger zerolog.Logger) *BasicSession {
	s := &BasicSession{
		cfg:      cfg.WithDefaults(),
		logger:   logger,
		channels: make(map[uint64]*channel),
	}
	s.nextSpan.Store(1) // span 0 is reserved
	return s
}

// Connected reports whether the session currently has a live transport.
func (s *BasicSession) Connected() bool {
	return s.state.Load() == stateConnected
}

// Next allocates the next span for this session. Span 0 is reserved, so
// the first call returns 1.
func (s *BasicSession) Next() uint64 {
	return s.nextSpan.Add(1) - 1
}

// Connect dials ep and, on success, starts the session's I/O goroutines.
// It fails immediately with ErrAlreadyConnecting if a dial is already in
// flight, or ErrAlreadyConnected if the session already has a live
// transport.
func (s *BasicSession) Connect(ctx context.Context, ep wire.Endpoint) *future.Future[error] {
	p, f := future.New[error]()

	if !s.state.CompareAndSwap(stateDisconnected, stateConnecting) {
		if s.state.Load() == stateConnected {
			p.SetValue(ErrAlreadyConnected)
		} else {
			p.SetValue(ErrAlreadyConnecting)
		}
		return f
	}

	conn, err := dial(ctx, ep, s.cfg)
	if err != nil {
		s.state.Store(stateDisconnected)
		p.SetValue(err)
		return f
	}

	s.connMu.Lock()
	s.conn = conn
	s.writeCh = make(chan writeRequest, s.cfg.WriteQueueDepth)
	s.done = make(chan struct{})
	s.connMu.Unlock()

	s.state.Store(stateConnected)
	s.wg.Add(2)
	go s.readLoop(conn, s.done)
	go s.writeLoop(conn, s.writeCh, s.done)

	s.logger.Info().Str("endpoint", ep.String()).Msg("session connected")
	p.SetValue(nil)
	return f
}

// ConnectAll tries each endpoint in order, returning the error of the last
// attempt if all of them fail. It never retries a single endpoint and
// never sleeps between attempts — reconnection policy is out of scope.
func (s *BasicSession) ConnectAll(ctx context.Context, eps []wire.Endpoint) *future.Future[error] {
	p, f := future.New[error]()
	if len(eps) == 0 {
		p.SetValue(ErrNoEndpoints)
		return f
	}

	var lastErr error
	for _, ep := range eps {
		attemptFut := s.Connect(ctx, ep)
		err, getErr := attemptFut.Get()
		if getErr != nil {
			p.SetValue(getErr)
			return f
		}
		if err == nil {
			p.SetValue(nil)
			return f
		}
		lastErr = err
	}
	p.SetValue(lastErr)
	return f
}

// Push writes frame on the shared transport and resolves once it has been
// handed to the connection (not once it's acknowledged by the peer).
func (s *BasicSession) Push(ctx context.Context, frame []byte) *future.Future[struct{}] {
	p, f := future.New[struct{}]()

	if !s.Connected() {
		p.SetException(ErrNotConnected)
		return f
	}

	req := writeRequest{frame: frame, promise: p}
	select {
	case s.writeCh <- req:
	case <-s.done:
		p.SetException(ErrOperationAborted)
	case <-ctx.Done():
		p.SetException(ctx.Err())
	}
	return f
}

// Invoke opens a new channel on span, writing frame as the initial message.
// When upstream is mute (spec.md §9(c)), no receiver is allocated and the
// span is never inserted into the channel table, since nothing will ever
// arrive on it.
func (s *BasicSession) Invoke(ctx context.Context, span uint64, frame []byte, upstream *wire.Protocol) *future.Future[Channel] {
	p, f := future.New[Channel]()

	if !s.Connected() {
		p.SetException(ErrNotConnected)
		return f
	}

	tx := &Sender{span: span, sess: s}

	if upstream.Mute() {
		writeFut := s.Push(ctx, frame)
		if _, err := writeFut.Get(); err != nil {
			p.SetException(err)
			return f
		}
		p.SetValue(Channel{Span: span, Tx: tx, Rx: nil})
		return f
	}

	pushSide, gen := stream.New[wire.Frame]()
	ch := &channel{span: span, upstream: upstream, push: pushSide, recv: &Receiver{span: span, gen: gen}}

	s.chMu.Lock()
	s.channels[span] = ch
	s.chMu.Unlock()

	writeFut := s.Push(ctx, frame)
	if _, err := writeFut.Get(); err != nil {
		s.chMu.Lock()
		delete(s.channels, span)
		s.chMu.Unlock()
		p.SetException(err)
		return f
	}

	p.SetValue(Channel{Span: span, Tx: tx, Rx: ch.recv})
	return f
}

// Revoke tears down the channel for span, if any, without notifying the
// peer. It is fire-and-forget and idempotent.
func (s *BasicSession) Revoke(span uint64) {
	s.chMu.Lock()
	ch, ok := s.channels[span]
	if ok {
		delete(s.channels, span)
	}
	s.chMu.Unlock()
	if ok {
		ch.push.TryClose()
	}
}

// Disconnect idempotently tears the session down: closes the transport,
// stops both goroutines, and fails every outstanding channel and queued
// write with ErrOperationAborted.
func (s *BasicSession) Disconnect() {
	s.disconnectOnce.Do(func() {
		s.state.Store(stateDisconnected)

		s.connMu.Lock()
		conn := s.conn
		done := s.done
		writeCh := s.writeCh
		s.connMu.Unlock()

		if done != nil {
			close(done)
		}
		if conn != nil {
			_ = conn.Close()
		}
		s.wg.Wait()

		if writeCh != nil {
		drain:
			for {
				select {
				case req := <-writeCh:
					req.promise.TrySetException(ErrOperationAborted)
				default:
					break drain
				}
			}
		}

		s.chMu.Lock()
		chans := s.channels
		s.channels = make(map[uint64]*channel)
		s.chMu.Unlock()
		for _, ch := range chans {
			ch.push.TrySetException(ErrOperationAborted)
		}

		s.logger.Info().Msg("session disconnected")
	})
}

func (s *BasicSession) readLoop(conn net.Conn, done chan struct{}) {
	defer s.wg.Done()
	dec := wire.NewDecoder(bufio.NewReader(conn))
	for {
		f, err := dec.Decode()
		if err != nil {
			select {
			case <-done:
			default:
				s.logger.Warn().Err(err).Msg("session read loop terminated")
				go s.Disconnect()
			}
			return
		}
		s.dispatch(f)
	}
}

func (s *BasicSession) dispatch(f wire.Frame) {
	s.chMu.Lock()
	ch, ok := s.channels[f.Span]
	s.chMu.Unlock()
	if !ok {
		s.logger.Warn().Uint64("span", f.Span).Msg(ErrUnknownSpan.Error())
		return
	}

	ch.push.TryPush(f)

	if ch.upstream == nil {
		return
	}
	st, known := ch.upstream.Allows(f.Type)
	if !known {
		return
	}
	if st.Terminal {
		s.chMu.Lock()
		delete(s.channels, f.Span)
		s.chMu.Unlock()
		ch.push.TryClose()
		return
	}
	if st.Next != nil {
		s.chMu.Lock()
		if _, stillLive := s.channels[f.Span]; stillLive {
			ch.upstream = st.Next
		}
		s.chMu.Unlock()
	}
}

func (s *BasicSession) writeLoop(conn net.Conn, writeCh chan writeRequest, done chan struct{}) {
	defer s.wg.Done()
	for {
		select {
		case req := <-writeCh:
			_, err := conn.Write(req.frame)
			if err != nil {
				req.promise.TrySetException(err)
				go s.Disconnect()
				return
			}
			req.promise.TrySetValue(struct{}{})
		case <-done:
			return
		}
	}
}
