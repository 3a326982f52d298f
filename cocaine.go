// Package cocaine is the typed facade over a cocaine RPC session: dial
// once, invoke named events by tag, and get back a Sender/Receiver pair
// shaped by the event's registered wire protocol.
package cocaine

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/danmuck/cocaine/future"
	"github.com/danmuck/cocaine/session"
	"github.com/danmuck/cocaine/wire"
)

// Session is a named-event view onto a session.BasicSession: it resolves
// event tags through an EventRegistry and hides span bookkeeping from
// callers.
type Session struct {
	basic    *session.BasicSession
	registry wire.EventRegistry

	connMu     sync.Mutex
	connecting *future.Future[error] // non-nil while a connect/connectAll is in flight
}

// New builds a facade over a fresh BasicSession. registry resolves tags
// passed to Invoke/Push into wire protocols.
func New(cfg session.Config, registry wire.EventRegistry, logger zerolog.Logger) *Session {
	return &Session{
		basic:    session.NewBasicSession(cfg, logger),
		registry: registry,
	}
}

// Connect dials ep. Concurrent callers latch onto the same in-flight
// future instead of racing separate dials.
func (s *Session) Connect(ctx context.Context, ep wire.Endpoint) *future.Future[error] {
	return s.connectVia(func() *future.Future[error] {
		return s.basic.Connect(ctx, ep)
	})
}

// ConnectAll dials the first endpoint in eps that accepts, trying each in
// order. Concurrent callers latch onto the same in-flight future.
func (s *Session) ConnectAll(ctx context.Context, eps []wire.Endpoint) *future.Future[error] {
	return s.connectVia(func() *future.Future[error] {
		return s.basic.ConnectAll(ctx, eps)
	})
}

func (s *Session) connectVia(dial func() *future.Future[error]) *future.Future[error] {
	s.connMu.Lock()
	if s.connecting != nil {
		f := s.connecting
		s.connMu.Unlock()
		return f
	}
	p, f := future.New[error]()
	s.connecting = f
	s.connMu.Unlock()

	go func() {
		err, getErr := dial().Get()
		if getErr != nil {
			err = getErr
		}
		p.SetValue(err)

		s.connMu.Lock()
		if s.connecting == f {
			s.connecting = nil
		}
		s.connMu.Unlock()
	}()
	return f
}

// Connected reports whether the underlying transport is currently live.
func (s *Session) Connected() bool {
	return s.basic.Connected()
}

// Disconnect idempotently tears down the transport and fails every
// outstanding channel.
func (s *Session) Disconnect() {
	s.basic.Disconnect()
}

// Invoke opens a channel for the named event, encoding args as the
// initial message. The event's dispatch/upstream protocol comes from the
// session's EventRegistry; an unregistered tag fails with
// wire.ErrUnknownEvent.
func Invoke[Args any](ctx context.Context, s *Session, tag string, args Args) (*session.Sender, *session.Receiver, error) {
	desc, ok := s.registry.Lookup(tag)
	if !ok {
		return nil, nil, wire.ErrUnknownEvent
	}

	span := s.basic.Next()
	frame, err := wire.EncodeBytes(span, desc.InitialType, args)
	if err != nil {
		return nil, nil, err
	}

	ch, err := s.basic.Invoke(ctx, span, frame, desc.Upstream).Get()
	if err != nil {
		return nil, nil, err
	}
	return ch.Tx, ch.Rx, nil
}

// Push sends a one-shot, mute-upstream message for tag: fire, forget, no
// receiver. Most cocaine events used purely as notifications take this
// path.
func Push(ctx context.Context, s *Session, tag string, args any) error {
	desc, ok := s.registry.Lookup(tag)
	if !ok {
		return wire.ErrUnknownEvent
	}

	span := s.basic.Next()
	frame, err := wire.EncodeBytes(span, desc.InitialType, args)
	if err != nil {
		return err
	}

	if _, err := s.basic.Invoke(ctx, span, frame, wire.NewProtocol(nil)).Get(); err != nil {
		return err
	}
	return nil
}
