// Package stream provides a multi-value asynchronous sequence (Stream/
// Generator) built on the same at-most-once-termination pattern as the
// future package, with Then (once), Map (per-item), and Gather (collect on
// close) continuation forms.
package stream

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/danmuck/cocaine/future"
)

// observer is the single active continuation registered on a generator via
// Then, Map, or Gather. At most one may be armed per stream.
type observer[T any] struct {
	exec future.Executor

	// onItem fires once per pushed item (Map).
	onItem func(T)

	// onFirst fires exactly once, on the first of item-available,
	// exception-set, or closed (Then).
	onFirst func()

	// onTerminal fires exactly once when the stream becomes terminal,
	// either via SetException (err != nil) or Close (err == nil) (Map, Gather).
	onTerminal func(err error, queueAtClose []T)
}

type state[T any] struct {
	mu     sync.Mutex
	queue  []T
	err    error
	closed bool
	waitCh chan struct{}

	armed    atomic.Bool
	obs      *observer[T]
	obsFired bool
}

func newState[T any]() *state[T] {
	return &state[T]{waitCh: make(chan struct{})}
}

func (s *state[T]) wake() {
	close(s.waitCh)
	s.waitCh = make(chan struct{})
}

func run(exec future.Executor, task func()) {
	if exec == nil {
		task()
		return
	}
	exec(task)
}

// push appends v to the queue. Rejected with future.ErrPromiseAlreadySatisfied
// if the stream is already closed.
func (s *state[T]) push(v T) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return future.ErrPromiseAlreadySatisfied
	}
	s.queue = append(s.queue, v)
	s.wake()

	var thunks []func()
	if s.obs != nil {
		if s.obs.onItem != nil {
			cb := s.obs.onItem
			thunks = append(thunks, func() { cb(v) })
		}
		if s.obs.onFirst != nil && !s.obsFired {
			s.obsFired = true
			thunks = append(thunks, s.obs.onFirst)
		}
	}
	exec := s.execFor()
	s.mu.Unlock()

	for _, t := range thunks {
		run(exec, t)
	}
	return nil
}

func (s *state[T]) execFor() future.Executor {
	if s.obs == nil {
		return nil
	}
	return s.obs.exec
}

// terminate closes the stream, optionally recording err. Rejected with
// future.ErrPromiseAlreadySatisfied if already closed.
func (s *state[T]) terminate(err error) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return future.ErrPromiseAlreadySatisfied
	}
	s.err = err
	s.closed = true
	s.wake()

	var thunks []func()
	if s.obs != nil {
		if s.obs.onFirst != nil && !s.obsFired {
			s.obsFired = true
			thunks = append(thunks, s.obs.onFirst)
		}
		if s.obs.onTerminal != nil {
			snapshot := append([]T(nil), s.queue...)
			terr := err
			cb := s.obs.onTerminal
			thunks = append(thunks, func() { cb(terr, snapshot) })
		}
	}
	exec := s.execFor()
	s.mu.Unlock()

	for _, t := range thunks {
		run(exec, t)
	}
	return nil
}

// tryPop removes and returns the next value or the stored exception. The
// third return is false when nothing is available yet (caller should wait).
func (s *state[T]) tryPop() (v T, err error, ok bool) {
	if len(s.queue) > 0 {
		v = s.queue[0]
		s.queue = s.queue[1:]
		return v, nil, true
	}
	if s.err != nil {
		err = s.err
		s.err = nil
		return v, err, true
	}
	return v, nil, false
}

// arm registers obs as the stream's sole continuation consumer, invalidating
// direct Next() use. Fails with future.ErrNoState if already armed.
func (s *state[T]) arm(obs *observer[T]) error {
	if !s.armed.CompareAndSwap(false, true) {
		return future.ErrNoState
	}
	s.mu.Lock()
	s.obs = obs

	var thunks []func()
	if obs.onItem != nil {
		for _, v := range s.queue {
			v := v
			thunks = append(thunks, func() { obs.onItem(v) })
		}
	}
	if obs.onFirst != nil && !s.obsFired && (len(s.queue) > 0 || s.closed) {
		s.obsFired = true
		thunks = append(thunks, obs.onFirst)
	}
	if obs.onTerminal != nil && s.closed {
		snapshot := append([]T(nil), s.queue...)
		terr := s.err
		thunks = append(thunks, func() { obs.onTerminal(terr, snapshot) })
	}
	exec := obs.exec
	s.mu.Unlock()

	for _, t := range thunks {
		run(exec, t)
	}
	return nil
}

// Stream is the write end of a multi-value asynchronous sequence.
type Stream[T any] struct {
	st *state[T]
}

// Generator is the read end of a multi-value asynchronous sequence.
type Generator[T any] struct {
	st *state[T]

	// cont marks the handle Then passes to its callback, which may still
	// read the stream after the generator itself has been invalidated.
	cont bool
}

// New creates a fresh stream/generator pair.
func New[T any]() (*Stream[T], *Generator[T]) {
	st := newState[T]()
	return &Stream[T]{st: st}, &Generator[T]{st: st}
}

// Push appends v. Fails with future.ErrPromiseAlreadySatisfied if closed.
func (s *Stream[T]) Push(v T) error { return s.st.push(v) }

// TryPush is Push, silently discarding the attempt if closed.
func (s *Stream[T]) TryPush(v T) bool { return s.st.push(v) == nil }

// SetException records a terminal failure, closing the stream.
func (s *Stream[T]) SetException(err error) error { return s.st.terminate(err) }

// TrySetException is SetException, silently discarding the attempt if closed.
func (s *Stream[T]) TrySetException(err error) bool { return s.st.terminate(err) == nil }

// Close marks end-of-stream.
func (s *Stream[T]) Close() error { return s.st.terminate(nil) }

// TryClose is Close, silently discarding the attempt if already closed.
func (s *Stream[T]) TryClose() bool { return s.st.terminate(nil) == nil }

// Next returns the next value, rethrows the stored exception (clearing it),
// or fails with ErrStreamClosed if closed and empty. Fails with
// future.ErrNoState if a continuation form (Then/Map/Gather) has already
// taken over the generator.
func (g *Generator[T]) Next(ctx context.Context) (T, error) {
	s := g.st
	for {
		s.mu.Lock()
		if s.armed.Load() && !g.cont {
			s.mu.Unlock()
			var zero T
			return zero, future.ErrNoState
		}
		if v, err, ok := s.tryPop(); ok {
			s.mu.Unlock()
			return v, err
		}
		if s.closed {
			s.mu.Unlock()
			var zero T
			return zero, ErrStreamClosed
		}
		ch := s.waitCh
		s.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		}
	}
}

// Then arms a one-shot callback fired on the first of: item available,
// exception set, or closed. Invalidates g. f receives a generator over the
// same stream that can still read it with Next; the returned future carries
// f's result.
func Then[T, R any](g *Generator[T], f func(*Generator[T]) (R, error), exec future.Executor) (*future.Future[R], error) {
	p, out := future.New[R]()
	obs := &observer[T]{exec: exec}
	obs.onFirst = func() {
		v, err := f(&Generator[T]{st: g.st, cont: true})
		if err != nil {
			p.SetException(err)
		} else {
			p.SetValue(v)
		}
	}
	if err := g.st.arm(obs); err != nil {
		return nil, err
	}
	return out, nil
}

// Map arms a per-item callback and returns a new generator whose items are
// the futures of each f application. The callback fires once per pushed
// item; the input's terminal exception or close is forwarded to the output
// stream once, with no further invocations.
func Map[T, R any](g *Generator[T], f func(T) (R, error), exec future.Executor) (*Generator[*future.Future[R]], error) {
	out, outGen := New[*future.Future[R]]()
	obs := &observer[T]{exec: exec}
	obs.onItem = func(v T) {
		r, err := f(v)
		if err != nil {
			out.Push(future.Failed[R](err))
		} else {
			out.Push(future.Ready(r))
		}
	}
	obs.onTerminal = func(err error, _ []T) {
		if err != nil {
			out.SetException(err)
		} else {
			out.Close()
		}
	}
	if err := g.st.arm(obs); err != nil {
		return nil, err
	}
	return outGen, nil
}

// Gather arms a close-callback and yields a future of the accumulated queue
// at close time, or the stored exception. Invalidates the generator.
func Gather[T any](g *Generator[T], exec future.Executor) (*future.Future[[]T], error) {
	p, out := future.New[[]T]()
	obs := &observer[T]{exec: exec}
	obs.onTerminal = func(err error, queueAtClose []T) {
		if err != nil {
			p.SetException(err)
		} else {
			p.SetValue(queueAtClose)
		}
	}
	if err := g.st.arm(obs); err != nil {
		return nil, err
	}
	return out, nil
}
