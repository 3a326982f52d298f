// Package future provides a one-shot asynchronous value (Future/Promise)
// with continuations, executor binding, and unwrapping of nested futures.
//
// A Promise produces at most one Future. The Future is consumed at most
// once, either by Get or by Then. Setting a value twice fails with
// ErrPromiseAlreadySatisfied; getting from a consumed Future fails with
// ErrNoState.
package future

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
)

// Executor schedules a zero-argument task for later execution. A nil
// Executor means "run inline", on whichever goroutine resolved the state.
type Executor func(task func())

func run(exec Executor, task func()) {
	if exec == nil {
		task()
		return
	}
	exec(task)
}

type sharedState[T any] struct {
	mu         sync.Mutex
	done       chan struct{}
	value      T
	err        error
	ready      bool
	consumed   atomic.Bool
	retrieved  atomic.Bool
	cont     func()
	contExec Executor
}

func newState[T any]() *sharedState[T] {
	return &sharedState[T]{done: make(chan struct{})}
}

func (s *sharedState[T]) resolve(v T, err error) error {
	s.mu.Lock()
	if s.ready {
		s.mu.Unlock()
		return ErrPromiseAlreadySatisfied
	}
	s.value = v
	s.err = err
	s.ready = true
	cont, exec := s.cont, s.contExec
	s.cont, s.contExec = nil, nil
	close(s.done)
	s.mu.Unlock()

	if cont != nil {
		run(exec, cont)
	}
	return nil
}

func (s *sharedState[T]) tryResolve(v T, err error) bool {
	return s.resolve(v, err) == nil
}

// onReady arms cb to run, via exec, the first time the state becomes ready.
// If the state is already ready, cb runs (via exec) before onReady returns.
func (s *sharedState[T]) onReady(exec Executor, cb func()) {
	s.mu.Lock()
	if s.ready {
		s.mu.Unlock()
		run(exec, cb)
		return
	}
	s.cont, s.contExec = cb, exec
	s.mu.Unlock()
}

func (s *sharedState[T]) markConsumed() bool {
	return s.consumed.CompareAndSwap(false, true)
}

// Promise is the write side of a one-shot asynchronous value.
type Promise[T any] struct {
	st *sharedState[T]
}

// Future is the read side of a one-shot asynchronous value.
type Future[T any] struct {
	st *sharedState[T]
}

// New creates a fresh promise/future pair in the empty state.
func New[T any]() (*Promise[T], *Future[T]) {
	st := newState[T]()
	st.retrieved.Store(true) // the future is handed out here, with the promise
	p := &Promise[T]{st: st}
	runtime.SetFinalizer(p, func(p *Promise[T]) {
		st.tryResolve(*new(T), ErrBrokenPromise)
	})
	return p, &Future[T]{st: st}
}

// Future returns the future associated with this promise if it has not been
// handed out yet, and fails with ErrFutureAlreadyRetrieved otherwise. New
// hands out the future together with the promise, so on a promise made by
// New this always fails.
func (p *Promise[T]) Future() (*Future[T], error) {
	if !p.st.retrieved.CompareAndSwap(false, true) {
		return nil, ErrFutureAlreadyRetrieved
	}
	return &Future[T]{st: p.st}, nil
}

// SetValue resolves the promise with a value. Fails with
// ErrPromiseAlreadySatisfied if already resolved.
func (p *Promise[T]) SetValue(v T) error {
	return p.st.resolve(v, nil)
}

// SetException resolves the promise with a failure.
func (p *Promise[T]) SetException(err error) error {
	return p.st.resolve(*new(T), err)
}

// TrySetValue resolves the promise with a value, silently discarding the
// attempt if already resolved.
func (p *Promise[T]) TrySetValue(v T) bool {
	return p.st.tryResolve(v, nil)
}

// TrySetException resolves the promise with a failure, silently discarding
// the attempt if already resolved.
func (p *Promise[T]) TrySetException(err error) bool {
	return p.st.tryResolve(*new(T), err)
}

// Get blocks until the future is ready and returns its value or failure.
// It consumes the future; a second call fails with ErrNoState.
func (f *Future[T]) Get() (T, error) {
	return f.GetContext(context.Background())
}

// GetContext is like Get but also returns early with ctx.Err() if ctx is
// done before the future becomes ready.
func (f *Future[T]) GetContext(ctx context.Context) (T, error) {
	var zero T
	if !f.st.markConsumed() {
		return zero, ErrNoState
	}
	select {
	case <-f.st.done:
		return f.st.value, f.st.err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Wait blocks until the future is ready or ctx is done, without consuming
// the future. Used to implement wait_for/wait_until style timeouts: the
// caller may discard the future afterwards while the underlying work
// continues to completion.
func (f *Future[T]) Wait(ctx context.Context) error {
	select {
	case <-f.st.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Ready reports whether the future's value or failure has been set, without
// consuming it.
func (f *Future[T]) Ready() bool {
	select {
	case <-f.st.done:
		return true
	default:
		return false
	}
}

// Then attaches a continuation and invalidates f. fn runs, via exec (nil for
// inline, on the resolver's goroutine), exactly once after f becomes ready.
// The returned future resolves with fn's result.
func Then[T, R any](f *Future[T], fn func(T, error) (R, error), exec Executor) (*Future[R], error) {
	if !f.st.markConsumed() {
		return nil, ErrNoState
	}
	p, out := New[R]()
	f.st.onReady(exec, func() {
		v, rerr := fn(f.st.value, f.st.err)
		if rerr != nil {
			p.SetException(rerr)
		} else {
			p.SetValue(v)
		}
	})
	return out, nil
}

// Unwrap flattens a Future of a Future into a Future whose readiness tracks
// the inner future.
func Unwrap[T any](outer *Future[*Future[T]]) (*Future[T], error) {
	p, inner := New[T]()
	_, err := Then(outer, func(innerFut *Future[T], oerr error) (struct{}, error) {
		if oerr != nil {
			p.SetException(oerr)
			return struct{}{}, nil
		}
		if innerFut == nil {
			p.SetException(ErrBrokenPromise)
			return struct{}{}, nil
		}
		_, terr := Then(innerFut, func(v T, ierr error) (struct{}, error) {
			if ierr != nil {
				p.SetException(ierr)
			} else {
				p.SetValue(v)
			}
			return struct{}{}, nil
		}, nil)
		return struct{}{}, terr
	}, nil)
	if err != nil {
		return nil, err
	}
	return inner, nil
}

// Ready returns an already-resolved future carrying v.
func Ready[T any](v T) *Future[T] {
	p, f := New[T]()
	p.SetValue(v)
	return f
}

// Failed returns an already-resolved future carrying err.
func Failed[T any](err error) *Future[T] {
	p, f := New[T]()
	p.SetException(err)
	return f
}
