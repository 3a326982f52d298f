package future

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestSetValueThenGet(t *testing.T) {
	p, f := New[int]()
	if err := p.SetValue(42); err != nil {
		t.Fatalf("set value: %v", err)
	}
	v, err := f.Get()
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if v != 42 {
		t.Fatalf("got=%d want=42", v)
	}
}

func TestSecondSetValueFails(t *testing.T) {
	p, _ := New[int]()
	if err := p.SetValue(1); err != nil {
		t.Fatalf("first set value: %v", err)
	}
	if err := p.SetValue(2); !errors.Is(err, ErrPromiseAlreadySatisfied) {
		t.Fatalf("expected ErrPromiseAlreadySatisfied, got %v", err)
	}
}

func TestTrySetValueDiscardsSecondAttempt(t *testing.T) {
	p, f := New[int]()
	if !p.TrySetValue(1) {
		t.Fatalf("expected first try to succeed")
	}
	if p.TrySetValue(2) {
		t.Fatalf("expected second try to be discarded")
	}
	v, err := f.Get()
	if err != nil || v != 1 {
		t.Fatalf("got=%d err=%v want=1,nil", v, err)
	}
}

func TestGetConsumesFuture(t *testing.T) {
	p, f := New[int]()
	p.SetValue(7)
	if _, err := f.Get(); err != nil {
		t.Fatalf("get: %v", err)
	}
	if _, err := f.Get(); !errors.Is(err, ErrNoState) {
		t.Fatalf("expected ErrNoState on second get, got %v", err)
	}
}

func TestGetContextTimesOut(t *testing.T) {
	_, f := New[int]()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := f.GetContext(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected DeadlineExceeded, got %v", err)
	}
}

func TestThenRunsOnceAfterReady(t *testing.T) {
	p, f := New[int]()
	var calls int
	out, err := Then(f, func(v int, ferr error) (int, error) {
		calls++
		return v * 2, ferr
	}, nil)
	if err != nil {
		t.Fatalf("then: %v", err)
	}
	p.SetValue(21)
	v, err := out.Get()
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if v != 42 {
		t.Fatalf("got=%d want=42", v)
	}
	if calls != 1 {
		t.Fatalf("continuation ran %d times, want 1", calls)
	}
}

func TestThenAttachedAfterReadyRunsImmediately(t *testing.T) {
	p, f := New[int]()
	p.SetValue(5)
	out, err := Then(f, func(v int, ferr error) (int, error) {
		return v + 1, ferr
	}, nil)
	if err != nil {
		t.Fatalf("then: %v", err)
	}
	v, err := out.Get()
	if err != nil || v != 6 {
		t.Fatalf("got=%d err=%v want=6,nil", v, err)
	}
}

func TestThenOnConsumedFutureFails(t *testing.T) {
	_, f := New[int]()
	if _, err := Then(f, func(v int, ferr error) (int, error) { return v, ferr }, nil); err != nil {
		t.Fatalf("first then: %v", err)
	}
	if _, err := Then(f, func(v int, ferr error) (int, error) { return v, ferr }, nil); !errors.Is(err, ErrNoState) {
		t.Fatalf("expected ErrNoState on second then, got %v", err)
	}
}

func TestThenPropagatesException(t *testing.T) {
	p, f := New[int]()
	wantErr := errors.New("boom")
	p.SetException(wantErr)
	out, err := Then(f, func(v int, ferr error) (int, error) {
		return v, ferr
	}, nil)
	if err != nil {
		t.Fatalf("then: %v", err)
	}
	if _, gerr := out.Get(); !errors.Is(gerr, wantErr) {
		t.Fatalf("expected %v, got %v", wantErr, gerr)
	}
}

func TestThenWithExecutorRunsOnExecutor(t *testing.T) {
	p, f := New[int]()
	ran := make(chan struct{}, 1)
	exec := Executor(func(task func()) {
		go func() {
			task()
			ran <- struct{}{}
		}()
	})
	out, err := Then(f, func(v int, ferr error) (int, error) {
		return v, ferr
	}, exec)
	if err != nil {
		t.Fatalf("then: %v", err)
	}
	p.SetValue(1)
	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatalf("executor never ran continuation")
	}
	if v, gerr := out.Get(); gerr != nil || v != 1 {
		t.Fatalf("got=%d err=%v", v, gerr)
	}
}

func TestUnwrapTracksInnerFuture(t *testing.T) {
	innerP, innerF := New[int]()
	outerP, outerF := New[*Future[int]]()

	flat, err := Unwrap(outerF)
	if err != nil {
		t.Fatalf("unwrap: %v", err)
	}

	outerP.SetValue(innerF)
	if flat.Ready() {
		t.Fatalf("flattened future should not be ready before inner resolves")
	}
	innerP.SetValue(99)

	v, err := flat.Get()
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if v != 99 {
		t.Fatalf("got=%d want=99", v)
	}
}

func TestFutureAlreadyRetrieved(t *testing.T) {
	p, _ := New[int]()
	if _, err := p.Future(); !errors.Is(err, ErrFutureAlreadyRetrieved) {
		t.Fatalf("expected ErrFutureAlreadyRetrieved, got %v", err)
	}
}

func TestReadyAndFailedHelpers(t *testing.T) {
	f := Ready(3)
	v, err := f.Get()
	if err != nil || v != 3 {
		t.Fatalf("got=%d err=%v want=3,nil", v, err)
	}

	ferr := errors.New("fail")
	f2 := Failed[int](ferr)
	if _, err := f2.Get(); !errors.Is(err, ferr) {
		t.Fatalf("expected %v, got %v", ferr, err)
	}
}
