package dispatcher

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/campushq/claimflow/internal/domain/event"
)

func TestDispatchRunsHandlersInOrder(t *testing.T) {
	d := NewDispatcher(nil)

	var order []string
	d.Subscribe(event.TypeClaimSubmitted, "first", func(ctx context.Context, evt *event.Event) error {
		order = append(order, "first")
		return nil
	})
	d.Subscribe(event.TypeClaimSubmitted, "second", func(ctx context.Context, evt *event.Event) error {
		order = append(order, "second")
		return nil
	})

	evt := event.NewEvent(event.TypeClaimSubmitted, 1, nil)
	if err := d.Dispatch(context.Background(), evt); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Errorf("handlers ran in order %v, want [first second]", order)
	}
}

func TestDispatchStopsOnHandlerError(t *testing.T) {
	d := NewDispatcher(nil)

	handlerErr := errors.New("boom")
	var secondRan bool
	d.Subscribe(event.TypeClaimRejected, "failing", func(ctx context.Context, evt *event.Event) error {
		return handlerErr
	})
	d.Subscribe(event.TypeClaimRejected, "after", func(ctx context.Context, evt *event.Event) error {
		secondRan = true
		return nil
	})

	err := d.Dispatch(context.Background(), event.NewEvent(event.TypeClaimRejected, 1, nil))
	if !errors.Is(err, handlerErr) {
		t.Errorf("Dispatch() error = %v, want wrapped %v", err, handlerErr)
	}
	if secondRan {
		t.Error("handler after the failing one should not run")
	}
}

func TestDispatchIgnoresUnrelatedTypes(t *testing.T) {
	d := NewDispatcher(nil)

	var called bool
	d.Subscribe(event.TypeClaimPaid, "paid-only", func(ctx context.Context, evt *event.Event) error {
		called = true
		return nil
	})

	if err := d.Dispatch(context.Background(), event.NewEvent(event.TypeClaimSubmitted, 1, nil)); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if called {
		t.Error("handler for a different type should not run")
	}
}

func TestDispatchRecoversHandlerPanic(t *testing.T) {
	d := NewDispatcher(nil)

	d.Subscribe(event.TypeClaimApproved, "panicking", func(ctx context.Context, evt *event.Event) error {
		panic("unexpected")
	})

	err := d.Dispatch(context.Background(), event.NewEvent(event.TypeClaimApproved, 1, nil))
	if err == nil {
		t.Fatal("expected error from panicking handler")
	}
}

func TestDispatchAsyncCompletesBeforeClose(t *testing.T) {
	d := NewDispatcher(nil)

	var count atomic.Int32
	d.Subscribe(event.TypeClaimSubmitted, "counter", func(ctx context.Context, evt *event.Event) error {
		time.Sleep(10 * time.Millisecond)
		count.Add(1)
		return nil
	})

	for i := 0; i < 5; i++ {
		d.DispatchAsync(context.Background(), event.NewEvent(event.TypeClaimSubmitted, int64(i), nil))
	}

	if err := d.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if got := count.Load(); got != 5 {
		t.Errorf("handler ran %d times, want 5", got)
	}
}

func TestDispatchAfterClose(t *testing.T) {
	d := NewDispatcher(nil)

	if err := d.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := d.Close(); err == nil {
		t.Error("second Close() should fail")
	}
	if err := d.Dispatch(context.Background(), event.NewEvent(event.TypeClaimPaid, 1, nil)); err == nil {
		t.Error("Dispatch() after Close() should fail")
	}
}
