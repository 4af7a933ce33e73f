package fsm

import (
	"context"

	"github.com/looplab/fsm"
)

// WrapEvent adapts a callback that returns an error into a looplab
// callback. A non-nil error is stored on the event and cancels the
// transition when returned from a "before_" callback.
func WrapEvent(fn func(ctx context.Context, event *fsm.Event) error) fsm.Callback {
	return func(ctx context.Context, event *fsm.Event) {
		if err := fn(ctx, event); err != nil {
			event.Cancel(err)
		}
	}
}

// ArgOf returns the i-th event argument as T, or the zero value.
func ArgOf[T any](event *fsm.Event, i int) T {
	var zero T
	if i < 0 || i >= len(event.Args) {
		return zero
	}
	v, ok := event.Args[i].(T)
	if !ok {
		return zero
	}
	return v
}
