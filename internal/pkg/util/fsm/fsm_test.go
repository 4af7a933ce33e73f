package fsm

import (
	"context"
	"errors"
	"testing"

	"github.com/looplab/fsm"
)

func TestWrapEventCancelsTransition(t *testing.T) {
	errBlocked := errors.New("blocked")
	machine := fsm.NewFSM("idle",
		fsm.Events{{Name: "go", Src: []string{"idle"}, Dst: "moving"}},
		fsm.Callbacks{
			"before_go": WrapEvent(func(context.Context, *fsm.Event) error { return errBlocked }),
		},
	)

	err := machine.Event(context.Background(), "go")
	var canceled fsm.CanceledError
	if !errors.As(err, &canceled) {
		t.Fatalf("Event() error = %v, want CanceledError", err)
	}
	if canceled.Err != errBlocked {
		t.Errorf("CanceledError.Err = %v, want %v", canceled.Err, errBlocked)
	}
	if got := machine.Current(); got != "idle" {
		t.Errorf("Current() = %q, want idle", got)
	}
}

func TestWrapEventPassesOnNil(t *testing.T) {
	var seen string
	machine := fsm.NewFSM("idle",
		fsm.Events{{Name: "go", Src: []string{"idle"}, Dst: "moving"}},
		fsm.Callbacks{
			"enter_moving": WrapEvent(func(_ context.Context, e *fsm.Event) error {
				seen = ArgOf[string](e, 0)
				return nil
			}),
		},
	)

	if err := machine.Event(context.Background(), "go", "north"); err != nil {
		t.Fatalf("Event() error = %v", err)
	}
	if got := machine.Current(); got != "moving" {
		t.Errorf("Current() = %q, want moving", got)
	}
	if seen != "north" {
		t.Errorf("argument = %q, want north", seen)
	}
}

func TestArgOf(t *testing.T) {
	event := &fsm.Event{Args: []interface{}{"a", 2}}

	if got := ArgOf[string](event, 0); got != "a" {
		t.Errorf("ArgOf[string](0) = %q", got)
	}
	if got := ArgOf[int](event, 1); got != 2 {
		t.Errorf("ArgOf[int](1) = %d", got)
	}
	if got := ArgOf[int](event, 0); got != 0 {
		t.Errorf("ArgOf[int](0) with wrong type = %d, want 0", got)
	}
	if got := ArgOf[string](event, 5); got != "" {
		t.Errorf("ArgOf out of range = %q", got)
	}
	if got := ArgOf[string](event, -1); got != "" {
		t.Errorf("ArgOf negative = %q", got)
	}
}
