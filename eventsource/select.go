package eventsource

import (
	"context"
	"reflect"
	"time"
)

// reflectSelectCase pairs a handle with its source's event channel so Poll
// can build a dynamic reflect.Select over an arbitrary number of handles —
// Go's select statement itself only accepts a fixed, compile-time case
// list, so multiplexing over a caller-supplied slice needs reflect.Select.
type reflectSelectCase struct {
	handle Handle
	ch     chan Event
}

func selectFirst(ctx context.Context, cases []reflectSelectCase, timeout time.Duration) (Handle, *Event, error) {
	selectCases := make([]reflect.SelectCase, 0, len(cases)+2)
	for _, c := range cases {
		selectCases = append(selectCases, reflect.SelectCase{
			Dir:  reflect.SelectRecv,
			Chan: reflect.ValueOf(c.ch),
		})
	}
	selectCases = append(selectCases, reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(ctx.Done())})

	var timer *time.Timer
	if timeout > 0 {
		timer = time.NewTimer(timeout)
		defer timer.Stop()
		selectCases = append(selectCases, reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(timer.C)})
	}

	chosen, recv, ok := reflect.Select(selectCases)

	switch {
	case chosen < len(cases):
		if !ok {
			return cases[chosen].handle, &Event{Type: EventClosed}, nil
		}
		ev := recv.Interface().(Event)
		return cases[chosen].handle, &ev, nil
	case chosen == len(cases):
		return Handle{}, nil, ctx.Err()
	default:
		// Timeout case: returns a nil event with no error, per the
		// concurrency model's "a timeout produces null, not a failure".
		return Handle{}, nil, nil
	}
}
