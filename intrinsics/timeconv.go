package intrinsics

import (
	"github.com/alexchoi0/blueprint/plan"
	"github.com/alexchoi0/blueprint/value"
)

type sleepArgs struct {
	Seconds float64 `validate:"gte=0"`
}

// Sleep allocates a sleep node; seconds must be non-negative when
// materialized at construction time.
func Sleep(b *plan.Builder, seconds value.Value, span *plan.Span) (value.Value, error) {
	if !seconds.IsDeferred() {
		if err := validateIfEager(sleepArgs{Seconds: seconds.AsFloat()}, seconds); err != nil {
			return value.Null(), err
		}
	}
	args := value.Struct(map[string]value.Value{"seconds": seconds})
	d := b.NewNode(plan.KindSleep, args, spanOf(span))
	b.MarkRoot(d)
	return d, nil
}

// Now allocates a now node, which resolves to the epoch-seconds float at
// the moment the executor dispatches it.
func Now(b *plan.Builder, span *plan.Span) value.Value {
	d := b.NewNode(plan.KindNow, value.Null(), spanOf(span))
	return d
}
