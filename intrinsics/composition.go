package intrinsics

import (
	"github.com/alexchoi0/blueprint/internal/blueperr"
	"github.com/alexchoi0/blueprint/plan"
	"github.com/alexchoi0/blueprint/value"
)

// Gather allocates a gather node: it succeeds with every op's result, in
// list order, once all ops have succeeded, and fails as soon as any op
// fails (the remaining ops still run to completion).
func Gather(b *plan.Builder, ops []value.Value, span *plan.Span) value.Value {
	d := b.NewNode(plan.KindGather, value.List(ops...), spanOf(span))
	b.MarkRoot(d)
	return d
}

// Any (race) allocates an any node: resolves on the first op to succeed,
// fails only if every op fails.
func Any(b *plan.Builder, ops []value.Value, span *plan.Span) value.Value {
	d := b.NewNode(plan.KindAny, value.List(ops...), spanOf(span))
	b.MarkRoot(d)
	return d
}

// AtLeast allocates an at_least node. n must be a materialized, non-negative
// int at construction time, since it gates the combinator's own readiness
// rule rather than being consumed as ordinary op data.
func AtLeast(b *plan.Builder, n value.Value, ops []value.Value, span *plan.Span) (value.Value, error) {
	if err := value.RequireEager(n, "at_least count"); err != nil {
		return value.Null(), err
	}
	if n.AsInt() < 0 {
		return value.Null(), blueperr.NewScriptError("at_least count must be non-negative, got %d", n.AsInt())
	}
	args := value.List(append([]value.Value{n}, ops...)...)
	d := b.NewNode(plan.KindAtLeast, args, spanOf(span))
	b.MarkRoot(d)
	return d, nil
}

// AtMost is AtLeast's dual: succeeds iff at most n of ops succeeded, and
// likewise never fails on individual op failures.
func AtMost(b *plan.Builder, n value.Value, ops []value.Value, span *plan.Span) (value.Value, error) {
	if err := value.RequireEager(n, "at_most count"); err != nil {
		return value.Null(), err
	}
	if n.AsInt() < 0 {
		return value.Null(), blueperr.NewScriptError("at_most count must be non-negative, got %d", n.AsInt())
	}
	args := value.List(append([]value.Value{n}, ops...)...)
	d := b.NewNode(plan.KindAtMost, args, spanOf(span))
	b.MarkRoot(d)
	return d, nil
}

// After allocates an after node: its result is y's result, with a data_dep
// on y (for the value forward) and an order_dep on x. The same order edge is
// also attached to y itself, so x completes before y starts even though y's
// value doesn't depend on x: the after node is a pure forwarder with no side
// effect of its own, so ordering only it would leave y a free-running node
// with no dependency on x at all.
func After(b *plan.Builder, x, y value.Value, span *plan.Span) value.Value {
	args := value.Struct(map[string]value.Value{"y": y})
	d := b.NewNode(plan.KindAfter, args, spanOf(span))
	b.AddOrderEdge(y.AsDeferred(), x.AsDeferred())
	b.AddOrderEdge(d.AsDeferred(), x.AsDeferred())
	b.MarkRoot(d)
	return d
}

// Sequence is pure graph-construction sugar: it adds a direct order edge
// from each op to its predecessor, so ops[i] only becomes ready once
// ops[i-1] reaches a terminal state, then wraps all of ops in Gather. This
// adds order edges straight onto ops[i] rather than chaining through
// intermediate After wrapper nodes: since every op in ops was already
// allocated (in increasing id order) before Sequence runs, but each After
// wrapper node gets a fresh id higher than all of them, chaining through
// the wrappers would require a later op to depend on an even-later
// wrapper id, which construction-order-only references can't express.
// There is no KindSequence — the executor never sees this as its own
// kind.
func Sequence(b *plan.Builder, ops []value.Value, span *plan.Span) value.Value {
	if len(ops) == 0 {
		return Gather(b, nil, span)
	}
	for i := 1; i < len(ops); i++ {
		b.AddOrderEdge(ops[i].AsDeferred(), ops[i-1].AsDeferred())
	}
	return Gather(b, ops, span)
}
