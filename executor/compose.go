package executor

import (
	"github.com/alexchoi0/blueprint/internal/blueperr"
	"github.com/alexchoi0/blueprint/internal/invariant"
	"github.com/alexchoi0/blueprint/plan"
	"github.com/alexchoi0/blueprint/value"
)

// isCombinator reports whether kind is interpreted by the scheduler's
// combinator bookkeeping (compose.go) rather than dispatched to execNode.
// after is deliberately excluded: its data_dep-on-y plus order_dep-on-x
// already produce the right readiness rule through the generic path in
// finishLocked, and its result is just y's resolved value (handled as an
// ordinary dispatch case in dispatch.go).
func isCombinator(kind plan.NodeKind) bool {
	switch kind {
	case plan.KindGather, plan.KindAny, plan.KindAtLeast, plan.KindAtMost:
		return true
	default:
		return false
	}
}

// combinatorOpsAndN extracts the ordered op list and, for at_least/at_most,
// the materialized count that gates their readiness rule. Order is taken
// from Args directly (not DataDeps, which CollectDeferreds dedupes and
// sorts) so that gather's "list order" result guarantee holds even when an
// op's NodeID doesn't match its position in the call.
func combinatorOpsAndN(node *plan.Node) (ops []value.Value, n int) {
	switch node.Kind {
	case plan.KindGather, plan.KindAny:
		return node.Args.AsList(), 0
	case plan.KindAtLeast, plan.KindAtMost:
		list := node.Args.AsList()
		if len(list) == 0 {
			return nil, 0
		}
		return list[1:], int(list[0].AsInt())
	default:
		return nil, 0
	}
}

// seedCombinator initializes a combinator node's bookkeeping from its op
// list. Ops that are already materialized (not Deferred — e.g. a literal
// passed straight into gather) count as immediately succeeded since no
// terminal event will ever arrive for them; seedCombinator accounts for
// them up front and then gives every combinator a chance to finish
// immediately (gather([]), at_least(0, []), an all-literal op list, …)
// before the dispatch loop starts.
func (s *scheduler) seedCombinator(id plan.NodeID) {
	node := s.plan.NodeByID(id)
	ops, n := combinatorOpsAndN(node)
	ds := &s.states[id]
	ds.combinatorN = n
	ds.opsTotal = len(ops)
	for _, op := range ops {
		if op.IsDeferred() {
			continue
		}
		ds.opsTerminal++
		ds.opsSucceeded++
		if node.Kind == plan.KindAny && !ds.hasWinner {
			ds.hasWinner = true
			ds.winnerResult = op
		}
	}
	s.tryFinishCombinator(id)
}

// combinatorChildTerminal records one op of a combinator reaching a
// terminal state and re-evaluates whether the combinator itself can now
// finish. Called from finishLocked's cascade in place of the generic
// pendingDeps/dependencyFailed bookkeeping, since a combinator's outcome
// depends on its ops' outcomes rather than on every dep succeeding: gather
// fails with the failing op's own error rather than a DependencyError, any
// keeps waiting for a success after a failure, and at_least/at_most never
// fail on individual op failures.
func (s *scheduler) combinatorChildTerminal(dependentID, childID plan.NodeID, childStatus status) {
	ds := &s.states[dependentID]
	if ds.status.terminal() {
		return
	}
	node := s.plan.NodeByID(dependentID)
	ds.opsTerminal++
	if childStatus == statusSucceeded {
		ds.opsSucceeded++
		if node.Kind == plan.KindAny && !ds.hasWinner {
			ds.hasWinner = true
			ds.winnerResult = s.states[childID].result
		}
	} else if ds.firstErr == nil {
		ds.firstErr = s.states[childID].err
	}
	s.tryFinishCombinator(dependentID)
}

// tryFinishCombinator applies the readiness rule from the combinator table
// and finishes the node the moment its outcome is determined — which, for
// gather and any, can be well before every op has terminated.
func (s *scheduler) tryFinishCombinator(id plan.NodeID) {
	ds := &s.states[id]
	if ds.status.terminal() {
		return
	}
	node := s.plan.NodeByID(id)
	switch node.Kind {
	case plan.KindGather:
		if ds.firstErr != nil {
			s.finishLocked(id, statusFailed, value.Null(), ds.firstErr)
			return
		}
		if ds.opsTerminal >= ds.opsTotal {
			s.finishLocked(id, statusSucceeded, s.gatherResult(node), nil)
		}
	case plan.KindAny:
		if ds.hasWinner {
			s.finishLocked(id, statusSucceeded, ds.winnerResult, nil)
			s.cancelLosingSiblings(node)
			return
		}
		if ds.opsTerminal >= ds.opsTotal {
			s.finishLocked(id, statusFailed, value.Null(), blueperr.NewOperationError(uint64(id), node.Kind.String(), ds.firstErr))
		}
	case plan.KindAtLeast:
		if ds.opsSucceeded >= ds.combinatorN {
			s.finishLocked(id, statusSucceeded, value.Bool(true), nil)
			return
		}
		if ds.opsTerminal >= ds.opsTotal {
			s.finishLocked(id, statusSucceeded, value.Bool(false), nil)
		}
	case plan.KindAtMost:
		if ds.opsTerminal >= ds.opsTotal {
			s.finishLocked(id, statusSucceeded, value.Bool(ds.opsSucceeded <= ds.combinatorN), nil)
		}
	}
}

// cancelLosingSiblings cancels every op of a resolved any/race node other
// than the one that already won (cancelNode is itself a no-op on a node
// that's already terminal, so the winner is skipped automatically): an
// any that has already decided its outcome has no further use for a
// still-running loser, and leaving it running would hold Run() open for
// as long as the slowest op takes regardless of how fast any itself
// resolved.
func (s *scheduler) cancelLosingSiblings(node *plan.Node) {
	ops, _ := combinatorOpsAndN(node)
	for _, op := range ops {
		if op.IsDeferred() {
			s.cancelNode(op.AsDeferred())
		}
	}
}

// gatherResult builds gather's List result in the op list's original order,
// substituting each op's resolved terminal result (or the op itself, for an
// already-materialized literal op).
func (s *scheduler) gatherResult(node *plan.Node) value.Value {
	ops := node.Args.AsList()
	out := make([]value.Value, len(ops))
	for i, op := range ops {
		if op.IsDeferred() {
			out[i] = s.states[op.AsDeferred()].result
		} else {
			out[i] = op
		}
	}
	invariant.Postcondition(len(out) == len(ops), "gather result must have one entry per op")
	return value.List(out...)
}
