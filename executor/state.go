package executor

import (
	"time"

	"github.com/alexchoi0/blueprint/internal/blueperr"
	"github.com/alexchoi0/blueprint/plan"
	"github.com/alexchoi0/blueprint/value"
)

// status mirrors the node lifecycle from the data model: Pending → Ready →
// Running → {Succeeded | Failed | Cancelled}. Terminal states are monotonic
// — nothing transitions out of them.
type status int

const (
	statusPending status = iota
	statusReady
	statusRunning
	statusSucceeded
	statusFailed
	statusCancelled
)

func (s status) terminal() bool {
	return s == statusSucceeded || s == statusFailed || s == statusCancelled
}

func (s status) String() string {
	switch s {
	case statusPending:
		return "pending"
	case statusReady:
		return "ready"
	case statusRunning:
		return "running"
	case statusSucceeded:
		return "succeeded"
	case statusFailed:
		return "failed"
	case statusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// nodeState is the executor's own mutable bookkeeping for one node, held in
// a parallel array keyed by NodeID — the plan graph itself stays read-only
// for the duration of execution, per the design notes' "graph ownership"
// split.
type nodeState struct {
	status      status
	result      value.Value
	err         error
	pendingDeps int
	startedAt   time.Time
	finishedAt  time.Time

	// The fields below are combinator-only bookkeeping for gather, any,
	// at_least, and at_most, whose readiness rule counts outcomes across
	// their op list rather than requiring every op to succeed.
	opsTotal     int // number of ops in the list, literal ones included
	opsSucceeded int
	opsTerminal  int
	firstErr     error
	combinatorN  int  // the n in at_least(n, ops) / at_most(n, ops)
	hasWinner    bool // any(): a success has already been recorded
	winnerResult value.Value
}

// dependencyFailed marks the node Failed(DependencyError) because one of
// its data_deps or order_deps ended in a non-Succeeded terminal state.
func (s *nodeState) dependencyFailed(nodeID, failedDep plan.NodeID) {
	s.status = statusFailed
	s.err = &blueperr.DependencyError{NodeID: uint64(nodeID), FailedDep: uint64(failedDep)}
}
