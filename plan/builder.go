package plan

import (
	"github.com/alexchoi0/blueprint/internal/invariant"
	"github.com/alexchoi0/blueprint/value"
)

// Builder accumulates nodes for one planning session. The zero value is not
// usable; construct with NewBuilder. A Builder is not safe for concurrent
// use — the script driver that calls intrinsics runs single-threaded during
// the planning phase by construction (§1: planning precedes execution).
type Builder struct {
	nodes  []*Node
	roots  map[NodeID]bool
	frozen bool
}

// NewBuilder returns an empty Builder ready to accept NewNode calls.
func NewBuilder() *Builder {
	return &Builder{roots: make(map[NodeID]bool)}
}

// NewNode allocates a node of the given kind and returns a Deferred value
// referencing it. args is walked once to collect nested Deferred
// references into DataDeps; cost is linear in the size of args, per the
// plan graph's public contract.
func (b *Builder) NewNode(kind NodeKind, args value.Value, span *Span) value.Value {
	invariant.Precondition(!b.frozen, "NewNode called after Freeze")
	invariant.Precondition(kind != KindInvalid, "node kind must not be KindInvalid")

	id := NodeID(len(b.nodes))
	n := &Node{
		ID:       id,
		Kind:     kind,
		Args:     args,
		DataDeps: value.CollectDeferreds(args),
		Span:     span,
	}
	b.nodes = append(b.nodes, n)
	return value.Deferred(id)
}

// AddOrderEdge records that node must not start until predecessor has
// succeeded, without consuming predecessor's value. Used only by after and
// sequence desugaring.
func (b *Builder) AddOrderEdge(node, predecessor NodeID) {
	invariant.Precondition(!b.frozen, "AddOrderEdge called after Freeze")
	n := b.mustNode(node)
	for _, existing := range n.OrderDeps {
		if existing == predecessor {
			return
		}
	}
	n.OrderDeps = append(n.OrderDeps, predecessor)
}

// MarkRoot registers d as a node whose completion the executor must wait
// for. Called once per top-level expression the outer driver cares about,
// and automatically by every side-effecting intrinsic constructor for
// nodes whose result would otherwise be silently discarded.
func (b *Builder) MarkRoot(d value.Value) {
	invariant.Precondition(!b.frozen, "MarkRoot called after Freeze")
	invariant.Precondition(d.IsDeferred(), "MarkRoot requires a Deferred value")
	b.roots[d.AsDeferred()] = true
}

// Freeze validates the plan's invariants and returns an immutable Plan.
// Acyclicity is validated structurally by construction (a node can only
// reference ids strictly less than its own, since NewNode assigns ids in
// allocation order and there is no API to target a not-yet-created node),
// but is asserted defensively here so a bug in node construction fails loud
// rather than producing a plan the executor can't schedule.
func (b *Builder) Freeze() (*Plan, error) {
	invariant.Precondition(!b.frozen, "Freeze called twice")
	for _, n := range b.nodes {
		for _, dep := range append(append([]NodeID{}, n.DataDeps...), n.OrderDeps...) {
			invariant.Invariant(dep < n.ID, "node %d depends on %d, which was not constructed earlier", n.ID, dep)
		}
	}
	b.frozen = true

	roots := make([]NodeID, 0, len(b.roots))
	for id := range b.roots {
		roots = append(roots, id)
	}
	sortNodeIDs(roots)

	return &Plan{Nodes: b.nodes, Roots: roots}, nil
}

func (b *Builder) mustNode(id NodeID) *Node {
	idx := int(id)
	invariant.InRange(idx, 0, len(b.nodes)-1, "node id")
	return b.nodes[idx]
}

func sortNodeIDs(ids []NodeID) {
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j-1] > ids[j]; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
}
