package executor

import "github.com/alexchoi0/blueprint/plan"

// readyHeap is a min-heap of NodeIDs, giving the readiness queue its FIFO-
// among-same-tick, NodeID-tie-broken ordering: ids are assigned in
// construction order, so popping the smallest id first matches "FIFO among
// nodes that become ready in the same tick" whenever ids double as
// insertion order.
type readyHeap []plan.NodeID

func (h readyHeap) Len() int            { return len(h) }
func (h readyHeap) Less(i, j int) bool  { return h[i] < h[j] }
func (h readyHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *readyHeap) Push(x interface{}) { *h = append(*h, x.(plan.NodeID)) }
func (h *readyHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
