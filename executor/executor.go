// Package executor implements the asynchronous scheduler that drives a
// frozen plan.Plan to completion: readiness tracking, bounded concurrency,
// cancellation, and dependency/combinator failure propagation.
//
// The dispatch loop is grounded on the readiness-driven DAG walk used by
// the retrieved pack's pulumi-pulumi/pkg/util/pdag and piwi3910-openfroyo/
// pkg/engine DAG builders: a reverse-dependency adjacency list lets a
// finishing node decrement its dependents' pending-dep counters in O(out
// degree) rather than rescanning every node on every tick.
package executor

import (
	"container/heap"
	"context"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/alexchoi0/blueprint/internal/blueperr"
	"github.com/alexchoi0/blueprint/internal/invariant"
	"github.com/alexchoi0/blueprint/plan"
	"github.com/alexchoi0/blueprint/value"
)

// Config configures one Run call.
type Config struct {
	// Concurrency caps the number of simultaneously Running nodes. <= 0
	// means unbounded, matching the spec's default.
	Concurrency int
	// Logger receives a debug event when a node becomes ready and when
	// finish records a node's terminal status. The move to Running and
	// nodes failed or cancelled in bulk (dependency propagation, run-level
	// cancellation) are not logged. A zero Logger discards events, so
	// Config{} is always safe to use.
	Logger zerolog.Logger
	// Clock returns the current time; defaults to time.Now. Tests that
	// assert S1-S6-style elapsed-time properties can inject a fake clock.
	Clock func() time.Time
	// Stdout/Stderr back the stdout/stderr intrinsics. Tests substitute
	// buffers; the zero value defaults to the process's own streams.
	Stdout io.Writer
	Stderr io.Writer
}

func (c Config) clock() func() time.Time {
	if c.Clock != nil {
		return c.Clock
	}
	return time.Now
}

func (c Config) stdout() io.Writer {
	if c.Stdout != nil {
		return c.Stdout
	}
	return os.Stdout
}

func (c Config) stderr() io.Writer {
	if c.Stderr != nil {
		return c.Stderr
	}
	return os.Stderr
}

// Result is the plan-level run summary.
type Result struct {
	Roots    map[plan.NodeID]value.Value
	Failed   []error
	Duration time.Duration
}

// Run drives p to completion against drivers, honoring cfg. It returns once
// every node reaches a terminal state or ctx is done, whichever comes
// first; a cancelled ctx flips every remaining Pending/Ready node directly
// to Cancelled and every Running node is asked to stop via the context
// handed to its driver.
func Run(ctx context.Context, p *plan.Plan, drivers DriverSet, cfg Config) (*Result, error) {
	invariant.ContextNotBackground(ctx, "executor.Run")
	invariant.NotNil(p, "plan")

	sched := newScheduler(p, drivers, cfg)
	start := cfg.clock()()
	sched.run(ctx)

	res := &Result{Roots: make(map[plan.NodeID]value.Value), Duration: cfg.clock()().Sub(start)}
	for _, id := range p.Roots {
		st := sched.states[id]
		switch {
		case st.status == statusSucceeded:
			res.Roots[id] = st.result
		case st.status == statusCancelled && ctx.Err() == nil:
			// While the run's own context is live, only a resolved any/race
			// cancels nodes (cancelLosingSiblings); a losing op is not a
			// failure of the plan.
		case st.status == statusCancelled && st.err == nil:
			res.Failed = append(res.Failed, &blueperr.Cancelled{NodeID: uint64(id)})
		case st.err != nil:
			res.Failed = append(res.Failed, st.err)
		}
	}
	return res, nil
}

type scheduler struct {
	plan       *plan.Plan
	drivers    DriverSet
	cfg        Config
	states     []nodeState
	dependents [][]plan.NodeID // reverse adjacency: dependents[i] = nodes with i in their deps

	// nodeCtx/nodeCancel give every node its own cancellable context,
	// derived from the run's overall context, so a resolved any/race can
	// cancel just its losing siblings without tearing down the rest of the
	// plan (see cancelNode).
	nodeCtx    []context.Context
	nodeCancel []context.CancelFunc

	mu            sync.Mutex
	ready         readyHeap
	sem           *semaphore.Weighted
	terminalCount int
}

func newScheduler(p *plan.Plan, drivers DriverSet, cfg Config) *scheduler {
	n := len(p.Nodes)
	s := &scheduler{
		plan:       p,
		drivers:    drivers,
		cfg:        cfg,
		states:     make([]nodeState, n),
		dependents: make([][]plan.NodeID, n),
	}
	if cfg.Concurrency > 0 {
		invariant.Positive(cfg.Concurrency, "concurrency")
		s.sem = semaphore.NewWeighted(int64(cfg.Concurrency))
	}
	for _, node := range p.Nodes {
		s.states[node.ID].pendingDeps = len(node.DataDeps) + len(node.OrderDeps)
		for _, dep := range node.DataDeps {
			s.dependents[dep] = append(s.dependents[dep], node.ID)
		}
		for _, dep := range node.OrderDeps {
			s.dependents[dep] = append(s.dependents[dep], node.ID)
		}
	}
	return s
}

// run executes the full dispatch loop: seed every zero-dep node as ready,
// spawn one supervised goroutine per dispatched node (bounded by the
// concurrency semaphore), and block until every node has reached a
// terminal state or ctx is cancelled.
func (s *scheduler) run(ctx context.Context) {
	g, gctx := errgroup.WithContext(ctx)
	wake := make(chan struct{}, len(s.plan.Nodes)+1)

	s.nodeCtx = make([]context.Context, len(s.plan.Nodes))
	s.nodeCancel = make([]context.CancelFunc, len(s.plan.Nodes))
	for _, node := range s.plan.Nodes {
		s.nodeCtx[node.ID], s.nodeCancel[node.ID] = context.WithCancel(gctx)
	}
	defer func() {
		for _, cancel := range s.nodeCancel {
			cancel()
		}
	}()

	s.mu.Lock()
	total := len(s.plan.Nodes)
	// Combinators (gather/any/at_least/at_most) are never dispatched to
	// execNode — their result is computed from their ops' outcomes, so
	// seed their bookkeeping (and finish the ones already decided, e.g.
	// gather([]) or an all-literal op list) before seeding the ordinary
	// dispatch-ready queue.
	for _, node := range s.plan.Nodes {
		if isCombinator(node.Kind) {
			s.seedCombinator(node.ID)
		}
	}
	for _, node := range s.plan.Nodes {
		if isCombinator(node.Kind) {
			continue
		}
		if s.states[node.ID].pendingDeps == 0 && !s.states[node.ID].status.terminal() {
			s.markReadyLocked(node.ID)
		}
	}
	s.mu.Unlock()

	go s.dispatchLoop(gctx, g, wake)

	for {
		s.mu.Lock()
		done := s.terminalCount >= total
		s.mu.Unlock()
		if done {
			break
		}
		select {
		case <-gctx.Done():
			s.cancelRemaining()
		case <-wake:
		case <-time.After(5 * time.Millisecond):
		}
	}
	_ = g.Wait()
}

// dispatchLoop pops ready nodes off the heap (FIFO among nodes that became
// ready in the same tick, tie-broken by NodeID since the heap orders by
// id) and spawns one supervised goroutine per node, gated by the
// concurrency semaphore. It returns once every node has been dispatched or
// cancelled.
func (s *scheduler) dispatchLoop(ctx context.Context, g *errgroup.Group, wake chan<- struct{}) {
	dispatched := 0
	total := len(s.plan.Nodes)
	for dispatched < total {
		id, ok := s.popReady(ctx)
		if !ok {
			return
		}
		dispatched++
		nodeID := id
		if s.sem != nil {
			if err := s.sem.Acquire(ctx, 1); err != nil {
				s.finish(nodeID, statusCancelled, value.Null(), nil)
				nonBlockingSignal(wake)
				continue
			}
		}
		g.Go(func() error {
			if s.sem != nil {
				defer s.sem.Release(1)
			}
			s.execNode(s.nodeCtx[nodeID], nodeID)
			nonBlockingSignal(wake)
			return nil
		})
	}
}

func nonBlockingSignal(wake chan<- struct{}) {
	select {
	case wake <- struct{}{}:
	default:
	}
}

// popReady blocks until a node is ready, the context is done, or every
// node has already terminated (in which case there is nothing left to
// dispatch).
func (s *scheduler) popReady(ctx context.Context) (plan.NodeID, bool) {
	for {
		s.mu.Lock()
		if s.ready.Len() > 0 {
			id := heap.Pop(&s.ready).(plan.NodeID)
			s.states[id].status = statusRunning
			s.states[id].startedAt = time.Now()
			s.mu.Unlock()
			return id, true
		}
		allTerminal := s.terminalCount >= len(s.plan.Nodes)
		s.mu.Unlock()
		if allTerminal {
			return 0, false
		}
		select {
		case <-ctx.Done():
			return 0, false
		case <-time.After(time.Millisecond):
			// Interleave dispatch with readiness polling rather than
			// busy-spinning, per the fairness requirement.
		}
	}
}

func (s *scheduler) markReadyLocked(id plan.NodeID) {
	if s.states[id].status != statusPending {
		return
	}
	s.states[id].status = statusReady
	heap.Push(&s.ready, id)
	s.cfg.Logger.Debug().Uint64("node_id", uint64(id)).Str("kind", s.plan.NodeByID(id).Kind.String()).Msg("ready")
}

// cancelNode cancels id's own per-node context (waking a driver blocked on
// ctx.Done(), e.g. Sleep) and, if id is itself a combinator, recurses into
// its ops so cancelling a nested any/gather tears down its whole subtree.
// Already-terminal nodes are left alone: cancelling a node that already
// won or already failed is a no-op, not an error. Callers must already
// hold s.mu.
func (s *scheduler) cancelNode(id plan.NodeID) {
	if s.states[id].status.terminal() {
		return
	}
	if cancel := s.nodeCancel[id]; cancel != nil {
		cancel()
	}
	node := s.plan.NodeByID(id)
	if isCombinator(node.Kind) {
		ops, _ := combinatorOpsAndN(node)
		for _, op := range ops {
			if op.IsDeferred() {
				s.cancelNode(op.AsDeferred())
			}
		}
	}
}

func (s *scheduler) cancelRemaining() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.states {
		if !s.states[i].status.terminal() {
			s.states[i].status = statusCancelled
			s.terminalCount++
		}
	}
}

// finish transitions id to a terminal status (set by the caller: Running →
// Succeeded/Failed/Cancelled from a driver, or a direct
// Pending/Ready → Cancelled/Failed from propagation) and cascades
// DependencyError to every affected dependent via a breadth-first
// work-list, so a single completion can ripple through an arbitrarily deep
// chain of dependents within one critical section.
func (s *scheduler) finish(id plan.NodeID, st status, result value.Value, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finishLocked(id, st, result, err)
}

// finishLocked is finish's body, callable re-entrantly while s.mu is
// already held: combinatorChildTerminal may decide a combinator's outcome
// and finish it from inside another node's own cascade, which must extend
// the same critical section rather than re-acquire the lock.
func (s *scheduler) finishLocked(id plan.NodeID, st status, result value.Value, err error) {
	if s.states[id].status.terminal() {
		return
	}
	s.states[id].status = st
	s.states[id].result = result
	s.states[id].err = err
	s.states[id].finishedAt = time.Now()
	s.terminalCount++
	s.cfg.Logger.Debug().Uint64("node_id", uint64(id)).Str("status", st.String()).Msg("terminal")

	queue := []plan.NodeID{id}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		curStatus := s.states[cur].status
		for _, dependentID := range s.dependents[cur] {
			dst := &s.states[dependentID]
			if dst.status.terminal() {
				continue
			}
			dnode := s.plan.NodeByID(dependentID)
			if isCombinator(dnode.Kind) {
				// combinatorChildTerminal may itself call finishLocked for
				// dependentID, which runs its own full cascade — it does
				// not need to be pushed onto this queue too.
				s.combinatorChildTerminal(dependentID, cur, curStatus)
				continue
			}
			if curStatus != statusSucceeded {
				dst.dependencyFailed(dependentID, cur)
				dst.finishedAt = time.Now()
				s.terminalCount++
				queue = append(queue, dependentID)
				continue
			}
			dst.pendingDeps--
			invariant.Invariant(dst.pendingDeps >= 0, "node %d pendingDeps went negative", dependentID)
			if dst.pendingDeps == 0 {
				s.markReadyLocked(dependentID)
			}
		}
	}
}
