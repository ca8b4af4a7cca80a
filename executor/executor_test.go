package executor_test

import (
	"context"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexchoi0/blueprint/drivers"
	"github.com/alexchoi0/blueprint/executor"
	"github.com/alexchoi0/blueprint/internal/blueperr"
	"github.com/alexchoi0/blueprint/intrinsics"
	"github.com/alexchoi0/blueprint/plan"
	"github.com/alexchoi0/blueprint/value"
)

func runPlan(t *testing.T, p *plan.Plan) *executor.Result {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	result, err := executor.Run(ctx, p, drivers.Default(), executor.Config{})
	require.NoError(t, err)
	return result
}

// S1: gather of three 0.1s sleeps terminates in ~0.1s, not 0.3s.
func TestS1GatherOfSleepsRunsConcurrently(t *testing.T) {
	b := plan.NewBuilder()
	var ops []value.Value
	for i := 0; i < 3; i++ {
		d, err := intrinsics.Sleep(b, value.Float(0.1), nil)
		require.NoError(t, err)
		ops = append(ops, d)
	}
	intrinsics.Gather(b, ops, nil)
	p, err := b.Freeze()
	require.NoError(t, err)

	result := runPlan(t, p)
	assert.Empty(t, result.Failed)
	assert.Less(t, result.Duration, 250*time.Millisecond)
}

// S2: sequence of four 0.05s sleeps takes ~0.2s rather than ~0.05s, since
// each sleep waits on the previous one through an order edge.
func TestS2SequenceRunsInOrder(t *testing.T) {
	b := plan.NewBuilder()
	var ops []value.Value
	for i := 0; i < 4; i++ {
		d, err := intrinsics.Sleep(b, value.Float(0.05), nil)
		require.NoError(t, err)
		ops = append(ops, d)
	}
	intrinsics.Sequence(b, ops, nil)
	p, err := b.Freeze()
	require.NoError(t, err)

	result := runPlan(t, p)
	assert.Empty(t, result.Failed)
	assert.GreaterOrEqual(t, result.Duration, 180*time.Millisecond)
}

// S3: after(gather([w1, w2]), read_file) resolves to the first write's
// content, and only starts reading once both writes have completed.
func TestS3AfterOrdersReadBehindWrites(t *testing.T) {
	dir := t.TempDir()
	pathA := filepath.Join(dir, "a.txt")
	pathB := filepath.Join(dir, "b.txt")

	b := plan.NewBuilder()
	w1, err := intrinsics.WriteFile(b, value.String(pathA), value.String("A"), nil)
	require.NoError(t, err)
	w2, err := intrinsics.WriteFile(b, value.String(pathB), value.String("B"), nil)
	require.NoError(t, err)
	gathered := intrinsics.Gather(b, []value.Value{w1, w2}, nil)
	read, err := intrinsics.ReadFile(b, value.String(pathA), nil)
	require.NoError(t, err)
	root := intrinsics.After(b, gathered, read, nil)
	p, err := b.Freeze()
	require.NoError(t, err)

	result := runPlan(t, p)
	require.Empty(t, result.Failed)
	assert.Equal(t, "A", result.Roots[root.AsDeferred()].AsString())
}

// S4: any([sleep(1.0), sleep(0.01)]) resolves with the fast op's result in
// ~0.01s, well under the slow op's own duration.
func TestS4AnyResolvesOnFastestSuccess(t *testing.T) {
	b := plan.NewBuilder()
	slow, err := intrinsics.Sleep(b, value.Float(1.0), nil)
	require.NoError(t, err)
	fast, err := intrinsics.Sleep(b, value.Float(0.01), nil)
	require.NoError(t, err)
	root := intrinsics.Any(b, []value.Value{slow, fast}, nil)
	p, err := b.Freeze()
	require.NoError(t, err)

	result := runPlan(t, p)
	require.Empty(t, result.Failed)
	assert.Less(t, result.Duration, 500*time.Millisecond)
	assert.Contains(t, result.Roots, root.AsDeferred())
}

// S6: gather([ok, failing, ok]) fails with the underlying error of the
// failing op; the other ok ops still run to completion (their side effects
// are observable) even though their results are discarded.
func TestS6GatherFailsFastButSiblingsStillRun(t *testing.T) {
	dir := t.TempDir()
	path1 := filepath.Join(dir, "one.txt")
	path2 := filepath.Join(dir, "two.txt")
	missing := filepath.Join(dir, "does-not-exist.txt")

	b := plan.NewBuilder()
	ok1, err := intrinsics.WriteFile(b, value.String(path1), value.String("ok"), nil)
	require.NoError(t, err)
	failing, err := intrinsics.ReadFile(b, value.String(missing), nil)
	require.NoError(t, err)
	ok2, err := intrinsics.WriteFile(b, value.String(path2), value.String("ok"), nil)
	require.NoError(t, err)
	intrinsics.Gather(b, []value.Value{ok1, failing, ok2}, nil)
	p, err := b.Freeze()
	require.NoError(t, err)

	result := runPlan(t, p)
	require.NotEmpty(t, result.Failed)

	var opErr *blueperr.OperationError
	found := false
	for _, failure := range result.Failed {
		if assertAsOperationError(t, failure, &opErr) {
			found = true
		}
	}
	assert.True(t, found, "expected at least one OperationError among %v", result.Failed)

	assert.FileExists(t, path1)
	assert.FileExists(t, path2)
}

func assertAsOperationError(t *testing.T, err error, target **blueperr.OperationError) bool {
	t.Helper()
	type unwrapper interface{ Unwrap() error }
	for err != nil {
		if oe, ok := err.(*blueperr.OperationError); ok {
			*target = oe
			return true
		}
		u, ok := err.(unwrapper)
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// S5: tcp_connect/event_write/event_poll round-trips "ping" through a
// plain echoing listener. The listener lives outside the plan under test,
// started directly here, since it plays the role of an external peer
// rather than anything the plan itself constructs.
func TestS5TCPRequestEchoesPayload(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		buf := make([]byte, 64)
		n, err := conn.Read(buf)
		if err != nil {
			return
		}
		conn.Write(buf[:n])
	}()

	addr := ln.Addr().(*net.TCPAddr)
	b := plan.NewBuilder()
	handle, err := intrinsics.EventSource(b, value.String("tcp_connect"), value.Struct(map[string]value.Value{
		"host": value.String("127.0.0.1"),
		"port": value.Int(int64(addr.Port)),
	}), nil)
	require.NoError(t, err)
	write := intrinsics.EventWrite(b, handle, value.String("ping"), value.Null(), nil)
	poll := intrinsics.EventPoll(b, []value.Value{handle}, value.Float(2000), nil)
	orderedPoll := intrinsics.After(b, write, poll, nil)
	closeOp := intrinsics.EventSourceClose(b, handle, nil)
	intrinsics.After(b, orderedPoll, closeOp, nil)
	p, err := b.Freeze()
	require.NoError(t, err)

	result := runPlan(t, p)
	require.Empty(t, result.Failed)
	ev := result.Roots[orderedPoll.AsDeferred()].AsStruct()
	require.Equal(t, "data", ev["type"].AsString())
	data := ev["data"].AsStruct()
	assert.Equal(t, []byte("ping"), data["bytes"].AsBytes())
}

// S5 (closing mid-flight): a peer that closes its connection instead of
// replying resolves event_poll to null, not an error.
func TestS5RecvYieldsNullWhenPeerClosesMidFlight(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		conn.Close()
	}()

	addr := ln.Addr().(*net.TCPAddr)
	b := plan.NewBuilder()
	handle, err := intrinsics.EventSource(b, value.String("tcp_connect"), value.Struct(map[string]value.Value{
		"host": value.String("127.0.0.1"),
		"port": value.Int(int64(addr.Port)),
	}), nil)
	require.NoError(t, err)
	poll := intrinsics.EventPoll(b, []value.Value{handle}, value.Float(2000), nil)
	p, err := b.Freeze()
	require.NoError(t, err)

	result := runPlan(t, p)
	require.Empty(t, result.Failed)
	assert.Equal(t, value.KindNull, result.Roots[poll.AsDeferred()].Kind())
}

// Combinator law: gather([]) -> [].
func TestGatherEmptyProducesEmptyList(t *testing.T) {
	b := plan.NewBuilder()
	root := intrinsics.Gather(b, nil, nil)
	p, err := b.Freeze()
	require.NoError(t, err)

	result := runPlan(t, p)
	require.Empty(t, result.Failed)
	assert.Len(t, result.Roots[root.AsDeferred()].AsList(), 0)
}

// Combinator law: gather([x]) -> [result(x)].
func TestGatherSingletonProducesSingletonList(t *testing.T) {
	b := plan.NewBuilder()
	op, err := intrinsics.Sleep(b, value.Float(0), nil)
	require.NoError(t, err)
	root := intrinsics.Gather(b, []value.Value{op}, nil)
	p, err := b.Freeze()
	require.NoError(t, err)

	result := runPlan(t, p)
	require.Empty(t, result.Failed)
	list := result.Roots[root.AsDeferred()].AsList()
	require.Len(t, list, 1)
	assert.Equal(t, value.KindNull, list[0].Kind())
}

// Dependency failure propagation: if X fails, every dependent of X ends in
// DependencyError and never runs its own driver.
func TestDependencyFailurePropagates(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "missing.txt")
	derivedPath := filepath.Join(dir, "derived.txt")

	b := plan.NewBuilder()
	x, err := intrinsics.ReadFile(b, value.String(missing), nil)
	require.NoError(t, err)
	y, err := intrinsics.WriteFile(b, value.String(derivedPath), x, nil)
	require.NoError(t, err)
	p, err := b.Freeze()
	require.NoError(t, err)

	result := runPlan(t, p)
	require.NotEmpty(t, result.Failed)
	assert.NoFileExists(t, derivedPath)

	_ = y
}

// at_least/at_most never fail on individual op failures, only report counts.
func TestAtLeastCountsSuccessesAcrossFailures(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "missing.txt")
	ok := filepath.Join(dir, "ok.txt")

	b := plan.NewBuilder()
	okOp, err := intrinsics.WriteFile(b, value.String(ok), value.String("x"), nil)
	require.NoError(t, err)
	failOp, err := intrinsics.ReadFile(b, value.String(missing), nil)
	require.NoError(t, err)
	root, err := intrinsics.AtLeast(b, value.Int(1), []value.Value{okOp, failOp}, nil)
	require.NoError(t, err)
	p, err := b.Freeze()
	require.NoError(t, err)

	result := runPlan(t, p)
	// failOp is itself a root, so its own failure is reported; the at_least
	// node is not among the failures.
	require.Len(t, result.Failed, 1)
	assert.True(t, result.Roots[root.AsDeferred()].AsBool())
}

// Cancellation bound: a context cancelled before Run observes any progress
// leaves every node Cancelled rather than Succeeded.
func TestCancellationPreventsExecution(t *testing.T) {
	b := plan.NewBuilder()
	d, err := intrinsics.Sleep(b, value.Float(1.0), nil)
	require.NoError(t, err)
	p, err := b.Freeze()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result, err := executor.Run(ctx, p, drivers.Default(), executor.Config{})
	require.NoError(t, err)
	assert.NotContains(t, result.Roots, d.AsDeferred())
}
