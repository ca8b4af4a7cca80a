// Package cli is the thin reference command surface over the executor: YAML
// fixture plans selecting one of the S1-S6 scenarios from the testable
// properties, built with plan.Builder and the intrinsics package exactly as
// a real script-time frontend would.
package cli

import (
	"fmt"
	"net"

	"github.com/alexchoi0/blueprint/intrinsics"
	"github.com/alexchoi0/blueprint/plan"
	"github.com/alexchoi0/blueprint/value"
)

// Fixture names one of the end-to-end scenarios from the spec's testable
// properties, plus the frozen plan it builds.
type Fixture struct {
	Name        string
	Description string
	Build       func() (*plan.Plan, error)
}

var fixtures = map[string]Fixture{
	"s1": {
		Name:        "s1",
		Description: "gather([sleep(0.1), sleep(0.1), sleep(0.1)]) terminates in ~0.1s",
		Build:       buildS1,
	},
	"s2": {
		Name:        "s2",
		Description: "sequence([sleep(0.05) x 4]) terminates in ~0.2s with strictly increasing timestamps",
		Build:       buildS2,
	},
	"s3": {
		Name:        "s3",
		Description: "after(gather([write_file x2]), read_file) resolves to the first write's content",
		Build:       buildS3,
	},
	"s4": {
		Name:        "s4",
		Description: "any([sleep(1.0), sleep(0.01)]) resolves in ~0.01s",
		Build:       buildS4,
	},
	"s5": {
		Name:        "s5",
		Description: "tcp_connect/event_write/event_poll round-trips \"ping\" through an echoing listener",
		Build:       buildS5,
	},
	"s6": {
		Name:        "s6",
		Description: "gather([ok, failing, ok]) fails with the failing op's underlying error",
		Build:       buildS6,
	},
}

// Names lists the available fixture names, for schema and error-suggestion
// output. The order follows map iteration and is not stable; callers sort.
func Names() []string {
	names := make([]string, 0, len(fixtures))
	for n := range fixtures {
		names = append(names, n)
	}
	return names
}

// Lookup returns the named fixture, or false if it does not exist.
func Lookup(name string) (Fixture, bool) {
	f, ok := fixtures[name]
	return f, ok
}

func buildS1() (*plan.Plan, error) {
	b := plan.NewBuilder()
	ops := make([]value.Value, 3)
	for i := range ops {
		d, err := intrinsics.Sleep(b, value.Float(0.1), nil)
		if err != nil {
			return nil, err
		}
		ops[i] = d
	}
	intrinsics.Gather(b, ops, nil)
	return b.Freeze()
}

func buildS2() (*plan.Plan, error) {
	b := plan.NewBuilder()
	ops := make([]value.Value, 4)
	for i := range ops {
		d, err := intrinsics.Sleep(b, value.Float(0.05), nil)
		if err != nil {
			return nil, err
		}
		ops[i] = d
	}
	intrinsics.Sequence(b, ops, nil)
	return b.Freeze()
}

func buildS3() (*plan.Plan, error) {
	b := plan.NewBuilder()
	w1, err := intrinsics.WriteFile(b, value.String("/tmp/blueprint-s3-a"), value.String("A"), nil)
	if err != nil {
		return nil, err
	}
	w2, err := intrinsics.WriteFile(b, value.String("/tmp/blueprint-s3-b"), value.String("B"), nil)
	if err != nil {
		return nil, err
	}
	gathered := intrinsics.Gather(b, []value.Value{w1, w2}, nil)
	read, err := intrinsics.ReadFile(b, value.String("/tmp/blueprint-s3-a"), nil)
	if err != nil {
		return nil, err
	}
	intrinsics.After(b, gathered, read, nil)
	return b.Freeze()
}

func buildS4() (*plan.Plan, error) {
	b := plan.NewBuilder()
	slow, err := intrinsics.Sleep(b, value.Float(1.0), nil)
	if err != nil {
		return nil, err
	}
	fast, err := intrinsics.Sleep(b, value.Float(0.01), nil)
	if err != nil {
		return nil, err
	}
	intrinsics.Any(b, []value.Value{slow, fast}, nil)
	return b.Freeze()
}

// startEchoListener spins up a one-shot echoing TCP listener on an
// ephemeral port and returns the port it bound. It plays the part of the
// external peer the s5 fixture talks to; the fixture itself only builds
// the client side of the exchange.
func startEchoListener() (int, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, err
	}
	go func() {
		conn, err := ln.Accept()
		ln.Close()
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
	return ln.Addr().(*net.TCPAddr).Port, nil
}

func buildS5() (*plan.Plan, error) {
	port, err := startEchoListener()
	if err != nil {
		return nil, err
	}

	b := plan.NewBuilder()
	handle, err := intrinsics.EventSource(b, value.String("tcp_connect"), value.Struct(map[string]value.Value{
		"host": value.String("127.0.0.1"),
		"port": value.Int(int64(port)),
	}), nil)
	if err != nil {
		return nil, err
	}
	write := intrinsics.EventWrite(b, handle, value.String("ping"), value.Null(), nil)
	poll := intrinsics.EventPoll(b, []value.Value{handle}, value.Float(2000), nil)
	orderedPoll := intrinsics.After(b, write, poll, nil)
	closeOp := intrinsics.EventSourceClose(b, handle, nil)
	intrinsics.After(b, orderedPoll, closeOp, nil)
	return b.Freeze()
}

func buildS6() (*plan.Plan, error) {
	b := plan.NewBuilder()
	ok1, err := intrinsics.WriteFile(b, value.String("/tmp/blueprint-s6-1"), value.String("ok"), nil)
	if err != nil {
		return nil, err
	}
	failing, err := intrinsics.ReadFile(b, value.String("/tmp/blueprint-s6-does-not-exist"), nil)
	if err != nil {
		return nil, err
	}
	ok2, err := intrinsics.WriteFile(b, value.String("/tmp/blueprint-s6-2"), value.String("ok"), nil)
	if err != nil {
		return nil, err
	}
	intrinsics.Gather(b, []value.Value{ok1, failing, ok2}, nil)
	return b.Freeze()
}

// Describe renders a one-line fixture summary for the schema command.
func Describe(f Fixture) string {
	return fmt.Sprintf("%s: %s", f.Name, f.Description)
}
