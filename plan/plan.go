// Package plan implements the append-only DAG of operation nodes that the
// script-time intrinsics build and the executor later drains. A Plan is
// immutable once frozen; Builder is the only thing that can grow it.
package plan

import (
	"fmt"

	"github.com/alexchoi0/blueprint/internal/invariant"
	"github.com/alexchoi0/blueprint/value"
)

// NodeID identifies a node; it is an alias of value.NodeID so that a
// Deferred and the node it names share one representation without an
// import cycle between plan and value.
type NodeID = value.NodeID

// Span carries optional source-location metadata for error reporting. It is
// never consulted by the executor.
type Span struct {
	File   string
	Line   int
	Column int
}

// NodeKind enumerates every operation the plan builder can allocate. The
// set is fixed and matches the intrinsic catalogue; nothing outside this
// package may introduce a new kind.
type NodeKind int

const (
	KindInvalid NodeKind = iota

	// File I/O
	KindReadFile
	KindWriteFile
	KindAppendFile
	KindDeleteFile
	KindFileExists
	KindIsFile
	KindIsDir
	KindMkdir
	KindRmdir
	KindListDir
	KindCopyFile
	KindMoveFile
	KindFileSize

	// HTTP
	KindHTTPRequest

	// Process
	KindExec
	KindEnvGet

	// Time
	KindSleep
	KindNow

	// JSON
	KindJSONEncode
	KindJSONDecode

	// Console
	KindStdout
	KindStderr

	// Event source
	KindEventSource
	KindEventWrite
	KindEventPoll
	KindEventSourceClose

	// Compute
	KindAdd
	KindSub
	KindMul
	KindDiv
	KindFloorDiv
	KindMod
	KindNeg
	KindEq
	KindNe
	KindLt
	KindLe
	KindGt
	KindGe
	KindNot
	KindConcat
	KindContains
	KindToBool
	KindToInt
	KindToFloat
	KindToStr
	KindLen

	// Composition
	KindGather
	KindAny
	KindAtLeast
	KindAtMost
	KindAfter
)

var kindNames = map[NodeKind]string{
	KindReadFile: "read_file", KindWriteFile: "write_file", KindAppendFile: "append_file",
	KindDeleteFile: "delete_file", KindFileExists: "file_exists", KindIsFile: "is_file",
	KindIsDir: "is_dir", KindMkdir: "mkdir", KindRmdir: "rmdir", KindListDir: "list_dir",
	KindCopyFile: "copy_file", KindMoveFile: "move_file", KindFileSize: "file_size",
	KindHTTPRequest: "http_request", KindExec: "exec", KindEnvGet: "env_get",
	KindSleep: "sleep", KindNow: "now",
	KindJSONEncode: "json_encode", KindJSONDecode: "json_decode",
	KindStdout: "stdout", KindStderr: "stderr",
	KindEventSource: "event_source", KindEventWrite: "event_write",
	KindEventPoll: "event_poll", KindEventSourceClose: "event_source_close",
	KindAdd: "add", KindSub: "sub", KindMul: "mul", KindDiv: "div", KindFloorDiv: "floor_div",
	KindMod: "mod", KindNeg: "neg", KindEq: "eq", KindNe: "ne", KindLt: "lt", KindLe: "le",
	KindGt: "gt", KindGe: "ge", KindNot: "not", KindConcat: "concat", KindContains: "contains",
	KindToBool: "bool", KindToInt: "int", KindToFloat: "float", KindToStr: "str", KindLen: "len",
	KindGather: "gather", KindAny: "any", KindAtLeast: "at_least", KindAtMost: "at_most",
	KindAfter: "after",
}

func (k NodeKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Node is a single unit of work in the plan, as described by the data
// model: id, kind, kind-specific args, dependency edges, and an optional
// span.
type Node struct {
	ID        NodeID
	Kind      NodeKind
	Args      value.Value
	DataDeps  []NodeID
	OrderDeps []NodeID
	Span      *Span
}

// Plan is the frozen DAG emitted by one planning session.
type Plan struct {
	Nodes []*Node
	Roots []NodeID
}

// NodeByID returns the node with the given id, or nil if it doesn't exist
// (which would itself be an invariant violation against a frozen Plan,
// since ids are contiguous from construction).
func (p *Plan) NodeByID(id NodeID) *Node {
	idx := int(id)
	if idx < 0 || idx >= len(p.Nodes) {
		return nil
	}
	n := p.Nodes[idx]
	invariant.Invariant(n.ID == id, "node at index %d must have matching id, got %d", idx, n.ID)
	return n
}
