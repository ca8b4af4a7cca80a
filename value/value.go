// Package value implements the tagged value tree that flows through plan
// construction: scalars, sequences, mappings, structs, and Deferred handles
// that stand in for a plan node's not-yet-produced result.
//
// A Deferred is kept cheap by design (a single integer id, per the plan's
// design notes) so that threading a value through List/Map/Struct nesting
// never copies more than the id itself.
package value

import (
	"fmt"
	"sort"

	"golang.org/x/text/unicode/norm"
)

// NodeID identifies a node in the plan graph. It is monotonically assigned
// within one planning session by plan.Builder.
type NodeID uint64

// Kind discriminates the variant a Value holds. The zero Kind is KindNull so
// a zero Value is a valid, well-formed null.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindBytes
	KindList
	KindMap
	KindStruct
	KindDeferred
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindBytes:
		return "bytes"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	case KindStruct:
		return "struct"
	case KindDeferred:
		return "deferred"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Value is the tagged union described by the data model. Only the field
// matching Kind is meaningful; the rest are zero.
type Value struct {
	kind Kind

	b      bool
	i      int64
	f      float64
	s      string
	bytes  []byte
	list   []Value
	mp     map[string]Value
	strct  map[string]Value
	nodeID NodeID
}

func (v Value) Kind() Kind { return v.kind }

func Null() Value                { return Value{kind: KindNull} }
func Bool(b bool) Value          { return Value{kind: KindBool, b: b} }
func Int(i int64) Value          { return Value{kind: KindInt, i: i} }
func Float(f float64) Value      { return Value{kind: KindFloat, f: f} }
func Bytes(b []byte) Value       { return Value{kind: KindBytes, bytes: append([]byte(nil), b...)} }
func Deferred(id NodeID) Value   { return Value{kind: KindDeferred, nodeID: id} }

// String normalizes to NFC so that two values built from differently
// composed Unicode inputs compare equal and hash identically, matching the
// teacher pack's use of golang.org/x/text for text normalization.
func String(s string) Value {
	return Value{kind: KindString, s: norm.NFC.String(s)}
}

func List(items ...Value) Value {
	return Value{kind: KindList, list: append([]Value(nil), items...)}
}

func Map(m map[string]Value) Value {
	cp := make(map[string]Value, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return Value{kind: KindMap, mp: cp}
}

func Struct(fields map[string]Value) Value {
	cp := make(map[string]Value, len(fields))
	for k, v := range fields {
		cp[k] = v
	}
	return Value{kind: KindStruct, strct: cp}
}

// AsBool, AsInt, etc. panic if Kind doesn't match; callers that accept
// either a materialized value or a Deferred must check Kind() first (see
// RequireEager).
func (v Value) AsBool() bool     { mustKind(v, KindBool); return v.b }
func (v Value) AsInt() int64     { mustKind(v, KindInt); return v.i }
func (v Value) AsFloat() float64 { mustKind(v, KindFloat); return v.f }
func (v Value) AsString() string { mustKind(v, KindString); return v.s }
func (v Value) AsBytes() []byte  { mustKind(v, KindBytes); return v.bytes }
func (v Value) AsList() []Value  { mustKind(v, KindList); return v.list }
func (v Value) AsMap() map[string]Value    { mustKind(v, KindMap); return v.mp }
func (v Value) AsStruct() map[string]Value { mustKind(v, KindStruct); return v.strct }
func (v Value) AsDeferred() NodeID         { mustKind(v, KindDeferred); return v.nodeID }

func mustKind(v Value, want Kind) {
	if v.kind != want {
		panic(fmt.Sprintf("value: expected %s, got %s", want, v.kind))
	}
}

// IsDeferred reports whether v is itself a Deferred reference. It does not
// look inside List/Map/Struct — use CollectDeferreds for that.
func (v Value) IsDeferred() bool { return v.kind == KindDeferred }

// CollectDeferreds walks v (recursing into List/Map/Struct) and returns every
// NodeID referenced by a nested Deferred, in a stable, deduplicated,
// ascending order. This is the linear-in-args-size pass that plan.Builder
// uses to compute a new node's data_deps.
func CollectDeferreds(v Value) []NodeID {
	seen := map[NodeID]bool{}
	var out []NodeID
	var walk func(Value)
	walk = func(v Value) {
		switch v.kind {
		case KindDeferred:
			if !seen[v.nodeID] {
				seen[v.nodeID] = true
				out = append(out, v.nodeID)
			}
		case KindList:
			for _, item := range v.list {
				walk(item)
			}
		case KindMap:
			for _, item := range v.mp {
				walk(item)
			}
		case KindStruct:
			for _, item := range v.strct {
				walk(item)
			}
		}
	}
	walk(v)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Walk invokes visit once for each distinct NodeID referenced by a Deferred
// nested anywhere inside v, including v itself, in the ascending order
// CollectDeferreds produces.
func Walk(v Value, visit func(NodeID)) {
	for _, id := range CollectDeferreds(v) {
		visit(id)
	}
}
