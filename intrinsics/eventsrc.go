package intrinsics

import (
	"github.com/alexchoi0/blueprint/plan"
	"github.com/alexchoi0/blueprint/value"
)

type eventSourceArgs struct {
	SourceKind string `validate:"required,oneof=tcp_connect tcp_listen udp unix_connect unix_listen"`
}

// EventSource allocates an event_source node. params is a kind-specific
// struct (host/port for tcp, path for unix, etc.) carried through
// unvalidated here, since the param shape varies more than a single struct
// tag set can express cleanly. The default EventSourceDriver
// (drivers.EventSourceTable) reads host/port or path from it without
// checking that they are present or of the right kind.
func EventSource(b *plan.Builder, sourceKind, params value.Value, span *plan.Span) (value.Value, error) {
	if !sourceKind.IsDeferred() {
		if err := validateIfEager(eventSourceArgs{SourceKind: sourceKind.AsString()}, sourceKind); err != nil {
			return value.Null(), err
		}
	}
	args := value.Struct(map[string]value.Value{"kind": sourceKind, "params": params})
	d := b.NewNode(plan.KindEventSource, args, spanOf(span))
	b.MarkRoot(d)
	return d, nil
}

// EventWrite allocates an event_write node. dest is value.Null() except
// for udp, where it carries the destination address.
func EventWrite(b *plan.Builder, handle, data, dest value.Value, span *plan.Span) value.Value {
	args := value.Struct(map[string]value.Value{"handle": handle, "data": data, "dest": dest})
	d := b.NewNode(plan.KindEventWrite, args, spanOf(span))
	b.MarkRoot(d)
	return d
}

// EventPoll allocates an event_poll node over one or more handles, with an
// explicit timeout in milliseconds.
func EventPoll(b *plan.Builder, handles []value.Value, timeoutMs value.Value, span *plan.Span) value.Value {
	args := value.Struct(map[string]value.Value{"handles": value.List(handles...), "timeout_ms": timeoutMs})
	d := b.NewNode(plan.KindEventPoll, args, spanOf(span))
	b.MarkRoot(d)
	return d
}

// EventSourceClose allocates an event_source_close node tearing down the
// handle's underlying resource.
func EventSourceClose(b *plan.Builder, handle value.Value, span *plan.Span) value.Value {
	args := value.Struct(map[string]value.Value{"handle": handle})
	d := b.NewNode(plan.KindEventSourceClose, args, spanOf(span))
	b.MarkRoot(d)
	return d
}
