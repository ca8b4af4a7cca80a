package drivers

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/alexchoi0/blueprint/eventsource"
	"github.com/alexchoi0/blueprint/value"
)

// EventSourceTable implements executor.EventSourceDriver over an
// eventsource.Table, translating the event_source/event_write/event_poll/
// event_source_close intrinsic surface into net.Dial/Listen calls and
// value.Value-shaped event records.
type EventSourceTable struct {
	table *eventsource.Table
}

func NewEventSourceTable(t *eventsource.Table) *EventSourceTable {
	return &EventSourceTable{table: t}
}

func (d *EventSourceTable) Open(ctx context.Context, kind string, params value.Value) (eventsource.Handle, error) {
	p := fields(params)
	switch kind {
	case "tcp_connect":
		addr := fmt.Sprintf("%s:%d", p["host"].AsString(), p["port"].AsInt())
		conn, err := (&net.Dialer{}).DialContext(ctx, "tcp", addr)
		if err != nil {
			return eventsource.Handle{}, err
		}
		return d.table.RegisterConn("tcp", conn), nil
	case "tcp_listen":
		addr := fmt.Sprintf("%s:%d", p["host"].AsString(), p["port"].AsInt())
		ln, err := net.Listen("tcp", addr)
		if err != nil {
			return eventsource.Handle{}, err
		}
		return d.table.RegisterListener("tcp", ln), nil
	case "udp":
		addr := fmt.Sprintf("%s:%d", p["host"].AsString(), p["port"].AsInt())
		pc, err := net.ListenPacket("udp", addr)
		if err != nil {
			return eventsource.Handle{}, err
		}
		return d.table.RegisterPacketConn(pc), nil
	case "unix_connect":
		conn, err := (&net.Dialer{}).DialContext(ctx, "unix", p["path"].AsString())
		if err != nil {
			return eventsource.Handle{}, err
		}
		return d.table.RegisterConn("unix", conn), nil
	case "unix_listen":
		ln, err := net.Listen("unix", p["path"].AsString())
		if err != nil {
			return eventsource.Handle{}, err
		}
		return d.table.RegisterListener("unix", ln), nil
	default:
		return eventsource.Handle{}, fmt.Errorf("event_source: unknown kind %q", kind)
	}
}

func (d *EventSourceTable) Write(ctx context.Context, h eventsource.Handle, data []byte, dest value.Value) (int, error) {
	var addr net.Addr
	if dest.Kind() == value.KindStruct {
		f := fields(dest)
		resolved, err := net.ResolveUDPAddr("udp", fmt.Sprintf("%s:%d", f["host"].AsString(), f["port"].AsInt()))
		if err != nil {
			return 0, err
		}
		addr = resolved
	}
	return d.table.Write(h, data, addr)
}

func (d *EventSourceTable) Poll(ctx context.Context, handles []eventsource.Handle, timeoutMs float64) (value.Value, error) {
	h, ev, err := d.table.Poll(ctx, handles, time.Duration(timeoutMs)*time.Millisecond)
	if err != nil {
		return value.Null(), err
	}
	if ev == nil {
		return value.Null(), nil
	}
	// A source closing mid-poll (listener torn down, peer hung up) is, like
	// a plain timeout, never a failure: recv on a dead source yields null
	// rather than an error (spec S5).
	if ev.Type == eventsource.EventClosed {
		return value.Null(), nil
	}
	data := make(map[string]value.Value, len(ev.Data))
	for k, v := range ev.Data {
		switch t := v.(type) {
		case eventsource.Handle:
			data[k] = value.String(t.String())
		case []byte:
			data[k] = value.Bytes(t)
		case string:
			data[k] = value.String(t)
		default:
			data[k] = value.String(fmt.Sprintf("%v", t))
		}
	}
	return value.Struct(map[string]value.Value{
		"type": value.String(ev.Type.String()),
		"data": value.Struct(data),
		"from": value.String(h.String()),
	}), nil
}

func (d *EventSourceTable) Close(ctx context.Context, h eventsource.Handle) error {
	return d.table.Close(h)
}
