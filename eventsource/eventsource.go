// Package eventsource implements the executor-owned handle table for
// long-lived sources: TCP/UDP/Unix listeners and connections. A single
// event_source node produces a Handle that many subsequent poll/write/close
// nodes reference directly, bypassing the Deferred data-dependency
// mechanism entirely (handles are live runtime references, not plan
// values).
package eventsource

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Handle is an opaque identifier for a long-lived runtime resource. It is
// never a Deferred, and its resource stays open until Close or CloseAll
// tears it down.
type Handle uuid.UUID

func (h Handle) String() string { return uuid.UUID(h).String() }

// ParseHandle recovers a Handle from the string form produced by
// Handle.String(), which is how handles travel through the value calculus
// (event_write/poll/close receive a handle as an ordinary, previously
// resolved string Value rather than a live Go reference).
func ParseHandle(s string) (Handle, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return Handle{}, err
	}
	return Handle(id), nil
}

// EventType discriminates the kinds of events a source can deliver.
type EventType int

const (
	EventData EventType = iota
	EventAccept
	EventClosed
	EventError
)

func (t EventType) String() string {
	switch t {
	case EventData:
		return "data"
	case EventAccept:
		return "accept"
	case EventClosed:
		return "closed"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is the record format returned from Poll.
type Event struct {
	Type EventType
	Data map[string]interface{}
}

// ErrClosed is returned by any operation on a handle whose source has
// already been torn down by Close.
type ErrClosed struct{ Handle Handle }

func (e *ErrClosed) Error() string { return fmt.Sprintf("event source %s: closed", e.Handle) }

type source struct {
	kind     string
	conn     net.Conn
	listener net.Listener
	packet   net.PacketConn
	events   chan Event
	closed   bool
	mu       sync.Mutex
	cancel   context.CancelFunc
}

// Table is the single executor-owned mapping from handle id to source
// state. Every operation on a source is serialized through the table's own
// locking rather than the caller's goroutine, sidestepping cross-task
// synchronization per the design notes.
type Table struct {
	mu      sync.Mutex
	sources map[Handle]*source
}

// NewTable returns an empty handle table.
func NewTable() *Table {
	return &Table{sources: make(map[Handle]*source)}
}

// RegisterConn allocates a handle wrapping an already-established
// connection (e.g. the result of a tcp_connect or a udp dial).
func (t *Table) RegisterConn(kind string, conn net.Conn) Handle {
	h := Handle(uuid.New())
	ctx, cancel := context.WithCancel(context.Background())
	src := &source{kind: kind, conn: conn, events: make(chan Event, 16), cancel: cancel}
	t.put(h, src)
	go t.pump(ctx, h, src)
	return h
}

// RegisterListener allocates a handle wrapping a listener (tcp_listen,
// unix_listen); accepted connections arrive as EventAccept events carrying
// a freshly registered child handle.
func (t *Table) RegisterListener(kind string, ln net.Listener) Handle {
	h := Handle(uuid.New())
	ctx, cancel := context.WithCancel(context.Background())
	src := &source{kind: kind, listener: ln, events: make(chan Event, 16), cancel: cancel}
	t.put(h, src)
	go t.acceptLoop(ctx, h, src)
	return h
}

// RegisterPacketConn allocates a handle wrapping a bound UDP socket.
func (t *Table) RegisterPacketConn(pc net.PacketConn) Handle {
	h := Handle(uuid.New())
	ctx, cancel := context.WithCancel(context.Background())
	src := &source{kind: "udp", packet: pc, events: make(chan Event, 16), cancel: cancel}
	t.put(h, src)
	go t.pumpPacket(ctx, h, src)
	return h
}

func (t *Table) put(h Handle, src *source) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sources[h] = src
}

func (t *Table) get(h Handle) (*source, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	src, ok := t.sources[h]
	return src, ok
}

func (t *Table) pump(ctx context.Context, h Handle, src *source) {
	buf := make([]byte, 64*1024)
	for {
		n, err := src.conn.Read(buf)
		if err != nil {
			select {
			case src.events <- Event{Type: EventClosed}:
			case <-ctx.Done():
			}
			return
		}
		data := append([]byte(nil), buf[:n]...)
		select {
		case src.events <- Event{Type: EventData, Data: map[string]interface{}{"handle": h, "bytes": data}}:
		case <-ctx.Done():
			return
		}
	}
}

func (t *Table) pumpPacket(ctx context.Context, h Handle, src *source) {
	buf := make([]byte, 64*1024)
	for {
		n, addr, err := src.packet.ReadFrom(buf)
		if err != nil {
			select {
			case src.events <- Event{Type: EventClosed}:
			case <-ctx.Done():
			}
			return
		}
		data := append([]byte(nil), buf[:n]...)
		select {
		case src.events <- Event{Type: EventData, Data: map[string]interface{}{"handle": h, "bytes": data, "from": addr.String()}}:
		case <-ctx.Done():
			return
		}
	}
}

func (t *Table) acceptLoop(ctx context.Context, h Handle, src *source) {
	for {
		conn, err := src.listener.Accept()
		if err != nil {
			select {
			case src.events <- Event{Type: EventClosed}:
			case <-ctx.Done():
			}
			return
		}
		child := t.RegisterConn(src.kind, conn)
		select {
		case src.events <- Event{Type: EventAccept, Data: map[string]interface{}{"child": child}}:
		case <-ctx.Done():
			return
		}
	}
}

// Poll awaits the first available event across handles, or nil with no
// error on timeout (a timeout is never a failure, per the concurrency
// model). Each event is consumed by at most one Poll call — there is no
// fanout, since only one goroutine ever wins the race to receive from a
// given source's channel.
func (t *Table) Poll(ctx context.Context, handles []Handle, timeout time.Duration) (Handle, *Event, error) {
	cases := make([]reflectSelectCase, 0, len(handles)+2)
	for _, h := range handles {
		src, ok := t.get(h)
		if !ok {
			return h, nil, &ErrClosed{Handle: h}
		}
		src.mu.Lock()
		closed := src.closed
		src.mu.Unlock()
		if closed {
			return h, nil, &ErrClosed{Handle: h}
		}
		cases = append(cases, reflectSelectCase{handle: h, ch: src.events})
	}
	return selectFirst(ctx, cases, timeout)
}

// Write pushes data to the handle's socket. dest is required for udp
// sources and ignored otherwise.
func (t *Table) Write(h Handle, data []byte, dest net.Addr) (int, error) {
	src, ok := t.get(h)
	if !ok {
		return 0, &ErrClosed{Handle: h}
	}
	src.mu.Lock()
	closed := src.closed
	src.mu.Unlock()
	if closed {
		return 0, &ErrClosed{Handle: h}
	}
	switch {
	case src.packet != nil:
		if dest == nil {
			return 0, fmt.Errorf("event source %s: udp write requires a destination", h)
		}
		return src.packet.WriteTo(data, dest)
	case src.conn != nil:
		return src.conn.Write(data)
	default:
		return 0, fmt.Errorf("event source %s: not a writable connection", h)
	}
}

// Close tears down the handle's underlying resource. Subsequent operations
// on the handle return ErrClosed.
func (t *Table) Close(h Handle) error {
	src, ok := t.get(h)
	if !ok {
		return &ErrClosed{Handle: h}
	}
	src.mu.Lock()
	if src.closed {
		src.mu.Unlock()
		return nil
	}
	src.closed = true
	src.mu.Unlock()

	src.cancel()
	t.mu.Lock()
	delete(t.sources, h)
	t.mu.Unlock()

	switch {
	case src.conn != nil:
		return src.conn.Close()
	case src.listener != nil:
		return src.listener.Close()
	case src.packet != nil:
		return src.packet.Close()
	}
	return nil
}

// CloseAll releases every handle owned by the table. executor.Run does not
// call it, so handles opened during a run stay open after the run ends until
// the table's owner calls CloseAll (or Close per handle).
func (t *Table) CloseAll() {
	t.mu.Lock()
	handles := make([]Handle, 0, len(t.sources))
	for h := range t.sources {
		handles = append(handles, h)
	}
	t.mu.Unlock()
	for _, h := range handles {
		_ = t.Close(h)
	}
}
