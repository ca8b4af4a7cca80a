package executor

import (
	"context"

	"github.com/alexchoi0/blueprint/eventsource"
	"github.com/alexchoi0/blueprint/plan"
	"github.com/alexchoi0/blueprint/value"
)

// FileDriver performs the File I/O family of kinds asynchronously.
type FileDriver interface {
	ReadFile(ctx context.Context, path string) (string, error)
	WriteFile(ctx context.Context, path, content string) error
	AppendFile(ctx context.Context, path, content string) error
	DeleteFile(ctx context.Context, path string) error
	FileExists(ctx context.Context, path string) (bool, error)
	IsFile(ctx context.Context, path string) (bool, error)
	IsDir(ctx context.Context, path string) (bool, error)
	Mkdir(ctx context.Context, path string, recursive bool) error
	Rmdir(ctx context.Context, path string, recursive bool) error
	ListDir(ctx context.Context, path string) ([]string, error)
	CopyFile(ctx context.Context, from, to string) error
	MoveFile(ctx context.Context, from, to string) error
	FileSize(ctx context.Context, path string) (int64, error)
}

// HTTPDriver performs http_request nodes. A non-2xx status is a successful
// result carrying the status field, not an error — only transport/parse
// failures surface as err.
type HTTPDriver interface {
	Do(ctx context.Context, method, url string, body []byte, headers map[string]string) (status int, respHeaders map[string]string, respBody string, err error)
}

// ProcessDriver performs exec and env_get.
type ProcessDriver interface {
	Exec(ctx context.Context, argv []string, cwd string, env map[string]string) (code int, stdout, stderr string, err error)
	EnvGet(name string) (string, bool)
}

// TimerDriver performs sleep and now.
type TimerDriver interface {
	Sleep(ctx context.Context, seconds float64) error
	Now() float64
}

// EventSourceDriver performs event_source/event_write/event_poll/
// event_source_close, backed by an eventsource.Table.
type EventSourceDriver interface {
	Open(ctx context.Context, kind string, params value.Value) (eventsource.Handle, error)
	Write(ctx context.Context, h eventsource.Handle, data []byte, dest value.Value) (int, error)
	Poll(ctx context.Context, handles []eventsource.Handle, timeoutMs float64) (value.Value, error)
	Close(ctx context.Context, h eventsource.Handle) error
}

// ComputeDriver evaluates arithmetic/comparison/coercion nodes over
// resolved operands, synchronously — compute nodes never suspend.
type ComputeDriver interface {
	Eval(kind plan.NodeKind, operands []value.Value) (value.Value, error)
}

// DriverSet bundles every pluggable kind driver. The default, os/net/http/
// os-exec-backed implementations live in package drivers; tests substitute
// fakes here.
type DriverSet struct {
	File        FileDriver
	HTTP        HTTPDriver
	Process     ProcessDriver
	Timer       TimerDriver
	EventSource EventSourceDriver
	Compute     ComputeDriver
}
