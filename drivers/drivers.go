// Package drivers implements the default, real-world kind drivers that
// back executor.DriverSet: os-backed file I/O, a net/http client, os/exec
// subprocesses, a runtime timer, and the eventsource handle table. Tests
// substitute fakes implementing the same executor interfaces; nothing in
// package executor imports this package, matching the teacher pack's
// pluggable-driver seam.
package drivers

import (
	"net/http"
	"time"

	"github.com/alexchoi0/blueprint/eventsource"
	"github.com/alexchoi0/blueprint/executor"
)

// Default returns the OS/network-backed DriverSet used outside of tests.
func Default() executor.DriverSet {
	return executor.DriverSet{
		File:        FileSystem{},
		HTTP:        &HTTPClient{Client: &http.Client{Timeout: 60 * time.Second}},
		Process:     OSProcess{},
		Timer:       RealTimer{},
		EventSource: NewEventSourceTable(eventsource.NewTable()),
		Compute:     Arithmetic{},
	}
}
