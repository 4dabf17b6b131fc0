// Package server starts and stops the background API server.
//
// No state is persisted: whether a server runs is decided from the live
// process table on every call. Start refuses an occupied port, Stop signals
// every process carrying this tool's server tag.
package server

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/devrunner/devrunner/internal/process"
)

// Launcher spawns a detached server bound to port.
type Launcher interface {
	Launch(ctx context.Context, port int) (*LaunchHandle, error)
}

// Terminator delivers a termination signal to a process.
type Terminator interface {
	Terminate(pid int) error
}

// LaunchHandle describes a spawned server. It only proves that the process
// was created: whether it went on to bind the port is not checked.
type LaunchHandle struct {
	PID  int
	Port int
}

// PortInUseError is returned by Start when the port is already bound.
type PortInUseError struct {
	Port int
	PIDs []int
}

func (e *PortInUseError) Error() string {
	return fmt.Sprintf("port %d is already in use", e.Port)
}

// StopResult is the outcome of terminating one server process.
type StopResult struct {
	PID  int
	Port int
	Err  error
}

// Lifecycle implements idempotent start and best-effort stop.
type Lifecycle struct {
	locator    process.Locator
	launcher   Launcher
	terminator Terminator

	// pattern and tag select this tool's servers among live processes.
	pattern string
	tag     string
}

// New creates a Lifecycle. pattern is a regular expression over process
// command lines; tag is the marker every launched server carries.
func New(locator process.Locator, launcher Launcher, terminator Terminator, pattern, tag string) (*Lifecycle, error) {
	if locator == nil {
		return nil, fmt.Errorf("missing process locator")
	}
	if launcher == nil {
		return nil, fmt.Errorf("missing launcher")
	}
	if terminator == nil {
		return nil, fmt.Errorf("missing terminator")
	}
	if pattern == "" || tag == "" {
		return nil, fmt.Errorf("process pattern and tag are required")
	}
	return &Lifecycle{
		locator:    locator,
		launcher:   launcher,
		terminator: terminator,
		pattern:    pattern,
		tag:        tag,
	}, nil
}

// Start launches a server on port unless something already listens there.
// It returns as soon as the process is spawned.
func (l *Lifecycle) Start(ctx context.Context, port int) (*LaunchHandle, error) {
	pids, err := l.locator.FindByPort(ctx, port)
	if err != nil {
		return nil, fmt.Errorf("checking port %d: %w", port, err)
	}
	if len(pids) > 0 {
		// Even our own server counts as a conflict
		return nil, &PortInUseError{Port: port, PIDs: pids}
	}

	handle, err := l.launcher.Launch(ctx, port)
	if err != nil {
		return nil, fmt.Errorf("launching server on port %d: %w", port, err)
	}

	slog.DebugContext(ctx, "server launched", "pid", handle.PID, "port", handle.Port)
	return handle, nil
}

// Stop signals every running server in discovery order. A failure to signal
// one process does not stop the others. An empty result means no server was
// running. Exit is not awaited.
func (l *Lifecycle) Stop(ctx context.Context) ([]StopResult, error) {
	matches, err := l.Running(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]StopResult, 0, len(matches))
	for _, m := range matches {
		err := l.terminator.Terminate(m.PID)
		if err != nil {
			slog.WarnContext(ctx, "failed to terminate server", "pid", m.PID, "port", m.Port, "error", err)
		}
		results = append(results, StopResult{PID: m.PID, Port: m.Port, Err: err})
	}
	return results, nil
}

// Running lists this tool's live server processes.
func (l *Lifecycle) Running(ctx context.Context) ([]process.Match, error) {
	matches, err := l.locator.FindByNameAndTag(ctx, l.pattern, l.tag)
	if err != nil {
		return nil, fmt.Errorf("finding servers: %w", err)
	}
	return matches, nil
}
