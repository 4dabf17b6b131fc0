// Package process queries the local OS process table: who listens on a port,
// and which processes belong to this tool's background server.
//
// Queries never mutate anything. Terminate is the only operation with side
// effects and is kept separate from Locator.
package process

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
)

// UnknownPID is reported by FindByPort when a port is bound but the owning
// process cannot be identified.
const UnknownPID = 0

// Match is a process whose command line identifies it as one of our servers.
type Match struct {
	PID         int
	Port        int
	CommandLine string
}

// Locator finds live processes.
type Locator interface {
	// FindByPort returns the PIDs holding a listening TCP socket on port.
	// An empty result means the port is free.
	FindByPort(ctx context.Context, port int) ([]int, error)

	// FindByNameAndTag returns processes whose command line matches the
	// regular expression pattern and contains tag, ordered by PID. Processes
	// whose port cannot be parsed from their arguments are left out.
	FindByNameAndTag(ctx context.Context, pattern, tag string) ([]Match, error)
}

// processInfo is one row of the process table.
type processInfo struct {
	PID  int
	Args []string
}

// SystemLocator implements Locator with the platform's process APIs.
type SystemLocator struct {
	// self is excluded from FindByNameAndTag results.
	self int
}

// Compile-time check to ensure SystemLocator implements Locator
var _ Locator = (*SystemLocator)(nil)

// NewSystemLocator creates a Locator backed by the local process table.
func NewSystemLocator() *SystemLocator {
	return &SystemLocator{self: os.Getpid()}
}

// FindByPort implements Locator.
func (l *SystemLocator) FindByPort(ctx context.Context, port int) ([]int, error) {
	if port < 1 || port > 65535 {
		return nil, fmt.Errorf("invalid port %d", port)
	}
	return findListeners(ctx, port)
}

// FindByNameAndTag implements Locator.
func (l *SystemLocator) FindByNameAndTag(ctx context.Context, pattern, tag string) ([]Match, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid process pattern %q: %w", pattern, err)
	}

	procs, err := listProcesses(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing processes: %w", err)
	}

	return filterMatches(procs, re, tag, l.self), nil
}

func filterMatches(procs []processInfo, re *regexp.Regexp, tag string, self int) []Match {
	sort.Slice(procs, func(i, j int) bool { return procs[i].PID < procs[j].PID })

	var matches []Match
	for _, p := range procs {
		if p.PID == self || len(p.Args) == 0 {
			continue
		}
		cmdline := strings.Join(p.Args, " ")
		if !re.MatchString(cmdline) || !strings.Contains(cmdline, tag) {
			continue
		}
		port, ok := ParsePort(p.Args)
		if !ok {
			// Ambiguous identity: never offered for termination
			continue
		}
		matches = append(matches, Match{PID: p.PID, Port: port, CommandLine: cmdline})
	}
	return matches
}

// ParsePort extracts the listening port from server arguments. It understands
// "--port N", "--port=N", "-p N" and falls back to a trailing numeric argument.
func ParsePort(args []string) (int, bool) {
	for i, arg := range args {
		switch {
		case arg == "--port" || arg == "-port" || arg == "-p":
			if i+1 < len(args) {
				return portNumber(args[i+1])
			}
			return 0, false
		case strings.HasPrefix(arg, "--port="):
			return portNumber(strings.TrimPrefix(arg, "--port="))
		case strings.HasPrefix(arg, "-port="):
			return portNumber(strings.TrimPrefix(arg, "-port="))
		}
	}
	if len(args) > 1 {
		return portNumber(args[len(args)-1])
	}
	return 0, false
}
