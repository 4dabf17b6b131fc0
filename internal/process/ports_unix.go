//go:build unix

package process

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os/exec"
	"strconv"
	"syscall"
)

var (
	execCommandFn = exec.CommandContext
	lsofPath      = "lsof"
)

// findListeners asks lsof for LISTEN sockets on port. Client connections to
// the port (e.g. our own login request) are excluded by -sTCP:LISTEN.
func findListeners(ctx context.Context, port int) ([]int, error) {
	cmd := execCommandFn(ctx, lsofPath, "-nP", "-t", "-iTCP:"+strconv.Itoa(port), "-sTCP:LISTEN")
	out, err := cmd.Output()
	if err == nil {
		return parsePIDList(string(out)), nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 && len(out) == 0 {
		// lsof exits 1 when nothing matched
		return nil, nil
	}
	if errors.Is(err, exec.ErrNotFound) {
		slog.DebugContext(ctx, "lsof not available, probing port by binding", "port", port)
		return probePort(port)
	}
	return nil, fmt.Errorf("running lsof: %w", err)
}

// probePort detects an occupied port by trying to bind it. The owner stays
// unknown.
func probePort(port int) ([]int, error) {
	ln, err := net.Listen("tcp", ":"+strconv.Itoa(port))
	if err == nil {
		_ = ln.Close()
		return nil, nil
	}
	if errors.Is(err, syscall.EADDRINUSE) {
		return []int{UnknownPID}, nil
	}
	return nil, fmt.Errorf("probing port %d: %w", port, err)
}
