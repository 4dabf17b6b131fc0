//go:build windows

package process

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
)

var execCommandFn = exec.CommandContext

// cimQuery prints "PID<TAB>CommandLine" for every process.
const cimQuery = "Get-CimInstance Win32_Process | ForEach-Object { \"$($_.ProcessId)`t$($_.CommandLine)\" }"

func findListeners(ctx context.Context, port int) ([]int, error) {
	out, err := execCommandFn(ctx, "netstat", "-ano").Output()
	if err != nil {
		return nil, fmt.Errorf("running netstat: %w", err)
	}
	return parseNetstatListeners(string(out), port), nil
}

func listProcesses(ctx context.Context) ([]processInfo, error) {
	out, err := execCommandFn(ctx, "powershell", "-NoProfile", "-NonInteractive", "-Command", cimQuery).Output()
	if err != nil {
		return nil, fmt.Errorf("querying Win32_Process: %w", err)
	}
	return parseProcessTable(string(out)), nil
}

// Terminate kills the process tree rooted at pid. Windows has no SIGTERM, so
// this is forceful.
func Terminate(pid int) error {
	cmd := exec.Command("taskkill", "/T", "/F", "/PID", strconv.Itoa(pid))
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("taskkill failed for pid %d: %w", pid, err)
	}
	return nil
}
