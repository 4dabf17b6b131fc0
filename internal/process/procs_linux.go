//go:build linux

package process

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
)

var procRoot = "/proc"

// listProcesses reads every /proc/<pid>/cmdline. Processes that exit or
// cannot be read mid-scan are skipped, as are kernel threads (empty cmdline).
func listProcesses(ctx context.Context) ([]processInfo, error) {
	entries, err := os.ReadDir(procRoot)
	if err != nil {
		return nil, err
	}

	var procs []processInfo
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !entry.IsDir() {
			continue
		}
		pid, err := strconv.Atoi(entry.Name())
		if err != nil || pid <= 0 {
			continue
		}

		raw, err := os.ReadFile(filepath.Join(procRoot, entry.Name(), "cmdline"))
		if err != nil {
			continue
		}
		args := splitCmdline(raw)
		if len(args) == 0 {
			continue
		}
		procs = append(procs, processInfo{PID: pid, Args: args})
	}
	return procs, nil
}
