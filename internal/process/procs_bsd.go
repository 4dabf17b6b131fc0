//go:build unix && !linux

package process

import (
	"context"
	"fmt"
)

// listProcesses uses ps on platforms without procfs (macOS, BSDs).
func listProcesses(ctx context.Context) ([]processInfo, error) {
	out, err := execCommandFn(ctx, "ps", "-axww", "-o", "pid=", "-o", "command=").Output()
	if err != nil {
		return nil, fmt.Errorf("running ps: %w", err)
	}
	return parseProcessTable(string(out)), nil
}
