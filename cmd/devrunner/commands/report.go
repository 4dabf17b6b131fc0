package commands

import (
	"fmt"
	"io"

	"github.com/urfave/cli/v3"

	"github.com/devrunner/devrunner/internal/server"
)

// reportStopResults prints one line per terminated server. Any failed
// termination makes the command exit non-zero after all lines are printed.
func reportStopResults(out io.Writer, results []server.StopResult) error {
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			fmt.Fprintf(out, "Failed to terminate devrunner listener on port %d (pid %d): %v\n", r.Port, r.PID, r.Err)
			continue
		}
		fmt.Fprintf(out, "devrunner listener on port %d was terminated.\n", r.Port)
	}
	if failed > 0 {
		return cli.Exit(fmt.Sprintf("stop: %d of %d servers could not be terminated", failed, len(results)), 1)
	}
	return nil
}
