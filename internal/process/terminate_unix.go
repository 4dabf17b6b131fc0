//go:build unix

package process

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Terminate sends SIGTERM to pid and returns without waiting for it to exit.
func Terminate(pid int) error {
	if pid <= 0 {
		return fmt.Errorf("refusing to signal pid %d", pid)
	}
	if err := unix.Kill(pid, unix.SIGTERM); err != nil {
		return fmt.Errorf("signaling pid %d: %w", pid, err)
	}
	return nil
}
