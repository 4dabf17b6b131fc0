//go:build unix

package server

import (
	"os/exec"
	"syscall"
)

// detach starts the server in its own session so it survives the terminal
// that ran `ready`.
func detach(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
}
