package server

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
)

// ServeCommand is the hidden subcommand a launched server runs.
const ServeCommand = "serve"

var execCommandFn = exec.Command

// ExecLauncher re-executes the current binary as a detached server process.
type ExecLauncher struct {
	// Executable defaults to os.Executable().
	Executable string
	// GlobalArgs are passed before the serve command (e.g. --config).
	GlobalArgs []string
	// Host is the bind address handed to the server.
	Host string
	// Tag marks the process so Stop can find it again.
	Tag string
	// LogFile receives the server's stdout and stderr. Empty discards them.
	LogFile string
}

// Compile-time check to ensure ExecLauncher implements Launcher
var _ Launcher = (*ExecLauncher)(nil)

// Launch spawns the server and returns without waiting for it. The context
// is only checked before spawning: the server must outlive this process.
func (l *ExecLauncher) Launch(ctx context.Context, port int) (*LaunchHandle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	exe := l.Executable
	if exe == "" {
		var err error
		if exe, err = os.Executable(); err != nil {
			return nil, fmt.Errorf("finding executable: %w", err)
		}
	}

	cmd, cleanup, err := l.newServerCommand(exe, port)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("spawning server: %w", err)
	}

	handle := &LaunchHandle{PID: cmd.Process.Pid, Port: port}
	// Detach: nobody waits for the server
	_ = cmd.Process.Release()
	return handle, nil
}

// serverArgs returns the argv (without the executable) of a server process.
func (l *ExecLauncher) serverArgs(port int) []string {
	args := append([]string{}, l.GlobalArgs...)
	args = append(args, ServeCommand)
	if l.Host != "" {
		args = append(args, "--host", l.Host)
	}
	args = append(args, "--tag", l.Tag, "--port", strconv.Itoa(port))
	return args
}

func (l *ExecLauncher) newServerCommand(exe string, port int) (*exec.Cmd, func(), error) {
	if l.Tag == "" {
		return nil, nil, fmt.Errorf("server tag is required")
	}

	devNull, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s: %w", os.DevNull, err)
	}
	closers := []func() error{devNull.Close}
	cleanup := func() {
		for _, c := range closers {
			_ = c()
		}
	}

	output := devNull
	if l.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(l.LogFile), 0700); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("creating log directory: %w", err)
		}
		logFile, err := os.OpenFile(l.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("opening server log: %w", err)
		}
		closers = append(closers, logFile.Close)
		output = logFile
	}

	cmd := execCommandFn(exe, l.serverArgs(port)...)
	cmd.Stdin = devNull
	cmd.Stdout = output
	cmd.Stderr = output
	detach(cmd)
	return cmd, cleanup, nil
}
