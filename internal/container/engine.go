// Package container builds, pushes and runs project images by shelling out
// to a Docker-compatible engine.
package container

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// DefaultBinary is the engine executable used when none is configured.
const DefaultBinary = "docker"

var execCommandContextFn = exec.CommandContext

// Engine is the subset of container engine operations devrunner needs.
type Engine interface {
	RemoveImage(ctx context.Context, tag string) error
	Build(ctx context.Context, tag, dir string) error
	Push(ctx context.Context, tag string) error
	Run(ctx context.Context, tag string) error
}

// CommandError reports a failed engine invocation.
type CommandError struct {
	Args []string
	Err  error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %v", strings.Join(e.Args, " "), e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// DockerEngine runs the docker CLI, or any CLI accepting the same arguments
// (podman, nerdctl).
type DockerEngine struct {
	binary string
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

// Compile-time check to ensure DockerEngine implements Engine
var _ Engine = (*DockerEngine)(nil)

// NewDockerEngine creates an engine that streams command output to stdout and stderr.
func NewDockerEngine(binary string, stdout, stderr io.Writer) *DockerEngine {
	if binary == "" {
		binary = DefaultBinary
	}
	return &DockerEngine{
		binary: binary,
		stdin:  os.Stdin,
		stdout: stdout,
		stderr: stderr,
	}
}

// RemoveImage force-removes a local image. Output is discarded.
func (d *DockerEngine) RemoveImage(ctx context.Context, tag string) error {
	return d.run(ctx, nil, io.Discard, io.Discard, "rmi", "-f", tag)
}

// Build builds dir into an image tagged tag.
func (d *DockerEngine) Build(ctx context.Context, tag, dir string) error {
	return d.run(ctx, nil, d.stdout, d.stderr, "build", "-t", tag, dir, "--quiet")
}

// Push uploads tag to its registry.
func (d *DockerEngine) Push(ctx context.Context, tag string) error {
	return d.run(ctx, nil, d.stdout, d.stderr, "push", tag)
}

// Run runs tag in the foreground with the terminal attached.
func (d *DockerEngine) Run(ctx context.Context, tag string) error {
	return d.run(ctx, d.stdin, d.stdout, d.stderr, "run", tag)
}

func (d *DockerEngine) run(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer, args ...string) error {
	cmd := execCommandContextFn(ctx, d.binary, args...)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	if err := cmd.Run(); err != nil {
		return &CommandError{Args: append([]string{d.binary}, args...), Err: err}
	}
	return nil
}
