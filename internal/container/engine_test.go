package container

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"reflect"
	"runtime"
	"testing"
)

// stubExec replaces the command constructor, recording argv and running
// script with sh instead.
func stubExec(t *testing.T, script string) *[][]string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}

	old := execCommandContextFn
	t.Cleanup(func() { execCommandContextFn = old })

	var calls [][]string
	execCommandContextFn = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		calls = append(calls, append([]string{name}, args...))
		return exec.CommandContext(ctx, "sh", "-c", script)
	}
	return &calls
}

func TestDockerEngineArgs(t *testing.T) {
	calls := stubExec(t, "exit 0")
	e := NewDockerEngine("podman", &bytes.Buffer{}, &bytes.Buffer{})
	ctx := context.Background()

	for _, err := range []error{
		e.RemoveImage(ctx, "reg/ns/img:latest"),
		e.Build(ctx, "reg/ns/img:latest", "./src"),
		e.Push(ctx, "reg/ns/img:latest"),
		e.Run(ctx, "ns/img"),
	} {
		if err != nil {
			t.Fatalf("engine call error = %v", err)
		}
	}

	want := [][]string{
		{"podman", "rmi", "-f", "reg/ns/img:latest"},
		{"podman", "build", "-t", "reg/ns/img:latest", "./src", "--quiet"},
		{"podman", "push", "reg/ns/img:latest"},
		{"podman", "run", "ns/img"},
	}
	if !reflect.DeepEqual(*calls, want) {
		t.Errorf("calls = %v, want %v", *calls, want)
	}
}

func TestDockerEngineDefaultBinary(t *testing.T) {
	calls := stubExec(t, "exit 0")
	if err := NewDockerEngine("", nil, nil).Push(context.Background(), "x"); err != nil {
		t.Fatalf("Push() error = %v", err)
	}
	if (*calls)[0][0] != DefaultBinary {
		t.Errorf("binary = %q, want %q", (*calls)[0][0], DefaultBinary)
	}
}

func TestDockerEngineStreamsOutput(t *testing.T) {
	stubExec(t, "echo built; echo warn >&2")
	var stdout, stderr bytes.Buffer

	if err := NewDockerEngine("docker", &stdout, &stderr).Build(context.Background(), "t", "."); err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if stdout.String() != "built\n" || stderr.String() != "warn\n" {
		t.Errorf("stdout = %q, stderr = %q", stdout.String(), stderr.String())
	}
}

func TestDockerEngineRemoveDiscardsOutput(t *testing.T) {
	stubExec(t, "echo Untagged")
	var stdout bytes.Buffer

	if err := NewDockerEngine("docker", &stdout, &stdout).RemoveImage(context.Background(), "t"); err != nil {
		t.Fatalf("RemoveImage() error = %v", err)
	}
	if stdout.Len() != 0 {
		t.Errorf("rmi output leaked: %q", stdout.String())
	}
}

func TestDockerEngineFailure(t *testing.T) {
	stubExec(t, "exit 3")

	err := NewDockerEngine("docker", nil, nil).Push(context.Background(), "t")

	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		t.Fatalf("Push() error = %v, want *CommandError", err)
	}
	if !reflect.DeepEqual(cmdErr.Args, []string{"docker", "push", "t"}) {
		t.Errorf("Args = %v", cmdErr.Args)
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) || exitErr.ExitCode() != 3 {
		t.Errorf("exit error = %v", err)
	}
}
