//go:build unix

package process

import (
	"context"
	"net"
	"os/exec"
	"reflect"
	"testing"
)

func withFakeLsof(t *testing.T, script string) {
	t.Helper()
	old := execCommandFn
	execCommandFn = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		return exec.CommandContext(ctx, "sh", "-c", script)
	}
	t.Cleanup(func() { execCommandFn = old })
}

func TestFindListenersParsesLsof(t *testing.T) {
	withFakeLsof(t, "printf '4120\\n4120\\n77\\n'")

	got, err := findListeners(context.Background(), 8000)
	if err != nil {
		t.Fatalf("findListeners() error = %v", err)
	}
	if want := []int{77, 4120}; !reflect.DeepEqual(got, want) {
		t.Errorf("findListeners() = %v, want %v", got, want)
	}
}

func TestFindListenersNoMatch(t *testing.T) {
	withFakeLsof(t, "exit 1")

	got, err := findListeners(context.Background(), 8000)
	if err != nil {
		t.Fatalf("findListeners() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("findListeners() = %v, want none", got)
	}
}

func TestFindListenersLsofFailure(t *testing.T) {
	withFakeLsof(t, "echo 'lsof: bad option' >&2; exit 2")

	if _, err := findListeners(context.Background(), 8000); err == nil {
		t.Fatal("findListeners() error = nil for lsof failure")
	}
}

func TestFindListenersFallsBackToProbe(t *testing.T) {
	old := lsofPath
	lsofPath = "devrunner-no-such-lsof"
	t.Cleanup(func() { lsofPath = old })

	ln, err := net.Listen("tcp", ":0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer ln.Close()
	port := ln.Addr().(*net.TCPAddr).Port

	got, err := findListeners(context.Background(), port)
	if err != nil {
		t.Fatalf("findListeners() error = %v", err)
	}
	if !reflect.DeepEqual(got, []int{UnknownPID}) {
		t.Errorf("findListeners(busy) = %v, want [UnknownPID]", got)
	}

	_ = ln.Close()
	got, err = findListeners(context.Background(), port)
	if err != nil {
		t.Fatalf("findListeners() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("findListeners(free) = %v, want none", got)
	}
}

func TestTerminateRejectsInvalidPID(t *testing.T) {
	for _, pid := range []int{0, -1} {
		if err := Terminate(pid); err == nil {
			t.Errorf("Terminate(%d) error = nil", pid)
		}
	}
}

func TestTerminateSignalsProcess(t *testing.T) {
	cmd := exec.Command("sleep", "30")
	if err := cmd.Start(); err != nil {
		t.Skipf("cannot start sleep: %v", err)
	}

	if err := Terminate(cmd.Process.Pid); err != nil {
		t.Fatalf("Terminate() error = %v", err)
	}
	if err := cmd.Wait(); err == nil {
		t.Fatal("process exited cleanly, want termination by signal")
	}
}
