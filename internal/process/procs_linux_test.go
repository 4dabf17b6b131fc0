//go:build linux

package process

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"testing"
)

func writeProc(t *testing.T, root, pid, cmdline string) {
	t.Helper()
	dir := filepath.Join(root, pid)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "cmdline"), []byte(cmdline), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func TestListProcessesFromProcfs(t *testing.T) {
	root := t.TempDir()
	writeProc(t, root, "812", "/usr/bin/devrunner\x00serve\x00--tag\x00devrunner-api\x00--port\x008001\x00")
	writeProc(t, root, "77", "/usr/bin/devrunner\x00serve\x00--tag\x00devrunner-api\x00--port\x008000\x00")
	writeProc(t, root, "2", "") // kernel thread
	writeProc(t, root, "self", "/usr/bin/devrunner\x00stop\x00")
	if err := os.WriteFile(filepath.Join(root, "uptime"), []byte("1 1"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	old := procRoot
	procRoot = root
	t.Cleanup(func() { procRoot = old })

	procs, err := listProcesses(context.Background())
	if err != nil {
		t.Fatalf("listProcesses() error = %v", err)
	}
	if len(procs) != 2 {
		t.Fatalf("listProcesses() = %+v, want 2 processes", procs)
	}

	got := filterMatches(procs, regexp.MustCompile("devrunner"), "devrunner-api", 0)
	var pids, ports []int
	for _, m := range got {
		pids = append(pids, m.PID)
		ports = append(ports, m.Port)
	}
	if !reflect.DeepEqual(pids, []int{77, 812}) || !reflect.DeepEqual(ports, []int{8000, 8001}) {
		t.Errorf("matches pids %v ports %v, want [77 812] [8000 8001] in discovery order", pids, ports)
	}
}

func TestFindByNameAndTagLiveProcfs(t *testing.T) {
	// The test binary itself never carries the tag
	matches, err := NewSystemLocator().FindByNameAndTag(context.Background(), ".", "devrunner-test-tag-that-never-exists")
	if err != nil {
		t.Fatalf("FindByNameAndTag() error = %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("FindByNameAndTag() = %+v, want none", matches)
	}
}
