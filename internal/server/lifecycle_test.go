package server

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/devrunner/devrunner/internal/process"
)

// fakeLocator returns a scripted process table.
type fakeLocator struct {
	byPort    map[int][]int
	matches   []process.Match
	portErr   error
	matchErr  error
	gotFilter [2]string
}

func (f *fakeLocator) FindByPort(_ context.Context, port int) ([]int, error) {
	return f.byPort[port], f.portErr
}

func (f *fakeLocator) FindByNameAndTag(_ context.Context, pattern, tag string) ([]process.Match, error) {
	f.gotFilter = [2]string{pattern, tag}
	return f.matches, f.matchErr
}

type fakeLauncher struct {
	ports []int
	err   error
}

func (f *fakeLauncher) Launch(_ context.Context, port int) (*LaunchHandle, error) {
	f.ports = append(f.ports, port)
	if f.err != nil {
		return nil, f.err
	}
	return &LaunchHandle{PID: 4242, Port: port}, nil
}

// fakeTerminator records signaled PIDs and fails for the configured ones.
type fakeTerminator struct {
	fail     map[int]error
	signaled []int
}

func (f *fakeTerminator) Terminate(pid int) error {
	f.signaled = append(f.signaled, pid)
	return f.fail[pid]
}

func newTestLifecycle(t *testing.T, loc *fakeLocator, launcher *fakeLauncher, term *fakeTerminator) *Lifecycle {
	t.Helper()
	l, err := New(loc, launcher, term, "devrunner", "devrunner-api")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return l
}

func TestStartRefusesBusyPort(t *testing.T) {
	for _, pids := range [][]int{{991}, {process.UnknownPID}, {10, 11}} {
		loc := &fakeLocator{byPort: map[int][]int{8000: pids}}
		launcher := &fakeLauncher{}

		_, err := newTestLifecycle(t, loc, launcher, &fakeTerminator{}).Start(context.Background(), 8000)

		var inUse *PortInUseError
		if !errors.As(err, &inUse) {
			t.Fatalf("Start() error = %v, want *PortInUseError", err)
		}
		if inUse.Port != 8000 || !reflect.DeepEqual(inUse.PIDs, pids) {
			t.Errorf("PortInUseError = %+v", inUse)
		}
		if len(launcher.ports) != 0 {
			t.Errorf("launched %v on a busy port", launcher.ports)
		}
	}
}

func TestStartLaunchesOnFreePort(t *testing.T) {
	loc := &fakeLocator{byPort: map[int][]int{8000: {991}}}
	launcher := &fakeLauncher{}

	handle, err := newTestLifecycle(t, loc, launcher, &fakeTerminator{}).Start(context.Background(), 8001)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if handle.Port != 8001 || handle.PID != 4242 {
		t.Errorf("Start() = %+v", handle)
	}
	if !reflect.DeepEqual(launcher.ports, []int{8001}) {
		t.Errorf("launched %v, want exactly [8001]", launcher.ports)
	}
}

func TestStartSurfacesFailures(t *testing.T) {
	t.Run("locator", func(t *testing.T) {
		loc := &fakeLocator{portErr: errors.New("lsof exploded")}
		launcher := &fakeLauncher{}
		if _, err := newTestLifecycle(t, loc, launcher, &fakeTerminator{}).Start(context.Background(), 8000); err == nil {
			t.Fatal("Start() error = nil")
		}
		if len(launcher.ports) != 0 {
			t.Error("launched despite unknown port state")
		}
	})

	t.Run("launch", func(t *testing.T) {
		spawnErr := errors.New("exec format error")
		launcher := &fakeLauncher{err: spawnErr}
		_, err := newTestLifecycle(t, &fakeLocator{}, launcher, &fakeTerminator{}).Start(context.Background(), 8000)
		if !errors.Is(err, spawnErr) {
			t.Fatalf("Start() error = %v, want wrapped spawn error", err)
		}
		if len(launcher.ports) != 1 {
			t.Errorf("launch attempts = %d, want 1 (no retry)", len(launcher.ports))
		}
	})
}

func TestStopTerminatesEveryMatchInOrder(t *testing.T) {
	loc := &fakeLocator{matches: []process.Match{
		{PID: 100, Port: 8000},
		{PID: 200, Port: 8001},
	}}
	term := &fakeTerminator{}

	results, err := newTestLifecycle(t, loc, &fakeLauncher{}, term).Stop(context.Background())
	if err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	want := []StopResult{{PID: 100, Port: 8000}, {PID: 200, Port: 8001}}
	if !reflect.DeepEqual(results, want) {
		t.Errorf("Stop() = %+v, want %+v", results, want)
	}
	if !reflect.DeepEqual(term.signaled, []int{100, 200}) {
		t.Errorf("signaled = %v", term.signaled)
	}
	if loc.gotFilter != [2]string{"devrunner", "devrunner-api"} {
		t.Errorf("filter = %v", loc.gotFilter)
	}
}

func TestStopContinuesAfterFailure(t *testing.T) {
	loc := &fakeLocator{matches: []process.Match{
		{PID: 100, Port: 8000},
		{PID: 200, Port: 8001},
		{PID: 300, Port: 8002},
	}}
	permErr := errors.New("operation not permitted")
	term := &fakeTerminator{fail: map[int]error{100: permErr}}

	results, err := newTestLifecycle(t, loc, &fakeLauncher{}, term).Stop(context.Background())
	if err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if len(results) != 3 || len(term.signaled) != 3 {
		t.Fatalf("results %d, signaled %d; want 3 and 3", len(results), len(term.signaled))
	}
	if !errors.Is(results[0].Err, permErr) || results[1].Err != nil || results[2].Err != nil {
		t.Errorf("results = %+v", results)
	}
}

func TestStopWithoutServers(t *testing.T) {
	term := &fakeTerminator{}
	results, err := newTestLifecycle(t, &fakeLocator{}, &fakeLauncher{}, term).Stop(context.Background())
	if err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if len(results) != 0 || len(term.signaled) != 0 {
		t.Errorf("Stop() = %+v, signaled %v; want nothing", results, term.signaled)
	}
}

func TestStopLocatorFailure(t *testing.T) {
	loc := &fakeLocator{matchErr: errors.New("ps missing")}
	if _, err := newTestLifecycle(t, loc, &fakeLauncher{}, &fakeTerminator{}).Stop(context.Background()); err == nil {
		t.Fatal("Stop() error = nil")
	}
}

func TestNewValidation(t *testing.T) {
	loc, launcher, term := &fakeLocator{}, &fakeLauncher{}, &fakeTerminator{}
	cases := []struct {
		name string
		fn   func() (*Lifecycle, error)
	}{
		{"nil locator", func() (*Lifecycle, error) { return New(nil, launcher, term, "p", "t") }},
		{"nil launcher", func() (*Lifecycle, error) { return New(loc, nil, term, "p", "t") }},
		{"nil terminator", func() (*Lifecycle, error) { return New(loc, launcher, nil, "p", "t") }},
		{"empty tag", func() (*Lifecycle, error) { return New(loc, launcher, term, "p", "") }},
	}
	for _, c := range cases {
		if _, err := c.fn(); err == nil {
			t.Errorf("%s: New() error = nil", c.name)
		}
	}
}
