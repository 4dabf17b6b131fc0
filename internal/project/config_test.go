package project

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ConfigFile), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestLoadTOML(t *testing.T) {
	dir := writeConfig(t, `
[project]
name = "worker"
namespace = "alice"
image_name = "worker"
python_version = "3.11"
memory_limit = "512M"
cpu_limit = 0.5
`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := Config{Name: "worker", Namespace: "alice", ImageName: "worker", PythonVersion: "3.11", MemoryLimit: "512M", CPULimit: 0.5}
	if *cfg != want {
		t.Errorf("Load() = %+v, want %+v", *cfg, want)
	}
}

func TestLoadLegacyFormat(t *testing.T) {
	dir := writeConfig(t, `[project]
name = worker
python_version = 3.12
memory_limit = 512M
cpu_limit = 0.5
namespace = alice
image_name = worker
`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Tag() != "alice/worker" || cfg.PythonVersion != "3.12" || cfg.CPULimit != 0.5 {
		t.Errorf("Load() = %+v", cfg)
	}
}

func TestLoadErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		if _, err := Load(t.TempDir()); !errors.Is(err, ErrConfigNotFound) {
			t.Fatalf("Load() error = %v, want ErrConfigNotFound", err)
		}
	})

	cases := map[string]string{
		"no namespace":        "[project]\nimage_name = \"worker\"\n",
		"no image name":       "[project]\nnamespace = \"alice\"\n",
		"uppercase image":     "[project]\nnamespace = \"alice\"\nimage_name = \"Worker\"\n",
		"garbage":             "this is not a config\n",
		"unterminated header": "[project\nnamespace = alice\n",
		"empty":               "",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, content)); err == nil {
				t.Fatal("Load() error = nil")
			}
		})
	}
}

func TestTags(t *testing.T) {
	cfg := &Config{Namespace: "alice", ImageName: "worker"}

	if got := cfg.Tag(); got != "alice/worker" {
		t.Errorf("Tag() = %q", got)
	}
	for _, registry := range []string{"cr.devrunner.io", "cr.devrunner.io/"} {
		if got := cfg.RegistryTag(registry); got != "cr.devrunner.io/alice/worker:latest" {
			t.Errorf("RegistryTag(%q) = %q", registry, got)
		}
	}
}

func TestParseLegacy(t *testing.T) {
	values, err := parseLegacy([]byte("# comment\nnamespace = 'alice'\n\n[other]\nkey=value\n"))
	if err != nil {
		t.Fatalf("parseLegacy() error = %v", err)
	}
	if values["project.namespace"] != "alice" || values["other.key"] != "value" {
		t.Errorf("parseLegacy() = %v", values)
	}

	if _, err := parseLegacy([]byte("[project]\n= value\n")); err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Errorf("parseLegacy() error = %v, want line 2 error", err)
	}
}
