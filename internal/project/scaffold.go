package project

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/user"
	"path/filepath"
	"regexp"
	"strings"
	"text/template"

	gotoml "github.com/pelletier/go-toml/v2"
)

// Scaffold defaults
const (
	DefaultPythonVersion = "3.12"
	DefaultMemoryLimit   = "512M"
	DefaultCPULimit      = 0.5
)

// ErrProjectExists is returned by Create when the project directory exists
// and Replace is not set.
var ErrProjectExists = errors.New("project already exists")

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.tmpl"))

var (
	projectNameRe   = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)
	pythonVersionRe = regexp.MustCompile(`^[0-9]+(\.[0-9]+){0,2}$`)
	namespaceCharRe = regexp.MustCompile(`[^a-z0-9._-]+`)
)

// Options control Create.
type Options struct {
	Name string
	// PythonVersion is either "python==3.12" or "3.12". Empty means DefaultPythonVersion.
	PythonVersion string
	// Namespace defaults to the current user name.
	Namespace string
	// Replace removes an existing project directory first.
	Replace bool
}

// Result describes the files Create wrote.
type Result struct {
	Config *Config
	Files  []string
}

// Create scaffolds a project in dir: a Dockerfile and .drconfig in dir, and
// requirements.txt and app.py in dir/<name>.
func Create(dir string, opts Options) (*Result, error) {
	if !projectNameRe.MatchString(opts.Name) {
		return nil, fmt.Errorf("invalid project name %q", opts.Name)
	}
	version, err := ParsePythonVersion(opts.PythonVersion)
	if err != nil {
		return nil, err
	}
	namespace := opts.Namespace
	if namespace == "" {
		if namespace, err = defaultNamespace(); err != nil {
			return nil, err
		}
	}

	cfg := &Config{
		Name:          opts.Name,
		Namespace:     namespace,
		ImageName:     strings.ToLower(opts.Name),
		PythonVersion: version,
		MemoryLimit:   DefaultMemoryLimit,
		CPULimit:      DefaultCPULimit,
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid project: %w", err)
	}

	projectDir := filepath.Join(dir, opts.Name)
	if _, err := os.Stat(projectDir); err == nil {
		if !opts.Replace {
			return nil, fmt.Errorf("%w: %s", ErrProjectExists, opts.Name)
		}
		if err := os.RemoveAll(projectDir); err != nil {
			return nil, fmt.Errorf("removing existing project: %w", err)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("checking project directory: %w", err)
	}

	if err := os.MkdirAll(projectDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating project directory: %w", err)
	}

	dockerfile, err := render("Dockerfile.tmpl", cfg)
	if err != nil {
		return nil, err
	}
	appPy, err := render("app.py.tmpl", cfg)
	if err != nil {
		return nil, err
	}
	drconfig, err := gotoml.Marshal(document{Project: *cfg})
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", ConfigFile, err)
	}

	files := []struct {
		path string
		data []byte
	}{
		{filepath.Join(dir, "Dockerfile"), dockerfile},
		{filepath.Join(projectDir, "requirements.txt"), nil},
		{filepath.Join(projectDir, "app.py"), appPy},
		{filepath.Join(dir, ConfigFile), drconfig},
	}

	result := &Result{Config: cfg}
	for _, f := range files {
		if err := os.WriteFile(f.path, f.data, 0o644); err != nil {
			return nil, fmt.Errorf("writing %s: %w", f.path, err)
		}
		result.Files = append(result.Files, f.path)
	}
	return result, nil
}

// ParsePythonVersion accepts "python==X.Y" or "X.Y" and returns "X.Y".
func ParsePythonVersion(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultPythonVersion, nil
	}
	if name, version, ok := strings.Cut(s, "=="); ok {
		if !strings.EqualFold(strings.TrimSpace(name), "python") {
			return "", fmt.Errorf("invalid python version %q: expected python==X.Y", s)
		}
		s = strings.TrimSpace(version)
	}
	if !pythonVersionRe.MatchString(s) {
		return "", fmt.Errorf("invalid python version %q", s)
	}
	return s, nil
}

func defaultNamespace() (string, error) {
	u, err := user.Current()
	if err != nil {
		return "", fmt.Errorf("namespace required (auto-detect failed: %w)", err)
	}
	name := u.Username
	// Windows reports DOMAIN\user
	if i := strings.LastIndexAny(name, `\/`); i >= 0 {
		name = name[i+1:]
	}
	name = strings.Trim(namespaceCharRe.ReplaceAllString(strings.ToLower(name), "-"), "._-")
	if name == "" {
		return "", fmt.Errorf("namespace required: user name %q is not usable", u.Username)
	}
	return name, nil
}

func render(name string, cfg *Config) ([]byte, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, cfg); err != nil {
		return nil, fmt.Errorf("rendering %s: %w", name, err)
	}
	return buf.Bytes(), nil
}
