package project

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// ConfigFile is the project configuration file name.
const ConfigFile = ".drconfig"

// ErrConfigNotFound is returned by Load when the directory has no .drconfig.
var ErrConfigNotFound = errors.New("project config not found")

// imagePathRe matches one path component of an image reference.
var imagePathRe = regexp.MustCompile(`^[a-z0-9]+(?:(?:[._]|__|-+)[a-z0-9]+)*$`)

// Config is the [project] section of a .drconfig.
type Config struct {
	Name          string  `toml:"name"`
	Namespace     string  `toml:"namespace" validate:"required,imagepath"`
	ImageName     string  `toml:"image_name" validate:"required,imagepath"`
	PythonVersion string  `toml:"python_version,omitempty"`
	MemoryLimit   string  `toml:"memory_limit,omitempty"`
	CPULimit      float64 `toml:"cpu_limit,omitempty" validate:"gte=0"`
}

// document is the on-disk shape of a .drconfig.
type document struct {
	Project Config `toml:"project"`
}

// Tag returns the local image tag, <namespace>/<image_name>.
func (c *Config) Tag() string {
	return c.Namespace + "/" + c.ImageName
}

// RegistryTag returns the tag deploy pushes: <registry>/<namespace>/<image_name>:latest.
func (c *Config) RegistryTag(registry string) string {
	return strings.TrimSuffix(registry, "/") + "/" + c.Tag() + ":latest"
}

// Validate checks that the fields needed to derive image tags are present.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.RegisterValidation("imagepath", func(fl validator.FieldLevel) bool {
		return imagePathRe.MatchString(fl.Field().String())
	}); err != nil {
		return err
	}
	return v.Struct(c)
}

// Load reads and validates dir/.drconfig.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, ConfigFile)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
		// Not TOML; try the unquoted key = value form
		data, readErr := os.ReadFile(path)
		if readErr != nil {
			return nil, fmt.Errorf("reading %s: %w", path, readErr)
		}
		values, legacyErr := parseLegacy(data)
		if legacyErr != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		k = koanf.New(".")
		if err := k.Load(confmap.Provider(values, "."), nil); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := k.UnmarshalWithConf("project", cfg, koanf.UnmarshalConf{Tag: "toml"}); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", path, err)
	}
	return cfg, nil
}

// parseLegacy reads "key = value" lines. Keys before any section header are
// treated as belonging to [project].
func parseLegacy(data []byte) (map[string]any, error) {
	values := make(map[string]any)
	section := "project"

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for n := 1; scanner.Scan(); n++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}
		if strings.HasPrefix(line, "[") {
			if !strings.HasSuffix(line, "]") {
				return nil, fmt.Errorf("line %d: malformed section header", n)
			}
			section = strings.TrimSpace(line[1 : len(line)-1])
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("line %d: expected key = value", n)
		}
		key = strings.TrimSpace(key)
		if key == "" {
			return nil, fmt.Errorf("line %d: empty key", n)
		}
		value = strings.Trim(strings.TrimSpace(value), `"'`)
		values[section+"."+key] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return values, nil
}
