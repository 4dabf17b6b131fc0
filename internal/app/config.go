package app

import (
	"errors"
	"fmt"
	"log/slog"
	"os/user"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/devrunner/devrunner/internal/credstore"
)

// LogFormat represents the logging output format.
type LogFormat string

const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
	LogFormatOTel LogFormat = "otel"
)

// CredentialStorageType selects the credential store backend.
type CredentialStorageType string

const (
	CredentialStorageFile    CredentialStorageType = "file"
	CredentialStorageKeyring CredentialStorageType = "keyring"
)

// KeyringService is the service name under which keyring records are kept.
const KeyringService = "devrunner"

// Default configuration values
const (
	DefaultConfigLogFormat         = LogFormatText
	DefaultConfigAuthBaseURL       = "http://localhost:8000"
	DefaultConfigAuthTimeout       = 10 * time.Second
	DefaultConfigAuthStorage       = CredentialStorageFile
	DefaultConfigServerHost        = "0.0.0.0"
	DefaultConfigServerPort        = 8000
	DefaultConfigServerTag         = "devrunner-api"
	DefaultConfigServerPattern     = "devrunner"
	DefaultConfigServerLogFileName = "server.log"
	DefaultConfigShutdownTimeout   = 5 * time.Second
	DefaultConfigContainerBinary   = "docker"
	DefaultConfigContainerRegistry = "cr.devrunner.io"
)

// AuthConfig describes the remote auth service and where credentials live.
type AuthConfig struct {
	BaseURL string        `json:"base_url" validate:"required,url"`
	Timeout time.Duration `json:"timeout" validate:"gte=0"`

	Storage     CredentialStorageType `json:"storage" validate:"required,oneof=file keyring"`
	Dir         string                `json:"dir,omitempty"`          // For file storage: directory holding the records
	KeyringUser string                `json:"keyring_user,omitempty"` // For keyring storage: user identifier
}

// ServerConfig holds settings for the background API server.
type ServerConfig struct {
	Host string `json:"host" validate:"hostname_rfc1123|ip"`
	Port uint16 `json:"port"` // Port range 0-65535 handled by uint16 type

	// Tag is passed on the server's command line so stop can tell our
	// servers apart from unrelated processes.
	Tag            string `json:"tag" validate:"required"`
	ProcessPattern string `json:"process_pattern" validate:"required"`
	LogFile        string `json:"log_file,omitempty"`
}

// ShutdownConfig holds shutdown behavior configuration.
type ShutdownConfig struct {
	// Timeout for graceful shutdown.
	Timeout time.Duration `json:"timeout"`
}

// ContainerConfig selects the container engine and image registry.
type ContainerConfig struct {
	Binary   string `json:"binary" validate:"required"`
	Registry string `json:"registry" validate:"required"`
}

// Config holds the application's configuration.
type Config struct {
	// LogLevel for logging output (defaults to Info if unset).
	LogLevel  slog.Level      `json:"log_level"`
	LogFormat LogFormat       `json:"log_format" validate:"oneof=text json otel"`
	Auth      AuthConfig      `json:"auth"`
	Server    ServerConfig    `json:"server"`
	Shutdown  ShutdownConfig  `json:"shutdown"`
	Container ContainerConfig `json:"container"`
}

// Default creates a new Config with default values applied.
func Default() (*Config, error) {
	cfg := &Config{}
	if err := cfg.ApplyDefaults(); err != nil {
		return nil, fmt.Errorf("failed to apply defaults: %w", err)
	}
	return cfg, nil
}

// ApplyDefaults fills unset config fields.
func (c *Config) ApplyDefaults() error {
	if c.LogFormat == "" {
		c.LogFormat = DefaultConfigLogFormat
	}
	if c.Auth.BaseURL == "" {
		c.Auth.BaseURL = DefaultConfigAuthBaseURL
	}
	if c.Auth.Timeout == 0 {
		c.Auth.Timeout = DefaultConfigAuthTimeout
	}
	if c.Auth.Storage == "" {
		c.Auth.Storage = DefaultConfigAuthStorage
	}
	if c.Server.Host == "" {
		c.Server.Host = DefaultConfigServerHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultConfigServerPort
	}
	if c.Server.Tag == "" {
		c.Server.Tag = DefaultConfigServerTag
	}
	if c.Server.ProcessPattern == "" {
		c.Server.ProcessPattern = DefaultConfigServerPattern
	}
	if c.Shutdown.Timeout == 0 {
		c.Shutdown.Timeout = DefaultConfigShutdownTimeout
	}
	if c.Container.Binary == "" {
		c.Container.Binary = DefaultConfigContainerBinary
	}
	if c.Container.Registry == "" {
		c.Container.Registry = DefaultConfigContainerRegistry
	}

	// The directory also holds the server log, so it is resolved for every backend
	if c.Auth.Dir == "" {
		dir, err := credstore.DefaultDir()
		if err != nil {
			return fmt.Errorf("auth.dir required (auto-detect failed: %w)", err)
		}
		c.Auth.Dir = dir
	}
	if c.Server.LogFile == "" {
		c.Server.LogFile = filepath.Join(c.Auth.Dir, DefaultConfigServerLogFileName)
	}

	if c.Auth.Storage == CredentialStorageKeyring && c.Auth.KeyringUser == "" {
		currentUser, err := user.Current()
		if err != nil {
			return fmt.Errorf("auth.keyring_user required (auto-detect failed: %w)", err)
		}
		c.Auth.KeyringUser = currentUser.Username
	}

	return nil
}

// Validate validates the configuration using struct tags and cross-field rules.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	if strings.ContainsAny(c.Server.Tag, " \t\r\n") {
		return errors.New("server.tag cannot contain whitespace")
	}
	if _, err := regexp.Compile(c.Server.ProcessPattern); err != nil {
		return fmt.Errorf("server.process_pattern: %w", err)
	}

	switch c.Auth.Storage {
	case CredentialStorageFile:
		if c.Auth.Dir == "" {
			return errors.New("auth.dir required for file storage")
		}
	case CredentialStorageKeyring:
		if c.Auth.KeyringUser == "" {
			return errors.New("auth.keyring_user required for keyring storage")
		}
	}

	return nil
}

// NewCredentialStore creates the credential store selected by auth.storage.
func (a *AuthConfig) NewCredentialStore() (credstore.Store, error) {
	switch a.Storage {
	case CredentialStorageFile:
		return credstore.NewFileStore(a.Dir)
	case CredentialStorageKeyring:
		return credstore.NewKeyringStore(KeyringService, a.KeyringUser)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", a.Storage)
	}
}
