package app

import (
	"fmt"
	"io"

	"github.com/devrunner/devrunner/internal/authclient"
	"github.com/devrunner/devrunner/internal/container"
	"github.com/devrunner/devrunner/internal/process"
	"github.com/devrunner/devrunner/internal/server"
	"github.com/devrunner/devrunner/internal/session"
)

// NewAuthClient creates the remote auth service client.
func (c *Config) NewAuthClient(userAgent string) (*authclient.Client, error) {
	opts := []authclient.Option{authclient.WithTimeout(c.Auth.Timeout)}
	if userAgent != "" {
		opts = append(opts, authclient.WithUserAgent(userAgent))
	}
	return authclient.New(c.Auth.BaseURL, opts...)
}

// NewSessionManager wires the credential store and auth client into a
// session manager that asks prompter for credentials.
func (c *Config) NewSessionManager(userAgent string, prompter session.Prompter) (*session.Manager, error) {
	store, err := c.Auth.NewCredentialStore()
	if err != nil {
		return nil, fmt.Errorf("failed to create credential store: %w", err)
	}
	client, err := c.NewAuthClient(userAgent)
	if err != nil {
		return nil, fmt.Errorf("failed to create auth client: %w", err)
	}
	return session.NewManager(store, client, prompter)
}

// NewLifecycle creates the background server lifecycle. globalArgs are
// forwarded to the launched server ahead of the serve command.
func (c *Config) NewLifecycle(globalArgs []string) (*server.Lifecycle, error) {
	launcher := &server.ExecLauncher{
		GlobalArgs: globalArgs,
		Host:       c.Server.Host,
		Tag:        c.Server.Tag,
		LogFile:    c.Server.LogFile,
	}
	return server.New(process.NewSystemLocator(), launcher, process.SignalTerminator{}, c.Server.ProcessPattern, c.Server.Tag)
}

// NewOrchestrator creates the deploy/execute orchestrator. Engine output is
// streamed to stdout and stderr; progress messages go to stdout.
func (c *Config) NewOrchestrator(stdout, stderr io.Writer) (*container.Orchestrator, error) {
	engine := container.NewDockerEngine(c.Container.Binary, stdout, stderr)
	return container.NewOrchestrator(engine, c.Container.Registry, stdout)
}
