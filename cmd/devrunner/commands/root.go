package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/devrunner/devrunner/internal/app"
	"github.com/devrunner/devrunner/internal/observability"
)

// Execute runs the root command with the given context and arguments.
func Execute(ctx context.Context, args []string, version string) error {
	return newRootCommand(version).Run(ctx, args)
}

// state is shared by the commands of one invocation.
type state struct {
	version      string
	cfg          *app.Config
	shutdownLogs observability.ShutdownFunc
}

func newRootCommand(version string) *cli.Command {
	s := &state{version: version}

	return &cli.Command{
		Name:    "devrunner",
		Usage:   "Deploy and run containerized workers",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to config file",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "log level (debug|info|warn|error)",
				Value: slog.LevelInfo.String(),
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "log format (text|json|otel)",
				Value: string(app.DefaultConfigLogFormat),
			},
		},
		Before: s.before,
		After:  s.after,
		// main decides the exit code so deferred cleanup still runs
		ExitErrHandler: func(context.Context, *cli.Command, error) {},
		Commands: []*cli.Command{
			s.loginCommand(),
			s.logoutCommand(),
			s.statusCommand(),
			s.readyCommand(),
			s.stopCommand(),
			s.deployCommand(),
			s.executeCommand(),
			s.createCommand(),
			s.serveCommand(),
		},
	}
}

func (s *state) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	cfg, err := loadConfig(cmd.String("config"), cmd, os.Environ)
	if err != nil {
		return ctx, cli.Exit(fmt.Sprintf("failed to load config: %v", err), 1)
	}

	// Set up observability before running any command
	shutdown, err := observability.Instrument(cfg.LogLevel, string(cfg.LogFormat))
	if err != nil {
		return ctx, cli.Exit(fmt.Sprintf("failed to set up observability layer: %v", err), 1)
	}

	s.cfg = cfg
	s.shutdownLogs = shutdown
	return ctx, nil
}

func (s *state) after(ctx context.Context, _ *cli.Command) error {
	if s.shutdownLogs == nil {
		return nil
	}
	// Flush errors must not mask the command's own result
	if err := s.shutdownLogs(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "devrunner: flushing logs: %v\n", err)
	}
	return nil
}

func (s *state) userAgent() string {
	return "devrunner/" + s.version
}

// serverGlobalArgs are the global flags a launched server needs to load the
// same configuration as this invocation.
func (s *state) serverGlobalArgs(cmd *cli.Command) ([]string, error) {
	var args []string
	if path := cmd.String("config"); path != "" {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("resolving config path: %w", err)
		}
		args = append(args, "--config", abs)
	}
	args = append(args,
		"--log-level", s.cfg.LogLevel.String(),
		"--log-format", string(s.cfg.LogFormat),
	)
	return args, nil
}
