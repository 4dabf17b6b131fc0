package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/devrunner/devrunner/internal/app"
	"github.com/devrunner/devrunner/internal/server"
)

func (s *state) readyCommand() *cli.Command {
	return &cli.Command{
		Name:  "ready",
		Usage: "Start the background API server",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "port to run the server on",
				Value:   int(app.DefaultConfigServerPort),
			},
		},
		Action: s.readyAction,
	}
}

func (s *state) readyAction(ctx context.Context, cmd *cli.Command) error {
	out := cmd.Root().Writer

	port, err := s.serverPort(cmd)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	globalArgs, err := s.serverGlobalArgs(cmd)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	lifecycle, err := s.cfg.NewLifecycle(globalArgs)
	if err != nil {
		return cli.Exit(fmt.Sprintf("ready: %v", err), 1)
	}

	handle, err := lifecycle.Start(ctx, port)
	var inUse *server.PortInUseError
	switch {
	case errors.As(err, &inUse):
		return cli.Exit(fmt.Sprintf("Error: Port %d is already in use. Cannot start server.", inUse.Port), 1)
	case err != nil:
		return cli.Exit(fmt.Sprintf("Error: could not start server: %v", err), 1)
	}

	fmt.Fprintf(out, "devrunner is starting on port %d (pid %d, readiness not verified)\n", handle.Port, handle.PID)
	return nil
}

func (s *state) stopCommand() *cli.Command {
	return &cli.Command{
		Name:   "stop",
		Usage:  "Stop the background API servers",
		Action: s.stopAction,
	}
}

func (s *state) stopAction(ctx context.Context, cmd *cli.Command) error {
	out := cmd.Root().Writer

	lifecycle, err := s.cfg.NewLifecycle(nil)
	if err != nil {
		return cli.Exit(fmt.Sprintf("stop: %v", err), 1)
	}

	results, err := lifecycle.Stop(ctx)
	if err != nil {
		return cli.Exit(fmt.Sprintf("stop: %v", err), 1)
	}
	if len(results) == 0 {
		fmt.Fprintln(out, "No devrunner server running.")
		return nil
	}
	return reportStopResults(out, results)
}

func (s *state) serveCommand() *cli.Command {
	return &cli.Command{
		Name:   server.ServeCommand,
		Usage:  "Run the API server in the foreground",
		Hidden: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "server host",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "server port",
			},
			&cli.StringFlag{
				Name:  "tag",
				Usage: "process marker used by stop",
			},
		},
		Action: s.serveAction,
	}
}

func (s *state) serveAction(ctx context.Context, cmd *cli.Command) error {
	cfg := *s.cfg
	if cmd.IsSet("host") {
		cfg.Server.Host = cmd.String("host")
	}
	if cmd.IsSet("tag") {
		cfg.Server.Tag = cmd.String("tag")
	}
	port, err := s.serverPort(cmd)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	cfg.Server.Port = uint16(port)

	application, err := app.New(&cfg)
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to create app: %v", err), 1)
	}

	if err := application.Start(ctx); err != nil {
		return cli.Exit(fmt.Sprintf("server failed: %v", err), 1)
	}
	return nil
}

// serverPort returns the --port flag when set, else the configured port.
func (s *state) serverPort(cmd *cli.Command) (int, error) {
	if !cmd.IsSet("port") {
		return int(s.cfg.Server.Port), nil
	}
	port := cmd.Int("port")
	if port < 1 || port > 65535 {
		return 0, fmt.Errorf("invalid port %d: must be between 1 and 65535", port)
	}
	return port, nil
}
