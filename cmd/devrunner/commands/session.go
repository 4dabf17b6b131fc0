package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/devrunner/devrunner/internal/session"
)

func (s *state) loginCommand() *cli.Command {
	return &cli.Command{
		Name:   "login",
		Usage:  "Login to devrunner",
		Action: s.loginAction,
	}
}

func (s *state) loginAction(ctx context.Context, cmd *cli.Command) error {
	out := cmd.Root().Writer

	prompter := session.NewTerminalPrompter(out)
	manager, err := s.cfg.NewSessionManager(s.userAgent(), prompter)
	if err != nil {
		return cli.Exit(fmt.Sprintf("login: %v", err), 1)
	}

	outcome, err := manager.Login(ctx)
	switch {
	case errors.Is(err, session.ErrLoginFailed):
		// Informational: the user can simply try again
		slog.DebugContext(ctx, "interactive login failed", "error", err)
		fmt.Fprintln(out, "Login failed.")
		return nil
	case err != nil:
		return cli.Exit(fmt.Sprintf("login: %v", err), 1)
	}

	switch outcome {
	case session.OutcomeAlreadyLoggedIn:
		fmt.Fprintln(out, "You are already logged in.")
	case session.OutcomeLoggedIn:
		fmt.Fprintln(out, "Login successful.")
	}
	return nil
}

func (s *state) logoutCommand() *cli.Command {
	return &cli.Command{
		Name:  "logout",
		Usage: "Logout from devrunner",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			manager, err := s.cfg.NewSessionManager(s.userAgent(), session.NewTerminalPrompter(cmd.Root().Writer))
			if err != nil {
				return cli.Exit(fmt.Sprintf("logout: %v", err), 1)
			}
			if err := manager.Logout(ctx); err != nil {
				return cli.Exit(fmt.Sprintf("logout: %v", err), 1)
			}
			fmt.Fprintln(cmd.Root().Writer, "Logged out successfully.")
			return nil
		},
	}
}

func (s *state) statusCommand() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show the session state and running servers",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			out := cmd.Root().Writer

			manager, err := s.cfg.NewSessionManager(s.userAgent(), session.NewTerminalPrompter(out))
			if err != nil {
				return cli.Exit(fmt.Sprintf("status: %v", err), 1)
			}
			st, err := manager.Status(ctx)
			if err != nil {
				return cli.Exit(fmt.Sprintf("status: %v", err), 1)
			}
			fmt.Fprintf(out, "Session: %s\n", st)

			lifecycle, err := s.cfg.NewLifecycle(nil)
			if err != nil {
				return cli.Exit(fmt.Sprintf("status: %v", err), 1)
			}
			running, err := lifecycle.Running(ctx)
			if err != nil {
				return cli.Exit(fmt.Sprintf("status: %v", err), 1)
			}
			if len(running) == 0 {
				fmt.Fprintln(out, "Servers: none")
			}
			for _, m := range running {
				fmt.Fprintf(out, "Server: pid %d, port %d\n", m.PID, m.Port)
			}
			return nil
		},
	}
}
