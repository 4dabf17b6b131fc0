package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/devrunner/devrunner/internal/project"
)

func (s *state) deployCommand() *cli.Command {
	return &cli.Command{
		Name:  "deploy",
		Usage: "Build and push the project image",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "path",
				Aliases: []string{"p"},
				Usage:   "project directory holding the Dockerfile and .drconfig",
				Value:   ".",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			dir := cmd.String("path")
			cfg, err := project.Load(dir)
			if err != nil {
				return cli.Exit(fmt.Sprintf("deploy: %v", err), 1)
			}

			orchestrator, err := s.cfg.NewOrchestrator(cmd.Root().Writer, cmd.Root().ErrWriter)
			if err != nil {
				return cli.Exit(fmt.Sprintf("deploy: %v", err), 1)
			}
			if _, err := orchestrator.Deploy(ctx, cfg, dir); err != nil {
				return cli.Exit(fmt.Sprintf("deploy: %v", err), 1)
			}
			return nil
		},
	}
}

func (s *state) executeCommand() *cli.Command {
	return &cli.Command{
		Name:  "execute",
		Usage: "Run the project image",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "tag",
				Aliases: []string{"t"},
				Usage:   "image tag to run (default is the project tag)",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			tag := cmd.String("tag")
			if tag == "" {
				cfg, err := project.Load(".")
				if err != nil {
					return cli.Exit(fmt.Sprintf("execute: %v", err), 1)
				}
				tag = cfg.Tag()
			}

			orchestrator, err := s.cfg.NewOrchestrator(cmd.Root().Writer, cmd.Root().ErrWriter)
			if err != nil {
				return cli.Exit(fmt.Sprintf("execute: %v", err), 1)
			}
			if err := orchestrator.Execute(ctx, tag); err != nil {
				return cli.Exit(fmt.Sprintf("execute: %v", err), 1)
			}
			return nil
		},
	}
}

func (s *state) createCommand() *cli.Command {
	return &cli.Command{
		Name:      "create",
		Usage:     "Create a deployment project",
		ArgsUsage: "[python==VERSION]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "name",
				Aliases:  []string{"n"},
				Usage:    "name of the project",
				Required: true,
			},
			&cli.BoolFlag{
				Name:    "replace",
				Aliases: []string{"r"},
				Usage:   "replace the project if it already exists",
			},
			&cli.StringFlag{
				Name:  "namespace",
				Usage: "image namespace (default is the current user name)",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() > 1 {
				return cli.Exit("create: expected at most one python version argument", 1)
			}

			dir, err := os.Getwd()
			if err != nil {
				return cli.Exit(fmt.Sprintf("create: %v", err), 1)
			}

			name := cmd.String("name")
			_, err = project.Create(dir, project.Options{
				Name:          name,
				PythonVersion: cmd.Args().First(),
				Namespace:     cmd.String("namespace"),
				Replace:       cmd.Bool("replace"),
			})
			switch {
			case errors.Is(err, project.ErrProjectExists):
				return cli.Exit(fmt.Sprintf("Project %s already exists!", name), 1)
			case err != nil:
				return cli.Exit(fmt.Sprintf("create: %v", err), 1)
			}

			fmt.Fprintf(cmd.Root().Writer, "Created %s\n", name)
			return nil
		},
	}
}
