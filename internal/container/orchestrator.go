package container

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/devrunner/devrunner/internal/project"
)

var (
	ErrBuildFailed = errors.New("image build failed")
	ErrPushFailed  = errors.New("image push failed")
	ErrRunFailed   = errors.New("container run failed")
)

// Orchestrator sequences engine calls for deploy and execute.
type Orchestrator struct {
	engine   Engine
	registry string
	out      io.Writer
}

// NewOrchestrator creates an Orchestrator pushing to registry. Progress
// messages go to out.
func NewOrchestrator(engine Engine, registry string, out io.Writer) (*Orchestrator, error) {
	if engine == nil {
		return nil, fmt.Errorf("missing container engine")
	}
	if registry == "" {
		return nil, fmt.Errorf("registry cannot be empty")
	}
	if out == nil {
		out = io.Discard
	}
	return &Orchestrator{engine: engine, registry: registry, out: out}, nil
}

// Deploy rebuilds the project image from dir and pushes it. Returns the
// pushed tag.
func (o *Orchestrator) Deploy(ctx context.Context, cfg *project.Config, dir string) (string, error) {
	tag := cfg.RegistryTag(o.registry)

	fmt.Fprintf(o.out, "Building image %s from %s...\n", tag, dir)

	// A stale image may not exist
	if err := o.engine.RemoveImage(ctx, tag); err != nil {
		slog.DebugContext(ctx, "removing previous image failed", "tag", tag, "error", err)
	}

	if err := o.engine.Build(ctx, tag, dir); err != nil {
		return "", fmt.Errorf("%w: %w", ErrBuildFailed, err)
	}
	fmt.Fprintf(o.out, "Image %s built.\n", tag)

	fmt.Fprintf(o.out, "Pushing image %s...\n", tag)
	if err := o.engine.Push(ctx, tag); err != nil {
		return "", fmt.Errorf("%w: %w", ErrPushFailed, err)
	}
	fmt.Fprintf(o.out, "Image %s pushed.\n", tag)

	return tag, nil
}

// Execute runs tag in the foreground.
func (o *Orchestrator) Execute(ctx context.Context, tag string) error {
	if tag == "" {
		return fmt.Errorf("image tag cannot be empty")
	}
	fmt.Fprintf(o.out, "Running worker %s...\n", tag)
	if err := o.engine.Run(ctx, tag); err != nil {
		return fmt.Errorf("%w: %w", ErrRunFailed, err)
	}
	return nil
}
