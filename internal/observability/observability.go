// Package observability installs the process-wide slog logger.
package observability

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/contrib/processors/minsev"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	"go.opentelemetry.io/otel/log/global"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// instrumentationName identifies devrunner's records in the OpenTelemetry pipeline.
const instrumentationName = "github.com/devrunner/devrunner"

// ShutdownFunc flushes and releases logging resources.
type ShutdownFunc func(context.Context) error

func noopShutdown(context.Context) error { return nil }

// Instrument sets the default slog logger for the given level and format
// (text, json or otel). Diagnostics are written to stderr. The returned
// function must be called before exit to flush buffered records.
func Instrument(level slog.Level, format string) (ShutdownFunc, error) {
	handler, shutdown, err := newHandler(context.Background(), level, format, os.Stderr)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(slog.New(handler))
	return shutdown, nil
}

func newHandler(ctx context.Context, level slog.Level, format string, w io.Writer) (slog.Handler, ShutdownFunc, error) {
	opts := &slog.HandlerOptions{Level: level}

	switch format {
	case "", "text":
		return slog.NewTextHandler(w, opts), noopShutdown, nil
	case "json":
		return slog.NewJSONHandler(w, opts), noopShutdown, nil
	case "otel":
		provider, err := newLoggerProvider(ctx, level, w)
		if err != nil {
			return nil, nil, err
		}
		global.SetLoggerProvider(provider)
		handler := otelslog.NewHandler(instrumentationName, otelslog.WithLoggerProvider(provider))
		return handler, provider.Shutdown, nil
	default:
		return nil, nil, fmt.Errorf("unsupported log format: %q", format)
	}
}

// newLoggerProvider builds the OpenTelemetry log pipeline: records below
// level are dropped, the rest are printed to w and, when an OTLP endpoint is
// configured through the standard environment variables, exported.
func newLoggerProvider(ctx context.Context, level slog.Level, w io.Writer) (*sdklog.LoggerProvider, error) {
	stdout, err := stdoutlog.New(stdoutlog.WithWriter(w))
	if err != nil {
		return nil, fmt.Errorf("creating stdout log exporter: %w", err)
	}

	severity := toSeverity(level)
	processors := []sdklog.Processor{
		minsev.NewLogProcessor(sdklog.NewSimpleProcessor(stdout), severity),
	}

	if otlpConfigured() {
		exporter, err := newOTLPExporter(ctx)
		if err != nil {
			return nil, errors.Join(fmt.Errorf("creating OTLP log exporter: %w", err), stdout.Shutdown(ctx))
		}
		processors = append(processors, minsev.NewLogProcessor(sdklog.NewBatchProcessor(exporter), severity))
	}

	opts := make([]sdklog.LoggerProviderOption, 0, len(processors))
	for _, p := range processors {
		opts = append(opts, sdklog.WithProcessor(p))
	}
	return sdklog.NewLoggerProvider(opts...), nil
}

func otlpConfigured() bool {
	return os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") != "" || os.Getenv("OTEL_EXPORTER_OTLP_LOGS_ENDPOINT") != ""
}

// newOTLPExporter honors OTEL_EXPORTER_OTLP_LOGS_PROTOCOL and
// OTEL_EXPORTER_OTLP_PROTOCOL; http/protobuf is the default.
func newOTLPExporter(ctx context.Context) (sdklog.Exporter, error) {
	protocol := os.Getenv("OTEL_EXPORTER_OTLP_LOGS_PROTOCOL")
	if protocol == "" {
		protocol = os.Getenv("OTEL_EXPORTER_OTLP_PROTOCOL")
	}

	switch strings.ToLower(protocol) {
	case "grpc":
		return otlploggrpc.New(ctx)
	case "", "http/protobuf":
		return otlploghttp.New(ctx)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol: %q", protocol)
	}
}

func toSeverity(level slog.Level) minsev.Severity {
	switch {
	case level >= slog.LevelError:
		return minsev.SeverityError
	case level >= slog.LevelWarn:
		return minsev.SeverityWarn
	case level >= slog.LevelInfo:
		return minsev.SeverityInfo
	default:
		return minsev.SeverityDebug
	}
}
