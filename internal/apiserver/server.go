// Package apiserver is the local devrunner API server that `devrunner ready`
// launches in the background.
package apiserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Info identifies a running server instance.
type Info struct {
	InstanceID string
	Tag        string
	PID        int
	StartedAt  time.Time
}

// Server is the local API server.
type Server struct {
	mux    *http.ServeMux
	server *http.Server
	info   Info
	port   atomic.Int64
	now    func() time.Time
}

// Compile-time check that Server implements http.Handler
var _ http.Handler = (*Server)(nil)

// New creates a Server tagged with tag.
func New(tag string) (*Server, error) {
	if tag == "" {
		return nil, fmt.Errorf("server tag cannot be empty")
	}

	s := &Server{
		info: Info{
			InstanceID: uuid.NewString(),
			Tag:        tag,
			PID:        os.Getpid(),
		},
		now: time.Now,
	}
	s.info.StartedAt = s.now()

	logger := slog.Default()

	mux := http.NewServeMux()
	mux.Handle("GET /healthz", applyMiddlewares(http.HandlerFunc(s.handleHealth),
		Recovery,
	))
	mux.Handle("GET /v1/status", applyMiddlewares(http.HandlerFunc(s.handleStatus),
		Logging(logger),
		Recovery,
	))
	mux.Handle("/", applyMiddlewares(http.HandlerFunc(handleNotFound),
		Logging(logger),
		Recovery,
	))
	s.mux = mux

	return s, nil
}

// Info returns the instance description.
func (s *Server) Info() Info {
	return s.info
}

// Port returns the bound port, or 0 before Start.
func (s *Server) Port() int {
	return int(s.port.Load())
}

// ServeHTTP implements http.Handler interface
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Start starts the HTTP server in the background and returns immediately.
// Returns a channel for runtime errors and a startup error if any.
//
// Startup errors (port in use, permission denied) are returned immediately.
// Runtime errors (network failures during operation) are sent to the error channel.
//
// The caller is responsible for calling Shutdown() to stop the server.
func (s *Server) Start(ctx context.Context, address string) (<-chan error, error) {
	// Startup phase: Create listener synchronously to catch port-in-use errors immediately
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", address, err)
	}
	if addr, ok := listener.Addr().(*net.TCPAddr); ok {
		s.port.Store(int64(addr.Port))
	}

	s.server = &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second, // Inbound: Read entire client request (DoS protection against slow clients)
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second, // Inbound: Keep-alive wait for next request from client
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	errCh := make(chan error, 1)

	go func() {
		err := s.server.Serve(listener)
		// Only report error if not from graceful shutdown
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	return errCh, nil
}

// Shutdown performs graceful shutdown of the HTTP server.
// Returns error if shutdown fails or times out.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}

	if err := s.server.Shutdown(ctx); err != nil {
		// Graceful shutdown failed - force close
		_ = s.server.Close()
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	return nil
}
