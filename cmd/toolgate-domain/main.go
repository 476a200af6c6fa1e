// ABOUTME: Entry point for a domain tool service process.
// ABOUTME: Serves one domain's tool table over TCP and, optionally, a unix socket.

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/2389/toolgate/internal/config"
	"github.com/2389/toolgate/internal/domain"
)

var version = "dev"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.ServiceFromEnv()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := setupLogger(cfg.LogLevel, cfg.LogFormat)

	var toolset *domain.ToolSet
	switch cfg.Domain {
	case "A":
		toolset = domain.DomainA()
	case "B":
		toolset = domain.DomainB()
	default:
		return fmt.Errorf("unknown domain %q (want A or B)", cfg.Domain)
	}

	srv, err := domain.NewServer(domain.Config{
		ToolSet: toolset,
		Secret:  cfg.SharedSecret,
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	mux := http.NewServeMux()
	srv.RegisterRoutes(mux)

	httpServer := &http.Server{
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	listeners, err := buildListeners(cfg)
	if err != nil {
		return err
	}

	logger.Info("starting toolgate-domain",
		"version", version,
		"domain", cfg.Domain,
		"tools", toolset.ToolNames(),
		"http_addr", cfg.HTTPAddr,
		"socket", cfg.ListenSocket,
		"secret_configured", cfg.SharedSecret != "",
	)

	errCh := make(chan error, len(listeners))
	for _, ln := range listeners {
		go func(ln net.Listener) {
			if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("serving on %s: %w", ln.Addr(), err)
			}
		}(ln)
	}

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down", "domain", cfg.Domain)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// buildListeners opens the TCP listener and, when configured, the unix
// socket listener the gateway's socket binding connects to.
func buildListeners(cfg *config.ServiceConfig) ([]net.Listener, error) {
	var listeners []net.Listener

	tcp, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		return nil, fmt.Errorf("listening on %s: %w", cfg.HTTPAddr, err)
	}
	listeners = append(listeners, tcp)

	if cfg.ListenSocket != "" {
		// A stale socket file from a previous run blocks the bind.
		if err := os.Remove(cfg.ListenSocket); err != nil && !os.IsNotExist(err) {
			tcp.Close()
			return nil, fmt.Errorf("removing stale socket %s: %w", cfg.ListenSocket, err)
		}
		unix, err := net.Listen("unix", cfg.ListenSocket)
		if err != nil {
			tcp.Close()
			return nil, fmt.Errorf("listening on socket %s: %w", cfg.ListenSocket, err)
		}
		listeners = append(listeners, unix)
	}

	return listeners, nil
}

func setupLogger(level, format string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: lvl}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
