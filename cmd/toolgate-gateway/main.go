// ABOUTME: Entry point for the toolgate gateway server.
// ABOUTME: Loads configuration, wires the registry and dispatcher, and serves both protocol adapters.

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/fatih/color"

	"github.com/2389/toolgate/internal/config"
	"github.com/2389/toolgate/internal/dispatch"
	"github.com/2389/toolgate/internal/gateway"
	"github.com/2389/toolgate/internal/registry"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
 _              _            _
| |_ ___   ___ | | __ _  __ _| |_ ___
| __/ _ \ / _ \| |/ _' |/ _' | __/ _ \
| || (_) | (_) | | (_| | (_| | ||  __/
 \__\___/ \___/|_|\__, |\__,_|\__\___|
                  |___/
`

// getConfigPath returns the path to the gateway config file.
// Priority: TOOLGATE_CONFIG env var > XDG_CONFIG_HOME/toolgate/gateway.yaml >
// ~/.config/toolgate/gateway.yaml. A missing file is not an error; the
// gateway falls back to environment-only configuration.
func getConfigPath() string {
	if envPath := os.Getenv("TOOLGATE_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "gateway.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "toolgate", "gateway.yaml")
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: toolgate-gateway <command>")
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  serve    Start the gateway server")
		fmt.Println("  health   Check gateway health")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx)
	case "health":
		err = runHealth(ctx)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, string, error) {
	configPath := getConfigPath()
	if _, err := os.Stat(configPath); err != nil {
		cfg, err := config.FromEnv()
		return cfg, "(environment)", err
	}
	cfg, err := config.Load(configPath)
	return cfg, configPath, err
}

func runServe(ctx context.Context) error {
	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	cfg, configSource, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := setupLogger(cfg.Logging)

	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	green.Print("    ▶ ")
	fmt.Printf("Config:  %s\n", configSource)
	green.Print("    ▶ ")
	fmt.Printf("HTTP:    %s\n", cfg.Server.HTTPAddr)
	for domainID, target := range cfg.Domains {
		green.Print("    ▶ ")
		fmt.Printf("Domain %s: ", domainID)
		if target.Socket != "" {
			cyan.Printf("%s", target.Socket)
			gray.Print(" (socket)")
		} else {
			cyan.Printf("%s", target.URL)
		}
		fmt.Println()
	}
	if cfg.Gateway.SharedSecret == "" {
		yellow.Print("    ! ")
		fmt.Println("No shared secret configured; tool calls will fail")
	}
	fmt.Println()

	targets := make(map[string]dispatch.Target, len(cfg.Domains))
	for domainID, dc := range cfg.Domains {
		target := dispatch.Target{BaseURL: dc.URL}
		if dc.Socket != "" {
			target.Binding = dispatch.NewSocketBinding(dc.Socket)
		}
		targets[domainID] = target
	}

	dispatcher := dispatch.New(dispatch.Config{
		Targets: targets,
		Secret:  cfg.Gateway.SharedSecret,
		Timeout: cfg.Gateway.UpstreamTimeout,
		Logger:  logger,
	})

	srv, err := gateway.NewServer(gateway.Config{
		Registry:       registry.Default(),
		Dispatcher:     dispatcher,
		AllowedOrigins: cfg.Gateway.AllowedOrigins,
		HTTPAddr:       cfg.Server.HTTPAddr,
		Logger:         logger,
	})
	if err != nil {
		return fmt.Errorf("creating gateway: %w", err)
	}

	logger.Info("starting toolgate-gateway",
		"config", configSource,
		"http_addr", cfg.Server.HTTPAddr,
		"domains", len(cfg.Domains),
	)

	return srv.Run(ctx)
}

func runHealth(ctx context.Context) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	addr := cfg.Server.HTTPAddr
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}

	url := fmt.Sprintf("http://%s/health", addr)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}

	fmt.Println("healthy")
	return nil
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	}
	return slog.New(&colorHandler{level: level})
}

// colorHandler provides colorized log output with thread-safe writes.
type colorHandler struct {
	mu    sync.Mutex
	level slog.Level
	attrs []slog.Attr
}

func (h *colorHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *colorHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var buf strings.Builder
	buf.WriteString(color.HiBlackString(r.Time.Format("15:04:05") + " "))

	switch r.Level {
	case slog.LevelDebug:
		buf.WriteString(color.MagentaString("DBG "))
	case slog.LevelInfo:
		buf.WriteString(color.CyanString("INF "))
	case slog.LevelWarn:
		buf.WriteString(color.YellowString("WRN "))
	case slog.LevelError:
		buf.WriteString(color.New(color.FgRed, color.Bold).Sprint("ERR "))
	default:
		buf.WriteString("??? ")
	}

	buf.WriteString(r.Message)

	for _, a := range h.attrs {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
	}
	r.Attrs(func(a slog.Attr) bool {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
		return true
	})

	buf.WriteString("\n")
	fmt.Print(buf.String())
	return nil
}

func (h *colorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs), len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	newAttrs = append(newAttrs, attrs...)
	return &colorHandler{level: h.level, attrs: newAttrs}
}

func (h *colorHandler) WithGroup(string) slog.Handler {
	return h
}
