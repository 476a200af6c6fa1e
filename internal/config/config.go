// ABOUTME: Configuration loading for toolgate gateway and domain services.
// ABOUTME: Supports YAML files with environment variable expansion, or pure-environment loading.

package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config represents the complete gateway configuration.
type Config struct {
	Server  ServerConfig            `yaml:"server"`
	Gateway GatewayConfig           `yaml:"gateway"`
	Domains map[string]DomainConfig `yaml:"domains"`
	Logging LoggingConfig           `yaml:"logging"`
}

// ServerConfig holds server address configuration.
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr"`
}

// GatewayConfig holds dispatch and request-admission configuration.
// A missing shared secret or empty domain set is not a startup error; the
// gateway starts regardless and fails individual calls at dispatch time.
type GatewayConfig struct {
	SharedSecret   string   `yaml:"shared_secret"`
	AllowedOrigins []string `yaml:"allowed_origins"`

	UpstreamTimeout time.Duration `yaml:"-"`

	// Raw string value for YAML unmarshaling
	UpstreamTimeoutRaw string `yaml:"upstream_timeout"`
}

// DomainConfig holds the target configuration for one backend domain.
// Socket names a unix socket for the internal transport binding; URL is the
// public HTTP fallback. The binding takes priority when both are set.
type DomainConfig struct {
	URL    string `yaml:"url"`
	Socket string `yaml:"socket"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads a configuration file from the given path and returns a parsed
// Config. Environment variables in the format ${VAR_NAME} are expanded.
// An empty path loads configuration purely from the environment.
func Load(path string) (*Config, error) {
	if path == "" {
		return FromEnv()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expandedData := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if cfg.Gateway.UpstreamTimeoutRaw != "" {
		cfg.Gateway.UpstreamTimeout, err = time.ParseDuration(cfg.Gateway.UpstreamTimeoutRaw)
		if err != nil {
			return nil, fmt.Errorf("parsing upstream_timeout %q: %w", cfg.Gateway.UpstreamTimeoutRaw, err)
		}
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// envSpec is the environment-variable surface of the gateway.
type envSpec struct {
	HTTPAddr        string        `envconfig:"HTTP_ADDR" default:":8787"`
	SharedSecret    string        `envconfig:"DOMAIN_SHARED_SECRET"`
	AllowedOrigins  string        `envconfig:"ALLOWED_ORIGINS"`
	UpstreamTimeout time.Duration `envconfig:"UPSTREAM_TIMEOUT" default:"10s"`
	DomainAURL      string        `envconfig:"DOMAIN_A_URL"`
	DomainBURL      string        `envconfig:"DOMAIN_B_URL"`
	DomainASocket   string        `envconfig:"DOMAIN_A_SOCKET"`
	DomainBSocket   string        `envconfig:"DOMAIN_B_SOCKET"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat       string        `envconfig:"LOG_FORMAT" default:"text"`
}

// FromEnv builds a Config from environment variables only.
func FromEnv() (*Config, error) {
	var spec envSpec
	if err := envconfig.Process("", &spec); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{HTTPAddr: spec.HTTPAddr},
		Gateway: GatewayConfig{
			SharedSecret:    spec.SharedSecret,
			AllowedOrigins:  SplitList(spec.AllowedOrigins),
			UpstreamTimeout: spec.UpstreamTimeout,
		},
		Domains: map[string]DomainConfig{},
		Logging: LoggingConfig{Level: spec.LogLevel, Format: spec.LogFormat},
	}

	if spec.DomainAURL != "" || spec.DomainASocket != "" {
		cfg.Domains["A"] = DomainConfig{URL: spec.DomainAURL, Socket: spec.DomainASocket}
	}
	if spec.DomainBURL != "" || spec.DomainBSocket != "" {
		cfg.Domains["B"] = DomainConfig{URL: spec.DomainBURL, Socket: spec.DomainBSocket}
	}

	applyDefaults(cfg)
	return cfg, nil
}

// ServiceConfig configures one domain tool service process.
type ServiceConfig struct {
	Domain       string `envconfig:"DOMAIN" default:"A"`
	HTTPAddr     string `envconfig:"HTTP_ADDR" default:":8788"`
	ListenSocket string `envconfig:"LISTEN_SOCKET"`
	SharedSecret string `envconfig:"DOMAIN_SHARED_SECRET"`
	LogLevel     string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"LOG_FORMAT" default:"text"`
}

// ServiceFromEnv builds a domain service configuration from the environment.
func ServiceFromEnv() (*ServiceConfig, error) {
	var cfg ServiceConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}
	return &cfg, nil
}

// Validate checks the fields that must be present for the process to serve at
// all. The shared secret and domain targets are deliberately not required;
// their absence is surfaced per call at dispatch time.
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return fmt.Errorf("server.http_addr is required")
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.HTTPAddr == "" {
		cfg.Server.HTTPAddr = ":8787"
	}
	if cfg.Gateway.UpstreamTimeout == 0 {
		cfg.Gateway.UpstreamTimeout = 10 * time.Second
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
	if cfg.Domains == nil {
		cfg.Domains = map[string]DomainConfig{}
	}
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding
// environment variable values. Unset variables become empty strings.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// SplitList parses a comma-separated list: split on ",", trim whitespace,
// drop empty segments. An empty value yields an empty list.
func SplitList(value string) []string {
	if value == "" {
		return []string{}
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
