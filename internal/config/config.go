// Package config is the orchestrator's ambient configuration: database
// and Redis connection parameters, the model provider endpoint,
// workspace/backend process limits, and the Temporal connection used by
// the durable heal workflow. A YAML file, if present, is applied over
// the defaults; environment variables are applied last and override both.
//
// Grounded on the teacher's internal/config.Config (the env-first,
// XDG-data-dir defaulting shape and the term-based hidden-input prompt
// for secrets) and pkg/config.TemporalConfig's field set, generalized
// from the bead/agent domain to this one.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

// ServerConfig configures the HTTP surface (internal/httpapi).
type ServerConfig struct {
	HTTPPort int `yaml:"http_port"`
}

// DatabaseConfig configures the PostgreSQL connection. With an empty URL,
// internal/database.NewFromEnv falls back to its POSTGRES_* environment
// variables.
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// RedisConfig configures the context snapshot cache. An empty Addr
// disables caching; the context loader recomputes every time.
type RedisConfig struct {
	Addr string `yaml:"addr"`
}

// ProviderConfig configures the model provider.
type ProviderConfig struct {
	Endpoint string `yaml:"endpoint"`
	APIKey   string `yaml:"-"` // never serialized; loaded from env or prompt
	Model    string `yaml:"model"`
}

// WorkspaceConfig configures on-disk project materialization and the
// per-project backend process pool.
type WorkspaceConfig struct {
	BaseDir       string `yaml:"base_dir"`
	BackendPort   int    `yaml:"backend_base_port"`
	MaxBackends   int    `yaml:"max_backends"`
}

// TemporalConfig configures the durable heal workflow's Temporal
// connection.
type TemporalConfig struct {
	Host      string `yaml:"host"`
	Namespace string `yaml:"namespace"`
	TaskQueue string `yaml:"task_queue"`
	Enabled   bool   `yaml:"enabled"`
}

// Config is the top-level configuration for cmd/appgen.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Provider  ProviderConfig  `yaml:"provider"`
	Workspace WorkspaceConfig `yaml:"workspace"`
	Temporal  TemporalConfig  `yaml:"temporal"`
}

// Default returns the built-in defaults, before any environment or file
// overrides are applied.
func Default() *Config {
	return &Config{
		Server:   ServerConfig{HTTPPort: 8080},
		Database: DatabaseConfig{},
		Redis:    RedisConfig{Addr: "localhost:6379"},
		Provider: ProviderConfig{Endpoint: "http://localhost:8000/v1", Model: "gpt-4o-mini"},
		Workspace: WorkspaceConfig{
			BaseDir:     defaultWorkspaceDir(),
			BackendPort: 9000,
			MaxBackends: 64,
		},
		Temporal: TemporalConfig{
			Host:      "localhost:7233",
			Namespace: "appgen-default",
			TaskQueue: "appgen-heal",
			Enabled:   false,
		},
	}
}

func defaultWorkspaceDir() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dataHome = filepath.Join(home, ".local", "share")
		}
	}
	if dataHome == "" {
		dataHome = os.TempDir()
	}
	return filepath.Join(dataHome, "appgen", "workspaces")
}

// LoadFromFile reads a YAML config file on top of Default, then applies
// environment variable overrides via ApplyEnv.
func LoadFromFile(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config file: %w", err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}
	cfg.ApplyEnv()
	return cfg, nil
}

// ApplyEnv overlays environment variables on top of cfg's current
// values, env taking precedence over both defaults and file settings.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("APPGEN_HTTP_PORT"); v != "" {
		fmt.Sscanf(v, "%d", &c.Server.HTTPPort)
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Database.URL = v
	}
	if v := os.Getenv("APPGEN_REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("APPGEN_PROVIDER_ENDPOINT"); v != "" {
		c.Provider.Endpoint = v
	}
	if v := os.Getenv("APPGEN_PROVIDER_MODEL"); v != "" {
		c.Provider.Model = v
	}
	if v := os.Getenv("APPGEN_WORKSPACE_DIR"); v != "" {
		c.Workspace.BaseDir = v
	}
	if v := os.Getenv("APPGEN_TEMPORAL_HOST"); v != "" {
		c.Temporal.Host = v
		c.Temporal.Enabled = true
	}
	c.Provider.APIKey = os.Getenv("APPGEN_PROVIDER_API_KEY")
}

// ResolveAPIKey returns the configured API key, falling back to a
// hidden-input terminal prompt when the environment supplied none (the
// config file never carries the key; the model endpoint may not require one at
// all, e.g. a local vLLM server with no auth configured).
func ResolveAPIKey(c *Config) (string, error) {
	if c.Provider.APIKey != "" {
		return c.Provider.APIKey, nil
	}
	if !term.IsTerminal(int(syscall.Stdin)) {
		return "", nil
	}

	fmt.Print("Enter provider API key (leave blank if none): ")
	keyBytes, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("read api key: %w", err)
	}
	return string(keyBytes), nil
}
