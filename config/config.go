// Package config loads storefront client settings.
//
// Settings come from built-in defaults, then an optional YAML file, then
// STOREFRONT_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "STOREFRONT"

// EnvConfigPath names the variable that points at the config file.
const EnvConfigPath = "STOREFRONT_CONFIG"

// Config holds all client settings.
type Config struct {
	API     APIConfig     `yaml:"api" envconfig:"API"`
	Catalog CatalogConfig `yaml:"catalog" envconfig:"CATALOG"`
	Cart    CartConfig    `yaml:"cart" envconfig:"CART"`
	Session SessionConfig `yaml:"session" envconfig:"SESSION"`
	Agent   AgentConfig   `yaml:"agent" envconfig:"AGENT"`
	Logging LoggingConfig `yaml:"logging" envconfig:"LOG"`
}

// APIConfig configures the storefront backend.
type APIConfig struct {
	BaseURL string        `yaml:"base_url" envconfig:"BASE_URL"`
	Timeout time.Duration `yaml:"timeout" envconfig:"TIMEOUT"`
}

// CatalogConfig configures the product catalog.
type CatalogConfig struct {
	BaseURL string `yaml:"base_url" envconfig:"BASE_URL"`
}

// CartConfig configures cart sync.
type CartConfig struct {
	PushWindow time.Duration `yaml:"push_window" envconfig:"PUSH_WINDOW"`
}

// SessionConfig holds the stored session.
type SessionConfig struct {
	Token string `yaml:"token,omitempty" envconfig:"TOKEN"`
}

// AgentConfig configures the long-running agent.
type AgentConfig struct {
	HealthAddr  string `yaml:"health_addr" envconfig:"HEALTH_ADDR"`
	MetricsAddr string `yaml:"metrics_addr" envconfig:"METRICS_ADDR"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level string `yaml:"level" envconfig:"LEVEL"`
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: "http://localhost:3000",
			Timeout: 15 * time.Second,
		},
		Catalog: CatalogConfig{
			BaseURL: "https://fakestoreapi.com",
		},
		Cart: CartConfig{
			PushWindow: time.Second,
		},
		Agent: AgentConfig{
			HealthAddr:  ":50051",
			MetricsAddr: ":9090",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// DefaultPath returns the config file location: $STOREFRONT_CONFIG if set,
// else storefront/config.yaml under the user config directory.
func DefaultPath() string {
	return PathFromEnv(EnvConfigPath, defaultFile())
}

// PathFromEnv returns the value of envVar, or defaultPath when it is unset.
func PathFromEnv(envVar, defaultPath string) string {
	if p := os.Getenv(envVar); p != "" {
		return p
	}
	return defaultPath
}

func defaultFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "storefront.yaml"
	}
	return filepath.Join(dir, "storefront", "config.yaml")
}

// Load reads path over the defaults and applies environment overrides. A
// missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that would otherwise fail later.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is required")
	}
	if c.Catalog.BaseURL == "" {
		return fmt.Errorf("catalog.base_url is required")
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be positive, got %s", c.API.Timeout)
	}
	if c.Cart.PushWindow < 0 {
		return fmt.Errorf("cart.push_window must not be negative, got %s", c.Cart.PushWindow)
	}
	return nil
}

// Save writes the configuration to path, creating its directory. The file
// may hold a session token, so it is private to the user.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
