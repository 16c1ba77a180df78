// Package config loads the global mici configuration file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/phillarmonic/mici/internal/log"
)

// Environment overrides
const (
	LogLevelEnv  = "MICI_LOG_LEVEL"
	LogFormatEnv = "MICI_LOG_FORMAT"
)

// Config is the global configuration. It is read once at startup and
// passed explicitly to whatever needs it. Unknown keys, such as the
// upstream sync settings other tools keep in the same file, are ignored.
type Config struct {
	DisableCLIColor bool   `yaml:"disable_cli_color,omitempty"`
	LogLevel        string `yaml:"log_level,omitempty"`
	LogFormat       string `yaml:"log_format,omitempty"`
}

// Default returns the configuration used when no file exists
func Default() Config {
	return Config{
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// Load reads the configuration at path. A missing file yields the
// defaults; environment overrides are applied either way.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return cfg, fmt.Errorf("read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("unmarshal config %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(LogLevelEnv); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(LogFormatEnv); v != "" {
		c.LogFormat = v
	}
}

// Save writes the configuration to path
func (c Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Logging returns the logger configuration
func (c Config) Logging() log.Config {
	cfg := log.DefaultConfig()
	cfg.Level = log.ParseLevel(c.LogLevel)
	cfg.Format = log.ParseFormat(c.LogFormat)
	return cfg
}
