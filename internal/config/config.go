// Package config owns the application's configuration surface: YAML
// config file, ini credentials store, command-line flags and config
// hot-reload.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Sync strategy names as they appear in config and on the command
// line. The two strategies are mutually exclusive per connection.
const (
	ModeBulk     = "bulk"
	ModeViewport = "viewport"
)

// DefaultRefreshRate is the demo feed tick interval in seconds.
const DefaultRefreshRate = 1.0

// Server describes one connectable remote table server.
type Server struct {
	Name    string `yaml:"name"`
	URL     string `yaml:"url"`
	Table   string `yaml:"table"`
	Mode    string `yaml:"mode,omitempty"`
	Edition string `yaml:"edition,omitempty"`
}

// Config is the persisted application configuration.
type Config struct {
	RefreshRate   float32  `yaml:"refreshRate,omitempty"`
	LogLevel      string   `yaml:"logLevel,omitempty"`
	CurrentServer string   `yaml:"currentServer,omitempty"`
	Servers       []Server `yaml:"servers,omitempty"`
}

// NewConfig returns a configuration with defaults set.
func NewConfig() *Config {
	return &Config{
		RefreshRate: DefaultRefreshRate,
		LogLevel:    "info",
	}
}

// Load reads the configuration file. A missing file yields defaults.
func Load(path string) (*Config, error) {
	cfg := NewConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("config: write %q: %w", path, err)
	}
	return nil
}

// Validate normalizes modes and checks server entries.
func (c *Config) Validate() error {
	for i := range c.Servers {
		s := &c.Servers[i]
		if s.Name == "" {
			return fmt.Errorf("config: server %d has no name", i)
		}
		switch strings.ToLower(s.Mode) {
		case "", ModeBulk, ModeViewport:
			s.Mode = strings.ToLower(s.Mode)
		default:
			return fmt.Errorf("config: server %q: unknown mode %q", s.Name, s.Mode)
		}
	}
	return nil
}

// Server resolves a server entry by name. An empty name falls back to
// the current server, then to the first entry.
func (c *Config) Server(name string) (Server, bool) {
	if name == "" {
		name = c.CurrentServer
	}
	if name == "" && len(c.Servers) > 0 {
		return c.Servers[0], true
	}
	for _, s := range c.Servers {
		if s.Name == name {
			return s, true
		}
	}
	return Server{}, false
}
