package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"qadash/internal/domain"
)

// Config models qadash.yml.
type Config struct {
	Server struct {
		Addr       string `yaml:"addr"`
		BasePath   string `yaml:"base_path"`
		JWTSecret  string `yaml:"jwt_secret"`
		CookieName string `yaml:"cookie_name"`
	} `yaml:"server"`
	Storage struct {
		Driver string `yaml:"driver"`
		DSN    string `yaml:"dsn"`
	} `yaml:"storage"`
	Seed struct {
		Enabled bool   `yaml:"enabled"`
		File    string `yaml:"file"`
	} `yaml:"seed"`
	Session struct {
		DefaultRole       string        `yaml:"default_role"`
		DefaultDepartment string        `yaml:"default_department"`
		TokenTTL          time.Duration `yaml:"token_ttl"`
		IdleTTL           time.Duration `yaml:"idle_ttl"`
	} `yaml:"session"`
	Runs struct {
		Delay    time.Duration  `yaml:"delay"`
		Outcomes map[string]int `yaml:"outcomes"`
	} `yaml:"runs"`
	Synth struct {
		Confidence string `yaml:"confidence"`
	} `yaml:"synth"`
	Events struct {
		Capacity int `yaml:"capacity"`
	} `yaml:"events"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

const (
	ConfidenceRandom      = "random"
	ConfidenceCheckpoints = "checkpoints"
)

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("config.server.addr is required")
	}
	if c.Server.BasePath == "" || !strings.HasPrefix(c.Server.BasePath, "/") {
		return fmt.Errorf("config.server.base_path must start with /")
	}
	if c.Server.CookieName == "" {
		return fmt.Errorf("config.server.cookie_name is required")
	}
	switch c.Storage.Driver {
	case "memory", "sqlite":
	default:
		return fmt.Errorf("config.storage.driver must be memory or sqlite, got %q", c.Storage.Driver)
	}
	if c.Session.DefaultRole == "" || c.Session.DefaultDepartment == "" {
		return fmt.Errorf("config.session default role and department are required")
	}
	if c.Session.TokenTTL <= 0 {
		return fmt.Errorf("config.session.token_ttl must be positive")
	}
	if c.Session.IdleTTL <= 0 {
		return fmt.Errorf("config.session.idle_ttl must be positive")
	}
	if c.Runs.Delay < 0 {
		return fmt.Errorf("config.runs.delay must not be negative")
	}
	total := 0
	for status, weight := range c.Runs.Outcomes {
		if !knownStatus(status) {
			return fmt.Errorf("config.runs.outcomes has unknown status %s", status)
		}
		if weight < 0 {
			return fmt.Errorf("config.runs.outcomes weight for %s is negative", status)
		}
		total += weight
	}
	if total == 0 {
		return fmt.Errorf("config.runs.outcomes needs at least one positive weight")
	}
	switch c.Synth.Confidence {
	case ConfidenceRandom, ConfidenceCheckpoints:
	default:
		return fmt.Errorf("config.synth.confidence must be random or checkpoints, got %q", c.Synth.Confidence)
	}
	if c.Events.Capacity <= 0 {
		return fmt.Errorf("config.events.capacity must be positive")
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config.log.level must be debug, info, warn or error")
	}
	return nil
}

func knownStatus(s string) bool {
	switch s {
	case domain.StatusPass, domain.StatusFail, domain.StatusPartial, domain.StatusNR, domain.StatusNA:
		return true
	}
	return false
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "qadash.yml")
}

// GenerateDefault returns default config YAML.
func GenerateDefault() string {
	return defaultTemplate
}

// Default returns the default Config.
func Default() *Config {
	var cfg Config
	if err := yaml.NewDecoder(bytes.NewBufferString(defaultTemplate)).Decode(&cfg); err != nil {
		panic(fmt.Sprintf("default config: %v", err))
	}
	return &cfg
}

// LoadOptional reads the workspace config over the defaults. A missing file
// yields the defaults.
func LoadOptional(workspace string) (*Config, error) {
	data, err := os.ReadFile(Path(workspace))
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// FromYAML parses raw YAML over the defaults and validates the result.
// A runs.outcomes table replaces the default weights as a whole.
func FromYAML(data []byte) (*Config, error) {
	cfg := Default()
	defaults := cfg.Runs.Outcomes
	cfg.Runs.Outcomes = nil
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if cfg.Runs.Outcomes == nil {
		cfg.Runs.Outcomes = defaults
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

const defaultTemplate = `server:
  addr: 127.0.0.1:8080
  base_path: /api/v0
  jwt_secret: ""
  cookie_name: qa_session

storage:
  driver: memory
  dsn: ""

seed:
  enabled: true
  file: ""

session:
  default_role: Risk Analyst
  default_department: Risk Management
  token_ttl: 12h
  idle_ttl: 12h

runs:
  delay: 1500ms
  outcomes:
    Pass: 6
    Fail: 2
    Partial: 1
    NR: 1

synth:
  confidence: random

events:
  capacity: 200

log:
  level: info
`
