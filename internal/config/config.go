package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ehrlich-b/wingchat/internal/ws"
)

const DefaultServer = "http://localhost:8000"

// Config represents the client configuration
type Config struct {
	Server        string          `yaml:"server"`
	Token         string          `yaml:"token,omitempty"`
	Profile       ProfileRef      `yaml:"profile,omitempty"`
	Reconnect     ReconnectConfig `yaml:"reconnect,omitempty"`
	CreateTimeout string          `yaml:"create_timeout,omitempty"` // e.g. "3s"
	SendRate      float64         `yaml:"send_rate,omitempty"`      // frames per second, 0 = unlimited
	SendBurst     int             `yaml:"send_burst,omitempty"`
	Transcript    string          `yaml:"transcript,omitempty"` // sqlite path, empty = off
	Logging       LoggingConfig   `yaml:"logging,omitempty"`
}

type ReconnectConfig struct {
	Delay       string  `yaml:"delay,omitempty"`
	MaxDelay    string  `yaml:"max_delay,omitempty"`
	Multiplier  float64 `yaml:"multiplier,omitempty"`
	MaxAttempts int     `yaml:"max_attempts,omitempty"`
}

type LoggingConfig struct {
	Level string `yaml:"level,omitempty"`
	File  string `yaml:"file,omitempty"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Server:  DefaultServer,
		Profile: ProfileRef{Profile: Builtin("adk")},
		Logging: LoggingConfig{Level: "warn"},
	}
}

// Load reads configuration from path. A missing file yields the defaults;
// env overrides apply either way.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Override with environment variables if present
func (c *Config) applyEnv() {
	if s := os.Getenv("WINGCHAT_SERVER"); s != "" {
		c.Server = s
	}
	if tok := os.Getenv("WINGCHAT_TOKEN"); tok != "" {
		c.Token = tok
	}
	if p := os.Getenv("WINGCHAT_PROFILE"); p != "" {
		c.Profile = ProfileRef{Profile: Builtin(p)}
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server == "" {
		return fmt.Errorf("server is required")
	}
	u, err := url.Parse(c.Server)
	if err != nil {
		return fmt.Errorf("server: %w", err)
	}
	switch u.Scheme {
	case "http", "https", "ws", "wss":
	default:
		return fmt.Errorf("server must be an http(s) or ws(s) URL, got %q", c.Server)
	}
	if u.Host == "" {
		return fmt.Errorf("server %q has no host", c.Server)
	}
	if c.Profile.Name == "" {
		return fmt.Errorf("profile.name is required")
	}
	if !c.Profile.known() {
		return fmt.Errorf("unknown profile %q (built-in: %s)", c.Profile.Name, strings.Join(BuiltinNames(), ", "))
	}
	for name, v := range map[string]string{
		"create_timeout":      c.CreateTimeout,
		"reconnect.delay":     c.Reconnect.Delay,
		"reconnect.max_delay": c.Reconnect.MaxDelay,
	} {
		if v == "" {
			continue
		}
		if d, err := time.ParseDuration(v); err != nil || d < 0 {
			return fmt.Errorf("%s: invalid duration %q", name, v)
		}
	}
	if c.Reconnect.MaxAttempts < 0 {
		return fmt.Errorf("reconnect.max_attempts must be >= 0")
	}
	if c.SendRate < 0 {
		return fmt.Errorf("send_rate must be >= 0")
	}
	return nil
}

// WSURL derives the socket endpoint: http→ws, https→wss, path /ws.
func (c *Config) WSURL() (string, error) {
	u, err := url.Parse(c.Server)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path = strings.TrimSuffix(u.Path, "/")
	if !strings.HasSuffix(u.Path, "/ws") {
		u.Path += "/ws"
	}
	u.RawQuery = ""
	return u.String(), nil
}

// APIBase is the HTTP base URL for the REST endpoints.
func (c *Config) APIBase() string {
	u, err := url.Parse(c.Server)
	if err != nil {
		return c.Server
	}
	switch u.Scheme {
	case "ws":
		u.Scheme = "http"
	case "wss":
		u.Scheme = "https"
	}
	u.Path = strings.TrimSuffix(strings.TrimSuffix(u.Path, "/"), "/ws")
	u.RawQuery = ""
	return u.String()
}

// Policy converts the reconnect section. Empty fields keep ws defaults.
func (c *Config) Policy() ws.ReconnectPolicy {
	p := ws.DefaultPolicy()
	if d := parseDuration(c.Reconnect.Delay); d > 0 {
		p.Delay = d
	}
	p.MaxDelay = parseDuration(c.Reconnect.MaxDelay)
	if c.Reconnect.Multiplier > 0 {
		p.Multiplier = c.Reconnect.Multiplier
	}
	p.MaxAttempts = c.Reconnect.MaxAttempts
	return p
}

// CreateTimeoutDuration returns create_timeout, or 0 when unset.
func (c *Config) CreateTimeoutDuration() time.Duration {
	return parseDuration(c.CreateTimeout)
}

func parseDuration(s string) time.Duration {
	if s == "" {
		return 0
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}

// Marshal renders the resolved configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
