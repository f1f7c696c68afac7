package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jonwraymond/tokenops/client"
	"github.com/jonwraymond/tokenops/grant"
	"github.com/jonwraymond/tokenops/observe"
	"github.com/jonwraymond/tokenops/token"
)

// Config is the top-level configuration file.
type Config struct {
	Server  ServerConfig    `yaml:"server"`
	Clients []client.Config `yaml:"clients"`
	Redis   RedisConfig     `yaml:"redis"`
	Observe observe.Config  `yaml:"observe"`
}

// ServerConfig holds token and authorization endpoint settings.
type ServerConfig struct {
	Realm string `yaml:"realm"`

	// Lifetimes use time.ParseDuration syntax. A negative access token
	// lifetime issues tokens that never expire; a zero refresh token
	// lifetime issues refresh tokens that never expire.
	AccessTokenLifetime  time.Duration `yaml:"access_token_lifetime"`
	RefreshTokenLifetime time.Duration `yaml:"refresh_token_lifetime"`
	CodeLifetime         time.Duration `yaml:"code_lifetime"`

	RotateRefreshTokens bool `yaml:"rotate_refresh_tokens"`

	// GrantTypes lists the built-in grant types. Empty selects the
	// endpoint defaults.
	GrantTypes []string `yaml:"grant_types"`

	// DefaultScope is space delimited.
	DefaultScope string `yaml:"default_scope"`
	RequireScope bool   `yaml:"require_scope"`

	AllowInsecure bool `yaml:"allow_insecure"`
}

// RedisConfig selects Redis-backed token and code storage. An empty
// Address keeps both in memory.
type RedisConfig struct {
	Address     string `yaml:"address"`
	Password    string `yaml:"password"`
	DB          int    `yaml:"db"`
	TokenPrefix string `yaml:"token_prefix"`
	CodePrefix  string `yaml:"code_prefix"`

	Breaker BreakerConfig `yaml:"breaker"`
}

// BreakerConfig configures the circuit breaker in front of Redis token
// storage.
type BreakerConfig struct {
	Disabled     bool          `yaml:"disabled"`
	MaxFailures  int           `yaml:"max_failures"`
	ResetTimeout time.Duration `yaml:"reset_timeout"`
}

// Enabled reports whether Redis is configured.
func (r RedisConfig) Enabled() bool {
	return r.Address != ""
}

// Load reads and parses the file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse expands environment references in data, decodes it and validates
// the result.
func Parse(data []byte) (*Config, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	if err := expandNode(&root); err != nil {
		return nil, fmt.Errorf("config: expand: %w", err)
	}

	var cfg Config
	if root.Kind != 0 {
		if err := root.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("config: decode: %w", err)
		}
	}
	if cfg.Observe.ServiceName == "" {
		cfg.Observe.ServiceName = "tokenops"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the values that decoding cannot.
func (c *Config) Validate() error {
	if _, err := c.Server.grantTypes(); err != nil {
		return err
	}
	if _, err := c.Server.defaultScope(); err != nil {
		return err
	}
	if c.Server.CodeLifetime < 0 {
		return fmt.Errorf("%w: code_lifetime %s", ErrInvalidLifetime, c.Server.CodeLifetime)
	}
	if c.Server.RefreshTokenLifetime < 0 {
		return fmt.Errorf("%w: refresh_token_lifetime %s", ErrInvalidLifetime, c.Server.RefreshTokenLifetime)
	}
	if err := c.Observe.Validate(); err != nil {
		return fmt.Errorf("config: observe: %w", err)
	}
	return nil
}

func (s ServerConfig) grantTypes() ([]grant.Type, error) {
	if len(s.GrantTypes) == 0 {
		return nil, nil
	}
	types := make([]grant.Type, 0, len(s.GrantTypes))
	for _, raw := range s.GrantTypes {
		t := grant.Type(raw)
		if !t.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrInvalidGrantType, raw)
		}
		types = append(types, t)
	}
	return types, nil
}

func (s ServerConfig) defaultScope() (token.Scope, error) {
	if s.DefaultScope == "" {
		return nil, nil
	}
	scope, err := token.ParseScope(s.DefaultScope)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScope, err)
	}
	return scope, nil
}
