package config

import (
	"fmt"
	"strconv"
	"time"
)

// Config represents the persistent zaguan configuration stored as config.toml
// in the .zaguan/ directory. The TOML layout uses sections for logical grouping.
type Config struct {
	Version int           `toml:"version"`
	Gateway GatewayConfig `toml:"gateway"`
	Chat    ChatConfig    `toml:"chat"`
	Retry   RetryConfig   `toml:"retry"`
}

// GatewayConfig holds the connection settings for the Zaguan gateway.
type GatewayConfig struct {
	BaseURL string `toml:"base_url,omitempty"`

	// Timeout is a Go duration string (e.g. "60s").
	Timeout string `toml:"timeout,omitempty"`

	// Profile selects the credentials.toml profile holding the API key.
	Profile string `toml:"profile,omitempty"`
}

// ChatConfig holds defaults for "zaguan chat".
type ChatConfig struct {
	Model  string `toml:"model,omitempty"`
	System string `toml:"system,omitempty"`
}

// RetryConfig mirrors retry.Policy. Durations are Go duration strings.
type RetryConfig struct {
	MaxRetries      int     `toml:"max_retries"`
	InitialDelay    string  `toml:"initial_delay,omitempty"`
	MaxDelay        string  `toml:"max_delay,omitempty"`
	ExponentialBase float64 `toml:"exponential_base,omitempty"`
	Jitter          bool    `toml:"jitter"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"gateway.base_url": {
		get: func(c *Config) string { return c.Gateway.BaseURL },
		set: func(c *Config, v string) error { c.Gateway.BaseURL = v; return nil },
	},
	"gateway.timeout": {
		get: func(c *Config) string { return c.Gateway.Timeout },
		set: durationSetter("gateway.timeout", func(c *Config) *string { return &c.Gateway.Timeout }),
	},
	"gateway.profile": {
		get: func(c *Config) string { return c.Gateway.Profile },
		set: func(c *Config, v string) error { c.Gateway.Profile = v; return nil },
	},
	"chat.model": {
		get: func(c *Config) string { return c.Chat.Model },
		set: func(c *Config, v string) error { c.Chat.Model = v; return nil },
	},
	"chat.system": {
		get: func(c *Config) string { return c.Chat.System },
		set: func(c *Config, v string) error { c.Chat.System = v; return nil },
	},
	"retry.max_retries": {
		get: func(c *Config) string { return strconv.Itoa(c.Retry.MaxRetries) },
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				return fmt.Errorf("invalid value for retry.max_retries: %q", v)
			}
			c.Retry.MaxRetries = n
			return nil
		},
	},
	"retry.initial_delay": {
		get: func(c *Config) string { return c.Retry.InitialDelay },
		set: durationSetter("retry.initial_delay", func(c *Config) *string { return &c.Retry.InitialDelay }),
	},
	"retry.max_delay": {
		get: func(c *Config) string { return c.Retry.MaxDelay },
		set: durationSetter("retry.max_delay", func(c *Config) *string { return &c.Retry.MaxDelay }),
	},
	"retry.exponential_base": {
		get: func(c *Config) string { return strconv.FormatFloat(c.Retry.ExponentialBase, 'g', -1, 64) },
		set: func(c *Config, v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil || f < 1 {
				return fmt.Errorf("invalid value for retry.exponential_base: %q", v)
			}
			c.Retry.ExponentialBase = f
			return nil
		},
	},
	"retry.jitter": {
		get: func(c *Config) string { return strconv.FormatBool(c.Retry.Jitter) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for retry.jitter: %w", err)
			}
			c.Retry.Jitter = b
			return nil
		},
	},
}

func durationSetter(key string, field func(c *Config) *string) func(c *Config, v string) error {
	return func(c *Config, v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid value for %s: %w", key, err)
		}
		if d < 0 {
			return fmt.Errorf("invalid value for %s: must not be negative", key)
		}
		*field(c) = v
		return nil
	}
}
