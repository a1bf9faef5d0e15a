package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/zaguanai/zaguan-go/pkg/retry"
)

// FromViper reads the resolved configuration out of v, so flags, environment
// and file values are all reflected.
func FromViper(v *viper.Viper) *Config {
	return &Config{
		Version: v.GetInt("version"),
		Gateway: GatewayConfig{
			BaseURL: v.GetString("gateway.base_url"),
			Timeout: v.GetString("gateway.timeout"),
			Profile: v.GetString("gateway.profile"),
		},
		Chat: ChatConfig{
			Model:  v.GetString("chat.model"),
			System: v.GetString("chat.system"),
		},
		Retry: RetryConfig{
			MaxRetries:      v.GetInt("retry.max_retries"),
			InitialDelay:    v.GetString("retry.initial_delay"),
			MaxDelay:        v.GetString("retry.max_delay"),
			ExponentialBase: v.GetFloat64("retry.exponential_base"),
			Jitter:          v.GetBool("retry.jitter"),
		},
	}
}

// Timeout parses gateway.timeout. An empty value means the client default.
func (c *Config) Timeout() (time.Duration, error) {
	return parseDuration("gateway.timeout", c.Gateway.Timeout)
}

// RetryPolicy converts the retry section into a retry.Policy using the
// default retryable status codes.
func (c *Config) RetryPolicy() (retry.Policy, error) {
	initial, err := parseDuration("retry.initial_delay", c.Retry.InitialDelay)
	if err != nil {
		return retry.Policy{}, err
	}
	maxDelay, err := parseDuration("retry.max_delay", c.Retry.MaxDelay)
	if err != nil {
		return retry.Policy{}, err
	}
	if c.Retry.MaxRetries < 0 {
		return retry.Policy{}, fmt.Errorf("retry.max_retries must not be negative, got %d", c.Retry.MaxRetries)
	}

	return retry.Policy{
		MaxRetries:       c.Retry.MaxRetries,
		InitialDelay:     initial,
		MaxDelay:         maxDelay,
		ExponentialBase:  c.Retry.ExponentialBase,
		Jitter:           c.Retry.Jitter,
		RetryStatusCodes: retry.DefaultRetryStatusCodes(),
	}, nil
}

func parseDuration(key, value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
