package config

const (
	defaultBaseURL = "https://api.zaguanai.com"
	defaultTimeout = "60s"
	defaultProfile = "default"

	defaultChatModel = "openai/gpt-4o-mini"

	defaultMaxRetries      = 3
	defaultInitialDelay    = "1s"
	defaultMaxDelay        = "60s"
	defaultExponentialBase = 2.0
	defaultJitter          = true
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Gateway: GatewayConfig{
			BaseURL: defaultBaseURL,
			Timeout: defaultTimeout,
			Profile: defaultProfile,
		},
		Chat: ChatConfig{
			Model: defaultChatModel,
		},
		Retry: RetryConfig{
			MaxRetries:      defaultMaxRetries,
			InitialDelay:    defaultInitialDelay,
			MaxDelay:        defaultMaxDelay,
			ExponentialBase: defaultExponentialBase,
			Jitter:          defaultJitter,
		},
	}
}
