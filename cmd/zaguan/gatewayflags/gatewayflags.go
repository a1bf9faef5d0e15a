// Package gatewayflags registers the flags shared by every command that talks
// to the gateway and builds a client from the resolved configuration.
package gatewayflags

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/zaguanai/zaguan-go/pkg/client"
	"github.com/zaguanai/zaguan-go/pkg/config"
	"github.com/zaguanai/zaguan-go/pkg/credentials"
	"github.com/zaguanai/zaguan-go/pkg/logger"
	"github.com/zaguanai/zaguan-go/pkg/observability"
)

var registryKeys = []string{
	config.FlagBaseURL,
	config.FlagTimeout,
	config.FlagProfile,
	config.FlagMaxRetries,
}

// Values receives the parsed gateway flags. Commands read the resolved values
// through Resolve rather than from here.
type Values struct {
	BaseURL    string
	Timeout    string
	Profile    string
	MaxRetries int
}

// Add registers --base-url, --timeout, --profile and --max-retries on cmd.
func Add(cmd *cobra.Command, v *Values) {
	config.AddStringFlag(cmd, config.GatewayFlags, config.FlagBaseURL, &v.BaseURL)
	config.AddStringFlag(cmd, config.GatewayFlags, config.FlagTimeout, &v.Timeout)
	config.AddStringFlag(cmd, config.GatewayFlags, config.FlagProfile, &v.Profile)
	config.AddIntFlag(cmd, config.GatewayFlags, config.FlagMaxRetries, &v.MaxRetries)
}

// Resolve merges config.toml, ZAGUAN_* environment variables and the flags
// set on cmd. extra names further registry keys the command registered.
func Resolve(cmd *cobra.Command, extra ...string) (*config.Config, error) {
	configDir, _ := cmd.Flags().GetString("config-dir")

	v, err := config.InitViper(configDir)
	if err != nil {
		return nil, err
	}

	config.BindRegisteredFlags(v, cmd, config.GatewayFlags, append(slices.Clone(registryKeys), extra...))
	return config.FromViper(v), nil
}

// NewClient builds a gateway client for cfg. The API key comes from
// ZAGUAN_API_KEY or the configured credentials profile.
func NewClient(cmd *cobra.Command, cfg *config.Config, opts ...client.Option) (*client.Client, error) {
	configDir, _ := cmd.Flags().GetString("config-dir")
	debug, _ := cmd.Flags().GetBool("debug")

	creds, err := credentials.NewManager(configDir)
	if err != nil {
		return nil, fmt.Errorf("loading credentials: %w", err)
	}
	apiKey, err := creds.ResolveKey(cfg.Gateway.Profile)
	if err != nil {
		return nil, err
	}

	timeout, err := cfg.Timeout()
	if err != nil {
		return nil, err
	}
	policy, err := cfg.RetryPolicy()
	if err != nil {
		return nil, err
	}

	l := logger.New(
		logger.WithDebug(debug),
		logger.WithPretty(true),
		logger.WithWriter(cmd.ErrOrStderr()),
	)

	base := []client.Option{
		client.WithRetryPolicy(&policy),
		client.WithLogger(l),
		client.WithHooks(observability.NewLoggingHook(l, debug)),
	}
	if timeout > 0 {
		base = append(base, client.WithTimeout(timeout))
	}

	return client.New(cfg.Gateway.BaseURL, apiKey, append(base, opts...)...)
}
