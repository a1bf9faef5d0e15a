package configcmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zaguanai/zaguan-go/pkg/config"
)

const getLongDesc string = `Get a configuration value.

Prints the value stored in config.toml, or the built-in default when the
key is not set. The bare value is printed so it can be used in scripts.

Examples:
  zaguan config get gateway.base_url
  zaguan config get retry.max_retries`

func newGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Long:  getLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			if err := checkKey(args[0]); err != nil {
				return err
			}

			cfger, err := config.NewConfiger(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			value, err := cfger.GetConfigValue(args[0])
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), value)
			return nil
		},
		ValidArgsFunction: keysCompletion,
	}

	return cmd
}
