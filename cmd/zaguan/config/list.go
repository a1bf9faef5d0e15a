package configcmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zaguanai/zaguan-go/pkg/config"
)

const listLongDesc string = `List all configuration values.

Displays every configuration key with its value from config.toml, falling
back to built-in defaults.

Examples:
  zaguan config list`

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all configuration values",
		Long:  listLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")

			cfger, err := config.NewConfiger(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			out := cmd.OutOrStdout()
			if fileExists(cfger.GetTarget()) {
				fmt.Fprintf(out, "Using config file: %s\n\n", cfger.GetTarget())
			} else {
				fmt.Fprint(out, "No config file found. Using default config.\n\n")
			}

			keys := config.ValidConfigKeys()
			maxLen := 0
			for _, k := range keys {
				maxLen = max(maxLen, len(k))
			}

			for _, key := range keys {
				value, err := cfger.GetConfigValue(key)
				if err != nil {
					return err
				}

				if value == "" {
					fmt.Fprintf(out, "%-*s = <not set>\n", maxLen, key)
				} else {
					fmt.Fprintf(out, "%-*s = %q\n", maxLen, key, value)
				}
			}

			return nil
		},
	}

	return cmd
}
