package configcmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zaguanai/zaguan-go/pkg/cliui"
	"github.com/zaguanai/zaguan-go/pkg/config"
)

const setLongDesc string = `Set a configuration value.

Sets the given key to the provided value in the config.toml file
stored in the .zaguan/ directory. Values are validated: durations use
Go syntax (250ms, 30s, 1m), retry.max_retries must not be negative and
retry.exponential_base must be at least 1.

Examples:
  zaguan config set gateway.base_url http://localhost:8080
  zaguan config set retry.max_retries 5
  zaguan config set retry.jitter false`

func newSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long:  setLongDesc,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			key, value := args[0], args[1]
			if err := checkKey(key); err != nil {
				return err
			}

			cfger, err := config.NewConfiger(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			if err := cfger.SetConfigValue(key, value); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printTarget(out, cfger.GetTarget())
			fmt.Fprintf(out, "  %s Set %s = %s\n\n",
				cliui.SuccessMark,
				cliui.KeyStyle.Render(key),
				cliui.ValueStyle.Render(value),
			)
			return nil
		},
		ValidArgsFunction: keysCompletion,
	}

	return cmd
}
