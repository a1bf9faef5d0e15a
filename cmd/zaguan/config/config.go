// Package configcmder provides the config command for managing persistent
// zaguan configuration stored in the .zaguan/ directory.
package configcmder

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zaguanai/zaguan-go/pkg/cliui"
	"github.com/zaguanai/zaguan-go/pkg/config"
)

const configLongDesc string = `Manage persistent zaguan configuration.

Configuration is stored as config.toml in the .zaguan/ directory and provides
default values for command flags. Precedence, highest first: CLI flags,
ZAGUAN_* environment variables (e.g. ZAGUAN_GATEWAY_BASE_URL), config.toml,
built-in defaults.

Keys use dotted notation matching the TOML section structure:
  gateway.base_url, gateway.timeout, gateway.profile,
  chat.model, chat.system,
  retry.max_retries, retry.initial_delay, retry.max_delay,
  retry.exponential_base, retry.jitter

Examples:
  zaguan config init --preset local
  zaguan config set chat.model anthropic/claude-3-5-sonnet
  zaguan config get gateway.base_url
  zaguan config list`

const configShortDesc string = "Manage persistent zaguan configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}

func keysCompletion(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return config.ValidConfigKeys(), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}

func checkKey(key string) error {
	if !config.IsValidConfigKey(key) {
		return fmt.Errorf("unknown config key: %q\n\nValid keys: %s",
			key, strings.Join(config.ValidConfigKeys(), ", "))
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func printTarget(w io.Writer, target string) {
	fmt.Fprintf(w, "\n  %s %s\n\n", cliui.KeyStyle.Render("Config file:"), cliui.DimStyle.Render(target))
}

func newInitCmd() *cobra.Command {
	var preset string
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config.toml from a preset",
		Long: `Write a fresh config.toml from a preset.

Presets: ` + strings.Join(config.ValidPresetNames(), ", "),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			out := cmd.OutOrStdout()

			cfg, err := config.PresetConfig(preset)
			if err != nil {
				return err
			}

			cfger, err := config.NewConfiger(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			if !force && fileExists(cfger.GetTarget()) {
				return fmt.Errorf("config already exists at %s, use --force to overwrite", cfger.GetTarget())
			}

			if err := cfger.SaveConfig(cfg); err != nil {
				return err
			}

			printTarget(out, cfger.GetTarget())
			fmt.Fprintf(out, "  %s Initialized from preset %s\n\n", cliui.SuccessMark, cliui.NameStyle.Render(preset))
			return nil
		},
		ValidArgsFunction: cobra.NoFileCompletions,
	}

	cmd.Flags().StringVar(&preset, "preset", "zaguan", "Preset to start from ("+strings.Join(config.ValidPresetNames(), ", ")+")")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config.toml")

	return cmd
}
