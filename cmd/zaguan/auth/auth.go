// Package authcmder provides the auth command for storing gateway API keys.
package authcmder

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/zaguanai/zaguan-go/pkg/cliui"
	"github.com/zaguanai/zaguan-go/pkg/credentials"
)

const authLongDesc string = `Store Zaguan API keys.

Keys are stored in credentials.toml in the .zaguan/ directory under a named
profile ("default" when none is given). Select a profile for other commands
with --profile or gateway.profile in config.toml. ZAGUAN_API_KEY always
takes precedence over stored keys.

Examples:
  zaguan auth                   Prompt for the default profile's key
  zaguan auth staging           Prompt for the "staging" profile's key
  zaguan auth --list            List stored profiles
  zaguan auth --remove staging  Remove a stored profile
  echo $KEY | zaguan auth       Pipe the key from stdin`

const authShortDesc string = "Store Zaguan API keys"

func NewAuthCmd() *cobra.Command {
	var listFlag bool
	var removeFlag string

	cmd := &cobra.Command{
		Use:   "auth [profile]",
		Short: authShortDesc,
		Long:  authLongDesc,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			out := cmd.OutOrStdout()

			switch {
			case listFlag:
				return runList(out, configDir)
			case removeFlag != "":
				return runRemove(out, removeFlag, configDir)
			default:
				profile := credentials.DefaultProfile
				if len(args) == 1 {
					profile = args[0]
				}
				return runAuth(cmd.InOrStdin(), out, profile, configDir)
			}
		},
		ValidArgsFunction: func(cmd *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
			if len(args) > 0 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			configDir, _ := cmd.Flags().GetString("config-dir")
			mgr, err := credentials.NewManager(configDir)
			if err != nil {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			profiles, _ := mgr.ListProfiles()
			return profiles, cobra.ShellCompDirectiveNoFileComp
		},
	}

	cmd.Flags().BoolVar(&listFlag, "list", false, "List stored profiles")
	cmd.Flags().StringVar(&removeFlag, "remove", "", "Remove the stored key for a profile")

	return cmd
}

func runAuth(in io.Reader, out io.Writer, profile, configDir string) error {
	profile = strings.TrimSpace(profile)

	apiKey, err := readAPIKey(in, out, profile)
	if err != nil {
		return err
	}

	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return errors.New("API key cannot be empty")
	}

	mgr, err := credentials.NewManager(configDir)
	if err != nil {
		return fmt.Errorf("loading credentials: %w", err)
	}

	if err := mgr.SetKey(profile, apiKey); err != nil {
		return err
	}

	fmt.Fprintf(out, "\n  %s Stored key %s for profile %s\n\n",
		cliui.SuccessMark,
		cliui.DimStyle.Render(credentials.MaskKey(apiKey)),
		cliui.NameStyle.Render(profile),
	)

	if os.Getenv(credentials.EnvAPIKey) != "" {
		fmt.Fprintf(out, "  %s %s is set and will be used instead.\n\n",
			cliui.WarnStyle.Render("!"), credentials.EnvAPIKey)
	}
	return nil
}

func runList(out io.Writer, configDir string) error {
	mgr, err := credentials.NewManager(configDir)
	if err != nil {
		return fmt.Errorf("loading credentials: %w", err)
	}

	profiles, err := mgr.ListProfiles()
	if err != nil {
		return err
	}

	if len(profiles) == 0 {
		fmt.Fprintf(out, "\n  %s No stored keys.\n", cliui.DimStyle.Render("●"))
		fmt.Fprintf(out, "  Use 'zaguan auth [profile]' to store one.\n\n")
		return nil
	}

	fmt.Fprintf(out, "\n  %s\n\n", cliui.HeaderStyle.Render("Stored keys"))
	for _, p := range profiles {
		key, err := mgr.GetKey(p)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "  %s  %s  %s\n",
			cliui.SuccessMark,
			cliui.NameStyle.Render(p),
			cliui.DimStyle.Render(credentials.MaskKey(key)),
		)
	}
	fmt.Fprintln(out)

	return nil
}

func runRemove(out io.Writer, profile, configDir string) error {
	profile = strings.TrimSpace(profile)

	mgr, err := credentials.NewManager(configDir)
	if err != nil {
		return fmt.Errorf("loading credentials: %w", err)
	}

	if err := mgr.RemoveKey(profile); err != nil {
		return err
	}

	fmt.Fprintf(out, "\n  %s Removed profile %s.\n\n", cliui.SuccessMark, cliui.NameStyle.Render(profile))

	return nil
}

// readAPIKey prompts with hidden input when in is a terminal, otherwise it
// reads the first line.
func readAPIKey(in io.Reader, out io.Writer, profile string) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprintf(out, "Enter API key for profile %s: ", profile)

		keyBytes, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(out)
		if err != nil {
			return "", fmt.Errorf("reading API key: %w", err)
		}
		return string(keyBytes), nil
	}

	scanner := bufio.NewScanner(in)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return "", errors.New("no input received on stdin")
}
