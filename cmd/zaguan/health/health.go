// Package healthcmder provides the health command for checking that the
// gateway is reachable and healthy.
package healthcmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zaguanai/zaguan-go/cmd/zaguan/gatewayflags"
	"github.com/zaguanai/zaguan-go/pkg/cliui"
	"github.com/zaguanai/zaguan-go/pkg/llm"
)

const healthShortDesc string = "Check gateway health"

func NewHealthCmd() *cobra.Command {
	var gateway gatewayflags.Values

	cmd := &cobra.Command{
		Use:   "health",
		Short: healthShortDesc,
		Long:  "Call the gateway /health endpoint and print every field it reports.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := gatewayflags.Resolve(cmd)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			c, err := gatewayflags.NewClient(cmd, cfg)
			if err != nil {
				return err
			}

			var health *llm.HealthStatus
			err = cliui.Step(cmd.ErrOrStderr(), "Checking "+c.BaseURL(), func() error {
				health, err = c.Health(cmd.Context())
				return err
			})
			if err != nil {
				return err
			}

			fmt.Fprint(cmd.OutOrStdout(), cliui.Panel("Gateway health", cliui.MapRows(health.Details)))
			return nil
		},
	}

	gatewayflags.Add(cmd, &gateway)

	return cmd
}
