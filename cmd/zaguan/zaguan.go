// Package zaguancmder
package zaguancmder

import (
	"github.com/spf13/cobra"

	authcmder "github.com/zaguanai/zaguan-go/cmd/zaguan/auth"
	chatcmder "github.com/zaguanai/zaguan-go/cmd/zaguan/chat"
	configcmder "github.com/zaguanai/zaguan-go/cmd/zaguan/config"
	creditscmder "github.com/zaguanai/zaguan-go/cmd/zaguan/credits"
	healthcmder "github.com/zaguanai/zaguan-go/cmd/zaguan/health"
	modelscmder "github.com/zaguanai/zaguan-go/cmd/zaguan/models"
	versioncmder "github.com/zaguanai/zaguan-go/cmd/version"
)

const zaguanLongDesc string = `Zaguan is a single OpenAI-compatible gateway in front of many model providers.

Get started:
  zaguan auth              Store your API key
  zaguan models            See which models you can use
  zaguan chat              Start a streaming chat session
  zaguan credits balance   Check your remaining credits`

const zaguanShortDesc string = "Zaguan - AI gateway client"

func NewZaguanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "zaguan",
		Short:         zaguanShortDesc,
		Long:          zaguanLongDesc,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override path to .zaguan/ config directory")

	// Add subcommands
	cmd.AddCommand(authcmder.NewAuthCmd())
	cmd.AddCommand(chatcmder.NewChatCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(creditscmder.NewCreditsCmd())
	cmd.AddCommand(healthcmder.NewHealthCmd())
	cmd.AddCommand(modelscmder.NewModelsCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
