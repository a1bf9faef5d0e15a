// Package modelscmder provides the models command for listing the models and
// capabilities exposed by the gateway.
package modelscmder

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/zaguanai/zaguan-go/cmd/zaguan/gatewayflags"
	"github.com/zaguanai/zaguan-go/pkg/cliui"
	"github.com/zaguanai/zaguan-go/pkg/llm"
	"github.com/zaguanai/zaguan-go/pkg/utils"
)

const modelsLongDesc string = `List the models available through the Zaguan gateway.

Model identifiers use provider/model form and can be passed to
"zaguan chat --model". With --capabilities, shows what each model supports
instead.

Examples:
  zaguan models
  zaguan models --capabilities
  zaguan models --json`

const modelsShortDesc string = "List models available through the gateway"

const descriptionWidth = 48

type modelsCommander struct {
	gateway      gatewayflags.Values
	capabilities bool
	json         bool
}

func NewModelsCmd() *cobra.Command {
	cmder := &modelsCommander{}

	cmd := &cobra.Command{
		Use:   "models",
		Short: modelsShortDesc,
		Long:  modelsLongDesc,
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

			out := cmd.OutOrStdout()
			if cmder.capabilities {
				caps, err := c.GetCapabilities(cmd.Context())
				if err != nil {
					return err
				}
				return cmder.print(out, caps, capabilityRows(caps), []string{"MODEL", "VISION", "TOOLS", "REASONING", "CONTEXT"})
			}

			models, err := c.ListModels(cmd.Context())
			if err != nil {
				return err
			}
			return cmder.print(out, models, modelRows(models), []string{"ID", "OWNER", "DESCRIPTION"})
		},
	}

	gatewayflags.Add(cmd, &cmder.gateway)
	cmd.Flags().BoolVar(&cmder.capabilities, "capabilities", false, "Show model capabilities instead of the model list")
	cmd.Flags().BoolVar(&cmder.json, "json", false, "Print the raw gateway response as JSON")

	return cmd
}

func (c *modelsCommander) print(w io.Writer, raw any, rows [][]string, header []string) error {
	if c.json {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(raw)
	}
	if len(rows) == 0 {
		fmt.Fprintf(w, "  %s No models returned.\n", cliui.DimStyle.Render("●"))
		return nil
	}
	cliui.Table(w, header, rows)
	return nil
}

func modelRows(models []llm.ModelInfo) [][]string {
	rows := make([][]string, 0, len(models))
	for _, m := range models {
		rows = append(rows, []string{m.ID, m.OwnedBy, utils.Truncate(m.Description, descriptionWidth)})
	}
	return rows
}

func capabilityRows(caps []llm.ModelCapabilities) [][]string {
	yesNo := func(b bool) string {
		if b {
			return "yes"
		}
		return "-"
	}

	rows := make([][]string, 0, len(caps))
	for _, c := range caps {
		ctxTokens := "-"
		if c.MaxContextTokens != nil {
			ctxTokens = strconv.Itoa(*c.MaxContextTokens)
		}
		rows = append(rows, []string{c.ModelID, yesNo(c.SupportsVision), yesNo(c.SupportsTools), yesNo(c.SupportsReasoning), ctxTokens})
	}
	return rows
}
