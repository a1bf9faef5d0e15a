// Package creditscmder provides the credits command for inspecting the
// account's credit balance, history and usage statistics.
package creditscmder

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zaguanai/zaguan-go/cmd/zaguan/gatewayflags"
	"github.com/zaguanai/zaguan-go/pkg/cliui"
	"github.com/zaguanai/zaguan-go/pkg/client"
	"github.com/zaguanai/zaguan-go/pkg/llm"
)

const creditsLongDesc string = `Inspect Zaguan credits.

  zaguan credits balance    Show remaining credits and tier
  zaguan credits history    Show per-request credit debits
  zaguan credits stats      Show aggregated usage for a period`

func NewCreditsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credits",
		Short: "Inspect credit balance, history and usage",
		Long:  creditsLongDesc,
	}

	cmd.AddCommand(newBalanceCmd())
	cmd.AddCommand(newHistoryCmd())
	cmd.AddCommand(newStatsCmd())

	return cmd
}

// connect resolves config for cmd and returns a client.
func connect(cmd *cobra.Command) (*client.Client, error) {
	cfg, err := gatewayflags.Resolve(cmd)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return gatewayflags.NewClient(cmd, cfg)
}

func newBalanceCmd() *cobra.Command {
	var gateway gatewayflags.Values

	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Show remaining credits and tier",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := connect(cmd)
			if err != nil {
				return err
			}

			balance, err := c.CreditsBalance(cmd.Context())
			if err != nil {
				return err
			}

			rows := []cliui.KV{
				{Key: "credits", Value: strconv.Itoa(balance.CreditsRemaining)},
				{Key: "tier", Value: balance.Tier},
				{Key: "bands", Value: strings.Join(balance.Bands, ", ")},
			}
			if balance.ResetDate != "" {
				rows = append(rows, cliui.KV{Key: "resets", Value: balance.ResetDate})
			}
			fmt.Fprint(cmd.OutOrStdout(), cliui.Panel("Credits", rows))
			return nil
		},
	}

	gatewayflags.Add(cmd, &gateway)
	return cmd
}

func newHistoryCmd() *cobra.Command {
	var (
		gateway gatewayflags.Values
		opts    client.CreditsHistoryOptions
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show per-request credit debits",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := connect(cmd)
			if err != nil {
				return err
			}

			history, err := c.CreditsHistory(cmd.Context(), opts)
			if err != nil {
				return err
			}

			printHistory(cmd.OutOrStdout(), history.Entries)
			if history.NextCursor != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "\n  %s\n", cliui.DimStyle.Render("More entries: --cursor "+history.NextCursor))
			}
			return nil
		},
	}

	gatewayflags.Add(cmd, &gateway)
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "Maximum entries to return")
	cmd.Flags().StringVar(&opts.Cursor, "cursor", "", "Cursor from a previous page")
	cmd.Flags().StringVar(&opts.StartDate, "start-date", "", "Earliest entry date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.EndDate, "end-date", "", "Latest entry date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.Model, "filter-model", "", "Only show entries for this model")

	return cmd
}

func newStatsCmd() *cobra.Command {
	var (
		gateway gatewayflags.Values
		opts    client.CreditsStatsOptions
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show aggregated usage for a period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := connect(cmd)
			if err != nil {
				return err
			}

			stats, err := c.CreditsStats(cmd.Context(), opts)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprint(out, cliui.Panel("Usage", []cliui.KV{
				{Key: "period", Value: stats.Period},
				{Key: "credits used", Value: strconv.Itoa(stats.TotalCreditsUsed)},
				{Key: "cost", Value: fmt.Sprintf("$%.4f", stats.TotalCost)},
			}))
			for _, breakdown := range stats.ModelBreakdown {
				fmt.Fprintln(out)
				fmt.Fprint(out, cliui.Panel("", cliui.MapRows(breakdown)))
			}
			return nil
		},
	}

	gatewayflags.Add(cmd, &gateway)
	cmd.Flags().StringVar(&opts.Period, "period", "", "Aggregation period (day, week, month)")
	cmd.Flags().StringVar(&opts.GroupBy, "group-by", "", "Grouping dimension (model, provider, band)")

	return cmd
}

func printHistory(w io.Writer, entries []llm.CreditsHistoryEntry) {
	if len(entries) == 0 {
		fmt.Fprintf(w, "  %s No credit history.\n", cliui.DimStyle.Render("●"))
		return
	}

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			e.Timestamp,
			e.Model,
			strconv.Itoa(e.TotalTokens),
			strconv.Itoa(e.CreditsDebited),
			e.Status,
		})
	}
	cliui.Table(w, []string{"TIME", "MODEL", "TOKENS", "CREDITS", "STATUS"}, rows)
}
