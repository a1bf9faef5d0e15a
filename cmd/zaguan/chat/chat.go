// Package chatcmder provides the chat command for interactive, streaming chat
// with any model behind the Zaguan gateway.
package chatcmder

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zaguanai/zaguan-go/cmd/zaguan/gatewayflags"
	"github.com/zaguanai/zaguan-go/pkg/cliui"
	"github.com/zaguanai/zaguan-go/pkg/client"
	"github.com/zaguanai/zaguan-go/pkg/config"
	"github.com/zaguanai/zaguan-go/pkg/dotdir"
	"github.com/zaguanai/zaguan-go/pkg/llm"
	"github.com/zaguanai/zaguan-go/pkg/logger"
	"github.com/zaguanai/zaguan-go/pkg/observability"
	"github.com/zaguanai/zaguan-go/pkg/stream"
)

var (
	userPrompt      = cliui.PromptStyle.Render("you> ")
	assistantPrompt = cliui.DimStyle.Render("assistant> ")
)

type chatCommander struct {
	gateway gatewayflags.Values
	model   string
	system  string
	render  bool
	resume  bool

	configDir string
	modelSet  bool

	client  *client.Client
	metrics *observability.MetricsCollector
	session *dotdir.Session
	ddm     *dotdir.Manager
	logger  *slog.Logger

	in     io.Reader
	out    io.Writer
	errOut io.Writer
}

const chatLongDesc string = `Start an interactive chat session through the Zaguan gateway.

Replies are streamed as they are generated. Every turn is saved to
session.json in the .zaguan/ directory so the conversation can be picked
up again with --resume.

Passing a message as arguments sends a single turn and exits.

Commands inside the session:
  /exit     Quit (Ctrl+D works too)
  /reset    Forget the conversation so far

Examples:
  zaguan chat
  zaguan chat --model anthropic/claude-3-5-sonnet --system "Be brief."
  zaguan chat --resume
  zaguan chat "What is the capital of Peru?"`

const chatShortDesc string = "Interactive streaming chat through the Zaguan gateway"

func NewChatCmd() *cobra.Command {
	cmder := &chatCommander{}

	cmd := &cobra.Command{
		Use:   "chat [message]",
		Short: chatShortDesc,
		Long:  chatLongDesc,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := gatewayflags.Resolve(cmd, config.FlagModel, config.FlagSystem)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			cmder.model = cfg.Chat.Model
			cmder.system = cfg.Chat.System
			cmder.modelSet = cmd.Flags().Changed("model")
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")

			cmder.metrics = observability.NewMetricsCollector()
			cmder.client, err = gatewayflags.NewClient(cmd, cfg, client.WithHooks(cmder.metrics))
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			cmder.logger = logger.New(logger.WithDebug(debug), logger.WithPretty(true), logger.WithWriter(cmd.ErrOrStderr()))
			cmder.in = cmd.InOrStdin()
			cmder.out = cmd.OutOrStdout()
			cmder.errOut = cmd.ErrOrStderr()

			return cmder.run(cmd.Context(), strings.TrimSpace(strings.Join(args, " ")))
		},
	}

	gatewayflags.Add(cmd, &cmder.gateway)
	config.AddStringFlag(cmd, config.GatewayFlags, config.FlagModel, &cmder.model)
	config.AddStringFlag(cmd, config.GatewayFlags, config.FlagSystem, &cmder.system)
	cmd.Flags().BoolVar(&cmder.render, "render", false, "Render each reply as markdown once it completes instead of streaming it")
	cmd.Flags().BoolVarP(&cmder.resume, "resume", "r", false, "Continue the conversation saved in session.json")

	return cmd
}

func (c *chatCommander) run(ctx context.Context, oneShot string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	c.ddm = dotdir.NewManager()

	if err := c.startSession(); err != nil {
		return err
	}

	if oneShot != "" {
		return c.turn(ctx, oneShot)
	}

	fmt.Fprintf(c.out, "  %s %s\n", cliui.KeyStyle.Render("Model:"), cliui.NameStyle.Render(c.session.Model))
	fmt.Fprintf(c.out, "  %s\n\n", cliui.DimStyle.Render("Type your message and press Enter. /exit or Ctrl+D to quit."))

	scanner := bufio.NewScanner(c.in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for {
		fmt.Fprint(c.out, userPrompt)
		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		switch input {
		case "":
			continue
		case "/exit":
			return c.finish()
		case "/reset":
			c.session.Messages = c.systemMessages()
			if err := c.ddm.ClearSession(c.configDir); err != nil {
				return err
			}
			fmt.Fprintf(c.out, "  %s Conversation cleared\n\n", cliui.SuccessMark)
			continue
		}

		if err := c.turn(ctx, input); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fmt.Fprintf(c.errOut, "\n  %s\n\n", cliui.FormatError(err))
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	return c.finish()
}

// startSession loads the saved conversation when resuming, otherwise starts
// a new one seeded with the system prompt.
func (c *chatCommander) startSession() error {
	c.session = &dotdir.Session{Model: c.model, Messages: c.systemMessages()}
	if !c.resume {
		return nil
	}

	saved, err := c.ddm.LoadSession(c.configDir)
	if err != nil {
		return fmt.Errorf("loading session: %w", err)
	}
	if saved == nil {
		fmt.Fprintf(c.out, "  %s No saved session, starting a new conversation\n", cliui.DimStyle.Render("●"))
		return nil
	}

	c.session.Messages = saved.Messages
	if !c.modelSet && saved.Model != "" {
		c.session.Model = saved.Model
	}
	fmt.Fprintf(c.out, "  %s Resuming %s\n", cliui.SuccessMark,
		cliui.DimStyle.Render(fmt.Sprintf("(%d messages)", len(saved.Messages))))
	return nil
}

func (c *chatCommander) systemMessages() []llm.Message {
	if c.system == "" {
		return nil
	}
	return []llm.Message{llm.NewTextMessage(llm.RoleSystem, c.system)}
}

// turn sends input with the conversation so far, prints the reply and saves
// the session. A failed turn leaves the conversation unchanged.
func (c *chatCommander) turn(ctx context.Context, input string) error {
	messages := append(c.session.Messages, llm.NewTextMessage(llm.RoleUser, input))

	s, err := c.client.ChatStream(ctx, &llm.ChatRequest{
		Model:         c.session.Model,
		Messages:      messages,
		StreamOptions: &llm.StreamOptions{IncludeUsage: true},
	})
	if err != nil {
		return err
	}

	if !c.render {
		fmt.Fprint(c.out, assistantPrompt)
	}

	acc := stream.NewAccumulator()
	for chunk, err := range s.All() {
		if err != nil {
			fmt.Fprintln(c.out)
			return err
		}
		acc.AddChunk(chunk)
		if c.render {
			continue
		}
		for _, choice := range chunk.Choices {
			if choice.Delta != nil {
				fmt.Fprint(c.out, choice.Delta.GetText())
			}
		}
	}

	if u := acc.Usage(); u != nil {
		c.metrics.RecordUsage(observability.TokenUsage{
			PromptTokens:     u.PromptTokens,
			CompletionTokens: u.CompletionTokens,
			TotalTokens:      u.TotalTokens,
			ReasoningTokens:  u.ReasoningTokens(),
		})
	}

	if c.render {
		rendered, err := cliui.RenderMarkdown(acc.Content())
		if err != nil {
			c.logger.Debug("rendering markdown", "error", err)
		}
		fmt.Fprint(c.out, rendered)
	} else {
		fmt.Fprint(c.out, "\n\n")
	}

	if reason := acc.FinishReason(); reason != nil && *reason == "length" {
		fmt.Fprintf(c.errOut, "  %s reply was cut off at the token limit\n\n", cliui.WarnStyle.Render("!"))
	}

	reply := acc.Message()
	if reply.Role == "" {
		reply.Role = llm.RoleAssistant
	}
	c.session.Messages = append(messages, reply)
	if err := c.ddm.SaveSession(c.session, c.configDir); err != nil {
		return errors.Join(errors.New("reply received but the session was not saved"), err)
	}
	return nil
}

func (c *chatCommander) finish() error {
	summary := c.metrics.Summary()
	if summary.TotalRequests == 0 {
		return nil
	}

	fmt.Fprintf(c.out, "\n  %s\n", cliui.DimStyle.Render(fmt.Sprintf(
		"%d requests, %d tokens, avg %s",
		summary.TotalRequests, summary.TotalTokens, cliui.FormatDuration(c.metrics.AverageLatency()),
	)))
	return nil
}
