package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/eino/adk"
	"github.com/cloudwego/eino/schema"
	"github.com/spf13/cobra"

	"github.com/tbxark/viewagent/agent"
	"github.com/tbxark/viewagent/command"
	"github.com/tbxark/viewagent/render"
	"github.com/tbxark/viewagent/types"
	"github.com/tbxark/viewagent/views"
)

var chatSession string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat in the terminal; views are rendered as text",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd.Context(), os.Stdin, os.Stdout)
	},
}

func runChat(ctx context.Context, in io.Reader, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	manager, cm, closeCache, err := newManager(ctx, cfg, render.TextRenderers(views.DefaultRegistry()))
	if err != nil {
		return err
	}
	defer func() {
		if err := closeCache(); err != nil {
			slog.Warn("Failed to close session store", "error", err)
		}
	}()

	var parser command.Parser = command.NewLocalParser()
	if cfg.UseTools {
		toolParser, err := command.NewToolBasedParser(cm)
		if err != nil {
			return err
		}
		parser = command.NewFailbackParser(parser, toolParser)
	}
	return chatLoop(ctx, manager, parser, chatSession, in, out)
}

// chatLoop runs the read-eval-print loop of session until in is exhausted or
// the user quits.
func chatLoop(ctx context.Context, manager *agent.Manager, parser command.Parser, session string, in io.Reader, out io.Writer) error {
	ctx = agent.WithSessionKey(ctx, session)
	conv, err := manager.Open(ctx, session)
	if err != nil {
		return err
	}
	runner := adk.NewRunner(ctx, adk.RunnerConfig{
		Agent: agent.NewViewAgent("CareerForge", "Career guidance through adaptive views", manager),
	})

	msgs := conv.Messages()
	lastReply := printMessage(out, msgs[len(msgs)-1])
	fmt.Fprintln(out, "Type /help for commands.")

	reader := bufio.NewReader(in)
	for {
		fmt.Fprint(out, "\nYou: ")
		line, rErr := reader.ReadString('\n')
		line = strings.TrimSpace(line)
		if rErr != nil && line == "" {
			fmt.Fprintln(out)
			return nil
		}
		if line == "" {
			continue
		}
		cmd, pErr := parser.ParseCommand(ctx, command.Request{Input: line, LastReply: lastReply})
		if pErr != nil {
			slog.Debug("Command parsing failed", "error", pErr)
		}
		switch cmd {
		case command.Quit:
			fmt.Fprintln(out, "Goodbye!")
			return nil
		case command.Help:
			fmt.Fprintln(out, command.Usage())
			continue
		case command.Views:
			printCatalog(out, manager.Pipeline().Registry())
			continue
		case command.Context:
			printJSON(out, conv.Context())
			continue
		case command.Export:
			printJSON(out, conv.ExportState())
			continue
		case command.Reset:
			if err := manager.Reset(ctx, session); err != nil {
				fmt.Fprintf(out, "Could not reset: %v\n", err)
				continue
			}
			msgs := conv.Messages()
			lastReply = printMessage(out, msgs[len(msgs)-1])
			continue
		}

		iter := runner.Run(ctx, []*schema.Message{schema.UserMessage(line)})
		for {
			event, ok := iter.Next()
			if !ok {
				break
			}
			if event.Err != nil {
				fmt.Fprintf(out, "\nAssistant: %v\n", event.Err)
				continue
			}
		}
		msgs := conv.Messages()
		lastReply = printMessage(out, msgs[len(msgs)-1])
	}
}

// printMessage writes an assistant message and returns the text shown.
func printMessage(out io.Writer, m types.Message) string {
	text := m.Text
	if rendered, ok := m.Rendered.(string); ok && rendered != "" {
		text = rendered
	}
	fmt.Fprintf(out, "\nAssistant:\n%s\n", text)
	return text
}

func printJSON(out io.Writer, v any) {
	data, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(out, "encode failed: %v\n", err)
		return
	}
	fmt.Fprintln(out, string(data))
}
