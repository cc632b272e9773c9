// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
	"github.com/urfave/cli/v2"

	"github.com/jeranaias/codechat-tui/internal/agent"
	"github.com/jeranaias/codechat-tui/internal/markdown"
	"github.com/jeranaias/codechat-tui/internal/model"
	"github.com/jeranaias/codechat-tui/internal/util"
)

// Streamer sends one message and streams the reply. *agent.Client
// implements it.
type Streamer interface {
	Send(ctx context.Context, mode model.Mode, message string, onChunk agent.ChunkFunc) (string, error)
}

func askCommand() *cli.Command {
	return &cli.Command{
		Name:      "ask",
		Usage:     "ask one question and stream the reply",
		ArgsUsage: "<question>",
		Flags: []cli.Flag{
			modeFlag(),
			&cli.BoolFlag{
				Name:  "raw",
				Usage: "print the reply as received, without markdown rendering",
			},
		},
		Action: runAsk,
	}
}

func runAsk(c *cli.Context) error {
	question := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if question == "" {
		return cli.Exit("ask: a question is required", 2)
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	mode, err := modeFrom(c, cfg)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt)
	defer stop()

	out := c.App.Writer
	return ask(ctx, agent.New(cfg.AgentConfig()), AskRequest{
		Mode:     mode,
		Question: question,
		Render:   !c.Bool("raw") && isTerminalWriter(out),
		Theme:    cfg.UI.Theme,
		Width:    terminalWidth(out),
	}, out)
}

// =============================================================================
// ASK
// =============================================================================

// AskRequest is one ask invocation.
type AskRequest struct {
	Mode     model.Mode
	Question string

	// Render replaces the streamed text with a glamour rendering once the
	// reply is complete. Only meaningful on a terminal.
	Render bool
	Theme  string
	Width  int
}

// ask streams the reply to out. Server errors and connectivity failures
// are reported with the same text the chat UI shows.
func ask(ctx context.Context, client Streamer, req AskRequest, out io.Writer) error {
	var printed strings.Builder
	text, err := client.Send(ctx, req.Mode, req.Question, func(fragment string) {
		fmt.Fprint(out, fragment)
		printed.WriteString(fragment)
	})

	if err != nil {
		if printed.Len() > 0 {
			fmt.Fprintln(out)
		}
		if errors.Is(err, context.Canceled) {
			return nil
		}
		if detail, ok := agent.ServerDetail(err); ok {
			return cli.Exit(model.ErrorPrefix+detail, 1)
		}
		log.Printf("ASK FAILURE | mode=%s err=%v", req.Mode, err)
		return cli.Exit(model.ConnectivityFailure, 1)
	}

	if !req.Render || strings.TrimSpace(text) == "" {
		if !strings.HasSuffix(text, "\n") {
			fmt.Fprintln(out)
		}
		return nil
	}

	rendered, err := renderMarkdown(text, req.Theme, req.Width)
	if err != nil {
		log.Printf("ASK RENDER | err=%v", err)
		fmt.Fprintln(out)
		return nil
	}
	termenv.NewOutput(out).ClearLines(screenRows(printed.String(), req.Width) - 1)
	fmt.Fprint(out, "\r"+rendered)
	return nil
}

// renderMarkdown renders a finished reply with glamour.
func renderMarkdown(text, theme string, width int) (string, error) {
	if width <= 0 {
		width = DefaultTerminalWidth
	}
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width - 4)}
	switch theme {
	case "dark", "light":
		opts = append(opts, glamour.WithStandardStyle(theme))
	default:
		opts = append(opts, glamour.WithAutoStyle())
	}

	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", err
	}
	return r.Render(markdown.Normalize(text))
}

// screenRows counts the terminal rows text occupies at width, including
// the row the cursor ends on.
func screenRows(text string, width int) int {
	if width <= 0 {
		width = DefaultTerminalWidth
	}
	rows := 0
	for _, line := range strings.Split(text, "\n") {
		w := util.StringWidth(line)
		if w == 0 {
			rows++
			continue
		}
		rows += (w + width - 1) / width
	}
	return rows
}
