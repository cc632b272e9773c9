// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/urfave/cli/v2"

	"github.com/jeranaias/codechat-tui/internal/agent"
	"github.com/jeranaias/codechat-tui/internal/config"
	"github.com/jeranaias/codechat-tui/internal/export"
	"github.com/jeranaias/codechat-tui/internal/model"
	"github.com/jeranaias/codechat-tui/internal/util"
)

func chatCommand() *cli.Command {
	return &cli.Command{
		Name:   "chat",
		Usage:  "line-mode chat with input history",
		Flags:  []cli.Flag{modeFlag()},
		Action: runChat,
	}
}

func runChat(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	mode, err := modeFrom(c, cfg)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}

	out := c.App.Writer
	repl := NewREPL(agent.New(cfg.AgentConfig()), mode, cfg.ExportOptions(), out)
	repl.interrupt = true

	input := newLineInput()
	defer input.Close()

	fmt.Fprintln(out, TitleStyle.Render("codechat")+" "+DimStyle.Render("type /help for commands, /exit to leave"))
	for {
		line, err := input.Read(string(repl.Mode()) + "> ")
		if err != nil {
			fmt.Fprintln(out)
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if repl.Handle(c.Context, line) {
			return nil
		}
	}
}

// =============================================================================
// INPUT HISTORY
// =============================================================================

// lineInput provides line editing and history persisted in the config
// directory.
type lineInput struct {
	line        *liner.State
	historyFile string
}

func newLineInput() *lineInput {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	dir, err := config.ConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	in := &lineInput{line: line, historyFile: filepath.Join(dir, "chat_history")}
	if f, err := os.Open(in.historyFile); err == nil {
		in.line.ReadHistory(f)
		f.Close()
	}
	return in
}

// Read prompts for one line and records it in the history.
func (in *lineInput) Read(prompt string) (string, error) {
	text, err := in.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) != "" {
		in.line.AppendHistory(text)
	}
	return text, nil
}

// Close saves the history and restores the terminal.
func (in *lineInput) Close() {
	if err := os.MkdirAll(filepath.Dir(in.historyFile), 0700); err == nil {
		if f, err := os.OpenFile(in.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600); err == nil {
			in.line.WriteHistory(f)
			f.Close()
		}
	}
	in.line.Close()
}

// =============================================================================
// REPL
// =============================================================================

// REPL is the line-mode chat. It keeps both conversations in a Store, the
// same way the full-screen UI does, and streams replies to out.
type REPL struct {
	client  Streamer
	store   *model.Store
	mode    model.Mode
	exports *export.Options
	out     io.Writer

	// interrupt stops the current reply on SIGINT.
	interrupt bool
}

// NewREPL creates a REPL starting in mode.
func NewREPL(client Streamer, mode model.Mode, exports *export.Options, out io.Writer) *REPL {
	return &REPL{
		client:  client,
		store:   model.NewStore(),
		mode:    mode,
		exports: exports,
		out:     out,
	}
}

// Mode returns the current mode.
func (r *REPL) Mode() model.Mode {
	return r.mode
}

// Store returns the REPL's conversations.
func (r *REPL) Store() *model.Store {
	return r.store
}

// Handle processes one input line and reports whether the REPL should exit.
func (r *REPL) Handle(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	switch {
	case line == "":
		return false
	case strings.HasPrefix(line, "/"):
		return r.command(line)
	}
	r.send(ctx, line)
	return false
}

func (r *REPL) send(ctx context.Context, text string) {
	sess, err := r.store.StartTurn(r.mode, text)
	if err != nil {
		fmt.Fprintln(r.out, ErrorStyle.Render(err.Error()))
		return
	}

	if r.interrupt {
		var stop context.CancelFunc
		ctx, stop = signal.NotifyContext(ctx, os.Interrupt)
		defer stop()
	}
	ctx, cancel := context.WithCancel(ctx)
	sess.SetCancel(cancel)

	_, err = r.client.Send(ctx, r.mode, text, func(fragment string) {
		if r.store.OnChunk(r.mode, sess.TargetID, fragment) {
			fmt.Fprint(r.out, fragment)
		}
	})

	switch {
	case err == nil:
		r.store.Finish(r.mode, sess.TargetID)
		fmt.Fprintln(r.out)
	case errors.Is(err, context.Canceled):
		r.store.Cancel(r.mode)
		fmt.Fprintln(r.out, DimStyle.Render(" "+model.StoppedMarker))
	default:
		if detail, ok := agent.ServerDetail(err); ok {
			r.store.OnError(r.mode, sess.TargetID, detail)
		} else {
			r.store.OnFailure(r.mode, sess.TargetID)
		}
		fmt.Fprintln(r.out)
		if last, ok := r.store.Conversation(r.mode).Last(); ok {
			fmt.Fprintln(r.out, ErrorStyle.Render(last.Content))
		}
	}
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

func (r *REPL) command(line string) bool {
	fields := strings.Fields(line)
	name, args := strings.ToLower(fields[0]), fields[1:]

	switch name {
	case "/exit", "/quit", "/q":
		return true

	case "/help", "/?":
		r.printHelp()

	case "/mode":
		next := r.mode.Other()
		if len(args) > 0 {
			m, err := model.ParseMode(args[0])
			if err != nil {
				fmt.Fprintln(r.out, ErrorStyle.Render(err.Error()))
				return false
			}
			next = m
		}
		r.mode = next
		fmt.Fprintf(r.out, "%s %s\n", SuccessStyle.Render("Mode:"),
			fmt.Sprintf("%s (%d messages)", r.mode.Label(), r.store.Conversation(r.mode).Len()))

	case "/clear":
		if err := r.store.Clear(r.mode); err != nil {
			fmt.Fprintln(r.out, ErrorStyle.Render(err.Error()))
			return false
		}
		fmt.Fprintln(r.out, DimStyle.Render(r.mode.Label()+" conversation cleared"))

	case "/history":
		r.printHistory()

	case "/save":
		format := "markdown"
		if len(args) > 0 {
			format = strings.ToLower(args[0])
		}
		path, err := export.ExportTranscript(r.mode, r.store.Messages(r.mode), format, r.exports)
		if err != nil {
			fmt.Fprintln(r.out, ErrorStyle.Render(err.Error()))
			return false
		}
		fmt.Fprintf(r.out, "%s %s\n", SuccessStyle.Render("Saved"), path)

	default:
		fmt.Fprintf(r.out, "%s %s\n", ErrorStyle.Render("Unknown command:"), name)
	}
	return false
}

func (r *REPL) printHelp() {
	for _, h := range [][2]string{
		{"/mode [name]", "switch between search and generate"},
		{"/clear", "clear the current conversation"},
		{"/history", "list the current conversation"},
		{"/save [format]", "save as markdown, html or json"},
		{"/exit", "leave"},
	} {
		fmt.Fprintln(r.out, field(h[0], h[1]))
	}
}

// historyLabelWidth fits the longest role label, "Code Generate:".
const historyLabelWidth = 14

func (r *REPL) printHistory() {
	if r.store.Conversation(r.mode).IsEmpty() {
		fmt.Fprintln(r.out, DimStyle.Render("No messages yet"))
		return
	}
	msgs := r.store.Messages(r.mode)
	for _, msg := range msgs {
		who := msg.Role.DisplayName()
		if msg.IsAssistant() {
			who = r.mode.Label()
		}
		fmt.Fprintf(r.out, "%s %s %s\n", DimStyle.Render(msg.Clock()), util.PadRight(who+":", historyLabelWidth), util.TruncateWidth(util.FirstLine(msg.Content), 60))
	}
}
