// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v2"

	"github.com/jeranaias/codechat-tui/internal/agent"
	"github.com/jeranaias/codechat-tui/internal/config"
	"github.com/jeranaias/codechat-tui/internal/ui/chat"
)

func tuiCommand() *cli.Command {
	return &cli.Command{
		Name:   "tui",
		Usage:  "start the full-screen chat (default)",
		Action: runTUI,
	}
}

// runTUI starts the full-screen chat and watches the config file for
// changes while it runs.
func runTUI(c *cli.Context) error {
	if c.Args().Present() {
		return cli.Exit(fmt.Sprintf("unknown command %q (see codechat --help)", c.Args().First()), 2)
	}
	if !IsTTY() {
		return cli.Exit("the chat UI needs a terminal; use 'codechat ask' for scripts", 2)
	}

	if c.Bool("debug") {
		f, err := tea.LogToFile(c.String("log-file"), "codechat")
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	client := agent.New(cfg.AgentConfig())
	relay := chat.NewRelay()
	m := chat.New(chat.Options{
		Agent:    client,
		Sender:   relay,
		Config:   cfg,
		Endpoint: cfg.Agent.Endpoint,
	})

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	relay.Attach(p)

	if w := watchConfig(c, relay); w != nil {
		defer w.Close()
	}

	log.Printf("TUI START | endpoint=%s mode=%s", cfg.Agent.Endpoint, cfg.Mode())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("chat UI: %w", err)
	}
	return nil
}

// watchConfig reloads the active config file into the UI. It returns nil
// when there is no file to watch.
func watchConfig(c *cli.Context, sender chat.Sender) *config.Watcher {
	path := c.String("config")
	if path == "" {
		p, err := config.ConfigPathTOML()
		if err != nil {
			return nil
		}
		if _, err := os.Stat(p); err != nil {
			return nil
		}
		path = p
	}

	w, err := config.Watch(path, config.DefaultDebounce, func(cfg *config.Config, err error) {
		sender.Send(chat.ConfigReloadedMsg{Config: cfg, Err: err})
	})
	if err != nil {
		log.Printf("CONFIG WATCH | path=%s err=%v", path, err)
		return nil
	}
	return w
}
