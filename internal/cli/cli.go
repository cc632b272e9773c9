// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"log"
	"runtime"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/urfave/cli/v2"

	"github.com/jeranaias/codechat-tui/internal/config"
	"github.com/jeranaias/codechat-tui/internal/model"
)

// Version is set at build time with -ldflags "-X ...cli.Version=...".
var Version = "dev"

// DefaultLogFile receives TUI logs when --debug is set.
const DefaultLogFile = "codechat-debug.log"

// =============================================================================
// APP
// =============================================================================

// NewApp builds the command line application. Without a subcommand the
// full-screen chat starts.
func NewApp() *cli.App {
	return &cli.App{
		Name:                 "codechat",
		Usage:                "search and generate code with a remote agent from the terminal",
		Version:              Version,
		HideVersion:          true,
		EnableBashCompletion: true,
		Flags:                globalFlags(),
		Before:               before,
		Action:               runTUI,
		Commands: []*cli.Command{
			tuiCommand(),
			askCommand(),
			chatCommand(),
			configCommand(),
			mockServerCommand(),
			versionCommand(),
		},
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "config file (default ~/.codechat/config.toml)",
			EnvVars: []string{"CODECHAT_CONFIG"},
		},
		&cli.StringFlag{
			Name:  "endpoint",
			Usage: "agent inference endpoint",
		},
		&cli.StringFlag{
			Name:  "api-key",
			Usage: "agent API key (prefer CODECHAT_API_KEY)",
		},
		&cli.BoolFlag{
			Name:  "debug",
			Usage: "write logs (stderr, or --log-file in the TUI)",
		},
		&cli.StringFlag{
			Name:  "log-file",
			Value: DefaultLogFile,
			Usage: "log file for the TUI with --debug",
		},
	}
}

func modeFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "mode",
		Aliases: []string{"m"},
		Usage:   "search or generate (default from config)",
	}
}

// before sets up logging and colours for every command.
func before(c *cli.Context) error {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	if c.Bool("debug") {
		log.SetOutput(c.App.ErrWriter)
	} else {
		log.SetOutput(io.Discard)
	}
	lipgloss.SetColorProfile(colorProfile(c.App.Writer))
	return nil
}

// =============================================================================
// SHARED HELPERS
// =============================================================================

// loadConfig loads the config and applies command line overrides.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if cfg == nil {
		return nil, err
	}
	if err != nil {
		// Defaults were used.
		log.Printf("CONFIG | falling back to defaults: %v", err)
	}

	if v := c.String("endpoint"); v != "" {
		cfg.Agent.Endpoint = v
	}
	if v := c.String("api-key"); v != "" {
		cfg.Agent.APIKey = v
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// modeFrom returns the --mode flag, or the configured default.
func modeFrom(c *cli.Context, cfg *config.Config) (model.Mode, error) {
	if v := strings.TrimSpace(c.String("mode")); v != "" {
		return model.ParseMode(v)
	}
	return cfg.Mode(), nil
}

// =============================================================================
// VERSION
// =============================================================================

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "print version information",
		Action: func(c *cli.Context) error {
			fmt.Fprintf(c.App.Writer, "codechat %s (%s %s/%s)\n",
				Version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
			return nil
		},
	}
}
