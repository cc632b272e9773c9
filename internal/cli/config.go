// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/jeranaias/codechat-tui/internal/agent"
	"github.com/jeranaias/codechat-tui/internal/config"
	"github.com/jeranaias/codechat-tui/internal/ui/styles"
)

// pingTimeout bounds the reachability check of config check.
const pingTimeout = 5 * time.Second

func configCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "show, locate, create or check the configuration",
		Subcommands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "print the effective configuration (API key redacted)",
				Action: runConfigShow,
			},
			{
				Name:   "path",
				Usage:  "print the config file location",
				Action: runConfigPath,
			},
			{
				Name:  "init",
				Usage: "write a default config file",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "force", Usage: "overwrite an existing file"},
				},
				Action: runConfigInit,
			},
			{
				Name:  "check",
				Usage: "validate the configuration and ping the endpoint",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "offline", Usage: "skip the endpoint ping"},
				},
				Action: runConfigCheck,
			},
		},
	}
}

func runConfigShow(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	fmt.Fprint(c.App.Writer, cfg.String())
	return nil
}

// configPath is the explicit --config file or the default TOML location.
func configPath(c *cli.Context) (string, error) {
	if p := c.String("config"); p != "" {
		return p, nil
	}
	return config.ConfigPathTOML()
}

func runConfigPath(c *cli.Context) error {
	path, err := configPath(c)
	if err != nil {
		return err
	}
	state := "missing"
	if _, err := os.Stat(path); err == nil {
		state = "exists"
	}
	fmt.Fprintf(c.App.Writer, "%s %s\n", path, DimStyle.Render("("+state+")"))
	return nil
}

func runConfigInit(c *cli.Context) error {
	path, err := configPath(c)
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil && !c.Bool("force") {
		return cli.Exit(fmt.Sprintf("%s already exists (use --force to overwrite)", path), 1)
	}
	if err := config.SaveTOML(config.Default(), path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	fmt.Fprintf(c.App.Writer, "%s %s\n", SuccessStyle.Render("Wrote"), path)
	return nil
}

func runConfigCheck(c *cli.Context) error {
	out := c.App.Writer
	cfg, err := loadConfig(c)
	if err != nil {
		var verrs config.ValidateErrors
		if errors.As(err, &verrs) {
			for _, e := range verrs {
				fmt.Fprintln(out, styles.RenderError(e.Error()))
			}
		}
		return cli.Exit("config check failed: "+err.Error(), 1)
	}

	key := "not set"
	if cfg.Agent.APIKey != "" {
		key = "set"
	}
	fmt.Fprintln(out, field("endpoint", cfg.Agent.Endpoint))
	fmt.Fprintln(out, field("api key", key))
	fmt.Fprintln(out, field("search agent", cfg.Agent.SearchAgent))
	fmt.Fprintln(out, field("generate agent", cfg.Agent.GenerateAgent))
	fmt.Fprintln(out, field("mode", cfg.Mode().Label()))
	fmt.Fprintln(out, field("export dir", cfg.ExportOptions().OutputDir))
	if cfg.Agent.APIKey == "" {
		fmt.Fprintln(out, styles.RenderWarning("no API key set; the agent may reject requests"))
	}

	if c.Bool("offline") {
		fmt.Fprintln(out, styles.RenderInfo("endpoint ping skipped"))
		fmt.Fprintln(out, styles.RenderSuccess("configuration valid"))
		return nil
	}

	ctx, cancel := context.WithTimeout(c.Context, pingTimeout)
	defer cancel()
	if err := agent.New(cfg.AgentConfig()).Ping(ctx); err != nil {
		fmt.Fprintln(out, styles.RenderError(fmt.Sprintf("endpoint unreachable: %v", err)))
		return cli.Exit("config check failed", 1)
	}
	fmt.Fprintln(out, styles.RenderSuccess("configuration valid, endpoint reachable"))
	return nil
}
