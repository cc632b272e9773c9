// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/jeranaias/codechat-tui/internal/mockagent"
)

// DefaultMockAddr is where mock-server listens by default.
const DefaultMockAddr = "127.0.0.1:8787"

func mockServerCommand() *cli.Command {
	return &cli.Command{
		Name:  "mock-server",
		Usage: "serve a local stand-in for the inference agents",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Value: DefaultMockAddr,
				Usage: "listen address",
			},
			&cli.DurationFlag{
				Name:  "delay",
				Value: 40 * time.Millisecond,
				Usage: "pause between streamed fragments",
			},
			&cli.StringFlag{
				Name:  "require-key",
				Usage: "reject requests whose x-api-key differs",
			},
		},
		Action: runMockServer,
	}
}

func runMockServer(c *cli.Context) error {
	// The server is a foreground process; always log.
	log.SetOutput(c.App.ErrWriter)

	addr := c.String("addr")
	server := mockagent.New(mockagent.Options{
		APIKey: c.String("require-key"),
		Delay:  c.Duration("delay"),
	})

	fmt.Fprintf(c.App.Writer, "Mock agent on http://%s%s\n", addr, mockagent.DefaultPath)
	fmt.Fprintln(c.App.Writer, DimStyle.Render(fmt.Sprintf("codechat --endpoint http://%s%s", addr, mockagent.DefaultPath)))

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := server.Start(ctx, addr); err != nil {
		return fmt.Errorf("mock server: %w", err)
	}
	return nil
}
