// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/jeranaias/codechat-tui/internal/agent"
	"github.com/jeranaias/codechat-tui/internal/export"
	"github.com/jeranaias/codechat-tui/internal/mockagent"
	"github.com/jeranaias/codechat-tui/internal/model"
	"github.com/jeranaias/codechat-tui/internal/ui/styles"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

// isolate points the config directory at a temp home and clears
// CODECHAT_* variables for the test.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	t.Setenv("NO_COLOR", "1")
	for _, kv := range os.Environ() {
		name, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(name, "CODECHAT_") {
			t.Setenv(name, "")
			os.Unsetenv(name)
		}
	}
	return home
}

// run executes the app and returns stdout. Exit codes are returned as
// errors instead of exiting.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	app := NewApp()
	app.Writer = &out
	app.ErrWriter = &errOut
	app.ExitErrHandler = func(*cli.Context, error) {}
	err := app.Run(append([]string{"codechat"}, args...))
	return out.String(), err
}

func exitCode(err error) int {
	var ec cli.ExitCoder
	if errors.As(err, &ec) {
		return ec.ExitCode()
	}
	return -1
}

func mockEndpoint(t *testing.T, opts mockagent.Options) string {
	t.Helper()
	srv := httptest.NewServer(mockagent.New(opts).Handler())
	t.Cleanup(srv.Close)
	return srv.URL + mockagent.DefaultPath
}

// =============================================================================
// COMMAND TESTS
// =============================================================================

func TestVersionCommand(t *testing.T) {
	isolate(t)
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "codechat "+Version))
}

func TestConfigInitPathShow(t *testing.T) {
	home := isolate(t)
	want := filepath.Join(home, ".codechat", "config.toml")

	out, err := run(t, "config", "path")
	require.NoError(t, err)
	assert.Contains(t, out, want)
	assert.Contains(t, out, "(missing)")

	out, err = run(t, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, want)
	assert.FileExists(t, want)

	_, err = run(t, "config", "init")
	assert.Equal(t, 1, exitCode(err), "init should refuse to overwrite")

	_, err = run(t, "config", "init", "--force")
	require.NoError(t, err)

	out, err = run(t, "--api-key", "sk-secret", "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, agent.DefaultEndpoint)
	assert.NotContains(t, out, "sk-secret")
	assert.Contains(t, out, "[REDACTED]")
}

func TestConfigCheck(t *testing.T) {
	isolate(t)
	endpoint := mockEndpoint(t, mockagent.Options{})

	out, err := run(t, "--endpoint", endpoint, "config", "check")
	require.NoError(t, err)
	assert.Contains(t, out, endpoint)
	assert.Contains(t, out, styles.StatusIndicators.Success+" configuration valid, endpoint reachable")
	assert.Contains(t, out, styles.StatusIndicators.Warning+" no API key set")

	out, err = run(t, "--api-key", "k", "config", "check", "--offline")
	require.NoError(t, err)
	assert.Contains(t, out, styles.StatusIndicators.Info+" endpoint ping skipped")
	assert.Contains(t, out, styles.StatusIndicators.Success+" configuration valid")
	assert.NotContains(t, out, styles.StatusIndicators.Warning)
}

func TestConfigCheckReportsInvalidEndpoint(t *testing.T) {
	isolate(t)
	out, err := run(t, "--endpoint", "ftp://example.com", "config", "check", "--offline")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "endpoint")
	assert.Contains(t, out, styles.StatusIndicators.Error+" agent.endpoint")
}

func TestAskStreamsReply(t *testing.T) {
	isolate(t)
	var seen mockagent.Request
	endpoint := mockEndpoint(t, mockagent.Options{Reply: func(req mockagent.Request) string {
		seen = req
		return "It lives in cmd/main.go"
	}})

	out, err := run(t, "--endpoint", endpoint, "ask", "--mode", "generate", "where", "is", "main?")
	require.NoError(t, err)
	assert.Equal(t, "It lives in cmd/main.go\n", out)
	assert.Equal(t, "where is main?", seen.Message)
	assert.Equal(t, agent.DefaultGenerateAgent, seen.AgentID)
	assert.True(t, seen.Stream)
}

func TestAskServerError(t *testing.T) {
	isolate(t)
	endpoint := mockEndpoint(t, mockagent.Options{APIKey: "right"})

	_, err := run(t, "--endpoint", endpoint, "--api-key", "wrong", "ask", "hi")
	require.Error(t, err)
	assert.Equal(t, 1, exitCode(err))
	assert.Equal(t, `Error: "Invalid API key"`, err.Error())
}

func TestAskConnectivityFailure(t *testing.T) {
	isolate(t)
	srv := httptest.NewServer(nil)
	endpoint := srv.URL + "/"
	srv.Close()

	_, err := run(t, "--endpoint", endpoint, "ask", "hi")
	require.Error(t, err)
	assert.Equal(t, model.ConnectivityFailure, err.Error())
}

func TestAskUsageErrors(t *testing.T) {
	isolate(t)

	_, err := run(t, "ask")
	assert.Equal(t, 2, exitCode(err))

	_, err = run(t, "ask", "--mode", "refactor", "hi")
	assert.Equal(t, 2, exitCode(err))
}

// =============================================================================
// REPL TESTS
// =============================================================================

type fakeStreamer struct {
	reply string
	err   error
	modes []model.Mode
}

func (f *fakeStreamer) Send(ctx context.Context, mode model.Mode, message string, onChunk agent.ChunkFunc) (string, error) {
	f.modes = append(f.modes, mode)
	for _, part := range mockagent.Split(f.reply) {
		onChunk(part)
	}
	return f.reply, f.err
}

func TestREPLConversation(t *testing.T) {
	isolate(t)
	var out bytes.Buffer
	fake := &fakeStreamer{reply: "Found it in router.go"}
	exports := export.DefaultOptions()
	exports.OutputDir = t.TempDir()
	repl := NewREPL(fake, model.ModeSearch, exports, &out)
	ctx := context.Background()

	assert.False(t, repl.Handle(ctx, "where is the router?"))
	assert.Contains(t, out.String(), "Found it in router.go")

	msgs := repl.Store().Messages(model.ModeSearch)
	require.Len(t, msgs, 2)
	assert.Equal(t, "Found it in router.go", msgs[1].Content)
	assert.False(t, repl.Store().Loading(model.ModeSearch))

	assert.False(t, repl.Handle(ctx, "/mode"))
	assert.Equal(t, model.ModeGenerate, repl.Mode())
	assert.False(t, repl.Handle(ctx, "write a test"))
	assert.Equal(t, []model.Mode{model.ModeSearch, model.ModeGenerate}, fake.modes)

	assert.False(t, repl.Handle(ctx, "/mode search"))
	out.Reset()
	assert.False(t, repl.Handle(ctx, "/save"))
	assert.Contains(t, out.String(), "Saved")
	entries, err := os.ReadDir(exports.OutputDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasPrefix(entries[0].Name(), "conversation_search_"))

	out.Reset()
	assert.False(t, repl.Handle(ctx, "/history"))
	assert.Contains(t, out.String(), "You:"+strings.Repeat(" ", 11)+"where is the router?")

	assert.False(t, repl.Handle(ctx, "/clear"))
	assert.Empty(t, repl.Store().Messages(model.ModeSearch))
	assert.Len(t, repl.Store().Messages(model.ModeGenerate), 2)

	out.Reset()
	assert.False(t, repl.Handle(ctx, "/history"))
	assert.Contains(t, out.String(), "No messages yet")

	assert.True(t, repl.Handle(ctx, "/exit"))
}

func TestREPLSendsBareExitWords(t *testing.T) {
	var out bytes.Buffer
	fake := &fakeStreamer{reply: "ok"}
	repl := NewREPL(fake, model.ModeGenerate, nil, &out)
	ctx := context.Background()

	for _, word := range []string{"exit", "quit"} {
		assert.False(t, repl.Handle(ctx, word), word)
	}
	msgs := repl.Store().Messages(model.ModeGenerate)
	require.Len(t, msgs, 4)
	assert.Equal(t, "exit", msgs[0].Content)
	assert.Equal(t, "quit", msgs[2].Content)
	assert.Len(t, fake.modes, 2)

	assert.True(t, repl.Handle(ctx, "/quit"))
}

func TestREPLFailures(t *testing.T) {
	var out bytes.Buffer
	fake := &fakeStreamer{err: &agent.ClientError{Type: agent.ErrTypeServer, Detail: `"bad request"`}}
	repl := NewREPL(fake, model.ModeSearch, nil, &out)

	repl.Handle(context.Background(), "hi")
	last, ok := repl.Store().Conversation(model.ModeSearch).Last()
	require.True(t, ok)
	assert.Equal(t, `Error: "bad request"`, last.Content)
	assert.Contains(t, out.String(), `Error: "bad request"`)

	fake.err = &agent.ClientError{Type: agent.ErrTypeConnectivity, Cause: errors.New("refused")}
	repl.Handle(context.Background(), "again")
	last, _ = repl.Store().Conversation(model.ModeSearch).Last()
	assert.Equal(t, model.ConnectivityFailure, last.Content)

	fake.err = context.Canceled
	fake.reply = "part"
	repl.Handle(context.Background(), "third")
	last, _ = repl.Store().Conversation(model.ModeSearch).Last()
	assert.Equal(t, "part", last.Content)
	assert.False(t, repl.Store().Loading(model.ModeSearch))

	out.Reset()
	assert.False(t, repl.Handle(context.Background(), "/bogus"))
	assert.Contains(t, out.String(), "Unknown command")
}

// =============================================================================
// RENDERING TESTS
// =============================================================================

func TestScreenRows(t *testing.T) {
	tests := []struct {
		text  string
		width int
		want  int
	}{
		{"", 80, 1},
		{"hello", 80, 1},
		{"hello\n", 80, 2},
		{"a\nb\nc", 80, 3},
		{strings.Repeat("x", 100), 80, 2},
		{strings.Repeat("x", 80), 80, 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, screenRows(tt.text, tt.width), "%q", tt.text)
	}
}

func TestRenderMarkdown(t *testing.T) {
	out, err := renderMarkdown("# Title\n\n```go\nfmt.Println(1)\n```", "light", 60)
	require.NoError(t, err)
	assert.Contains(t, out, "Title")
	assert.Contains(t, out, "Println")
}
