// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jeranaias/codechat-tui/internal/agent"
	"github.com/jeranaias/codechat-tui/internal/model"
)

// isolate points the home directory at a temp dir and clears CODECHAT_*
// variables so the developer's own settings do not leak into tests.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, "CODECHAT_") {
			key := strings.SplitN(kv, "=", 2)[0]
			t.Setenv(key, "")
			os.Unsetenv(key)
		}
	}
	return home
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Agent.Endpoint != agent.DefaultEndpoint {
		t.Errorf("endpoint = %s", cfg.Agent.Endpoint)
	}
	if cfg.Mode() != model.ModeSearch {
		t.Errorf("default mode = %s", cfg.Mode())
	}
}

func TestLoad_NoFilesGivesDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.UI.FallbackLanguage != "typescript" || cfg.UI.FrameRate != 30 {
		t.Errorf("unexpected defaults: %+v", cfg.UI)
	}
}

func TestLoad_DefaultTOMLLocation(t *testing.T) {
	home := isolate(t)
	writeFile(t, filepath.Join(home, ".codechat", "config.toml"), `
[ui]
theme = "light"
default_mode = "generate"

[export]
lines_per_page = 80
`)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.UI.Theme != "light" || cfg.Mode() != model.ModeGenerate {
		t.Errorf("file values not applied: %+v", cfg.UI)
	}
	if cfg.Export.LinesPerPage != 80 {
		t.Errorf("lines_per_page = %d", cfg.Export.LinesPerPage)
	}
	// Unset keys keep their defaults.
	if cfg.Agent.SearchAgent != agent.DefaultSearchAgent {
		t.Errorf("search agent = %s", cfg.Agent.SearchAgent)
	}
}

func TestLoad_ExplicitJSON(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "codechat.json")
	writeFile(t, path, `{"agent": {"endpoint": "http://127.0.0.1:8089/v3/inference/stream/", "user_id": "dev"}}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Agent.Endpoint != "http://127.0.0.1:8089/v3/inference/stream/" || cfg.Agent.UserID != "dev" {
		t.Errorf("unexpected agent config: %+v", cfg.Agent)
	}
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	isolate(t)
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Fatal("expected error for missing explicit config")
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	writeFile(t, path, "[ui]\ntheme = \"light\"\n")

	t.Setenv("CODECHAT_THEME", "auto")
	t.Setenv("CODECHAT_API_KEY", "sk-test")
	t.Setenv("CODECHAT_FRAME_RATE", "60")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.UI.Theme != "auto" {
		t.Errorf("theme = %s, want auto", cfg.UI.Theme)
	}
	if cfg.Agent.APIKey != "sk-test" {
		t.Errorf("api key not applied")
	}
	if cfg.FrameInterval() != time.Second/60 {
		t.Errorf("frame interval = %s", cfg.FrameInterval())
	}
}

func TestLoad_DotEnvInConfigDir(t *testing.T) {
	home := isolate(t)
	writeFile(t, filepath.Join(home, ".codechat", ".env"), "CODECHAT_API_KEY=from-dotenv\n")
	t.Cleanup(func() { os.Unsetenv("CODECHAT_API_KEY") })

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Agent.APIKey != "from-dotenv" {
		t.Errorf("api key = %q, want from-dotenv", cfg.Agent.APIKey)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	writeFile(t, path, `
[agent]
endpoint = "ftp://example.com"

[ui]
theme = "neon"
default_mode = "translate"
frame_rate = 500
`)

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected validation error")
	}

	var verrs ValidateErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected ValidateErrors, got %T: %v", err, err)
	}
	fields := map[string]bool{}
	for _, e := range verrs {
		fields[e.Field] = true
	}
	for _, want := range []string{"agent.endpoint", "ui.theme", "ui.default_mode", "ui.frame_rate"} {
		if !fields[want] {
			t.Errorf("missing validation error for %s (got %v)", want, verrs)
		}
	}
}

func TestSaveTOML_RoundTrip(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "sub", "config.toml")

	cfg := Default()
	cfg.UI.CodeStyle = "dracula"
	cfg.Export.Dir = "~/exports"
	if err := SaveTOML(cfg, path); err != nil {
		t.Fatalf("SaveTOML failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0600 && os.PathSeparator == '/' {
		t.Errorf("permissions = %o, want 600", perm)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.UI.CodeStyle != "dracula" || loaded.Export.Dir != "~/exports" {
		t.Errorf("round trip lost values: %+v %+v", loaded.UI, loaded.Export)
	}
}

func TestConfig_StringRedactsKey(t *testing.T) {
	cfg := Default()
	cfg.Agent.APIKey = "sk-secret"

	s := cfg.String()
	if strings.Contains(s, "sk-secret") {
		t.Error("API key leaked into String()")
	}
	if !strings.Contains(s, "[REDACTED]") {
		t.Error("expected redaction marker")
	}
	if cfg.Agent.APIKey != "sk-secret" {
		t.Error("String() modified the original")
	}
}

func TestConfig_Derived(t *testing.T) {
	home := isolate(t)
	cfg := Default()
	cfg.Agent.ConnectTimeoutSecs = 3
	cfg.Export.Dir = "~/out"
	cfg.Export.Theme = "Dark"

	ac := cfg.AgentConfig()
	if ac.ConnectTimeout != 3*time.Second || ac.GenerateAgent != agent.DefaultGenerateAgent {
		t.Errorf("unexpected agent config: %+v", ac)
	}

	opts := cfg.ExportOptions()
	if opts.OutputDir != filepath.Join(home, "out") {
		t.Errorf("output dir = %s", opts.OutputDir)
	}
	if opts.Theme != "dark" {
		t.Errorf("theme = %s", opts.Theme)
	}
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	writeFile(t, path, "[ui]\nfallback_language = \"go\"\n")

	changes := make(chan *Config, 4)
	w, err := Watch(path, 20*time.Millisecond, func(cfg *Config, err error) {
		if err == nil {
			changes <- cfg
		}
	})
	if err != nil {
		t.Fatalf("Watch failed: %v", err)
	}
	defer w.Close()

	writeFile(t, path, "[ui]\nfallback_language = \"rust\"\n")

	select {
	case cfg := <-changes:
		if cfg.UI.FallbackLanguage != "rust" {
			t.Errorf("fallback language = %s, want rust", cfg.UI.FallbackLanguage)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no reload after write")
	}
}

func TestWatch_IgnoresSiblingFiles(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	writeFile(t, path, "")

	called := make(chan struct{}, 1)
	w, err := Watch(path, 10*time.Millisecond, func(*Config, error) {
		select {
		case called <- struct{}{}:
		default:
		}
	})
	if err != nil {
		t.Fatalf("Watch failed: %v", err)
	}
	defer w.Close()

	writeFile(t, filepath.Join(dir, "other.txt"), "x")

	select {
	case <-called:
		t.Error("reload triggered by unrelated file")
	case <-time.After(200 * time.Millisecond):
	}
}
