// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/jeranaias/codechat-tui/internal/agent"
	"github.com/jeranaias/codechat-tui/internal/export"
	"github.com/jeranaias/codechat-tui/internal/markdown"
	"github.com/jeranaias/codechat-tui/internal/model"
	"github.com/jeranaias/codechat-tui/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete codechat configuration.
type Config struct {
	// Agent holds the remote inference endpoint settings.
	Agent AgentConfig `toml:"agent" json:"agent"`

	// UI holds terminal presentation settings.
	UI UIConfig `toml:"ui" json:"ui"`

	// Export holds code and transcript export settings.
	Export ExportConfig `toml:"export" json:"export"`
}

// AgentConfig contains the inference service settings.
type AgentConfig struct {
	// Endpoint is the streaming inference URL.
	Endpoint string `toml:"endpoint" json:"endpoint"`
	// APIKey is sent as x-api-key. Prefer CODECHAT_API_KEY over storing it.
	APIKey string `toml:"api_key" json:"api_key,omitempty"`
	UserID string `toml:"user_id" json:"user_id"`
	// SessionID defaults to the agent id of the active mode when empty.
	SessionID     string `toml:"session_id" json:"session_id,omitempty"`
	SearchAgent   string `toml:"search_agent" json:"search_agent"`
	GenerateAgent string `toml:"generate_agent" json:"generate_agent"`
	// ConnectTimeoutSecs bounds dialing and the TLS handshake.
	ConnectTimeoutSecs int `toml:"connect_timeout_secs" json:"connect_timeout_secs"`
	// HeaderTimeoutSecs bounds the wait for response headers.
	HeaderTimeoutSecs int `toml:"header_timeout_secs" json:"header_timeout_secs"`
}

// UIConfig contains UI configuration.
type UIConfig struct {
	// Theme is the UI theme: "dark", "light", "auto"
	Theme string `toml:"theme" json:"theme"`
	// DefaultMode is the mode selected at startup: "search" or "generate"
	DefaultMode string `toml:"default_mode" json:"default_mode"`
	// FallbackLanguage tags code fences that name no language.
	FallbackLanguage string `toml:"fallback_language" json:"fallback_language"`
	// CodeStyle is the chroma style for code blocks.
	CodeStyle string `toml:"code_style" json:"code_style"`
	// LineNumbers prefixes code block lines with their number.
	LineNumbers bool `toml:"line_numbers" json:"line_numbers"`
	// ShowTimestamps shows HH:MM next to each message.
	ShowTimestamps bool `toml:"show_timestamps" json:"show_timestamps"`
	// FrameRate caps how often streamed text is redrawn per second.
	FrameRate int `toml:"frame_rate" json:"frame_rate"`
}

// ExportConfig contains export settings.
type ExportConfig struct {
	// Dir is where exported files are written. "~" expands to the home dir.
	Dir string `toml:"dir" json:"dir"`
	// Theme is the HTML export theme: "light" or "dark"
	Theme string `toml:"theme" json:"theme"`
	// LinesPerPage is the number of code lines per printed page.
	LinesPerPage      int  `toml:"lines_per_page" json:"lines_per_page"`
	OpenAfterExport   bool `toml:"open_after_export" json:"open_after_export"`
	IncludeTimestamps bool `toml:"include_timestamps" json:"include_timestamps"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Agent: AgentConfig{
			Endpoint:           agent.DefaultEndpoint,
			UserID:             agent.DefaultUserID,
			SearchAgent:        agent.DefaultSearchAgent,
			GenerateAgent:      agent.DefaultGenerateAgent,
			ConnectTimeoutSecs: 10,
			HeaderTimeoutSecs:  60,
		},

		UI: UIConfig{
			Theme:            "dark",
			DefaultMode:      string(model.ModeSearch),
			FallbackLanguage: markdown.DefaultLanguage,
			CodeStyle:        markdown.DefaultCodeStyle,
			LineNumbers:      true,
			ShowTimestamps:   true,
			FrameRate:        30,
		},

		Export: ExportConfig{
			Dir:               ".",
			Theme:             "light",
			LinesPerPage:      50,
			OpenAfterExport:   false,
			IncludeTimestamps: true,
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the codechat configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".codechat"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// ensureSecurePermissions tightens a config file that may hold an API key.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if mode := info.Mode().Perm(); mode&0077 != 0 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load reads the configuration.
//
// With an explicit path that file must exist. Otherwise ~/.codechat/config.toml
// is tried, then config.json, then built-in defaults. In every case .env
// files are read first and CODECHAT_* variables are applied last.
func Load(path string) (*Config, error) {
	LoadDotEnv()

	cfg := Default()

	if path != "" {
		if err := loadFile(cfg, path); err != nil {
			return nil, err
		}
		return finish(cfg)
	}

	var loadErr error
	for _, candidate := range []func() (string, error){ConfigPathTOML, ConfigPathJSON} {
		p, err := candidate()
		if err != nil {
			continue
		}
		if _, statErr := os.Stat(p); statErr != nil {
			continue
		}
		if err := loadFile(cfg, p); err != nil {
			loadErr = err
			cfg = Default()
			continue
		}
		return finish(cfg)
	}

	cfg, err := finish(cfg)
	if err != nil {
		return nil, err
	}
	// Defaults are usable; the load error is informational.
	return cfg, loadErr
}

func finish(cfg *Config) (*Config, error) {
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func loadFile(cfg *Config, path string) error {
	if strings.HasSuffix(path, ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
		return nil
	}
	if err := LoadTOML(cfg, path); err != nil {
		return fmt.Errorf("failed to load TOML config from %s: %w", path, err)
	}
	return nil
}

// LoadDotEnv reads .env from the working directory and the config
// directory. Variables already set in the environment win; missing files
// are ignored.
func LoadDotEnv() {
	files := []string{".env"}
	if dir, err := ConfigDir(); err == nil {
		files = append(files, filepath.Join(dir, ".env"))
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "Warning: could not read %s: %v\n", f, err)
		}
	}
}

// LoadTOML loads configuration from a TOML file over cfg.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return err
		}
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		fmt.Fprintf(os.Stderr, "Warning: unknown config keys in %s: %s\n", path, strings.Join(keys, ", "))
	}
	return nil
}

// LoadJSON loads configuration from a JSON file over cfg.
func LoadJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes cfg to path with owner-only permissions.
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	fmt.Fprintln(&buf, "# codechat configuration file")
	fmt.Fprintln(&buf, "# API keys are better kept in CODECHAT_API_KEY or ~/.codechat/.env")
	fmt.Fprintln(&buf, "")

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := util.AtomicWriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors
	add := func(field, format string, args ...interface{}) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	// Agent
	if u, err := url.Parse(c.Agent.Endpoint); err != nil {
		add("agent.endpoint", "invalid URL: %v", err)
	} else if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		add("agent.endpoint", "must be an http or https URL, got '%s'", c.Agent.Endpoint)
	}
	if strings.TrimSpace(c.Agent.SearchAgent) == "" {
		add("agent.search_agent", "cannot be empty")
	}
	if strings.TrimSpace(c.Agent.GenerateAgent) == "" {
		add("agent.generate_agent", "cannot be empty")
	}
	if c.Agent.ConnectTimeoutSecs < 0 || c.Agent.ConnectTimeoutSecs > 300 {
		add("agent.connect_timeout_secs", "must be between 0 and 300, got %d", c.Agent.ConnectTimeoutSecs)
	}
	if c.Agent.HeaderTimeoutSecs < 0 || c.Agent.HeaderTimeoutSecs > 3600 {
		add("agent.header_timeout_secs", "must be between 0 and 3600, got %d", c.Agent.HeaderTimeoutSecs)
	}

	// UI
	switch strings.ToLower(c.UI.Theme) {
	case "dark", "light", "auto":
	default:
		add("ui.theme", "invalid theme '%s', must be one of: dark, light, auto", c.UI.Theme)
	}
	if _, err := model.ParseMode(c.UI.DefaultMode); err != nil {
		add("ui.default_mode", "invalid mode '%s', must be one of: search, generate", c.UI.DefaultMode)
	}
	if c.UI.FrameRate < 1 || c.UI.FrameRate > 120 {
		add("ui.frame_rate", "must be between 1 and 120, got %d", c.UI.FrameRate)
	}

	// Export
	switch strings.ToLower(c.Export.Theme) {
	case "light", "dark":
	default:
		add("export.theme", "invalid theme '%s', must be one of: light, dark", c.Export.Theme)
	}
	if c.Export.LinesPerPage < 1 {
		add("export.lines_per_page", "must be at least 1, got %d", c.Export.LinesPerPage)
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SetDefaults fills empty fields that have no meaningful zero value.
func (c *Config) SetDefaults() {
	d := Default()

	if c.Agent.Endpoint == "" {
		c.Agent.Endpoint = d.Agent.Endpoint
	}
	if c.Agent.UserID == "" {
		c.Agent.UserID = d.Agent.UserID
	}
	if c.Agent.SearchAgent == "" {
		c.Agent.SearchAgent = d.Agent.SearchAgent
	}
	if c.Agent.GenerateAgent == "" {
		c.Agent.GenerateAgent = d.Agent.GenerateAgent
	}

	if c.UI.Theme == "" {
		c.UI.Theme = d.UI.Theme
	}
	if c.UI.DefaultMode == "" {
		c.UI.DefaultMode = d.UI.DefaultMode
	}
	if c.UI.FallbackLanguage == "" {
		c.UI.FallbackLanguage = d.UI.FallbackLanguage
	}
	if c.UI.CodeStyle == "" {
		c.UI.CodeStyle = d.UI.CodeStyle
	}
	if c.UI.FrameRate == 0 {
		c.UI.FrameRate = d.UI.FrameRate
	}

	if c.Export.Dir == "" {
		c.Export.Dir = d.Export.Dir
	}
	if c.Export.Theme == "" {
		c.Export.Theme = d.Export.Theme
	}
	if c.Export.LinesPerPage == 0 {
		c.Export.LinesPerPage = d.Export.LinesPerPage
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - CODECHAT_API_KEY: agent.api_key
//   - CODECHAT_ENDPOINT: agent.endpoint
//   - CODECHAT_USER_ID: agent.user_id
//   - CODECHAT_SESSION_ID: agent.session_id
//   - CODECHAT_SEARCH_AGENT: agent.search_agent
//   - CODECHAT_GENERATE_AGENT: agent.generate_agent
//   - CODECHAT_MODE: ui.default_mode
//   - CODECHAT_THEME: ui.theme
//   - CODECHAT_LANGUAGE: ui.fallback_language
//   - CODECHAT_FRAME_RATE: ui.frame_rate
//   - CODECHAT_EXPORT_DIR: export.dir
func (c *Config) ApplyEnvOverrides() {
	strs := map[string]*string{
		"CODECHAT_API_KEY":        &c.Agent.APIKey,
		"CODECHAT_ENDPOINT":       &c.Agent.Endpoint,
		"CODECHAT_USER_ID":        &c.Agent.UserID,
		"CODECHAT_SESSION_ID":     &c.Agent.SessionID,
		"CODECHAT_SEARCH_AGENT":   &c.Agent.SearchAgent,
		"CODECHAT_GENERATE_AGENT": &c.Agent.GenerateAgent,
		"CODECHAT_MODE":           &c.UI.DefaultMode,
		"CODECHAT_THEME":          &c.UI.Theme,
		"CODECHAT_LANGUAGE":       &c.UI.FallbackLanguage,
		"CODECHAT_EXPORT_DIR":     &c.Export.Dir,
	}
	for env, field := range strs {
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			*field = v
		}
	}

	if v := os.Getenv("CODECHAT_FRAME_RATE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.UI.FrameRate = n
		}
	}
}

// =============================================================================
// DERIVED SETTINGS
// =============================================================================

// Mode returns the configured startup mode.
func (c *Config) Mode() model.Mode {
	mode, err := model.ParseMode(c.UI.DefaultMode)
	if err != nil {
		return model.ModeSearch
	}
	return mode
}

// AgentConfig converts the agent section to a client configuration.
func (c *Config) AgentConfig() agent.Config {
	return agent.Config{
		Endpoint:       c.Agent.Endpoint,
		APIKey:         c.Agent.APIKey,
		UserID:         c.Agent.UserID,
		SessionID:      c.Agent.SessionID,
		SearchAgent:    c.Agent.SearchAgent,
		GenerateAgent:  c.Agent.GenerateAgent,
		ConnectTimeout: time.Duration(c.Agent.ConnectTimeoutSecs) * time.Second,
		HeaderTimeout:  time.Duration(c.Agent.HeaderTimeoutSecs) * time.Second,
	}
}

// ExportOptions converts the export section to exporter options.
func (c *Config) ExportOptions() *export.Options {
	return &export.Options{
		OutputDir:         expandHome(c.Export.Dir),
		OpenAfterExport:   c.Export.OpenAfterExport,
		IncludeTimestamps: c.Export.IncludeTimestamps,
		Theme:             strings.ToLower(c.Export.Theme),
		LinesPerPage:      c.Export.LinesPerPage,
	}
}

// FrameInterval is the minimum time between stream redraws.
func (c *Config) FrameInterval() time.Duration {
	if c.UI.FrameRate <= 0 {
		return time.Second / 30
	}
	return time.Second / time.Duration(c.UI.FrameRate)
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// Clone returns a copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// String returns the config as TOML with the API key redacted.
func (c *Config) String() string {
	safe := c.Clone()
	if safe.Agent.APIKey != "" {
		safe.Agent.APIKey = "[REDACTED]"
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(safe); err != nil {
		return fmt.Sprintf("config: %v", err)
	}
	return buf.String()
}
