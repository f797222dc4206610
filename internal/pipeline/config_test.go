package pipeline

import (
	"errors"
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv は設定に影響する環境変数を空にする
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"GROQ_API_KEY", "EMAIL_USER", "EMAIL_PASS", "EMAIL_RECEIVER", "LOG_LEVEL"} {
		t.Setenv(key, "")
	}
}

func TestParseFlags_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := ParseFlags(nil)
	require.NoError(t, err)

	assert.Equal(t, SourceFrontPage, cfg.Source.Name)
	assert.Equal(t, "https://news.ycombinator.com/", cfg.Source.TargetURL)
	assert.Equal(t, "https://news.ycombinator.com/", cfg.Source.BaseURL)
	assert.Equal(t, "tr.athing", cfg.Source.ItemSelector)
	assert.Equal(t, DefaultTitleSelectors, cfg.Source.TitleSelectors())
	assert.Equal(t, FetcherBrowser, cfg.Source.Fetcher)
	assert.False(t, cfg.Source.Headless)
	assert.Equal(t, 10*time.Second, cfg.Source.WaitTimeout)
	assert.True(t, cfg.Source.UsesBrowser())

	assert.Equal(t, "llama-3.1-8b-instant", cfg.Translate.Model)
	assert.InDelta(t, 0.3, cfg.Translate.Temperature, 1e-9)
	assert.Equal(t, 100, cfg.Translate.MaxTokens)
	assert.False(t, cfg.Translate.IsEnabled())

	assert.Equal(t, "hacker_news.csv", cfg.Output.CSVFile)
	assert.Empty(t, cfg.Output.JSONFile)
	assert.True(t, cfg.Email.Enabled)
	assert.Equal(t, "info", cfg.Runtime.LogLevel)
	assert.Equal(t, 10, cfg.Runtime.CloseDelay)
}

func TestParseFlags_Overrides(t *testing.T) {
	clearEnv(t)

	cfg, err := ParseFlags([]string{
		"-fetcher", "http",
		"-headless",
		"-limit", "5",
		"-titleSelectors", "span.titleline > a | td.title > a",
		"-out", "out.csv",
		"-json", "out.json",
		"-email=false",
		"-closeDelay", "0",
	})
	require.NoError(t, err)

	assert.Equal(t, FetcherHTTP, cfg.Source.Fetcher)
	assert.True(t, cfg.Source.Headless)
	assert.Equal(t, 5, cfg.Source.Limit)
	assert.Equal(t, []string{"span.titleline > a", "td.title > a"}, cfg.Source.TitleSelectors())
	assert.False(t, cfg.Source.UsesBrowser())
	assert.Equal(t, "out.csv", cfg.Output.CSVFile)
	assert.Equal(t, "out.json", cfg.Output.JSONFile)
	assert.False(t, cfg.Email.Enabled)
	assert.Equal(t, 0, cfg.Runtime.CloseDelay)
}

func TestParseFlags_Env(t *testing.T) {
	clearEnv(t)
	t.Setenv("GROQ_API_KEY", "gsk_test")
	t.Setenv("EMAIL_USER", "me@example.com")
	t.Setenv("EMAIL_PASS", "app-password")
	t.Setenv("EMAIL_RECEIVER", "you@example.com")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := ParseFlags(nil)
	require.NoError(t, err)

	assert.True(t, cfg.Translate.IsEnabled())
	assert.Equal(t, "gsk_test", cfg.Translate.APIKey)
	assert.Equal(t, "me@example.com", cfg.Email.User)
	assert.Equal(t, "app-password", cfg.Email.Password)
	assert.Equal(t, "you@example.com", cfg.Email.Receiver)
	assert.Equal(t, "debug", cfg.Runtime.LogLevel)
}

func TestParseFlags_ConfigFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "digest.yaml")
	yaml := `
source:
  fetcher: http
  headless: true
  wait_timeout_sec: 3
  title_selectors:
    - span.titleline > a
translate:
  model: from-file
  temperature: 0
output:
  csv: from-file.csv
email:
  enabled: false
runtime:
  close_delay: 0
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := ParseFlags([]string{"-config", path, "-model", "from-flag"})
	require.NoError(t, err)

	assert.Equal(t, FetcherHTTP, cfg.Source.Fetcher)
	assert.True(t, cfg.Source.Headless)
	assert.Equal(t, 3*time.Second, cfg.Source.WaitTimeout)
	assert.Equal(t, []string{"span.titleline > a"}, cfg.Source.TitleSelectors())
	assert.Equal(t, "from-flag", cfg.Translate.Model)
	assert.Zero(t, cfg.Translate.Temperature)
	assert.Equal(t, "from-file.csv", cfg.Output.CSVFile)
	assert.False(t, cfg.Email.Enabled)
	assert.Equal(t, 0, cfg.Runtime.CloseDelay)

	// ファイルに無い項目はデフォルトのまま
	assert.Equal(t, DefaultTargetURL, cfg.Source.TargetURL)
	assert.Equal(t, 100, cfg.Translate.MaxTokens)
}

func TestParseFlags_ConfigFileErrors(t *testing.T) {
	clearEnv(t)

	_, err := ParseFlags([]string{"-config", filepath.Join(t.TempDir(), "missing.yaml")})
	assert.ErrorContains(t, err, "read config file")

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("source: [unclosed"), 0o644))
	_, err = ParseFlags([]string{"-config", bad})
	assert.ErrorContains(t, err, "parse config file")
}

func TestParseFlags_Invalid(t *testing.T) {
	clearEnv(t)

	_, err := ParseFlags([]string{"-source", "lobsters"})
	assert.True(t, errors.Is(err, ErrUnknownSource))

	_, err = ParseFlags([]string{"-fetcher", "curl"})
	assert.ErrorIs(t, err, ErrInvalidFetcher)

	_, err = ParseFlags([]string{"-notAFlag"})
	assert.Error(t, err)
}

func TestParseFlags_Help(t *testing.T) {
	clearEnv(t)

	stderr := os.Stderr
	devnull, err := os.Open(os.DevNull)
	require.NoError(t, err)
	defer devnull.Close()
	os.Stderr = devnull
	defer func() { os.Stderr = stderr }()

	_, err = ParseFlags([]string{"-h"})
	assert.ErrorIs(t, err, flag.ErrHelp)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*PipelineConfig)
		want   error
	}{
		{"no selectors", func(c *PipelineConfig) { c.Source.SelectorsRaw = " | " }, ErrNoTitleSelectors},
		{"no item marker", func(c *PipelineConfig) { c.Source.ItemSelector = "" }, ErrMissingItemMarker},
		{"no target", func(c *PipelineConfig) { c.Source.TargetURL = "" }, ErrMissingTargetURL},
		{"rss without feed", func(c *PipelineConfig) { c.Source.Name = SourceRSS; c.Source.FeedURL = "" }, ErrMissingTargetURL},
		{"bad fetcher", func(c *PipelineConfig) { c.Source.Fetcher = "wget" }, ErrInvalidFetcher},
		{"unknown source", func(c *PipelineConfig) { c.Source.Name = "reddit" }, ErrUnknownSource},
		{"no output", func(c *PipelineConfig) { c.Output.CSVFile = "" }, ErrMissingOutputPath},
		{"negative delay", func(c *PipelineConfig) { c.Runtime.CloseDelay = -1 }, ErrInvalidCloseDelay},
		{"zero tokens", func(c *PipelineConfig) { c.Translate.MaxTokens = 0 }, ErrInvalidMaxTokens},
		{"hot temperature", func(c *PipelineConfig) { c.Translate.Temperature = 2.5 }, ErrInvalidTemperature},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), tt.want)
		})
	}

	t.Run("rss ignores page selectors", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Source.Name = SourceRSS
		cfg.Source.ItemSelector = ""
		cfg.Source.Fetcher = ""
		assert.NoError(t, cfg.Validate())
		assert.False(t, cfg.Source.UsesBrowser())
	})
}

func TestTitleSelectors(t *testing.T) {
	sc := SourceConfig{SelectorsRaw: " a.titlelink || td.title > a |"}
	assert.Equal(t, []string{"a.titlelink", "td.title > a"}, sc.TitleSelectors())

	assert.Empty(t, (&SourceConfig{}).TitleSelectors())
}
