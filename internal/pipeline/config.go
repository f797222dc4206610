// =============================================================================
// config.go - パイプライン設定
// =============================================================================
//
// このファイルはCLIフラグの解析と設定管理を行います。
//
// 【設定グループ】
//   - SourceConfig:    取得元（フロントページ / RSS）とスクレイピング設定
//   - TranslateConfig: 翻訳API（Groq）設定
//   - OutputConfig:    出力ファイル設定
//   - EmailModeConfig: メール配信設定
//   - RuntimeConfig:   ログレベル、ブラウザ終了前の待機時間など
//
// 【設定の優先順位】（低 → 高）
//   1. DefaultConfig() のデフォルト値
//   2. -config で指定したYAMLファイル
//   3. 明示的に指定したCLIフラグ
//   4. 秘密情報（APIキー・メール認証情報）は環境変数のみ
//
// =============================================================================
package pipeline

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// 設定検証エラー
var (
	ErrNoTitleSelectors   = errors.New("at least one title selector is required")
	ErrMissingItemMarker  = errors.New("item selector is required")
	ErrMissingTargetURL   = errors.New("target URL is required")
	ErrInvalidFetcher     = errors.New("fetcher must be 'browser' or 'http'")
	ErrMissingOutputPath  = errors.New("output CSV path is required")
	ErrInvalidCloseDelay  = errors.New("close delay must be non-negative")
	ErrInvalidMaxTokens   = errors.New("max tokens must be at least 1")
	ErrInvalidTemperature = errors.New("temperature must be between 0 and 2")
)

// =============================================================================
// 定数
// =============================================================================

const (
	// DefaultTargetURL はスクレイピング対象のフロントページ
	DefaultTargetURL = "https://news.ycombinator.com/"

	// DefaultFeedURL はRSSソース（-source=rss）のフィードURL
	DefaultFeedURL = "https://news.ycombinator.com/rss"

	// DefaultItemSelector は見出し1件を表す行のマーカー
	DefaultItemSelector = "tr.athing"

	// DefaultCSVFile は出力CSVファイル（カレントディレクトリ相対）
	DefaultCSVFile = "hacker_news.csv"

	// DefaultModel は翻訳に使用するモデル
	DefaultModel = "llama-3.1-8b-instant"

	// DefaultGroqBaseURL はGroqのOpenAI互換エンドポイント
	DefaultGroqBaseURL = "https://api.groq.com/openai/v1"

	// selectorSeparator は -titleSelectors フラグの区切り文字
	// CSSのセレクタグループに ',' が使われるため '|' で区切る
	selectorSeparator = "|"
)

// DefaultTitleSelectors はタイトル要素を探すセレクタ（優先度順）
//
// Hacker Newsはクラス名を何度か変更しているため、新旧のマークアップに対応する。
var DefaultTitleSelectors = []string{
	"a.titlelink",        // 新しいセレクタ
	"a.storylink",        // 古いセレクタ
	"span.titleline > a", // 現行のマークアップ
	"td.title > a",       // フォールバック
}

// =============================================================================
// 設定構造体
// =============================================================================

// PipelineConfig はパイプラインの全設定を保持する
type PipelineConfig struct {
	Source    SourceConfig
	Translate TranslateConfig
	Output    OutputConfig
	Email     EmailModeConfig
	Runtime   RuntimeConfig
}

// SourceConfig は見出しの取得元に関する設定
type SourceConfig struct {
	// Name はソース名（"frontpage" | "rss"）
	Name string

	// TargetURL はフロントページのURL
	TargetURL string

	// BaseURL は相対リンクの前に付けるURL
	BaseURL string

	// FeedURL はRSSソースのURL
	FeedURL string

	// ItemSelector は見出し行のマーカー（出現を待つ対象）
	ItemSelector string

	// SelectorsRaw は '|' 区切りのタイトルセレクタ（-titleSelectors フラグの値）
	SelectorsRaw string

	// Fetcher はページ取得方法（"browser" | "http"）
	Fetcher string

	// Headless がfalseの場合、実際のブラウザウィンドウを開く
	Headless bool

	// WaitTimeout はマーカー要素の出現を待つ時間
	WaitTimeout time.Duration

	// Limit は処理する見出しの上限（0で無制限）
	Limit int
}

// TitleSelectors はSelectorsRawをパースしてスライスで返す
func (c *SourceConfig) TitleSelectors() []string {
	var result []string
	for _, s := range strings.Split(c.SelectorsRaw, selectorSeparator) {
		s = strings.TrimSpace(s)
		if s != "" {
			result = append(result, s)
		}
	}
	return result
}

// UsesBrowser はブラウザセッションを使うかどうかを返す
func (c *SourceConfig) UsesBrowser() bool {
	return c.Name == SourceFrontPage && c.Fetcher == FetcherBrowser
}

// TranslateConfig は翻訳APIに関する設定
type TranslateConfig struct {
	// APIKey は環境変数 GROQ_API_KEY から読み込む（空の場合はプレースホルダー翻訳）
	APIKey string

	// Model は使用するモデル
	Model string

	// BaseURL はOpenAI互換APIのベースURL
	BaseURL string

	// Temperature は生成の温度パラメータ
	Temperature float64

	// MaxTokens は生成トークン数の上限
	MaxTokens int
}

// IsEnabled はAPIキーが設定されているかどうかを返す
func (c *TranslateConfig) IsEnabled() bool {
	return c.APIKey != ""
}

// OutputConfig は出力に関する設定
type OutputConfig struct {
	// CSVFile は出力CSVファイルのパス（毎回上書き）
	CSVFile string

	// JSONFile が指定された場合、同じ内容をJSONでも保存する
	JSONFile string
}

// EmailModeConfig はメール配信に関する設定
//
// 【注意】email.goのEmailConfig（SMTP設定）とは別物
type EmailModeConfig struct {
	// Enabled がfalseの場合、メール送信手段そのものを用意しない
	Enabled bool

	// User は送信元アドレス（環境変数 EMAIL_USER）
	User string

	// Password は送信元のアプリパスワード（環境変数 EMAIL_PASS）
	Password string

	// Receiver は送信先アドレス（環境変数 EMAIL_RECEIVER）
	Receiver string
}

// RuntimeConfig は実行時の動作に関する設定
type RuntimeConfig struct {
	// ConfigFile はYAML設定ファイルのパス（任意）
	ConfigFile string

	// LogLevel はログレベル（debug | info | warn | error）
	LogLevel string

	// CloseDelay はブラウザを閉じる前のカウントダウン秒数
	CloseDelay int
}

// DefaultConfig はデフォルト設定を返す
func DefaultConfig() *PipelineConfig {
	return &PipelineConfig{
		Source: SourceConfig{
			Name:         SourceFrontPage,
			TargetURL:    DefaultTargetURL,
			BaseURL:      DefaultTargetURL,
			FeedURL:      DefaultFeedURL,
			ItemSelector: DefaultItemSelector,
			SelectorsRaw: strings.Join(DefaultTitleSelectors, selectorSeparator),
			Fetcher:      FetcherBrowser,
			Headless:     false,
			WaitTimeout:  10 * time.Second,
		},
		Translate: TranslateConfig{
			Model:       DefaultModel,
			BaseURL:     DefaultGroqBaseURL,
			Temperature: 0.3,
			MaxTokens:   100,
		},
		Output: OutputConfig{
			CSVFile: DefaultCSVFile,
		},
		Email: EmailModeConfig{
			Enabled: true,
		},
		Runtime: RuntimeConfig{
			LogLevel:   "info",
			CloseDelay: 10,
		},
	}
}

// =============================================================================
// フラグ解析
// =============================================================================

// ParseFlags はCLIフラグを解析してPipelineConfigを返す
//
// -config が指定された場合はYAMLファイルを読み込み、その後で
// 明示的に指定されたフラグを再適用する（フラグが最優先）。
func ParseFlags(args []string) (*PipelineConfig, error) {
	cfg := DefaultConfig()
	fs := flag.NewFlagSet("digest", flag.ContinueOnError)

	// Source flags
	fs.StringVar(&cfg.Source.Name, "source", cfg.Source.Name, "headline source: frontpage|rss")
	fs.StringVar(&cfg.Source.TargetURL, "url", cfg.Source.TargetURL, "front page URL to scrape")
	fs.StringVar(&cfg.Source.BaseURL, "baseURL", cfg.Source.BaseURL, "prefix for relative links")
	fs.StringVar(&cfg.Source.FeedURL, "feedURL", cfg.Source.FeedURL, "RSS feed URL used with -source=rss")
	fs.StringVar(&cfg.Source.ItemSelector, "itemSelector", cfg.Source.ItemSelector, "selector of one headline row (waited for)")
	fs.StringVar(&cfg.Source.SelectorsRaw, "titleSelectors", cfg.Source.SelectorsRaw, "'|'-separated title selectors in priority order")
	fs.StringVar(&cfg.Source.Fetcher, "fetcher", cfg.Source.Fetcher, "page fetcher: browser|http")
	fs.BoolVar(&cfg.Source.Headless, "headless", cfg.Source.Headless, "run the browser without a window")
	fs.DurationVar(&cfg.Source.WaitTimeout, "waitTimeout", cfg.Source.WaitTimeout, "how long to wait for the item selector")
	fs.IntVar(&cfg.Source.Limit, "limit", cfg.Source.Limit, "max headlines to process (0 = all)")

	// Translate flags
	fs.StringVar(&cfg.Translate.Model, "model", cfg.Translate.Model, "chat completion model")
	fs.StringVar(&cfg.Translate.BaseURL, "apiBaseURL", cfg.Translate.BaseURL, "OpenAI-compatible API base URL")
	fs.Float64Var(&cfg.Translate.Temperature, "temperature", cfg.Translate.Temperature, "sampling temperature")
	fs.IntVar(&cfg.Translate.MaxTokens, "maxTokens", cfg.Translate.MaxTokens, "max generated tokens per title")

	// Output flags
	fs.StringVar(&cfg.Output.CSVFile, "out", cfg.Output.CSVFile, "CSV output path (overwritten)")
	fs.StringVar(&cfg.Output.JSONFile, "json", cfg.Output.JSONFile, "optional: also write rows as JSON to this path")

	// Email flags
	fs.BoolVar(&cfg.Email.Enabled, "email", cfg.Email.Enabled, "send the top-10 digest when EMAIL_* are set")

	// Runtime flags
	fs.StringVar(&cfg.Runtime.ConfigFile, "config", "", "optional: YAML config file")
	fs.StringVar(&cfg.Runtime.LogLevel, "logLevel", envOr("LOG_LEVEL", cfg.Runtime.LogLevel), "log level: debug|info|warn|error")
	fs.IntVar(&cfg.Runtime.CloseDelay, "closeDelay", cfg.Runtime.CloseDelay, "seconds to count down before closing the browser")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if cfg.Runtime.ConfigFile != "" {
		// YAMLで上書きされる前に、明示的に指定されたフラグの値を控えておく
		explicit := map[string]string{}
		fs.Visit(func(f *flag.Flag) {
			explicit[f.Name] = f.Value.String()
		})

		if err := cfg.ApplyFile(cfg.Runtime.ConfigFile); err != nil {
			return nil, err
		}

		for name, value := range explicit {
			if err := fs.Set(name, value); err != nil {
				return nil, fmt.Errorf("reapply -%s: %w", name, err)
			}
		}
	}

	cfg.LoadEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadEnv は環境変数から秘密情報を読み込む
//
// 【環境変数】
//
//	GROQ_API_KEY   - 翻訳APIキー（未設定の場合はプレースホルダー翻訳）
//	EMAIL_USER     - 送信元メールアドレス
//	EMAIL_PASS     - 送信元のアプリパスワード
//	EMAIL_RECEIVER - 送信先メールアドレス
func (c *PipelineConfig) LoadEnv() {
	c.Translate.APIKey = os.Getenv("GROQ_API_KEY")
	c.Email.User = os.Getenv("EMAIL_USER")
	c.Email.Password = os.Getenv("EMAIL_PASS")
	c.Email.Receiver = os.Getenv("EMAIL_RECEIVER")
}

// Validate は設定の妥当性を検証する
func (c *PipelineConfig) Validate() error {
	switch c.Source.Name {
	case SourceFrontPage:
		if c.Source.TargetURL == "" {
			return ErrMissingTargetURL
		}
		if c.Source.ItemSelector == "" {
			return ErrMissingItemMarker
		}
		if len(c.Source.TitleSelectors()) == 0 {
			return ErrNoTitleSelectors
		}
		if c.Source.Fetcher != FetcherBrowser && c.Source.Fetcher != FetcherHTTP {
			return fmt.Errorf("%w: %q", ErrInvalidFetcher, c.Source.Fetcher)
		}
	case SourceRSS:
		if c.Source.FeedURL == "" {
			return ErrMissingTargetURL
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnknownSource, c.Source.Name)
	}

	if c.Output.CSVFile == "" {
		return ErrMissingOutputPath
	}
	if c.Runtime.CloseDelay < 0 {
		return ErrInvalidCloseDelay
	}
	if c.Translate.MaxTokens < 1 {
		return ErrInvalidMaxTokens
	}
	if c.Translate.Temperature < 0 || c.Translate.Temperature > 2 {
		return ErrInvalidTemperature
	}
	return nil
}

// =============================================================================
// YAML設定ファイル
// =============================================================================

// fileConfig はYAML設定ファイルの構造
//
// 【例】
//
//	source:
//	  name: frontpage
//	  url: https://news.ycombinator.com/
//	  fetcher: http
//	  title_selectors:
//	    - span.titleline > a
//	    - td.title > a
//	translate:
//	  model: llama-3.1-8b-instant
//	output:
//	  csv: hacker_news.csv
type fileConfig struct {
	Source struct {
		Name           string   `yaml:"name"`
		URL            string   `yaml:"url"`
		BaseURL        string   `yaml:"base_url"`
		FeedURL        string   `yaml:"feed_url"`
		ItemSelector   string   `yaml:"item_selector"`
		TitleSelectors []string `yaml:"title_selectors"`
		Fetcher        string   `yaml:"fetcher"`
		Headless       *bool    `yaml:"headless"`
		WaitTimeoutSec int      `yaml:"wait_timeout_sec"`
		Limit          int      `yaml:"limit"`
	} `yaml:"source"`
	Translate struct {
		Model       string   `yaml:"model"`
		BaseURL     string   `yaml:"base_url"`
		Temperature *float64 `yaml:"temperature"`
		MaxTokens   int      `yaml:"max_tokens"`
	} `yaml:"translate"`
	Output struct {
		CSV  string `yaml:"csv"`
		JSON string `yaml:"json"`
	} `yaml:"output"`
	Email struct {
		Enabled *bool `yaml:"enabled"`
	} `yaml:"email"`
	Runtime struct {
		LogLevel   string `yaml:"log_level"`
		CloseDelay *int   `yaml:"close_delay"`
	} `yaml:"runtime"`
}

// ApplyFile はYAML設定ファイルを読み込み、指定された項目だけを上書きする
func (c *PipelineConfig) ApplyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	setString(&c.Source.Name, fc.Source.Name)
	setString(&c.Source.TargetURL, fc.Source.URL)
	setString(&c.Source.BaseURL, fc.Source.BaseURL)
	setString(&c.Source.FeedURL, fc.Source.FeedURL)
	setString(&c.Source.ItemSelector, fc.Source.ItemSelector)
	if len(fc.Source.TitleSelectors) > 0 {
		c.Source.SelectorsRaw = strings.Join(fc.Source.TitleSelectors, selectorSeparator)
	}
	setString(&c.Source.Fetcher, fc.Source.Fetcher)
	if fc.Source.Headless != nil {
		c.Source.Headless = *fc.Source.Headless
	}
	if fc.Source.WaitTimeoutSec > 0 {
		c.Source.WaitTimeout = time.Duration(fc.Source.WaitTimeoutSec) * time.Second
	}
	if fc.Source.Limit > 0 {
		c.Source.Limit = fc.Source.Limit
	}

	setString(&c.Translate.Model, fc.Translate.Model)
	setString(&c.Translate.BaseURL, fc.Translate.BaseURL)
	if fc.Translate.Temperature != nil {
		c.Translate.Temperature = *fc.Translate.Temperature
	}
	if fc.Translate.MaxTokens > 0 {
		c.Translate.MaxTokens = fc.Translate.MaxTokens
	}

	setString(&c.Output.CSVFile, fc.Output.CSV)
	setString(&c.Output.JSONFile, fc.Output.JSON)

	if fc.Email.Enabled != nil {
		c.Email.Enabled = *fc.Email.Enabled
	}

	setString(&c.Runtime.LogLevel, fc.Runtime.LogLevel)
	if fc.Runtime.CloseDelay != nil {
		c.Runtime.CloseDelay = *fc.Runtime.CloseDelay
	}

	return nil
}

// setString は空でない場合のみ値を上書きする
func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// envOr は環境変数が設定されていればその値を、なければfallbackを返す
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
