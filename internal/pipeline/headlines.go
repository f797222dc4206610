// =============================================================================
// headlines.go - 見出し収集の共通ロジック
// =============================================================================
//
// このファイルは見出しソースの共通ロジックを提供します。
// 個別のソース実装は以下のファイルに分割されています：
//
// 【ファイル構成】
//   - headlines.go (このファイル) - ソースレジストリ、HTTP設定、リンク正規化
//   - sources_html.go            - フロントページ（HTML）ソースと抽出処理
//   - browser.go                 - go-rodによるブラウザ取得
//   - sources_rss.go             - RSSフィードソース
//
// =============================================================================
// 【実装ソース一覧】
// =============================================================================
//
//  1. frontpage - Hacker Newsのフロントページをブラウザ（またはHTTP）で取得し、
//                 tr.athing 行からタイトルとリンクを抽出する
//  2. rss       - Hacker NewsのRSSフィードから同じ (タイトル, リンク) を取得する
//
// =============================================================================
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
)

// ソース名・取得方法の識別子
const (
	SourceFrontPage = "frontpage"
	SourceRSS       = "rss"

	FetcherBrowser = "browser"
	FetcherHTTP    = "http"
)

// ErrUnknownSource は未登録のソース名が指定された場合のエラー
var ErrUnknownSource = errors.New("unknown source")

// =============================================================================
// ソースレジストリ（Source Registry）
// =============================================================================

// HeadlineSource は見出しの取得元を表すインターフェース
//
// Collect は1回だけ呼ばれる。Close は取得に使ったセッション（ブラウザなど）を
// 解放する。Collectが失敗した場合でもCloseを呼んでよい。
type HeadlineSource interface {
	Collect(ctx context.Context) (*CollectResult, error)
	Close() error
}

// sourceFactory はソースを生成する関数のシグネチャ
type sourceFactory func(cfg SourceConfig, hc HeadlineSourceConfig) (HeadlineSource, error)

// sourceFactories は全ソースの生成関数を格納するレジストリ
var sourceFactories = map[string]sourceFactory{
	SourceFrontPage: newFrontPageSourceFromConfig,
	SourceRSS:       newRSSSourceFromConfig,
}

// NewHeadlineSource は設定に対応するソースを生成する
func NewHeadlineSource(cfg SourceConfig, hc HeadlineSourceConfig) (HeadlineSource, error) {
	factory, ok := sourceFactories[cfg.Name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSource, cfg.Name)
	}
	return factory(cfg, hc)
}

// =============================================================================
// 設定と構造体
// =============================================================================

// HeadlineSourceConfig は見出し収集時のHTTP設定を保持
type HeadlineSourceConfig struct {
	UserAgent string        // HTTPリクエスト時のUser-Agentヘッダー
	Timeout   time.Duration // HTTPリクエストのタイムアウト時間
	Client    *http.Client  // 共有HTTPクライアント
}

// DefaultHeadlineConfig はデフォルトの見出し収集設定を返す
func DefaultHeadlineConfig() HeadlineSourceConfig {
	timeout := 30 * time.Second
	return HeadlineSourceConfig{
		UserAgent: "Mozilla/5.0 (compatible; hn-digest/1.0; +https://example.invalid)",
		Timeout:   timeout,
		Client:    &http.Client{Timeout: timeout},
	}
}

// =============================================================================
// リンク正規化
// =============================================================================

// NormalizeLink は相対リンクをサイトのベースURL付きの絶対URLに変換する
//
// 【ルール】
//   - 空のhref       → 空文字列（リンクなし）
//   - "item?..." で始まる → baseURL + href
//   - スキームが無い   → baseURL + href
//   - それ以外        → そのまま
//
// 【変換例】
//
//	NormalizeLink("https://news.ycombinator.com/", "item?id=123")
//	  → "https://news.ycombinator.com/item?id=123"
//	NormalizeLink("https://news.ycombinator.com/", "https://example.com/x")
//	  → "https://example.com/x"
//	NormalizeLink("https://news.ycombinator.com/", "foo/bar")
//	  → "https://news.ycombinator.com/foo/bar"
func NormalizeLink(baseURL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "item?") || !strings.HasPrefix(href, "http") {
		// 区切りの '/' はちょうど1つにする
		return strings.TrimSuffix(baseURL, "/") + "/" + strings.TrimPrefix(href, "/")
	}
	return href
}

// =============================================================================
// HTTP取得ヘルパー
// =============================================================================

// fetchDoc は指定URLからHTMLドキュメントを取得してgoqueryでパース
//
// 引数:
//
//	ctx: キャンセル用コンテキスト
//	u:   取得するURL
//	cfg: タイムアウトとUser-Agent設定
func fetchDoc(ctx context.Context, u string, cfg HeadlineSourceConfig) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	// ブロッキング回避のため、ブラウザ風のヘッダーを設定
	req.Header.Set("User-Agent", cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := cfg.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	// HTTPステータスコードチェック（200番台以外はエラー）
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("GET %s: status %s", u, resp.Status)
	}
	return goquery.NewDocumentFromReader(resp.Body)
}

// fetchRSSFeed は指定URLからRSS/Atomフィードを取得してパース
func fetchRSSFeed(ctx context.Context, feedURL string, cfg HeadlineSourceConfig) (*gofeed.Feed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("request creation failed: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := cfg.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	fp := gofeed.NewParser()
	feed, err := fp.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("RSS parse failed: %w", err)
	}

	return feed, nil
}
