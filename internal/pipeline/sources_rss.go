// =============================================================================
// sources_rss.go - RSSフィードソース
// =============================================================================
//
// このファイルはHacker NewsのRSSフィードから見出しを取得するソースを定義します。
// gofeed ライブラリを使用してRSS/Atomフィードを解析します。
//
// ブラウザを起動できない環境向けの代替ソースで、フロントページソースと同じ
// (タイトル, リンク) の組を返します。
//
// 手法: RSS Feed (gofeed)
// URL: https://news.ycombinator.com/rss
//
// =============================================================================
package pipeline

import (
	"context"
	"fmt"
	"strings"
)

// RSSSource はRSSフィードから見出しを取得するソース
type RSSSource struct {
	cfg SourceConfig
	hc  HeadlineSourceConfig
}

// NewRSSSource はRSSソースを作る
func NewRSSSource(cfg SourceConfig, hc HeadlineSourceConfig) *RSSSource {
	return &RSSSource{cfg: cfg, hc: hc}
}

func newRSSSourceFromConfig(cfg SourceConfig, hc HeadlineSourceConfig) (HeadlineSource, error) {
	return NewRSSSource(cfg, hc), nil
}

// Collect はフィードを取得して見出しに変換する
//
// タイトルが空のアイテムはスキップする（フロントページでセレクタが一致しない行と同じ扱い）。
func (s *RSSSource) Collect(ctx context.Context) (*CollectResult, error) {
	feed, err := fetchRSSFeed(ctx, s.cfg.FeedURL, s.hc)
	if err != nil {
		return nil, fmt.Errorf("fetch feed %s: %w", s.cfg.FeedURL, err)
	}

	out := make([]Headline, 0, len(feed.Items))
	for i, item := range feed.Items {
		title := strings.TrimSpace(item.Title)
		if title == "" {
			continue
		}
		out = append(out, Headline{
			Rank:  i + 1,
			Title: title,
			Link:  NormalizeLink(s.cfg.BaseURL, item.Link),
		})
	}

	debugf("rss: %d items, %d headlines", len(feed.Items), len(out))
	return &CollectResult{Items: len(feed.Items), Headlines: out}, nil
}

// Close は何もしない（RSSソースは解放するセッションを持たない）
func (s *RSSSource) Close() error {
	return nil
}
