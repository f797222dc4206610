// =============================================================================
// sources_html.go - フロントページ（HTML）ソース
// =============================================================================
//
// このファイルはHacker Newsのフロントページから見出しを抽出するソースを定義します。
// goquery ライブラリを使用してHTML構造から記事情報を抽出します。
//
// 【処理の流れ】
//  1. PageFetcher（ブラウザ or HTTP）でページを取得し、tr.athing の出現を待つ
//  2. 各 tr.athing 行に対してタイトルセレクタを優先度順に試す
//  3. 最初に一致した要素からテキストとhrefを取り出す
//  4. hrefを絶対URLに正規化する
//
// 【セレクタが1つも一致しない行】
//   エラーにせず、その行だけ黙ってスキップする（出力行数 = 抽出できた件数）
//
// =============================================================================
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/PuerkitoBio/goquery"
)

// ErrMarkerNotFound はマーカー要素（tr.athing）がページに現れなかった場合のエラー
var ErrMarkerNotFound = errors.New("item marker not found")

// =============================================================================
// ページ取得
// =============================================================================

// PageFetcher はページを取得し、マーカー要素の出現を待つ
type PageFetcher interface {
	Fetch(ctx context.Context, targetURL, waitSelector string) (*FetchedPage, error)
}

// FetchedPage は取得済みのページ
//
// Doc はクエリ可能な要素ツリー。Close はページ取得に使ったセッションを解放する。
type FetchedPage struct {
	URL     string
	Doc     *goquery.Document
	closeFn func() error
}

// NewFetchedPage はドキュメントと解放関数からFetchedPageを作る
func NewFetchedPage(url string, doc *goquery.Document, closeFn func() error) *FetchedPage {
	return &FetchedPage{URL: url, Doc: doc, closeFn: closeFn}
}

// Close はセッションを解放する（複数回呼んでも安全）
func (p *FetchedPage) Close() error {
	if p == nil || p.closeFn == nil {
		return nil
	}
	fn := p.closeFn
	p.closeFn = nil
	return fn()
}

// HTTPFetcher はブラウザを使わずにHTTP GETでページを取得する
//
// JavaScriptを実行しないため、サーバー側で描画されるページ専用。
// Lambdaなどブラウザを起動できない環境で使用する。
type HTTPFetcher struct {
	Config HeadlineSourceConfig
}

// Fetch はページを取得し、マーカー要素が1つ以上存在することを確認する
func (f *HTTPFetcher) Fetch(ctx context.Context, targetURL, waitSelector string) (*FetchedPage, error) {
	doc, err := fetchDoc(ctx, targetURL, f.Config)
	if err != nil {
		return nil, fmt.Errorf("fetch page: %w", err)
	}
	if doc.Find(waitSelector).Length() == 0 {
		return nil, fmt.Errorf("%w: %s on %s", ErrMarkerNotFound, waitSelector, targetURL)
	}
	return NewFetchedPage(targetURL, doc, nil), nil
}

// =============================================================================
// フロントページソース
// =============================================================================

// FrontPageSource はフロントページから見出しを抽出するソース
type FrontPageSource struct {
	cfg     SourceConfig
	fetcher PageFetcher
	page    *FetchedPage
}

// NewFrontPageSource は指定したPageFetcherを使うソースを作る
func NewFrontPageSource(cfg SourceConfig, fetcher PageFetcher) *FrontPageSource {
	return &FrontPageSource{cfg: cfg, fetcher: fetcher}
}

// newFrontPageSourceFromConfig は設定に従ってPageFetcherを選ぶ（レジストリ用）
func newFrontPageSourceFromConfig(cfg SourceConfig, hc HeadlineSourceConfig) (HeadlineSource, error) {
	var fetcher PageFetcher
	switch cfg.Fetcher {
	case FetcherBrowser:
		fetcher = &BrowserFetcher{Headless: cfg.Headless, Timeout: cfg.WaitTimeout}
	case FetcherHTTP:
		fetcher = &HTTPFetcher{Config: hc}
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidFetcher, cfg.Fetcher)
	}
	return NewFrontPageSource(cfg, fetcher), nil
}

// Collect はページを取得して見出しを抽出する
//
// 取得したページ（ブラウザセッション）はCloseが呼ばれるまで保持する。
func (s *FrontPageSource) Collect(ctx context.Context) (*CollectResult, error) {
	page, err := s.fetcher.Fetch(ctx, s.cfg.TargetURL, s.cfg.ItemSelector)
	if err != nil {
		return nil, err
	}
	s.page = page

	items := page.Doc.Find(s.cfg.ItemSelector)
	debugf("frontpage: %d items matched %q", items.Length(), s.cfg.ItemSelector)

	return &CollectResult{
		Items:     items.Length(),
		Headlines: ExtractHeadlines(items, s.cfg.TitleSelectors(), s.cfg.BaseURL),
	}, nil
}

// Close はページ取得に使ったセッションを解放する
func (s *FrontPageSource) Close() error {
	return s.page.Close()
}

// =============================================================================
// 抽出処理
// =============================================================================

// ExtractHeadlines は各項目からタイトルとリンクを抽出する
//
// 引数:
//
//	items:     見出し行（tr.athing）のSelection
//	selectors: タイトル要素のセレクタ（優先度順）
//	baseURL:   相対リンクに付けるURL
//
// 戻り値のRankは項目の並び順（1始まり）で、スキップした行も数える。
func ExtractHeadlines(items *goquery.Selection, selectors []string, baseURL string) []Headline {
	out := make([]Headline, 0, items.Length())

	items.Each(func(i int, item *goquery.Selection) {
		elem := firstMatch(item, selectors)
		if elem == nil {
			return
		}

		href, _ := elem.Attr("href")
		out = append(out, Headline{
			Rank:  i + 1,
			Title: normalizeWhitespace(elem.Text()),
			Link:  NormalizeLink(baseURL, href),
		})
	})

	return out
}

// firstMatch はセレクタを順番に試し、最初に一致した要素を返す
//
// どのセレクタにも一致しない場合はnilを返す。
func firstMatch(item *goquery.Selection, selectors []string) *goquery.Selection {
	for _, sel := range selectors {
		if m := item.Find(sel).First(); m.Length() > 0 {
			return m
		}
	}
	return nil
}
