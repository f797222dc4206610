// =============================================================================
// browser.go - ブラウザによるページ取得
// =============================================================================
//
// go-rod を使用してChromiumを起動し、ページを開いてマーカー要素の出現を待ちます。
// 描画後のHTMLをgoqueryでパースし、HTTP取得と同じ抽出処理に渡します。
//
// 【セッションの寿命】
//   ブラウザはFetchedPage.Close()が呼ばれるまで開いたままにする。
//   パイプラインはメール送信とカウントダウンの後にCloseする。
//
// =============================================================================
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// BrowserFetcher はChromiumでページを取得する
type BrowserFetcher struct {
	// Headless がfalseの場合、実際のブラウザウィンドウを開く
	Headless bool

	// Timeout はマーカー要素の出現を待つ時間
	Timeout time.Duration
}

// Fetch はブラウザを起動してページを開き、waitSelectorの出現を待つ
//
// マーカーがTimeout以内に現れない場合は ErrMarkerNotFound を返す（リトライなし）。
// エラー時はブラウザを閉じてから返す。
func (f *BrowserFetcher) Fetch(ctx context.Context, targetURL, waitSelector string) (*FetchedPage, error) {
	l := launcher.New().Headless(f.Headless)
	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("connect browser: %w", err)
	}

	release := func() error {
		err := browser.Close()
		l.Cleanup()
		return err
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: targetURL})
	if err != nil {
		_ = release()
		return nil, fmt.Errorf("open %s: %w", targetURL, err)
	}
	if err := page.WaitLoad(); err != nil {
		_ = release()
		return nil, fmt.Errorf("wait load %s: %w", targetURL, err)
	}

	timeout := f.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if _, err := page.Timeout(timeout).Element(waitSelector); err != nil {
		_ = release()
		return nil, fmt.Errorf("%w: %s on %s: %w", ErrMarkerNotFound, waitSelector, targetURL, err)
	}

	html, err := page.HTML()
	if err != nil {
		_ = release()
		return nil, fmt.Errorf("read page HTML: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		_ = release()
		return nil, fmt.Errorf("parse HTML failed: %w", err)
	}

	debugf("browser: loaded %s (%d bytes)", targetURL, len(html))
	return NewFetchedPage(targetURL, doc, release), nil
}
