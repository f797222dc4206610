// =============================================================================
// digest.go - ダイジェストHTMLの生成
// =============================================================================
//
// メールで送る「今日のHacker Newsダイジェスト」のHTMLを組み立てます。
// テンプレートエンジンは使わず、文字列を直接連結します。
//
// 【表示タイトルの選び方】
//   翻訳が空、または翻訳失敗マーカー / プレースホルダータグを含む場合は
//   英語の元タイトルを表示し、それ以外は翻訳を表示する。
//
// 【エスケープ】
//   タイトル中の & < > のみをエスケープする（リンクはそのまま埋め込む）。
//
// =============================================================================
package pipeline

import (
	"strconv"
	"strings"
)

// DigestSize はダイジェストに含める見出しの件数
const DigestSize = 10

// DigestSubject はダイジェストメールの件名
const DigestSubject = "📰 Today's Hacker News Tech Digest"

// htmlEscaper は & < > だけをエスケープする（一括置換なので二重エスケープしない）
var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// escapeHTML はタイトル用の最小限のエスケープ
func escapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}

// DisplayTitle はダイジェストに表示するタイトルを選ぶ
func DisplayTitle(h Headline) string {
	t := h.TranslatedTitle
	if t != "" && !strings.Contains(t, FailureTag) && !strings.Contains(t, PlaceholderTag) {
		return t
	}
	return h.Title
}

// BuildDigest は件名とHTML本文を組み立てる
func BuildDigest(headlines []Headline) DigestEmail {
	return DigestEmail{
		Subject: DigestSubject,
		HTML:    RenderDigestHTML(headlines),
	}
}

// RenderDigestHTML は先頭DigestSize件からHTML本文を生成する
func RenderDigestHTML(headlines []Headline) string {
	top := headlines
	if len(top) > DigestSize {
		top = top[:DigestSize]
	}

	var sb strings.Builder

	// ヘッダー
	sb.WriteString(`<html><head><meta charset="UTF-8"></head><body>`)
	sb.WriteString(`<h2 style="color: #ff6600;">📰 Today's Hacker News Tech Digest</h2>`)
	sb.WriteString(`<p>Here are the top 10 tech news stories today:</p>`)
	sb.WriteString(`<ul style="list-style: none; padding: 0;">`)

	// 各記事
	for i, h := range top {
		sb.WriteString(`<li style="margin-bottom: 20px; padding: 15px; background-color: #f9f9f9; border-left: 4px solid #ff6600;">`)
		sb.WriteString(`<div style="color: #666; font-size: 0.9em; margin-bottom: 8px;"><strong>`)
		sb.WriteString(strconv.Itoa(i + 1))
		sb.WriteString(". ")
		sb.WriteString(escapeHTML(DisplayTitle(h)))
		sb.WriteString(`</strong></div>`)
		sb.WriteString(`<div style="font-weight: bold; color: #333; margin-bottom: 5px;">`)
		sb.WriteString(escapeHTML(h.Title))
		sb.WriteString(`</div>`)
		sb.WriteString(`<div><a href="`)
		sb.WriteString(h.Link)
		sb.WriteString(`" target="_blank" style="color: #0066cc; text-decoration: none;">🔗 Read Original</a></div>`)
		sb.WriteString(`</li>`)
	}

	// フッター
	sb.WriteString(`</ul>`)
	sb.WriteString(`<p style="color: #999; font-size: 0.9em; margin-top: 30px;">Data Source: <a href="https://news.ycombinator.com/" target="_blank" style="color: #0066cc;">Hacker News</a></p>`)
	sb.WriteString(`</body></html>`)

	return sb.String()
}
