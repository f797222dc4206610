// =============================================================================
// types.go - データ構造定義
// =============================================================================
//
// このファイルはhn-digest全体で使用するデータ構造（型）を定義します。
//
// 【このファイルで定義している型】
//   - Headline:      フロントページから抽出した1件の見出し（翻訳結果を含む）
//   - CollectResult: 見出し収集の結果（見出しと検出した項目数）
//   - DigestEmail:   メール送信用に組み立てたダイジェスト
//
// 【ポイント】
//   - Headlineは実行中のメモリ上にのみ存在し、実行をまたいで保持されない
//   - 出力ファイル（CSV / JSON）は毎回上書きされる
//
// =============================================================================
package pipeline

// -----------------------------------------------------------------------------
// Headline - 見出し情報
// -----------------------------------------------------------------------------
//
// Hacker Newsのフロントページ（またはRSS）から抽出した記事の見出しを表します。
// 識別子は持たず、ページ上の並び順（Rank）だけが位置情報になります。
//
// 【フィールドの説明】
//   Rank:            ページ上の項目番号（1始まり、セレクタ不一致でスキップされた項目も数える）
//   Title:           記事タイトル（抽出したテキストの空白を正規化したもの）
//   Link:            記事URL（絶対URLに正規化済み、hrefが無い場合は空文字列）
//   TranslatedTitle: 中国語訳、プレースホルダー、または翻訳失敗マーカー付きのタイトル
//
type Headline struct {
	Rank            int    `json:"rank"`                      // ページ上の項目番号
	Title           string `json:"title"`                     // 記事タイトル
	Link            string `json:"link,omitempty"`            // 記事URL
	TranslatedTitle string `json:"translatedTitle,omitempty"` // 翻訳結果
}

// CollectResult は見出し収集の結果を保持する
//
// Items はページ上で見つかった項目（tr.athing やRSSアイテム）の総数。
// Headlines はそのうちタイトル要素が見つかったものだけを含む。
type CollectResult struct {
	Items     int
	Headlines []Headline
}

// DigestEmail は送信するダイジェストメールの件名と本文
type DigestEmail struct {
	Subject string
	HTML    string
}
