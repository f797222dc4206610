// =============================================================================
// main.go - Hacker News 中国語ダイジェストのエントリーポイント
// =============================================================================
//
// このプログラムは、Hacker Newsのフロントページから見出しを集め、
// 中国語に翻訳してCSVに保存し、上位10件をメールで配信するCLIツールです。
//
// =============================================================================
// 【処理フロー】
// =============================================================================
//
//   ┌─────────────┐    ┌─────────────┐    ┌─────────────┐
//   │  1. 設定    │ -> │  2. 取得    │ -> │  3. 翻訳    │
//   │  読み込み   │    │  ブラウザ   │    │  Groq API   │
//   └─────────────┘    └─────────────┘    └─────────────┘
//          │                  │                  │
//          v                  v                  v
//   .env読み込み        tr.athing 行から    1件ずつ翻訳
//   CLIフラグ解析       タイトル・リンク     （失敗しても続行）
//
//   ┌─────────────┐    ┌─────────────┐
//   │  4. 保存    │ -> │  5. 配信    │
//   │  CSV / JSON │    │  Gmail SMTP │
//   └─────────────┘    └─────────────┘
//          │                  │
//          v                  v
//   hacker_news.csv     上位10件のHTML
//   （BOM付きUTF-8）    ダイジェスト
//
// =============================================================================
// 【CLIフラグ一覧】
// =============================================================================
//
// ▼ 取得設定
//   -source          見出しの取得元: frontpage | rss（デフォルト: frontpage）
//   -fetcher         ページ取得方法: browser | http（デフォルト: browser）
//   -headless        ウィンドウを表示せずにブラウザを起動する
//   -limit           処理する見出しの上限（デフォルト: 0 = 全件）
//
// ▼ 翻訳設定
//   -model           モデル名（デフォルト: llama-3.1-8b-instant）
//
// ▼ 出力設定
//   -out             CSVファイルパス（デフォルト: hacker_news.csv）
//   -json            同じ内容をJSONでも保存する
//   -email           EMAIL_* が揃っていればダイジェストを送信（デフォルト: true）
//
// ▼ 実行設定
//   -config          YAML設定ファイル
//   -logLevel        ログレベル（デフォルト: info、環境変数 LOG_LEVEL）
//   -closeDelay      ブラウザを閉じる前の待機秒数（デフォルト: 10）
//
// =============================================================================
// 【初心者向けポイント】
// =============================================================================
//
// - flag パッケージでCLI引数を解析
// - godotenv パッケージで.envファイルを読み込み
// - 進捗は標準出力、診断ログ（zap）は標準エラー出力
// - 致命的なエラーのみ終了コード1で終了する
//
// =============================================================================
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv" // .env ファイル読み込み

	"hn-digest/internal/pipeline"
)

func main() {
	// .env ファイルから環境変数を読み込み
	// ファイルが存在しない場合でも処理は続行する
	envErr := godotenv.Load()

	cfg, err := pipeline.ParseFlags(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fatalf("ERROR: %v", err)
	}

	logger, err := pipeline.NewLogger(cfg.Runtime.LogLevel)
	if err != nil {
		fatalf("ERROR: building logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	pipeline.SetLogger(logger)

	if envErr != nil {
		logger.Sugar().Debugf(".env file not loaded: %v (using environment variables only)", envErr)
	}

	p, err := pipeline.New(cfg, os.Stdout)
	if err != nil {
		fatalf("ERROR: %v", err)
	}

	result, err := p.Run(context.Background())
	if err != nil {
		_ = logger.Sync()
		fatalf("❌ Program execution error: %v", err)
	}

	logger.Sugar().Debugf("done: items=%d rows=%d emailed=%t",
		result.Items, len(result.Headlines), result.Emailed)
}

// fatalf はエラーメッセージを標準エラー出力に出して終了する
func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
