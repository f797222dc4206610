// =============================================================================
// pipeline.go - パイプライン本体
// =============================================================================
//
// 取得 → 抽出 → 翻訳 → 保存 → 通知 を1回だけ順番に実行します。
// 各ステージは前のステージの出力をすべて受け取ってから開始します（並行処理なし）。
//
// =============================================================================
// 【エラーの扱い】
// =============================================================================
//
//   致命的（Runがエラーを返す）:
//     - ページ取得・マーカー待ちの失敗
//     - CSV / JSON の書き込み失敗
//
//   致命的でない（コンソール・ログに出して続行）:
//     - 1件ごとの翻訳失敗 → "[Translation Failed] 元タイトル"
//     - メール送信の失敗
//
// =============================================================================
package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// consoleTitleWidth は進捗表示でタイトルを切り詰める表示幅
const consoleTitleWidth = 120

// Pipeline は1回分の実行に必要な部品をまとめる
type Pipeline struct {
	Config     *PipelineConfig
	Source     HeadlineSource
	Translator *Translator
	Notifier   *DigestNotifier

	// Console は進捗表示の出力先（nilの場合は標準出力）
	Console io.Writer

	// Sleep はカウントダウンの待機関数（nilの場合はtime.Sleep）
	Sleep func(time.Duration)
}

// RunResult は実行結果
type RunResult struct {
	Items     int
	Headlines []Headline
	Emailed   bool
}

// New は設定から各部品を組み立てる
//
//   - GROQ_API_KEY が無い場合はプレースホルダーモードのTranslator
//   - -email=false の場合は送信手段なし（NewMailer = nil）のNotifier
func New(cfg *PipelineConfig, console io.Writer) (*Pipeline, error) {
	source, err := NewHeadlineSource(cfg.Source, DefaultHeadlineConfig())
	if err != nil {
		return nil, err
	}

	var backend ChatCompleter
	if cfg.Translate.IsEnabled() {
		backend = NewGroqClient(cfg.Translate.APIKey, cfg.Translate)
	}

	notifier := &DigestNotifier{
		Credentials: EmailCredentials{
			User:     cfg.Email.User,
			Password: cfg.Email.Password,
			Receiver: cfg.Email.Receiver,
		},
		Console: console,
	}
	if cfg.Email.Enabled {
		notifier.NewMailer = NewSMTPMailer
	}

	return &Pipeline{
		Config:     cfg,
		Source:     source,
		Translator: NewTranslator(backend),
		Notifier:   notifier,
		Console:    console,
	}, nil
}

// Run はパイプラインを実行する
//
// ソースはカウントダウンの後で必ずCloseする。
func (p *Pipeline) Run(ctx context.Context) (*RunResult, error) {
	out := p.console()
	defer func() {
		if err := p.Source.Close(); err != nil {
			warnf("closing source: %v", err)
		}
	}()

	p.announceTranslator(out)

	// --- 1) 取得・抽出 ---
	collected, err := p.Source.Collect(ctx)
	if err != nil {
		return nil, fmt.Errorf("collecting headlines: %w", err)
	}

	headlines := collected.Headlines
	if limit := p.Config.Source.Limit; limit > 0 && len(headlines) > limit {
		headlines = headlines[:limit]
	}

	fmt.Fprintf(out, "Found %d article entries\n\n", collected.Items)
	fmt.Fprintln(out, strings.Repeat("=", 60))

	// --- 2) 翻訳 ---
	for i := range headlines {
		h := &headlines[i]
		fmt.Fprintf(out, "[%d] Translating...\n", h.Rank)
		h.TranslatedTitle = p.Translator.Translate(ctx, h.Title)

		fmt.Fprintf(out, "📰 English Title: %s\n", truncateDisplay(h.Title, consoleTitleWidth))
		fmt.Fprintf(out, "🇨🇳 Chinese Translation: %s\n", truncateDisplay(h.TranslatedTitle, consoleTitleWidth))
		fmt.Fprintf(out, "🔗 Link: %s\n", h.Link)
		fmt.Fprintln(out, strings.Repeat("-", 60))
	}

	// --- 3) 保存 ---
	csvPath := p.Config.Output.CSVFile
	if err := WriteCSV(csvPath, headlines); err != nil {
		return nil, fmt.Errorf("writing output: %w", err)
	}
	fmt.Fprintf(out, "\n✅ Successfully saved %d entries to %s\n", len(headlines), csvPath)
	fmt.Fprintf(out, "📁 CSV file contains: %s columns\n", strings.Join(CSVHeader, ", "))

	if jsonPath := p.Config.Output.JSONFile; jsonPath != "" {
		if err := WriteJSON(jsonPath, headlines); err != nil {
			return nil, fmt.Errorf("writing json output: %w", err)
		}
		infof("wrote %d entries to %s", len(headlines), jsonPath)
	}

	// --- 4) 通知 ---
	emailed := false
	if p.Notifier != nil {
		emailed = p.Notifier.Notify(ctx, headlines)
	}

	// --- 5) ブラウザ終了前のカウントダウン ---
	if p.Config.Source.UsesBrowser() {
		p.countdown(out, p.Config.Runtime.CloseDelay)
	}

	return &RunResult{
		Items:     collected.Items,
		Headlines: headlines,
		Emailed:   emailed,
	}, nil
}

// announceTranslator は翻訳モードをコンソールに表示する
func (p *Pipeline) announceTranslator(out io.Writer) {
	if !p.Translator.Enabled() {
		fmt.Fprintln(out, "⚠️  GROQ_API_KEY environment variable not detected")
		fmt.Fprintln(out, "💡 Tip: Create .env file and add GROQ_API_KEY=your_api_key_here")
		fmt.Fprintln(out, "   Will use fake data demo function now...")
		fmt.Fprintln(out)
		return
	}
	fmt.Fprintf(out, "✅ Groq API Key detected, %s\n\n", describeBackend(p.Translator.backend))
}

// countdown はブラウザを閉じる前に1秒ずつカウントダウンを表示する
//
// キャンセルには対応しない（プロセス終了でのみ中断される）。
func (p *Pipeline) countdown(out io.Writer, seconds int) {
	if seconds <= 0 {
		return
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	fmt.Fprintf(out, "\n⏰ Browser will close automatically in %d seconds...\n", seconds)
	for i := seconds; i > 0; i-- {
		fmt.Fprintf(out, "   Closing in %d seconds...\r", i)
		sleep(time.Second)
	}
	fmt.Fprintln(out, "   Closing browser...")
}

// console は進捗表示の出力先を返す
func (p *Pipeline) console() io.Writer {
	if p.Console == nil {
		return os.Stdout
	}
	return p.Console
}
