// =============================================================================
// Lambda: hn-digest
// =============================================================================
//
// Hacker Newsの見出しを取得・翻訳し、CSVを/tmpに保存して
// 上位10件のダイジェストをメール送信するLambda関数
//
// Lambda環境ではブラウザを起動できないため、常にHTTPで取得する。
// カウントダウンも行わない。
//
// 環境変数:
//   - GROQ_API_KEY:   翻訳APIキー (任意、未設定ならプレースホルダー翻訳)
//   - EMAIL_USER:     送信元メールアドレス (任意)
//   - EMAIL_PASS:     Gmailアプリパスワード (任意)
//   - EMAIL_RECEIVER: 送信先メールアドレス (任意)
//   - SOURCE:         frontpage | rss (デフォルト: frontpage)
//   - LIMIT:          処理する見出しの上限 (デフォルト: 0 = 全件)
//   - OUTPUT_CSV:     CSV出力先 (デフォルト: /tmp/hacker_news.csv)
//   - LOG_LEVEL:      ログレベル (デフォルト: info)
//
// =============================================================================
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/aws/aws-lambda-go/lambda"

	"hn-digest/internal/pipeline"
)

// defaultLambdaCSV はLambdaで書き込み可能な唯一の場所（/tmp）
const defaultLambdaCSV = "/tmp/hacker_news.csv"

// Response はLambdaレスポンス
type Response struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Collected  int    `json:"collected"`
	Emailed    bool   `json:"emailed"`
}

// Handler はLambdaのメインハンドラー
func Handler(ctx context.Context, event interface{}) (Response, error) {
	cfg, err := loadConfig()
	if err != nil {
		return Response{StatusCode: 400, Message: err.Error()}, err
	}

	logger, err := pipeline.NewLogger(cfg.Runtime.LogLevel)
	if err != nil {
		return Response{StatusCode: 500, Message: err.Error()}, err
	}
	defer func() { _ = logger.Sync() }()
	pipeline.SetLogger(logger)

	log := logger.Sugar()
	log.Infof("Starting hn-digest Lambda: source=%s limit=%d out=%s",
		cfg.Source.Name, cfg.Source.Limit, cfg.Output.CSVFile)

	// 進捗表示はCloudWatchに不要なので捨てる
	p, err := pipeline.New(cfg, io.Discard)
	if err != nil {
		return Response{StatusCode: 500, Message: err.Error()}, err
	}

	result, err := p.Run(ctx)
	if err != nil {
		log.Errorf("pipeline failed: %v", err)
		return Response{StatusCode: 500, Message: err.Error()}, err
	}

	log.Infof("Translated %d headlines (emailed=%t)", len(result.Headlines), result.Emailed)

	return Response{
		StatusCode: 200,
		Message:    fmt.Sprintf("Successfully processed %d headlines", len(result.Headlines)),
		Collected:  len(result.Headlines),
		Emailed:    result.Emailed,
	}, nil
}

// loadConfig は環境変数から設定を読み込む
func loadConfig() (*pipeline.PipelineConfig, error) {
	cfg := pipeline.DefaultConfig()
	cfg.Source.Fetcher = pipeline.FetcherHTTP
	cfg.Source.Headless = true
	cfg.Output.CSVFile = defaultLambdaCSV
	cfg.Runtime.CloseDelay = 0

	if s := os.Getenv("SOURCE"); s != "" {
		cfg.Source.Name = s
	}
	if l := os.Getenv("LIMIT"); l != "" {
		if val, err := strconv.Atoi(l); err == nil && val >= 0 {
			cfg.Source.Limit = val
		}
	}
	if out := os.Getenv("OUTPUT_CSV"); out != "" {
		cfg.Output.CSVFile = out
	}
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		cfg.Runtime.LogLevel = lvl
	}

	cfg.LoadEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func main() {
	lambda.Start(Handler)
}
