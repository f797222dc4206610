// =============================================================================
// utils.go - ユーティリティ関数
// =============================================================================
//
// このファイルはシステム全体で使用する汎用的なヘルパー関数を提供します。
//
// 【このファイルで提供する機能】
//   - ログ出力: zapロガーの生成と、warnf / infof / debugf ヘルパー
//   - JSON操作: ファイルへの書き出し
//   - 文字列操作: 空白正規化、表示幅での切り詰め
//
// 【ログの出力先】
//   診断ログ（zap）は標準エラー出力、進捗表示（コンソール）は標準出力に分ける。
//
// =============================================================================
package pipeline

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// -----------------------------------------------------------------------------
// ログ出力関数
// -----------------------------------------------------------------------------

// logger はパッケージ全体で使用するロガー（SetLoggerで差し替える）
var logger = zap.NewNop().Sugar()

// NewLogger は指定レベルのコンソール形式zapロガーを生成する
//
// 出力先は標準エラー出力。標準出力は進捗表示に使用するため混ぜない。
func NewLogger(level string) (*zap.Logger, error) {
	zapCfg := zap.NewProductionConfig()
	zapCfg.Encoding = "console"
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	zapCfg.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder
	zapCfg.Level = zap.NewAtomicLevelAt(parseLevel(level))
	zapCfg.Sampling = nil
	zapCfg.DisableStacktrace = true

	// warnf等のラッパー関数をスキップして呼び出し元を表示する
	return zapCfg.Build(zap.AddCallerSkip(1))
}

// SetLogger はパッケージのロガーを差し替える
func SetLogger(l *zap.Logger) {
	if l == nil {
		logger = zap.NewNop().Sugar()
		return
	}
	logger = l.Sugar()
}

// parseLevel はログレベル文字列をzapcore.Levelに変換する
func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// warnf は警告メッセージを出力する
func warnf(format string, args ...any) {
	logger.Warnf(format, args...)
}

// infof は情報メッセージを出力する
func infof(format string, args ...any) {
	logger.Infof(format, args...)
}

// debugf はデバッグメッセージを出力する（-logLevel=debug の時のみ表示）
func debugf(format string, args ...any) {
	logger.Debugf(format, args...)
}

// -----------------------------------------------------------------------------
// JSON操作関数
// -----------------------------------------------------------------------------

// writeJSONFile は任意のデータをJSON形式でファイルに保存する
//
// 【ファイル権限】0o644 = 所有者は読み書き可、他は読み取りのみ
func writeJSONFile(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

// -----------------------------------------------------------------------------
// 文字列操作関数
// -----------------------------------------------------------------------------

// normalizeWhitespace は文字列内の連続する空白を単一スペースに正規化する
//
// 使用例:
//
//	normalizeWhitespace("  hello   world  ")  // "hello world"
func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// truncateDisplay は文字列を端末の表示幅（セル数）で切り詰める
//
// 中国語などの全角文字は2セルとして数える。
//
//	truncateDisplay("Hello World", 8)  // "Hello..."
//	truncateDisplay("短い", 10)        // "短い"（そのまま）
func truncateDisplay(s string, width int) string {
	if width <= 0 || runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "...")
}
