// =============================================================================
// translate.go - 見出し翻訳モジュール
// =============================================================================
//
// このファイルは英語の見出しを中国語に翻訳します。
// GroqのOpenAI互換Chat Completions APIを go-openai クライアント経由で呼び出します。
//
// =============================================================================
// 【2つの動作モード】
// =============================================================================
//
// 🟡 プレースホルダーモード（GROQ_API_KEY 未設定）
//    入力タイトルに関係なく "[Fake Data] " + 固定フレーズ5種からランダムに1つ
//
// 🟢 APIモード（GROQ_API_KEY 設定済み）
//    1タイトルにつき1リクエスト（リトライ・キャッシュなし）
//    失敗時は "[Translation Failed] " + 元のタイトル を返し、エラーは呼び出し元に返さない
//
// =============================================================================
// 【リクエスト内容】
// =============================================================================
//
//   model:       llama-3.1-8b-instant
//   temperature: 0.3
//   max_tokens:  100
//   messages:    system（翻訳者としての指示）+ user（翻訳対象のタイトル）
//
// =============================================================================
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// 翻訳結果に付けるマーカー
const (
	// PlaceholderTag はAPIキー未設定時のダミー翻訳に付けるタグ
	PlaceholderTag = "[Fake Data]"

	// FailureTag は翻訳APIの呼び出しに失敗した場合に付けるタグ
	FailureTag = "[Translation Failed]"
)

// placeholderPhrases はプレースホルダーモードで使う固定フレーズ
var placeholderPhrases = [...]string{
	"AI breakthrough: new model performance improved by 50%",
	"Startup raises $100M in funding",
	"Open source project releases major update",
	"Tech giant announces new product",
	"Developer tools get major improvements",
}

// translationSystemPrompt は翻訳者としての指示（意訳・15文字以内の中国語）
const translationSystemPrompt = `You are an experienced tech translation expert with 15 years of experience, specializing in translating Silicon Valley tech news headlines for Chinese readers.

[Core Principle: Meaning-based translation, not literal translation]

Translation Requirements:
1. **Must translate meaning, not literally**: Fully understand the core meaning of the title and express it in the most natural Chinese reading style. For example, "Show HN" should be translated appropriately, not literally
2. **Clear at a glance**: Chinese readers should immediately understand what happened. If it's funding, directly say the funding amount in Chinese; if it's a tech breakthrough, clearly state the breakthrough; if it's a product launch, clearly state the product launch
3. **Natural Chinese expression**:
   - Avoid redundant words
   - Use common Chinese verbs for tech news
   - Numbers in Chinese style
4. **Concise and powerful**: Keep titles within 15 characters, capture core information
5. **Accurate key information**: Company names, tech names, numbers must be accurate, but can be expressed in Chinese style

Only return the Chinese translation, no explanations.`

// errEmptyCompletion はレスポンスにchoicesが無い場合のエラー
var errEmptyCompletion = errors.New("completion returned no choices")

// =============================================================================
// バックエンド
// =============================================================================

// ChatCompleter はsystem + userメッセージから1つの応答を返すバックエンド
type ChatCompleter interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// GroqClient はGroqのChat Completions APIを呼び出すChatCompleter
type GroqClient struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
}

// NewGroqClient は新しいGroqクライアントを作成する
//
// cfg.BaseURL でエンドポイントを差し替えられる（テストではhttptestのURL）。
func NewGroqClient(apiKey string, cfg TranslateConfig) *GroqClient {
	oc := openai.DefaultConfig(apiKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	oc.HTTPClient = &http.Client{Timeout: 60 * time.Second} // タイムアウト60秒

	return &GroqClient{
		client:      openai.NewClientWithConfig(oc),
		model:       cfg.Model,
		temperature: float32(cfg.Temperature),
		maxTokens:   cfg.MaxTokens,
	}
}

// Model は使用するモデル名を返す
func (g *GroqClient) Model() string {
	return g.model
}

// Complete は1回だけChat Completionリクエストを送信する
func (g *GroqClient) Complete(ctx context.Context, system, user string) (string, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: g.temperature,
		MaxTokens:   g.maxTokens,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errEmptyCompletion
	}
	return resp.Choices[0].Message.Content, nil
}

// =============================================================================
// 翻訳
// =============================================================================

// Translator は見出しを翻訳する
//
// backendがnilの場合はプレースホルダーモードで動作する。
type Translator struct {
	backend ChatCompleter
	pick    func(n int) int
}

// NewTranslator は新しいTranslatorを作成する
//
// backendにnilを渡すとプレースホルダーモードになる。
func NewTranslator(backend ChatCompleter) *Translator {
	return &Translator{backend: backend, pick: rand.Intn}
}

// Enabled はAPIバックエンドが設定されているかどうかを返す
func (t *Translator) Enabled() bool {
	return t.backend != nil
}

// Translate はタイトルを翻訳する
//
// この関数はエラーを返さない。失敗時は FailureTag 付きの元タイトルを返す。
func (t *Translator) Translate(ctx context.Context, title string) string {
	if t.backend == nil {
		return t.placeholder()
	}

	user := "Please translate the following English title: " + title
	result, err := t.backend.Complete(ctx, translationSystemPrompt, user)
	if err != nil {
		warnf("Translation failed [%T]: %v", err, err)
		if hint := translationErrorHint(err); hint != "" {
			infof("Tip: %s", hint)
		}
		return FailureTag + " " + title
	}

	return cleanTranslation(result)
}

// placeholder はダミーの翻訳結果を返す
func (t *Translator) placeholder() string {
	return PlaceholderTag + " " + placeholderPhrases[t.pick(len(placeholderPhrases))]
}

// cleanTranslation は応答の前後の空白と、1組の囲み引用符を取り除く
//
//	cleanTranslation(`  "你好"  `)  // 你好
//	cleanTranslation(`"a" "b"`)     // a" "b
func cleanTranslation(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		s = s[1 : len(s)-1]
	}
	return s
}

// translationErrorHint はエラーメッセージから原因の見当をつける
//
// 【注意】表示用のヒントのみ。プロバイダやAPIのバージョンによって文言が変わるため、
// 判定結果に依存した処理は行わない。
func translationErrorHint(err error) string {
	msg := err.Error()
	lower := strings.ToLower(msg)

	switch {
	case strings.Contains(strings.ToUpper(msg), "API_KEY") || strings.Contains(lower, "authentication"):
		return "Please check if GROQ_API_KEY is correct"
	case strings.Contains(lower, "quota") || strings.Contains(lower, "limit"):
		return "API quota may be exhausted"
	case strings.Contains(lower, "rate"):
		return "API request rate too high, please try again later"
	}
	return ""
}

// describeBackend はコンソール表示用のバックエンド説明を返す
func describeBackend(backend ChatCompleter) string {
	if m, ok := backend.(interface{ Model() string }); ok {
		return fmt.Sprintf("will use %s model", m.Model())
	}
	return "will use the configured translation backend"
}
