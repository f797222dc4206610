// =============================================================================
// email.go - メール送信モジュール
// =============================================================================
//
// このファイルはGmail SMTPを使用したダイジェストメールの送信機能を提供します。
//
// =============================================================================
// 【処理の流れ】
// =============================================================================
//
// 1. 送信条件（送信手段 + 3つの認証情報）を確認し、欠けていればスキップ
// 2. 先頭10件からHTMLダイジェストを生成（digest.go）
// 3. RFC 5322準拠のメールメッセージを構築
// 4. Gmail SMTP経由で1回だけ送信（失敗してもログのみ、パイプラインは続行）
//
// =============================================================================
// 【必要な環境変数】
// =============================================================================
//
//   EMAIL_USER     - 送信元メールアドレス（Gmail）
//   EMAIL_PASS     - Gmailアプリパスワード（通常のパスワードではない！）
//   EMAIL_RECEIVER - 送信先メールアドレス（カンマ区切りで複数可）
//
// =============================================================================
package pipeline

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/smtp"
	"os"
	"strings"
	"time"
)

// =============================================================================
// 設定・構造体
// =============================================================================

// Mailer はHTMLメールを送信する
type Mailer interface {
	Send(ctx context.Context, subject, htmlBody string) error
}

// EmailConfig はメール送信の設定を保持する
type EmailConfig struct {
	From     string   // 送信元メールアドレス
	Password string   // Gmailアプリパスワード
	To       []string // 送信先メールアドレス（複数可）
	SMTPHost string   // SMTPサーバーホスト（"smtp.gmail.com"）
	SMTPPort string   // SMTPポート（"587"）
}

// sendMailFunc はsmtp.SendMailのシグネチャ（テストで差し替える）
type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// EmailSender はGmail SMTPでメールを送信するMailer
type EmailSender struct {
	config   EmailConfig
	sendMail sendMailFunc
	now      func() time.Time
}

// =============================================================================
// 初期化
// =============================================================================

// NewEmailSender は新しいメール送信者を作成する
//
// 引数:
//
//	from:     送信元メールアドレス
//	password: Gmailアプリパスワード
//	to:       送信先メールアドレス（カンマ区切りで複数可）
func NewEmailSender(from, password, to string) (*EmailSender, error) {
	// 必須パラメータのチェック
	if from == "" {
		return nil, fmt.Errorf("EMAIL_USER is required")
	}
	if password == "" {
		return nil, fmt.Errorf("EMAIL_PASS is required (use Gmail App Password)")
	}
	if to == "" {
		return nil, fmt.Errorf("EMAIL_RECEIVER is required")
	}

	// カンマ区切りのメールアドレスを分割
	var toList []string
	for _, addr := range strings.Split(to, ",") {
		if addr = strings.TrimSpace(addr); addr != "" {
			toList = append(toList, addr)
		}
	}

	return &EmailSender{
		config: EmailConfig{
			From:     from,
			Password: password,
			To:       toList,
			SMTPHost: "smtp.gmail.com",
			SMTPPort: "587", // TLSポート
		},
		sendMail: smtp.SendMail,
		now:      time.Now,
	}, nil
}

// NewSMTPMailer はNewEmailSenderをMailerとして返す（DigestNotifier用）
func NewSMTPMailer(from, password, to string) (Mailer, error) {
	sender, err := NewEmailSender(from, password, to)
	if err != nil {
		return nil, err
	}
	return sender, nil
}

// =============================================================================
// メール送信
// =============================================================================

// Send はHTMLメールを1回だけ送信する
//
// net/smtpはコンテキストに対応していないため、送信前のキャンセルのみ確認する。
func (es *EmailSender) Send(ctx context.Context, subject, htmlBody string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := es.buildEmailMessage(subject, htmlBody)
	return es.send(msg)
}

// buildEmailMessage はRFC 5322準拠のメールメッセージを構築する
//
// 【RFC 5322フォーマット】
//
//	From: sender@example.com\r\n
//	To: recipient@example.com\r\n
//	Subject: =?utf-8?q?...?=\r\n
//	MIME-Version: 1.0\r\n
//	Content-Type: text/html; charset=UTF-8\r\n
//	\r\n
//	<html>...
//
// 件名は絵文字を含むためMIMEエンコードする。
func (es *EmailSender) buildEmailMessage(subject, body string) []byte {
	var msg strings.Builder

	msg.WriteString(fmt.Sprintf("From: %s\r\n", es.config.From))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", strings.Join(es.config.To, ", ")))
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject)))
	msg.WriteString(fmt.Sprintf("Date: %s\r\n", es.now().Format(time.RFC1123Z)))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	msg.WriteString("\r\n") // ヘッダーと本文の区切り
	msg.WriteString(body)

	return []byte(msg.String())
}

// send はGmail SMTPを使用してメールを送信する
//
// 【SMTP認証】
//
//	PLAIN認証を使用（ユーザー名とパスワードを送信）
//	STARTTLS（ポート587）で暗号化される
func (es *EmailSender) send(msg []byte) error {
	auth := smtp.PlainAuth("", es.config.From, es.config.Password, es.config.SMTPHost)
	addr := es.config.SMTPHost + ":" + es.config.SMTPPort

	if err := es.sendMail(addr, auth, es.config.From, es.config.To, msg); err != nil {
		return fmt.Errorf("SMTP send failed: %w (check EMAIL_PASS is a Gmail App Password)", err)
	}
	return nil
}

// =============================================================================
// ダイジェスト配信
// =============================================================================

// EmailCredentials は環境変数から読み込んだメール認証情報
type EmailCredentials struct {
	User     string
	Password string
	Receiver string
}

// complete は3つの認証情報がすべて設定されているかを返す
func (c EmailCredentials) complete() bool {
	return c.User != "" && c.Password != "" && c.Receiver != ""
}

// DigestNotifier は送信条件を確認してダイジェストメールを送る
//
// NewMailer がnilの場合は「送信手段なし」として扱い、送信をスキップする。
type DigestNotifier struct {
	NewMailer   func(from, password, to string) (Mailer, error)
	Credentials EmailCredentials
	Console     io.Writer
}

// Notify はダイジェストを送信する
//
// 送信した場合はtrueを返す。スキップはコンソールに、失敗はログに出すだけで
// エラーは返さない。
func (n *DigestNotifier) Notify(ctx context.Context, headlines []Headline) bool {
	out := n.Console
	if out == nil {
		out = os.Stdout
	}

	if n.NewMailer == nil {
		fmt.Fprintln(out, "⚠️  Email sender not available, skipping email push")
		return false
	}
	if !n.Credentials.complete() {
		fmt.Fprintln(out, "⚠️  Email configuration incomplete, skipping email push")
		fmt.Fprintln(out, "💡 Tip: Add EMAIL_USER, EMAIL_PASS, EMAIL_RECEIVER to .env file")
		return false
	}

	fmt.Fprintln(out, "\n📧 Sending email push...")

	mailer, err := n.NewMailer(n.Credentials.User, n.Credentials.Password, n.Credentials.Receiver)
	if err != nil {
		warnf("Email sending failed: %v", err)
		return false
	}

	digest := BuildDigest(headlines)
	if err := mailer.Send(ctx, digest.Subject, digest.HTML); err != nil {
		warnf("Email sending failed: %v", err)
		return false
	}

	fmt.Fprintf(out, "✅ Email successfully sent to: %s\n", n.Credentials.Receiver)
	return true
}
