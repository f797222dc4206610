package pipeline

import (
	"bytes"
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEmailSender_Validation(t *testing.T) {
	_, err := NewEmailSender("", "pw", "to@example.com")
	assert.ErrorContains(t, err, "EMAIL_USER")

	_, err = NewEmailSender("from@example.com", "", "to@example.com")
	assert.ErrorContains(t, err, "EMAIL_PASS")

	_, err = NewEmailSender("from@example.com", "pw", "")
	assert.ErrorContains(t, err, "EMAIL_RECEIVER")
}

func TestNewEmailSender_Recipients(t *testing.T) {
	es, err := NewEmailSender("from@example.com", "pw", " a@example.com, b@example.com ,")
	require.NoError(t, err)

	assert.Equal(t, []string{"a@example.com", "b@example.com"}, es.config.To)
	assert.Equal(t, "smtp.gmail.com", es.config.SMTPHost)
	assert.Equal(t, "587", es.config.SMTPPort)
}

func TestEmailSender_BuildEmailMessage(t *testing.T) {
	es, err := NewEmailSender("from@example.com", "pw", "a@example.com,b@example.com")
	require.NoError(t, err)
	es.now = func() time.Time { return time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC) }

	msg := string(es.buildEmailMessage(DigestSubject, "<html>body</html>"))

	assert.True(t, strings.HasPrefix(msg, "From: from@example.com\r\nTo: a@example.com, b@example.com\r\n"))
	assert.Contains(t, msg, "Subject: =?utf-8?q?")
	assert.Contains(t, msg, "Date: Wed, 01 May 2024 08:00:00 +0000\r\n")
	assert.Contains(t, msg, "MIME-Version: 1.0\r\n")
	assert.True(t, strings.HasSuffix(msg, "Content-Type: text/html; charset=UTF-8\r\n\r\n<html>body</html>"))
}

func TestEmailSender_Send(t *testing.T) {
	es, err := NewEmailSender("from@example.com", "pw", "to@example.com")
	require.NoError(t, err)

	var (
		gotAddr string
		gotFrom string
		gotTo   []string
		gotMsg  []byte
		calls   int
	)
	es.sendMail = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		calls++
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		return nil
	}

	require.NoError(t, es.Send(context.Background(), "subject", "<p>hi</p>"))

	assert.Equal(t, 1, calls)
	assert.Equal(t, "smtp.gmail.com:587", gotAddr)
	assert.Equal(t, "from@example.com", gotFrom)
	assert.Equal(t, []string{"to@example.com"}, gotTo)
	assert.True(t, bytes.HasSuffix(gotMsg, []byte("<p>hi</p>")))
}

func TestEmailSender_SendFailsOnce(t *testing.T) {
	es, err := NewEmailSender("from@example.com", "pw", "to@example.com")
	require.NoError(t, err)

	calls := 0
	es.sendMail = func(string, smtp.Auth, string, []string, []byte) error {
		calls++
		return errors.New("535 5.7.8 Username and Password not accepted")
	}

	err = es.Send(context.Background(), "subject", "body")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "535")
	assert.Equal(t, 1, calls)
}

func TestEmailSender_SendCanceled(t *testing.T) {
	es, err := NewEmailSender("from@example.com", "pw", "to@example.com")
	require.NoError(t, err)

	called := false
	es.sendMail = func(string, smtp.Auth, string, []string, []byte) error {
		called = true
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, es.Send(ctx, "subject", "body"), context.Canceled)
	assert.False(t, called)
}

// fakeMailer は送信内容を記録するMailer
type fakeMailer struct {
	err     error
	subject string
	body    string
	sent    int
}

func (m *fakeMailer) Send(_ context.Context, subject, htmlBody string) error {
	m.sent++
	m.subject = subject
	m.body = htmlBody
	return m.err
}

func fullCredentials() EmailCredentials {
	return EmailCredentials{User: "from@example.com", Password: "pw", Receiver: "to@example.com"}
}

func TestDigestNotifier_NoMailer(t *testing.T) {
	var out bytes.Buffer
	n := &DigestNotifier{Credentials: fullCredentials(), Console: &out}

	assert.False(t, n.Notify(context.Background(), sampleHeadlines()))
	assert.Contains(t, out.String(), "Email sender not available, skipping email push")
}

func TestDigestNotifier_IncompleteCredentials(t *testing.T) {
	mailer := &fakeMailer{}
	creds := fullCredentials()
	creds.Receiver = ""

	var out bytes.Buffer
	n := &DigestNotifier{
		NewMailer:   func(string, string, string) (Mailer, error) { return mailer, nil },
		Credentials: creds,
		Console:     &out,
	}

	assert.False(t, n.Notify(context.Background(), sampleHeadlines()))
	assert.Contains(t, out.String(), "Email configuration incomplete, skipping email push")
	assert.Contains(t, out.String(), "EMAIL_USER, EMAIL_PASS, EMAIL_RECEIVER")
	assert.Equal(t, 0, mailer.sent)
}

func TestDigestNotifier_Sends(t *testing.T) {
	mailer := &fakeMailer{}
	var gotFrom, gotPassword, gotTo string

	var out bytes.Buffer
	n := &DigestNotifier{
		NewMailer: func(from, password, to string) (Mailer, error) {
			gotFrom, gotPassword, gotTo = from, password, to
			return mailer, nil
		},
		Credentials: fullCredentials(),
		Console:     &out,
	}

	assert.True(t, n.Notify(context.Background(), sampleHeadlines()))
	assert.Equal(t, 1, mailer.sent)
	assert.Equal(t, DigestSubject, mailer.subject)
	assert.Equal(t, RenderDigestHTML(sampleHeadlines()), mailer.body)
	assert.Equal(t, "from@example.com", gotFrom)
	assert.Equal(t, "pw", gotPassword)
	assert.Equal(t, "to@example.com", gotTo)
	assert.Contains(t, out.String(), "✅ Email successfully sent to: to@example.com")
}

func TestDigestNotifier_SendFailure(t *testing.T) {
	mailer := &fakeMailer{err: errors.New("connection refused")}

	var out bytes.Buffer
	n := &DigestNotifier{
		NewMailer:   func(string, string, string) (Mailer, error) { return mailer, nil },
		Credentials: fullCredentials(),
		Console:     &out,
	}

	assert.False(t, n.Notify(context.Background(), sampleHeadlines()))
	assert.Equal(t, 1, mailer.sent)
	assert.NotContains(t, out.String(), "successfully sent")
}

func TestDigestNotifier_MailerConstructionFails(t *testing.T) {
	var out bytes.Buffer
	n := &DigestNotifier{
		NewMailer:   func(string, string, string) (Mailer, error) { return nil, errors.New("bad address") },
		Credentials: fullCredentials(),
		Console:     &out,
	}

	assert.False(t, n.Notify(context.Background(), nil))
}
