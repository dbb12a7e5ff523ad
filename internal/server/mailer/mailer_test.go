package mailer

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/config"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSendGrid struct {
	got  *mail.SGMailV3
	resp *rest.Response
	err  error
}

func (f *fakeSendGrid) SendWithContext(_ context.Context, m *mail.SGMailV3) (*rest.Response, error) {
	f.got = m
	return f.resp, f.err
}

func TestSendGridSender_Send(t *testing.T) {
	fake := &fakeSendGrid{resp: &rest.Response{StatusCode: 202}}
	s := &SendGridSender{client: fake, from: "no-reply@example.com", fromName: "GophAuth", sandbox: true}

	require.NoError(t, s.Send(context.Background(), "alice@example.com", "Hi", "<p>x</p>"))

	require.NotNil(t, fake.got)
	assert.Equal(t, "Hi", fake.got.Subject)
	assert.Equal(t, "no-reply@example.com", fake.got.From.Address)
	assert.Equal(t, "alice@example.com", fake.got.Personalizations[0].To[0].Address)
	require.NotNil(t, fake.got.MailSettings)
	assert.True(t, *fake.got.MailSettings.SandboxMode.Enable)
}

func TestSendGridSender_Errors(t *testing.T) {
	t.Run("transport", func(t *testing.T) {
		boom := errors.New("dial")
		s := &SendGridSender{client: &fakeSendGrid{err: boom}}
		assert.ErrorIs(t, s.Send(context.Background(), "a@b.c", "s", "b"), boom)
	})
	t.Run("status", func(t *testing.T) {
		s := &SendGridSender{client: &fakeSendGrid{resp: &rest.Response{StatusCode: 401, Body: "nope"}}}
		err := s.Send(context.Background(), "a@b.c", "s", "b")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "401")
	})
}

type fakeSES struct {
	got *sesv2.SendEmailInput
	err error
}

func (f *fakeSES) SendEmail(_ context.Context, in *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.got = in
	return &sesv2.SendEmailOutput{MessageId: aws.String("m1")}, f.err
}

func TestSESSender_Send(t *testing.T) {
	fake := &fakeSES{}
	s := &SESSender{client: fake, from: formatAddress("GophAuth", "no-reply@example.com")}

	require.NoError(t, s.Send(context.Background(), "alice@example.com", "Hi", "<p>x</p>"))

	require.NotNil(t, fake.got)
	assert.Equal(t, `"GophAuth" <no-reply@example.com>`, aws.ToString(fake.got.FromEmailAddress))
	assert.Equal(t, []string{"alice@example.com"}, fake.got.Destination.ToAddresses)
	assert.Equal(t, "Hi", aws.ToString(fake.got.Content.Simple.Subject.Data))
	assert.Equal(t, "<p>x</p>", aws.ToString(fake.got.Content.Simple.Body.Html.Data))
}

func TestSESSender_Error(t *testing.T) {
	boom := errors.New("throttled")
	s := &SESSender{client: &fakeSES{err: boom}, from: "a@b.c"}
	assert.ErrorIs(t, s.Send(context.Background(), "x@y.z", "s", "b"), boom)
}

func TestNewSESSender_StaticCredentials(t *testing.T) {
	s, err := NewSESSender(context.Background(), SESOptions{
		Region:          "eu-west-1",
		AccessKeyID:     "AKID",
		SecretAccessKey: "secret",
		Endpoint:        "http://localhost:4566",
		From:            "no-reply@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "no-reply@example.com", s.from)
}

func TestLogSender(t *testing.T) {
	var buf bytes.Buffer
	s := NewLogSender(logging.NewJSON(&buf, "info"))

	require.NoError(t, s.Send(context.Background(), "alice@example.com", "Hi", "body"))
	assert.Contains(t, buf.String(), `"to":"alice@example.com"`)
	assert.Contains(t, buf.String(), `"module":"mailer"`)
}

func TestNew_SelectsProvider(t *testing.T) {
	ctx := context.Background()
	log := logging.Nop()

	s, err := New(ctx, &config.Config{MailProvider: config.MailProviderLog}, log)
	require.NoError(t, err)
	assert.IsType(t, &LogSender{}, s)

	s, err = New(ctx, &config.Config{MailProvider: config.MailProviderSendGrid, SendGridAPIKey: "k"}, log)
	require.NoError(t, err)
	assert.IsType(t, &SendGridSender{}, s)

	_, err = New(ctx, &config.Config{MailProvider: "pigeon"}, log)
	assert.Error(t, err)
}

func TestVerificationBody(t *testing.T) {
	body, err := VerificationBody("123456", 15)
	require.NoError(t, err)
	assert.Contains(t, body, "123456")
	assert.Contains(t, body, "15 minutes")
}
