package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSES struct {
	in  *sesv2.SendEmailInput
	err error
}

func (f *fakeSES) SendEmail(_ context.Context, in *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.in = in
	if f.err != nil {
		return nil, f.err
	}
	return &sesv2.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func TestFromAddress(t *testing.T) {
	from := From{Email: "desk@pawcare.example"}.withDefaults()
	assert.Equal(t, DefaultFromName, from.Name)
	assert.Equal(t, `"PawCare Veterinary Clinic" <desk@pawcare.example>`, from.Address())

	custom := From{Email: "desk@pawcare.example", Name: "Riverside"}.withDefaults()
	assert.Equal(t, `"Riverside" <desk@pawcare.example>`, custom.Address())
}

func TestNewSendGridSender(t *testing.T) {
	if s := NewSendGridSender("", From{Email: "desk@pawcare.example"}, nil); s != nil {
		t.Fatal("expected nil sender when API key is empty")
	}
	s := NewSendGridSender("test-key", From{Email: "desk@pawcare.example"}, nil)
	require.NotNil(t, s)
	assert.Equal(t, DefaultFromName, s.from.Name)
}

func TestSendGridBuild(t *testing.T) {
	s := NewSendGridSender("test-key", From{Email: "desk@pawcare.example", Name: "Riverside"}, nil)
	m := s.build(EmailMessage{To: "vet@pawcare.example", Subject: "New appointment", Body: "plain"})

	assert.Equal(t, "Riverside", m.From.Name)
	assert.Equal(t, "New appointment", m.Subject)
	require.Len(t, m.Personalizations, 1)
	assert.Equal(t, "vet@pawcare.example", m.Personalizations[0].To[0].Address)
	require.Len(t, m.Content, 2)
	assert.Equal(t, "plain", m.Content[1].Value, "html falls back to the text body")
	assert.Equal(t, []string{appointmentCategory}, m.Categories)
}

func TestSendGridSend_NilClient(t *testing.T) {
	s := &SendGridSender{}
	require.Error(t, s.Send(context.Background(), EmailMessage{To: "a@b.example", Subject: "x"}))
}

func TestSESSender(t *testing.T) {
	if s := NewSESSender(nil, From{}, nil); s != nil {
		t.Fatal("expected nil sender without a client")
	}

	api := &fakeSES{}
	s := NewSESSender(api, From{Email: "desk@pawcare.example"}, nil)
	require.NoError(t, s.Send(context.Background(), EmailMessage{
		To: "vet@pawcare.example", Subject: "Cancelled", Body: "text", HTML: "<p>html</p>",
	}))

	require.NotNil(t, api.in)
	assert.Equal(t, `"PawCare Veterinary Clinic" <desk@pawcare.example>`, aws.ToString(api.in.FromEmailAddress))
	assert.Equal(t, []string{"vet@pawcare.example"}, api.in.Destination.ToAddresses)
	assert.Equal(t, "Cancelled", aws.ToString(api.in.Content.Simple.Subject.Data))
	assert.Equal(t, "text", aws.ToString(api.in.Content.Simple.Body.Text.Data))
	assert.Equal(t, "<p>html</p>", aws.ToString(api.in.Content.Simple.Body.Html.Data))
}

func TestSESSender_Errors(t *testing.T) {
	api := &fakeSES{err: errors.New("throttled")}
	s := NewSESSender(api, From{Email: "desk@pawcare.example"}, nil)

	err := s.Send(context.Background(), EmailMessage{To: "vet@pawcare.example", Subject: "x", Body: "y"})
	require.ErrorContains(t, err, "throttled")

	api.in = nil
	require.Error(t, s.Send(context.Background(), EmailMessage{Subject: "no recipient"}))
	assert.Nil(t, api.in, "invalid messages never reach SES")
}

func TestLogSender(t *testing.T) {
	require.NoError(t, NewLogSender(nil).Send(context.Background(), EmailMessage{To: "a@b.example", Subject: "x"}))
}
