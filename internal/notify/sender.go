package notify

import (
	"context"
	"fmt"
	"net/mail"

	"github.com/wolfman30/pawcare-booking/pkg/logging"
)

// DefaultFromName signs clinic emails when no sender name is configured.
const DefaultFromName = "PawCare Veterinary Clinic"

// EmailSender delivers one email.
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// EmailMessage is a single-recipient email. HTML is optional.
type EmailMessage struct {
	To      string
	ToName  string
	Subject string
	Body    string
	HTML    string
}

// From is the sending identity shared by every provider.
type From struct {
	Email string
	Name  string
}

func (f From) withDefaults() From {
	if f.Name == "" {
		f.Name = DefaultFromName
	}
	return f
}

// Address renders the RFC 5322 "Name <email>" form.
func (f From) Address() string {
	return (&mail.Address{Name: f.Name, Address: f.Email}).String()
}

func (m EmailMessage) validate() error {
	if m.To == "" {
		return fmt.Errorf("notify: recipient required")
	}
	if m.Subject == "" {
		return fmt.Errorf("notify: subject required")
	}
	return nil
}

// LogSender logs instead of sending. It is used when no provider is configured.
type LogSender struct {
	logger *logging.Logger
}

func NewLogSender(logger *logging.Logger) *LogSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, msg EmailMessage) error {
	s.logger.Info("email delivery disabled, dropping message", "to", msg.To, "subject", msg.Subject)
	return nil
}
