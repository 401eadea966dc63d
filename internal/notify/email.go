package notify

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/wolfman30/sitequote/pkg/logging"
)

// DefaultFromName is used when no sender name is configured.
const DefaultFromName = "Site Quotes"

// Message categories, passed to providers for filtering and analytics.
const (
	CategoryQuoteLead   = "quote_lead"
	CategoryContactForm = "contact_form"
)

// EmailSender delivers one rendered message. SendGrid, SES and the stub
// sender all satisfy it.
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// EmailMessage is a rendered email.
type EmailMessage struct {
	To       string
	ToName   string
	ReplyTo  string
	Subject  string
	Body     string // plain text
	HTML     string // optional
	Category string
}

func formatFrom(name, email string) string {
	if strings.TrimSpace(name) == "" {
		return email
	}
	return fmt.Sprintf("%s <%s>", name, email)
}

// StubEmailSender logs messages instead of sending them and keeps them for
// inspection.
type StubEmailSender struct {
	logger *logging.Logger

	mu   sync.Mutex
	sent []EmailMessage
}

// NewStubEmailSender creates a stub sender.
func NewStubEmailSender(logger *logging.Logger) *StubEmailSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &StubEmailSender{logger: logger}
}

// Send records msg and logs its envelope.
func (s *StubEmailSender) Send(ctx context.Context, msg EmailMessage) error {
	s.mu.Lock()
	s.sent = append(s.sent, msg)
	s.mu.Unlock()
	s.logger.Info("stub email sender: message not delivered",
		"to", msg.To,
		"reply_to", msg.ReplyTo,
		"subject", msg.Subject,
		"category", msg.Category,
	)
	return nil
}

// Sent returns the messages recorded so far.
func (s *StubEmailSender) Sent() []EmailMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]EmailMessage, len(s.sent))
	copy(out, s.sent)
	return out
}

var _ EmailSender = (*StubEmailSender)(nil)
