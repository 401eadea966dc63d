package notify

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/wolfman30/sitequote/pkg/logging"
)

const sesCharset = "UTF-8"

// sesAPI is the slice of the SES client the sender uses.
type sesAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESConfig holds configuration for AWS SES.
type SESConfig struct {
	FromEmail        string
	FromName         string
	ConfigurationSet string
}

// SESSender sends email through SES v2 simple content.
type SESSender struct {
	client sesAPI
	from   string
	cfgSet string
	logger *logging.Logger
}

// NewSESSender returns nil for a nil client.
func NewSESSender(client *sesv2.Client, cfg SESConfig, logger *logging.Logger) *SESSender {
	if client == nil {
		return nil
	}
	return newSESSender(client, cfg, logger)
}

func newSESSender(client sesAPI, cfg SESConfig, logger *logging.Logger) *SESSender {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.FromName == "" {
		cfg.FromName = DefaultFromName
	}
	return &SESSender{
		client: client,
		from:   formatFrom(cfg.FromName, cfg.FromEmail),
		cfgSet: cfg.ConfigurationSet,
		logger: logger,
	}
}

// Send delivers msg.
func (s *SESSender) Send(ctx context.Context, msg EmailMessage) error {
	if s == nil || s.client == nil {
		return fmt.Errorf("notify: SES client not configured")
	}

	out, err := s.client.SendEmail(ctx, s.input(msg))
	if err != nil {
		s.logger.Error("SES send failed", "error", err, "to", msg.To, "category", msg.Category)
		return fmt.Errorf("notify: SES send failed: %w", err)
	}

	s.logger.Info("email sent via SES", "to", msg.To, "category", msg.Category, "message_id", aws.ToString(out.MessageId))
	return nil
}

func (s *SESSender) input(msg EmailMessage) *sesv2.SendEmailInput {
	body := &types.Body{}
	if msg.Body != "" {
		body.Text = sesContent(msg.Body)
	}
	if msg.HTML != "" {
		body.Html = sesContent(msg.HTML)
	}

	in := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(s.from),
		Destination:      &types.Destination{ToAddresses: []string{formatFrom(msg.ToName, msg.To)}},
		Content: &types.EmailContent{
			Simple: &types.Message{Subject: sesContent(msg.Subject), Body: body},
		},
	}
	if msg.ReplyTo != "" {
		in.ReplyToAddresses = []string{msg.ReplyTo}
	}
	if msg.Category != "" {
		in.EmailTags = []types.MessageTag{{Name: aws.String("category"), Value: aws.String(msg.Category)}}
	}
	if s.cfgSet != "" {
		in.ConfigurationSetName = aws.String(s.cfgSet)
	}
	return in
}

func sesContent(data string) *types.Content {
	return &types.Content{Data: aws.String(data), Charset: aws.String(sesCharset)}
}

var _ EmailSender = (*SESSender)(nil)
