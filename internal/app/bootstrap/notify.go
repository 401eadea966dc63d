package bootstrap

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	appconfig "github.com/wolfman30/sitequote/internal/config"
	"github.com/wolfman30/sitequote/internal/notify"
	"github.com/wolfman30/sitequote/pkg/logging"
)

// BuildEmailSender picks the configured email provider. ses may be nil
// unless the provider is "ses". A provider missing its credentials falls
// back to the stub sender.
func BuildEmailSender(cfg *appconfig.Config, ses *sesv2.Client, logger *logging.Logger) (notify.EmailSender, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	switch cfg.EmailProvider {
	case "sendgrid":
		sender := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger)
		if sender == nil {
			logger.Warn("sendgrid selected but SENDGRID_API_KEY empty; using stub sender")
			return notify.NewStubEmailSender(logger), nil
		}
		return sender, nil
	case "ses":
		sender := notify.NewSESSender(ses, notify.SESConfig{
			FromEmail:        cfg.SESFromEmail,
			FromName:         cfg.SESFromName,
			ConfigurationSet: cfg.SESConfigurationSet,
		}, logger)
		if sender == nil {
			logger.Warn("ses selected but no SES client; using stub sender")
			return notify.NewStubEmailSender(logger), nil
		}
		return sender, nil
	case "", "stub":
		return notify.NewStubEmailSender(logger), nil
	default:
		return nil, fmt.Errorf("bootstrap: unknown email provider %q", cfg.EmailProvider)
	}
}

// BuildNotifiers wires the lead and contact notifiers on top of sender.
func BuildNotifiers(cfg *appconfig.Config, sender notify.EmailSender, observer notify.DeliveryObserver, logger *logging.Logger) (*notify.LeadNotifier, *notify.ContactNotifier, error) {
	if cfg == nil {
		return nil, nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.LeadRecipient == "" {
		logger.Warn("LEAD_RECIPIENT_EMAIL empty; lead notifications will fail")
	}
	lead, err := notify.NewLeadNotifier(sender, notify.LeadNotifierConfig{
		Recipient:     cfg.LeadRecipient,
		RecipientName: cfg.LeadRecipientName,
		TemplateID:    cfg.LeadTemplateID,
	}, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("bootstrap: lead notifier: %w", err)
	}
	lead.WithObserver(observer)

	contactNotifier := notify.NewContactNotifier(sender, cfg.ContactRecipientOrDefault(), logger).WithObserver(observer)
	return lead, contactNotifier, nil
}
