package notify

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/wolfman30/sitequote/internal/contact"
	"github.com/wolfman30/sitequote/internal/notify/templates"
	"github.com/wolfman30/sitequote/internal/quote"
	"github.com/wolfman30/sitequote/pkg/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var notifyTracer = otel.Tracer("sitequote.internal.notify")

// DefaultLeadTemplateID names the built-in quote request template.
const DefaultLeadTemplateID = "quote_request"

var (
	// ErrRecipientMissing is returned when no destination address is configured.
	ErrRecipientMissing = errors.New("notify: recipient email not configured")
	// ErrUnknownTemplate is returned for a template id with no registered template.
	ErrUnknownTemplate = errors.New("notify: unknown template id")
	// ErrSenderMissing is returned when no email sender is configured.
	ErrSenderMissing = errors.New("notify: email sender not configured")
)

// DeliveryObserver records notification outcomes.
type DeliveryObserver interface {
	ObserveNotification(kind, status string, seconds float64)
}

// EmailTemplate is a subject/text/HTML triple rendered with the same data.
type EmailTemplate struct {
	Subject string
	Text    string
	HTML    string
}

var leadTemplates = map[string]EmailTemplate{
	DefaultLeadTemplateID: {
		Subject: "New quote request: {{.Label}} ({{.NumPages}} pages)",
		Text: `A new website quote was requested.

Website type: {{.Label}} ({{.WebsiteType}})
{{- if .CustomDescription}}
Description: {{.CustomDescription}}
{{- end}}
Pages: {{.NumPages}}
Estimated price: ${{.Price}}
Estimated delivery: {{.DeliveryDays}} days
Submitted at: {{.SubmittedAt}}
{{- range .ClientMetadata}}
{{.Key}}: {{.Value}}
{{- end}}
`,
		HTML: `<h2>New quote request</h2>
<table>
<tr><td>Website type</td><td>{{.Label}} ({{.WebsiteType}})</td></tr>
{{- if .CustomDescription}}
<tr><td>Description</td><td>{{.CustomDescription}}</td></tr>
{{- end}}
<tr><td>Pages</td><td>{{.NumPages}}</td></tr>
<tr><td>Estimated price</td><td>${{.Price}}</td></tr>
<tr><td>Estimated delivery</td><td>{{.DeliveryDays}} days</td></tr>
<tr><td>Submitted at</td><td>{{.SubmittedAt}}</td></tr>
{{- range .ClientMetadata}}
<tr><td>{{.Key}}</td><td>{{.Value}}</td></tr>
{{- end}}
</table>
`,
	},
}

var contactTemplate = EmailTemplate{
	Subject: "Contact form: {{.Name}}",
	Text: `{{.Name}} <{{.Email}}> wrote:

{{.Message}}
`,
	HTML: `<p><strong>{{.Name}}</strong> &lt;{{.Email}}&gt; wrote:</p>
<p>{{.Message}}</p>
`,
}

type metadataEntry struct {
	Key   string
	Value string
}

type leadEmailData struct {
	WebsiteType       string
	Label             string
	CustomDescription string
	NumPages          int
	Price             int64
	DeliveryDays      int
	SubmittedAt       string
	ClientMetadata    []metadataEntry
}

func newLeadEmailData(lead quote.Lead) leadEmailData {
	keys := make([]string, 0, len(lead.ClientMetadata))
	for k := range lead.ClientMetadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	meta := make([]metadataEntry, 0, len(keys))
	for _, k := range keys {
		meta = append(meta, metadataEntry{Key: k, Value: lead.ClientMetadata[k]})
	}
	return leadEmailData{
		WebsiteType:       lead.WebsiteType,
		Label:             lead.Label,
		CustomDescription: lead.CustomDescription,
		NumPages:          lead.NumPages,
		Price:             lead.Price,
		DeliveryDays:      lead.DeliveryDays,
		SubmittedAt:       lead.SubmittedAt.UTC().Format(time.RFC3339),
		ClientMetadata:    meta,
	}
}

// LeadNotifierConfig configures where lead notifications go.
type LeadNotifierConfig struct {
	Recipient     string
	RecipientName string
	TemplateID    string
}

// LeadNotifier emails each submitted lead to the site operator.
type LeadNotifier struct {
	email    EmailSender
	cfg      LeadNotifierConfig
	tmpl     EmailTemplate
	renderer templates.Renderer
	observer DeliveryObserver
	logger   *logging.Logger
}

// NewLeadNotifier creates a lead notifier. An empty template id selects the
// built-in quote request template.
func NewLeadNotifier(email EmailSender, cfg LeadNotifierConfig, logger *logging.Logger) (*LeadNotifier, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if strings.TrimSpace(cfg.TemplateID) == "" {
		cfg.TemplateID = DefaultLeadTemplateID
	}
	tmpl, ok := leadTemplates[cfg.TemplateID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTemplate, cfg.TemplateID)
	}
	return &LeadNotifier{
		email:  email,
		cfg:    cfg,
		tmpl:   tmpl,
		logger: logger,
	}, nil
}

// WithObserver records delivery outcomes on o.
func (n *LeadNotifier) WithObserver(o DeliveryObserver) *LeadNotifier {
	n.observer = o
	return n
}

// NotifyLead renders and sends the lead email.
func (n *LeadNotifier) NotifyLead(ctx context.Context, lead quote.Lead) error {
	ctx, span := notifyTracer.Start(ctx, "notify.lead")
	defer span.End()
	span.SetAttributes(
		attribute.String("sitequote.website_type", lead.WebsiteType),
		attribute.Int("sitequote.num_pages", lead.NumPages),
		attribute.String("sitequote.template_id", n.cfg.TemplateID),
	)

	msg, err := render(n.renderer, n.tmpl, "lead."+n.cfg.TemplateID, newLeadEmailData(lead))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "render failed")
		return err
	}
	msg.To = n.cfg.Recipient
	msg.ToName = n.cfg.RecipientName
	msg.Category = CategoryQuoteLead

	if err := deliver(ctx, n.email, msg, "lead", n.observer); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "send failed")
		n.logger.Error("notify: lead email failed", "error", err, "website_type", lead.WebsiteType)
		return err
	}
	n.logger.Info("notify: lead email sent", "website_type", lead.WebsiteType, "price", lead.Price)
	return nil
}

// ContactNotifier relays contact form messages to the site operator.
type ContactNotifier struct {
	email     EmailSender
	recipient string
	renderer  templates.Renderer
	observer  DeliveryObserver
	logger    *logging.Logger
}

// NewContactNotifier creates a contact relay sending to recipient.
func NewContactNotifier(email EmailSender, recipient string, logger *logging.Logger) *ContactNotifier {
	if logger == nil {
		logger = logging.Default()
	}
	return &ContactNotifier{
		email:     email,
		recipient: recipient,
		logger:    logger,
	}
}

// WithObserver records delivery outcomes on o.
func (n *ContactNotifier) WithObserver(o DeliveryObserver) *ContactNotifier {
	n.observer = o
	return n
}

// RelayContact emails the message with the visitor's address as reply-to.
func (n *ContactNotifier) RelayContact(ctx context.Context, req contact.Request) error {
	ctx, span := notifyTracer.Start(ctx, "notify.contact")
	defer span.End()

	msg, err := render(n.renderer, contactTemplate, "contact", req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "render failed")
		return err
	}
	msg.To = n.recipient
	msg.ReplyTo = req.Email
	msg.Category = CategoryContactForm

	if err := deliver(ctx, n.email, msg, "contact", n.observer); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "send failed")
		n.logger.Error("notify: contact email failed", "error", err)
		return err
	}
	return nil
}

func render(r templates.Renderer, tmpl EmailTemplate, name string, data any) (EmailMessage, error) {
	subject, err := r.Render(name+".subject", tmpl.Subject, data)
	if err != nil {
		return EmailMessage{}, fmt.Errorf("notify: render subject: %w", err)
	}
	body, err := r.Render(name+".text", tmpl.Text, data)
	if err != nil {
		return EmailMessage{}, fmt.Errorf("notify: render body: %w", err)
	}
	msg := EmailMessage{Subject: strings.TrimSpace(subject), Body: body}
	if tmpl.HTML != "" {
		html, err := r.RenderHTML(name+".html", tmpl.HTML, data)
		if err != nil {
			return EmailMessage{}, fmt.Errorf("notify: render html: %w", err)
		}
		msg.HTML = html
	}
	return msg, nil
}

func deliver(ctx context.Context, sender EmailSender, msg EmailMessage, kind string, observer DeliveryObserver) error {
	start := time.Now()
	err := send(ctx, sender, msg)
	if observer != nil {
		status := "sent"
		if err != nil {
			status = "failed"
		}
		observer.ObserveNotification(kind, status, time.Since(start).Seconds())
	}
	return err
}

func send(ctx context.Context, sender EmailSender, msg EmailMessage) error {
	if sender == nil {
		return ErrSenderMissing
	}
	if strings.TrimSpace(msg.To) == "" {
		return ErrRecipientMissing
	}
	if err := sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("notify: send: %w", err)
	}
	return nil
}

var (
	_ quote.Notifier = (*LeadNotifier)(nil)
	_ contact.Relay  = (*ContactNotifier)(nil)
)
