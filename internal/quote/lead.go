package quote

import (
	"context"
	"time"

	"github.com/wolfman30/sitequote/internal/pricing"
)

// Lead is a submitted selection together with the estimate pinned at
// submission time. Its fields are the notification payload.
type Lead struct {
	WebsiteType       string            `json:"website_type"`
	Label             string            `json:"label"`
	CustomDescription string            `json:"custom_description,omitempty"`
	NumPages          int               `json:"num_pages"`
	Price             int64             `json:"price"`
	DeliveryDays      int               `json:"delivery_days"`
	SubmittedAt       time.Time         `json:"submitted_at"`
	ClientMetadata    map[string]string `json:"client_metadata,omitempty"`
}

// Estimate returns the pinned estimate carried by the lead.
func (l Lead) Estimate() pricing.Estimate {
	return pricing.Estimate{Price: l.Price, DeliveryDays: l.DeliveryDays}
}

// Notifier delivers a new lead to the site operator. Implementations may be
// slow or fail; the workflow tolerates both.
type Notifier interface {
	NotifyLead(ctx context.Context, lead Lead) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, lead Lead) error

// NotifyLead calls f.
func (f NotifierFunc) NotifyLead(ctx context.Context, lead Lead) error {
	return f(ctx, lead)
}

// SubmissionResult is the outcome of one Submit call.
type SubmissionResult struct {
	Accepted         bool             `json:"accepted"`
	NotificationSent bool             `json:"notification_sent"`
	Estimate         pricing.Estimate `json:"estimate"`
	Lead             *Lead            `json:"lead,omitempty"`
}
