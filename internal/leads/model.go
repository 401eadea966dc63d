package leads

import (
	"maps"
	"strings"
	"time"

	"github.com/wolfman30/sitequote/internal/quote"
)

// Record is an archived quote submission.
type Record struct {
	ID                string            `json:"id"`
	WebsiteType       string            `json:"website_type"`
	Label             string            `json:"label"`
	CustomDescription string            `json:"custom_description,omitempty"`
	NumPages          int               `json:"num_pages"`
	Price             int64             `json:"price"`
	DeliveryDays      int               `json:"delivery_days"`
	NotificationSent  bool              `json:"notification_sent"`
	SubmittedAt       time.Time         `json:"submitted_at"`
	ClientMetadata    map[string]string `json:"client_metadata,omitempty"`
}

// CreateRecordRequest carries the fields of a new record.
type CreateRecordRequest struct {
	WebsiteType       string
	Label             string
	CustomDescription string
	NumPages          int
	Price             int64
	DeliveryDays      int
	NotificationSent  bool
	SubmittedAt       time.Time
	ClientMetadata    map[string]string
}

// NewCreateRecordRequest builds a request from a submitted lead.
func NewCreateRecordRequest(lead quote.Lead, notificationSent bool) *CreateRecordRequest {
	return &CreateRecordRequest{
		WebsiteType:       lead.WebsiteType,
		Label:             lead.Label,
		CustomDescription: lead.CustomDescription,
		NumPages:          lead.NumPages,
		Price:             lead.Price,
		DeliveryDays:      lead.DeliveryDays,
		NotificationSent:  notificationSent,
		SubmittedAt:       lead.SubmittedAt,
		ClientMetadata:    maps.Clone(lead.ClientMetadata),
	}
}

// Validate validates the create record request
func (r *CreateRecordRequest) Validate() error {
	if strings.TrimSpace(r.WebsiteType) == "" {
		return ErrMissingWebsiteType
	}
	if r.NumPages < 1 {
		return ErrInvalidPages
	}
	if r.Price < 0 {
		return ErrNegativePrice
	}
	return nil
}

func (r *CreateRecordRequest) submittedAt() time.Time {
	if r.SubmittedAt.IsZero() {
		return time.Now().UTC()
	}
	return r.SubmittedAt.UTC()
}

// ListFilter narrows and pages a listing.
type ListFilter struct {
	WebsiteType string
	// NotificationSent, when set, keeps only leads whose operator email did
	// or did not go out.
	NotificationSent *bool
	// Since keeps leads submitted at or after it; zero means no bound.
	Since  time.Time
	Limit  int
	Offset int
}

func (f ListFilter) matches(r *Record) bool {
	if f.WebsiteType != "" && r.WebsiteType != f.WebsiteType {
		return false
	}
	if f.NotificationSent != nil && r.NotificationSent != *f.NotificationSent {
		return false
	}
	if !f.Since.IsZero() && r.SubmittedAt.Before(f.Since) {
		return false
	}
	return true
}

const (
	DefaultListLimit = 50
	MaxListLimit     = 100
)

func (f ListFilter) normalized() ListFilter {
	if f.Limit <= 0 || f.Limit > MaxListLimit {
		f.Limit = DefaultListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}
