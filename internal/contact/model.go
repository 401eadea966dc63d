package contact

import (
	"context"
	"net/mail"
	"strings"
)

// Request is a contact form submission.
type Request struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// Normalize trims surrounding whitespace from every field.
func (r *Request) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	r.Message = strings.TrimSpace(r.Message)
}

// Validate reports the first missing or malformed field.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return ErrNameRequired
	}
	email := strings.TrimSpace(r.Email)
	if email == "" {
		return ErrEmailRequired
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return ErrInvalidEmail
	}
	if strings.TrimSpace(r.Message) == "" {
		return ErrMessageRequired
	}
	return nil
}

// Relay forwards a validated contact message to the site owner.
type Relay interface {
	RelayContact(ctx context.Context, req Request) error
}

// RelayFunc adapts a function to Relay.
type RelayFunc func(ctx context.Context, req Request) error

func (f RelayFunc) RelayContact(ctx context.Context, req Request) error {
	return f(ctx, req)
}
