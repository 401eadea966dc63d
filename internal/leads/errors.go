package leads

import "errors"

var (
	// ErrMissingWebsiteType is returned when a record has no website type
	ErrMissingWebsiteType = errors.New("leads: website type is required")

	// ErrInvalidPages is returned when the page count is below one
	ErrInvalidPages = errors.New("leads: page count must be at least 1")

	// ErrNegativePrice is returned when the pinned price is negative
	ErrNegativePrice = errors.New("leads: price must not be negative")

	// ErrLeadNotFound is returned when a lead is not found
	ErrLeadNotFound = errors.New("leads: lead not found")
)
