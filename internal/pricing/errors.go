package pricing

import "errors"

var (
	// ErrNoWebsiteTypes is returned when a catalog has no entries
	ErrNoWebsiteTypes = errors.New("catalog must define at least one website type")

	// ErrEmptyTypeID is returned when a website type has a blank id
	ErrEmptyTypeID = errors.New("website type id is required")

	// ErrDuplicateTypeID is returned when two website types share an id
	ErrDuplicateTypeID = errors.New("duplicate website type id")

	// ErrNegativePrice is returned for negative base or per-page prices
	ErrNegativePrice = errors.New("prices must not be negative")

	// ErrInvalidMaxPages is returned when max pages is below one
	ErrInvalidMaxPages = errors.New("max pages must be at least 1")

	// ErrInvalidMultiplier is returned when a discount multiplier is outside (0, 1]
	ErrInvalidMultiplier = errors.New("discount multiplier must be in (0, 1]")

	// ErrInvalidDivisor is returned when a delivery tier divisor is not positive
	ErrInvalidDivisor = errors.New("delivery divisor must be positive")
)
