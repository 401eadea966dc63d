package contact

import "errors"

var (
	ErrNameRequired    = errors.New("contact: name is required")
	ErrEmailRequired   = errors.New("contact: email is required")
	ErrInvalidEmail    = errors.New("contact: email is invalid")
	ErrMessageRequired = errors.New("contact: message is required")
)
