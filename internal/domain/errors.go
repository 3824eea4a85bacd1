package domain

import "errors"

var (
	// ErrUnauthorized means the request carried a bad or missing channel key.
	ErrUnauthorized = errors.New("bad or missing channel key")
	// ErrInvalidIdentifier means an external identifier tag was malformed.
	ErrInvalidIdentifier = errors.New("invalid external identifier")
	// ErrInvalidPhone means a phone number was not in international format.
	ErrInvalidPhone = errors.New("phone must be in international +... format")
	// ErrPhoneNotFound means a phone number resolved to no Telegram account.
	ErrPhoneNotFound = errors.New("no account found for phone")
	// ErrNoProfilePhoto means the contact has no profile photo at all.
	ErrNoProfilePhoto = errors.New("contact has no profile photo")
	// ErrNotSupported means the underlying Telegram client cannot perform
	// the requested operation.
	ErrNotSupported = errors.New("operation not supported by this client")
)
