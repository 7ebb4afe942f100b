package domain

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrAlreadyExists    = errors.New("already exists")
	ErrNoActiveDomain   = errors.New("no active domain configured")
	ErrExhaustedRetries = errors.New("short code generation exhausted retries")
	ErrCodeTaken        = errors.New("short code already taken in domain")
	ErrInvalidURL       = errors.New("invalid destination url")
	ErrInvalidHostname  = errors.New("invalid hostname")
)
