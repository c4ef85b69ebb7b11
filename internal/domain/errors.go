package domain

import "errors"

var (
	// ErrNotFound indicates that a referenced record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument indicates malformed input to a domain operation.
	ErrInvalidArgument = errors.New("invalid argument")
)
