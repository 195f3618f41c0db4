package domain

import "errors"

var (
	// ErrNotFound is returned when no record matches the requested alias
	ErrNotFound = errors.New("alias not found")

	// ErrAliasConflict is returned when an alias violates the uniqueness constraint
	ErrAliasConflict = errors.New("alias already exists")

	// ErrConnection is returned when the store is unreachable or rejects the credentials
	ErrConnection = errors.New("store connection failed")

	// ErrConfig is returned when the config file is missing, malformed or invalid
	ErrConfig = errors.New("invalid configuration")

	// ErrInvalidURL is returned for an empty destination URL
	ErrInvalidURL = errors.New("invalid URL")
)
