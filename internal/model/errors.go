package model

import "errors"

var (
	// ErrUnknownAssociation marks a declaration that names an association the
	// schema does not define. It is a configuration error, not user input.
	ErrUnknownAssociation = errors.New("unknown association")
	ErrUnknownField       = errors.New("unknown field")
	ErrInvalidIdentifier  = errors.New("invalid identifier")
)
