package model

import "errors"

// Sentinel errors for record validation.
var (
	// ErrMalformedRecord marks a record that carries neither a url nor a name and start date.
	ErrMalformedRecord = errors.New("malformed record")
)
