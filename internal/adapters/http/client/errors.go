package client

import "errors"

// Sentinel kinds for client construction errors.
var (
	ErrBaseURL = errors.New("invalid base url")
)
