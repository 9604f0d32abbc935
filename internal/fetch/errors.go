package fetch

import "errors"

// Sentinel kinds for fetch errors.
var (
	ErrNoCalls        = errors.New("nothing to fetch: set -endpoint or -batch")
	ErrBatchFile      = errors.New("invalid batch file")
	ErrPartialFailure = errors.New("some lookups failed")
)
