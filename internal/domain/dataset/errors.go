package dataset

import "errors"

// Sentinel kinds for dataset errors.
var (
	ErrEmptyTable = errors.New("no observations")
)
