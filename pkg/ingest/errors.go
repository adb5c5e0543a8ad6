package ingest

import "errors"

var (
	// ErrValidation is returned for malformed or incomplete readings. The
	// reading is rejected and never buffered.
	ErrValidation = errors.New("invalid reading")
)
