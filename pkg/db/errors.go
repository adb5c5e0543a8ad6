package db

import "errors"

var (
	// ErrDeviceNotFound is returned when a device lookup misses.
	ErrDeviceNotFound = errors.New("device not found")
)
