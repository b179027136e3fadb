package model

import "errors"

var (
	// ErrConfigNotFound is returned when no fill config exists for an origin.
	ErrConfigNotFound = errors.New("no config found")
)
