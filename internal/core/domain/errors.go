package domain

import "errors"

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrPollNotFound = errors.New("poll not found")
	ErrPollExpired  = errors.New("poll has expired")
	ErrPollFull     = errors.New("poll has reached its response limit")
	ErrConflict     = errors.New("poll was modified concurrently")
	ErrStore        = errors.New("store unavailable")
)
