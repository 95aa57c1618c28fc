package repository

import "errors"

var (
	ErrPollNotFound   = errors.New("poll not found")
	ErrOptionNotFound = errors.New("option not found")
	ErrTooFewOptions  = errors.New("poll needs at least two options")
)
