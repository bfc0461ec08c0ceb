package domain

import "errors"

var (
	ErrProfileNotFound = errors.New("birth profile not found")
	ErrInvalidProfile  = errors.New("invalid birth profile")
)
