package domain

import "errors"

var (
	ErrSessionNotFound  = errors.New("rectification session not found")
	ErrStepIncomplete   = errors.New("rectification step is incomplete")
	ErrWrongStep        = errors.New("operation not allowed at this step")
	ErrUnknownArchetype = errors.New("unknown archetype")
)
