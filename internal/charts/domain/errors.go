package domain

import "errors"

var (
	ErrArtifactNotFound = errors.New("chart artifact not found")
	ErrQueueFull        = errors.New("chart build queue is full")
	ErrLockNotAcquired  = errors.New("chart build lock is held elsewhere")
)

// ErrOrphanArtifact is returned when the owning profile no longer exists.
var ErrOrphanArtifact = errors.New("chart artifact references a missing profile")
