package domain

import "errors"

// Sentinel errors used across layers.
var (
	ErrTimerRunning     = errors.New("timer is running")
	ErrInvalidDuration  = errors.New("duration must be positive and at most 24h")
	ErrElapsedTooLong   = errors.New("current phase already ran longer than the new duration")
	ErrSchedulerStopped = errors.New("scheduler stopped")
)
