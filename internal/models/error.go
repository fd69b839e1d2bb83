package models

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for common failure conditions
var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrBadRequest         = errors.New("bad request")
	ErrRateLimited        = errors.New("too many attempts")
	ErrSessionNotFound    = errors.New("session not found")
	ErrBackendUnavailable = errors.New("identity backend unavailable")
	ErrInternalServer     = errors.New("internal server error")
)

// RateLimitError carries the remaining cooldown for a throttled identifier.
// errors.Is(err, ErrRateLimited) matches it, errors.As recovers the cooldown.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("too many attempts, retry in %s", e.RetryAfter.Round(time.Second))
}

func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimited
}
