package service

import (
	"context"
	"errors"
	"fmt"
)

// Engine errors surfaced to callers. The first five are terminal for the
// triggering request; ErrStorageTimeout is the only retryable kind, and the
// retry (with backoff) belongs to the caller — the engine never retries a
// storage write itself, to avoid double-recording.
var (
	ErrSessionConflict = errors.New("an active session already exists for this class today")
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionClosed   = errors.New("session is not accepting check-ins")
	ErrCodeMismatch    = errors.New("submitted code does not match the current session code")
	ErrNotEnrolled     = errors.New("student is not enrolled in the session's class")
	ErrStorageTimeout  = errors.New("storage operation timed out")
)

// wrapStorage annotates a storage error with the failed operation and
// reclassifies context deadline hits as ErrStorageTimeout so callers can
// tell transient failures from terminal ones.
func wrapStorage(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, ErrStorageTimeout)
	}
	return fmt.Errorf("%s: %w", op, err)
}
