package session

import (
	"errors"
	"fmt"
)

// ===== SESSION ERRORS =====

var (
	ErrAttemptNotFound         = errors.New("attempt not found")
	ErrAttemptNotActive        = errors.New("attempt is not active")
	ErrAttemptAlreadySubmitted = errors.New("attempt already submitted")
	ErrQuestionNotFound        = errors.New("question not found in attempt")
	ErrSessionNotHydrated      = errors.New("session is not hydrated")
	ErrHydrationFailed         = errors.New("failed to hydrate attempt")
	ErrSubmitFailed            = errors.New("failed to submit attempt")
)

// HydrationError is terminal for the attempt session: the start call failed
// and there is no snapshot to fall back on. The message is safe to surface to
// the learner.
type HydrationError struct {
	AssessmentID string
	Message      string
	Err          error
}

func (e *HydrationError) Error() string {
	return fmt.Sprintf("hydration failed for assessment %s: %s", e.AssessmentID, e.Message)
}

func (e *HydrationError) Unwrap() error {
	return e.Err
}

// GatewayError wraps a backend call failure with the operation that failed,
// so call sites can convert it to a user-facing message.
type GatewayError struct {
	Operation string
	Err       error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("backend %s failed: %v", e.Operation, e.Err)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}
