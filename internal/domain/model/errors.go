package domain

import (
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("not found")

var ErrAlreadyExists = errors.New("already exists")

var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrFeedUnavailable marks failures talking to the external todo feed
// (unreachable, non-success status, malformed body).
var ErrFeedUnavailable = errors.New("feed unavailable")

// ValidationError rejects bad input before anything touches the store.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// LimitError rejects a create or update that would push a user past the
// incomplete-todo ceiling.
type LimitError struct {
	UserID int64
	Max    int
}

func NewLimitError(userID int64) *LimitError {
	return &LimitError{UserID: userID, Max: MaxIncomplete}
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("user %d already has %d incomplete todos; complete some todos before adding more incomplete ones", e.UserID, e.Max)
}
