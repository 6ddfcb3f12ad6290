// internal/errors/errors.go
package errors

import (
	"errors"
	"fmt"
)

// ErrMissingSignature is returned when a webhook request carries no signature
// header. The request is rejected before any payload inspection.
var ErrMissingSignature = errors.New("missing webhook signature")

// ErrInvalidSignature is returned when the recomputed HMAC digest does not
// match the header-supplied signature.
var ErrInvalidSignature = errors.New("invalid webhook signature")

// ErrNoSnapshot is returned when a historical leaderboard is requested for a
// (year, week) that was never archived.
var ErrNoSnapshot = errors.New("no leaderboard snapshot for requested week")

// ErrRepoNotFound is returned when a repository detail lookup misses.
var ErrRepoNotFound = errors.New("repository not found")

// IgnoredEventError marks a payload that was authenticated but deliberately
// produces no state change (wrong event type or untracked branch). It is an
// accept-and-no-op signal, not a failure.
type IgnoredEventError struct {
	Reason string
}

func (e *IgnoredEventError) Error() string {
	return fmt.Sprintf("event ignored: %s", e.Reason)
}

// IsIgnored reports whether err marks an accepted-but-ignored event.
func IsIgnored(err error) bool {
	var ig *IgnoredEventError
	return errors.As(err, &ig)
}
