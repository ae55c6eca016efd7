package render

import (
	"context"
	"errors"
	"fmt"
)

// Oracle is the narrow interface to the external paginating renderer. It
// turns styled content into a paginated artifact and is treated as a black
// box by everything above it.
type Oracle interface {
	Render(ctx context.Context, in Input) (*Artifact, error)
}

// ErrRenderTimeout is returned when a single oracle call exceeds its
// deadline. The whole two-pass cycle is safe to retry from scratch.
var ErrRenderTimeout = errors.New("render timed out")

// OracleError is a failure reported by the rendering oracle. Transient
// failures (5xx, connection resets) may be retried; permanent ones are
// surfaced to the caller.
type OracleError struct {
	Status    int
	Message   string
	Transient bool
}

func (e *OracleError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("render oracle: status %d: %s", e.Status, e.Message)
	}
	return "render oracle: " + e.Message
}

// IsRetryable reports whether an oracle error is worth retrying within the
// current pass. Timeouts are not retried per call; the job layer may retry
// the whole cycle.
func IsRetryable(err error) bool {
	var oe *OracleError
	return errors.As(err, &oe) && oe.Transient
}
