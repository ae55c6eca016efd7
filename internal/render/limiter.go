package render

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/semaphore"
)

// limited bounds concurrent in-flight oracle calls and applies a per-call
// timeout. Each call materializes a full artifact, so admission caps peak
// memory across all workers.
type limited struct {
	inner   Oracle
	sem     *semaphore.Weighted
	timeout time.Duration
}

// Limit wraps an oracle with an admission pool of maxInflight calls and a
// per-call timeout. Zero values disable the respective bound.
func Limit(o Oracle, maxInflight int64, timeout time.Duration) Oracle {
	l := &limited{inner: o, timeout: timeout}
	if maxInflight > 0 {
		l.sem = semaphore.NewWeighted(maxInflight)
	}
	return l
}

func (l *limited) Render(ctx context.Context, in Input) (*Artifact, error) {
	if l.sem != nil {
		if err := l.sem.Acquire(ctx, 1); err != nil {
			return nil, err
		}
		defer l.sem.Release(1)
	}

	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	artifact, err := l.inner.Render(ctx, in)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrRenderTimeout
		}
		return nil, err
	}
	return artifact, nil
}
