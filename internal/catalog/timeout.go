package catalog

import (
	"context"
	"time"
)

type timeoutLookup struct {
	next    Lookup
	timeout time.Duration
}

// WithTimeout bounds every Resolve call on next by d. A call that runs past
// the deadline fails with ErrUnavailable.
func WithTimeout(next Lookup, d time.Duration) Lookup {
	if d <= 0 {
		return next
	}
	return &timeoutLookup{next: next, timeout: d}
}

func (t *timeoutLookup) Resolve(ctx context.Context, ids []string) (map[string]Product, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	type result struct {
		products map[string]Product
		err      error
	}
	done := make(chan result, 1)
	go func() {
		products, err := t.next.Resolve(ctx, ids)
		done <- result{products, err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return nil, unavailable("lookup", r.err)
		}
		return r.products, nil
	case <-ctx.Done():
		return nil, unavailable("lookup", ctx.Err())
	}
}
