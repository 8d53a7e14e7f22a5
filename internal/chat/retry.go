package chat

import (
	"context"
	"time"
)

// DefaultTimeout is the per-call timeout every remote provider enforces
// (spec §4.6).
const DefaultTimeout = 6 * time.Second

// withRetry runs call once; on a transient failure it retries exactly
// once before giving up, matching every remote provider's contract.
func withRetry(ctx context.Context, call func(ctx context.Context) (string, error)) (string, error) {
	cctx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	text, err := call(cctx)
	cancel()
	if err == nil {
		return text, nil
	}
	if IsFatal(err) {
		return "", err
	}

	cctx, cancel = context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()
	return call(cctx)
}
