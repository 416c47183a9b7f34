package script

import (
	"context"
	"fmt"
	"time"
)

// waitWithTimeout waits for the script result, giving up when the request
// context ends or timeout passes. A script given up on keeps running in
// its goroutine, but its binding is closed first, so it can no longer
// touch the node.
func waitWithTimeout(ctx context.Context, ch <-chan evalResult, b *binding, timeout time.Duration) error {
	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case res := <-ch:
		return res.err
	case <-ctx.Done():
		b.close()
		return fmt.Errorf("script abandoned: %w", ctx.Err())
	case <-expired:
		b.close()
		return fmt.Errorf("script timed out after %s", timeout)
	}
}
