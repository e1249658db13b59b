// Package clock provides a bounded-context helper for call sites that
// want a timeout without threading a cancel func through, the shape the
// example consumer binary uses to bound its initial Connect call.
package clock

import (
	"context"
	"time"
)

// NewBounded returns a context bounded by timeout that cancels itself as
// soon as it fires, without requiring the caller to hold and invoke a
// cancel func.
func NewBounded(parent context.Context, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(parent, timeout)
	go func() {
		<-ctx.Done()
		cancel()
	}()
	return ctx
}
