// Package entity implements the typed per-feature operations of §4.5:
// read/write value coercion and program select/start, against the
// Transport.send_sync contract of §6.
package entity

import (
	"context"
	"time"

	"github.com/cbrgm/hclocal/internal/protocol"
)

// Transport is the only thing the entity runtime depends on: one
// correlated request/response call. *session.Session satisfies this.
type Transport interface {
	SendSync(ctx context.Context, msg protocol.Message, timeout time.Duration) (protocol.Message, error)
}

const defaultTimeout = 30 * time.Second
