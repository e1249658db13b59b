package session

import (
	"time"

	"go.uber.org/zap"

	"github.com/cbrgm/hclocal/internal/protocol"
	"github.com/cbrgm/hclocal/internal/wiring"
)

// Config is the full set of construction inputs from §4.4.
type Config struct {
	Host string
	Mode Mode

	// AES mode.
	PSK64 string
	IV64  string

	// TLS-PSK mode.
	PSKIdentity     string
	TLSCipherString string

	AppName string
	AppID   string

	KeepaliveEnabled       bool
	KeepaliveIdleTimeout   time.Duration
	KeepaliveProbeInterval time.Duration
	KeepaliveUID           *uint32

	ConnectTimeout time.Duration

	// Notify is invoked for every inbound NOTIFY message. May be nil.
	Notify func(protocol.Message)

	Logger *zap.Logger
}

// WithInferredKeepaliveUID sets KeepaliveUID from desc per §4.4's
// "Keepalive UID inference (from device description)" rule, unless the
// caller already configured one explicitly.
func (c Config) WithInferredKeepaliveUID(desc protocol.DeviceDescription) Config {
	if c.KeepaliveUID == nil {
		if uid, ok := wiring.InferKeepaliveUID(desc); ok {
			c.KeepaliveUID = &uid
		}
	}
	return c
}

func (c Config) withDefaults() Config {
	if c.KeepaliveIdleTimeout == 0 {
		c.KeepaliveIdleTimeout = 60 * time.Second
	}
	if c.KeepaliveProbeInterval == 0 {
		c.KeepaliveProbeInterval = 10 * time.Second
	}
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = 60 * time.Second
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	return c
}
