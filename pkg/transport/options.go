package transport

import (
	"crypto/tls"
	"time"
)

type Option func(*Conn)

func WithDialTimeout(d time.Duration) Option {
	return func(c *Conn) { c.dialTimeout = d }
}

func WithTLSConfig(cfg *tls.Config) Option {
	return func(c *Conn) { c.tlsConfig = cfg }
}

func OnBinaryMessage(f func([]byte)) Option {
	return func(c *Conn) { c.onBinary = f }
}

func OnTextMessage(f func([]byte)) Option {
	return func(c *Conn) { c.onText = f }
}

func OnError(f func(error)) Option {
	return func(c *Conn) { c.onError = f }
}
