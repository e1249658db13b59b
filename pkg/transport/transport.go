// Package transport wraps a single duplex WebSocket connection with the
// two frame-kind handlers the session engine needs (§4.4): a binary
// handler for AES-framed traffic, a text handler for TLS-PSK traffic.
// Writes are serialised through a mutex, since gorilla/websocket forbids
// concurrent writers on one connection.
package transport

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var ErrClosed = errors.New("transport: connection closed")

// Conn is a dialled WebSocket connection. The zero value is not usable;
// use New.
type Conn struct {
	dialTimeout time.Duration
	tlsConfig   *tls.Config

	onBinary func([]byte)
	onText   func([]byte)
	onError  func(error)

	ws *websocket.Conn

	writeMu sync.Mutex
	mu      sync.Mutex
	closed  bool
}

func New(opts ...Option) *Conn {
	c := &Conn{dialTimeout: 15 * time.Second}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Dial opens the WebSocket at url and starts the background read loop.
// url's scheme selects plaintext (ws://) or TLS (wss://) transport; the
// Conn's configured tls.Config, if any, is used for the latter.
func (c *Conn) Dial(ctx context.Context, url string) error {
	dialer := &websocket.Dialer{
		HandshakeTimeout: c.dialTimeout,
		TLSClientConfig:  c.tlsConfig,
	}
	ws, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.ws = ws
	c.closed = false
	c.mu.Unlock()

	go c.readLoop()
	return nil
}

func (c *Conn) readLoop() {
	for {
		kind, msg, err := c.ws.ReadMessage()
		if err != nil {
			c.closeWithError(err)
			return
		}
		switch kind {
		case websocket.BinaryMessage:
			if c.onBinary != nil {
				c.onBinary(msg)
			}
		case websocket.TextMessage:
			if c.onText != nil {
				c.onText(msg)
			}
		}
	}
}

func (c *Conn) closeWithError(err error) {
	c.Close()
	if c.onError != nil && !errors.Is(err, io.EOF) {
		c.onError(err)
	}
}

// SendBinary writes one AES-framed record as a WebSocket binary message.
func (c *Conn) SendBinary(body []byte) error {
	return c.send(websocket.BinaryMessage, body)
}

// SendText writes one TLS-PSK-mode JSON envelope as a WebSocket text
// message.
func (c *Conn) SendText(body []byte) error {
	return c.send(websocket.TextMessage, body)
}

func (c *Conn) send(kind int, body []byte) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	ws := c.ws
	c.mu.Unlock()

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := ws.WriteMessage(kind, body); err != nil {
		c.closeWithError(err)
		return err
	}
	return nil
}

// Close tears down the underlying connection. Idempotent.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	if c.ws != nil {
		return c.ws.Close()
	}
	return nil
}
