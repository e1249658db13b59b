// Package session implements the request/response correlator of §4.4:
// one duplex WebSocket, an ordered handshake, monotonic message ids,
// push-notification fan-out and idle keepalive probing.
package session

import (
	"context"
	"crypto/tls"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/cbrgm/hclocal/internal/aesrecord"
	"github.com/cbrgm/hclocal/internal/protocol"
	"github.com/cbrgm/hclocal/internal/tlspsk"
	"github.com/cbrgm/hclocal/pkg/transport"
)

// Session owns one appliance connection. The zero value is not usable;
// use New.
type Session struct {
	cfg    Config
	logger *zap.Logger

	sock  *transport.Conn
	chain *aesrecord.Chain // nil outside ModeAES

	mu              sync.Mutex
	state           State
	sid             *int64
	nextMsgID       int64
	serviceVersions map[string]int32
	lastRxAt        time.Time
	lastKeepaliveAt time.Time
	keepaliveGen    uint64
	keepaliveUID    *uint32
	terminalErr     error

	pendingMu sync.Mutex
	pending   map[int64]chan protocol.Message

	handshakeStarted bool
	handshakeGroup   singleflight.Group
	handshakeResult  chan error

	notifyMu     sync.Mutex
	notifyFuncs  []func(protocol.Message)
	onCloseFuncs []func(error)

	// sendMu serialises encodeAndSend end to end: compute MAC, advance
	// the chain's last_tx_hmac, hand the frame to the socket. Chain's own
	// txMu only makes the MAC bookkeeping atomic; without this mutex two
	// concurrent senders (e.g. an entity write racing the keepalive
	// probe) can race each other between Encrypt returning and
	// sock.SendBinary, delivering frames out of MAC-chain order.
	sendMu sync.Mutex

	eg     *errgroup.Group
	egCtx  context.Context
	cancel context.CancelFunc

	closeOnce sync.Once

	// testDialURL overrides the spec-fixed ws://host:80 / wss://host:443
	// target. Only ever set from within this package's tests, since the
	// wire endpoints are otherwise a fixed external contract (§6).
	testDialURL string
}

// New constructs a Session. It does not dial; call Connect.
func New(cfg Config) *Session {
	cfg = cfg.withDefaults()
	s := &Session{
		cfg:             cfg,
		logger:          cfg.Logger,
		state:           StateIdle,
		serviceVersions: make(map[string]int32),
		pending:         make(map[int64]chan protocol.Message),
		handshakeResult: make(chan error, 1),
		keepaliveUID:    cfg.KeepaliveUID,
	}
	return s
}

// State returns the session's current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the terminal error recorded when the session moved to
// StateClosed, or nil if it hasn't (or closed cleanly via Close).
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.terminalErr
}

// OnNotify registers an additional callback for every inbound NOTIFY
// message, invoked alongside the one given in Config. Safe to call
// before or after Connect.
func (s *Session) OnNotify(fn func(protocol.Message)) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	s.notifyFuncs = append(s.notifyFuncs, fn)
}

// OnClose registers a callback invoked once, with the terminal error
// (nil for a clean Close), when the session moves to StateClosed.
func (s *Session) OnClose(fn func(error)) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	s.onCloseFuncs = append(s.onCloseFuncs, fn)
}

func (s *Session) runCloseCallbacks(err error) {
	s.notifyMu.Lock()
	fns := append([]func(error){}, s.onCloseFuncs...)
	s.notifyMu.Unlock()
	for _, fn := range fns {
		fn(err)
	}
}

// Connect dials the appliance, waits for the handshake to complete (or
// ctx / the configured connect-timeout to expire) and starts the
// keepalive loop.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return fmt.Errorf("session: Connect called in state %s", s.state)
	}
	s.state = StateConnecting
	s.mu.Unlock()

	egCtx, cancel := context.WithCancel(context.Background())
	s.egCtx = egCtx
	s.cancel = cancel
	s.eg, s.egCtx = errgroup.WithContext(egCtx)

	url, tlsCfg, err := s.dialTarget()
	if err != nil {
		s.fail(err)
		return err
	}
	if s.testDialURL != "" {
		url = s.testDialURL
	}

	opts := []transport.Option{
		transport.WithTLSConfig(tlsCfg),
		transport.OnError(func(err error) {
			s.logger.Warn("transport error", zap.Error(err))
			s.fail(err)
		}),
	}
	switch s.cfg.Mode {
	case ModeAES:
		opts = append(opts, transport.OnBinaryMessage(s.onBinaryFrame))
	case ModeTLSPSK:
		opts = append(opts, transport.OnTextMessage(s.onTextFrame))
	}
	s.sock = transport.New(opts...)

	connectCtx, connectCancel := context.WithTimeout(ctx, s.cfg.ConnectTimeout)
	defer connectCancel()

	if err := s.sock.Dial(connectCtx, url); err != nil {
		s.fail(err)
		return err
	}

	s.mu.Lock()
	s.state = StateHandshaking
	s.mu.Unlock()

	select {
	case err := <-s.handshakeResult:
		if err != nil {
			s.fail(err)
			return err
		}
	case <-connectCtx.Done():
		err := ErrConnectTimeout
		s.fail(err)
		return err
	}

	if s.cfg.KeepaliveEnabled {
		s.startKeepalive()
	}
	return nil
}

func (s *Session) dialTarget() (string, *tls.Config, error) {
	switch s.cfg.Mode {
	case ModeAES:
		keys, err := aesrecord.Derive(s.cfg.PSK64, s.cfg.IV64)
		if err != nil {
			return "", nil, err
		}
		s.chain = aesrecord.New(keys)
		return fmt.Sprintf("ws://%s:80/homeconnect", s.cfg.Host), nil, nil
	case ModeTLSPSK:
		creds := tlspsk.Credentials{Identity: s.cfg.PSKIdentity, Key: []byte(s.cfg.PSK64), CipherSuiteSpec: s.cfg.TLSCipherString}
		tlsCfg, err := creds.ClientConfig(s.cfg.Host)
		if err != nil {
			return "", nil, err
		}
		return fmt.Sprintf("wss://%s:443/homeconnect", s.cfg.Host), tlsCfg, nil
	default:
		return "", nil, fmt.Errorf("session: unknown mode %v", s.cfg.Mode)
	}
}

// fail records a terminal error and moves the session to closed.
func (s *Session) fail(err error) {
	s.teardown(err)
}

// Close tears the session down. Idempotent, and safe to call after a
// prior fail() already closed it.
func (s *Session) Close() error {
	s.teardown(nil)
	return nil
}

// teardown runs the shared close sequence exactly once, regardless of
// whether it was triggered by fail() or by an explicit Close() call;
// whichever happens first wins the terminal error recorded for Err()
// and OnClose.
func (s *Session) teardown(err error) {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.state = StateClosed
		s.terminalErr = err
		s.mu.Unlock()
		if s.cancel != nil {
			s.cancel()
		}
		if s.sock != nil {
			_ = s.sock.Close()
		}
		s.runCloseCallbacks(err)
	})
}
