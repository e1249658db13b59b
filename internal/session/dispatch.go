package session

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/cbrgm/hclocal/internal/protocol"
)

func (s *Session) onBinaryFrame(frame []byte) {
	plaintext, err := s.chain.Decrypt(frame)
	if err != nil {
		s.logger.Warn("dropping frame: decode failed", zap.Error(err))
		return
	}
	s.decodeAndDispatch(plaintext)
}

func (s *Session) onTextFrame(raw []byte) {
	s.decodeAndDispatch(raw)
}

func (s *Session) decodeAndDispatch(raw []byte) {
	var msg protocol.Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		s.logger.Warn("dropping frame: invalid envelope", zap.Error(err))
		return
	}
	s.dispatch(msg)
}

// dispatch implements the inbound routing rules of §4.4.
func (s *Session) dispatch(msg protocol.Message) {
	s.mu.Lock()
	s.lastRxAt = time.Now()
	s.mu.Unlock()

	switch {
	case msg.Resource == "/ei/initialValues":
		s.startHandshakeOnce(msg)
	case msg.Action == protocol.Response && msg.MsgID != nil:
		s.deliverPending(*msg.MsgID, msg)
	case msg.Action == protocol.Notify:
		if s.cfg.Notify != nil {
			s.cfg.Notify(msg)
		}
		s.notifyMu.Lock()
		fns := append([]func(protocol.Message){}, s.notifyFuncs...)
		s.notifyMu.Unlock()
		for _, fn := range fns {
			fn(msg)
		}
	default:
		// silently dropped, per §4.4.
	}
}

func (s *Session) startHandshakeOnce(initial protocol.Message) {
	s.mu.Lock()
	already := s.handshakeStarted
	s.handshakeStarted = true
	s.mu.Unlock()
	if already {
		return
	}

	go func() {
		_, _, _ = s.handshakeGroup.Do("handshake", func() (interface{}, error) {
			err := s.runHandshake(initial)
			s.handshakeResult <- err
			return nil, err
		})
	}()
}

func (s *Session) deliverPending(msgID int64, msg protocol.Message) {
	s.pendingMu.Lock()
	slot, ok := s.pending[msgID]
	s.pendingMu.Unlock()
	if !ok {
		return
	}
	select {
	case slot <- msg:
	default:
		// duplicate delivery for the same msg_id: dropped on the floor.
	}
}

// prepareMessage fills sid, version and msg_id when absent, per the
// send_sync preparation rules of §4.4.
func (s *Session) prepareMessage(msg protocol.Message) protocol.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	if msg.SID == nil {
		msg.SID = s.sid
	}
	if msg.Version == nil {
		v := int32(1)
		if got, ok := s.serviceVersions[protocol.ServiceName(msg.Resource)]; ok {
			v = got
		}
		msg.Version = &v
	}
	if msg.MsgID == nil {
		id := s.nextMsgID
		s.nextMsgID++
		msg.MsgID = &id
	}
	return msg
}

// encodeAndSend serialises one message and hands it to the socket.
// Per §5, send_sync is called from many concurrent tasks, so the
// encrypt-and-write sequence runs under sendMu: Chain's own txMu
// only guarantees the MAC bookkeeping is atomic, not that two goroutines
// won't interleave their writes to the socket after Encrypt returns.
func (s *Session) encodeAndSend(msg protocol.Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	switch s.cfg.Mode {
	case ModeAES:
		frame, err := s.chain.Encrypt(payload)
		if err != nil {
			return err
		}
		return s.sock.SendBinary(frame)
	default:
		return s.sock.SendText(payload)
	}
}

// sendSync prepares, sends and correlates one request, per §4.4's
// send_sync contract.
func (s *Session) sendSync(ctx context.Context, msg protocol.Message, timeout time.Duration) (protocol.Message, error) {
	msg = s.prepareMessage(msg)
	msgID := *msg.MsgID

	slot := make(chan protocol.Message, 1)
	s.pendingMu.Lock()
	s.pending[msgID] = slot
	s.pendingMu.Unlock()
	defer func() {
		s.pendingMu.Lock()
		delete(s.pending, msgID)
		s.pendingMu.Unlock()
	}()

	if err := s.encodeAndSend(msg); err != nil {
		return protocol.Message{}, &NotConnectedError{Reason: NotConnectedClosed}
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case resp := <-slot:
		if resp.Code != nil {
			return protocol.Message{}, &protocol.RemoteError{Code: *resp.Code, Resource: msg.Resource}
		}
		return resp, nil
	case <-timer.C:
		return protocol.Message{}, &NotConnectedError{Reason: NotConnectedTimeout}
	case <-ctx.Done():
		return protocol.Message{}, ctx.Err()
	}
}

// sendFireAndForget prepares and sends a message with no reply
// correlation, used for the handshake's RESPONSE reply to
// /ei/initialValues and for NOTIFY messages like /ei/deviceReady.
func (s *Session) sendFireAndForget(msg protocol.Message) error {
	return s.encodeAndSend(s.prepareMessage(msg))
}

// SendSync exposes sendSync to callers outside the package (the entity
// runtime's Transport contract of §6).
func (s *Session) SendSync(ctx context.Context, msg protocol.Message, timeout time.Duration) (protocol.Message, error) {
	s.mu.Lock()
	closed := s.state == StateClosed
	s.mu.Unlock()
	if closed {
		return protocol.Message{}, &NotConnectedError{Reason: NotConnectedClosed}
	}
	return s.sendSync(ctx, msg, timeout)
}
