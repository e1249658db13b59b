package session

import (
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/cbrgm/hclocal/internal/protocol"
)

// startKeepalive launches the background probe loop under a fresh
// generation. Close cancels the context, which ends the loop; the loop
// also returns once the generation counter has moved past its own, which
// guards against a loop from a previous connection interfering with this
// one (§9).
func (s *Session) startKeepalive() {
	s.mu.Lock()
	s.keepaliveGen++
	gen := s.keepaliveGen
	s.mu.Unlock()

	s.eg.Go(func() error {
		return s.keepaliveLoop(gen)
	})
}

func (s *Session) keepaliveLoop(gen uint64) error {
	ticker := time.NewTicker(s.cfg.KeepaliveProbeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.egCtx.Done():
			return nil
		case <-ticker.C:
			s.mu.Lock()
			stale := s.keepaliveGen != gen
			s.mu.Unlock()
			if stale {
				return nil
			}
			s.maybeProbe()
		}
	}
}

func (s *Session) maybeProbe() {
	s.mu.Lock()
	connected := s.state == StateConnected
	uid := s.keepaliveUID
	idleSince := time.Since(s.lastRxAt)
	sinceLastProbe := time.Since(s.lastKeepaliveAt)
	s.mu.Unlock()

	if !connected || uid == nil {
		return
	}
	if idleSince <= s.cfg.KeepaliveIdleTimeout || sinceLastProbe <= s.cfg.KeepaliveIdleTimeout {
		return
	}

	data, err := json.Marshal(map[string]uint32{"uid": *uid})
	if err != nil {
		return
	}
	_, err = s.sendSync(s.egCtx, protocol.Message{
		Resource: "/ro/values",
		Action:   protocol.Get,
		Data:     []json.RawMessage{data},
	}, 10*time.Second)

	s.mu.Lock()
	s.lastKeepaliveAt = time.Now()
	s.mu.Unlock()

	if err == nil {
		return
	}

	var remoteErr *protocol.RemoteError
	if errors.As(err, &remoteErr) && remoteErr.Code == 400 {
		s.relearnKeepaliveUID()
		return
	}
	s.logger.Debug("keepalive probe failed", zap.Error(err))
}

// relearnKeepaliveUID handles a stale UID (§4.4): fall back to the
// caller-configured UID if any, else re-learn from a fresh
// /ro/allMandatoryValues read, else disable probing.
func (s *Session) relearnKeepaliveUID() {
	if s.cfg.KeepaliveUID != nil {
		s.mu.Lock()
		s.keepaliveUID = s.cfg.KeepaliveUID
		s.mu.Unlock()
		return
	}

	resp, err := s.sendSync(s.egCtx, protocol.Message{Resource: "/ro/allMandatoryValues", Action: protocol.Get}, 30*time.Second)
	if err != nil {
		s.logger.Warn("keepalive UID re-learn failed, disabling probing", zap.Error(err))
		s.mu.Lock()
		s.keepaliveUID = nil
		s.mu.Unlock()
		return
	}

	for _, raw := range resp.Data {
		var entry uidEntry
		if err := json.Unmarshal(raw, &entry); err != nil || entry.UID == nil {
			continue
		}
		s.mu.Lock()
		s.keepaliveUID = entry.UID
		s.mu.Unlock()
		return
	}

	s.logger.Warn("keepalive UID re-learn found no candidate, disabling probing")
	s.mu.Lock()
	s.keepaliveUID = nil
	s.mu.Unlock()
}
