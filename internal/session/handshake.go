package session

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/cbrgm/hclocal/internal/protocol"
	"github.com/cbrgm/hclocal/pkg/b64"
)

type serviceVersionEntry struct {
	Service string `json:"service"`
	Version int32  `json:"version"`
}

type uidEntry struct {
	UID *uint32 `json:"uid"`
}

// runHandshake executes the nine-step sequence of §4.4, triggered by the
// inbound /ei/initialValues message. It runs on its own goroutine
// (startHandshakeOnce), concurrently with ordinary dispatch, since its
// sendSync calls must not block the socket read loop.
func (s *Session) runHandshake(initial protocol.Message) error {
	ctx := s.egCtx

	// Step 1: capture sid, seed next_msg_id from data[0].edMsgID.
	s.mu.Lock()
	s.sid = initial.SID
	s.mu.Unlock()
	if len(initial.Data) > 0 {
		var seed struct {
			EdMsgID *int64 `json:"edMsgID"`
		}
		if err := json.Unmarshal(initial.Data[0], &seed); err == nil && seed.EdMsgID != nil {
			s.mu.Lock()
			s.nextMsgID = *seed.EdMsgID
			s.mu.Unlock()
		}
	}

	// Step 2: reply with the device identity, addressed with the sid and
	// msg_id copied verbatim off the inbound message — the service-version
	// map isn't populated yet, so if prepareMessage filled a version here
	// it would fall back to 1 anyway (see DESIGN.md's Open Question note).
	replyData, err := json.Marshal(map[string]string{
		"deviceType": "Application",
		"deviceName": s.cfg.AppName,
		"deviceID":   s.cfg.AppID,
	})
	if err != nil {
		return &HandshakeFailure{Step: "marshal device identity", Err: err}
	}
	reply := protocol.Message{
		Resource: "/ei/initialValues",
		Action:   protocol.Response,
		SID:      initial.SID,
		MsgID:    initial.MsgID,
		Data:     []json.RawMessage{replyData},
	}
	if err := s.sendFireAndForget(reply); err != nil {
		return &HandshakeFailure{Step: "reply /ei/initialValues", Err: err}
	}

	// Step 3: GET /ci/services version 1, mandatory.
	one := int32(1)
	servicesResp, err := s.sendSync(ctx, protocol.Message{Resource: "/ci/services", Action: protocol.Get, Version: &one}, 30*time.Second)
	if err != nil {
		return &HandshakeFailure{Step: "/ci/services", Err: err}
	}
	for _, raw := range servicesResp.Data {
		var entry serviceVersionEntry
		if err := json.Unmarshal(raw, &entry); err != nil {
			continue
		}
		s.mu.Lock()
		s.serviceVersions[entry.Service] = entry.Version
		s.mu.Unlock()
	}

	// Step 4: legacy ci versions authenticate with a nonce.
	if ciVersion, ok := s.getServiceVersion("ci"); ok && ciVersion < 3 {
		nonce, err := b64.Nonce(32)
		if err != nil {
			return &HandshakeFailure{Step: "/ci/authentication nonce", Err: err}
		}
		nonceData, err := json.Marshal(map[string]string{"nonce": nonce})
		if err != nil {
			return &HandshakeFailure{Step: "/ci/authentication marshal", Err: err}
		}
		if _, err := s.sendSync(ctx, protocol.Message{Resource: "/ci/authentication", Action: protocol.Get, Data: []json.RawMessage{nonceData}}, 30*time.Second); err != nil {
			return &HandshakeFailure{Step: "/ci/authentication", Err: err}
		}
		s.bestEffort(ctx, "/ci/info")
	}

	// Step 5.
	if _, ok := s.getServiceVersion("iz"); ok {
		s.bestEffort(ctx, "/iz/info")
	}

	// Step 6.
	if eiVersion, ok := s.getServiceVersion("ei"); ok && eiVersion == 2 {
		if err := s.sendFireAndForget(protocol.Message{Resource: "/ei/deviceReady", Action: protocol.Notify}); err != nil {
			s.logger.Debug("fire-and-forget /ei/deviceReady failed", zap.Error(err))
		}
	}

	// Step 7.
	if _, ok := s.getServiceVersion("ni"); ok {
		s.bestEffort(ctx, "/ni/info")
	}

	// Step 8: best-effort bulk reads, with keepalive UID inference from
	// the mandatory-values response if the caller didn't configure one.
	s.bestEffort(ctx, "/ro/allDescriptionChanges")
	mandatory := s.bestEffortWithResponse(ctx, "/ro/allMandatoryValues")

	s.mu.Lock()
	needUID := s.keepaliveUID == nil
	s.mu.Unlock()
	if needUID && mandatory != nil {
		for _, raw := range mandatory.Data {
			var entry uidEntry
			if err := json.Unmarshal(raw, &entry); err != nil || entry.UID == nil {
				continue
			}
			s.mu.Lock()
			s.keepaliveUID = entry.UID
			s.mu.Unlock()
			break
		}
	}

	// Step 9.
	s.mu.Lock()
	s.state = StateConnected
	s.mu.Unlock()
	return nil
}

func (s *Session) getServiceVersion(name string) (int32, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.serviceVersions[name]
	return v, ok
}

// bestEffort issues a GET whose RemoteError (and any other failure) is
// logged and swallowed, per §4.4's best-effort handshake sub-steps.
func (s *Session) bestEffort(ctx context.Context, resource string) {
	if _, err := s.sendSync(ctx, protocol.Message{Resource: resource, Action: protocol.Get}, 30*time.Second); err != nil {
		s.logger.Debug("best-effort handshake step failed", zap.String("resource", resource), zap.Error(err))
	}
}

func (s *Session) bestEffortWithResponse(ctx context.Context, resource string) *protocol.Message {
	resp, err := s.sendSync(ctx, protocol.Message{Resource: resource, Action: protocol.Get}, 30*time.Second)
	if err != nil {
		s.logger.Debug("best-effort handshake step failed", zap.String("resource", resource), zap.Error(err))
		return nil
	}
	return &resp
}
