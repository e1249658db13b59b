package entity

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cbrgm/hclocal/internal/protocol"
)

func TestProgramSelectSendsEmptyOptions(t *testing.T) {
	ft := &fakeTransport{resp: protocol.Message{Resource: "/ro/selectedProgram", Action: protocol.Response}}
	p := NewProgram(ft, protocol.EntityDescription{UID: 501})

	require.NoError(t, p.Select(context.Background()))
	assert.Equal(t, protocol.Post, ft.lastMsg.Action)
	assert.Equal(t, "/ro/selectedProgram", ft.lastMsg.Resource)

	var payload struct {
		Program uint32        `json:"program"`
		Options []optionEntry `json:"options"`
	}
	require.NoError(t, json.Unmarshal(ft.lastMsg.Data[0], &payload))
	assert.EqualValues(t, 501, payload.Program)
	assert.Empty(t, payload.Options)
}

func TestProgramStartShadowFillsUnoverriddenOptions(t *testing.T) {
	ft := &fakeTransport{resp: protocol.Message{Resource: "/ro/activeProgram", Action: protocol.Response}}
	p := NewProgram(ft, protocol.EntityDescription{UID: 502, OptionUIDs: []uint32{401, 402}})

	e401 := NewEntity(&fakeTransport{}, protocol.EntityDescription{UID: 401, ProtocolType: protocol.Integer, Access: protocol.AccessReadWrite})
	require.NoError(t, e401.ApplyUpdate(json.RawMessage(`{"value":10}`)))
	e402 := NewEntity(&fakeTransport{}, protocol.EntityDescription{UID: 402, ProtocolType: protocol.Integer, Access: protocol.AccessReadWrite})
	require.NoError(t, e402.ApplyUpdate(json.RawMessage(`{"value":20}`)))

	byUID := map[uint32]*Entity{401: e401, 402: e402}
	overrides := []Override{{UID: 401, Value: 99}}

	require.NoError(t, p.Start(context.Background(), overrides, false, byUID))

	var payload struct {
		Program uint32        `json:"program"`
		Options []optionEntry `json:"options"`
	}
	require.NoError(t, json.Unmarshal(ft.lastMsg.Data[0], &payload))
	require.Len(t, payload.Options, 2)
	assert.EqualValues(t, 401, payload.Options[0].UID)
	assert.EqualValues(t, 99, payload.Options[0].Value)
	assert.EqualValues(t, 402, payload.Options[1].UID)
	assert.EqualValues(t, 20, payload.Options[1].Value)
}

func TestProgramStartOverrideOptionsSkipsShadowFill(t *testing.T) {
	ft := &fakeTransport{resp: protocol.Message{Resource: "/ro/activeProgram", Action: protocol.Response}}
	p := NewProgram(ft, protocol.EntityDescription{UID: 502, OptionUIDs: []uint32{401, 402}})

	e402 := NewEntity(&fakeTransport{}, protocol.EntityDescription{UID: 402, ProtocolType: protocol.Integer, Access: protocol.AccessReadWrite})
	require.NoError(t, e402.ApplyUpdate(json.RawMessage(`{"value":20}`)))
	byUID := map[uint32]*Entity{402: e402}

	require.NoError(t, p.Start(context.Background(), []Override{{UID: 401, Value: 5}}, true, byUID))

	var payload struct {
		Options []optionEntry `json:"options"`
	}
	require.NoError(t, json.Unmarshal(ft.lastMsg.Data[0], &payload))
	require.Len(t, payload.Options, 1)
	assert.EqualValues(t, 401, payload.Options[0].UID)
}

func TestProgramStartSkipsNonReadWriteAndNilShadow(t *testing.T) {
	ft := &fakeTransport{resp: protocol.Message{Resource: "/ro/activeProgram", Action: protocol.Response}}
	p := NewProgram(ft, protocol.EntityDescription{UID: 502, OptionUIDs: []uint32{401, 402, 403}})

	e401 := NewEntity(&fakeTransport{}, protocol.EntityDescription{UID: 401, ProtocolType: protocol.Integer, Access: protocol.AccessRead})
	require.NoError(t, e401.ApplyUpdate(json.RawMessage(`{"value":1}`)))
	e402 := NewEntity(&fakeTransport{}, protocol.EntityDescription{UID: 402, ProtocolType: protocol.Integer, Access: protocol.AccessReadWrite})
	byUID := map[uint32]*Entity{401: e401, 402: e402}

	require.NoError(t, p.Start(context.Background(), nil, false, byUID))

	var payload struct {
		Options []optionEntry `json:"options"`
	}
	require.NoError(t, json.Unmarshal(ft.lastMsg.Data[0], &payload))
	assert.Empty(t, payload.Options)
}

func TestOverrideValueMayBeNil(t *testing.T) {
	ft := &fakeTransport{resp: protocol.Message{Resource: "/ro/activeProgram", Action: protocol.Response}}
	p := NewProgram(ft, protocol.EntityDescription{UID: 502})

	require.NoError(t, p.Start(context.Background(), []Override{{UID: 401, Value: nil}}, false, nil))

	var payload struct {
		Options []optionEntry `json:"options"`
	}
	require.NoError(t, json.Unmarshal(ft.lastMsg.Data[0], &payload))
	require.Len(t, payload.Options, 1)
	assert.Nil(t, payload.Options[0].Value)
}
