package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnmarshalLenientFullEnvelope(t *testing.T) {
	raw := `{"sID":1104548025,"msgID":3717240202,"resource":"/ei/initialValues","version":2,"action":"POST","data":[{"edMsgID":4282959678}]}`

	var m Message
	require.NoError(t, json.Unmarshal([]byte(raw), &m))

	require.NotNil(t, m.SID)
	assert.EqualValues(t, 1104548025, *m.SID)
	require.NotNil(t, m.MsgID)
	assert.EqualValues(t, 3717240202, *m.MsgID)
	require.NotNil(t, m.Version)
	assert.EqualValues(t, 2, *m.Version)
	assert.Equal(t, Post, m.Action)
	require.Len(t, m.Data, 1)

	var first struct {
		EdMsgID int64 `json:"edMsgID"`
	}
	require.NoError(t, json.Unmarshal(m.Data[0], &first))
	assert.EqualValues(t, 4282959678, first.EdMsgID)
}

func TestUnmarshalMissingOptionalFields(t *testing.T) {
	raw := `{"resource":"/ro/values","action":"NOTIFY","data":[]}`

	var m Message
	require.NoError(t, json.Unmarshal([]byte(raw), &m))

	assert.Nil(t, m.SID)
	assert.Nil(t, m.MsgID)
	assert.Nil(t, m.Version)
	assert.Equal(t, Notify, m.Action)
	assert.Empty(t, m.Data)
}

func TestUnmarshalUnknownActionDefaultsToGet(t *testing.T) {
	var m Message
	require.NoError(t, json.Unmarshal([]byte(`{"resource":"/ro/values","action":"BOGUS"}`), &m))
	assert.Equal(t, Get, m.Action)

	require.NoError(t, json.Unmarshal([]byte(`{"resource":"/ro/values"}`), &m))
	assert.Equal(t, Get, m.Action)
}

func TestUnmarshalWrapsNonArrayData(t *testing.T) {
	var m Message
	require.NoError(t, json.Unmarshal([]byte(`{"resource":"/ro/values","data":{"uid":1}}`), &m))
	require.Len(t, m.Data, 1)
	assert.JSONEq(t, `{"uid":1}`, string(m.Data[0]))
}

func TestUnmarshalCoercesNumericFieldVariants(t *testing.T) {
	cases := []string{
		`{"resource":"/r","msgID":7}`,
		`{"resource":"/r","msgID":7.0}`,
		`{"resource":"/r","msgID":"7"}`,
	}
	for _, raw := range cases {
		var m Message
		require.NoError(t, json.Unmarshal([]byte(raw), &m))
		require.NotNil(t, m.MsgID, raw)
		assert.EqualValues(t, 7, *m.MsgID, raw)
	}
}

func TestUnmarshalRejectsFractionalAndBooleanNumericFields(t *testing.T) {
	cases := []string{
		`{"resource":"/r","msgID":7.5}`,
		`{"resource":"/r","msgID":true}`,
		`{"resource":"/r","msgID":"not-a-number"}`,
	}
	for _, raw := range cases {
		var m Message
		require.NoError(t, json.Unmarshal([]byte(raw), &m))
		assert.Nil(t, m.MsgID, raw)
	}
}

func TestMarshalUpperCasesActionOmitsEmptyFields(t *testing.T) {
	m := Message{Resource: "/ro/values", Action: Get}
	out, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"resource":"/ro/values","action":"GET"}`, string(out))
}

func TestMarshalIncludesPopulatedFields(t *testing.T) {
	sid := int64(42)
	msgID := int64(7)
	version := int32(2)
	m := Message{
		Resource: "/ro/values",
		Action:   Response,
		SID:      &sid,
		MsgID:    &msgID,
		Version:  &version,
		Data:     []json.RawMessage{json.RawMessage(`{"uid":1,"value":true}`)},
	}
	out, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"resource":"/ro/values","action":"RESPONSE","sID":42,"msgID":7,"version":2,"data":[{"uid":1,"value":true}]}`, string(out))
}

func TestRoundTripModuloDefaultFills(t *testing.T) {
	in := `{"resource":"/ro/values","action":"GET"}`
	var m Message
	require.NoError(t, json.Unmarshal([]byte(in), &m))
	out, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, in, string(out))
}

func TestServiceName(t *testing.T) {
	assert.Equal(t, "ci", ServiceName("/ci/services"))
	assert.Equal(t, "ei", ServiceName("/ei/initialValues"))
	assert.Equal(t, "ro", ServiceName("/ro/allDescriptionChanges"))
	assert.Equal(t, "", ServiceName(""))
}
