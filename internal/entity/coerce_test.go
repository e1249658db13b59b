package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cbrgm/hclocal/internal/protocol"
)

func TestCoerceBoolean(t *testing.T) {
	assert.Equal(t, true, Coerce(protocol.Boolean, true))
	assert.Equal(t, true, Coerce(protocol.Boolean, int64(1)))
	assert.Equal(t, false, Coerce(protocol.Boolean, int64(0)))
	assert.Equal(t, true, Coerce(protocol.Boolean, float64(2.5)))
	assert.Equal(t, true, Coerce(protocol.Boolean, "true"))
	assert.Equal(t, true, Coerce(protocol.Boolean, "TRUE"))
	assert.Equal(t, false, Coerce(protocol.Boolean, "false"))
	assert.Equal(t, false, Coerce(protocol.Boolean, "0"))
	assert.Equal(t, true, Coerce(protocol.Boolean, "3"))
	assert.Equal(t, true, Coerce(protocol.Boolean, "anything"))
	assert.Equal(t, false, Coerce(protocol.Boolean, ""))
}

func TestCoerceInteger(t *testing.T) {
	assert.Equal(t, int64(120), Coerce(protocol.Integer, int64(120)))
	assert.Equal(t, int64(120), Coerce(protocol.Integer, float64(120.9)))
	assert.Equal(t, int64(5), Coerce(protocol.Integer, "5"))
	assert.Equal(t, int64(1), Coerce(protocol.Integer, true))
	assert.Equal(t, int64(0), Coerce(protocol.Integer, false))
}

func TestCoerceFloat(t *testing.T) {
	assert.Equal(t, 3.5, Coerce(protocol.Float, 3.5))
	assert.Equal(t, 3.0, Coerce(protocol.Float, int64(3)))
	assert.Equal(t, 3.5, Coerce(protocol.Float, "3.5"))
}

func TestCoerceString(t *testing.T) {
	assert.Equal(t, "120", Coerce(protocol.String, int64(120)))
	assert.Equal(t, "true", Coerce(protocol.String, true))
	assert.Equal(t, "hi", Coerce(protocol.String, "hi"))
}

func TestCoerceObject(t *testing.T) {
	assert.Equal(t, map[string]any{"a": float64(1)}, Coerce(protocol.Object, `{"a":1}`))
	assert.Equal(t, "not json", Coerce(protocol.Object, "not json"))
	passthrough := map[string]any{"a": 1}
	assert.Equal(t, passthrough, Coerce(protocol.Object, passthrough))
}

func TestCoerceAbsentTypePassesThrough(t *testing.T) {
	assert.Equal(t, "raw", Coerce(protocol.ProtocolType(""), "raw"))
}
