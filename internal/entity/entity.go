package entity

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/cbrgm/hclocal/internal/protocol"
)

// Entity is one live, addressable feature of an appliance: a status,
// setting, event, command or option. Its description can mutate in
// place from description-change notifications (§3); value reads and
// writes go through Transport.
type Entity struct {
	transport Transport

	mu             sync.RWMutex
	desc           protocol.EntityDescription
	valueRaw       any
	valueShadowRaw any
	hasValue       bool
}

// NewEntity wraps one parsed description for runtime use.
func NewEntity(t Transport, desc protocol.EntityDescription) *Entity {
	return &Entity{transport: t, desc: desc}
}

// UID returns the entity's identifier.
func (e *Entity) UID() uint32 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.desc.UID
}

// Name returns the entity's profile name.
func (e *Entity) Name() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.desc.Name
}

// Description returns a copy of the entity's current description.
func (e *Entity) Description() protocol.EntityDescription {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.desc
}

// ReadResult is the coerced value of one read, plus its enum label when
// the description carries an enum_map entry for it.
type ReadResult struct {
	Value    any
	Label    string
	HasLabel bool
}

// Read returns the entity's last known value, coerced per §4.5.1, with
// its enum_map label when one matches.
func (e *Entity) Read() (ReadResult, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if !e.hasValue {
		return ReadResult{}, false
	}
	result := ReadResult{Value: e.valueRaw}
	if e.desc.EnumMap != nil {
		if key, ok := asIntKey(e.valueRaw); ok {
			if label, ok := e.desc.EnumMap[key]; ok {
				result.Label = label
				result.HasLabel = true
			}
		}
	}
	return result, true
}

// ShadowValue returns the last value written or read without an
// intervening rejection: the value a program-start shadow-fill would
// reuse.
func (e *Entity) ShadowValue() (any, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.valueShadowRaw == nil {
		return nil, false
	}
	return e.valueShadowRaw, true
}

// Write coerces v to the entity's protocol_type and POSTs /ro/values.
// Rejects with InvalidServicePayloadError if the entity isn't writable
// or isn't currently available, per §4.5.
func (e *Entity) Write(ctx context.Context, v any) error {
	e.mu.RLock()
	access := e.desc.Access
	available := e.desc.Available
	uid := e.desc.UID
	pt := e.desc.ProtocolType
	e.mu.RUnlock()

	if !access.Writable() {
		return &InvalidServicePayloadError{Reason: fmt.Sprintf("uid %d is not writable (access=%s)", uid, access)}
	}
	if available == protocol.AvailableFalse {
		return &InvalidServicePayloadError{Reason: fmt.Sprintf("uid %d is not available", uid)}
	}

	coerced := Coerce(pt, v)
	data, err := encodeSingle(map[string]any{"uid": uid, "value": coerced})
	if err != nil {
		return err
	}

	_, err = e.transport.SendSync(ctx, protocol.Message{
		Resource: "/ro/values",
		Action:   protocol.Post,
		Data:     data,
	}, defaultTimeout)
	if err != nil {
		return err
	}

	e.mu.Lock()
	e.valueRaw = coerced
	e.valueShadowRaw = coerced
	e.hasValue = true
	e.mu.Unlock()
	return nil
}

// update carries the subset of /ro/values fields a value or
// description-change notification may deliver for one entity.
type update struct {
	Value     *json.RawMessage `json:"value"`
	Access    *string          `json:"access"`
	Available *bool            `json:"available"`
	Min       *float64         `json:"min"`
	Max       *float64         `json:"max"`
	StepSize  *float64         `json:"stepSize"`
}

// ApplyUpdate absorbs one /ro/values or description-change entry, per
// §3's "mutable access, available, min, max, step" and §4.5's "apply
// incoming update" rule.
func (e *Entity) ApplyUpdate(raw json.RawMessage) error {
	var u update
	if err := json.Unmarshal(raw, &u); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if u.Value != nil {
		var decoded any
		if err := json.Unmarshal(*u.Value, &decoded); err != nil {
			return err
		}
		coerced := Coerce(e.desc.ProtocolType, decoded)
		e.valueRaw = coerced
		e.valueShadowRaw = coerced
		e.hasValue = true
	}
	if u.Access != nil {
		e.desc.Access = protocol.Access(*u.Access)
	}
	if u.Available != nil {
		if *u.Available {
			e.desc.Available = protocol.AvailableTrue
		} else {
			e.desc.Available = protocol.AvailableFalse
		}
	}
	if u.Min != nil {
		e.desc.Min = u.Min
	}
	if u.Max != nil {
		e.desc.Max = u.Max
	}
	if u.StepSize != nil {
		e.desc.Step = u.StepSize
	}
	return nil
}

func asIntKey(v any) (int, bool) {
	switch n := v.(type) {
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}
