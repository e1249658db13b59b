package entity

import (
	"context"
	"encoding/json"

	"github.com/cbrgm/hclocal/internal/protocol"
)

// Program is the select/start runtime view of a program entity (§4.5.2).
type Program struct {
	transport  Transport
	uid        uint32
	optionUIDs []uint32
}

// NewProgram wraps one program description for select/start use.
func NewProgram(t Transport, desc protocol.EntityDescription) *Program {
	return &Program{transport: t, uid: desc.UID, optionUIDs: desc.OptionUIDs}
}

// UID returns the program's identifier.
func (p *Program) UID() uint32 { return p.uid }

// Override is one caller-supplied option value for Start. Value may be
// nil (JSON null). A slice, not a map, so the caller controls ordering
// deterministically — §4.5.2 requires overrides to appear first, "in
// iteration order of the overrides mapping which the caller controls".
type Override struct {
	UID   uint32
	Value any
}

type optionEntry struct {
	UID   uint32 `json:"uid"`
	Value any    `json:"value"`
}

// Select issues POST /ro/selectedProgram with an empty options list.
func (p *Program) Select(ctx context.Context) error {
	payload := map[string]any{"program": p.uid, "options": []optionEntry{}}
	data, err := encodeSingle(payload)
	if err != nil {
		return err
	}
	_, err = p.transport.SendSync(ctx, protocol.Message{
		Resource: "/ro/selectedProgram",
		Action:   protocol.Post,
		Data:     data,
	}, defaultTimeout)
	return err
}

// Start assembles the options list per §4.5.2's three steps and POSTs
// /ro/activeProgram: every override first, in the caller's given order;
// then, unless overrideOptions is true, a shadow-filled entry for each
// of the program's option_uids not already present in overrides, in
// option_uids order, taken only from ReadWrite entities with a non-nil
// shadow value.
func (p *Program) Start(ctx context.Context, overrides []Override, overrideOptions bool, entitiesByUID map[uint32]*Entity) error {
	seen := make(map[uint32]bool, len(overrides))
	options := make([]optionEntry, 0, len(overrides)+len(p.optionUIDs))
	for _, o := range overrides {
		options = append(options, optionEntry{UID: o.UID, Value: o.Value})
		seen[o.UID] = true
	}

	if !overrideOptions {
		for _, uid := range p.optionUIDs {
			if seen[uid] {
				continue
			}
			ent, ok := entitiesByUID[uid]
			if !ok {
				continue
			}
			if ent.Description().Access != protocol.AccessReadWrite {
				continue
			}
			shadow, ok := ent.ShadowValue()
			if !ok || shadow == nil {
				continue
			}
			options = append(options, optionEntry{UID: uid, Value: shadow})
		}
	}

	payload := map[string]any{"program": p.uid, "options": options}
	data, err := encodeSingle(payload)
	if err != nil {
		return err
	}
	_, err = p.transport.SendSync(ctx, protocol.Message{
		Resource: "/ro/activeProgram",
		Action:   protocol.Post,
		Data:     data,
	}, defaultTimeout)
	return err
}

func encodeSingle(v any) ([]json.RawMessage, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return []json.RawMessage{b}, nil
}
