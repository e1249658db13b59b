// Package wiring implements §4.6's profile-to-runtime construction:
// given a parsed device description and a transport, build live
// entities keyed by uid and name, classify them, and assemble a program
// registry.
package wiring

import (
	"context"

	"github.com/gosimple/slug"
	"github.com/samber/lo"

	"github.com/cbrgm/hclocal/internal/entity"
	"github.com/cbrgm/hclocal/internal/protocol"
)

// Feature is one classified, wired entity.
type Feature struct {
	Kind   Kind
	Entity *entity.Entity
	// Key is a stable, slugged form of the entity's name suitable for
	// log fields and metric labels.
	Key string
}

// Registry is the constructed runtime view of one appliance's profile.
type Registry struct {
	ByUID    map[uint32]*entity.Entity
	ByName   map[string]*entity.Entity
	Features []Feature
	Programs map[uint32]*entity.Program

	SelectedProgram *entity.Entity
	ActiveProgram   *entity.Entity
}

// Build constructs a Registry from a parsed device description. t is
// shared by every wired entity and program; it is the only thing they
// depend on (§6's Transport.send_sync contract).
func Build(t entity.Transport, desc protocol.DeviceDescription) *Registry {
	r := &Registry{
		ByUID:    make(map[uint32]*entity.Entity),
		ByName:   make(map[string]*entity.Entity),
		Programs: make(map[uint32]*entity.Program),
	}

	register := func(d protocol.EntityDescription, kind Kind) *entity.Entity {
		e := entity.NewEntity(t, d)
		r.ByUID[d.UID] = e
		if d.Name != "" {
			r.ByName[d.Name] = e
		}
		r.Features = append(r.Features, Feature{Kind: kind, Entity: e, Key: slug.Make(d.Name)})
		return e
	}

	for _, d := range desc.Setting {
		register(d, classifySetting(d))
	}
	for _, d := range desc.Status {
		register(d, classifyStatus(d))
	}
	for _, d := range desc.Command {
		register(d, KindCommand)
	}
	for _, d := range desc.Event {
		register(d, KindEvent)
	}
	for _, d := range desc.Option {
		register(d, classifySetting(d))
	}
	for _, d := range desc.Program {
		register(d, KindProgram)
		r.Programs[d.UID] = entity.NewProgram(t, d)
	}

	if desc.SelectedProgram != nil {
		if e, ok := r.ByUID[desc.SelectedProgram.UID]; ok {
			r.SelectedProgram = e
		}
	}
	if desc.ActiveProgram != nil {
		if e, ok := r.ByUID[desc.ActiveProgram.UID]; ok {
			r.ActiveProgram = e
		}
	}

	return r
}

// classifySetting implements §4.6's numeric/selector/switch rule, in
// the priority order the spec lists them: bounds first, then enum
// size, then boolean/on-off.
func classifySetting(d protocol.EntityDescription) Kind {
	if d.Min != nil || d.Max != nil || d.Step != nil {
		return KindNumeric
	}
	if len(d.EnumMap) > 2 {
		return KindSelector
	}
	if d.ProtocolType == protocol.Boolean {
		return KindSwitch
	}
	if len(d.EnumMap) == 2 {
		if _, _, ok := detectOnOff(d.EnumMap); ok {
			return KindSwitch
		}
	}
	return KindSelector
}

// classifyStatus implements §4.6's binary-sensor/sensor rule.
func classifyStatus(d protocol.EntityDescription) Kind {
	if d.ProtocolType == protocol.Boolean || len(d.EnumMap) == 2 {
		return KindBinarySensor
	}
	return KindSensor
}

// TriggerCommand writes true to a command entity, per §4.6's "commands
// become single-shot operations that write true".
func (r *Registry) TriggerCommand(ctx context.Context, uid uint32) error {
	e, ok := r.ByUID[uid]
	if !ok {
		return &UnknownEntityError{UID: uid}
	}
	return e.Write(ctx, true)
}

// StartSelectedProgram reads the currently selected program's uid and
// starts it, per §4.6's composite "start" operation.
func (r *Registry) StartSelectedProgram(ctx context.Context, overrides []entity.Override, overrideOptions bool) error {
	if r.SelectedProgram == nil {
		return ErrNoSelectedProgram
	}
	result, ok := r.SelectedProgram.Read()
	if !ok {
		return ErrNoSelectedProgram
	}
	uid, ok := asUID(result.Value)
	if !ok {
		return ErrNoSelectedProgram
	}
	prog, ok := r.Programs[uid]
	if !ok {
		return &UnknownEntityError{UID: uid}
	}
	return prog.Start(ctx, overrides, overrideOptions, r.ByUID)
}

// FeaturesOfKind filters the registry's features down to one kind, for
// callers building a UI or automation surface from a specific category.
func (r *Registry) FeaturesOfKind(kind Kind) []Feature {
	return lo.Filter(r.Features, func(f Feature, _ int) bool { return f.Kind == kind })
}

func asUID(v any) (uint32, bool) {
	switch n := v.(type) {
	case int64:
		if n < 0 {
			return 0, false
		}
		return uint32(n), true
	case float64:
		if n < 0 {
			return 0, false
		}
		return uint32(n), true
	default:
		return 0, false
	}
}
