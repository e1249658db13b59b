package wiring

import (
	"github.com/samber/lo"

	"github.com/cbrgm/hclocal/internal/protocol"
)

// InferKeepaliveUID implements §4.4's "Keepalive UID inference (from
// device description)" rule: the first setting; else the first status
// entry that is readable and not unavailable; else the first status
// entry regardless; else nothing to infer.
func InferKeepaliveUID(desc protocol.DeviceDescription) (uint32, bool) {
	if len(desc.Setting) > 0 {
		return desc.Setting[0].UID, true
	}

	if d, ok := lo.Find(desc.Status, func(d protocol.EntityDescription) bool {
		return d.Access.Readable() && d.Available != protocol.AvailableFalse
	}); ok {
		return d.UID, true
	}

	if uids := lo.Map(desc.Status, func(d protocol.EntityDescription, _ int) uint32 { return d.UID }); len(uids) > 0 {
		return uids[0], true
	}

	return 0, false
}
